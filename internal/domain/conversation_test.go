package domain

import "testing"

func TestOtherParticipantsExcludesSelf(t *testing.T) {
	conv := Conversation{Participants: map[AgentName]bool{"elio": true, "sola": true, "rook": true}}
	others := conv.OtherParticipants("sola")

	if others["sola"] {
		t.Fatalf("self must be excluded")
	}
	if !others["elio"] || !others["rook"] {
		t.Fatalf("every other participant must be present")
	}
	if len(others) != 2 {
		t.Fatalf("expected 2 other participants, got %d", len(others))
	}
}

func TestConversationIsActiveUntilEnded(t *testing.T) {
	conv := Conversation{Participants: map[AgentName]bool{"elio": true}}
	if !conv.IsActive() {
		t.Fatalf("a fresh conversation must be active")
	}

	ended := conv.WithEnded(5)
	if ended.IsActive() {
		t.Fatalf("an ended conversation must no longer be active")
	}
	if conv.IsActive() != true {
		t.Fatalf("WithEnded must not mutate the receiver")
	}
}

func TestInvitationExpiresStrictlyAfterItsWindow(t *testing.T) {
	inv := Invitation{CreatedAtTick: 1, ExpiresAtTick: 1 + InviteExpiryTicks}

	if inv.IsExpired(inv.ExpiresAtTick) {
		t.Fatalf("the invitee must get the full window through the expiry tick itself")
	}
	if !inv.IsExpired(inv.ExpiresAtTick + 1) {
		t.Fatalf("the tick after expiry must report expired")
	}
}
