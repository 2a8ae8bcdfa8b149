package conversationsvc

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestConversations(t *testing.T) *ConversationService {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 10, 10, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewConversationService(st, slog.Default())
}

// A public invite accepted joins a fresh conversation containing exactly
// the inviter and invitee, and the invitation no longer exists afterward.
func TestAcceptInviteStartsConversationAndConsumesInvitation(t *testing.T) {
	ctx := context.Background()
	svc := newTestConversations(t)

	_, err := svc.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)

	result, ok, err := svc.AcceptInvite(ctx, "sola", 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, result.Conversation.Participants["elio"])
	require.True(t, result.Conversation.Participants["sola"])

	_, err = svc.GetPendingInvitation(ctx, "sola")
	require.Error(t, err, "the invitation must be gone once accepted")
}

// When the inviter has since joined a different public conversation, the
// invitee's accept joins that conversation instead of creating a new one.
func TestAcceptInviteJoinsInvitersNewPublicConversationOnRace(t *testing.T) {
	ctx := context.Background()
	svc := newTestConversations(t)

	_, err := svc.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)

	// elio races ahead and starts a separate public conversation with rook
	// before sola accepts.
	_, err = svc.CreateInvite(ctx, "rook", "elio", domain.Public, 1)
	require.NoError(t, err)
	raceResult, ok, err := svc.AcceptInvite(ctx, "elio", 1)
	require.NoError(t, err)
	require.True(t, ok)

	result, ok, err := svc.AcceptInvite(ctx, "sola", 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, raceResult.Conversation.ID, result.Conversation.ID, "sola joins elio's existing public conversation")
	require.True(t, result.Conversation.Participants["rook"])
	require.True(t, result.Conversation.Participants["sola"])
}

// When the inviter has since joined a private conversation, the pending
// invitation is stale: the accept fails and the invitation is discarded.
func TestAcceptInviteFailsWhenInviterJoinedPrivateConversation(t *testing.T) {
	ctx := context.Background()
	svc := newTestConversations(t)

	_, err := svc.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)

	_, err = svc.CreateInvite(ctx, "rook", "elio", domain.Private, 1)
	require.NoError(t, err)
	_, ok, err := svc.AcceptInvite(ctx, "elio", 1)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = svc.AcceptInvite(ctx, "sola", 2)
	require.NoError(t, err)
	require.False(t, ok, "the stale invitation must not resolve to a conversation")

	_, err = svc.GetPendingInvitation(ctx, "sola")
	require.Error(t, err, "the stale invitation must have been discarded")
}

// Accepting an invite puts sola in a conversation, and leaving it takes
// sola out again. The service itself does not refuse a second
// conversation; the action handlers check IsAgentInConversation first.
func TestLeaveConversationFreesAgent(t *testing.T) {
	ctx := context.Background()
	svc := newTestConversations(t)

	_, err := svc.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)
	_, ok, err := svc.AcceptInvite(ctx, "sola", 1)
	require.NoError(t, err)
	require.True(t, ok)

	inConv, err := svc.IsAgentInConversation(ctx, "sola")
	require.NoError(t, err)
	require.True(t, inConv)

	conv, err := svc.GetConversationForAgent(ctx, "sola")
	require.NoError(t, err)

	_, ok, _, err := svc.LeaveConversation(ctx, "sola", 2)
	require.NoError(t, err)
	require.True(t, ok)

	inConv, err = svc.IsAgentInConversation(ctx, "sola")
	require.NoError(t, err)
	require.False(t, inConv, "leaving frees the agent to join elsewhere")
	require.NotEmpty(t, conv.ID)
}

// Expired invitations are removed as a batch and returned to the caller so
// the tick pipeline can turn each into an event.
func TestExpireInvitationsRemovesOnlyPastExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestConversations(t)

	_, err := svc.CreateInvite(ctx, "elio", "sola", domain.Public, 1)
	require.NoError(t, err)
	_, err = svc.CreateInvite(ctx, "rook", "elio", domain.Public, 100)
	require.NoError(t, err)

	expired, err := svc.ExpireInvitations(ctx, 1+domain.InviteExpiryTicks+1)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, domain.AgentName("elio"), expired[0].Inviter)

	_, err = svc.GetPendingInvitation(ctx, "sola")
	require.Error(t, err)
	_, err = svc.GetPendingInvitation(ctx, "elio")
	require.NoError(t, err, "the invite created at tick 100 has not expired yet")
}
