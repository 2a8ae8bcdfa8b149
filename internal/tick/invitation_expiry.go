package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// InvitationExpiryPhase expires conversation invitations that have
// passed their expiry tick, grounded on
// original_source/hearth/engine/phases/invitations.py.
type InvitationExpiryPhase struct {
	conversation *conversationsvc.ConversationService
}

// NewInvitationExpiryPhase builds an InvitationExpiryPhase.
func NewInvitationExpiryPhase(conversation *conversationsvc.ConversationService) *InvitationExpiryPhase {
	return &InvitationExpiryPhase{conversation: conversation}
}

func (p *InvitationExpiryPhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	expired, err := p.conversation.ExpireInvitations(ctx, tc.Tick)
	if err != nil {
		return tc, err
	}
	if len(expired) == 0 {
		return tc, nil
	}

	events := make([]domain.DomainEvent, 0, len(expired))
	for _, inv := range expired {
		events = append(events, domain.InvitationExpiredEvent{
			BaseEvent: domain.BaseEvent{Tick: tc.Tick, Timestamp: nowFunc()},
			Inviter:   inv.Inviter, Invitee: inv.Invitee,
		})
	}
	return tc.AppendEvents(events), nil
}
