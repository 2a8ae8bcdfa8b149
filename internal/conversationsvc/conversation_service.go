// Package conversationsvc is the business-logic layer between the action
// engine and ConversationRepo for consent-based conversations.
//
// Key design decisions, carried over from the system this was built
// against: conversations are position-agnostic (they continue regardless
// of agent movement), inviting requires line of sight to the invitee,
// agents may be in only one conversation at a time, and conversation
// context surfaces only turns an agent hasn't seen yet.
//
// Grounded on original_source/hearth/services/conversation.py, with the
// service-over-repo shape and slog-based logging idiom borrowed from
// tarsy's pkg/services/chat_service.go.
package conversationsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

type ConversationService struct {
	storage *storage.Storage
	logger  *slog.Logger
}

func NewConversationService(st *storage.Storage, logger *slog.Logger) *ConversationService {
	return &ConversationService{storage: st, logger: logger}
}

// -----------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------

func (s *ConversationService) GetConversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	return s.storage.Conversations.GetConversation(ctx, id)
}

func (s *ConversationService) GetConversationForAgent(ctx context.Context, agent domain.AgentName) (domain.Conversation, error) {
	return s.storage.Conversations.GetConversationForAgent(ctx, agent)
}

func (s *ConversationService) GetPendingInvitation(ctx context.Context, agent domain.AgentName) (domain.Invitation, error) {
	return s.storage.Conversations.GetPendingInvitation(ctx, agent)
}

func (s *ConversationService) GetPendingOutgoingInvite(ctx context.Context, agent domain.AgentName) (domain.Invitation, error) {
	return s.storage.Conversations.GetPendingOutgoingInvite(ctx, agent)
}

// GetConversationContext returns agent's view of their active
// conversation: only turns since their last observed tick, plus who else
// is present.
func (s *ConversationService) GetConversationContext(ctx context.Context, agent domain.AgentName) (domain.ConversationContext, bool, error) {
	conv, err := s.storage.Conversations.GetConversationForAgent(ctx, agent)
	if err != nil {
		return domain.ConversationContext{}, false, nil
	}

	lastTurnTick, err := s.storage.Conversations.GetLastTurnTick(ctx, conv.ID, agent)
	if err != nil {
		return domain.ConversationContext{}, false, err
	}

	unseen, err := s.storage.Conversations.GetTurnsSince(ctx, conv.ID, lastTurnTick)
	if err != nil {
		return domain.ConversationContext{}, false, err
	}

	return domain.ConversationContext{
		Conversation:      conv,
		UnseenTurns:       unseen,
		OtherParticipants: conv.OtherParticipants(agent),
	}, true, nil
}

func (s *ConversationService) GetAllActiveConversations(ctx context.Context) ([]domain.Conversation, error) {
	return s.storage.Conversations.GetAllActiveConversations(ctx)
}

func (s *ConversationService) IsAgentInConversation(ctx context.Context, agent domain.AgentName) (bool, error) {
	_, err := s.storage.Conversations.GetConversationForAgent(ctx, agent)
	return err == nil, nil
}

func (s *ConversationService) HasPendingInvitation(ctx context.Context, agent domain.AgentName) (bool, error) {
	_, err := s.storage.Conversations.GetPendingInvitation(ctx, agent)
	return err == nil, nil
}

// -----------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------

// CreateInvite records an invitation. The caller is responsible for
// validating visibility and availability beforehand.
func (s *ConversationService) CreateInvite(ctx context.Context, inviter, invitee domain.AgentName, privacy domain.Privacy, tick int) (domain.Invitation, error) {
	inv := domain.Invitation{
		ID:            domain.NewObjectID(),
		Inviter:       inviter,
		Invitee:       invitee,
		Privacy:       privacy,
		CreatedAtTick: tick,
		ExpiresAtTick: tick + domain.InviteExpiryTicks,
	}
	if err := s.storage.Conversations.CreateInvitation(ctx, inv); err != nil {
		return domain.Invitation{}, err
	}
	s.logger.Info("created invitation", "inviter", inviter, "invitee", invitee,
		"privacy", privacy.String(), "expires_at_tick", inv.ExpiresAtTick)
	return inv, nil
}

// AcceptResult is the outcome of accepting a pending invitation.
type AcceptResult struct {
	Conversation domain.Conversation
	Invitation   domain.Invitation
}

// AcceptInvite accepts agent's pending invitation and joins/creates the
// conversation it names.
//
// Race handling: if the inviter has since joined another conversation
// (e.g. because a different public invite was accepted first), the
// invitee joins that conversation when it is public; when it is private
// the invitation is stale and the accept fails. Returns ok=false (with
// no error) when there's no pending invitation, or when the race
// resolves to a failure.
func (s *ConversationService) AcceptInvite(ctx context.Context, agent domain.AgentName, tick int) (AcceptResult, bool, error) {
	invitation, err := s.storage.Conversations.GetPendingInvitation(ctx, agent)
	if err != nil {
		return AcceptResult{}, false, nil
	}

	existing, err := s.storage.Conversations.GetConversationForAgent(ctx, invitation.Inviter)
	if err == nil {
		if existing.Privacy == domain.Public {
			if err := s.storage.Conversations.AddParticipant(ctx, existing.ID, agent, tick); err != nil {
				return AcceptResult{}, false, err
			}
			if err := s.storage.Conversations.DeleteInvitation(ctx, invitation.ID); err != nil {
				return AcceptResult{}, false, err
			}
			conv, err := s.storage.Conversations.GetConversation(ctx, existing.ID)
			if err != nil {
				return AcceptResult{}, false, err
			}
			s.logger.Info("joined existing public conversation via race resolution",
				"agent", agent, "inviter", invitation.Inviter, "conversation_id", conv.ID)
			return AcceptResult{Conversation: conv, Invitation: invitation}, true, nil
		}

		// Inviter joined a private conversation: this invitation is stale.
		if err := s.storage.Conversations.DeleteInvitation(ctx, invitation.ID); err != nil {
			return AcceptResult{}, false, err
		}
		s.logger.Info("invitation stale: inviter in private conversation",
			"agent", agent, "inviter", invitation.Inviter)
		return AcceptResult{}, false, nil
	}

	conv := domain.Conversation{
		ID:            domain.NewConversationID(),
		Privacy:       invitation.Privacy,
		Participants:  map[domain.AgentName]bool{invitation.Inviter: true},
		StartedAtTick: tick,
		CreatedBy:     invitation.Inviter,
	}
	if err := s.storage.Conversations.CreateConversation(ctx, conv); err != nil {
		return AcceptResult{}, false, err
	}
	if err := s.storage.Conversations.AddParticipant(ctx, conv.ID, agent, tick); err != nil {
		return AcceptResult{}, false, err
	}
	if err := s.storage.Conversations.DeleteInvitation(ctx, invitation.ID); err != nil {
		return AcceptResult{}, false, err
	}

	final, err := s.storage.Conversations.GetConversation(ctx, conv.ID)
	if err != nil {
		return AcceptResult{}, false, err
	}
	s.logger.Info("invitation accepted, conversation started",
		"agent", agent, "inviter", invitation.Inviter, "conversation_id", final.ID)
	return AcceptResult{Conversation: final, Invitation: invitation}, true, nil
}

// DeclineInvite discards agent's pending invitation. Returns ok=false if
// there was none.
func (s *ConversationService) DeclineInvite(ctx context.Context, agent domain.AgentName) (domain.Invitation, bool, error) {
	invitation, err := s.storage.Conversations.GetPendingInvitation(ctx, agent)
	if err != nil {
		return domain.Invitation{}, false, nil
	}
	if err := s.storage.Conversations.DeleteInvitation(ctx, invitation.ID); err != nil {
		return domain.Invitation{}, false, err
	}
	s.logger.Info("invitation declined", "agent", agent, "inviter", invitation.Inviter)
	return invitation, true, nil
}

// JoinConversation adds agent to an already-public conversation. The
// caller is responsible for validating that the conversation is public
// and that agent can see a current participant.
func (s *ConversationService) JoinConversation(ctx context.Context, agent domain.AgentName, convID domain.ConversationID, tick int) (domain.Conversation, bool, error) {
	conv, err := s.storage.Conversations.GetConversation(ctx, convID)
	if err != nil || !conv.IsActive() {
		return domain.Conversation{}, false, nil
	}
	if err := s.storage.Conversations.AddParticipant(ctx, convID, agent, tick); err != nil {
		return domain.Conversation{}, false, err
	}
	final, err := s.storage.Conversations.GetConversation(ctx, convID)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	s.logger.Info("agent joined conversation", "agent", agent, "conversation_id", convID)
	return final, true, nil
}

// LeaveConversation removes agent from their current conversation,
// ending it if they were the last participant. Returns (conversation,
// wasEnded); ok is false if agent wasn't in any conversation.
func (s *ConversationService) LeaveConversation(ctx context.Context, agent domain.AgentName, tick int) (domain.Conversation, bool, bool, error) {
	conv, err := s.storage.Conversations.GetConversationForAgent(ctx, agent)
	if err != nil {
		return domain.Conversation{}, false, false, nil
	}

	remaining, err := s.storage.Conversations.RemoveParticipant(ctx, conv.ID, agent, tick)
	if err != nil {
		return domain.Conversation{}, false, false, err
	}

	wasEnded := false
	if remaining == 0 {
		if err := s.storage.Conversations.EndConversation(ctx, conv.ID, tick); err != nil {
			return domain.Conversation{}, false, false, err
		}
		wasEnded = true
	}

	final, err := s.storage.Conversations.GetConversation(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, false, false, err
	}
	s.logger.Info("agent left conversation", "agent", agent, "conversation_id", conv.ID,
		"remaining", remaining, "ended", wasEnded)
	return final, true, wasEnded, nil
}

// AddTurn records a message from agent in their current conversation.
// Returns ok=false if agent isn't in an active conversation.
func (s *ConversationService) AddTurn(ctx context.Context, agent domain.AgentName, message string, tick int) (domain.Conversation, domain.ConversationTurn, bool, error) {
	conv, err := s.storage.Conversations.GetConversationForAgent(ctx, agent)
	if err != nil || !conv.IsActive() {
		return domain.Conversation{}, domain.ConversationTurn{}, false, nil
	}

	turn := domain.ConversationTurn{Speaker: agent, Message: message, Tick: tick, Timestamp: time.Now()}
	if err := s.storage.Conversations.AddTurn(ctx, conv.ID, turn); err != nil {
		return domain.Conversation{}, domain.ConversationTurn{}, false, err
	}
	if err := s.storage.Conversations.SetLastTurnTick(ctx, conv.ID, agent, tick); err != nil {
		return domain.Conversation{}, domain.ConversationTurn{}, false, err
	}

	final, err := s.storage.Conversations.GetConversation(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, domain.ConversationTurn{}, false, err
	}
	s.logger.Debug("agent spoke", "agent", agent, "conversation_id", conv.ID)
	return final, turn, true, nil
}

func (s *ConversationService) EndConversation(ctx context.Context, convID domain.ConversationID, tick int) (domain.Conversation, error) {
	if err := s.storage.Conversations.EndConversation(ctx, convID, tick); err != nil {
		return domain.Conversation{}, err
	}
	conv, err := s.storage.Conversations.GetConversation(ctx, convID)
	if err != nil {
		return domain.Conversation{}, err
	}
	s.logger.Info("conversation ended", "conversation_id", convID, "tick", tick)
	return conv, nil
}

// ExpireInvitations deletes every invitation past its expiry tick and
// returns them, for the tick pipeline's invitation-expiry phase to turn
// into events.
func (s *ConversationService) ExpireInvitations(ctx context.Context, currentTick int) ([]domain.Invitation, error) {
	expired, err := s.storage.Conversations.GetExpiredInvitations(ctx, currentTick)
	if err != nil {
		return nil, err
	}
	for _, inv := range expired {
		if err := s.storage.Conversations.DeleteInvitation(ctx, inv.ID); err != nil {
			return nil, err
		}
		s.logger.Info("invitation expired", "inviter", inv.Inviter, "invitee", inv.Invitee)
	}
	return expired, nil
}
