package action

import (
	"context"
	"fmt"
	"sort"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

func (e *Engine) executeSpeak(ctx context.Context, agent domain.Agent, a domain.SpeakAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	conv, _, ok, err := e.conversation.AddTurn(ctx, agent.Name, a.Message, tick)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !ok {
		return domain.FailResult("You are not in a conversation."), nil
	}

	others := sortedAgentNames(conv.OtherParticipants(agent.Name))

	event := domain.ConversationTurnEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		ConversationID: conv.ID, Speaker: agent.Name, Message: a.Message,
	}
	return domain.OkResult(
		fmt.Sprintf("You say: %s", a.Message),
		[]domain.DomainEvent{event},
		map[string]any{"message": a.Message, "others": others},
	), nil
}

func (e *Engine) executeInvite(ctx context.Context, agent domain.Agent, a domain.InviteAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	inConv, err := e.conversation.IsAgentInConversation(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if inConv {
		return domain.FailResult("You are already in a conversation. Leave it first."), nil
	}

	if a.Privacy == domain.Private {
		existing, err := e.conversation.GetPendingOutgoingInvite(ctx, agent.Name)
		if err == nil && existing.Privacy == domain.Private {
			return domain.FailResult("You already have a pending private invitation. Wait for a response or it will expire."), nil
		}
	}

	invitee, err := e.agents.GetAgent(ctx, a.Agent)
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.FailResult(fmt.Sprintf("No one named %s is here.", a.Agent)), nil
		}
		return domain.ActionResult{}, err
	}

	if agent.Position.DistanceTo(invitee.Position) > e.effectiveVisionRadius() {
		return domain.FailResult(fmt.Sprintf("%s is too far away to invite.", a.Agent)), nil
	}

	hasPending, err := e.conversation.HasPendingInvitation(ctx, a.Agent)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if hasPending {
		return domain.FailResult(fmt.Sprintf("%s already has a pending invitation.", a.Agent)), nil
	}

	inviteeInConv, err := e.conversation.IsAgentInConversation(ctx, a.Agent)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if inviteeInConv {
		return domain.FailResult(fmt.Sprintf("%s is already in a conversation.", a.Agent)), nil
	}

	invitation, err := e.conversation.CreateInvite(ctx, agent.Name, a.Agent, a.Privacy, tick)
	if err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.InvitationSentEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Inviter:   agent.Name, Invitee: a.Agent, ConversationID: invitation.ConversationID, Privacy: a.Privacy,
	}
	return domain.OkResult(
		fmt.Sprintf("You invited %s to a %s conversation.", a.Agent, a.Privacy),
		[]domain.DomainEvent{event},
		map[string]any{"invitee": string(a.Agent), "privacy": a.Privacy.String()},
	), nil
}

func (e *Engine) executeAcceptInvite(ctx context.Context, agent domain.Agent, a domain.AcceptInviteAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	inConv, err := e.conversation.IsAgentInConversation(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if inConv {
		return domain.FailResult("You are already in a conversation. Leave it first."), nil
	}

	result, ok, err := e.conversation.AcceptInvite(ctx, agent.Name, tick)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !ok {
		return domain.FailResult("You have no pending invitation."), nil
	}

	conv := result.Conversation
	participants := sortedAgentNames(conv.Participants)
	events := []domain.DomainEvent{
		domain.InvitationAcceptedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Agent:     agent.Name, Inviter: result.Invitation.Inviter, ConversationID: conv.ID,
		},
		domain.ConversationStartedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			ConversationID: conv.ID, Participants: participants, IsPrivate: conv.Privacy == domain.Private,
		},
	}

	return domain.OkResult(
		fmt.Sprintf("You joined a conversation with %s.", result.Invitation.Inviter),
		events,
		map[string]any{
			"inviter": string(result.Invitation.Inviter), "conversation_id": string(conv.ID),
			"privacy": conv.Privacy.String(),
		},
	), nil
}

func (e *Engine) executeDeclineInvite(ctx context.Context, agent domain.Agent, a domain.DeclineInviteAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	invitation, ok, err := e.conversation.DeclineInvite(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !ok {
		return domain.FailResult("You have no pending invitation."), nil
	}

	event := domain.InvitationDeclinedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, Inviter: invitation.Inviter,
	}
	return domain.OkResult(
		fmt.Sprintf("You declined %s's invitation.", invitation.Inviter),
		[]domain.DomainEvent{event},
		map[string]any{"inviter": string(invitation.Inviter)},
	), nil
}

func (e *Engine) executeJoinConversation(ctx context.Context, agent domain.Agent, a domain.JoinConversationAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	inConv, err := e.conversation.IsAgentInConversation(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if inConv {
		return domain.FailResult("You are already in a conversation. Leave it first."), nil
	}

	participant, err := e.agents.GetAgent(ctx, a.Participant)
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.FailResult(fmt.Sprintf("No one named %s is here.", a.Participant)), nil
		}
		return domain.ActionResult{}, err
	}

	if agent.Position.DistanceTo(participant.Position) > e.effectiveVisionRadius() {
		return domain.FailResult(fmt.Sprintf("%s is too far away to see.", a.Participant)), nil
	}

	conv, err := e.conversation.GetConversationForAgent(ctx, a.Participant)
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.FailResult(fmt.Sprintf("%s is not in a conversation.", a.Participant)), nil
		}
		return domain.ActionResult{}, err
	}
	if conv.Privacy == domain.Private {
		return domain.FailResult(fmt.Sprintf("%s's conversation is private.", a.Participant)), nil
	}

	conv, ok, err := e.conversation.JoinConversation(ctx, agent.Name, conv.ID, tick)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !ok {
		return domain.FailResult("Could not join the conversation."), nil
	}

	othersStr := joinAgentNames(sortedAgentNames(conv.OtherParticipants(agent.Name)))

	event := domain.AgentJoinedConversationEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, ConversationID: conv.ID,
	}
	return domain.OkResult(
		fmt.Sprintf("You joined the conversation with %s.", othersStr),
		[]domain.DomainEvent{event},
		map[string]any{"conversation_id": string(conv.ID), "participants": sortedAgentNames(conv.Participants)},
	), nil
}

func (e *Engine) executeLeaveConversation(ctx context.Context, agent domain.Agent, a domain.LeaveConversationAction, tick int) (domain.ActionResult, error) {
	if e.conversation == nil {
		return domain.FailResult("Conversation system not initialized."), nil
	}

	conv, ok, wasEnded, err := e.conversation.LeaveConversation(ctx, agent.Name, tick)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !ok {
		return domain.FailResult("You are not in a conversation."), nil
	}

	events := []domain.DomainEvent{
		domain.AgentLeftConversationEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Agent:     agent.Name, ConversationID: conv.ID,
		},
	}
	msg := "You left the conversation."
	if wasEnded {
		events = append(events, domain.ConversationEndedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			ConversationID: conv.ID, Reason: "all_left",
		})
		msg = "You left the conversation. It has ended."
	}

	return domain.OkResult(
		msg, events,
		map[string]any{"conversation_id": string(conv.ID), "ended": wasEnded},
	), nil
}

func (e *Engine) executeSleep(ctx context.Context, agent domain.Agent, a domain.SleepAction, tick int) (domain.ActionResult, error) {
	if _, err := e.agents.SetSleeping(ctx, agent.Name, true); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.AgentSleptEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, AtPosition: agent.Position,
	}
	return domain.OkResult("You drift off to sleep.", []domain.DomainEvent{event}, nil), nil
}

func sortedAgentNames(set map[domain.AgentName]bool) []domain.AgentName {
	out := make([]domain.AgentName, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinAgentNames(names []domain.AgentName) string {
	if len(names) == 0 {
		return "no one"
	}
	out := string(names[0])
	for _, n := range names[1:] {
		out += ", " + string(n)
	}
	return out
}
