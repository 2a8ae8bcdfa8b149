package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteExpiryTicks is how many ticks an invitation remains pending.
const InviteExpiryTicks = 2

// NewConversationID generates a fresh opaque conversation identifier.
func NewConversationID() ConversationID {
	return ConversationID(uuid.NewString())
}

// Privacy discriminates public (joinable) from private (exclusive)
// conversations and invitations.
type Privacy int

const (
	Public Privacy = iota
	Private
)

func (p Privacy) String() string {
	if p == Private {
		return "private"
	}
	return "public"
}

// ConversationTurn is one immutable message in a conversation's history.
type ConversationTurn struct {
	Speaker   AgentName
	Message   string
	Tick      int
	Timestamp time.Time
}

// Invitation is a pending request to join a conversation. It expires at
// CreatedAtTick + InviteExpiryTicks, checked with strict less-than so the
// invitee gets the full window.
type Invitation struct {
	ID             ObjectId
	ConversationID ConversationID // reserved; set once a conversation exists
	Inviter        AgentName
	Invitee        AgentName
	Privacy        Privacy
	CreatedAtTick  int
	ExpiresAtTick  int
	InvitedAt      time.Time
}

// IsExpired reports whether this invitation is expired at currentTick.
func (inv Invitation) IsExpired(currentTick int) bool {
	return inv.ExpiresAtTick < currentTick
}

// Conversation is an active, position-agnostic exchange between agents.
type Conversation struct {
	ID            ConversationID
	Privacy       Privacy
	Participants  map[AgentName]bool
	History       []ConversationTurn
	StartedAtTick int
	CreatedBy     AgentName
	EndedAtTick   *int // nil while active
}

// IsActive reports whether the conversation has not yet ended.
func (c Conversation) IsActive() bool { return c.EndedAtTick == nil }

// WithParticipant returns a new conversation with agent added.
func (c Conversation) WithParticipant(agent AgentName) Conversation {
	next := c
	next.Participants = make(map[AgentName]bool, len(c.Participants)+1)
	for a := range c.Participants {
		next.Participants[a] = true
	}
	next.Participants[agent] = true
	return next
}

// WithoutParticipant returns a new conversation with agent removed.
func (c Conversation) WithoutParticipant(agent AgentName) Conversation {
	next := c
	next.Participants = make(map[AgentName]bool, len(c.Participants))
	for a := range c.Participants {
		if a != agent {
			next.Participants[a] = true
		}
	}
	return next
}

// WithTurn returns a new conversation with turn appended to history.
func (c Conversation) WithTurn(turn ConversationTurn) Conversation {
	next := c
	next.History = append(append([]ConversationTurn(nil), c.History...), turn)
	return next
}

// WithEnded returns a new conversation marked ended at tick.
func (c Conversation) WithEnded(tick int) Conversation {
	next := c
	t := tick
	next.EndedAtTick = &t
	return next
}

// OtherParticipants returns the conversation's participants excluding
// self.
func (c Conversation) OtherParticipants(self AgentName) map[AgentName]bool {
	out := make(map[AgentName]bool, len(c.Participants))
	for a := range c.Participants {
		if a != self {
			out[a] = true
		}
	}
	return out
}

// ConversationContext is one agent's view of a conversation: only the
// turns they have not yet seen, plus who else is present.
type ConversationContext struct {
	Conversation      Conversation
	UnseenTurns       []ConversationTurn
	OtherParticipants map[AgentName]bool
}
