package domain

import "time"

// DomainEvent is the tagged-union interface every event variant
// implements. Events are append-only facts written to the audit log;
// EventType is the wire discriminator (identical to the JSON "type" tag).
type DomainEvent interface {
	EventType() string
	EventTick() int
	EventTimestamp() time.Time
}

// BaseEvent carries the fields every event shares. Embed it first in each
// variant so EventTick/EventTimestamp come for free.
type BaseEvent struct {
	Tick      int
	Timestamp time.Time
}

func (b BaseEvent) EventTick() int            { return b.Tick }
func (b BaseEvent) EventTimestamp() time.Time { return b.Timestamp }

// --- Movement events ---

type AgentMovedEvent struct {
	BaseEvent
	Agent       AgentName
	FromPos     Position
	ToPos       Position
}

func (AgentMovedEvent) EventType() string { return "agent_moved" }

type JourneyStartedEvent struct {
	BaseEvent
	Agent       AgentName
	Destination Position
	PathLength  int
}

func (JourneyStartedEvent) EventType() string { return "journey_started" }

type JourneyInterruptedEvent struct {
	BaseEvent
	Agent     AgentName
	Reason    string // "encountered_agent", "world_event", "discovery"
	AtPosition Position
}

func (JourneyInterruptedEvent) EventType() string { return "journey_interrupted" }

type JourneyCompletedEvent struct {
	BaseEvent
	Agent       AgentName
	Destination Position
}

func (JourneyCompletedEvent) EventType() string { return "journey_completed" }

// --- Object events ---

type ObjectCreatedEvent struct {
	BaseEvent
	ObjectID   ObjectId
	ObjectType string
	Position   Position
	Creator    AgentName // empty if none
}

func (ObjectCreatedEvent) EventType() string { return "object_created" }

type ObjectRemovedEvent struct {
	BaseEvent
	ObjectID ObjectId
}

func (ObjectRemovedEvent) EventType() string { return "object_removed" }

type SignWrittenEvent struct {
	BaseEvent
	ObjectID ObjectId
	Position Position
	Text     string
	Author   AgentName
}

func (SignWrittenEvent) EventType() string { return "sign_written" }

// --- Building events ---

type WallPlacedEvent struct {
	BaseEvent
	Position  Position
	Direction Direction
	Builder   AgentName
}

func (WallPlacedEvent) EventType() string { return "wall_placed" }

type WallRemovedEvent struct {
	BaseEvent
	Position  Position
	Direction Direction
}

func (WallRemovedEvent) EventType() string { return "wall_removed" }

type DoorPlacedEvent struct {
	BaseEvent
	Position  Position
	Direction Direction
	Builder   AgentName
}

func (DoorPlacedEvent) EventType() string { return "door_placed" }

type StructureDetectedEvent struct {
	BaseEvent
	StructureID   ObjectId
	InteriorCells []Position
	Creator       AgentName // empty if none
}

func (StructureDetectedEvent) EventType() string { return "structure_detected" }

type PlaceNamedEvent struct {
	BaseEvent
	Position Position
	Name     string
	NamedBy  AgentName
}

func (PlaceNamedEvent) EventType() string { return "place_named" }

// --- Inventory events ---

type ItemGatheredEvent struct {
	BaseEvent
	Agent      AgentName
	ItemType   string
	Quantity   int
	FromPosition Position
}

func (ItemGatheredEvent) EventType() string { return "item_gathered" }

type ItemDroppedEvent struct {
	BaseEvent
	Agent      AgentName
	ItemType   string
	Quantity   int
	AtPosition Position
}

func (ItemDroppedEvent) EventType() string { return "item_dropped" }

type ItemGivenEvent struct {
	BaseEvent
	Giver    AgentName
	Receiver AgentName
	ItemType string
	Quantity int
}

func (ItemGivenEvent) EventType() string { return "item_given" }

type ItemCraftedEvent struct {
	BaseEvent
	Agent     AgentName
	Inputs    []string
	Output    string
	Technique string
}

func (ItemCraftedEvent) EventType() string { return "item_crafted" }

type ItemTakenEvent struct {
	BaseEvent
	Agent        AgentName
	ObjectID     ObjectId
	ItemType     string
	FromPosition Position
}

func (ItemTakenEvent) EventType() string { return "item_taken" }

// --- Agent state events ---

type AgentSleptEvent struct {
	BaseEvent
	Agent      AgentName
	AtPosition Position
}

func (AgentSleptEvent) EventType() string { return "agent_slept" }

type AgentWokeEvent struct {
	BaseEvent
	Agent      AgentName
	AtPosition Position
	Reason     string // "time_changed", "visitor", "world_event"
}

func (AgentWokeEvent) EventType() string { return "agent_woke" }

type AgentsMetEvent struct {
	BaseEvent
	Agent1     AgentName
	Agent2     AgentName
	AtPosition Position
}

func (AgentsMetEvent) EventType() string { return "agents_met" }

type AgentSessionUpdatedEvent struct {
	BaseEvent
	Agent        AgentName
	OldSessionID string
	NewSessionID string
}

func (AgentSessionUpdatedEvent) EventType() string { return "agent_session_updated" }

// --- World events ---

type WorldEventOccurredEvent struct {
	BaseEvent
	Description string
	AtPosition  *Position // nil if not location-specific
}

func (WorldEventOccurredEvent) EventType() string { return "world_event" }

type WeatherChangedEvent struct {
	BaseEvent
	OldWeather Weather
	NewWeather Weather
}

func (WeatherChangedEvent) EventType() string { return "weather_changed" }

// TimeAdvancedEvent is emitted by the commit phase exactly once per
// successful tick. Its absence is how callers detect an aborted tick.
type TimeAdvancedEvent struct {
	BaseEvent
	NewTick   int
	TimeOfDay string
	Weather   Weather
}

func (TimeAdvancedEvent) EventType() string { return "time_advanced" }

// --- Conversation events ---

type ConversationStartedEvent struct {
	BaseEvent
	ConversationID ConversationID
	Participants   []AgentName
	IsPrivate      bool
}

func (ConversationStartedEvent) EventType() string { return "conversation_started" }

type ConversationEndedEvent struct {
	BaseEvent
	ConversationID ConversationID
	Reason         string
}

func (ConversationEndedEvent) EventType() string { return "conversation_ended" }

type ConversationTurnEvent struct {
	BaseEvent
	ConversationID ConversationID
	Speaker        AgentName
	Message        string
}

func (ConversationTurnEvent) EventType() string { return "conversation_turn" }

type InvitationSentEvent struct {
	BaseEvent
	Inviter        AgentName
	Invitee        AgentName
	ConversationID ConversationID
	Privacy        Privacy
}

func (InvitationSentEvent) EventType() string { return "invitation_sent" }

type InvitationAcceptedEvent struct {
	BaseEvent
	Agent          AgentName
	Inviter        AgentName
	ConversationID ConversationID
}

func (InvitationAcceptedEvent) EventType() string { return "invitation_accepted" }

type InvitationDeclinedEvent struct {
	BaseEvent
	Agent   AgentName
	Inviter AgentName
}

func (InvitationDeclinedEvent) EventType() string { return "invitation_declined" }

type InvitationExpiredEvent struct {
	BaseEvent
	Inviter AgentName
	Invitee AgentName
}

func (InvitationExpiredEvent) EventType() string { return "invitation_expired" }

type AgentJoinedConversationEvent struct {
	BaseEvent
	Agent          AgentName
	ConversationID ConversationID
}

func (AgentJoinedConversationEvent) EventType() string { return "agent_joined_conversation" }

type AgentLeftConversationEvent struct {
	BaseEvent
	Agent          AgentName
	ConversationID ConversationID
}

func (AgentLeftConversationEvent) EventType() string { return "agent_left_conversation" }

// --- Manual / dream events (host API, SPEC_FULL §3) ---

// ManualEventOccurredEvent is appended straight to the audit log by the
// host API's EmitManualEvent command; it does not touch the tick counter.
type ManualEventOccurredEvent struct {
	BaseEvent
	Description string
}

func (ManualEventOccurredEvent) EventType() string { return "manual_event" }
