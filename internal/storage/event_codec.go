package storage

import (
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// DecodeEvent parses one audit-log JSON line back into its concrete
// domain.DomainEvent variant — the read-side counterpart to
// AppendBatch's write path, and the Go equivalent of original_source's
// EventAdapter (hearth/storage/event_log.py), which backs both
// dump_json and validate_json/read_all/tail/count. Dispatch is
// hand-written on the envelope's "type" tag, the same way scanObject
// switches on the objects table's type column; each body is then
// unmarshaled into its concrete struct with encoding/json.
func DecodeEvent(line []byte) (domain.DomainEvent, error) {
	var envelope struct {
		Type  string          `json:"type"`
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch envelope.Type {
	case "agent_moved":
		return decodeEventBody[domain.AgentMovedEvent](envelope.Event)
	case "journey_started":
		return decodeEventBody[domain.JourneyStartedEvent](envelope.Event)
	case "journey_interrupted":
		return decodeEventBody[domain.JourneyInterruptedEvent](envelope.Event)
	case "journey_completed":
		return decodeEventBody[domain.JourneyCompletedEvent](envelope.Event)
	case "object_created":
		return decodeEventBody[domain.ObjectCreatedEvent](envelope.Event)
	case "object_removed":
		return decodeEventBody[domain.ObjectRemovedEvent](envelope.Event)
	case "sign_written":
		return decodeEventBody[domain.SignWrittenEvent](envelope.Event)
	case "wall_placed":
		return decodeEventBody[domain.WallPlacedEvent](envelope.Event)
	case "wall_removed":
		return decodeEventBody[domain.WallRemovedEvent](envelope.Event)
	case "door_placed":
		return decodeEventBody[domain.DoorPlacedEvent](envelope.Event)
	case "structure_detected":
		return decodeEventBody[domain.StructureDetectedEvent](envelope.Event)
	case "place_named":
		return decodeEventBody[domain.PlaceNamedEvent](envelope.Event)
	case "item_gathered":
		return decodeEventBody[domain.ItemGatheredEvent](envelope.Event)
	case "item_dropped":
		return decodeEventBody[domain.ItemDroppedEvent](envelope.Event)
	case "item_given":
		return decodeEventBody[domain.ItemGivenEvent](envelope.Event)
	case "item_crafted":
		return decodeEventBody[domain.ItemCraftedEvent](envelope.Event)
	case "item_taken":
		return decodeEventBody[domain.ItemTakenEvent](envelope.Event)
	case "agent_slept":
		return decodeEventBody[domain.AgentSleptEvent](envelope.Event)
	case "agent_woke":
		return decodeEventBody[domain.AgentWokeEvent](envelope.Event)
	case "agents_met":
		return decodeEventBody[domain.AgentsMetEvent](envelope.Event)
	case "agent_session_updated":
		return decodeEventBody[domain.AgentSessionUpdatedEvent](envelope.Event)
	case "world_event":
		return decodeEventBody[domain.WorldEventOccurredEvent](envelope.Event)
	case "weather_changed":
		return decodeEventBody[domain.WeatherChangedEvent](envelope.Event)
	case "time_advanced":
		return decodeEventBody[domain.TimeAdvancedEvent](envelope.Event)
	case "conversation_started":
		return decodeEventBody[domain.ConversationStartedEvent](envelope.Event)
	case "conversation_ended":
		return decodeEventBody[domain.ConversationEndedEvent](envelope.Event)
	case "conversation_turn":
		return decodeEventBody[domain.ConversationTurnEvent](envelope.Event)
	case "invitation_sent":
		return decodeEventBody[domain.InvitationSentEvent](envelope.Event)
	case "invitation_accepted":
		return decodeEventBody[domain.InvitationAcceptedEvent](envelope.Event)
	case "invitation_declined":
		return decodeEventBody[domain.InvitationDeclinedEvent](envelope.Event)
	case "invitation_expired":
		return decodeEventBody[domain.InvitationExpiredEvent](envelope.Event)
	case "agent_joined_conversation":
		return decodeEventBody[domain.AgentJoinedConversationEvent](envelope.Event)
	case "agent_left_conversation":
		return decodeEventBody[domain.AgentLeftConversationEvent](envelope.Event)
	case "manual_event":
		return decodeEventBody[domain.ManualEventOccurredEvent](envelope.Event)
	default:
		return nil, fmt.Errorf("unknown event type %q", envelope.Type)
	}
}

func decodeEventBody[T domain.DomainEvent](raw json.RawMessage) (domain.DomainEvent, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode event body: %w", err)
	}
	return e, nil
}
