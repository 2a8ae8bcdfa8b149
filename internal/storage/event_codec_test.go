package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// TestDecodeEventRoundTripsEveryVariant exercises
// serialize(event) == serialize(deserialize(serialize(event))) for every
// domain.DomainEvent variant, grounded on original_source's EventAdapter
// round trip (hearth/storage/event_log.py dump_json/validate_json).
func TestDecodeEventRoundTripsEveryVariant(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	base := domain.BaseEvent{Tick: 7, Timestamp: ts}
	elsewhere := domain.Position{X: 9, Y: 9}

	events := []domain.DomainEvent{
		domain.AgentMovedEvent{BaseEvent: base, Agent: "aria", FromPos: domain.Position{X: 1, Y: 2}, ToPos: domain.Position{X: 1, Y: 3}},
		domain.JourneyStartedEvent{BaseEvent: base, Agent: "aria", Destination: domain.Position{X: 5, Y: 5}, PathLength: 4},
		domain.JourneyInterruptedEvent{BaseEvent: base, Agent: "aria", Reason: "encountered_agent", AtPosition: domain.Position{X: 2, Y: 2}},
		domain.JourneyCompletedEvent{BaseEvent: base, Agent: "aria", Destination: domain.Position{X: 5, Y: 5}},
		domain.ObjectCreatedEvent{BaseEvent: base, ObjectID: "obj-1", ObjectType: "campfire", Position: domain.Position{X: 3, Y: 3}, Creator: "aria"},
		domain.ObjectRemovedEvent{BaseEvent: base, ObjectID: "obj-1"},
		domain.SignWrittenEvent{BaseEvent: base, ObjectID: "obj-2", Position: domain.Position{X: 1, Y: 1}, Text: "hello", Author: "aria"},
		domain.WallPlacedEvent{BaseEvent: base, Position: domain.Position{X: 0, Y: 0}, Direction: domain.North, Builder: "aria"},
		domain.WallRemovedEvent{BaseEvent: base, Position: domain.Position{X: 0, Y: 0}, Direction: domain.North},
		domain.DoorPlacedEvent{BaseEvent: base, Position: domain.Position{X: 0, Y: 0}, Direction: domain.East, Builder: "aria"},
		domain.StructureDetectedEvent{BaseEvent: base, StructureID: "struct-1", InteriorCells: []domain.Position{{X: 1, Y: 1}, {X: 1, Y: 2}}, Creator: "aria"},
		domain.PlaceNamedEvent{BaseEvent: base, Position: domain.Position{X: 4, Y: 4}, Name: "the square", NamedBy: "aria"},
		domain.ItemGatheredEvent{BaseEvent: base, Agent: "aria", ItemType: "wood", Quantity: 3, FromPosition: domain.Position{X: 1, Y: 1}},
		domain.ItemDroppedEvent{BaseEvent: base, Agent: "aria", ItemType: "wood", Quantity: 1, AtPosition: domain.Position{X: 1, Y: 1}},
		domain.ItemGivenEvent{BaseEvent: base, Giver: "aria", Receiver: "bram", ItemType: "wood", Quantity: 2},
		domain.ItemCraftedEvent{BaseEvent: base, Agent: "aria", Inputs: []string{"wood", "stone"}, Output: "axe", Technique: "carving"},
		domain.ItemTakenEvent{BaseEvent: base, Agent: "aria", ObjectID: "obj-3", ItemType: "berries", FromPosition: domain.Position{X: 2, Y: 2}},
		domain.AgentSleptEvent{BaseEvent: base, Agent: "aria", AtPosition: domain.Position{X: 1, Y: 1}},
		domain.AgentWokeEvent{BaseEvent: base, Agent: "aria", AtPosition: domain.Position{X: 1, Y: 1}, Reason: "visitor"},
		domain.AgentsMetEvent{BaseEvent: base, Agent1: "aria", Agent2: "bram", AtPosition: domain.Position{X: 1, Y: 1}},
		domain.AgentSessionUpdatedEvent{BaseEvent: base, Agent: "aria", OldSessionID: "s1", NewSessionID: "s2"},
		domain.WorldEventOccurredEvent{BaseEvent: base, Description: "a meteor falls", AtPosition: &elsewhere},
		domain.WorldEventOccurredEvent{BaseEvent: base, Description: "distant thunder"},
		domain.WeatherChangedEvent{BaseEvent: base, OldWeather: domain.Clear, NewWeather: domain.Rainy},
		domain.TimeAdvancedEvent{BaseEvent: base, NewTick: 8, TimeOfDay: "evening", Weather: domain.Clear},
		domain.ConversationStartedEvent{BaseEvent: base, ConversationID: "conv-1", Participants: []domain.AgentName{"aria", "bram"}, IsPrivate: true},
		domain.ConversationEndedEvent{BaseEvent: base, ConversationID: "conv-1", Reason: "left"},
		domain.ConversationTurnEvent{BaseEvent: base, ConversationID: "conv-1", Speaker: "aria", Message: "hello"},
		domain.InvitationSentEvent{BaseEvent: base, Inviter: "aria", Invitee: "bram", ConversationID: "conv-1", Privacy: domain.Public},
		domain.InvitationAcceptedEvent{BaseEvent: base, Agent: "bram", Inviter: "aria", ConversationID: "conv-1"},
		domain.InvitationDeclinedEvent{BaseEvent: base, Agent: "bram", Inviter: "aria"},
		domain.InvitationExpiredEvent{BaseEvent: base, Inviter: "aria", Invitee: "bram"},
		domain.AgentJoinedConversationEvent{BaseEvent: base, Agent: "bram", ConversationID: "conv-1"},
		domain.AgentLeftConversationEvent{BaseEvent: base, Agent: "bram", ConversationID: "conv-1"},
		domain.ManualEventOccurredEvent{BaseEvent: base, Description: "a bell rings"},
	}

	const lineCount = 35 // every domain.DomainEvent variant, plus a second WorldEventOccurredEvent with a nil AtPosition
	require.Len(t, events, lineCount, "every event variant must be exercised here")

	dir := t.TempDir()
	log, err := NewAuditLog(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	require.NoError(t, log.AppendBatch(events))

	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines [][]byte
	for scanner.Scan() {
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, len(events))

	for i, line := range lines {
		decoded, err := DecodeEvent(line)
		require.NoError(t, err, "decoding line %d (%s)", i, events[i].EventType())
		require.Equal(t, events[i], decoded, "round trip mismatch for %s", events[i].EventType())

		reencoded, err := json.Marshal(auditRecord{
			Tick:      decoded.EventTick(),
			Type:      decoded.EventType(),
			Timestamp: decoded.EventTimestamp().Format("2006-01-02T15:04:05.000000Z07:00"),
			Event:     decoded,
		})
		require.NoError(t, err)
		require.JSONEq(t, string(line), string(reencoded), "serialize(decode(serialize(event))) must equal serialize(event) for %s", events[i].EventType())
	}
}

func TestDecodeEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"not_a_real_event","event":{}}`))
	require.Error(t, err)
}
