package tick

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func TestCommitPhasePersistsTickAndSessions(t *testing.T) {
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 16, 16, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	agents := agentsvc.NewAgentService(st)
	_, err = agents.InitializeAgent(context.Background(), domain.Agent{
		Name:        "aria",
		Position:    domain.Position{X: 1, Y: 1},
		KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)

	phase := NewCommitPhase(st, agents)

	tc := domain.NewTickContext(3, "afternoon", domain.Clear, map[domain.AgentName]domain.Agent{})
	tc = tc.WithTurnResults(map[domain.AgentName]domain.TurnResult{
		"aria": {AgentName: "aria", SessionID: "sess-42", TokenUsage: domain.TokenUsage{InputTokens: 120, OutputTokens: 45}},
	})

	tc, err = phase.Execute(context.Background(), tc)
	require.NoError(t, err)

	found := false
	for _, ev := range tc.Events {
		if ev.EventType() == "time_advanced" {
			found = true
		}
	}
	require.True(t, found)

	persistedTick, _, _, _, err := st.World.GetWorldState(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, persistedTick)

	agent, err := agents.GetAgent(context.Background(), "aria")
	require.NoError(t, err)
	require.Equal(t, "sess-42", agent.SessionID)
	require.Equal(t, 3, agent.LastActiveTick)
	require.Equal(t, domain.TokenUsage{InputTokens: 120, OutputTokens: 45}, agent.TokenUsage)

	// A second tick accumulates onto the running total rather than overwriting it.
	tc2 := domain.NewTickContext(4, "evening", domain.Clear, map[domain.AgentName]domain.Agent{})
	tc2 = tc2.WithTurnResults(map[domain.AgentName]domain.TurnResult{
		"aria": {AgentName: "aria", TokenUsage: domain.TokenUsage{InputTokens: 10, OutputTokens: 5}},
	})
	_, err = phase.Execute(context.Background(), tc2)
	require.NoError(t, err)

	agent, err = agents.GetAgent(context.Background(), "aria")
	require.NoError(t, err)
	require.Equal(t, domain.TokenUsage{InputTokens: 130, OutputTokens: 50}, agent.TokenUsage)
	require.Equal(t, "sess-42", agent.SessionID, "session id is left untouched when a turn result carries none")
}

// Every event produced during a tick carries that tick's number and
// appears in the audit log exactly once after CommitPhase returns.
func TestCommitPhaseLogsEachEventOnceTaggedWithItsTick(t *testing.T) {
	dir := t.TempDir()
	eventsPath := filepath.Join(dir, "events.jsonl")
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), eventsPath, 16, 16, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	agents := agentsvc.NewAgentService(st)
	phase := NewCommitPhase(st, agents)

	const thisTick = 9
	tc := domain.NewTickContext(thisTick, "evening", domain.Clear, map[domain.AgentName]domain.Agent{})
	tc = tc.AppendEvents([]domain.DomainEvent{
		domain.ManualEventOccurredEvent{BaseEvent: domain.BaseEvent{Tick: thisTick, Timestamp: nowFunc()}, Description: "a bell rings"},
		domain.WeatherChangedEvent{BaseEvent: domain.BaseEvent{Tick: thisTick, Timestamp: nowFunc()}, OldWeather: domain.Clear, NewWeather: domain.Rainy},
	})

	tc, err = phase.Execute(context.Background(), tc)
	require.NoError(t, err)

	for _, ev := range tc.Events {
		require.Equal(t, thisTick, ev.EventTick(), "every event committed this tick must carry this tick's number")
	}

	data, err := os.ReadFile(eventsPath)
	require.NoError(t, err)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lines int
	for scanner.Scan() {
		lines++
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, len(tc.Events), lines, "each event appears in the audit log exactly once")
}
