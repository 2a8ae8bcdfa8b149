package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 16, 16, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	recipesPath := filepath.Join(dir, "recipes.yaml") // missing: empty recipe book
	e, err := New(st, recipesPath, domain.DefaultVisionRadius, nil, slog.Default())
	require.NoError(t, err)
	return e
}

func TestTickAdvancesCounterAndEmitsTimeAdvanced(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	tc, err := e.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, tc.Tick)

	found := false
	for _, ev := range tc.Events {
		if ev.EventType() == "time_advanced" {
			found = true
		}
	}
	require.True(t, found, "expected a time_advanced event after a successful tick")

	tick, err := e.World.CurrentTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, tick)
}

func TestTickRunsAgentsThroughStubBrain(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Agents.InitializeAgent(ctx, domain.Agent{
		Name:        "aria",
		Personality: "curious",
		Position:    domain.Position{X: 4, Y: 4},
		KnownAgents: map[domain.AgentName]bool{},
	}, filepath.Join(t.TempDir(), "agents"))
	require.NoError(t, err)

	tc, err := e.Tick(ctx)
	require.NoError(t, err)

	result, ok := tc.TurnResults["aria"]
	require.True(t, ok, "aria should have a turn result even with no brain wired")
	require.Empty(t, result.ActionsTaken, "a nil brain takes no actions")
}

func TestOnTickCallbackFiresAfterPipeline(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	var seen domain.TickContext
	calls := 0
	e.OnTick(func(tc domain.TickContext) {
		seen = tc
		calls++
	})

	_, err := e.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, seen.Tick)
}

func TestEmitManualEventDoesNotAdvanceTick(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.EmitManualEvent(ctx, "a stranger arrives"))

	tick, err := e.World.CurrentTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, tick)
}

func TestChangeWeatherCyclesDeterministically(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	before, err := e.World.CurrentWeather(ctx)
	require.NoError(t, err)

	require.NoError(t, e.ChangeWeather(ctx))

	after, err := e.World.CurrentWeather(ctx)
	require.NoError(t, err)
	require.Equal(t, before.Next(), after)
}
