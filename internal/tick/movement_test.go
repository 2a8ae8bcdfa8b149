package tick

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

func newTestMovementServices(t *testing.T) (*agentsvc.AgentService, *worldsvc.WorldService) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 20, 20, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return agentsvc.NewAgentService(st), worldsvc.NewWorldService(st)
}

// A journeying agent that senses another agent coming into range is
// interrupted: the journey is cleared, the agent doesn't move this tick,
// and a journey_interrupted event is emitted instead of an advance.
func TestMovementPhaseInterruptsJourneyOnNearbyAgent(t *testing.T) {
	ctx := context.Background()
	agents, world := newTestMovementServices(t)

	start := domain.Position{X: 0, Y: 0}
	goal := domain.Position{X: 10, Y: 0}
	_, err := agents.InitializeAgent(ctx, domain.Agent{
		Name: "traveler", Position: start, KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)
	_, err = agents.InitializeAgent(ctx, domain.Agent{
		Name: "bystander", Position: domain.Position{X: 1, Y: 0}, KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)

	traveler, err := agents.StartJourney(ctx, "traveler", &goal, "", world)
	require.NoError(t, err)
	require.NotNil(t, traveler.Journey)

	phase := NewMovementPhase(agents, domain.DefaultVisionRadius)
	tc := domain.NewTickContext(1, "afternoon", domain.Clear, map[domain.AgentName]domain.Agent{
		"traveler": traveler,
	})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	require.Len(t, tc.Events, 1)
	interrupted, ok := tc.Events[0].(domain.JourneyInterruptedEvent)
	require.True(t, ok)
	require.Equal(t, domain.AgentName("traveler"), interrupted.Agent)
	require.Equal(t, "encountered_agent", interrupted.Reason)
	require.Equal(t, start, interrupted.AtPosition)

	updated := tc.Agents["traveler"]
	require.Nil(t, updated.Journey)
	require.Equal(t, start, updated.Position, "an interrupted agent does not move this tick")
}

// With nobody else nearby, a journeying agent advances one step per tick
// and a journey_completed event fires the tick it arrives.
func TestMovementPhaseAdvancesAndCompletesJourney(t *testing.T) {
	ctx := context.Background()
	agents, world := newTestMovementServices(t)

	start := domain.Position{X: 0, Y: 0}
	goal := domain.Position{X: 1, Y: 0}
	_, err := agents.InitializeAgent(ctx, domain.Agent{
		Name: "wanderer", Position: start, KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)

	wanderer, err := agents.StartJourney(ctx, "wanderer", &goal, "", world)
	require.NoError(t, err)

	phase := NewMovementPhase(agents, domain.DefaultVisionRadius)
	tc := domain.NewTickContext(1, "afternoon", domain.Clear, map[domain.AgentName]domain.Agent{
		"wanderer": wanderer,
	})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	require.Len(t, tc.Events, 1)
	completed, ok := tc.Events[0].(domain.JourneyCompletedEvent)
	require.True(t, ok)
	require.Equal(t, goal, completed.Destination)

	updated := tc.Agents["wanderer"]
	require.Nil(t, updated.Journey)
	require.Equal(t, goal, updated.Position)
}
