package tick

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/scheduler"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestSchedulePhase(t *testing.T) (*SchedulePhase, *agentsvc.AgentService) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 20, 20, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	agents := agentsvc.NewAgentService(st)
	sched := scheduler.New(domain.DefaultVisionRadius)
	return NewSchedulePhase(sched, agents), agents
}

// Sleeping and journeying agents are excluded from this tick's act set;
// everyone else is scheduled.
func TestSchedulePhaseExcludesSleepingAndJourneyingAgents(t *testing.T) {
	ctx := context.Background()
	phase, agents := newTestSchedulePhase(t)

	_, err := agents.InitializeAgent(ctx, domain.Agent{Name: "idle", Position: domain.Position{X: 0, Y: 0}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)

	current := map[domain.AgentName]domain.Agent{
		"idle":      {Name: "idle", Position: domain.Position{X: 0, Y: 0}},
		"sleeping":  {Name: "sleeping", Position: domain.Position{X: 1, Y: 0}, IsSleeping: true},
		"traveling": {Name: "traveling", Position: domain.Position{X: 2, Y: 0}, Journey: &domain.Journey{Destination: domain.JourneyDestination{Position: domain.Position{X: 5, Y: 0}}, Path: []domain.Position{{X: 2, Y: 0}, {X: 5, Y: 0}}}},
	}
	tc := domain.NewTickContext(1, "afternoon", domain.Clear, current)

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	require.True(t, tc.AgentsToAct["idle"])
	require.False(t, tc.AgentsToAct["sleeping"])
	require.False(t, tc.AgentsToAct["traveling"])
}

// Agents marked to wake by WakePhase are woken and persisted before the
// scheduler's active set is computed, so a freshly-woken agent can act
// the same tick.
func TestSchedulePhaseWakesAgentsBeforeScheduling(t *testing.T) {
	ctx := context.Background()
	phase, agents := newTestSchedulePhase(t)

	_, err := agents.InitializeAgent(ctx, domain.Agent{Name: "sleeper", Position: domain.Position{X: 0, Y: 0}, IsSleeping: true, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)

	current := map[domain.AgentName]domain.Agent{
		"sleeper": {Name: "sleeper", Position: domain.Position{X: 0, Y: 0}, IsSleeping: true},
	}
	tc := domain.NewTickContext(1, "morning", domain.Clear, current)
	tc = tc.WithAgentsToWake(map[domain.AgentName]bool{"sleeper": true})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	require.False(t, tc.Agents["sleeper"].IsSleeping)
	require.True(t, tc.AgentsToAct["sleeper"])

	persisted, err := agents.GetAgent(ctx, "sleeper")
	require.NoError(t, err)
	require.False(t, persisted.IsSleeping)
}
