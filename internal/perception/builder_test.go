package perception

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

func newTestBuilder(t *testing.T) (*Builder, *agentsvc.AgentService, *storage.Storage) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 20, 20, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	world := worldsvc.NewWorldService(st)
	agents := agentsvc.NewAgentService(st)
	conv := conversationsvc.NewConversationService(st, slog.Default())
	return New(world, agents, conv, domain.DefaultVisionRadius), agents, st
}

// A snapshot includes every other agent within vision radius, but never
// the agent itself.
func TestBuildExcludesSelfFromNearbyAgents(t *testing.T) {
	ctx := context.Background()
	builder, agents, _ := newTestBuilder(t)

	_, err := agents.InitializeAgent(ctx, domain.Agent{Name: "elio", Position: domain.Position{X: 5, Y: 5}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)
	_, err = agents.InitializeAgent(ctx, domain.Agent{Name: "sola", Position: domain.Position{X: 6, Y: 5}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)
	_, err = agents.InitializeAgent(ctx, domain.Agent{Name: "faraway", Position: domain.Position{X: 19, Y: 19}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)

	snapshot, err := builder.Build(ctx, "elio", 1)
	require.NoError(t, err)

	require.Len(t, snapshot.NearbyAgents, 1)
	require.Equal(t, domain.AgentName("sola"), snapshot.NearbyAgents[0].Name)
}

// A queued dream hint is delivered exactly once, on the next Build for
// that agent, and cleared afterward.
func TestQueueDreamDeliversHintOnce(t *testing.T) {
	ctx := context.Background()
	builder, agents, _ := newTestBuilder(t)

	_, err := agents.InitializeAgent(ctx, domain.Agent{Name: "elio", Position: domain.Position{X: 1, Y: 1}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)

	builder.QueueDream("elio", "a distant bell tolls")

	first, err := builder.Build(ctx, "elio", 1)
	require.NoError(t, err)
	require.Equal(t, "a distant bell tolls", first.DreamHint)

	second, err := builder.Build(ctx, "elio", 2)
	require.NoError(t, err)
	require.Empty(t, second.DreamHint)
}

// The effective vision radius narrows at night, shrinking the cells rect
// accordingly.
func TestBuildNarrowsVisionRadiusAtNight(t *testing.T) {
	ctx := context.Background()
	builder, agents, st := newTestBuilder(t)

	_, err := agents.InitializeAgent(ctx, domain.Agent{Name: "elio", Position: domain.Position{X: 10, Y: 10}, KnownAgents: map[domain.AgentName]bool{}}, t.TempDir())
	require.NoError(t, err)

	// Tick 18 falls in the "night" period (TicksPerDay=24, 4 periods of 6).
	require.NoError(t, st.World.SetTick(ctx, 18))

	snapshot, err := builder.Build(ctx, "elio", 18)
	require.NoError(t, err)
	require.Equal(t, "night", snapshot.TimeOfDay)
	require.Less(t, snapshot.VisionRadius, domain.DefaultVisionRadius)
}
