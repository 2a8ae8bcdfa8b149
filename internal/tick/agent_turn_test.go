package tick

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/action"
	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/crafting"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/perception"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

type stubBrain struct {
	action domain.Action
}

func (b stubBrain) Act(ctx context.Context, agent domain.Agent, snapshot perception.AgentPerception, tick int) ([]domain.Action, string, string, domain.TokenUsage, error) {
	return []domain.Action{b.action}, "session-1", "looked around", domain.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil
}

func newTestServices(t *testing.T) (*storage.Storage, *worldsvc.WorldService, *agentsvc.AgentService, *action.Engine, *perception.Builder) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 16, 16, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	world := worldsvc.NewWorldService(st)
	agents := agentsvc.NewAgentService(st)
	conv := conversationsvc.NewConversationService(st, slog.Default())
	craft, err := crafting.LoadFromFile(filepath.Join(dir, "recipes.yaml"))
	require.NoError(t, err)

	actions := action.New(st, world, agents, craft, conv, domain.DefaultVisionRadius)
	perceptionBuilder := perception.New(world, agents, conv, domain.DefaultVisionRadius)
	return st, world, agents, actions, perceptionBuilder
}

func TestAgentTurnPhaseRunsBrainAndExecutesActions(t *testing.T) {
	_, _, agents, actions, perceptionBuilder := newTestServices(t)
	ctx := context.Background()

	_, err := agents.InitializeAgent(ctx, domain.Agent{
		Name:        "aria",
		Position:    domain.Position{X: 5, Y: 5},
		KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)

	brain := stubBrain{action: domain.LookAction{}}
	phase := NewAgentTurnPhase(perceptionBuilder, actions, brain, slog.Default())

	agent, err := agents.GetAgent(ctx, "aria")
	require.NoError(t, err)

	tc := domain.NewTickContext(1, "morning", domain.Clear, map[domain.AgentName]domain.Agent{"aria": agent})
	tc = tc.WithClusters([][]domain.AgentName{{"aria"}})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	result, ok := tc.TurnResults["aria"]
	require.True(t, ok)
	require.Equal(t, "looked around", result.Narrative)
	require.Equal(t, "session-1", result.SessionID)
	require.Equal(t, 10, result.TokenUsage.InputTokens)
}

func TestAgentTurnPhaseSkipsSleepingAgents(t *testing.T) {
	_, _, agents, actions, perceptionBuilder := newTestServices(t)
	ctx := context.Background()

	_, err := agents.InitializeAgent(ctx, domain.Agent{
		Name:        "bram",
		Position:    domain.Position{X: 2, Y: 2},
		IsSleeping:  true,
		KnownAgents: map[domain.AgentName]bool{},
	}, t.TempDir())
	require.NoError(t, err)

	brain := stubBrain{action: domain.LookAction{}}
	phase := NewAgentTurnPhase(perceptionBuilder, actions, brain, slog.Default())

	agent, err := agents.GetAgent(ctx, "bram")
	require.NoError(t, err)
	tc := domain.NewTickContext(1, "night", domain.Clear, map[domain.AgentName]domain.Agent{"bram": agent})
	tc = tc.WithClusters([][]domain.AgentName{{"bram"}})

	tc, err = phase.Execute(ctx, tc)
	require.NoError(t, err)

	result := tc.TurnResults["bram"]
	require.Empty(t, result.ActionsTaken)
	require.Empty(t, result.Narrative, "a sleeping agent never reaches the brain")
}

func TestAgentTurnPhaseNoClustersIsNoop(t *testing.T) {
	_, _, _, actions, perceptionBuilder := newTestServices(t)
	phase := NewAgentTurnPhase(perceptionBuilder, actions, nil, slog.Default())

	tc := domain.NewTickContext(1, "morning", domain.Clear, map[domain.AgentName]domain.Agent{})
	tc, err := phase.Execute(context.Background(), tc)
	require.NoError(t, err)
	require.Empty(t, tc.TurnResults)
}
