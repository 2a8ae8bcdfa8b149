package tick

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/hearth/internal/action"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/perception"
)

// AgentBrain decides what an agent does on its turn given a perception
// snapshot. The only implementation this module ships is the nil case
// (stub mode, below); an LLM-backed implementation is out of scope here
// but plugs in at this interface exactly the way original_source's
// HearthProvider plugs into AgentTurnPhase.
type AgentBrain interface {
	Act(ctx context.Context, agent domain.Agent, snapshot perception.AgentPerception, tick int) (actions []domain.Action, sessionToken string, narrative string, usage domain.TokenUsage, err error)
}

// AgentTurnPhase runs each active agent's turn: build perception, ask the
// brain for actions, execute them through the action engine, and collect
// the resulting events. Clusters run concurrently; agents within one
// cluster run strictly sequentially, grounded on
// original_source/hearth/engine/phases/agent_turn.py.
type AgentTurnPhase struct {
	perception *perception.Builder
	actions    *action.Engine
	brain      AgentBrain // nil runs in stub mode: no actions, empty events
	logger     *slog.Logger
}

// NewAgentTurnPhase builds an AgentTurnPhase. brain may be nil, in which
// case every agent's turn is a no-op (matching the Python
// "if self._provider is None" stub branch).
func NewAgentTurnPhase(perceptionBuilder *perception.Builder, actionEngine *action.Engine, brain AgentBrain, logger *slog.Logger) *AgentTurnPhase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentTurnPhase{perception: perceptionBuilder, actions: actionEngine, brain: brain, logger: logger}
}

func (p *AgentTurnPhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	if len(tc.Clusters) == 0 {
		return tc, nil
	}

	clusterResults := make([][]domain.TurnResult, len(tc.Clusters))
	var wg sync.WaitGroup
	for i, cluster := range tc.Clusters {
		wg.Add(1)
		go func(i int, cluster []domain.AgentName) {
			defer wg.Done()
			clusterResults[i] = p.executeCluster(ctx, cluster, tc)
		}(i, cluster)
	}
	wg.Wait()

	turnResults := make(map[domain.AgentName]domain.TurnResult, len(tc.AgentsToAct))
	var events []domain.DomainEvent
	for _, results := range clusterResults {
		for _, result := range results {
			turnResults[result.AgentName] = result
			events = append(events, result.Events...)
		}
	}

	return tc.WithTurnResults(turnResults).AppendEvents(events), nil
}

func (p *AgentTurnPhase) executeCluster(ctx context.Context, cluster []domain.AgentName, tc domain.TickContext) []domain.TurnResult {
	results := make([]domain.TurnResult, 0, len(cluster))
	for _, name := range cluster {
		results = append(results, p.executeAgentTurn(ctx, name, tc))
	}
	return results
}

func (p *AgentTurnPhase) executeAgentTurn(ctx context.Context, name domain.AgentName, tc domain.TickContext) domain.TurnResult {
	snapshot, err := p.perception.Build(ctx, name, tc.Tick)
	if err != nil {
		p.logger.Error("build perception failed", "agent", name, "error", err)
		return domain.TurnResult{AgentName: name}
	}

	if p.brain == nil {
		return domain.TurnResult{AgentName: name, Perception: snapshot}
	}

	agent, ok := tc.Agents[name]
	if !ok {
		p.logger.Error("agent missing from tick context", "agent", name)
		return domain.TurnResult{AgentName: name, Perception: snapshot}
	}
	if agent.IsSleeping {
		return domain.TurnResult{AgentName: name, Perception: snapshot}
	}

	actions, sessionToken, narrative, usage, err := p.brain.Act(ctx, agent, snapshot, tc.Tick)
	if err != nil {
		p.logger.Error("agent turn failed", "agent", name, "error", err)
		return domain.TurnResult{AgentName: name, Perception: snapshot}
	}

	var events []domain.DomainEvent
	var taken []domain.Action
	for _, act := range actions {
		result, err := p.actions.Execute(ctx, agent, act, tc.Tick)
		if err != nil {
			p.logger.Error("execute action failed", "agent", name, "error", err)
			continue
		}
		taken = append(taken, act)
		events = append(events, result.Events...)
	}

	return domain.TurnResult{
		AgentName:    name,
		Perception:   snapshot,
		ActionsTaken: taken,
		Events:       events,
		Narrative:    narrative,
		SessionID:    sessionToken,
		TokenUsage:   usage,
	}
}
