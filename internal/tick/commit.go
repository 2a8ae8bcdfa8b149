package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

// CommitPhase runs last in the pipeline. State changes from actions are
// already persisted by the action engine as they happen; this phase only
// logs the tick's events for audit purposes, saves session tokens for
// conversation continuity, adds each turn's token usage to the agent's
// running totals, and advances the tick counter, grounded on
// original_source/hearth/engine/phases/commit.py.
type CommitPhase struct {
	storage *storage.Storage
	agents  *agentsvc.AgentService
}

// NewCommitPhase builds a CommitPhase.
func NewCommitPhase(st *storage.Storage, agents *agentsvc.AgentService) *CommitPhase {
	return &CommitPhase{storage: st, agents: agents}
}

func (p *CommitPhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	tc = tc.AppendEvents([]domain.DomainEvent{domain.TimeAdvancedEvent{
		BaseEvent: domain.BaseEvent{Tick: tc.Tick, Timestamp: nowFunc()},
		NewTick:   tc.Tick, TimeOfDay: tc.TimeOfDay, Weather: tc.Weather,
	}})

	if len(tc.Events) > 0 {
		if err := p.storage.Audit.AppendBatch(tc.Events); err != nil {
			return tc, err
		}
	}

	for name, result := range tc.TurnResults {
		if result.SessionID != "" {
			if _, err := p.agents.UpdateSession(ctx, name, result.SessionID, tc.Tick); err != nil {
				return tc, err
			}
		}
		if err := p.agents.AccumulateTokenUsage(ctx, name, result.TokenUsage); err != nil {
			return tc, err
		}
	}

	if err := p.storage.World.SetTick(ctx, tc.Tick); err != nil {
		return tc, err
	}

	return tc, nil
}
