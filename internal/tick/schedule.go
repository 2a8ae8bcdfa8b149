package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/scheduler"
)

// SchedulePhase computes agent clusters and execution order for the
// tick, and persists wake-state changes identified by WakePhase,
// grounded on original_source/hearth/engine/phases/schedule.py.
type SchedulePhase struct {
	scheduler *scheduler.Scheduler
	agents    *agentsvc.AgentService
}

// NewSchedulePhase builds a SchedulePhase.
func NewSchedulePhase(sched *scheduler.Scheduler, agents *agentsvc.AgentService) *SchedulePhase {
	return &SchedulePhase{scheduler: sched, agents: agents}
}

func (p *SchedulePhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	updatedAgents := make(map[domain.AgentName]domain.Agent, len(tc.Agents))
	for name, agent := range tc.Agents {
		updatedAgents[name] = agent
	}

	// Wake agents identified by WakePhase, persisting and updating the
	// snapshot so this tick's scheduling sees the new state.
	for name := range tc.AgentsToWake {
		if _, ok := updatedAgents[name]; !ok {
			continue
		}
		updated, err := p.agents.WakeAgent(ctx, name)
		if err != nil {
			return tc, err
		}
		updatedAgents[name] = updated
	}

	active := make([]domain.Agent, 0, len(updatedAgents))
	for _, agent := range updatedAgents {
		if agent.IsSleeping || agent.IsJourneying() {
			continue
		}
		active = append(active, agent)
	}

	clusters := p.scheduler.ComputeClusters(active)

	forced, forcedOK := p.scheduler.TakeForcedNext()
	for i, cluster := range clusters {
		clusters[i] = scheduler.OrderCluster(cluster, forced, forcedOK)
	}

	agentsToAct := make(map[domain.AgentName]bool, len(active))
	for _, agent := range active {
		agentsToAct[agent.Name] = true
	}

	return tc.WithAgents(updatedAgents).WithAgentsToAct(agentsToAct).WithClusters(clusters), nil
}
