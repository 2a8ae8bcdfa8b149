package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
)

// MovementPhase advances journeys and checks for interrupts (another
// agent coming into vision range), grounded on
// original_source/hearth/engine/phases/movement.py.
type MovementPhase struct {
	agents       *agentsvc.AgentService
	visionRadius int
}

// NewMovementPhase builds a MovementPhase from the base (daytime) vision
// radius; night-time reduction is applied per tick via
// domain.EffectiveVisionRadius.
func NewMovementPhase(agents *agentsvc.AgentService, visionRadius int) *MovementPhase {
	return &MovementPhase{agents: agents, visionRadius: visionRadius}
}

func (p *MovementPhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	radius := domain.EffectiveVisionRadius(p.visionRadius, tc.TimeOfDay)
	var events []domain.DomainEvent
	updatedAgents := make(map[domain.AgentName]domain.Agent, len(tc.Agents))
	for name, agent := range tc.Agents {
		updatedAgents[name] = agent
	}

	for name, agent := range tc.Agents {
		if !agent.IsJourneying() {
			continue
		}

		nearby, err := p.agents.GetNearbyAgents(ctx, agent.Position, radius)
		if err != nil {
			return tc, err
		}
		hasOthers := false
		for _, other := range nearby {
			if other.Name != name {
				hasOthers = true
				break
			}
		}

		if hasOthers {
			updated, err := p.agents.InterruptJourney(ctx, name)
			if err != nil {
				return tc, err
			}
			updatedAgents[name] = updated
			events = append(events, domain.JourneyInterruptedEvent{
				BaseEvent: domain.BaseEvent{Tick: tc.Tick, Timestamp: nowFunc()},
				Agent:     name, Reason: "encountered_agent", AtPosition: agent.Position,
			})
			continue
		}

		destination := agent.Position
		if agent.Journey != nil {
			destination = agent.Journey.Destination.Position
		}

		updated, arrived, err := p.agents.AdvanceJourney(ctx, name)
		if err != nil {
			return tc, err
		}
		updatedAgents[name] = updated
		if arrived {
			events = append(events, domain.JourneyCompletedEvent{
				BaseEvent: domain.BaseEvent{Tick: tc.Tick, Timestamp: nowFunc()},
				Agent:     name, Destination: destination,
			})
		}
	}

	return tc.WithAgents(updatedAgents).AppendEvents(events), nil
}
