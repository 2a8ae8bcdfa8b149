// Package perception assembles each agent's per-tick snapshot (no direct
// original_source counterpart in the retrieved pack; its shape follows
// engine/context.py's description of what AgentTurnPhase hands the
// provider) and engine/phases/movement.py's night-vision-radius
// calculation.
package perception

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

// NearbyAgent is one other agent visible in a snapshot.
type NearbyAgent struct {
	Name       domain.AgentName
	Position   domain.Position
	IsSleeping bool
}

// AgentPerception is one agent's view of the world for a single turn.
// The engine treats it as opaque; only the AgentBrain implementation
// interprets its fields.
type AgentPerception struct {
	Tick      int
	TimeOfDay string
	Weather   domain.Weather

	Self domain.Agent

	VisionRadius int
	Cells        []domain.Cell
	Objects      []domain.WorldObject
	NearbyAgents []NearbyAgent

	Conversation   domain.ConversationContext
	InConversation bool

	// DreamHint is a one-shot hint queued by Engine.QueueDream,
	// consumed (and cleared) the first time it is delivered.
	DreamHint string
}

// Builder assembles AgentPerception snapshots from current storage
// state. Stateless except for the pending dream-hint queue, which is
// consumed exactly once per agent.
type Builder struct {
	world        *worldsvc.WorldService
	agents       *agentsvc.AgentService
	conversation *conversationsvc.ConversationService // nil disables conversation context
	visionRadius int

	dreams map[domain.AgentName]string
}

// New builds a perception Builder.
func New(world *worldsvc.WorldService, agents *agentsvc.AgentService, conversation *conversationsvc.ConversationService, visionRadius int) *Builder {
	return &Builder{
		world: world, agents: agents, conversation: conversation,
		visionRadius: visionRadius, dreams: make(map[domain.AgentName]string),
	}
}

// QueueDream records a hint to be delivered the next time Build runs for
// agent, then discarded. Used by the host API's "send dream" command.
func (b *Builder) QueueDream(agent domain.AgentName, text string) {
	b.dreams[agent] = text
}

// Build assembles agent's snapshot for tick.
func (b *Builder) Build(ctx context.Context, agentName domain.AgentName, tick int) (AgentPerception, error) {
	agent, err := b.agents.GetAgent(ctx, agentName)
	if err != nil {
		return AgentPerception{}, err
	}

	timeOfDay := timeOfDayFor(tick)
	weather, err := b.world.CurrentWeather(ctx)
	if err != nil {
		return AgentPerception{}, err
	}

	radius := domain.EffectiveVisionRadius(b.visionRadius, timeOfDay)
	width, height, err := b.world.WorldDimensions(ctx)
	if err != nil {
		return AgentPerception{}, err
	}
	rect := domain.RectAround(agent.Position, radius).Clamp(width, height)

	cells, err := b.world.GetCellsInRect(ctx, rect)
	if err != nil {
		return AgentPerception{}, err
	}
	objects, err := b.world.GetObjectsInRect(ctx, rect)
	if err != nil {
		return AgentPerception{}, err
	}
	nearby, err := b.agents.GetNearbyAgents(ctx, agent.Position, radius)
	if err != nil {
		return AgentPerception{}, err
	}

	nearbyAgents := make([]NearbyAgent, 0, len(nearby))
	for _, other := range nearby {
		if other.Name == agentName {
			continue
		}
		nearbyAgents = append(nearbyAgents, NearbyAgent{Name: other.Name, Position: other.Position, IsSleeping: other.IsSleeping})
	}

	p := AgentPerception{
		Tick: tick, TimeOfDay: timeOfDay, Weather: weather,
		Self: agent, VisionRadius: radius,
		Cells: cells, Objects: objects, NearbyAgents: nearbyAgents,
	}

	if b.conversation != nil {
		convCtx, ok, err := b.conversation.GetConversationContext(ctx, agentName)
		if err != nil {
			return AgentPerception{}, err
		}
		if ok {
			p.Conversation = convCtx
			p.InConversation = true
		}
	}

	if hint, ok := b.dreams[agentName]; ok {
		p.DreamHint = hint
		delete(b.dreams, agentName)
	}

	return p, nil
}

// timeOfDayFor derives the time-of-day label from the tick being built
// the same way Engine.Tick does for the context CommitPhase reports, so
// perception and the commit event agree. Defined here rather than
// imported from tick to avoid a perception<->tick import cycle (tick
// depends on perception).
func timeOfDayFor(tick int) string {
	return domain.TimeOfDayForTick(tick)
}
