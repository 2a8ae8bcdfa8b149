// Package engine wires every service together into one tick pipeline and
// drives it from a persistent worker goroutine, grounded on
// original_source/hearth/engine/engine.py (service wiring, pipeline
// construction, tick_once/context building) and
// original_source/engine/runner.py (the command-queue-driven worker
// loop).
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/hearth/internal/action"
	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/crafting"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/perception"
	"github.com/codeready-toolchain/hearth/internal/scheduler"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/tick"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

// Engine orchestrates one simulation: it owns every service and the phase
// pipeline. State, the tick counter included, lives in storage; Engine
// itself holds only the registered callbacks.
type Engine struct {
	storage *storage.Storage

	World        *worldsvc.WorldService
	Agents       *agentsvc.AgentService
	Crafting     *crafting.Service
	Conversation *conversationsvc.ConversationService
	Actions      *action.Engine
	Perception   *perception.Builder
	Scheduler    *scheduler.Scheduler

	pipeline *tick.Pipeline
	brain    tick.AgentBrain

	visionRadius int

	mu            sync.Mutex
	tickCallbacks []func(domain.TickContext)

	logger *slog.Logger
}

// New wires every service against st and builds the tick pipeline.
// recipesPath is loaded by the crafting service; a missing file yields
// an empty recipe book. brain may be nil, running every turn in stub
// mode (no actions, no LLM calls).
func New(st *storage.Storage, recipesPath string, visionRadius int, brain tick.AgentBrain, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if visionRadius <= 0 {
		visionRadius = domain.DefaultVisionRadius
	}

	world := worldsvc.NewWorldService(st)
	agents := agentsvc.NewAgentService(st)
	conversation := conversationsvc.NewConversationService(st, logger)

	craftingSvc, err := crafting.LoadFromFile(recipesPath)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	actions := action.New(st, world, agents, craftingSvc, conversation, visionRadius)
	perceptionBuilder := perception.New(world, agents, conversation, visionRadius)
	sched := scheduler.New(visionRadius)

	pipeline := tick.NewPipeline(
		tick.NewInvitationExpiryPhase(conversation),
		tick.NewWakePhase(),
		tick.NewMovementPhase(agents, visionRadius),
		tick.NewSchedulePhase(sched, agents),
		tick.NewAgentTurnPhase(perceptionBuilder, actions, brain, logger),
		tick.NewCommitPhase(st, agents),
	)

	return &Engine{
		storage:      st,
		World:        world,
		Agents:       agents,
		Crafting:     craftingSvc,
		Conversation: conversation,
		Actions:      actions,
		Perception:   perceptionBuilder,
		Scheduler:    sched,
		pipeline:     pipeline,
		brain:        brain,
		visionRadius: visionRadius,
		logger:       logger,
	}, nil
}

// OnTick registers a callback invoked synchronously after every
// completed tick, with the final TickContext. Used by the host API to
// push tick-complete notifications to subscribers.
func (e *Engine) OnTick(cb func(domain.TickContext)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallbacks = append(e.tickCallbacks, cb)
}

// ForceNext prioritizes agent to act first in its cluster next tick.
func (e *Engine) ForceNext(agent domain.AgentName) {
	e.Scheduler.ForceNext(agent)
}

// QueueDream injects a one-shot hint delivered to agent's next
// perception snapshot.
func (e *Engine) QueueDream(agent domain.AgentName, text string) {
	e.Perception.QueueDream(agent, text)
}

// EmitManualEvent appends a manual_event straight to the audit log
// without advancing the tick counter.
func (e *Engine) EmitManualEvent(ctx context.Context, description string) error {
	tickNum, err := e.World.CurrentTick(ctx)
	if err != nil {
		return err
	}
	return e.storage.Audit.AppendBatch([]domain.DomainEvent{domain.ManualEventOccurredEvent{
		BaseEvent:   domain.BaseEvent{Tick: tickNum, Timestamp: nowFunc()},
		Description: description,
	}})
}

// ChangeWeather advances the world's weather deterministically (clear ->
// cloudy -> rainy -> foggy -> clear) and emits a WeatherChangedEvent.
func (e *Engine) ChangeWeather(ctx context.Context) error {
	current, err := e.World.CurrentWeather(ctx)
	if err != nil {
		return err
	}
	next := current.Next()
	if err := e.World.SetWeather(ctx, next); err != nil {
		return err
	}
	tickNum, err := e.World.CurrentTick(ctx)
	if err != nil {
		return err
	}
	return e.storage.Audit.AppendBatch([]domain.DomainEvent{domain.WeatherChangedEvent{
		BaseEvent:  domain.BaseEvent{Tick: tickNum, Timestamp: nowFunc()},
		OldWeather: current, NewWeather: next,
	}})
}

// Tick executes exactly one tick: increments the tick counter, builds
// the initial context from current storage state, runs the pipeline,
// and invokes every registered callback with the final context.
func (e *Engine) Tick(ctx context.Context) (domain.TickContext, error) {
	currentTick, err := e.World.CurrentTick(ctx)
	if err != nil {
		return domain.TickContext{}, fmt.Errorf("read current tick: %w", err)
	}
	nextTick := currentTick + 1

	weather, err := e.World.CurrentWeather(ctx)
	if err != nil {
		return domain.TickContext{}, fmt.Errorf("read weather: %w", err)
	}

	allAgents, err := e.Agents.GetAllAgents(ctx)
	if err != nil {
		return domain.TickContext{}, fmt.Errorf("load agents: %w", err)
	}
	agentsByName := make(map[domain.AgentName]domain.Agent, len(allAgents))
	for _, a := range allAgents {
		agentsByName[a.Name] = a
	}

	timeOfDay := domain.TimeOfDayForTick(nextTick)
	e.Actions.SetTimeOfDay(timeOfDay)

	tc := domain.NewTickContext(nextTick, timeOfDay, weather, agentsByName)

	tc, err = e.pipeline.Execute(ctx, tc)
	if err != nil {
		return tc, fmt.Errorf("tick %d: %w", nextTick, err)
	}

	e.mu.Lock()
	callbacks := append([]func(domain.TickContext){}, e.tickCallbacks...)
	e.mu.Unlock()
	for _, cb := range callbacks {
		cb(tc)
	}

	return tc, nil
}
