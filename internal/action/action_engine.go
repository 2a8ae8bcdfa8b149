// Package action validates and executes agent actions, producing
// domain.ActionResult values and the domain events each action emits.
// Grounded on original_source/hearth/services/action_engine.py; dispatch
// is a type switch over domain.Action, and the validate-then-mutate-then-
// event shape mirrors tarsy's pkg/services/chat_service.go.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/hearth/internal/agentsvc"
	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/conversationsvc"
	"github.com/codeready-toolchain/hearth/internal/crafting"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

// Engine validates and executes one action per call. All state mutation
// goes through WorldService/AgentService/ConversationService so the engine
// itself holds no cached state across calls.
type Engine struct {
	storage      *storage.Storage
	world        *worldsvc.WorldService
	agents       *agentsvc.AgentService
	crafting     *crafting.Service // nil disables combine/work/apply
	conversation *conversationsvc.ConversationService // nil disables social actions

	visionRadius int
	timeOfDay    string
}

// New builds an Engine. craftingSvc and conversationSvc may be nil, in
// which case crafting and social actions fail gracefully.
func New(st *storage.Storage, world *worldsvc.WorldService, agents *agentsvc.AgentService, craftingSvc *crafting.Service, conversationSvc *conversationsvc.ConversationService, visionRadius int) *Engine {
	if visionRadius <= 0 {
		visionRadius = domain.DefaultVisionRadius
	}
	return &Engine{
		storage:      st,
		world:        world,
		agents:       agents,
		crafting:     craftingSvc,
		conversation: conversationSvc,
		visionRadius: visionRadius,
		timeOfDay:    "morning",
	}
}

// SetTimeOfDay must be called once per tick before executing actions, since
// it scales vision radius at night.
func (e *Engine) SetTimeOfDay(timeOfDay string) {
	e.timeOfDay = timeOfDay
}

func (e *Engine) effectiveVisionRadius() int {
	return domain.EffectiveVisionRadius(e.visionRadius, e.timeOfDay)
}

// Execute dispatches action to its handler and returns the result. The
// agent argument is only used to identify whose turn this is; current
// state is always reloaded from storage so effects of earlier actions in
// the same turn (and of other agents in the same cluster) are visible.
func (e *Engine) Execute(ctx context.Context, agent domain.Agent, act domain.Action, tick int) (domain.ActionResult, error) {
	current, err := e.agents.GetAgent(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("load agent for action: %w", err)
	}

	switch a := act.(type) {
	case domain.WalkAction:
		return e.executeWalk(ctx, current, a, tick)
	case domain.ApproachAction:
		return e.executeApproach(ctx, current, a, tick)
	case domain.JourneyAction:
		return e.executeJourney(ctx, current, a, tick)
	case domain.LookAction:
		return e.executeLook(ctx, current, a, tick)
	case domain.ExamineAction:
		return e.executeExamine(ctx, current, a, tick)
	case domain.SenseOthersAction:
		return e.executeSenseOthers(ctx, current, a, tick)
	case domain.TakeAction:
		return e.executeTake(ctx, current, a, tick)
	case domain.DropAction:
		return e.executeDrop(ctx, current, a, tick)
	case domain.GiveAction:
		return e.executeGive(ctx, current, a, tick)
	case domain.GatherAction:
		return e.executeGather(ctx, current, a, tick)
	case domain.CombineAction:
		return e.executeCombine(ctx, current, a, tick)
	case domain.WorkAction:
		return e.executeWork(ctx, current, a, tick)
	case domain.ApplyAction:
		return e.executeApply(ctx, current, a, tick)
	case domain.BuildShelterAction:
		return e.executeBuildShelter(ctx, current, a, tick)
	case domain.PlaceWallAction:
		return e.executePlaceWall(ctx, current, a, tick)
	case domain.PlaceDoorAction:
		return e.executePlaceDoor(ctx, current, a, tick)
	case domain.PlaceItemAction:
		return e.executePlaceItem(ctx, current, a, tick)
	case domain.RemoveWallAction:
		return e.executeRemoveWall(ctx, current, a, tick)
	case domain.WriteSignAction:
		return e.executeWriteSign(ctx, current, a, tick)
	case domain.ReadSignAction:
		return e.executeReadSign(ctx, current, a, tick)
	case domain.NamePlaceAction:
		return e.executeNamePlace(ctx, current, a, tick)
	case domain.SpeakAction:
		return e.executeSpeak(ctx, current, a, tick)
	case domain.InviteAction:
		return e.executeInvite(ctx, current, a, tick)
	case domain.AcceptInviteAction:
		return e.executeAcceptInvite(ctx, current, a, tick)
	case domain.DeclineInviteAction:
		return e.executeDeclineInvite(ctx, current, a, tick)
	case domain.JoinConversationAction:
		return e.executeJoinConversation(ctx, current, a, tick)
	case domain.LeaveConversationAction:
		return e.executeLeaveConversation(ctx, current, a, tick)
	case domain.SleepAction:
		return e.executeSleep(ctx, current, a, tick)
	default:
		return domain.FailResult(fmt.Sprintf("Unknown action type: %s", act.ActionType())), nil
	}
}

// -----------------------------------------------------------------------
// Direction helper
// -----------------------------------------------------------------------

// errInvalidDirection signals that resolveDirectionToPosition was given
// something other than north/south/east/west/down.
var errInvalidDirection = fmt.Errorf("invalid direction")

func resolveDirectionToPosition(agentPos domain.Position, direction string) (domain.Position, error) {
	if direction == "down" {
		return agentPos, nil
	}
	d, ok := domain.ParseDirection(direction)
	if !ok {
		return domain.Position{}, errInvalidDirection
	}
	return agentPos.Add(d), nil
}

func directionPhrase(direction string) string {
	if direction == "down" {
		return "at your feet"
	}
	return "to the " + direction
}

func now() time.Time { return time.Now() }

// -----------------------------------------------------------------------
// Movement actions
// -----------------------------------------------------------------------

func (e *Engine) executeWalk(ctx context.Context, agent domain.Agent, a domain.WalkAction, tick int) (domain.ActionResult, error) {
	fromPos := agent.Position
	canMove, err := e.world.CanMove(ctx, fromPos, a.Direction)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !canMove {
		return domain.FailResult(fmt.Sprintf("Cannot move %s - path is blocked.", a.Direction)), nil
	}

	toPos := fromPos.Add(a.Direction)
	if _, err := e.agents.UpdatePosition(ctx, agent.Name, toPos); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.AgentMovedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, FromPos: fromPos, ToPos: toPos,
	}
	return domain.OkResult(
		fmt.Sprintf("Moved %s.", a.Direction),
		[]domain.DomainEvent{event},
		map[string]any{"direction": a.Direction.String(), "new_position": toPos},
	), nil
}

func (e *Engine) executeApproach(ctx context.Context, agent domain.Agent, a domain.ApproachAction, tick int) (domain.ActionResult, error) {
	var targetPos domain.Position
	found := false

	if targetAgent, err := e.agents.GetAgent(ctx, domain.AgentName(a.Target)); err == nil {
		nearby, err := e.agents.GetNearbyAgents(ctx, agent.Position, e.effectiveVisionRadius())
		if err != nil {
			return domain.ActionResult{}, err
		}
		seen := false
		for _, n := range nearby {
			if n.Name == targetAgent.Name {
				seen = true
				break
			}
		}
		if !seen {
			return domain.FailResult(fmt.Sprintf("You don't see %s nearby.", a.Target)), nil
		}
		targetPos = targetAgent.Position
		found = true
	} else if !apperr.IsNotFound(err) {
		return domain.ActionResult{}, err
	}

	if !found {
		obj, err := e.storage.Objects.GetObject(ctx, domain.ObjectId(a.Target))
		if err == nil {
			if agent.Position.DistanceTo(obj.Position) > e.effectiveVisionRadius() {
				return domain.FailResult("You don't see that object."), nil
			}
			targetPos = obj.Position
			found = true
		} else if !apperr.IsNotFound(err) {
			return domain.ActionResult{}, err
		}
	}

	if !found {
		return domain.FailResult(fmt.Sprintf("Cannot find %s to approach.", a.Target)), nil
	}

	if agent.Position == targetPos {
		return domain.FailResult("Already at that location."), nil
	}

	direction, ok := agent.Position.DirectionTo(targetPos)
	if !ok {
		return domain.FailResult("Already at that location."), nil
	}

	canMove, err := e.world.CanMove(ctx, agent.Position, direction)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !canMove {
		return domain.FailResult(fmt.Sprintf("Cannot move toward %s - path blocked.", a.Target)), nil
	}

	fromPos := agent.Position
	toPos := agent.Position.Add(direction)
	if _, err := e.agents.UpdatePosition(ctx, agent.Name, toPos); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.AgentMovedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, FromPos: fromPos, ToPos: toPos,
	}
	return domain.OkResult(
		fmt.Sprintf("Moved toward %s.", a.Target),
		[]domain.DomainEvent{event},
		map[string]any{"target": a.Target, "new_position": toPos},
	), nil
}

func (e *Engine) executeJourney(ctx context.Context, agent domain.Agent, a domain.JourneyAction, tick int) (domain.ActionResult, error) {
	destPos := a.DestinationPos
	if a.DestinationLandmark != "" {
		resolved, err := e.world.GetPlacePosition(ctx, string(a.DestinationLandmark))
		if err != nil {
			return domain.FailResult(fmt.Sprintf("Unknown destination: %s", a.DestinationLandmark)), nil
		}
		destPos = resolved
	}

	if _, err := e.agents.StartJourney(ctx, agent.Name, &destPos, "", e.world); err != nil {
		return domain.FailResult(fmt.Sprintf("Cannot journey there: %v", err)), nil
	}

	updated, err := e.agents.GetAgent(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	pathLength := 0
	if updated.Journey != nil {
		pathLength = len(updated.Journey.Path)
	}

	event := domain.JourneyStartedEvent{
		BaseEvent:   domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:       agent.Name,
		Destination: destPos,
		PathLength:  pathLength,
	}
	return domain.OkResult(
		fmt.Sprintf("Began journey (approximately %d steps).", pathLength),
		[]domain.DomainEvent{event},
		map[string]any{"destination": destPos, "path_length": pathLength},
	), nil
}

// -----------------------------------------------------------------------
// Perception actions
// -----------------------------------------------------------------------

func (e *Engine) executeLook(ctx context.Context, agent domain.Agent, a domain.LookAction, tick int) (domain.ActionResult, error) {
	const radius = 10
	width, height, err := e.world.WorldDimensions(ctx)
	if err != nil {
		return domain.ActionResult{}, err
	}
	rect := domain.RectAround(agent.Position, radius).Clamp(width, height)

	cells, err := e.world.GetCellsInRect(ctx, rect)
	if err != nil {
		return domain.ActionResult{}, err
	}
	objects, err := e.world.GetObjectsInRect(ctx, rect)
	if err != nil {
		return domain.ActionResult{}, err
	}
	nearbyAgents, err := e.agents.GetNearbyAgents(ctx, agent.Position, radius)
	if err != nil {
		return domain.ActionResult{}, err
	}

	objData := make([]map[string]any, 0, len(objects))
	for _, o := range objects {
		objData = append(objData, map[string]any{
			"id": string(o.ID), "type": o.Kind.String(), "position": o.Position,
		})
	}
	agentData := make([]map[string]any, 0, len(nearbyAgents))
	for _, na := range nearbyAgents {
		if na.Name == agent.Name {
			continue
		}
		agentData = append(agentData, map[string]any{"name": string(na.Name), "position": na.Position})
	}

	return domain.OkResult(
		"You survey your surroundings.",
		nil,
		map[string]any{
			"cells": len(cells), "objects": objData, "agents": agentData,
			"center": agent.Position, "radius": radius,
		},
	), nil
}

func (e *Engine) executeExamine(ctx context.Context, agent domain.Agent, a domain.ExamineAction, tick int) (domain.ActionResult, error) {
	targetPos, err := resolveDirectionToPosition(agent.Position, a.Direction)
	if err != nil {
		return domain.FailResult("Look north, south, east, west, or down at your feet."), nil
	}

	cell, err := e.world.GetCell(ctx, targetPos)
	if err != nil {
		return domain.ActionResult{}, err
	}
	objects, err := e.world.GetObjectsAt(ctx, targetPos)
	if err != nil {
		return domain.ActionResult{}, err
	}
	agentsThere, err := e.agents.GetAgentsAt(ctx, targetPos)
	if err != nil {
		return domain.ActionResult{}, err
	}

	data := map[string]any{
		"direction": a.Direction,
		"position":  map[string]int{"x": targetPos.X, "y": targetPos.Y},
		"terrain":   cell.Terrain.String(),
	}
	if len(cell.Walls) > 0 {
		data["walls"] = dirSetToStrings(cell.Walls)
	}
	if len(cell.Doors) > 0 {
		data["doors"] = dirSetToStrings(cell.Doors)
	}
	if cell.PlaceName != "" {
		data["place_name"] = cell.PlaceName
	}

	if len(objects) > 0 {
		objData := make([]map[string]any, 0, len(objects))
		for _, o := range objects {
			objData = append(objData, map[string]any{
				"type": o.Kind.String(), "text": o.Text, "properties": o.Properties,
			})
		}
		data["objects"] = objData
	}

	var otherAgents []domain.Agent
	for _, oa := range agentsThere {
		if oa.Name != agent.Name {
			otherAgents = append(otherAgents, oa)
		}
	}
	if len(otherAgents) > 0 {
		agentData := make([]map[string]any, 0, len(otherAgents))
		for _, oa := range otherAgents {
			agentData = append(agentData, map[string]any{
				"name": string(oa.Name), "is_sleeping": oa.IsSleeping, "is_journeying": oa.IsJourneying(),
			})
		}
		data["agents"] = agentData
	}

	phrase := directionPhrase(a.Direction)
	if a.Direction == "down" {
		phrase = "beneath you"
	}
	return domain.OkResult(fmt.Sprintf("You examine what lies %s.", phrase), nil, data), nil
}

func dirSetToStrings(set map[domain.Direction]bool) []string {
	out := make([]string, 0, len(set))
	for d, v := range set {
		if v {
			out = append(out, d.String())
		}
	}
	return out
}

func (e *Engine) executeSenseOthers(ctx context.Context, agent domain.Agent, a domain.SenseOthersAction, tick int) (domain.ActionResult, error) {
	sensed, err := e.agents.SenseOthers(ctx, agent.Name)
	if err != nil {
		return domain.ActionResult{}, err
	}
	sensedData := make([]map[string]any, 0, len(sensed))
	for _, s := range sensed {
		var dir any
		if s.HasDirection {
			dir = s.Direction.String()
		}
		sensedData = append(sensedData, map[string]any{
			"name": string(s.Name), "direction": dir, "distance": s.DistanceCategory,
		})
	}
	return domain.OkResult("You reach out with your senses.", nil, map[string]any{"sensed": sensedData}), nil
}
