package action

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func (e *Engine) executeBuildShelter(ctx context.Context, agent domain.Agent, a domain.BuildShelterAction, tick int) (domain.ActionResult, error) {
	if !agent.Inventory.HasResource("wood", 4) {
		return domain.FailResult("Need at least 4 wood to build a simple shelter."), nil
	}
	if _, err := e.agents.RemoveResource(ctx, agent.Name, "wood", 4); err != nil {
		return domain.ActionResult{}, err
	}

	pos := agent.Position
	events := make([]domain.DomainEvent, 0, len(domain.AllDirections)+1)
	for _, dir := range domain.AllDirections {
		if err := e.world.PlaceWall(ctx, pos, dir); err != nil {
			return domain.ActionResult{}, err
		}
		events = append(events, domain.WallPlacedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Position:  pos, Direction: dir, Builder: agent.Name,
		})
	}

	if err := e.world.PlaceDoor(ctx, pos, domain.South); err != nil {
		return domain.ActionResult{}, err
	}
	events = append(events, domain.DoorPlacedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Position:  pos, Direction: domain.South, Builder: agent.Name,
	})

	return domain.OkResult("Built a simple shelter around yourself.", events, nil), nil
}

func (e *Engine) executePlaceWall(ctx context.Context, agent domain.Agent, a domain.PlaceWallAction, tick int) (domain.ActionResult, error) {
	if !agent.Inventory.HasResource("wood", 1) {
		return domain.FailResult("Need wood to build a wall."), nil
	}
	if _, err := e.agents.RemoveResource(ctx, agent.Name, "wood", 1); err != nil {
		return domain.ActionResult{}, err
	}
	if err := e.world.PlaceWall(ctx, agent.Position, a.Direction); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.WallPlacedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Position:  agent.Position, Direction: a.Direction, Builder: agent.Name,
	}
	return domain.OkResult(
		fmt.Sprintf("Built a wall to the %s.", a.Direction),
		[]domain.DomainEvent{event}, nil,
	), nil
}

func (e *Engine) executePlaceDoor(ctx context.Context, agent domain.Agent, a domain.PlaceDoorAction, tick int) (domain.ActionResult, error) {
	cell, err := e.world.GetCell(ctx, agent.Position)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !cell.HasWall(a.Direction) {
		return domain.FailResult(fmt.Sprintf("No wall to the %s to put a door in.", a.Direction)), nil
	}
	if cell.HasDoor(a.Direction) {
		return domain.FailResult(fmt.Sprintf("Already a door to the %s.", a.Direction)), nil
	}

	if err := e.world.PlaceDoor(ctx, agent.Position, a.Direction); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.DoorPlacedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Position:  agent.Position, Direction: a.Direction, Builder: agent.Name,
	}
	return domain.OkResult(
		fmt.Sprintf("Added a door to the %s wall.", a.Direction),
		[]domain.DomainEvent{event}, nil,
	), nil
}

func (e *Engine) executePlaceItem(ctx context.Context, agent domain.Agent, a domain.PlaceItemAction, tick int) (domain.ActionResult, error) {
	if a.ItemID != "" {
		item, ok := agent.Inventory.GetItem(a.ItemID)
		if !ok {
			return domain.FailResult("You don't have that item."), nil
		}
		if _, err := e.agents.RemoveItem(ctx, agent.Name, a.ItemID); err != nil {
			return domain.ActionResult{}, err
		}

		placed := item.ToPlacedItem(agent.Position, agent.Name, tick, true)
		if err := e.world.PlaceObject(ctx, placed); err != nil {
			return domain.ActionResult{}, err
		}

		event := domain.ObjectCreatedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			ObjectID:  placed.ID, ObjectType: "placed_item", Position: agent.Position, Creator: agent.Name,
		}
		return domain.OkResult(fmt.Sprintf("Placed %s.", item.ItemType), []domain.DomainEvent{event}, nil), nil
	}

	if a.ItemType != "" {
		if !agent.Inventory.HasResource(a.ItemType, 1) {
			return domain.FailResult(fmt.Sprintf("You don't have any %s.", a.ItemType)), nil
		}
		if _, err := e.agents.RemoveResource(ctx, agent.Name, a.ItemType, 1); err != nil {
			return domain.ActionResult{}, err
		}

		placed := domain.WorldObject{
			ID: domain.NewObjectID(), Kind: domain.ObjectPlacedItem,
			Position: agent.Position, CreatedBy: agent.Name, CreatedTick: tick,
			Passable: true, ItemType: a.ItemType, Quantity: 1,
		}
		if err := e.world.PlaceObject(ctx, placed); err != nil {
			return domain.ActionResult{}, err
		}

		event := domain.ObjectCreatedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			ObjectID:  placed.ID, ObjectType: "placed_item", Position: agent.Position, Creator: agent.Name,
		}
		return domain.OkResult(fmt.Sprintf("Placed %s.", a.ItemType), []domain.DomainEvent{event}, nil), nil
	}

	return domain.FailResult("Specify what to place."), nil
}

func (e *Engine) executeRemoveWall(ctx context.Context, agent domain.Agent, a domain.RemoveWallAction, tick int) (domain.ActionResult, error) {
	cell, err := e.world.GetCell(ctx, agent.Position)
	if err != nil {
		return domain.ActionResult{}, err
	}
	if !cell.HasWall(a.Direction) {
		return domain.FailResult(fmt.Sprintf("No wall to the %s to remove.", a.Direction)), nil
	}

	if err := e.world.RemoveWall(ctx, agent.Position, a.Direction); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.WallRemovedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Position:  agent.Position, Direction: a.Direction,
	}
	return domain.OkResult(
		fmt.Sprintf("Removed the wall to the %s.", a.Direction),
		[]domain.DomainEvent{event}, nil,
	), nil
}
