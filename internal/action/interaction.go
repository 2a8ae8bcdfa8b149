package action

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func (e *Engine) executeTake(ctx context.Context, agent domain.Agent, a domain.TakeAction, tick int) (domain.ActionResult, error) {
	targetPos, err := resolveDirectionToPosition(agent.Position, a.Direction)
	if err != nil {
		return domain.FailResult("Look north, south, east, west, or down at your feet."), nil
	}

	objects, err := e.world.GetObjectsAt(ctx, targetPos)
	if err != nil {
		return domain.ActionResult{}, err
	}
	var placedItems []domain.WorldObject
	for _, o := range objects {
		if o.Kind == domain.ObjectPlacedItem {
			placedItems = append(placedItems, o)
		}
	}
	if len(placedItems) == 0 {
		return domain.FailResult(fmt.Sprintf("Nothing to pick up %s.", directionPhrase(a.Direction))), nil
	}

	obj := placedItems[0]
	if err := e.world.RemoveObject(ctx, obj.ID); err != nil {
		return domain.ActionResult{}, err
	}

	if domain.IsStackableResource(obj.ItemType) {
		if _, err := e.agents.AddResource(ctx, agent.Name, obj.ItemType, obj.Quantity); err != nil {
			return domain.ActionResult{}, err
		}
	} else {
		item := domain.Item{ID: obj.ID, ItemType: obj.ItemType, Properties: obj.Properties, Quantity: 1}
		if _, err := e.agents.AddItem(ctx, agent.Name, item); err != nil {
			return domain.ActionResult{}, err
		}
	}

	event := domain.ItemTakenEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, ObjectID: obj.ID, ItemType: obj.ItemType, FromPosition: obj.Position,
	}

	quantityStr := ""
	if obj.Quantity > 1 {
		quantityStr = fmt.Sprintf("%d ", obj.Quantity)
	}
	return domain.OkResult(
		fmt.Sprintf("Picked up %s%s.", quantityStr, obj.ItemType),
		[]domain.DomainEvent{event},
		map[string]any{"item_type": obj.ItemType, "quantity": obj.Quantity},
	), nil
}

func (e *Engine) executeDrop(ctx context.Context, agent domain.Agent, a domain.DropAction, tick int) (domain.ActionResult, error) {
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

		event := domain.ItemDroppedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Agent:     agent.Name, ItemType: item.ItemType, Quantity: 1, AtPosition: agent.Position,
		}
		return domain.OkResult(fmt.Sprintf("Dropped %s.", item.ItemType), []domain.DomainEvent{event}, nil), nil
	}

	if a.ItemType != "" {
		quantity := a.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if !agent.Inventory.HasResource(a.ItemType, quantity) {
			return domain.FailResult(fmt.Sprintf("You don't have enough %s.", a.ItemType)), nil
		}
		if _, err := e.agents.RemoveResource(ctx, agent.Name, a.ItemType, quantity); err != nil {
			return domain.ActionResult{}, err
		}

		placed := domain.WorldObject{
			ID: domain.NewObjectID(), Kind: domain.ObjectPlacedItem,
			Position: agent.Position, CreatedBy: agent.Name, CreatedTick: tick,
			Passable: true, ItemType: a.ItemType, Quantity: quantity,
		}
		if err := e.world.PlaceObject(ctx, placed); err != nil {
			return domain.ActionResult{}, err
		}

		event := domain.ItemDroppedEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Agent:     agent.Name, ItemType: a.ItemType, Quantity: quantity, AtPosition: agent.Position,
		}
		return domain.OkResult(fmt.Sprintf("Dropped %d %s.", quantity, a.ItemType), []domain.DomainEvent{event}, nil), nil
	}

	return domain.FailResult("Specify what to drop."), nil
}

func (e *Engine) executeGive(ctx context.Context, agent domain.Agent, a domain.GiveAction, tick int) (domain.ActionResult, error) {
	recipient, err := e.agents.GetAgent(ctx, a.Recipient)
	if err != nil {
		return domain.FailResult(fmt.Sprintf("%s is not here.", a.Recipient)), nil
	}

	if agent.Position.DistanceTo(recipient.Position) > 1 {
		return domain.FailResult("Too far away to give."), nil
	}

	if a.ItemID != "" {
		item, ok := agent.Inventory.GetItem(a.ItemID)
		if !ok {
			return domain.FailResult("You don't have that item."), nil
		}
		if _, err := e.agents.RemoveItem(ctx, agent.Name, a.ItemID); err != nil {
			return domain.ActionResult{}, err
		}
		if _, err := e.agents.AddItem(ctx, a.Recipient, item); err != nil {
			return domain.ActionResult{}, err
		}

		event := domain.ItemGivenEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Giver:     agent.Name, Receiver: a.Recipient, ItemType: item.ItemType, Quantity: 1,
		}
		return domain.OkResult(fmt.Sprintf("Gave %s to %s.", item.ItemType, a.Recipient), []domain.DomainEvent{event}, nil), nil
	}

	if a.ItemType != "" {
		quantity := a.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if !agent.Inventory.HasResource(a.ItemType, quantity) {
			return domain.FailResult(fmt.Sprintf("You don't have enough %s.", a.ItemType)), nil
		}
		if _, err := e.agents.RemoveResource(ctx, agent.Name, a.ItemType, quantity); err != nil {
			return domain.ActionResult{}, err
		}
		if _, err := e.agents.AddResource(ctx, a.Recipient, a.ItemType, quantity); err != nil {
			return domain.ActionResult{}, err
		}

		event := domain.ItemGivenEvent{
			BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
			Giver:     agent.Name, Receiver: a.Recipient, ItemType: a.ItemType, Quantity: quantity,
		}
		return domain.OkResult(fmt.Sprintf("Gave %d %s to %s.", quantity, a.ItemType, a.Recipient), []domain.DomainEvent{event}, nil), nil
	}

	return domain.FailResult("Specify what to give."), nil
}

func (e *Engine) executeGather(ctx context.Context, agent domain.Agent, a domain.GatherAction, tick int) (domain.ActionResult, error) {
	cell, err := e.world.GetCell(ctx, agent.Position)
	if err != nil {
		return domain.ActionResult{}, err
	}
	terrainResource, _ := e.world.GatherResource(cell.Terrain)

	resource := a.ResourceType
	if resource == "" {
		resource = terrainResource
	}
	if resource == "" {
		return domain.FailResult("Nothing to gather here."), nil
	}
	if a.ResourceType != "" && a.ResourceType != terrainResource {
		return domain.FailResult(fmt.Sprintf("Cannot gather %s here.", a.ResourceType)), nil
	}

	if _, err := e.agents.AddResource(ctx, agent.Name, resource, 1); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.ItemGatheredEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, ItemType: resource, Quantity: 1, FromPosition: agent.Position,
	}
	return domain.OkResult(fmt.Sprintf("Gathered %s.", resource), []domain.DomainEvent{event}, map[string]any{"resource": resource}), nil
}
