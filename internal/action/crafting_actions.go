package action

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func (e *Engine) executeCombine(ctx context.Context, agent domain.Agent, a domain.CombineAction, tick int) (domain.ActionResult, error) {
	if e.crafting == nil {
		return domain.FailResult("Crafting is not available."), nil
	}
	if len(a.Items) < 2 {
		return domain.FailResult("Need at least 2 items to combine."), nil
	}

	itemTypes := make([]string, 0, len(a.Items))
	for _, ref := range a.Items {
		itemType, ok := resolveItemType(agent, ref)
		if !ok {
			return domain.FailResult(fmt.Sprintf("You don't have %s.", ref)), nil
		}
		itemTypes = append(itemTypes, itemType)
	}

	counts := make(map[string]int, len(itemTypes))
	for _, t := range itemTypes {
		counts[t]++
	}
	for itemType, required := range counts {
		if agent.Inventory.ResourceQuantity(itemType) > 0 {
			if !agent.Inventory.HasResource(itemType, required) {
				return domain.FailResult(fmt.Sprintf("You need at least %d %s.", required, itemType)), nil
			}
			continue
		}
		matching := 0
		for _, it := range agent.Inventory.Items {
			if it.ItemType == itemType {
				matching++
			}
		}
		if matching < required {
			return domain.FailResult(fmt.Sprintf("You need at least %d %s.", required, itemType)), nil
		}
	}

	result := e.crafting.TryCraft("combine", itemTypes, "")
	if !result.Success {
		hintText := ""
		if len(result.Hints) > 0 {
			hintText = " " + result.Hints[0]
		}
		return domain.FailResultWithData(
			fmt.Sprintf("These materials don't combine in any useful way.%s", hintText),
			map[string]any{"hints": result.Hints},
		), nil
	}

	for i, ref := range a.Items {
		if err := e.consumeItem(ctx, agent.Name, ref, itemTypes[i]); err != nil {
			return domain.ActionResult{}, err
		}
	}
	if err := e.addCraftOutput(ctx, agent.Name, result.OutputItem); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.ItemCraftedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, Inputs: itemTypes, Output: result.OutputItem.ItemType,
	}
	return domain.OkResult(
		fmt.Sprintf("Created %s. %s", result.OutputItem.ItemType, result.Message),
		[]domain.DomainEvent{event},
		map[string]any{
			"output": result.OutputItem.ItemType, "quantity": result.OutputItem.Quantity,
			"properties": result.OutputItem.Properties, "discoveries": result.Discoveries,
		},
	), nil
}

func (e *Engine) executeWork(ctx context.Context, agent domain.Agent, a domain.WorkAction, tick int) (domain.ActionResult, error) {
	if e.crafting == nil {
		return domain.FailResult("Crafting is not available."), nil
	}

	materialType, ok := resolveItemType(agent, a.Material)
	if !ok {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Material)), nil
	}
	if !hasItemForCrafting(agent, a.Material, materialType) {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Material)), nil
	}

	result := e.crafting.TryCraft("work", []string{materialType}, a.Technique)
	if !result.Success {
		hintText := ""
		if len(result.Hints) > 0 {
			hintText = " " + result.Hints[0]
		}
		return domain.FailResultWithData(
			fmt.Sprintf("The %s technique doesn't work on %s.%s", a.Technique, materialType, hintText),
			map[string]any{"hints": result.Hints},
		), nil
	}

	if err := e.consumeItem(ctx, agent.Name, a.Material, materialType); err != nil {
		return domain.ActionResult{}, err
	}
	if err := e.addCraftOutput(ctx, agent.Name, result.OutputItem); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.ItemCraftedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, Inputs: []string{materialType}, Output: result.OutputItem.ItemType, Technique: a.Technique,
	}
	return domain.OkResult(
		fmt.Sprintf("Created %s. %s", result.OutputItem.ItemType, result.Message),
		[]domain.DomainEvent{event},
		map[string]any{
			"output": result.OutputItem.ItemType, "quantity": result.OutputItem.Quantity,
			"properties": result.OutputItem.Properties, "discoveries": result.Discoveries,
		},
	), nil
}

func (e *Engine) executeApply(ctx context.Context, agent domain.Agent, a domain.ApplyAction, tick int) (domain.ActionResult, error) {
	if e.crafting == nil {
		return domain.FailResult("Crafting is not available."), nil
	}

	toolType, ok := resolveItemType(agent, a.Tool)
	if !ok {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Tool)), nil
	}
	targetType, ok := resolveItemType(agent, a.Target)
	if !ok {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Target)), nil
	}
	if !hasItemForCrafting(agent, a.Tool, toolType) {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Tool)), nil
	}
	if !hasItemForCrafting(agent, a.Target, targetType) {
		return domain.FailResult(fmt.Sprintf("You don't have %s.", a.Target)), nil
	}

	if toolItem, ok := getUniqueItem(agent, a.Tool); ok {
		if !toolItem.HasProperty("tool") && !toolItem.HasProperty("heat") {
			return domain.FailResult(fmt.Sprintf("The %s cannot be used this way.", toolType)), nil
		}
	}

	result := e.crafting.TryApply(toolType, targetType)
	if !result.Success {
		hintText := ""
		if len(result.Hints) > 0 {
			hintText = " " + result.Hints[0]
		}
		return domain.FailResultWithData(
			fmt.Sprintf("The %s doesn't do anything useful to the %s.%s", toolType, targetType, hintText),
			map[string]any{"hints": result.Hints},
		), nil
	}

	if err := e.consumeItem(ctx, agent.Name, a.Target, targetType); err != nil {
		return domain.ActionResult{}, err
	}
	if err := e.addCraftOutput(ctx, agent.Name, result.OutputItem); err != nil {
		return domain.ActionResult{}, err
	}

	event := domain.ItemCraftedEvent{
		BaseEvent: domain.BaseEvent{Tick: tick, Timestamp: now()},
		Agent:     agent.Name, Inputs: []string{toolType, targetType}, Output: result.OutputItem.ItemType,
	}
	return domain.OkResult(
		fmt.Sprintf("Created %s. %s", result.OutputItem.ItemType, result.Message),
		[]domain.DomainEvent{event},
		map[string]any{
			"output": result.OutputItem.ItemType, "quantity": result.OutputItem.Quantity,
			"properties": result.OutputItem.Properties, "discoveries": result.Discoveries,
		},
	), nil
}

// -----------------------------------------------------------------------
// Crafting helpers
// -----------------------------------------------------------------------

// resolveItemType resolves an item reference (a stackable type name, a
// unique item ID, or a unique item's type name) to its item type.
func resolveItemType(agent domain.Agent, ref string) (string, bool) {
	if agent.Inventory.HasResource(ref, 1) {
		return ref, true
	}
	if item, ok := agent.Inventory.GetItem(domain.ObjectId(ref)); ok {
		return item.ItemType, true
	}
	for _, it := range agent.Inventory.Items {
		if it.ItemType == ref {
			return ref, true
		}
	}
	return "", false
}

func hasItemForCrafting(agent domain.Agent, ref, itemType string) bool {
	if agent.Inventory.HasResource(itemType, 1) {
		return true
	}
	if _, ok := agent.Inventory.GetItem(domain.ObjectId(ref)); ok {
		return true
	}
	for _, it := range agent.Inventory.Items {
		if it.ItemType == itemType {
			return true
		}
	}
	return false
}

func getUniqueItem(agent domain.Agent, ref string) (domain.Item, bool) {
	if item, ok := agent.Inventory.GetItem(domain.ObjectId(ref)); ok {
		return item, true
	}
	for _, it := range agent.Inventory.Items {
		if it.ItemType == ref {
			return it, true
		}
	}
	return domain.Item{}, false
}

// consumeItem removes one unit of itemType from agentName's inventory for
// crafting, preferring the resource stack, then the item by ref ID, then
// by type. Reloads agent state first so sequential consumption within one
// combine/apply call sees prior removals.
func (e *Engine) consumeItem(ctx context.Context, agentName domain.AgentName, ref, itemType string) error {
	agent, err := e.agents.GetAgent(ctx, agentName)
	if err != nil {
		return err
	}

	if agent.Inventory.HasResource(itemType, 1) {
		_, err := e.agents.RemoveResource(ctx, agentName, itemType, 1)
		return err
	}
	if item, ok := agent.Inventory.GetItem(domain.ObjectId(ref)); ok {
		_, err := e.agents.RemoveItem(ctx, agentName, item.ID)
		return err
	}
	for _, it := range agent.Inventory.Items {
		if it.ItemType == itemType {
			_, err := e.agents.RemoveItem(ctx, agentName, it.ID)
			return err
		}
	}
	return nil
}

func (e *Engine) addCraftOutput(ctx context.Context, agentName domain.AgentName, output domain.Item) error {
	if output.IsStackable() {
		_, err := e.agents.AddResource(ctx, agentName, output.ItemType, output.Quantity)
		return err
	}
	_, err := e.agents.AddItem(ctx, agentName, output)
	return err
}
