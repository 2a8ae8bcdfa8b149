package domain

import "fmt"

// InsufficientError reports a failed attempt to remove more of a resource
// or item than an inventory holds.
type InsufficientError struct {
	ItemType string
	Have     int
	Want     int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s: have %d, need %d", e.ItemType, e.Have, e.Want)
}

// NotOwnedError reports that a unique item is not present in an inventory.
type NotOwnedError struct {
	ItemID ObjectId
}

func (e *NotOwnedError) Error() string {
	return fmt.Sprintf("item %s not in inventory", e.ItemID)
}

// InventoryStack is one resource type's quantity.
type InventoryStack struct {
	ItemType string
	Quantity int
}

// Inventory is the hybrid container: ordered resource stacks plus unique
// items. Every mutation returns a new Inventory value.
type Inventory struct {
	Stacks []InventoryStack
	Items  []Item
}

func (inv Inventory) findStack(itemType string) int {
	for i, s := range inv.Stacks {
		if s.ItemType == itemType {
			return i
		}
	}
	return -1
}

// ResourceQuantity returns how much of a stackable resource is held.
func (inv Inventory) ResourceQuantity(itemType string) int {
	if idx := inv.findStack(itemType); idx >= 0 {
		return inv.Stacks[idx].Quantity
	}
	return 0
}

// HasResource reports whether at least quantity of itemType is held.
func (inv Inventory) HasResource(itemType string, quantity int) bool {
	return inv.ResourceQuantity(itemType) >= quantity
}

// AddResource returns a new inventory with quantity more of itemType.
func (inv Inventory) AddResource(itemType string, quantity int) Inventory {
	next := Inventory{Stacks: append([]InventoryStack(nil), inv.Stacks...), Items: inv.Items}
	if idx := next.findStack(itemType); idx >= 0 {
		next.Stacks[idx].Quantity += quantity
	} else {
		next.Stacks = append(next.Stacks, InventoryStack{ItemType: itemType, Quantity: quantity})
	}
	return next
}

// RemoveResource returns a new inventory with quantity less of itemType.
// Returns an *InsufficientError if the stack doesn't hold enough.
func (inv Inventory) RemoveResource(itemType string, quantity int) (Inventory, error) {
	idx := inv.findStack(itemType)
	if idx < 0 {
		return inv, &InsufficientError{ItemType: itemType, Have: 0, Want: quantity}
	}
	stack := inv.Stacks[idx]
	if stack.Quantity < quantity {
		return inv, &InsufficientError{ItemType: itemType, Have: stack.Quantity, Want: quantity}
	}
	next := Inventory{Stacks: append([]InventoryStack(nil), inv.Stacks...), Items: inv.Items}
	if stack.Quantity == quantity {
		next.Stacks = append(next.Stacks[:idx], next.Stacks[idx+1:]...)
	} else {
		next.Stacks[idx].Quantity = stack.Quantity - quantity
	}
	return next, nil
}

// GetItem returns a unique item by ID, if present.
func (inv Inventory) GetItem(id ObjectId) (Item, bool) {
	for _, it := range inv.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// HasItem reports whether a unique item is held.
func (inv Inventory) HasItem(id ObjectId) bool {
	_, ok := inv.GetItem(id)
	return ok
}

// AddItem returns a new inventory with item added: stackable items merge
// into a stack, unique items append to the unique-item list.
func (inv Inventory) AddItem(item Item) Inventory {
	if item.IsStackable() {
		return inv.AddResource(item.ItemType, item.Quantity)
	}
	next := Inventory{Stacks: inv.Stacks, Items: append(append([]Item(nil), inv.Items...), item)}
	return next
}

// RemoveItem returns a new inventory with the unique item removed.
// Returns a *NotOwnedError if it isn't present.
func (inv Inventory) RemoveItem(id ObjectId) (Inventory, error) {
	found := false
	items := make([]Item, 0, len(inv.Items))
	for _, it := range inv.Items {
		if it.ID == id {
			found = true
			continue
		}
		items = append(items, it)
	}
	if !found {
		return inv, &NotOwnedError{ItemID: id}
	}
	return Inventory{Stacks: inv.Stacks, Items: items}, nil
}

// IsEmpty reports whether the inventory holds nothing at all.
func (inv Inventory) IsEmpty() bool {
	return len(inv.Stacks) == 0 && len(inv.Items) == 0
}

// AllItems returns every stack (as a stackable Item) and unique item.
func (inv Inventory) AllItems() []Item {
	out := make([]Item, 0, len(inv.Stacks)+len(inv.Items))
	for _, s := range inv.Stacks {
		out = append(out, StackableItem(s.ItemType, s.Quantity))
	}
	out = append(out, inv.Items...)
	return out
}
