package domain

import (
	"errors"
	"testing"
)

func TestAddAndRemoveResourceRoundTrips(t *testing.T) {
	inv := Inventory{}
	inv = inv.AddResource("wood", 3)
	if !inv.HasResource("wood", 3) {
		t.Fatalf("expected 3 wood after adding")
	}

	inv, err := inv.RemoveResource("wood", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.HasResource("wood", 1) {
		t.Fatalf("removing the entire stack must drop it, not leave a zero-quantity row")
	}
	if !inv.IsEmpty() {
		t.Fatalf("expected an empty inventory")
	}
}

func TestRemoveResourceFailsWhenInsufficient(t *testing.T) {
	inv := Inventory{}.AddResource("stone", 1)
	_, err := inv.RemoveResource("stone", 2)
	if err == nil {
		t.Fatalf("expected an error removing more than is held")
	}
	var insufficient *InsufficientError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected an *InsufficientError, got %T", err)
	}
}

func TestUniqueItemLifecycle(t *testing.T) {
	item := UniqueItem("axe", []string{"sharp"})
	inv := Inventory{}.AddItem(item)

	if !inv.HasItem(item.ID) {
		t.Fatalf("expected the unique item to be held")
	}

	inv, err := inv.RemoveItem(item.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.HasItem(item.ID) {
		t.Fatalf("item must be gone after removal")
	}

	_, err = inv.RemoveItem(item.ID)
	if err == nil {
		t.Fatalf("removing an item twice must fail")
	}
}

