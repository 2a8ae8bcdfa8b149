package domain

import "github.com/google/uuid"

// NewObjectID generates a fresh opaque object identifier.
func NewObjectID() ObjectId {
	return ObjectId(uuid.NewString())
}

// WorldObjectType discriminates the WorldObject sum type.
type WorldObjectType int

const (
	ObjectSign WorldObjectType = iota
	ObjectPlacedItem
)

func (t WorldObjectType) String() string {
	switch t {
	case ObjectSign:
		return "sign"
	case ObjectPlacedItem:
		return "placed_item"
	default:
		return "unknown"
	}
}

// WorldObject is a persistent entity in the world: either a readable Sign
// or a PlacedItem. Common fields live on the struct directly; Kind
// discriminates which variant-specific fields (Text, or ItemType/
// Properties/Quantity) apply.
type WorldObject struct {
	ID          ObjectId
	Kind        WorldObjectType
	Position    Position
	CreatedBy   AgentName // empty if none
	CreatedTick int
	Passable    bool

	// Sign fields
	Text string

	// PlacedItem fields
	ItemType   string
	Properties []string
	Quantity   int
}

// WithText returns a new sign with updated text.
func (o WorldObject) WithText(text string) WorldObject {
	next := o
	next.Text = text
	return next
}

// WithProperties returns a new placed item with replaced properties.
func (o WorldObject) WithProperties(props ...string) WorldObject {
	next := o
	next.Properties = append([]string(nil), props...)
	return next
}

// Item is something that can sit in an inventory or be placed in the
// world: a stackable resource (ID is empty, quantity may exceed 1) or a
// unique item (ID set, quantity always 1).
type Item struct {
	ID         ObjectId // empty for stackable resources
	ItemType   string
	Properties []string
	Quantity   int
}

// StackableItem creates a stackable resource item.
func StackableItem(itemType string, quantity int) Item {
	return Item{ItemType: itemType, Quantity: quantity}
}

// UniqueItem creates a unique item with a freshly generated ID.
func UniqueItem(itemType string, properties []string) Item {
	return Item{
		ID:         NewObjectID(),
		ItemType:   itemType,
		Properties: append([]string(nil), properties...),
		Quantity:   1,
	}
}

// IsStackable reports whether this is a stackable resource (no unique ID).
func (i Item) IsStackable() bool { return i.ID == "" }

// IsUnique reports whether this is a unique item (has an ID).
func (i Item) IsUnique() bool { return i.ID != "" }

// WithQuantity returns a new item with updated quantity.
func (i Item) WithQuantity(q int) Item {
	next := i
	next.Quantity = q
	return next
}

// AddProperty returns a new item with the property added, if not present.
func (i Item) AddProperty(prop string) Item {
	for _, p := range i.Properties {
		if p == prop {
			return i
		}
	}
	next := i
	next.Properties = append(append([]string(nil), i.Properties...), prop)
	return next
}

// HasProperty reports whether the item carries the given property.
func (i Item) HasProperty(prop string) bool {
	for _, p := range i.Properties {
		if p == prop {
			return true
		}
	}
	return false
}

// ToPlacedItem converts this item into a world object at position.
func (i Item) ToPlacedItem(position Position, createdBy AgentName, createdTick int, passable bool) WorldObject {
	id := i.ID
	if id == "" {
		id = NewObjectID()
	}
	return WorldObject{
		ID:          id,
		Kind:        ObjectPlacedItem,
		Position:    position,
		CreatedBy:   createdBy,
		CreatedTick: createdTick,
		Passable:    passable,
		ItemType:    i.ItemType,
		Properties:  append([]string(nil), i.Properties...),
		Quantity:    i.Quantity,
	}
}
