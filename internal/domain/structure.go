package domain

// Structure is an enclosed area detected by flood-fill from walls and
// doors. Interior cells may be marked private for conversation/visibility
// boundaries.
type Structure struct {
	ID            ObjectId
	Name          string // empty if unnamed
	InteriorCells map[Position]bool
	CreatedBy     AgentName // empty if none
	IsPrivate     bool
}

// NewStructure creates a structure with a freshly generated ID.
func NewStructure(interiorCells map[Position]bool, createdBy AgentName) Structure {
	cells := make(map[Position]bool, len(interiorCells))
	for p, v := range interiorCells {
		if v {
			cells[p] = true
		}
	}
	return Structure{ID: NewObjectID(), InteriorCells: cells, CreatedBy: createdBy}
}

// Size is the number of interior cells.
func (s Structure) Size() int { return len(s.InteriorCells) }

// Contains reports whether pos lies inside this structure.
func (s Structure) Contains(pos Position) bool { return s.InteriorCells[pos] }

// WithName returns a new structure with the given name.
func (s Structure) WithName(name string) Structure {
	next := s
	next.Name = name
	return next
}

// WithPrivacy returns a new structure with updated privacy.
func (s Structure) WithPrivacy(private bool) Structure {
	next := s
	next.IsPrivate = private
	return next
}
