package domain

// Cell is a single grid square. Walls and doors are properties of the
// cell's edges, not separate entities; a door implies a wall on the same
// edge. The zero value (grass, no walls, no doors, no place/structure) is
// the default cell and is never persisted.
type Cell struct {
	Position    Position
	Terrain     Terrain
	Walls       map[Direction]bool
	Doors       map[Direction]bool
	PlaceName   string // empty if unnamed
	StructureID ObjectId
}

// DefaultCell returns the implicit grass cell at pos.
func DefaultCell(pos Position) Cell {
	return Cell{Position: pos, Terrain: Grass}
}

// IsDefault reports whether this cell equals the default cell for its
// position; default cells are never persisted.
func (c Cell) IsDefault() bool {
	return c.Terrain == Grass && len(c.Walls) == 0 && len(c.Doors) == 0 &&
		c.PlaceName == "" && c.StructureID == ""
}

func (c Cell) HasWall(d Direction) bool { return c.Walls[d] }
func (c Cell) HasDoor(d Direction) bool { return c.Doors[d] }

// CanExit reports whether an agent may leave this cell across the given
// edge: true if there is no wall, or if the wall has a door.
func (c Cell) CanExit(d Direction) bool {
	if !c.Walls[d] {
		return true
	}
	return c.Doors[d]
}

func cloneDirSet(m map[Direction]bool) map[Direction]bool {
	out := make(map[Direction]bool, len(m))
	for d, v := range m {
		if v {
			out[d] = true
		}
	}
	return out
}

// WithWall returns a new cell with a wall added on the given edge.
func (c Cell) WithWall(d Direction) Cell {
	next := c
	next.Walls = cloneDirSet(c.Walls)
	next.Walls[d] = true
	next.Doors = cloneDirSet(c.Doors)
	return next
}

// WithoutWall returns a new cell with the wall (and any door on it)
// removed from the given edge.
func (c Cell) WithoutWall(d Direction) Cell {
	next := c
	next.Walls = cloneDirSet(c.Walls)
	delete(next.Walls, d)
	next.Doors = cloneDirSet(c.Doors)
	delete(next.Doors, d)
	return next
}

// WithDoor returns a new cell with a door added on the given edge,
// adding a wall first if one is not already present.
func (c Cell) WithDoor(d Direction) Cell {
	next := c
	next.Walls = cloneDirSet(c.Walls)
	next.Walls[d] = true
	next.Doors = cloneDirSet(c.Doors)
	next.Doors[d] = true
	return next
}

// WithoutDoor returns a new cell with the door removed; the wall remains.
func (c Cell) WithoutDoor(d Direction) Cell {
	next := c
	next.Doors = cloneDirSet(c.Doors)
	delete(next.Doors, d)
	return next
}

// WithTerrain returns a new cell with different terrain.
func (c Cell) WithTerrain(t Terrain) Cell {
	next := c
	next.Terrain = t
	return next
}

// WithPlaceName returns a new cell with the place name set or cleared.
func (c Cell) WithPlaceName(name string) Cell {
	next := c
	next.PlaceName = name
	return next
}

// WithStructureID returns a new cell associated with a structure.
func (c Cell) WithStructureID(id ObjectId) Cell {
	next := c
	next.StructureID = id
	return next
}

// Equal reports structural equality between two cells (used to detect
// whether a write would leave the default, sparse-storage-eligible cell).
func (c Cell) Equal(o Cell) bool {
	if c.Position != o.Position || c.Terrain != o.Terrain ||
		c.PlaceName != o.PlaceName || c.StructureID != o.StructureID {
		return false
	}
	return dirSetEqual(c.Walls, o.Walls) && dirSetEqual(c.Doors, o.Doors)
}

func dirSetEqual(a, b map[Direction]bool) bool {
	na, nb := 0, 0
	for _, v := range a {
		if v {
			na++
		}
	}
	for _, v := range b {
		if v {
			nb++
		}
	}
	if na != nb {
		return false
	}
	for d, v := range a {
		if v && !b[d] {
			return false
		}
	}
	return true
}

// Grid is a sparse grid: only non-default cells are stored. Reads of a
// position not present in Cells synthesize a default grass cell.
type Grid struct {
	Width, Height int
	Cells         map[Position]Cell
}

// NewGrid returns an empty grid of the given dimensions.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Cells: make(map[Position]Cell)}
}

// GetCell returns the stored cell at pos, or a fresh default if absent.
func (g Grid) GetCell(pos Position) Cell {
	if c, ok := g.Cells[pos]; ok {
		return c
	}
	return DefaultCell(pos)
}

// SetCell returns a new grid with the cell set. A cell equal to the
// default for its position is removed from storage instead of stored.
func (g Grid) SetCell(c Cell) Grid {
	next := Grid{Width: g.Width, Height: g.Height, Cells: make(map[Position]Cell, len(g.Cells))}
	for p, existing := range g.Cells {
		next.Cells[p] = existing
	}
	if c.IsDefault() {
		delete(next.Cells, c.Position)
	} else {
		next.Cells[c.Position] = c
	}
	return next
}

// IsValidPosition reports whether pos lies within grid bounds.
func (g Grid) IsValidPosition(pos Position) bool {
	return pos.InBounds(g.Width, g.Height)
}

// IsPassable reports whether pos is in bounds and has passable terrain.
func (g Grid) IsPassable(pos Position) bool {
	if !g.IsValidPosition(pos) {
		return false
	}
	return g.GetCell(pos).Terrain.Passable()
}

// CanMove reports whether an agent may step from fromPos across direction
// d: destination must be in bounds with passable terrain, and neither
// cell's edge may be walled without a door.
func (g Grid) CanMove(fromPos Position, d Direction) bool {
	toPos := fromPos.Add(d)
	if !g.IsValidPosition(toPos) {
		return false
	}
	if !g.IsPassable(toPos) {
		return false
	}
	fromCell := g.GetCell(fromPos)
	toCell := g.GetCell(toPos)
	if !fromCell.CanExit(d) {
		return false
	}
	if !toCell.CanExit(d.Opposite()) {
		return false
	}
	return true
}

// CellsInRect returns a cell (stored or default) for every position in
// rect, clamped to grid bounds.
func (g Grid) CellsInRect(rect Rect) []Cell {
	clamped := rect.Clamp(g.Width, g.Height)
	positions := clamped.Positions()
	out := make([]Cell, 0, len(positions))
	for _, p := range positions {
		out = append(out, g.GetCell(p))
	}
	return out
}
