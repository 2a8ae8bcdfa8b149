// Package worldsvc is a thin service layer over the world, cell and
// object repositories: no in-memory caching, every call delegates
// straight to storage. Grounded on
// original_source/hearth/services/world_service.py, with the
// service-struct-over-repository shape borrowed from tarsy's
// pkg/services (e.g. ChatService wrapping an ent client).
package worldsvc

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

// WorldService is the grid-state façade every action handler and phase
// reads and writes through.
type WorldService struct {
	storage *storage.Storage
}

func NewWorldService(st *storage.Storage) *WorldService {
	return &WorldService{storage: st}
}

func (s *WorldService) GetCell(ctx context.Context, pos domain.Position) (domain.Cell, error) {
	return s.storage.World.GetCell(ctx, pos)
}

func (s *WorldService) GetCellsInRect(ctx context.Context, rect domain.Rect) ([]domain.Cell, error) {
	_, _, w, h, err := s.storage.World.GetWorldState(ctx)
	if err != nil {
		return nil, err
	}
	return s.storage.World.GetCellsInRect(ctx, rect, w, h)
}

func (s *WorldService) GetObjectsAt(ctx context.Context, pos domain.Position) ([]domain.WorldObject, error) {
	return s.storage.Objects.GetObjectsAt(ctx, pos)
}

func (s *WorldService) GetObjectsInRect(ctx context.Context, rect domain.Rect) ([]domain.WorldObject, error) {
	return s.storage.Objects.GetObjectsInRect(ctx, rect)
}

// WorldDimensions returns (width, height).
func (s *WorldService) WorldDimensions(ctx context.Context) (int, int, error) {
	_, _, w, h, err := s.storage.World.GetWorldState(ctx)
	return w, h, err
}

func (s *WorldService) CurrentTick(ctx context.Context) (int, error) {
	tick, _, _, _, err := s.storage.World.GetWorldState(ctx)
	return tick, err
}

func (s *WorldService) CurrentWeather(ctx context.Context) (domain.Weather, error) {
	_, weather, _, _, err := s.storage.World.GetWorldState(ctx)
	return weather, err
}

func (s *WorldService) SetTick(ctx context.Context, tick int) error {
	return s.storage.World.SetTick(ctx, tick)
}

func (s *WorldService) SetWeather(ctx context.Context, w domain.Weather) error {
	return s.storage.World.SetWeather(ctx, w)
}

// -----------------------------------------------------------------------
// Terrain properties (pure lookups)
// -----------------------------------------------------------------------

func (s *WorldService) IsTerrainPassable(t domain.Terrain) bool { return t.Passable() }
func (s *WorldService) TerrainSymbol(t domain.Terrain) string   { return t.Symbol() }
func (s *WorldService) GatherResource(t domain.Terrain) (string, bool) { return t.GatherResource() }

// -----------------------------------------------------------------------
// Object management
// -----------------------------------------------------------------------

// PlaceObject validates bounds and saves obj.
func (s *WorldService) PlaceObject(ctx context.Context, obj domain.WorldObject) error {
	w, h, err := s.WorldDimensions(ctx)
	if err != nil {
		return err
	}
	if !obj.Position.InBounds(w, h) {
		return apperr.NewValidationError("position", fmt.Sprintf("%s is out of bounds", obj.Position))
	}
	return s.storage.Objects.SaveObject(ctx, obj)
}

func (s *WorldService) RemoveObject(ctx context.Context, id domain.ObjectId) error {
	if _, err := s.storage.Objects.GetObject(ctx, id); err != nil {
		return err
	}
	return s.storage.Objects.RemoveObject(ctx, id)
}

// MoveObject relocates an existing object to newPos.
func (s *WorldService) MoveObject(ctx context.Context, id domain.ObjectId, newPos domain.Position) error {
	obj, err := s.storage.Objects.GetObject(ctx, id)
	if err != nil {
		return err
	}
	w, h, err := s.WorldDimensions(ctx)
	if err != nil {
		return err
	}
	if !newPos.InBounds(w, h) {
		return apperr.NewValidationError("position", fmt.Sprintf("%s is out of bounds", newPos))
	}
	obj.Position = newPos
	return s.storage.Objects.SaveObject(ctx, obj)
}

// -----------------------------------------------------------------------
// Wall / door placement (auto-symmetric)
// -----------------------------------------------------------------------

type cellEdgeOp func(domain.Cell, domain.Direction) domain.Cell

func (s *WorldService) editEdge(ctx context.Context, pos domain.Position, dir domain.Direction, op, oppositeOp cellEdgeOp) error {
	_, _, w, h, err := s.storage.World.GetWorldState(ctx)
	if err != nil {
		return err
	}
	if !pos.InBounds(w, h) {
		return apperr.NewValidationError("position", fmt.Sprintf("%s is out of bounds", pos))
	}

	adjacent := pos.Add(dir)
	if !adjacent.InBounds(w, h) {
		cell, err := s.storage.World.GetCell(ctx, pos)
		if err != nil {
			return err
		}
		return s.storage.World.SetCell(ctx, op(cell, dir))
	}

	return s.storage.Client.Transaction(ctx, func(ctx context.Context) error {
		cell, err := s.storage.World.GetCell(ctx, pos)
		if err != nil {
			return err
		}
		adjCell, err := s.storage.World.GetCell(ctx, adjacent)
		if err != nil {
			return err
		}
		if err := s.storage.World.SetCell(ctx, op(cell, dir)); err != nil {
			return err
		}
		return s.storage.World.SetCell(ctx, oppositeOp(adjCell, dir.Opposite()))
	})
}

func (s *WorldService) PlaceWall(ctx context.Context, pos domain.Position, dir domain.Direction) error {
	return s.editEdge(ctx, pos, dir,
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithWall(d) },
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithWall(d) })
}

func (s *WorldService) RemoveWall(ctx context.Context, pos domain.Position, dir domain.Direction) error {
	return s.editEdge(ctx, pos, dir,
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithoutWall(d) },
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithoutWall(d) })
}

func (s *WorldService) PlaceDoor(ctx context.Context, pos domain.Position, dir domain.Direction) error {
	return s.editEdge(ctx, pos, dir,
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithDoor(d) },
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithDoor(d) })
}

func (s *WorldService) RemoveDoor(ctx context.Context, pos domain.Position, dir domain.Direction) error {
	return s.editEdge(ctx, pos, dir,
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithoutDoor(d) },
		func(c domain.Cell, d domain.Direction) domain.Cell { return c.WithoutDoor(d) })
}

// -----------------------------------------------------------------------
// Named places
// -----------------------------------------------------------------------

func (s *WorldService) NamePlace(ctx context.Context, name string, pos domain.Position) error {
	w, h, err := s.WorldDimensions(ctx)
	if err != nil {
		return err
	}
	if !pos.InBounds(w, h) {
		return apperr.NewValidationError("position", fmt.Sprintf("%s is out of bounds", pos))
	}
	return s.storage.World.SetNamedPlace(ctx, name, pos)
}

func (s *WorldService) GetPlacePosition(ctx context.Context, name string) (domain.Position, error) {
	return s.storage.World.GetNamedPlace(ctx, name)
}

func (s *WorldService) RemovePlaceName(ctx context.Context, name string) error {
	return s.storage.World.RemoveNamedPlace(ctx, name)
}

// -----------------------------------------------------------------------
// Movement utilities
// -----------------------------------------------------------------------

func (s *WorldService) IsPositionValid(ctx context.Context, pos domain.Position) (bool, error) {
	w, h, err := s.WorldDimensions(ctx)
	if err != nil {
		return false, err
	}
	return pos.InBounds(w, h), nil
}

// IsPositionPassable checks bounds, terrain and any impassable object
// occupying pos.
func (s *WorldService) IsPositionPassable(ctx context.Context, pos domain.Position) (bool, error) {
	w, h, err := s.WorldDimensions(ctx)
	if err != nil {
		return false, err
	}
	if !pos.InBounds(w, h) {
		return false, nil
	}
	cell, err := s.storage.World.GetCell(ctx, pos)
	if err != nil {
		return false, err
	}
	if !cell.Terrain.Passable() {
		return false, nil
	}
	objects, err := s.storage.Objects.GetObjectsAt(ctx, pos)
	if err != nil {
		return false, err
	}
	for _, o := range objects {
		if !o.Passable {
			return false, nil
		}
	}
	return true, nil
}

// CanMove reports whether an agent may step from fromPos in direction
// dir: bounds, destination passability, and wall/door symmetry on both
// sides of the shared edge.
func (s *WorldService) CanMove(ctx context.Context, fromPos domain.Position, dir domain.Direction) (bool, error) {
	toPos := fromPos.Add(dir)

	valid, err := s.IsPositionValid(ctx, toPos)
	if err != nil || !valid {
		return false, err
	}
	passable, err := s.IsPositionPassable(ctx, toPos)
	if err != nil || !passable {
		return false, err
	}

	fromCell, err := s.storage.World.GetCell(ctx, fromPos)
	if err != nil {
		return false, err
	}
	toCell, err := s.storage.World.GetCell(ctx, toPos)
	if err != nil {
		return false, err
	}

	if !fromCell.CanExit(dir) {
		return false, nil
	}
	if !toCell.CanExit(dir.Opposite()) {
		return false, nil
	}
	return true, nil
}

// -----------------------------------------------------------------------
// Structure detection (flood-fill)
// -----------------------------------------------------------------------

const defaultMaxStructureCells = 1000

// floodFillEnclosed runs a DFS from start following only traversable
// edges (no wall, or wall with a door). Reaching the world boundary
// without crossing a wall means the area is open, not enclosed; a search
// that exhausts first returns every visited cell as interior. Returns
// (nil, false) when not enclosed (including when the exploration budget
// is exceeded).
func (s *WorldService) floodFillEnclosed(ctx context.Context, start domain.Position, maxCells int) (map[domain.Position]bool, bool, error) {
	_, _, w, h, err := s.storage.World.GetWorldState(ctx)
	if err != nil {
		return nil, false, err
	}
	if !start.InBounds(w, h) {
		return nil, false, nil
	}

	visited := map[domain.Position]bool{}
	stack := []domain.Position{start}

	for len(stack) > 0 {
		if len(visited) > maxCells {
			return nil, false, nil
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true

		currentCell, err := s.storage.World.GetCell(ctx, current)
		if err != nil {
			return nil, false, err
		}

		for _, dir := range domain.AllDirections {
			if !currentCell.CanExit(dir) {
				continue
			}
			neighbor := current.Add(dir)
			if !neighbor.InBounds(w, h) {
				return nil, false, nil
			}
			neighborCell, err := s.storage.World.GetCell(ctx, neighbor)
			if err != nil {
				return nil, false, err
			}
			if neighborCell.CanExit(dir.Opposite()) && !visited[neighbor] {
				stack = append(stack, neighbor)
			}
		}
	}

	return visited, true, nil
}

// DetectStructureAt flood-fills from pos and returns the enclosing
// structure if one exists.
func (s *WorldService) DetectStructureAt(ctx context.Context, pos domain.Position, createdBy domain.AgentName, maxCells int) (domain.Structure, bool, error) {
	if maxCells <= 0 {
		maxCells = defaultMaxStructureCells
	}
	interior, enclosed, err := s.floodFillEnclosed(ctx, pos, maxCells)
	if err != nil || !enclosed {
		return domain.Structure{}, false, err
	}
	return domain.NewStructure(interior, createdBy), true, nil
}

// DetectStructuresInRect scans rect and flood-fills from every
// not-yet-visited cell, returning every enclosed structure found.
func (s *WorldService) DetectStructuresInRect(ctx context.Context, rect domain.Rect, maxCellsPerStructure int) ([]domain.Structure, error) {
	if maxCellsPerStructure <= 0 {
		maxCellsPerStructure = defaultMaxStructureCells
	}
	_, _, w, h, err := s.storage.World.GetWorldState(ctx)
	if err != nil {
		return nil, err
	}
	clamped := rect.Clamp(w, h)

	var structures []domain.Structure
	visited := map[domain.Position]bool{}
	for _, pos := range clamped.Positions() {
		if visited[pos] {
			continue
		}
		interior, enclosed, err := s.floodFillEnclosed(ctx, pos, maxCellsPerStructure)
		if err != nil {
			return nil, err
		}
		if enclosed {
			structures = append(structures, domain.NewStructure(interior, ""))
			for p := range interior {
				visited[p] = true
			}
		} else {
			visited[pos] = true
		}
	}
	return structures, nil
}

func (s *WorldService) SaveStructure(ctx context.Context, st domain.Structure) error {
	return s.storage.World.SaveStructure(ctx, st)
}

func (s *WorldService) DeleteStructure(ctx context.Context, id domain.ObjectId) error {
	return s.storage.World.DeleteStructure(ctx, id)
}

func (s *WorldService) GetStructure(ctx context.Context, id domain.ObjectId) (domain.Structure, error) {
	return s.storage.World.GetStructure(ctx, id)
}

// GetStructureAt returns the structure containing pos, if the cell
// carries a structure_id.
func (s *WorldService) GetStructureAt(ctx context.Context, pos domain.Position) (domain.Structure, bool, error) {
	cell, err := s.storage.World.GetCell(ctx, pos)
	if err != nil {
		return domain.Structure{}, false, err
	}
	if cell.StructureID == "" {
		return domain.Structure{}, false, nil
	}
	st, err := s.storage.World.GetStructure(ctx, cell.StructureID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.Structure{}, false, nil
		}
		return domain.Structure{}, false, err
	}
	return st, true, nil
}
