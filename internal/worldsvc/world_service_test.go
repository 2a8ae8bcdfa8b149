package worldsvc

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestWorld(t *testing.T, width, height int) *WorldService {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), width, height, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewWorldService(st)
}

// Wall removal clears the matching door and updates the adjacent cell's
// symmetric edge, iff that neighbor is in bounds.
func TestRemoveWallClearsDoorAndIsSymmetric(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, 10, 10)

	pos := domain.Position{X: 5, Y: 5}
	require.NoError(t, w.PlaceWall(ctx, pos, domain.North))
	require.NoError(t, w.PlaceDoor(ctx, pos, domain.North))

	cell, err := w.GetCell(ctx, pos)
	require.NoError(t, err)
	require.True(t, cell.HasWall(domain.North))
	require.True(t, cell.HasDoor(domain.North))

	neighbor := pos.Add(domain.North)
	neighborCell, err := w.GetCell(ctx, neighbor)
	require.NoError(t, err)
	require.True(t, neighborCell.HasWall(domain.South), "placing an edge updates both sides")

	require.NoError(t, w.RemoveWall(ctx, pos, domain.North))

	cell, err = w.GetCell(ctx, pos)
	require.NoError(t, err)
	require.False(t, cell.HasWall(domain.North))
	require.False(t, cell.HasDoor(domain.North), "removing a wall removes any door on the same side")

	neighborCell, err = w.GetCell(ctx, neighbor)
	require.NoError(t, err)
	require.False(t, neighborCell.HasWall(domain.South), "the adjacent cell's symmetric wall is cleared too")
}

// At the world boundary there is no adjacent cell to update, but the edit
// on the in-bounds cell itself must still succeed.
func TestEditEdgeAtBoundaryOnlyTouchesInBoundsCell(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, 10, 10)

	edge := domain.Position{X: 0, Y: 0}
	require.NoError(t, w.PlaceWall(ctx, edge, domain.South))

	cell, err := w.GetCell(ctx, edge)
	require.NoError(t, err)
	require.True(t, cell.HasWall(domain.South))
}

// A wall blocks movement through the side it's placed on, while other
// directions from the same cell remain passable.
func TestCanMoveBlockedByWall(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, 10, 10)

	pos := domain.Position{X: 5, Y: 5}
	require.NoError(t, w.PlaceWall(ctx, pos, domain.North))

	ok, err := w.CanMove(ctx, pos, domain.North)
	require.NoError(t, err)
	require.False(t, ok, "a wall on the exit side blocks movement")

	ok, err = w.CanMove(ctx, pos, domain.East)
	require.NoError(t, err)
	require.True(t, ok, "an unobstructed direction remains passable")
}

// Four walls enclosing a 2x2 area form a detectable structure whose
// interior is exactly those four cells; adding a door on an outer edge
// breaks the enclosure.
func TestDetectStructureAtEnclosedRoom(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, 20, 20)

	// Room occupies (5,5)-(6,6); wall every outer edge.
	corners := []domain.Position{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}}
	type wallSpec struct {
		pos domain.Position
		dir domain.Direction
	}
	outerWalls := []wallSpec{
		{domain.Position{X: 5, Y: 5}, domain.West}, {domain.Position{X: 5, Y: 6}, domain.West},
		{domain.Position{X: 6, Y: 5}, domain.East}, {domain.Position{X: 6, Y: 6}, domain.East},
		{domain.Position{X: 5, Y: 5}, domain.South}, {domain.Position{X: 6, Y: 5}, domain.South},
		{domain.Position{X: 5, Y: 6}, domain.North}, {domain.Position{X: 6, Y: 6}, domain.North},
	}
	for _, ws := range outerWalls {
		require.NoError(t, w.PlaceWall(ctx, ws.pos, ws.dir))
	}

	structure, ok, err := w.DetectStructureAt(ctx, domain.Position{X: 5, Y: 5}, "", 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, structure.Size())
	for _, c := range corners {
		require.True(t, structure.Contains(c), "interior must include %s", c)
	}

	// A door on an outer edge opens the room to the rest of the world.
	require.NoError(t, w.PlaceDoor(ctx, domain.Position{X: 5, Y: 5}, domain.West))
	_, ok, err = w.DetectStructureAt(ctx, domain.Position{X: 5, Y: 5}, "", 0)
	require.NoError(t, err)
	require.False(t, ok, "a door on an outer edge opens the enclosure")
}

// A sparse cell equal to the default grass cell is not persisted; reads
// still return the default.
func TestSparseCellStorageReturnsDefaultWithoutRow(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, 10, 10)

	pos := domain.Position{X: 3, Y: 3}
	cell, err := w.GetCell(ctx, pos)
	require.NoError(t, err)
	require.Equal(t, domain.Grass, cell.Terrain)
	require.True(t, cell.IsDefault())
}
