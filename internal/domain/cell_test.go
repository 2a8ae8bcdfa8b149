package domain

import "testing"

func TestRemovingWallClearsItsDoor(t *testing.T) {
	c := DefaultCell(Position{X: 1, Y: 1}).WithWall(North).WithDoor(North)
	if !c.HasWall(North) || !c.HasDoor(North) {
		t.Fatalf("expected wall and door on North")
	}

	c = c.WithoutWall(North)
	if c.HasWall(North) || c.HasDoor(North) {
		t.Fatalf("removing a wall must clear any door on the same side")
	}
}

func TestCanExitRequiresDoorThroughAWall(t *testing.T) {
	c := DefaultCell(Position{X: 0, Y: 0})
	if !c.CanExit(East) {
		t.Fatalf("a cell with no wall can be exited in any direction")
	}

	c = c.WithWall(East)
	if c.CanExit(East) {
		t.Fatalf("a walled edge without a door cannot be exited")
	}

	c = c.WithDoor(East)
	if !c.CanExit(East) {
		t.Fatalf("a door on the wall reopens the exit")
	}
}

func TestCellIsDefaultOnlyWhenUntouched(t *testing.T) {
	pos := Position{X: 2, Y: 2}
	if !DefaultCell(pos).IsDefault() {
		t.Fatalf("a freshly constructed default cell must report itself as default")
	}
	if DefaultCell(pos).WithWall(North).IsDefault() {
		t.Fatalf("a cell with a wall is not default")
	}
	if DefaultCell(pos).WithTerrain(Forest).IsDefault() {
		t.Fatalf("a cell with non-grass terrain is not default")
	}
}

func TestGridSetCellStoresOnlyNonDefaultCells(t *testing.T) {
	g := NewGrid(10, 10)
	pos := Position{X: 3, Y: 3}

	g = g.SetCell(DefaultCell(pos).WithTerrain(Forest))
	if _, stored := g.Cells[pos]; !stored {
		t.Fatalf("a non-default cell must be stored")
	}

	g = g.SetCell(DefaultCell(pos))
	if _, stored := g.Cells[pos]; stored {
		t.Fatalf("writing the default cell back must remove its row")
	}
	if got := g.GetCell(pos); got.Terrain != Grass {
		t.Fatalf("reads of an absent cell must synthesize the default")
	}
}

func TestGridCanMoveRequiresSymmetricPassage(t *testing.T) {
	g := NewGrid(10, 10)
	from := Position{X: 5, Y: 5}

	if !g.CanMove(from, East) {
		t.Fatalf("an unobstructed move must be allowed")
	}

	g = g.SetCell(g.GetCell(from).WithWall(East))
	if g.CanMove(from, East) {
		t.Fatalf("a wall on the exit side blocks the move")
	}

	corner := Position{X: 9, Y: 9}
	if g.CanMove(corner, East) {
		t.Fatalf("moving out of bounds must never be allowed")
	}
}
