package domain

import "testing"

func TestEffectiveVisionRadiusReducesOnlyAtNight(t *testing.T) {
	if got := EffectiveVisionRadius(10, "afternoon"); got != 10 {
		t.Fatalf("daytime vision must be unreduced, got %d", got)
	}
	if got := EffectiveVisionRadius(10, "night"); got != 6 {
		t.Fatalf("expected night vision 6, got %d", got)
	}
	if got := EffectiveVisionRadius(1, "night"); got != 1 {
		t.Fatalf("night vision must never drop below 1, got %d", got)
	}
}

func TestTimeOfDayForTickCyclesThroughPeriods(t *testing.T) {
	periodLength := TicksPerDay / len(TimeOfDayPeriods)
	for i, want := range TimeOfDayPeriods {
		got := TimeOfDayForTick(i * periodLength)
		if got != want {
			t.Fatalf("tick %d: expected %q, got %q", i*periodLength, want, got)
		}
	}
	// The cycle must repeat identically on the next day.
	if got := TimeOfDayForTick(TicksPerDay); got != TimeOfDayPeriods[0] {
		t.Fatalf("expected the cycle to repeat, got %q", got)
	}
}

func TestGatherResourcePerTerrain(t *testing.T) {
	if r, ok := Forest.GatherResource(); !ok || r != "wood" {
		t.Fatalf("forest must yield wood, got %q ok=%v", r, ok)
	}
	if _, ok := Grass.GatherResource(); ok {
		t.Fatalf("grass has nothing to gather")
	}
	if Water.Passable() {
		t.Fatalf("water must not be passable")
	}
}

func TestStructureContainsAndSize(t *testing.T) {
	s := NewStructure(map[Position]bool{{X: 0, Y: 0}: true, {X: 1, Y: 0}: true}, "elio")
	if s.Size() != 2 {
		t.Fatalf("expected size 2, got %d", s.Size())
	}
	if !s.Contains(Position{X: 1, Y: 0}) {
		t.Fatalf("expected the structure to contain (1,0)")
	}
	if s.Contains(Position{X: 5, Y: 5}) {
		t.Fatalf("the structure must not contain an unrelated cell")
	}
}
