package domain

// Terrain is a cell's ground cover. Grass is the implicit default; every
// other terrain must be persisted explicitly.
type Terrain int

const (
	Grass Terrain = iota
	Water
	Coast
	Sand
	Forest
	Hill
	Stone
)

// Weather is the world's current atmospheric condition.
type Weather int

const (
	Clear Weather = iota
	Cloudy
	Rainy
	Foggy
)

func (w Weather) String() string {
	switch w {
	case Clear:
		return "clear"
	case Cloudy:
		return "cloudy"
	case Rainy:
		return "rainy"
	case Foggy:
		return "foggy"
	default:
		return "unknown"
	}
}

// Next cycles weather deterministically: clear -> cloudy -> rainy -> foggy
// -> clear. Used by the host API's manual weather-change command so ticks
// stay reproducible under test.
func (w Weather) Next() Weather {
	return (w + 1) % 4
}

type terrainProperties struct {
	passable       bool
	symbol         string
	gatherResource string // empty means nothing to gather
}

var terrainDefaults = map[Terrain]terrainProperties{
	Grass:  {passable: true, symbol: ".", gatherResource: ""},
	Water:  {passable: false, symbol: "~", gatherResource: "water"},
	Coast:  {passable: true, symbol: ",", gatherResource: "clay"},
	Sand:   {passable: true, symbol: ":", gatherResource: "sand"},
	Forest: {passable: true, symbol: "T", gatherResource: "wood"},
	Hill:   {passable: true, symbol: "^", gatherResource: ""},
	Stone:  {passable: true, symbol: "#", gatherResource: "stone"},
}

func (t Terrain) String() string {
	switch t {
	case Grass:
		return "grass"
	case Water:
		return "water"
	case Coast:
		return "coast"
	case Sand:
		return "sand"
	case Forest:
		return "forest"
	case Hill:
		return "hill"
	case Stone:
		return "stone"
	default:
		return "unknown"
	}
}

// ParseTerrain parses a lowercase terrain name.
func ParseTerrain(s string) (Terrain, bool) {
	for _, t := range []Terrain{Grass, Water, Coast, Sand, Forest, Hill, Stone} {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Passable reports whether agents can walk on this terrain.
func (t Terrain) Passable() bool {
	return terrainDefaults[t].passable
}

// Symbol returns the terrain's display glyph.
func (t Terrain) Symbol() string {
	if p, ok := terrainDefaults[t]; ok {
		return p.symbol
	}
	return "?"
}

// GatherResource returns the resource type gatherable here, and whether
// one exists.
func (t Terrain) GatherResource() (string, bool) {
	p, ok := terrainDefaults[t]
	if !ok || p.gatherResource == "" {
		return "", false
	}
	return p.gatherResource, true
}

// StackableResources is the fixed set of item types that stack rather than
// occupy a unique inventory slot.
var StackableResources = map[string]bool{
	"wood":  true,
	"stone": true,
	"clay":  true,
	"grass": true,
}

// IsStackableResource reports whether itemType is one of the fixed
// gatherable/stackable resource types.
func IsStackableResource(itemType string) bool {
	return StackableResources[itemType]
}

const (
	// DefaultVisionRadius is an agent's unmodified sight radius.
	DefaultVisionRadius = 3
	// NightVisionModifier scales vision radius at night.
	NightVisionModifier = 0.6
)

// EffectiveVisionRadius applies the night-vision reduction shared by the
// action engine and the movement phase so the two never drift apart.
func EffectiveVisionRadius(base int, timeOfDay string) int {
	if timeOfDay != "night" {
		return base
	}
	reduced := int(NightVisionModifier * float64(base))
	if reduced < 1 {
		return 1
	}
	return reduced
}

// TicksPerDay is the length of one day/night cycle, split evenly across
// the four named periods below.
const TicksPerDay = 24

// TimeOfDayPeriods lists the four periods of a day in order, used to map
// a tick counter onto a label via TimeOfDayForTick.
var TimeOfDayPeriods = [4]string{"morning", "afternoon", "evening", "night"}

// TimeOfDayForTick derives the time-of-day label for a tick, cycling
// through TimeOfDayPeriods every TicksPerDay/4 ticks. Shared by
// CommitPhase (which stamps it into time_advanced events) and
// PerceptionBuilder (which reports it to agents), so both agree on the
// same tick.
func TimeOfDayForTick(tick int) string {
	periodLength := TicksPerDay / len(TimeOfDayPeriods)
	idx := (tick / periodLength) % len(TimeOfDayPeriods)
	if idx < 0 {
		idx += len(TimeOfDayPeriods)
	}
	return TimeOfDayPeriods[idx]
}
