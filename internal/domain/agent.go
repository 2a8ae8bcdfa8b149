package domain

// JourneyDestination targets either resolved coordinates or a named
// landmark awaiting resolution.
type JourneyDestination struct {
	Position Position
	Landmark LandmarkName // empty when Position is resolved
}

// IsResolved reports whether the destination has concrete coordinates.
func (d JourneyDestination) IsResolved() bool {
	return d.Landmark == ""
}

// Journey is an agent's active multi-cell travel state. Path[0] is the
// agent's position when the journey started; Path[len-1] is the resolved
// destination; consecutive path cells are adjacent and were passable at
// creation time.
type Journey struct {
	Destination JourneyDestination
	Path        []Position
	Progress    int
}

// NewJourney creates a journey with progress at the start of path.
func NewJourney(destination JourneyDestination, path []Position) Journey {
	return Journey{Destination: destination, Path: append([]Position(nil), path...), Progress: 0}
}

// CurrentPosition returns the path cell at the current progress index.
func (j Journey) CurrentPosition() (Position, bool) {
	if j.Progress >= 0 && j.Progress < len(j.Path) {
		return j.Path[j.Progress], true
	}
	return Position{}, false
}

// NextPosition returns the path cell one step ahead of current progress.
func (j Journey) NextPosition() (Position, bool) {
	next := j.Progress + 1
	if next >= 0 && next < len(j.Path) {
		return j.Path[next], true
	}
	return Position{}, false
}

// IsComplete reports whether the journey has reached its final path cell.
func (j Journey) IsComplete() bool {
	return j.Progress >= len(j.Path)-1
}

// RemainingSteps is the number of advances left before completion.
func (j Journey) RemainingSteps() int {
	remaining := len(j.Path) - 1 - j.Progress
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Advance returns a new journey one step further along its path.
func (j Journey) Advance() Journey {
	next := j
	next.Progress = j.Progress + 1
	return next
}

// AgentModel names the LLM model driving an agent.
type AgentModel struct {
	ID          string
	DisplayName string
}

// Agent is a snapshot of one simulated inhabitant's state.
type Agent struct {
	Name        AgentName
	Model       AgentModel
	Personality string

	Position Position
	Journey  *Journey // nil when not journeying

	Inventory Inventory

	IsSleeping bool

	KnownAgents map[AgentName]bool

	SessionID      string // empty if none
	LastActiveTick int
	TokenUsage     TokenUsage // cumulative across every turn this agent has taken
}

// IsJourneying reports whether the agent is mid-journey (has an
// incomplete Journey).
func (a Agent) IsJourneying() bool {
	return a.Journey != nil && !a.Journey.IsComplete()
}

// WithPosition returns a new agent at pos.
func (a Agent) WithPosition(pos Position) Agent {
	next := a
	next.Position = pos
	return next
}

// WithJourney returns a new agent with the given journey state.
func (a Agent) WithJourney(j *Journey) Agent {
	next := a
	next.Journey = j
	return next
}

// WithInventory returns a new agent with the given inventory.
func (a Agent) WithInventory(inv Inventory) Agent {
	next := a
	next.Inventory = inv
	return next
}

// WithSleeping returns a new agent with updated sleep state.
func (a Agent) WithSleeping(sleeping bool) Agent {
	next := a
	next.IsSleeping = sleeping
	return next
}

// WithKnownAgent returns a new agent that additionally knows other.
func (a Agent) WithKnownAgent(other AgentName) Agent {
	if a.KnownAgents[other] {
		return a
	}
	next := a
	next.KnownAgents = make(map[AgentName]bool, len(a.KnownAgents)+1)
	for k := range a.KnownAgents {
		next.KnownAgents[k] = true
	}
	next.KnownAgents[other] = true
	return next
}

// Knows reports whether this agent has met other.
func (a Agent) Knows(other AgentName) bool {
	return a.KnownAgents[other]
}

// WithSessionID returns a new agent with updated LLM session ID.
func (a Agent) WithSessionID(id string) Agent {
	next := a
	next.SessionID = id
	return next
}

// WithLastActiveTick returns a new agent with updated last-active tick.
func (a Agent) WithLastActiveTick(tick int) Agent {
	next := a
	next.LastActiveTick = tick
	return next
}

// WithAccumulatedTokenUsage returns a new agent with usage added onto its
// running total, the same per-execution accumulation tarsy's
// AgentExecution/LLMInteraction schema performs.
func (a Agent) WithAccumulatedTokenUsage(usage TokenUsage) Agent {
	next := a
	next.TokenUsage = a.TokenUsage.Add(usage)
	return next
}

// AddResource returns a new agent with a resource added to inventory.
func (a Agent) AddResource(itemType string, quantity int) Agent {
	return a.WithInventory(a.Inventory.AddResource(itemType, quantity))
}

// RemoveResource returns a new agent with a resource removed from
// inventory, or an error if insufficient.
func (a Agent) RemoveResource(itemType string, quantity int) (Agent, error) {
	inv, err := a.Inventory.RemoveResource(itemType, quantity)
	if err != nil {
		return a, err
	}
	return a.WithInventory(inv), nil
}

// AddItem returns a new agent with item added to inventory.
func (a Agent) AddItem(item Item) Agent {
	return a.WithInventory(a.Inventory.AddItem(item))
}

// RemoveItem returns a new agent with the unique item removed, or an
// error if not owned.
func (a Agent) RemoveItem(id ObjectId) (Agent, error) {
	inv, err := a.Inventory.RemoveItem(id)
	if err != nil {
		return a, err
	}
	return a.WithInventory(inv), nil
}

// DistanceCategory buckets a Manhattan distance per the sense_others rule.
func DistanceCategory(distance int) string {
	switch {
	case distance <= 10:
		return "nearby"
	case distance <= 30:
		return "far"
	default:
		return "very_far"
	}
}
