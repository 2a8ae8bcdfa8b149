package domain

// TokenUsage accumulates LLM token counters for one agent turn, mirroring
// the counters tarsy tracks per AgentExecution/LLMInteraction — the one
// piece of that accounting concern this simulation has a home for.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the sum of two usage counters.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	return TokenUsage{InputTokens: u.InputTokens + o.InputTokens, OutputTokens: u.OutputTokens + o.OutputTokens}
}

// TurnResult captures what happened during one agent's turn within a
// tick: the actions it took, the perception it was given, and anything
// produced along the way.
type TurnResult struct {
	AgentName    AgentName
	Perception   any // opaque perception snapshot (see internal/perception)
	ActionsTaken []Action
	Events       []DomainEvent
	Narrative    string
	SessionID    string
	TokenUsage   TokenUsage
}

// TickContext is the immutable state carrier passed through the phase
// pipeline. Each phase returns a new TickContext via one of the With*
// methods; nothing is shared mutable state between phases.
type TickContext struct {
	Tick      int
	TimeOfDay string
	Weather   Weather

	Agents map[AgentName]Agent

	AgentsToAct  map[AgentName]bool
	AgentsToWake map[AgentName]bool
	Clusters     [][]AgentName
	Events       []DomainEvent
	TurnResults  map[AgentName]TurnResult
}

// NewTickContext starts a tick with a read-only agent snapshot and no
// accumulated output yet.
func NewTickContext(tick int, timeOfDay string, weather Weather, agents map[AgentName]Agent) TickContext {
	return TickContext{
		Tick:         tick,
		TimeOfDay:    timeOfDay,
		Weather:      weather,
		Agents:       agents,
		AgentsToAct:  map[AgentName]bool{},
		AgentsToWake: map[AgentName]bool{},
		TurnResults:  map[AgentName]TurnResult{},
	}
}

// WithAgentsToAct returns a new context with the active-agent set replaced.
func (c TickContext) WithAgentsToAct(agents map[AgentName]bool) TickContext {
	next := c
	next.AgentsToAct = agents
	return next
}

// WithAgentsToWake returns a new context with the wake set replaced.
func (c TickContext) WithAgentsToWake(agents map[AgentName]bool) TickContext {
	next := c
	next.AgentsToWake = agents
	return next
}

// WithAgents returns a new context with the agent snapshot replaced.
func (c TickContext) WithAgents(agents map[AgentName]Agent) TickContext {
	next := c
	next.Agents = agents
	return next
}

// WithClusters returns a new context with the scheduling clusters
// replaced.
func (c TickContext) WithClusters(clusters [][]AgentName) TickContext {
	next := c
	next.Clusters = clusters
	return next
}

// WithEvents returns a new context with the accumulated event list
// replaced.
func (c TickContext) WithEvents(events []DomainEvent) TickContext {
	next := c
	next.Events = events
	return next
}

// WithTurnResults returns a new context with the per-agent turn results
// replaced.
func (c TickContext) WithTurnResults(results map[AgentName]TurnResult) TickContext {
	next := c
	next.TurnResults = results
	return next
}

// AppendEvents returns a new context with newEvents appended to Events.
func (c TickContext) AppendEvents(newEvents []DomainEvent) TickContext {
	return c.WithEvents(append(append([]DomainEvent(nil), c.Events...), newEvents...))
}
