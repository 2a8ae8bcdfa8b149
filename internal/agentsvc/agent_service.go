// Package agentsvc is a thin service layer over the agent repository:
// roster CRUD, spatial queries, sleep state, relationships, inventory,
// presence sensing, the journey state machine (A* pathfinding plus
// step-by-step advancement), and each agent's home-directory scaffolding.
// No in-memory caching — every call delegates straight to storage.
// Grounded on original_source/hearth/services/agent_service.py.
package agentsvc

import (
	"container/heap"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/hearth/internal/apperr"
	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/storage"
	"github.com/codeready-toolchain/hearth/internal/worldsvc"
)

// SensedAgent is the direction/distance-category view of one known agent
// returned by SenseOthers.
type SensedAgent struct {
	Name             domain.AgentName
	Direction        domain.Direction
	HasDirection     bool // false when the sensed agent occupies the same cell
	DistanceCategory string
}

// AgentService is the agent-roster façade every action handler and phase
// reads and writes through.
type AgentService struct {
	storage *storage.Storage
}

func NewAgentService(st *storage.Storage) *AgentService {
	return &AgentService{storage: st}
}

// -----------------------------------------------------------------------
// Roster CRUD
// -----------------------------------------------------------------------

func (s *AgentService) GetAgent(ctx context.Context, name domain.AgentName) (domain.Agent, error) {
	return s.storage.Agents.GetAgent(ctx, name)
}

func (s *AgentService) GetAllAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.storage.Agents.GetAllAgents(ctx)
}

func (s *AgentService) SaveAgent(ctx context.Context, a domain.Agent) error {
	return s.storage.Agents.SaveAgent(ctx, a)
}

func (s *AgentService) DeleteAgent(ctx context.Context, name domain.AgentName) error {
	return s.storage.Agents.DeleteAgent(ctx, name)
}

// -----------------------------------------------------------------------
// Spatial queries
// -----------------------------------------------------------------------

func (s *AgentService) GetAgentsAt(ctx context.Context, pos domain.Position) ([]domain.Agent, error) {
	return s.storage.Agents.GetAgentsInRect(ctx, domain.RectAround(pos, 0))
}

func (s *AgentService) GetAgentsInRect(ctx context.Context, rect domain.Rect) ([]domain.Agent, error) {
	return s.storage.Agents.GetAgentsInRect(ctx, rect)
}

// GetNearbyAgents returns every agent within radius (Manhattan) of pos.
func (s *AgentService) GetNearbyAgents(ctx context.Context, pos domain.Position, radius int) ([]domain.Agent, error) {
	rect := domain.RectAround(pos, radius)
	agents, err := s.storage.Agents.GetAgentsInRect(ctx, rect)
	if err != nil {
		return nil, err
	}
	out := agents[:0]
	for _, a := range agents {
		if pos.DistanceTo(a.Position) <= radius {
			out = append(out, a)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------
// State queries
// -----------------------------------------------------------------------

func (s *AgentService) GetAwakeAgents(ctx context.Context) ([]domain.Agent, error) {
	all, err := s.storage.Agents.GetAllAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if !a.IsSleeping {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AgentService) GetSleepingAgents(ctx context.Context) ([]domain.Agent, error) {
	all, err := s.storage.Agents.GetAllAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.IsSleeping {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AgentService) GetTravelingAgents(ctx context.Context) ([]domain.Agent, error) {
	all, err := s.storage.Agents.GetAllAgents(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.IsJourneying() {
			out = append(out, a)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------
// Relationships
// -----------------------------------------------------------------------

func (s *AgentService) HaveMet(ctx context.Context, a1, a2 domain.AgentName) (bool, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, a1)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return agent.Knows(a2), nil
}

// RecordMeeting marks two agents as knowing each other, both directions.
func (s *AgentService) RecordMeeting(ctx context.Context, a1, a2 domain.AgentName) (domain.Agent, domain.Agent, error) {
	agent1, err := s.storage.Agents.GetAgent(ctx, a1)
	if err != nil {
		return domain.Agent{}, domain.Agent{}, err
	}
	agent2, err := s.storage.Agents.GetAgent(ctx, a2)
	if err != nil {
		return domain.Agent{}, domain.Agent{}, err
	}

	updated1 := agent1.WithKnownAgent(a2)
	updated2 := agent2.WithKnownAgent(a1)

	if err := s.storage.Agents.SaveAgent(ctx, updated1); err != nil {
		return domain.Agent{}, domain.Agent{}, err
	}
	if err := s.storage.Agents.SaveAgent(ctx, updated2); err != nil {
		return domain.Agent{}, domain.Agent{}, err
	}
	return updated1, updated2, nil
}

// -----------------------------------------------------------------------
// Position updates
// -----------------------------------------------------------------------

func (s *AgentService) UpdatePosition(ctx context.Context, name domain.AgentName, pos domain.Position) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.WithPosition(pos)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

// MoveAgent steps an agent one cell in direction, validated against
// world passability.
func (s *AgentService) MoveAgent(ctx context.Context, name domain.AgentName, dir domain.Direction, world *worldsvc.WorldService) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	ok, err := world.CanMove(ctx, agent.Position, dir)
	if err != nil {
		return domain.Agent{}, err
	}
	if !ok {
		return domain.Agent{}, apperr.NewValidationError("direction", fmt.Sprintf("cannot move %s from %s", dir, agent.Position))
	}
	return s.UpdatePosition(ctx, name, agent.Position.Add(dir))
}

// -----------------------------------------------------------------------
// Sleep state
// -----------------------------------------------------------------------

func (s *AgentService) SetSleeping(ctx context.Context, name domain.AgentName, sleeping bool) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.WithSleeping(sleeping)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) WakeAgent(ctx context.Context, name domain.AgentName) (domain.Agent, error) {
	return s.SetSleeping(ctx, name, false)
}

func (s *AgentService) SleepAgent(ctx context.Context, name domain.AgentName) (domain.Agent, error) {
	return s.SetSleeping(ctx, name, true)
}

// -----------------------------------------------------------------------
// Session tracking
// -----------------------------------------------------------------------

func (s *AgentService) UpdateSession(ctx context.Context, name domain.AgentName, sessionID string, tick int) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.WithSessionID(sessionID).WithLastActiveTick(tick)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

// AccumulateTokenUsage adds usage onto the agent's cumulative token
// counters, the per-execution accounting tarsy's
// AgentExecution/LLMInteraction schema performs. A narrow repository
// write — no full GetAgent/SaveAgent round-trip needed.
func (s *AgentService) AccumulateTokenUsage(ctx context.Context, name domain.AgentName, usage domain.TokenUsage) error {
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		return nil
	}
	return s.storage.Agents.AccumulateTokenUsage(ctx, name, usage)
}

// -----------------------------------------------------------------------
// Inventory operations
// -----------------------------------------------------------------------

func (s *AgentService) AddResource(ctx context.Context, name domain.AgentName, itemType string, quantity int) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.AddResource(itemType, quantity)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) RemoveResource(ctx context.Context, name domain.AgentName, itemType string, quantity int) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated, err := agent.RemoveResource(itemType, quantity)
	if err != nil {
		return domain.Agent{}, err
	}
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) GetResourceQuantity(ctx context.Context, name domain.AgentName, itemType string) (int, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return 0, err
	}
	return agent.Inventory.ResourceQuantity(itemType), nil
}

func (s *AgentService) HasResource(ctx context.Context, name domain.AgentName, itemType string, quantity int) (bool, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return false, err
	}
	return agent.Inventory.HasResource(itemType, quantity), nil
}

func (s *AgentService) AddItem(ctx context.Context, name domain.AgentName, item domain.Item) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.AddItem(item)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) RemoveItem(ctx context.Context, name domain.AgentName, itemID domain.ObjectId) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated, err := agent.RemoveItem(itemID)
	if err != nil {
		return domain.Agent{}, err
	}
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) GetInventory(ctx context.Context, name domain.AgentName) (domain.Inventory, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Inventory{}, err
	}
	return agent.Inventory, nil
}

func (s *AgentService) SetInventory(ctx context.Context, name domain.AgentName, inv domain.Inventory) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.WithInventory(inv)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

// -----------------------------------------------------------------------
// Presence sensing
// -----------------------------------------------------------------------

// SenseOthers reports direction and rough distance to every agent the
// caller has met and who is currently awake.
func (s *AgentService) SenseOthers(ctx context.Context, name domain.AgentName) ([]SensedAgent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return nil, err
	}

	var results []SensedAgent
	for otherName := range agent.KnownAgents {
		other, err := s.storage.Agents.GetAgent(ctx, otherName)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if other.IsSleeping {
			continue
		}

		distance := agent.Position.DistanceTo(other.Position)
		dir, hasDir := agent.Position.DirectionTo(other.Position)

		results = append(results, SensedAgent{
			Name:             otherName,
			Direction:        dir,
			HasDirection:     hasDir,
			DistanceCategory: domain.DistanceCategory(distance),
		})
	}
	return results, nil
}

// -----------------------------------------------------------------------
// Journey state machine
// -----------------------------------------------------------------------

// StartJourney resolves destination (position or landmark name), computes
// an A* path and sets the agent's journey.
func (s *AgentService) StartJourney(ctx context.Context, name domain.AgentName, destPos *domain.Position, landmark domain.LandmarkName, world *worldsvc.WorldService) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}

	var dest domain.JourneyDestination
	var targetPos domain.Position
	if landmark != "" {
		pos, err := world.GetPlacePosition(ctx, string(landmark))
		if err != nil {
			return domain.Agent{}, apperr.NotFoundf("landmark %q", landmark)
		}
		dest = domain.JourneyDestination{Landmark: landmark}
		targetPos = pos
	} else if destPos != nil {
		dest = domain.JourneyDestination{Position: *destPos}
		targetPos = *destPos
	} else {
		return domain.Agent{}, apperr.NewValidationError("destination", "must specify a position or landmark")
	}

	if agent.Position == targetPos {
		return domain.Agent{}, apperr.NewValidationError("destination", "already at destination")
	}

	path, err := s.computePath(ctx, agent.Position, targetPos, world)
	if err != nil {
		return domain.Agent{}, err
	}

	journey := domain.NewJourney(dest, path)
	updated := agent.WithJourney(&journey)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

// AdvanceJourney steps the agent one position along its path, clearing
// the journey on arrival. Returns (updated agent, arrived).
func (s *AgentService) AdvanceJourney(ctx context.Context, name domain.AgentName) (domain.Agent, bool, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, false, err
	}
	if agent.Journey == nil {
		return domain.Agent{}, false, apperr.NewValidationError("journey", fmt.Sprintf("agent %s is not on a journey", name))
	}

	newJourney := agent.Journey.Advance()
	newPos, ok := newJourney.CurrentPosition()
	if !ok {
		return domain.Agent{}, false, apperr.NewValidationError("journey", "journey has no valid position")
	}
	arrived := newJourney.IsComplete()

	var updated domain.Agent
	if arrived {
		updated = agent.WithPosition(newPos).WithJourney(nil)
	} else {
		updated = agent.WithPosition(newPos).WithJourney(&newJourney)
	}

	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, false, err
	}
	return updated, arrived, nil
}

// InterruptJourney clears an agent's journey without moving it.
func (s *AgentService) InterruptJourney(ctx context.Context, name domain.AgentName) (domain.Agent, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return domain.Agent{}, err
	}
	updated := agent.WithJourney(nil)
	if err := s.storage.Agents.SaveAgent(ctx, updated); err != nil {
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *AgentService) IsTraveling(ctx context.Context, name domain.AgentName) (bool, error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return false, err
	}
	return agent.IsJourneying(), nil
}

// GetJourneyProgress returns (current step, total steps), or ok=false if
// the agent is not journeying.
func (s *AgentService) GetJourneyProgress(ctx context.Context, name domain.AgentName) (current, total int, ok bool, err error) {
	agent, err := s.storage.Agents.GetAgent(ctx, name)
	if err != nil {
		return 0, 0, false, err
	}
	if agent.Journey == nil {
		return 0, 0, false, nil
	}
	return agent.Journey.Progress, len(agent.Journey.Path) - 1, true, nil
}

// astarNode is one entry in the priority queue: fScore breaks ties by a
// monotonically increasing counter so two equal-cost paths still produce
// a deterministic exploration order.
type astarNode struct {
	fScore  int
	counter int
	pos     domain.Position
}

type astarQueue []astarNode

func (q astarQueue) Len() int { return len(q) }
func (q astarQueue) Less(i, j int) bool {
	if q[i].fScore != q[j].fScore {
		return q[i].fScore < q[j].fScore
	}
	return q[i].counter < q[j].counter
}
func (q astarQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *astarQueue) Push(x any)        { *q = append(*q, x.(astarNode)) }
func (q *astarQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// computePath runs 4-connected A* with a Manhattan heuristic, gated on
// WorldService.CanMove for neighbor validity.
func (s *AgentService) computePath(ctx context.Context, start, goal domain.Position, world *worldsvc.WorldService) ([]domain.Position, error) {
	if start == goal {
		return []domain.Position{start}, nil
	}

	counter := 0
	openSet := &astarQueue{{fScore: 0, counter: counter, pos: start}}
	heap.Init(openSet)

	cameFrom := map[domain.Position]domain.Position{}
	gScore := map[domain.Position]int{start: 0}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(astarNode).pos

		if current == goal {
			path := []domain.Position{current}
			for {
				prev, ok := cameFrom[current]
				if !ok {
					break
				}
				path = append(path, prev)
				current = prev
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return path, nil
		}

		for _, dir := range domain.AllDirections {
			ok, err := world.CanMove(ctx, current, dir)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			neighbor := current.Add(dir)
			tentativeG := gScore[current] + 1

			if existing, seen := gScore[neighbor]; !seen || tentativeG < existing {
				cameFrom[neighbor] = current
				gScore[neighbor] = tentativeG
				fScore := tentativeG + neighbor.DistanceTo(goal)
				counter++
				heap.Push(openSet, astarNode{fScore: fScore, counter: counter, pos: neighbor})
			}
		}
	}

	return nil, apperr.NewValidationError("destination", fmt.Sprintf("no path from %s to %s", start, goal))
}

// -----------------------------------------------------------------------
// Home directory management
// -----------------------------------------------------------------------

var homeFiles = map[string]string{
	"journal.md":     "# Journal\n",
	"notes.md":       "# Notes\n",
	"discoveries.md": "# Discoveries\n",
}

// EnsureHomeDirectory creates an agent's home directory with its initial
// scratch files if they don't already exist.
func (s *AgentService) EnsureHomeDirectory(name domain.AgentName, agentsRoot string) (string, error) {
	home := filepath.Join(agentsRoot, string(name))
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create agent home: %w", err)
	}
	for filename, content := range homeFiles {
		path := filepath.Join(home, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("write %s: %w", filename, err)
			}
		}
	}
	return home, nil
}

// GenerateStatusFile writes the read-only .status reference file summarizing
// position, time, weather and inventory.
func (s *AgentService) GenerateStatusFile(agent domain.Agent, agentsRoot string, tick int, weather domain.Weather) error {
	home := filepath.Join(agentsRoot, string(agent.Name))
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("create agent home: %w", err)
	}
	content := fmt.Sprintf(`# Status (System Generated)

## Position
x: %d
y: %d

## Time
Tick: %d
Weather: %s

## Inventory
%s
`, agent.Position.X, agent.Position.Y, tick, weather.String(), formatInventory(agent.Inventory))

	if err := os.WriteFile(filepath.Join(home, ".status"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

func formatInventory(inv domain.Inventory) string {
	if inv.IsEmpty() {
		return "Empty"
	}
	var lines []string
	for _, stack := range inv.Stacks {
		lines = append(lines, fmt.Sprintf("- %s: %d", stack.ItemType, stack.Quantity))
	}
	for _, item := range inv.Items {
		props := "no properties"
		if len(item.Properties) > 0 {
			props = joinComma(item.Properties)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", item.ItemType, props))
	}
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func joinComma(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}

// -----------------------------------------------------------------------
// Bootstrap
// -----------------------------------------------------------------------

// InitializeAgent saves a new agent and scaffolds its home directory.
func (s *AgentService) InitializeAgent(ctx context.Context, agent domain.Agent, agentsRoot string) (domain.Agent, error) {
	if err := s.storage.Agents.SaveAgent(ctx, agent); err != nil {
		return domain.Agent{}, err
	}
	if _, err := s.EnsureHomeDirectory(agent.Name, agentsRoot); err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

// InitializeAgents bulk-initializes a roster.
func (s *AgentService) InitializeAgents(ctx context.Context, agents []domain.Agent, agentsRoot string) ([]domain.Agent, error) {
	out := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		saved, err := s.InitializeAgent(ctx, a, agentsRoot)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}
