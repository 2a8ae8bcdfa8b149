// Package scheduler groups agents into proximity clusters for per-tick
// turn ordering, grounded on
// original_source/hearth/services/scheduler.py.
//
// All agents act every tick. Agents in separate clusters can run in
// parallel; agents sharing a cluster must run sequentially so each sees
// the others' actions within the same tick.
package scheduler

import (
	"sort"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// ClusterBuffer is added to the vision radius to get the cluster radius,
// giving agents room to notice each other while approaching.
const ClusterBuffer = 2

// Scheduler computes turn-order clusters by proximity.
type Scheduler struct {
	visionRadius  int
	clusterRadius int
	forcedNext    domain.AgentName
}

// New builds a Scheduler from the perception system's vision radius.
func New(visionRadius int) *Scheduler {
	return &Scheduler{visionRadius: visionRadius, clusterRadius: visionRadius + ClusterBuffer}
}

// VisionRadius returns the configured vision radius.
func (s *Scheduler) VisionRadius() int { return s.visionRadius }

// ClusterRadius returns vision radius plus ClusterBuffer.
func (s *Scheduler) ClusterRadius() int { return s.clusterRadius }

// ComputeClusters groups agents into clusters using union-find: two
// agents share a cluster if connected by a chain of agents each within
// cluster radius of the next. Clusters and the agents within them are
// returned in a stable, deterministic order (unlike the Python
// dict-iteration order); force_next will reorder within a cluster.
func (s *Scheduler) ComputeClusters(agents []domain.Agent) [][]domain.AgentName {
	n := len(agents)
	if n == 0 {
		return nil
	}

	sorted := append([]domain.Agent(nil), agents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(x, y int) {
		px, py := find(x), find(y)
		if px != py {
			parent[px] = py
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sorted[i].Position.DistanceTo(sorted[j].Position) <= s.clusterRadius {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]domain.AgentName)
	var roots []int
	for i, a := range sorted {
		root := find(i)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], a.Name)
	}

	sort.Ints(roots)
	clusters := make([][]domain.AgentName, 0, len(roots))
	for _, root := range roots {
		clusters = append(clusters, groups[root])
	}
	return clusters
}

// ForceNext records that agent should act first in its cluster next tick,
// used by observer commands to prioritize a turn.
func (s *Scheduler) ForceNext(agent domain.AgentName) {
	s.forcedNext = agent
}

// TakeForcedNext returns and clears the forced-next agent, if any.
func (s *Scheduler) TakeForcedNext() (domain.AgentName, bool) {
	agent := s.forcedNext
	s.forcedNext = ""
	return agent, agent != ""
}

// OrderCluster returns cluster with the forced-next agent (if present in
// it) moved to the front, leaving the rest of the order unchanged.
func OrderCluster(cluster []domain.AgentName, forced domain.AgentName, forcedOK bool) []domain.AgentName {
	if !forcedOK {
		return cluster
	}
	idx := -1
	for i, a := range cluster {
		if a == forced {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return cluster
	}
	ordered := make([]domain.AgentName, 0, len(cluster))
	ordered = append(ordered, cluster[idx])
	ordered = append(ordered, cluster[:idx]...)
	ordered = append(ordered, cluster[idx+1:]...)
	return ordered
}
