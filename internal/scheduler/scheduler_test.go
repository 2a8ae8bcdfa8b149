package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func agentAt(name string, x, y int) domain.Agent {
	return domain.Agent{Name: domain.AgentName(name), Position: domain.Position{X: x, Y: y}}
}

func TestComputeClustersGroupsByProximity(t *testing.T) {
	s := New(5) // cluster radius 7

	agents := []domain.Agent{
		agentAt("alice", 0, 0),
		agentAt("bob", 1, 1),
		agentAt("carol", 50, 50),
	}

	clusters := s.ComputeClusters(agents)

	require := assert.New(t)
	require.Len(clusters, 2)

	sizes := map[int]int{}
	for _, c := range clusters {
		sizes[len(c)]++
	}
	require.Equal(1, sizes[1])
	require.Equal(1, sizes[2])
}

func TestComputeClustersTransitiveChain(t *testing.T) {
	s := New(2) // cluster radius 4

	agents := []domain.Agent{
		agentAt("a", 0, 0),
		agentAt("b", 4, 0),
		agentAt("c", 8, 0),
	}

	clusters := s.ComputeClusters(agents)
	assert.Len(t, clusters, 1)
	assert.Len(t, clusters[0], 3)
}

func TestComputeClustersEmpty(t *testing.T) {
	s := New(5)
	assert.Nil(t, s.ComputeClusters(nil))
}

func TestForceNextOrdersCluster(t *testing.T) {
	s := New(5)
	s.ForceNext("carol")

	forced, ok := s.TakeForcedNext()
	assert.True(t, ok)
	assert.Equal(t, domain.AgentName("carol"), forced)

	// cleared after take
	_, ok = s.TakeForcedNext()
	assert.False(t, ok)

	cluster := []domain.AgentName{"alice", "bob", "carol"}
	ordered := OrderCluster(cluster, "carol", true)
	assert.Equal(t, []domain.AgentName{"carol", "alice", "bob"}, ordered)
}

func TestOrderClusterNoForce(t *testing.T) {
	cluster := []domain.AgentName{"alice", "bob"}
	ordered := OrderCluster(cluster, "", false)
	assert.Equal(t, cluster, ordered)
}
