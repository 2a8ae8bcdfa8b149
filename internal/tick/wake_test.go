package tick

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

func TestWakePhaseWakesSleepingAgentsInMorning(t *testing.T) {
	phase := NewWakePhase()

	agents := map[domain.AgentName]domain.Agent{
		"sleeper":  {Name: "sleeper", IsSleeping: true},
		"awake":    {Name: "awake", IsSleeping: false},
		"nightOwl": {Name: "nightOwl", IsSleeping: true},
	}
	tc := domain.NewTickContext(1, "morning", domain.Clear, agents)

	tc, err := phase.Execute(context.Background(), tc)
	require.NoError(t, err)
	require.True(t, tc.AgentsToWake["sleeper"])
	require.True(t, tc.AgentsToWake["nightOwl"])
	require.False(t, tc.AgentsToWake["awake"])
}

func TestWakePhaseLeavesSleepersAsleepOutsideMorning(t *testing.T) {
	phase := NewWakePhase()

	agents := map[domain.AgentName]domain.Agent{
		"sleeper": {Name: "sleeper", IsSleeping: true},
	}
	tc := domain.NewTickContext(1, "night", domain.Clear, agents)

	tc, err := phase.Execute(context.Background(), tc)
	require.NoError(t, err)
	require.Empty(t, tc.AgentsToWake)
}
