package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// WakePhase wakes sleeping agents based on conditions, grounded on
// original_source/hearth/engine/phases/wake.py. Currently wakes on
// morning; future conditions (a visitor arriving, a world event) only
// need to extend this phase's check.
type WakePhase struct{}

// NewWakePhase builds a WakePhase.
func NewWakePhase() *WakePhase { return &WakePhase{} }

func (p *WakePhase) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	toWake := make(map[domain.AgentName]bool)
	for name, agent := range tc.Agents {
		if !agent.IsSleeping {
			continue
		}
		if tc.TimeOfDay == "morning" {
			toWake[name] = true
		}
	}
	return tc.WithAgentsToWake(toWake), nil
}
