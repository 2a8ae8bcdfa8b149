// Package tick implements the per-tick phase pipeline, grounded on
// original_source/hearth/engine/context.py, engine/phases/*.py and
// engine/engine.py. Phase objects are small, single-purpose strategy
// objects run in sequence, the same shape as tarsy's controller package
// (pkg/agent/controller/*.go). State flows through domain.TickContext,
// an immutable value threaded phase to phase exactly as the Python
// frozen dataclass is.
package tick

import (
	"context"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// Phase is one step of the tick pipeline: it receives the context and
// returns the next one, or an error that aborts the tick.
type Phase interface {
	Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error)
}

// Pipeline executes phases in sequence, threading the TickContext from
// one to the next.
type Pipeline struct {
	phases []Phase
}

// NewPipeline builds a pipeline from phases, run in the given order.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{phases: phases}
}

// Execute runs every phase in order, returning the context produced by
// the last phase, or the first error (aborting the remaining phases).
// Callers must not commit tick state (advance the clock) when Execute
// returns an error.
func (p *Pipeline) Execute(ctx context.Context, tc domain.TickContext) (domain.TickContext, error) {
	for _, phase := range p.phases {
		var err error
		tc, err = phase.Execute(ctx, tc)
		if err != nil {
			return tc, err
		}
	}
	return tc, nil
}

// Phases returns the pipeline's configured phases.
func (p *Pipeline) Phases() []Phase {
	return append([]Phase(nil), p.phases...)
}
