package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// command is one instruction sent to the runner's worker goroutine.
type command int

const (
	cmdTickOnce command = iota
	cmdRun
	cmdPause
	cmdResume
	cmdStop
	cmdShutdown
)

// pollInterval is how often the worker goroutine checks for new
// commands while idle, mirroring runner.py's asyncio.sleep(0.01) poll.
const pollInterval = 10 * time.Millisecond

// Runner drives an Engine from a single persistent goroutine so ticks
// never race each other, grounded on original_source/engine/runner.py's
// dedicated-thread-plus-command-queue design (tarsy's pkg/queue uses the
// same persistent-goroutine idiom for its worker pool). Every public
// method is safe to call from any goroutine; commands are serialized
// through a channel rather than a mutex around engine state.
type Runner struct {
	engine *Engine
	logger *slog.Logger

	commands chan command
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	running    bool // continuous run active
	paused     bool
	lastTick   domain.TickContext
	lastErr    error
	startedMu  sync.Mutex
	started    bool
}

// NewRunner builds a Runner around engine. Call Start to begin
// processing commands.
func NewRunner(e *Engine, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine:   e,
		logger:   logger,
		commands: make(chan command, 16),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Safe to call once; subsequent
// calls are no-ops.
func (r *Runner) Start(ctx context.Context) {
	r.startedMu.Lock()
	defer r.startedMu.Unlock()
	if r.started {
		r.logger.Warn("runner already started")
		return
	}
	r.started = true
	go r.loop(ctx)
}

// Shutdown stops any continuous run and terminates the worker goroutine,
// blocking until it exits.
func (r *Runner) Shutdown() {
	r.stopOnce.Do(func() {
		r.commands <- cmdShutdown
	})
	<-r.done
}

// TickOnce requests a single tick. Non-blocking; ignored while a
// continuous run is active. Use OnTick on the underlying Engine (or
// LastResult) to observe the outcome.
func (r *Runner) TickOnce() {
	if r.IsRunning() {
		r.logger.Debug("tick_once ignored, continuous run active")
		return
	}
	r.commands <- cmdTickOnce
}

// Run starts continuous ticking until Stop is called. Non-blocking.
func (r *Runner) Run() {
	if r.IsRunning() {
		r.logger.Debug("run ignored, already running")
		return
	}
	r.commands <- cmdRun
}

// Pause pauses a continuous run after the current tick finishes.
func (r *Runner) Pause() { r.commands <- cmdPause }

// Resume resumes a paused continuous run.
func (r *Runner) Resume() { r.commands <- cmdResume }

// Stop ends a continuous run.
func (r *Runner) Stop() { r.commands <- cmdStop }

// IsRunning reports whether continuous simulation is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastResult returns the most recently completed tick's context and any
// error from the tick that produced it.
func (r *Runner) LastResult() (domain.TickContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTick, r.lastErr
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.commands:
			if r.handle(ctx, cmd) {
				return
			}
		case <-ticker.C:
			r.mu.Lock()
			active := r.running && !r.paused
			r.mu.Unlock()
			if active {
				r.runTick(ctx)
			}
		}
	}
}

// handle processes one command. It returns true when the worker loop
// should exit (shutdown requested).
func (r *Runner) handle(ctx context.Context, cmd command) bool {
	switch cmd {
	case cmdShutdown:
		r.mu.Lock()
		r.running = false
		r.paused = false
		r.mu.Unlock()
		return true

	case cmdTickOnce:
		r.mu.Lock()
		running := r.running
		r.mu.Unlock()
		if !running {
			r.runTick(ctx)
		}

	case cmdRun:
		r.mu.Lock()
		r.running = true
		r.paused = false
		r.mu.Unlock()

	case cmdPause:
		r.mu.Lock()
		r.paused = true
		r.mu.Unlock()

	case cmdResume:
		r.mu.Lock()
		r.paused = false
		r.mu.Unlock()

	case cmdStop:
		r.mu.Lock()
		r.running = false
		r.paused = false
		r.mu.Unlock()
	}
	return false
}

func (r *Runner) runTick(ctx context.Context) {
	tc, err := r.engine.Tick(ctx)
	r.mu.Lock()
	r.lastTick, r.lastErr = tc, err
	r.mu.Unlock()
	if err != nil {
		r.logger.Error("tick failed", "error", err)
	}
}
