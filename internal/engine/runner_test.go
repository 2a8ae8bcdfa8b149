package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerTickOnceAdvancesExactlyOneTick(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner(e, nil)
	r.Start(ctx)
	defer r.Shutdown()

	r.TickOnce()
	require.Eventually(t, func() bool {
		tc, err := r.LastResult()
		return err == nil && tc.Tick == 1
	}, time.Second, 5*time.Millisecond)

	tick, err := e.World.CurrentTick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, tick)
}

func TestRunnerTickOnceIgnoredWhileRunning(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner(e, nil)
	r.Start(ctx)
	defer r.Shutdown()

	r.Run()
	require.Eventually(t, func() bool { return r.IsRunning() }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		tc, err := r.LastResult()
		return err == nil && tc.Tick >= 2
	}, 2*time.Second, 10*time.Millisecond, "continuous run should advance multiple ticks")

	// TickOnce while running is a silent no-op, not an error.
	r.TickOnce()

	r.Stop()
	require.Eventually(t, func() bool { return !r.IsRunning() }, time.Second, 5*time.Millisecond)
}
