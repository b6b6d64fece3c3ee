package fusion

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// idleBackoff is the sleep used after a short ring read, shared with
// internal/bezier's worker loops so every stage polls at the same cadence.
const idleBackoff = 3 * time.Millisecond

// stopGrace bounds how long Stop waits for workers to observe the stop
// flag and exit within a short grace period (~1s).
const stopGrace = time.Second

// orchestrator owns the lifecycle of the three top-level stage workers
// (the background reconstructor starts and stops its own internal workers):
// a two-phase construct-then-start so NewFusion cannot leak spawned
// goroutines on partial failure, and a single atomic.Bool stop flag
// observed by each of those loops so Stop can signal all of them without
// closing per-worker channels.
type orchestrator struct {
	stopFlag atomic.Bool
	eg       *errgroup.Group
	cancel   context.CancelFunc
	running  atomic.Bool
}

func (o *orchestrator) stopped() bool { return o.stopFlag.Load() }

// start launches each worker under an errgroup.Group so a worker that
// returns an error (resource exhaustion discovered mid-run) is observed by
// Stop/Wait rather than silently vanishing.
func (o *orchestrator) start(workers ...func(stopped func() bool) error) {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	eg, _ := errgroup.WithContext(ctx)
	o.eg = eg
	o.running.Store(true)
	for _, w := range workers {
		w := w
		eg.Go(func() error { return w(o.stopped) })
	}
}

// stop sets the stop flag and waits up to stopGrace for every worker to
// exit its current iteration.
func (o *orchestrator) stop() error {
	if !o.running.Load() {
		return ErrNotRunning
	}
	o.stopFlag.Store(true)
	done := make(chan error, 1)
	go func() { done <- o.eg.Wait() }()
	select {
	case err := <-done:
		o.running.Store(false)
		if o.cancel != nil {
			o.cancel()
		}
		if err != nil {
			return fmt.Errorf("fusion: worker exited with error: %w", err)
		}
		return nil
	case <-time.After(stopGrace):
		o.running.Store(false)
		if o.cancel != nil {
			o.cancel()
		}
		return nil
	}
}
