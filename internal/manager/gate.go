package manager

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// gate bounds concurrent engine calls to a fixed number of worker slots.
// Callers beyond the slots wait, up to maxQueue of them and up to maxWait
// each; everyone else is rejected immediately.
type gate struct {
	sem      *semaphore.Weighted
	workers  int
	maxQueue int
	maxWait  time.Duration
	waiting  atomic.Int64
	inflight atomic.Int64
}

func newGate(workers, maxQueue int, maxWait time.Duration) *gate {
	gateSlots.Set(float64(workers))
	return &gate{
		sem:      semaphore.NewWeighted(int64(workers)),
		workers:  workers,
		maxQueue: maxQueue,
		maxWait:  maxWait,
	}
}

// acquire reserves a worker slot. Returns a release func to be deferred.
// Rejections come back as gate timeout errors; a canceled caller context is
// returned as-is.
func (g *gate) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Fast path: a free slot means no queueing at all.
	if g.sem.TryAcquire(1) {
		g.inflight.Add(1)
		gateInflight.Inc()
		return g.release, nil
	}
	if int(g.waiting.Load()) >= g.maxQueue {
		return nil, ErrGateTimeout(fmt.Sprintf("all %d workers busy and wait queue full", g.workers))
	}
	g.waiting.Add(1)
	gateWaiting.Inc()
	start := time.Now()
	defer func() {
		g.waiting.Add(-1)
		gateWaiting.Dec()
		gateWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()
	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrGateTimeout(fmt.Sprintf("no worker slot within %s", g.maxWait))
	}
	g.inflight.Add(1)
	gateInflight.Inc()
	return g.release, nil
}

func (g *gate) release() {
	g.inflight.Add(-1)
	gateInflight.Dec()
	g.sem.Release(1)
}

// Inflight returns engine calls currently holding a slot.
func (g *gate) Inflight() int { return int(g.inflight.Load()) }

// Waiting returns callers parked at the gate.
func (g *gate) Waiting() int { return int(g.waiting.Load()) }

// idle reports whether no work is running or queued.
func (g *gate) idle() bool {
	return g.inflight.Load() == 0 && g.waiting.Load() == 0
}
