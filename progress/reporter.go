// Package progress aggregates per-file byte counters from concurrent
// transfers into a multi-bar display, rendered by a dedicated goroutine so
// bars keep refreshing while transfer workers are suspended (§4.F).
package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Sink is the narrow interface the Transfer Engine pushes byte-delta updates
// through; keeping it to a single method is what makes the engine testable
// without a terminal (§9 design note).
type Sink interface {
	Add(delta int64)
}

// Snapshot is a point-in-time view of one bar, handed to a Renderer.
type Snapshot struct {
	Name        string
	Total       int64
	Transferred int64
	Finished    bool
}

// Renderer draws the current set of bars. Callers in a terminal context
// supply one that writes to stdout; tests supply one that records calls.
type Renderer func(bars []Snapshot)

type bar struct {
	name        string
	total       int64
	transferred atomic.Int64
	finished    atomic.Bool
}

func (b *bar) Add(delta int64) {
	newVal := b.transferred.Add(delta)
	if b.total > 0 && newVal >= b.total {
		b.finished.Store(true)
	}
}

// Reporter owns the set of in-flight bars and the renderer goroutine. It is
// the only mutator of terminal output (§5 shared-resource policy).
type Reporter struct {
	logger          logr.Logger
	render          Renderer
	refreshInterval time.Duration

	mu   sync.Mutex
	bars []*bar

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReporter starts the renderer goroutine immediately; call Close to tear
// it down.
func NewReporter(logger logr.Logger, render Renderer, refreshInterval time.Duration) *Reporter {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reporter{
		logger:          logger.WithName("progress"),
		render:          render,
		refreshInterval: refreshInterval,
		cancel:          cancel,
		done:            make(chan struct{}),
	}
	go r.run(ctx)
	return r
}

// NewBar registers a new bar and returns the Sink the Transfer Engine will
// call Add on. The bar is marked finished but remains visible once
// transferred reaches total.
func (r *Reporter) NewBar(name string, totalBytes int64) Sink {
	b := &bar{name: name, total: totalBytes}
	r.mu.Lock()
	r.bars = append(r.bars, b)
	r.mu.Unlock()
	return b
}

// Close stops the renderer goroutine and waits for it to exit, rendering one
// final snapshot first so completed bars are visible in the last frame.
func (r *Reporter) Close() {
	r.cancel()
	<-r.done
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.renderSnapshot()
			return
		case <-ticker.C:
			r.renderSnapshot()
		}
	}
}

func (r *Reporter) renderSnapshot() {
	if r.render == nil {
		return
	}
	r.mu.Lock()
	snapshots := make([]Snapshot, len(r.bars))
	for i, b := range r.bars {
		snapshots[i] = Snapshot{
			Name:        b.name,
			Total:       b.total,
			Transferred: b.transferred.Load(),
			Finished:    b.finished.Load(),
		}
	}
	r.mu.Unlock()
	r.render(snapshots)
}
