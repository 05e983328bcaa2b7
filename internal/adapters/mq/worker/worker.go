// Package worker drains the capture queue into the snapshot store.
//
// A single Writer owns every write that originates from captures, so
// appends for one competition are applied in arrival order.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/okian/palmares/internal/adapters/mq/queue"
	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

// Store is the subset of the snapshot store the writer needs.
type Store interface {
	Append(ctx context.Context, competition string, snap model.Snapshot) error
	AppendRecord(ctx context.Context, journal string, raw json.RawMessage) error
}

// Queue defines how the writer receives captures.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Capture
}

// Stats counts what the writer has done so far.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Writer applies captures to the store one at a time.
type Writer struct {
	queue Queue
	store Store
	name  string

	defaultSeason string
	defaultRound  string

	processed atomic.Int64
	failed    atomic.Int64

	started  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWriter creates a writer reading from q and writing to store.
func NewWriter(q Queue, store Store, opts ...Option) *Writer {
	w := &Writer{
		queue:         q,
		store:         store,
		name:          "writer",
		defaultSeason: "Unknown",
		defaultRound:  "Actual",
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run drains the queue until it is closed, ctx is canceled or Shutdown is
// called. It must be called at most once.
func (w *Writer) Run(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	defer close(w.done)

	captures := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case c, ok := <-captures:
			if !ok {
				return
			}
			if err := w.Apply(ctx, c); err != nil {
				w.failed.Add(1)
				metrics.RecordCaptureFailed(string(c.Type))
				w.logger.Error(ctx, "capture write failed",
					logger.String("capture_id", c.ID),
					logger.String("type", string(c.Type)),
					logger.Error(err),
				)
				continue
			}
			w.processed.Add(1)
		}
	}
}

// Apply writes a single capture. League tables become snapshots; match and
// award records are journaled as received.
func (w *Writer) Apply(ctx context.Context, c queue.Capture) error { //nolint:gocritic // hugeParam: Capture is passed by value for channel semantics
	switch c.Type {
	case model.CaptureLeagueTable:
		snap := c.Snapshot(w.defaultSeason, w.defaultRound)
		if err := w.store.Append(ctx, snap.Competition, snap); err != nil {
			return fmt.Errorf("append %s: %w", snap.Competition, err)
		}
		w.logger.Debug(ctx, "snapshot appended",
			logger.String("competition", snap.Competition),
			logger.String("season", snap.Season),
			logger.String("round", snap.Round),
			logger.Int("teams", len(snap.Standings)),
		)
		return nil
	case model.CaptureMatch:
		return w.journal(ctx, repository.JournalStats, c)
	case model.CaptureAward:
		return w.journal(ctx, repository.JournalAwards, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
}

func (w *Writer) journal(ctx context.Context, journal string, c queue.Capture) error { //nolint:gocritic // hugeParam
	if err := w.store.AppendRecord(ctx, journal, c.Raw); err != nil {
		return fmt.Errorf("journal %s: %w", journal, err)
	}
	return nil
}

// Stats returns the processed and failed counters.
func (w *Writer) Stats() Stats {
	return Stats{Processed: w.processed.Load(), Failed: w.failed.Load()}
}

// Shutdown stops the writer and waits for the current capture to finish.
func (w *Writer) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	if !w.started.Load() {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *Writer) Done() <-chan struct{} { return w.done }
