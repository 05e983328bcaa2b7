// Package service wires the capture pipeline and the read side of the
// snapshot store behind the operations used by the HTTP API and MCP tools.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	capturequeue "github.com/okian/palmares/internal/adapters/mq/queue"
	"github.com/okian/palmares/internal/adapters/mq/worker"
	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/champions"
	"github.com/okian/palmares/internal/domain/dedupe"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

const drainTimeout = 10 * time.Second

// EnqueueResult tells the caller what happened to a capture.
type EnqueueResult struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Service implements the API dependencies for palmares.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   *capturequeue.InMemoryQueue
	writer  *worker.Writer
	cancel  context.CancelFunc

	queueSize     int
	dedupeSize    int
	defaultSeason string
	defaultRound  string
	general       string

	started bool
	logger  logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		queueSize:     1000,
		dedupeSize:    100_000,
		defaultSeason: "Unknown",
		defaultRound:  "Actual",
		general:       model.GeneralCompetition,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the capture queue and launches the single writer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = capturequeue.NewInMemoryQueue(capturequeue.WithCapacity(s.queueSize))
	s.writer = worker.NewWriter(s.queue, s.store,
		worker.WithDefaults(s.defaultSeason, s.defaultRound),
		worker.WithLogger(s.logger),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.writer.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "palmares service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and lets the writer drain what was accepted. The
// store stays open; its owner closes it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping palmares service...")

	_ = s.queue.Close()
	select {
	case <-s.writer.Done():
	case <-time.After(drainTimeout):
		s.logger.Warn(ctx, "writer did not drain in time", logger.Int("pending", s.queue.Len(ctx)))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "palmares service stopped")
}

// Enqueue accepts a capture for the writer. Captures without an id get a
// fresh one. A replayed id is reported as duplicate and not queued again.
// When the queue is full the id is forgotten so the producer can retry.
func (s *Service) Enqueue(ctx context.Context, c model.Capture) (EnqueueResult, error) { //nolint:gocritic // hugeParam
	if !c.Type.Valid() {
		return EnqueueResult{}, fmt.Errorf("%w: unknown type %q", ErrInvalidCapture, c.Type)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return EnqueueResult{}, ErrNotStarted
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	metrics.RecordCaptureReceived(string(c.Type))

	if s.deduper.SeenAndRecord(ctx, c.ID) {
		metrics.RecordCaptureDuplicate()
		s.logger.Debug(ctx, "duplicate capture skipped", logger.String("capture_id", c.ID))
		return EnqueueResult{ID: c.ID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, c); err != nil {
		s.deduper.Unrecord(ctx, c.ID)
		if errors.Is(err, capturequeue.ErrFull) {
			return EnqueueResult{ID: c.ID}, ErrQueueFull
		}
		return EnqueueResult{ID: c.ID}, fmt.Errorf("enqueue %s: %w", c.ID, err)
	}
	return EnqueueResult{ID: c.ID}, nil
}

// Competitions lists every stored competition.
func (s *Service) Competitions(ctx context.Context) ([]string, error) {
	return s.store.Competitions(ctx)
}

// History returns the full history of competition.
func (s *Service) History(ctx context.Context, competition string) ([]model.Snapshot, error) {
	return s.store.ReadAll(ctx, competition)
}

// Seasons returns the seasons present in competition's history.
func (s *Service) Seasons(ctx context.Context, competition string) ([]string, error) {
	history, err := s.store.ReadAll(ctx, competition)
	if err != nil {
		return nil, err
	}
	return season.Seasons(history), nil
}

// Current selects the snapshot of a season under policy. An empty season
// means the season of the last-appended snapshot.
func (s *Service) Current(ctx context.Context, competition, seasonLabel string, policy season.Policy) (model.Snapshot, error) {
	history, err := s.store.ReadAll(ctx, competition)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(history) == 0 {
		return model.Snapshot{}, fmt.Errorf("%w: %s has no history", ErrNotFound, competition)
	}
	if seasonLabel == "" {
		seasonLabel = history[len(history)-1].Season
	}
	snap, ok := season.Select(history, seasonLabel, policy)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s has no season %s", ErrNotFound, competition, seasonLabel)
	}
	return snap, nil
}

// Champions lists the titles of competition, newest first. Level finals
// that name no winner are logged and counted.
func (s *Service) Champions(ctx context.Context, competition string) ([]champions.Title, error) {
	history, err := s.store.ReadAll(ctx, competition)
	if err != nil {
		return nil, err
	}
	titles, ambiguous := champions.History(history)
	s.reportAmbiguous(ctx, ambiguous)
	return titles, nil
}

// Trophies builds the trophy cabinet over every stored competition except
// the synthetic aggregate. Unreadable competitions are skipped.
func (s *Service) Trophies(ctx context.Context) ([]champions.TeamTrophies, error) {
	names, err := s.store.Competitions(ctx)
	if err != nil {
		return nil, err
	}
	var all []champions.Title
	for _, name := range names {
		if repository.SafeName(name) == repository.SafeName(s.general) {
			continue
		}
		history, err := s.store.ReadAll(ctx, name)
		if err != nil {
			s.logger.Warn(ctx, "skipping unreadable competition",
				logger.String("competition", name), logger.Error(err))
			continue
		}
		titles, ambiguous := champions.History(history)
		s.reportAmbiguous(ctx, ambiguous)
		all = append(all, titles...)
	}
	return champions.Cabinet(all), nil
}

func (s *Service) reportAmbiguous(ctx context.Context, ambiguous []champions.Ambiguous) {
	for _, a := range ambiguous {
		metrics.RecordAmbiguousFinal(a.Competition)
		s.logger.Warn(ctx, "level final names no winner",
			logger.String("competition", a.Competition),
			logger.String("season", a.Season),
			logger.String("home", a.Home),
			logger.String("away", a.Away),
			logger.String("note", a.Note),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
	}

	if s.started {
		ws := s.writer.Stats()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["seenCaptures"] = s.deduper.Size()
		stats["processed"] = ws.Processed
		stats["failed"] = ws.Failed
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	return stats
}
