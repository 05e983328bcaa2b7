// Package reconcile rebuilds a competition's history from the rows it
// contributed to a General snapshot. It is a manual, destructive repair:
// nothing in the service runs it automatically.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/ranking"
	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/okian/palmares/internal/domain/reconcile")

// Recover extracts the rows tagged with competition from the latest
// General snapshot of season s. Tags are stripped and the rows re-ranked
// within the competition. The result is labelled Final.
//
// Player tables in a General snapshot are truncated, so players below the
// cut cannot be recovered.
func Recover(general []model.Snapshot, competition, s string) (model.Snapshot, error) {
	src, ok := season.Latest(general, s)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrNoGeneralSeason, s)
	}

	var teams []model.TeamRecord
	for _, t := range src.Standings {
		if t.Origin != competition {
			continue
		}
		t.Origin = ""
		t.SeasonsCount = 0
		teams = append(teams, t)
	}
	scorers := extract(src.TopScorers, model.StatGoals, competition)
	assists := extract(src.TopAssists, model.StatAssists, competition)
	if len(teams) == 0 && len(scorers) == 0 && len(assists) == 0 {
		return model.Snapshot{}, fmt.Errorf("%w: %s %s", ErrNoRows, competition, s)
	}

	return model.Snapshot{
		Competition: competition,
		Season:      s,
		Round:       model.RoundFinal,
		Kind:        model.KindLeague,
		Standings:   ranking.Standings(teams),
		TopScorers:  ranking.Stats(scorers, model.StatGoals),
		TopAssists:  ranking.Stats(assists, model.StatAssists),
	}, nil
}

func extract(players []model.PlayerStat, stat model.Stat, competition string) []model.PlayerStat {
	var out []model.PlayerStat
	for _, p := range players {
		if p.Origin != competition {
			continue
		}
		p = p.WithValue(stat, p.Value(stat))
		p.Origin = ""
		p.Season = ""
		p.Teams = nil
		out = append(out, p)
	}
	return out
}

// Rebuild returns the two-entry history [older, recovered]. older is the
// first Mid-season snapshot of current, else its first entry. An empty
// current history yields [recovered].
func Rebuild(current []model.Snapshot, recovered model.Snapshot) []model.Snapshot {
	if len(current) == 0 {
		return []model.Snapshot{recovered}
	}
	older := current[0]
	for _, s := range current {
		if s.Round == model.RoundMidSeason {
			older = s
			break
		}
	}
	return []model.Snapshot{older, recovered}
}

// Store is the part of the snapshot store a restore needs.
type Store interface {
	ReadAll(ctx context.Context, competition string) ([]model.Snapshot, error)
	Replace(ctx context.Context, competition string, history []model.Snapshot) error
}

// Request names the competition and season to restore. Without Confirm
// the restore only reports the history it would write.
type Request struct {
	Competition string
	Season      string
	General     string
	Confirm     bool
}

// Restorer runs restores against a store.
type Restorer struct {
	store Store
	log   logger.Logger
}

// NewRestorer creates a Restorer. A nil logger discards output.
func NewRestorer(store Store, log logger.Logger) *Restorer {
	if log == nil {
		log = logger.Nop()
	}
	return &Restorer{store: store, log: log.Named("reconcile")}
}

// Restore recovers req.Season of req.Competition from the General history
// and, when confirmed, overwrites the competition's store with the rebuilt
// history. It returns the rebuilt history either way. An unconfirmed
// request returns ErrNotConfirmed alongside the planned history.
func (r *Restorer) Restore(ctx context.Context, req Request) ([]model.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "reconcile.Restore", trace.WithAttributes(
		attribute.String("competition", req.Competition),
		attribute.String("season", req.Season),
		attribute.Bool("confirm", req.Confirm),
	))
	defer span.End()

	general := req.General
	if general == "" {
		general = model.GeneralCompetition
	}
	log := r.log.With(logger.String("competition", req.Competition), logger.String("season", req.Season))

	generalHistory, err := r.store.ReadAll(ctx, general)
	if err != nil {
		metrics.RecordReconcileRun("error")
		return nil, fmt.Errorf("read %s: %w", general, err)
	}
	recovered, err := Recover(generalHistory, req.Competition, req.Season)
	if err != nil {
		metrics.RecordReconcileRun("error")
		return nil, err
	}

	current, err := r.store.ReadAll(ctx, req.Competition)
	if errors.Is(err, repository.ErrCorruptStore) {
		log.Warn(ctx, "current history is corrupt, rebuilding from recovered snapshot only", logger.Error(err))
		current, err = nil, nil
	}
	if err != nil {
		metrics.RecordReconcileRun("error")
		return nil, fmt.Errorf("read %s: %w", req.Competition, err)
	}
	rebuilt := Rebuild(current, recovered)

	if !req.Confirm {
		metrics.RecordReconcileRun("refused")
		log.Info(ctx, "restore not confirmed, store left unchanged", logger.Int("snapshots", len(rebuilt)))
		return rebuilt, ErrNotConfirmed
	}

	log.Warn(ctx, "overwriting competition history",
		logger.Int("previous_snapshots", len(current)),
		logger.Int("snapshots", len(rebuilt)),
		logger.Int("recovered_teams", len(recovered.Standings)),
	)
	if err := r.store.Replace(ctx, req.Competition, rebuilt); err != nil {
		metrics.RecordReconcileRun("error")
		span.RecordError(err)
		return nil, fmt.Errorf("write %s: %w", req.Competition, err)
	}
	metrics.RecordReconcileRun("ok")
	return rebuilt, nil
}
