// Package aggregate merges league competitions into the synthetic General
// history: one Combined snapshot per season plus one all-time snapshot.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/ranking"
	"github.com/okian/palmares/internal/domain/season"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"
)

var tracer = otel.Tracer("github.com/okian/palmares/internal/domain/aggregate")

// Store is the part of the snapshot store the aggregator needs.
type Store interface {
	ReadAll(ctx context.Context, competition string) ([]model.Snapshot, error)
	Replace(ctx context.Context, competition string, history []model.Snapshot) error
}

// Skip records a competition left out of a run.
type Skip struct {
	Competition string
	Reason      string
	Err         error
}

// Result is the outcome of one aggregation.
type Result struct {
	RunID     string
	Snapshots []model.Snapshot
	Skipped   []Skip
}

// Aggregator builds the General history from league histories.
type Aggregator struct {
	store      Store
	leagues    []string
	general    string
	seasonTop  int
	allTimeTop int
	log        logger.Logger
}

// New creates an Aggregator reading from and writing to store.
func New(store Store, opts ...Option) (*Aggregator, error) {
	a := defaults()
	a.store = store
	for _, opt := range opts {
		opt(a)
	}
	if len(a.leagues) == 0 {
		return nil, ErrNoLeagues
	}
	a.log = a.log.Named("aggregate")
	return a, nil
}

// General returns the name of the synthetic competition.
func (a *Aggregator) General() string { return a.general }

// Run builds the General history and replaces the stored one. Unreadable
// leagues are skipped; only a failed write is returned. A run that finds
// no league data writes nothing.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := a.Build(ctx)
	log := a.log.With(logger.String("run_id", res.RunID))

	if len(res.Snapshots) == 0 {
		log.Warn(ctx, "no league data found, general history left unchanged", logger.Int("skipped", len(res.Skipped)))
		metrics.RecordAggregationRun("empty", msSince(start))
		return res, nil
	}
	if err := a.store.Replace(ctx, a.general, res.Snapshots); err != nil {
		metrics.RecordAggregationRun("error", msSince(start))
		log.Error(ctx, "general history write failed", logger.String("competition", a.general), logger.Error(err))
		return res, fmt.Errorf("write %s: %w", a.general, err)
	}
	metrics.RecordAggregationRun("ok", msSince(start))
	log.Info(ctx, "general history written",
		logger.String("competition", a.general),
		logger.Int("snapshots", len(res.Snapshots)),
		logger.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// Build computes the General history without writing it. Output is a pure
// function of the stored league histories.
func (a *Aggregator) Build(ctx context.Context) Result {
	ctx, span := tracer.Start(ctx, "aggregate.Build")
	defer span.End()

	res := Result{RunID: uuid.NewString()}
	log := a.log.With(logger.String("run_id", res.RunID))

	histories := make([]competitionHistory, 0, len(a.leagues))
	for _, league := range a.leagues {
		h, err := a.store.ReadAll(ctx, league)
		if err != nil {
			reason := skipReason(err)
			res.Skipped = append(res.Skipped, Skip{Competition: league, Reason: reason, Err: err})
			metrics.RecordAggregationSkipped(league, reason)
			log.Warn(ctx, "league skipped", logger.String("competition", league), logger.String("reason", reason), logger.Error(err))
			continue
		}
		histories = append(histories, competitionHistory{name: league, snapshots: leaguesOnly(h)})
	}

	seasons := distinctSeasons(histories)
	all := newAllTime()
	for _, s := range seasons {
		snap := a.combineSeason(histories, s)
		res.Snapshots = append(res.Snapshots, snap.Snapshot)
		all.add(snap)
	}
	if len(seasons) > 0 {
		res.Snapshots = append(res.Snapshots, all.snapshot(a.general, a.allTimeTop))
	}

	span.SetAttributes(
		attribute.Int("seasons", len(seasons)),
		attribute.Int("skipped", len(res.Skipped)),
	)
	metrics.UpdateAggregationSeasons(len(seasons))
	log.Debug(ctx, "aggregation built", logger.Strings("seasons", seasons), logger.Int("leagues", len(histories)))
	return res
}

type competitionHistory struct {
	name      string
	snapshots []model.Snapshot
}

func leaguesOnly(h []model.Snapshot) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(h))
	for _, s := range h {
		if !s.IsCup() {
			out = append(out, s)
		}
	}
	return out
}

func distinctSeasons(histories []competitionHistory) []string {
	var all []model.Snapshot
	for _, h := range histories {
		all = append(all, h.snapshots...)
	}
	seasons := season.Seasons(all)
	out := seasons[:0]
	for _, s := range seasons {
		if s != model.SeasonAllTime {
			out = append(out, s)
		}
	}
	return out
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrCorruptStore):
		return "corrupt"
	case errors.Is(err, repository.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}

// seasonResult keeps the untruncated player tables for all-time merging.
type seasonResult struct {
	model.Snapshot
	scorers []model.PlayerStat
	assists []model.PlayerStat
}

func (a *Aggregator) combineSeason(histories []competitionHistory, s string) seasonResult {
	var teams []model.TeamRecord
	var scorers, assists []model.PlayerStat
	for _, h := range histories {
		snap, ok := season.Stable(h.snapshots, s)
		if !ok {
			continue
		}
		for _, t := range snap.Standings {
			t.Origin = h.name
			t.SeasonsCount = 0
			teams = append(teams, t)
		}
		scorers = appendTagged(scorers, snap.TopScorers, model.StatGoals, h.name, s)
		assists = appendTagged(assists, snap.TopAssists, model.StatAssists, h.name, s)
	}

	rankedScorers := ranking.Stats(scorers, model.StatGoals)
	rankedAssists := ranking.Stats(assists, model.StatAssists)
	return seasonResult{
		Snapshot: model.Snapshot{
			Competition: a.general,
			Season:      s,
			Round:       model.RoundCombined,
			Kind:        model.KindLeague,
			Standings:   ranking.Standings(teams),
			TopScorers:  clonePlayers(ranking.Truncate(rankedScorers, a.seasonTop)),
			TopAssists:  clonePlayers(ranking.Truncate(rankedAssists, a.seasonTop)),
		},
		scorers: rankedScorers,
		assists: rankedAssists,
	}
}

func appendTagged(dst, src []model.PlayerStat, stat model.Stat, origin, s string) []model.PlayerStat {
	for _, p := range src {
		p = p.WithValue(stat, p.Value(stat))
		p.Origin = origin
		p.Season = s
		p.Teams = nil
		dst = append(dst, p)
	}
	return dst
}

func clonePlayers(in []model.PlayerStat) []model.PlayerStat {
	out := make([]model.PlayerStat, len(in))
	copy(out, in)
	return out
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

// teamKey identifies a club across seasons: the same name in two leagues
// is two clubs.
type teamKey struct {
	team   string
	origin string
}

type playerTotal struct {
	stat  model.PlayerStat
	teams map[string]struct{}
}

// allTime accumulates season results in first-seen order.
type allTime struct {
	teamIndex map[teamKey]int
	teams     []model.TeamRecord

	scorers playerTable
	assists playerTable
}

func newAllTime() *allTime {
	return &allTime{
		teamIndex: map[teamKey]int{},
		scorers:   playerTable{stat: model.StatGoals, index: map[string]int{}},
		assists:   playerTable{stat: model.StatAssists, index: map[string]int{}},
	}
}

func (at *allTime) add(s seasonResult) {
	for _, t := range s.Standings {
		key := teamKey{team: norm.NFC.String(t.Team), origin: t.Origin}
		i, ok := at.teamIndex[key]
		if !ok {
			at.teamIndex[key] = len(at.teams)
			at.teams = append(at.teams, model.TeamRecord{Team: t.Team, Logo: t.Logo, Origin: t.Origin})
			i = len(at.teams) - 1
		}
		rec := &at.teams[i]
		rec.Add(t)
		rec.SeasonsCount++
		if rec.Logo == "" {
			rec.Logo = t.Logo
		}
	}
	at.scorers.add(s.scorers)
	at.assists.add(s.assists)
}

func (at *allTime) snapshot(general string, top int) model.Snapshot {
	return model.Snapshot{
		Competition: general,
		Season:      model.SeasonAllTime,
		Round:       model.RoundCombined,
		Kind:        model.KindLeague,
		Standings:   ranking.Standings(at.teams),
		TopScorers:  at.scorers.ranked(top),
		TopAssists:  at.assists.ranked(top),
	}
}

// playerTable merges players by name only, whatever team they played for.
type playerTable struct {
	stat    model.Stat
	index   map[string]int
	players []playerTotal
}

func (pt *playerTable) add(players []model.PlayerStat) {
	for _, p := range players {
		key := norm.NFC.String(p.Player)
		i, ok := pt.index[key]
		if !ok {
			pt.index[key] = len(pt.players)
			first := model.PlayerStat{Player: p.Player, Team: p.Team, TeamLogo: p.TeamLogo, Origin: p.Origin}
			pt.players = append(pt.players, playerTotal{stat: first.WithValue(pt.stat, 0), teams: map[string]struct{}{}})
			i = len(pt.players) - 1
		}
		total := &pt.players[i]
		total.stat = total.stat.WithValue(pt.stat, total.stat.Value(pt.stat)+p.Value(pt.stat))
		if p.Team == "" {
			continue
		}
		if _, seen := total.teams[p.Team]; !seen {
			total.teams[p.Team] = struct{}{}
			total.stat.Teams = append(total.stat.Teams, p.Team)
		}
	}
}

func (pt *playerTable) ranked(top int) []model.PlayerStat {
	out := make([]model.PlayerStat, len(pt.players))
	for i, p := range pt.players {
		out[i] = p.stat
	}
	return ranking.Truncate(ranking.Stats(out, pt.stat), top)
}
