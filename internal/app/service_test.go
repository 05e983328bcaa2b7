package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/palmares/internal/adapters/repository"
	service "github.com/okian/palmares/internal/app"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/season"
	. "github.com/smartystreets/goconvey/convey"
)

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newStore(t *testing.T) *repository.FileStore {
	store, err := repository.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	return store
}

func leagueCapture(id, league, s, round string, top string) model.Capture {
	return model.Capture{
		ID:     id,
		Type:   model.CaptureLeagueTable,
		League: league,
		Season: s,
		Round:  round,
		Standings: []model.TeamRecord{
			{Team: top, Rank: 1, Points: 80},
			{Team: "Runner", Rank: 2, Points: 70},
		},
	}
}

// blockingStore holds every Append until release is closed.
type blockingStore struct {
	repository.Store
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Append(ctx context.Context, competition string, snap model.Snapshot) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return b.Store.Append(ctx, competition, snap)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(newStore(t))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it reports not started", func() {
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When enqueueing before starting", func() {
			_, err := svc.Enqueue(context.Background(), leagueCapture("a", "La Liga", "23/24", "", "Madrid"))

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When started, stopped and started again", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then captures are still accepted", func() {
				res, err := svc.Enqueue(ctx, leagueCapture("a", "La Liga", "23/24", "", "Madrid"))
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
			})
		})
	})
}

func TestService_Enqueue(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		store := newStore(t)
		svc := service.New(store, service.WithDefaults("24/25", "Actual"))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a league table is enqueued", func() {
			res, err := svc.Enqueue(ctx, leagueCapture("cap-1", "La Liga", "", "", "Real Madrid"))
			So(err, ShouldBeNil)

			Convey("Then the writer appends it with default labels", func() {
				So(res.ID, ShouldEqual, "cap-1")
				So(eventually(func() bool {
					h, _ := store.ReadAll(ctx, "La Liga")
					return len(h) == 1
				}), ShouldBeTrue)
				h, _ := store.ReadAll(ctx, "La Liga")
				So(h[0].Season, ShouldEqual, "24/25")
				So(h[0].Round, ShouldEqual, "Actual")
			})
		})

		Convey("When the same capture is replayed", func() {
			_, err := svc.Enqueue(ctx, leagueCapture("cap-1", "La Liga", "23/24", "", "Real Madrid"))
			So(err, ShouldBeNil)
			res, err := svc.Enqueue(ctx, leagueCapture("cap-1", "La Liga", "23/24", "", "Real Madrid"))

			Convey("Then it is reported as duplicate and stored once", func() {
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeTrue)
				So(eventually(func() bool { return svc.GetStats()["processed"] == int64(1) }), ShouldBeTrue)
				h, _ := store.ReadAll(ctx, "La Liga")
				So(h, ShouldHaveLength, 1)
			})
		})

		Convey("When a capture has no id", func() {
			res, err := svc.Enqueue(ctx, leagueCapture("", "La Liga", "23/24", "", "Real Madrid"))

			Convey("Then an id is assigned", func() {
				So(err, ShouldBeNil)
				So(res.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When a capture has an unknown type", func() {
			_, err := svc.Enqueue(ctx, model.Capture{ID: "x", Type: "poster"})

			Convey("Then it is rejected as invalid", func() {
				So(errors.Is(err, service.ErrInvalidCapture), ShouldBeTrue)
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service whose store blocks and whose queue holds one capture", t, func() {
		ctx := context.Background()
		store := &blockingStore{Store: newStore(t), entered: make(chan struct{}, 1), release: make(chan struct{})}
		svc := service.New(store, service.WithQueueSize(1))
		So(svc.Start(ctx), ShouldBeNil)

		_, err := svc.Enqueue(ctx, leagueCapture("c1", "La Liga", "23/24", "", "A"))
		So(err, ShouldBeNil)
		<-store.entered
		_, err = svc.Enqueue(ctx, leagueCapture("c2", "La Liga", "23/24", "", "A"))
		So(err, ShouldBeNil)
		So(eventually(func() bool { return svc.GetStats()["queueLength"] == 0 }), ShouldBeTrue)
		_, err = svc.Enqueue(ctx, leagueCapture("c3", "La Liga", "23/24", "", "A"))
		So(err, ShouldBeNil)

		Convey("When another capture arrives", func() {
			_, err := svc.Enqueue(ctx, leagueCapture("c4", "La Liga", "23/24", "", "A"))

			Convey("Then it is refused and can be retried later", func() {
				So(errors.Is(err, service.ErrQueueFull), ShouldBeTrue)
				close(store.release)
				So(eventually(func() bool {
					res, err := svc.Enqueue(ctx, leagueCapture("c4", "La Liga", "23/24", "", "A"))
					return err == nil && !res.Duplicate
				}), ShouldBeTrue)
				svc.Stop()
				h, _ := store.ReadAll(ctx, "La Liga")
				So(h, ShouldHaveLength, 4)
			})
		})
	})
}

func TestService_Reads(t *testing.T) {
	Convey("Given a store with league and cup histories", t, func() {
		ctx := context.Background()
		store := newStore(t)
		svc := service.New(store)

		league := func(s, round, top string) model.Snapshot {
			return leagueCapture("", "La Liga", s, round, top).Snapshot("", "")
		}
		So(store.Append(ctx, "La Liga", league("22/23", model.RoundFinal, "Barcelona")), ShouldBeNil)
		So(store.Append(ctx, "La Liga", league("23/24", model.RoundMidSeason, "Girona")), ShouldBeNil)
		So(store.Append(ctx, "La Liga", league("23/24", model.RoundFinal, "Real Madrid")), ShouldBeNil)
		So(store.Append(ctx, "La Liga", league("23/24", "Jornada 3", "Atletico")), ShouldBeNil)

		cup := model.Snapshot{
			Competition: "Copa del Rey", Season: "23/24", Kind: model.KindCup,
			Rounds: []model.CupRound{{Name: model.RoundFinal, Matches: []model.MatchRecord{
				{Home: "Athletic Club", Away: "Mallorca", HomeScore: 1, AwayScore: 1, Note: "Athletic Club win on penalties"},
			}}},
		}
		So(store.Append(ctx, "Copa del Rey", cup), ShouldBeNil)
		ambiguous := cup
		ambiguous.Season = "22/23"
		ambiguous.Rounds = []model.CupRound{{Name: model.RoundFinal, Matches: []model.MatchRecord{
			{Home: "Real Madrid", Away: "Osasuna", HomeScore: 2, AwayScore: 2},
		}}}
		So(store.Append(ctx, "Copa del Rey", ambiguous), ShouldBeNil)

		general := league("23/24", model.RoundCombined, "Real Madrid")
		general.Competition = model.GeneralCompetition
		So(store.Replace(ctx, model.GeneralCompetition, []model.Snapshot{general}), ShouldBeNil)

		Convey("When listing competitions and seasons", func() {
			names, err := svc.Competitions(ctx)
			So(err, ShouldBeNil)
			seasons, err := svc.Seasons(ctx, "La Liga")
			So(err, ShouldBeNil)

			Convey("Then every stored competition is listed", func() {
				So(names, ShouldResemble, []string{"Copa del Rey", "General", "La Liga"})
				So(seasons, ShouldResemble, []string{"22/23", "23/24"})
			})
		})

		Convey("When selecting the current snapshot", func() {
			latest, err := svc.Current(ctx, "La Liga", "23/24", season.PolicyLatest)
			So(err, ShouldBeNil)
			stable, err := svc.Current(ctx, "La Liga", "23/24", season.PolicyStable)
			So(err, ShouldBeNil)
			implicit, err := svc.Current(ctx, "La Liga", "", season.PolicyLatest)
			So(err, ShouldBeNil)
			_, missing := svc.Current(ctx, "La Liga", "19/20", season.PolicyLatest)
			_, empty := svc.Current(ctx, "Serie A", "", season.PolicyLatest)

			Convey("Then each policy picks its snapshot", func() {
				So(latest.Round, ShouldEqual, "Jornada 3")
				So(stable.Round, ShouldEqual, model.RoundFinal)
				So(implicit.Season, ShouldEqual, "23/24")
				So(errors.Is(missing, service.ErrNotFound), ShouldBeTrue)
				So(errors.Is(empty, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing champions", func() {
			liga, err := svc.Champions(ctx, "La Liga")
			So(err, ShouldBeNil)
			copa, err := svc.Champions(ctx, "Copa del Rey")
			So(err, ShouldBeNil)

			Convey("Then decided seasons yield titles and the level final without a named winner does not", func() {
				So(liga, ShouldHaveLength, 2)
				So(liga[0].Winner.Name, ShouldEqual, "Real Madrid")
				So(liga[1].Winner.Name, ShouldEqual, "Barcelona")
				So(copa, ShouldHaveLength, 1)
				So(copa[0].Winner.Name, ShouldEqual, "Athletic Club")
			})
		})

		Convey("When building the trophy cabinet", func() {
			cabinet, err := svc.Trophies(ctx)
			So(err, ShouldBeNil)

			Convey("Then the aggregate competition is left out", func() {
				So(cabinet, ShouldHaveLength, 3)
				for _, row := range cabinet {
					So(row.Breakdown, ShouldNotContainKey, model.GeneralCompetition)
					So(row.Total, ShouldEqual, 1)
				}
			})
		})
	})
}
