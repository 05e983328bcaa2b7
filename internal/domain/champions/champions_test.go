package champions_test

import (
	"testing"

	"github.com/okian/palmares/internal/domain/champions"
	"github.com/okian/palmares/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func cupFinal(competition, s string, m model.MatchRecord) model.Snapshot {
	return model.Snapshot{
		Competition: competition,
		Season:      s,
		Kind:        model.KindCup,
		Rounds: []model.CupRound{
			{Name: "Semifinal", Matches: []model.MatchRecord{{Home: "X", Away: "Y", HomeScore: 9}}},
			{Name: model.RoundFinal, Matches: []model.MatchRecord{m}},
		},
	}
}

func TestResolve(t *testing.T) {
	Convey("Given cup finals", t, func() {
		Convey("When the away side scores more", func() {
			title, outcome := champions.Resolve(cupFinal("Copa del Rey", "24/25", model.MatchRecord{Home: "Barcelona", Away: "Real Madrid", HomeScore: 1, AwayScore: 2, AwayLogo: "rm.png"}))

			Convey("Then the away side wins", func() {
				So(outcome, ShouldEqual, champions.Decided)
				So(title.Winner, ShouldResemble, champions.Side{Name: "Real Madrid", Logo: "rm.png"})
				So(title.RunnerUp.Name, ShouldEqual, "Barcelona")
				So(title.Kind, ShouldEqual, model.KindCup)
			})
		})

		Convey("When the score is level and the note names a side in another case", func() {
			title, outcome := champions.Resolve(cupFinal("FA Cup", "24/25", model.MatchRecord{Home: "Crystal Palace", Away: "Man City", HomeScore: 1, AwayScore: 1, Note: "MAN CITY wins 4-3 on penalties"}))

			Convey("Then the named side wins", func() {
				So(outcome, ShouldEqual, champions.Decided)
				So(title.Winner.Name, ShouldEqual, "Man City")
			})
		})

		Convey("When the note names both sides", func() {
			title, _ := champions.Resolve(cupFinal("DFB Pokal", "24/25", model.MatchRecord{Home: "Bayern", Away: "Leverkusen", HomeScore: 0, AwayScore: 0, Note: "Leverkusen beat Bayern on penalties"}))

			Convey("Then home is checked first", func() {
				So(title.Winner.Name, ShouldEqual, "Bayern")
			})
		})

		Convey("When the score is level and the note names neither side", func() {
			_, outcome := champions.Resolve(cupFinal("Coppa Italia", "24/25", model.MatchRecord{Home: "Milan", Away: "Bologna", HomeScore: 2, AwayScore: 2, Note: "penalties"}))

			Convey("Then no winner is determined", func() {
				So(outcome, ShouldEqual, champions.Unresolved)
			})
		})

		Convey("When the cup has no Final round", func() {
			snap := model.Snapshot{Competition: "Copa del Rey", Season: "25/26", Kind: model.KindCup, Rounds: []model.CupRound{{Name: "Octavos"}}}
			_, outcome := champions.Resolve(snap)
			So(outcome, ShouldEqual, champions.Undecided)
		})
	})

	Convey("Given league snapshots", t, func() {
		standings := []model.TeamRecord{{Team: "Napoli", Rank: 1, Logo: "n.png"}, {Team: "Inter", Rank: 2}}

		Convey("When the snapshot is a Final", func() {
			title, outcome := champions.Resolve(model.Snapshot{Competition: "Serie A", Season: "24/25", Round: model.RoundFinal, Kind: model.KindLeague, Standings: standings})
			So(outcome, ShouldEqual, champions.Decided)
			So(title.Winner.Name, ShouldEqual, "Napoli")
			So(title.RunnerUp.Name, ShouldEqual, "Inter")
		})

		Convey("When the snapshot is a Mid-season", func() {
			_, outcome := champions.Resolve(model.Snapshot{Season: "24/25", Round: model.RoundMidSeason, Standings: standings})
			So(outcome, ShouldEqual, champions.Undecided)
		})
	})
}

func TestHistoryAndCabinet(t *testing.T) {
	Convey("Given a cup history with two snapshots for one season", t, func() {
		history := []model.Snapshot{
			cupFinal("Copa del Rey", "22/23", model.MatchRecord{Home: "Real Madrid", Away: "Osasuna", HomeScore: 2, AwayScore: 1}),
			cupFinal("Copa del Rey", "23/24", model.MatchRecord{Home: "Athletic", Away: "Mallorca", HomeScore: 1, AwayScore: 1, Note: "Athletic on penalties"}),
			cupFinal("Copa del Rey", "23/24", model.MatchRecord{Home: "Athletic", Away: "Mallorca", HomeScore: 1, AwayScore: 1, Note: "Mallorca on penalties"}),
			cupFinal("Copa del Rey", "24/25", model.MatchRecord{Home: "Barcelona", Away: "Real Madrid", HomeScore: 3, AwayScore: 3}),
		}

		titles, ambiguous := champions.History(history)

		Convey("Then titles are newest first with one per season", func() {
			So(titles, ShouldHaveLength, 2)
			So(titles[0].Season, ShouldEqual, "23/24")
			So(titles[0].Winner.Name, ShouldEqual, "Mallorca")
			So(titles[1].Season, ShouldEqual, "22/23")
		})

		Convey("Then the unresolved final is reported", func() {
			So(ambiguous, ShouldHaveLength, 1)
			So(ambiguous[0].Season, ShouldEqual, "24/25")
		})

		Convey("When counting trophies across competitions", func() {
			league := []model.Snapshot{
				{Competition: "La Liga", Season: "22/23", Round: model.RoundFinal, Kind: model.KindLeague, Standings: []model.TeamRecord{{Team: "Barcelona", Rank: 1}}},
				{Competition: "La Liga", Season: "23/24", Round: model.RoundFinal, Kind: model.KindLeague, Standings: []model.TeamRecord{{Team: "Real Madrid", Rank: 1, Logo: "rm.png"}}},
			}
			leagueTitles, _ := champions.History(league)
			cabinet := champions.Cabinet(append(titles, leagueTitles...))

			Convey("Then totals are descending with a per-competition breakdown", func() {
				So(cabinet[0].Team, ShouldEqual, "Real Madrid")
				So(cabinet[0].Total, ShouldEqual, 2)
				So(cabinet[0].Breakdown, ShouldResemble, map[string]int{"Copa del Rey": 1, "La Liga": 1})
				So(cabinet[0].Logo, ShouldEqual, "rm.png")
				So(cabinet, ShouldHaveLength, 3)
				So(cabinet[1].Team, ShouldEqual, "Mallorca")
				So(cabinet[2].Team, ShouldEqual, "Barcelona")
			})
		})
	})
}

func TestHistoryLevelFinalAfterDecided(t *testing.T) {
	Convey("Given a season decided earlier and re-captured later with a level final", t, func() {
		history := []model.Snapshot{
			cupFinal("Coppa Italia", "24/25", model.MatchRecord{Home: "Milan", Away: "Bologna", HomeScore: 0, AwayScore: 1}),
			cupFinal("Coppa Italia", "24/25", model.MatchRecord{Home: "Milan", Away: "Bologna", HomeScore: 1, AwayScore: 1}),
			cupFinal("Coppa Italia", "25/26", model.MatchRecord{Home: "Inter", Away: "Lazio", HomeScore: 2, AwayScore: 2}),
			cupFinal("Coppa Italia", "25/26", model.MatchRecord{Home: "Inter", Away: "Lazio", HomeScore: 2, AwayScore: 2, Note: "replayed"}),
		}

		titles, ambiguous := champions.History(history)

		Convey("Then the earlier decided snapshot supplies the title", func() {
			So(titles, ShouldHaveLength, 1)
			So(titles[0].Season, ShouldEqual, "24/25")
			So(titles[0].Winner.Name, ShouldEqual, "Bologna")
		})

		Convey("Then only the season without any decided snapshot is ambiguous, once", func() {
			So(ambiguous, ShouldHaveLength, 1)
			So(ambiguous[0].Season, ShouldEqual, "25/26")
			So(ambiguous[0].Note, ShouldEqual, "replayed")
		})
	})
}
