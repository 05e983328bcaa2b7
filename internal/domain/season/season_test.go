package season_test

import (
	"testing"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/season"
	. "github.com/smartystreets/goconvey/convey"
)

func snap(s, round string, points int) model.Snapshot {
	return model.Snapshot{
		Competition: "La Liga",
		Season:      s,
		Round:       round,
		Kind:        model.KindLeague,
		Standings:   []model.TeamRecord{{Team: "Girona", Points: points}},
	}
}

func TestSelection(t *testing.T) {
	Convey("Given a history with a Final followed by a new season", t, func() {
		history := []model.Snapshot{
			snap("25/26", model.RoundMidSeason, 40),
			snap("25/26", model.RoundFinal, 80),
			snap("26/27", model.RoundMidSeason, 20),
		}

		Convey("When selecting 25/26 with the stable policy", func() {
			got, ok := season.Stable(history, "25/26")

			Convey("Then the Final entry should be returned", func() {
				So(ok, ShouldBeTrue)
				So(got.Round, ShouldEqual, model.RoundFinal)
				So(got.Standings[0].Points, ShouldEqual, 80)
			})
		})

		Convey("When selecting 26/27 with the stable policy", func() {
			got, ok := season.Stable(history, "26/27")

			Convey("Then the only Mid-season entry should be returned", func() {
				So(ok, ShouldBeTrue)
				So(got.Round, ShouldEqual, model.RoundMidSeason)
			})
		})

		Convey("When selecting an absent season", func() {
			_, ok := season.Select(history, "19/20", season.PolicyStable)
			_, okLatest := season.Select(history, "19/20", season.PolicyLatest)

			Convey("Then nothing should be returned", func() {
				So(ok, ShouldBeFalse)
				So(okLatest, ShouldBeFalse)
			})
		})
	})

	Convey("Given a Mid-season appended after a Final", t, func() {
		history := []model.Snapshot{
			snap("24/25", model.RoundFinal, 70),
			snap("24/25", model.RoundMidSeason, 35),
			snap("24/25", "Actual", 36),
		}

		Convey("When selecting with the latest policy", func() {
			got, _ := season.Select(history, "24/25", season.PolicyLatest)
			So(got.Round, ShouldEqual, "Actual")
		})

		Convey("When selecting with the stable policy", func() {
			got, _ := season.Select(history, "24/25", season.PolicyStable)
			So(got.Round, ShouldEqual, model.RoundFinal)
		})
	})

	Convey("Given two Finals for one season", t, func() {
		history := []model.Snapshot{
			snap("23/24", model.RoundFinal, 70),
			snap("23/24", model.RoundFinal, 71),
		}

		Convey("Then the later Final wins", func() {
			got, _ := season.Stable(history, "23/24")
			So(got.Standings[0].Points, ShouldEqual, 71)
		})
	})

	Convey("Given a season with neither Final nor Mid-season", t, func() {
		history := []model.Snapshot{snap("22/23", "Jornada 10", 20), snap("22/23", "Jornada 11", 23)}

		Convey("Then the latest index is returned", func() {
			got, _ := season.Stable(history, "22/23")
			So(got.Round, ShouldEqual, "Jornada 11")
		})
	})
}

func TestSeasons(t *testing.T) {
	Convey("Given a mixed history", t, func() {
		history := []model.Snapshot{
			snap(model.SeasonAllTime, model.RoundCombined, 0),
			snap("25/26", "", 0),
			snap("23/24", "", 0),
			snap("25/26", "", 0),
			snap("24/25", "", 0),
		}

		Convey("Then seasons are distinct, ascending and the all-time label is last", func() {
			So(season.Seasons(history), ShouldResemble, []string{"23/24", "24/25", "25/26", model.SeasonAllTime})
		})
	})

	Convey("Given policy names", t, func() {
		p, ok := season.ParsePolicy("")
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, season.PolicyLatest)

		p, ok = season.ParsePolicy("stable")
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, season.PolicyStable)

		_, ok = season.ParsePolicy("oldest")
		So(ok, ShouldBeFalse)
	})
}
