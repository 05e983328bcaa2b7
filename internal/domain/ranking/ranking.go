// Package ranking orders standings and player statistic tables.
//
// Both rankers return new slices and never modify their input.
package ranking

import (
	"sort"

	"github.com/okian/palmares/internal/domain/model"
)

// Standings orders teams by points, goal difference and goals for, all
// descending, and assigns dense ranks 1..N. Teams level on all three keep
// their input order; there is no further tie-break.
func Standings(teams []model.TeamRecord) []model.TeamRecord {
	out := make([]model.TeamRecord, len(teams))
	copy(out, teams)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		return a.GoalsFor > b.GoalsFor
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Stats orders players by stat descending and assigns plateau ranks: a
// player level with the previous one shares its rank, otherwise the rank
// is the 1-based position. [10,10,10,7,7,5] ranks as [1,1,1,4,4,6].
func Stats(players []model.PlayerStat, stat model.Stat) []model.PlayerStat {
	out := make([]model.PlayerStat, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value(stat) > out[j].Value(stat)
	})
	for i := range out {
		if i > 0 && out[i].Value(stat) == out[i-1].Value(stat) {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Truncate keeps the first n entries of a ranked list. Ties straddling the
// cut are not extended.
func Truncate(players []model.PlayerStat, n int) []model.PlayerStat {
	if n < 0 || len(players) <= n {
		return players
	}
	return players[:n]
}
