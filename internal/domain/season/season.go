// Package season selects the authoritative snapshot of a season from an
// append-ordered competition history.
package season

import (
	"sort"

	"github.com/okian/palmares/internal/domain/model"
)

// Policy picks between the strict latest rule and the stable rule.
type Policy string

const (
	// PolicyLatest returns the last-appended snapshot of the season.
	PolicyLatest Policy = "latest"
	// PolicyStable prefers a Final, then a Mid-season, then the latest.
	PolicyStable Policy = "stable"
)

// ParsePolicy maps a query value to a Policy. Empty means latest.
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case "", PolicyLatest:
		return PolicyLatest, true
	case PolicyStable:
		return PolicyStable, true
	}
	return "", false
}

// Latest returns the snapshot with the greatest index whose season equals s.
func Latest(history []model.Snapshot, s string) (model.Snapshot, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Season == s {
			return history[i], true
		}
	}
	return model.Snapshot{}, false
}

// Stable returns the latest Final of season s, else its latest Mid-season,
// else Latest.
func Stable(history []model.Snapshot, s string) (model.Snapshot, bool) {
	final, mid, latest := -1, -1, -1
	for i, snap := range history {
		if snap.Season != s {
			continue
		}
		latest = i
		switch snap.Round {
		case model.RoundFinal:
			final = i
		case model.RoundMidSeason:
			mid = i
		}
	}
	for _, idx := range []int{final, mid, latest} {
		if idx >= 0 {
			return history[idx], true
		}
	}
	return model.Snapshot{}, false
}

// Select applies policy p.
func Select(history []model.Snapshot, s string, p Policy) (model.Snapshot, bool) {
	if p == PolicyStable {
		return Stable(history, s)
	}
	return Latest(history, s)
}

// Seasons returns the distinct seasons of history in ascending order with
// the all-time sentinel last.
func Seasons(history []model.Snapshot) []string {
	seen := make(map[string]struct{}, len(history))
	out := make([]string, 0, len(history))
	for _, snap := range history {
		if _, ok := seen[snap.Season]; ok {
			continue
		}
		seen[snap.Season] = struct{}{}
		out = append(out, snap.Season)
	}
	Sort(out)
	return out
}

// Sort orders season labels ascending with the all-time sentinel last.
func Sort(seasons []string) {
	sort.SliceStable(seasons, func(i, j int) bool {
		a, b := seasons[i], seasons[j]
		if a == model.SeasonAllTime || b == model.SeasonAllTime {
			return b == model.SeasonAllTime && a != model.SeasonAllTime
		}
		return a < b
	})
}
