// Package champions derives title winners from competition histories.
package champions

import (
	"sort"
	"strings"

	"github.com/okian/palmares/internal/domain/model"
	"golang.org/x/text/cases"
)

// Side is one finalist.
type Side struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// Title is one decided competition season.
type Title struct {
	Competition string     `json:"competition"`
	Season      string     `json:"season"`
	Kind        model.Kind `json:"type"`
	Winner      Side       `json:"winner"`
	RunnerUp    *Side      `json:"runner_up,omitempty"`
}

// Ambiguous describes a level cup final whose note names neither side.
type Ambiguous struct {
	Competition string `json:"competition"`
	Season      string `json:"season"`
	Home        string `json:"home"`
	Away        string `json:"away"`
	Note        string `json:"note,omitempty"`
}

// Outcome of resolving one snapshot.
type Outcome int

const (
	// Undecided means the snapshot holds no final result.
	Undecided Outcome = iota
	// Decided means a winner was found.
	Decided
	// Unresolved means a level final could not be attributed.
	Unresolved
)

// Resolve finds the title decided by snap. Cups are decided by the first
// match of the round named Final: the higher score wins and a level score
// goes to the side the note names, home checked first. Leagues are decided
// by a snapshot labelled Final: rank 1 wins, rank 2 is runner-up.
//
// The note check is a caseless substring match, so a team whose name is
// contained in the opponent's name can be picked wrongly.
func Resolve(snap model.Snapshot) (Title, Outcome) {
	title := Title{Competition: snap.Competition, Season: snap.Season, Kind: snap.Kind}
	if snap.IsCup() || len(snap.Rounds) > 0 {
		title.Kind = model.KindCup
		return resolveCup(snap, title)
	}
	if snap.Round != model.RoundFinal {
		return Title{}, Undecided
	}
	var winner, runnerUp *model.TeamRecord
	for i := range snap.Standings {
		switch snap.Standings[i].Rank {
		case 1:
			if winner == nil {
				winner = &snap.Standings[i]
			}
		case 2:
			if runnerUp == nil {
				runnerUp = &snap.Standings[i]
			}
		}
	}
	if winner == nil {
		return Title{}, Undecided
	}
	title.Kind = model.KindLeague
	title.Winner = Side{Name: winner.Team, Logo: winner.Logo}
	if runnerUp != nil {
		title.RunnerUp = &Side{Name: runnerUp.Team, Logo: runnerUp.Logo}
	}
	return title, Decided
}

func resolveCup(snap model.Snapshot, title Title) (Title, Outcome) {
	var final *model.CupRound
	for i := range snap.Rounds {
		if snap.Rounds[i].Name == model.RoundFinal {
			final = &snap.Rounds[i]
			break
		}
	}
	if final == nil || len(final.Matches) == 0 {
		return Title{}, Undecided
	}
	m := final.Matches[0]
	home := Side{Name: m.Home, Logo: m.HomeLogo}
	away := Side{Name: m.Away, Logo: m.AwayLogo}

	switch {
	case m.HomeScore > m.AwayScore:
		title.Winner, title.RunnerUp = home, &away
	case m.AwayScore > m.HomeScore:
		title.Winner, title.RunnerUp = away, &home
	case mentions(m.Note, m.Home):
		title.Winner, title.RunnerUp = home, &away
	case mentions(m.Note, m.Away):
		title.Winner, title.RunnerUp = away, &home
	default:
		return title, Unresolved
	}
	return title, Decided
}

func mentions(note, name string) bool {
	if strings.TrimSpace(name) == "" || note == "" {
		return false
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(note), fold.String(name))
}

// History lists the titles of one competition history, newest first, at
// most one per season: the latest decided snapshot of each season wins.
// Level finals that could not be attributed are returned separately, and
// only for seasons with no decided snapshot at all.
func History(history []model.Snapshot) ([]Title, []Ambiguous) {
	titles := []Title{}
	decided := make(map[string]struct{})
	pending := make(map[string]Ambiguous)
	var order []string
	for i := len(history) - 1; i >= 0; i-- {
		snap := history[i]
		if _, ok := decided[snap.Season]; ok {
			continue
		}
		title, outcome := Resolve(snap)
		switch outcome {
		case Decided:
			decided[snap.Season] = struct{}{}
			titles = append(titles, title)
		case Unresolved:
			if _, ok := pending[snap.Season]; ok {
				continue
			}
			m := finalMatch(snap)
			pending[snap.Season] = Ambiguous{
				Competition: snap.Competition,
				Season:      snap.Season,
				Home:        m.Home,
				Away:        m.Away,
				Note:        m.Note,
			}
			order = append(order, snap.Season)
		}
	}
	var ambiguous []Ambiguous
	for _, season := range order {
		if _, ok := decided[season]; !ok {
			ambiguous = append(ambiguous, pending[season])
		}
	}
	return titles, ambiguous
}

func finalMatch(snap model.Snapshot) model.MatchRecord {
	for _, r := range snap.Rounds {
		if r.Name == model.RoundFinal && len(r.Matches) > 0 {
			return r.Matches[0]
		}
	}
	return model.MatchRecord{}
}

// TeamTrophies is one row of the trophy cabinet.
type TeamTrophies struct {
	Team      string         `json:"team"`
	Logo      string         `json:"logo,omitempty"`
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// Cabinet counts titles per winning team with a per-competition breakdown,
// most titles first. Teams with equal totals keep first-seen order.
func Cabinet(titles []Title) []TeamTrophies {
	index := make(map[string]int)
	out := []TeamTrophies{}
	for _, t := range titles {
		i, ok := index[t.Winner.Name]
		if !ok {
			index[t.Winner.Name] = len(out)
			out = append(out, TeamTrophies{Team: t.Winner.Name, Logo: t.Winner.Logo, Breakdown: map[string]int{}})
			i = len(out) - 1
		}
		row := &out[i]
		row.Total++
		row.Breakdown[t.Competition]++
		if row.Logo == "" {
			row.Logo = t.Winner.Logo
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
