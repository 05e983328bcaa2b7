package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field aliases accepted when decoding team rows. The first key present wins.
var (
	teamKeys          = []string{"team", "name", "team_name"}
	rankKeys          = []string{"rank", "position"}
	pointsKeys        = []string{"points", "pts"}
	playedKeys        = []string{"matches_played", "pj"}
	winsKeys          = []string{"wins", "pg"}
	drawsKeys         = []string{"draws", "pe"}
	lossesKeys        = []string{"losses", "pp"}
	goalsForKeys      = []string{"goals_for", "gf"}
	goalsAgainstKeys  = []string{"goals_against", "gc"}
	goalDiffKeys      = []string{"goal_difference", "goal_diff", "dg"}
	ocrStatsKey       = "stats"
	ocrPlayedKey      = "played"
	ocrWonKey         = "won"
	ocrDrawnKey       = "drawn"
	ocrLostKey        = "lost"
	ocrGoalsForKey    = "gf"
	ocrGoalsAgainst   = "ga"
	ocrGoalDifference = "gd"
)

type rawObject map[string]json.RawMessage

func (o rawObject) has(keys ...string) bool {
	for _, k := range keys {
		if v, ok := o[k]; ok && !isNull(v) {
			return true
		}
	}
	return false
}

func (o rawObject) str(keys ...string) string {
	for _, k := range keys {
		v, ok := o[k]
		if !ok || isNull(v) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s)
		}
		// Numbers and other scalars keep their literal text.
		return strings.Trim(string(v), `"`)
	}
	return ""
}

func (o rawObject) num(keys ...string) int {
	for _, k := range keys {
		if v, ok := o[k]; ok && !isNull(v) {
			return flexInt(v)
		}
	}
	return 0
}

func (o rawObject) numPtr(key string) *int {
	v, ok := o[key]
	if !ok || isNull(v) {
		return nil
	}
	n := flexInt(v)
	return &n
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// flexInt reads a JSON number or numeric string. Anything else is zero.
func flexInt(v json.RawMessage) int {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return numberToInt(string(n))
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return numberToInt(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	}
	return 0
}

func numberToInt(s string) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(math.Round(f))
	}
	return 0
}

func decodeObject(data []byte) (rawObject, error) {
	var o rawObject
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("expected object, got %s", bytes.TrimSpace(data))
	}
	return o, nil
}

// UnmarshalJSON accepts every known alias for team row fields, plus the
// nested OCR stats object. A non-object stats value is an incomplete read
// and leaves the counting fields at zero.
func (r *TeamRecord) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	*r = TeamRecord{
		Team:           o.str(teamKeys...),
		Rank:           o.num(rankKeys...),
		Points:         o.num(pointsKeys...),
		MatchesPlayed:  o.num(playedKeys...),
		Wins:           o.num(winsKeys...),
		Draws:          o.num(drawsKeys...),
		Losses:         o.num(lossesKeys...),
		GoalsFor:       o.num(goalsForKeys...),
		GoalsAgainst:   o.num(goalsAgainstKeys...),
		GoalDifference: o.num(goalDiffKeys...),
		Logo:           o.str("logo"),
		Origin:         o.str("origin_league"),
		SeasonsCount:   o.num("seasons_count"),
	}

	stats, ok := o[ocrStatsKey]
	if !ok {
		return nil
	}
	var nested rawObject
	if json.Unmarshal(stats, &nested) != nil || nested == nil {
		return nil
	}
	fill := func(dst *int, present bool, key string) {
		if !present && nested.has(key) {
			*dst = nested.num(key)
		}
	}
	fill(&r.MatchesPlayed, o.has(playedKeys...), ocrPlayedKey)
	fill(&r.Wins, o.has(winsKeys...), ocrWonKey)
	fill(&r.Draws, o.has(drawsKeys...), ocrDrawnKey)
	fill(&r.Losses, o.has(lossesKeys...), ocrLostKey)
	fill(&r.GoalsFor, o.has(goalsForKeys...), ocrGoalsForKey)
	fill(&r.GoalsAgainst, o.has(goalsAgainstKeys...), ocrGoalsAgainst)
	fill(&r.GoalDifference, o.has(goalDiffKeys...), ocrGoalDifference)
	return nil
}

// UnmarshalJSON tolerates numeric strings and the position alias.
func (p *PlayerStat) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	*p = PlayerStat{
		Player:   o.str("player", "name"),
		Team:     o.str("team"),
		TeamLogo: o.str("team_logo"),
		Rank:     o.num(rankKeys...),
		Goals:    o.numPtr("goals"),
		Assists:  o.numPtr("assists"),
		Origin:   o.str("origin_league"),
		Season:   o.str("season"),
	}
	if raw, ok := o["teams"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &p.Teams); err != nil {
			return fmt.Errorf("player %q teams: %w", p.Player, err)
		}
	}
	return nil
}

// UnmarshalJSON tolerates numeric strings for scores.
func (m *MatchRecord) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	*m = MatchRecord{
		Home:      o.str("home"),
		Away:      o.str("away"),
		HomeScore: o.num("homeScore", "home_score"),
		AwayScore: o.num("awayScore", "away_score"),
		HomeLogo:  o.str("homeLogo", "home_logo"),
		AwayLogo:  o.str("awayLogo", "away_logo"),
		Note:      o.str("note"),
	}
	return nil
}

type snapshotJSON struct {
	League     string       `json:"league"`
	Season     string       `json:"season"`
	Round      string       `json:"round,omitempty"`
	Type       string       `json:"type,omitempty"`
	Standings  []TeamRecord `json:"standings,omitempty"`
	TopScorers []PlayerStat `json:"top_scorers,omitempty"`
	TopAssists []PlayerStat `json:"top_assists,omitempty"`
	Rounds     []CupRound   `json:"rounds,omitempty"`
}

// leagueJSON always carries the three league arrays.
type leagueJSON struct {
	League     string       `json:"league"`
	Season     string       `json:"season"`
	Round      string       `json:"round,omitempty"`
	Standings  []TeamRecord `json:"standings"`
	TopScorers []PlayerStat `json:"top_scorers"`
	TopAssists []PlayerStat `json:"top_assists"`
}

// MarshalJSON writes the persisted layout: league snapshots always carry
// standings and both player lists; cups carry type "cup" and rounds.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.IsCup() {
		rounds := s.Rounds
		if rounds == nil {
			rounds = []CupRound{}
		}
		return json.Marshal(snapshotJSON{
			League:     s.Competition,
			Season:     s.Season,
			Round:      s.Round,
			Type:       string(KindCup),
			Standings:  s.Standings,
			TopScorers: s.TopScorers,
			TopAssists: s.TopAssists,
			Rounds:     rounds,
		})
	}
	return json.Marshal(leagueJSON{
		League:     s.Competition,
		Season:     s.Season,
		Round:      s.Round,
		Standings:  nonNil(s.Standings),
		TopScorers: nonNil(s.TopScorers),
		TopAssists: nonNil(s.TopAssists),
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// UnmarshalJSON accepts league or name for the competition label and any
// missing payload field as empty.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	o, err := decodeObject(data)
	if err != nil {
		return err
	}
	*s = Snapshot{
		Competition: o.str("league", "name"),
		Season:      o.str("season"),
		Round:       o.str("round", "stage"),
		Kind:        KindLeague,
	}
	if strings.EqualFold(o.str("type"), string(KindCup)) || (o.has("rounds") && !o.has("standings")) {
		s.Kind = KindCup
	}
	fields := []struct {
		key string
		dst any
	}{
		{"standings", &s.Standings},
		{"top_scorers", &s.TopScorers},
		{"top_assists", &s.TopAssists},
		{"rounds", &s.Rounds},
	}
	for _, f := range fields {
		raw, ok := o[f.key]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return fmt.Errorf("%s %s: %w", s.Competition, f.key, err)
		}
	}
	return nil
}

// DecodeHistory parses a persisted history. A top-level object is read as
// a one-element history; empty input is an empty history.
func DecodeHistory(data []byte) ([]Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Snapshot{}, nil
	}
	if trimmed[0] == '{' {
		var one Snapshot
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []Snapshot{one}, nil
	}
	var history []Snapshot
	if err := json.Unmarshal(trimmed, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []Snapshot{}
	}
	return history, nil
}

// EncodeHistory renders a history as an indented JSON array.
func EncodeHistory(history []Snapshot) ([]byte, error) {
	return json.MarshalIndent(nonNil(history), "", "    ")
}
