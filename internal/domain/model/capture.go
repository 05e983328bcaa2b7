package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CaptureType is the record type produced by the screen classifier.
type CaptureType string

const (
	CaptureLeagueTable CaptureType = "league_table"
	CaptureMatch       CaptureType = "match"
	CaptureAward       CaptureType = "award"
)

// UnknownLeague labels league tables whose competition could not be read.
const UnknownLeague = "Unknown_League"

// Valid reports whether t is one of the known capture types.
func (t CaptureType) Valid() bool {
	switch t {
	case CaptureLeagueTable, CaptureMatch, CaptureAward:
		return true
	}
	return false
}

// Capture is one typed record read from a screenshot. Raw holds the full
// original JSON so match and award records are journaled verbatim.
type Capture struct {
	ID         string
	Type       CaptureType
	League     string
	Season     string
	Round      string
	Standings  []TeamRecord
	TopScorers []PlayerStat
	TopAssists []PlayerStat
	Raw        json.RawMessage
}

// ParseCapture decodes a capture record, keeping the raw body.
func ParseCapture(data []byte) (Capture, error) {
	o, err := decodeObject(data)
	if err != nil {
		return Capture{}, err
	}
	c := Capture{
		ID:     o.str("id", "event_id"),
		Type:   CaptureType(strings.ToLower(o.str("type"))),
		League: o.str("league"),
		Season: o.str("season"),
		Round:  o.str("round", "stage"),
		Raw:    append(json.RawMessage(nil), data...),
	}
	tables := []struct {
		key string
		dst any
	}{
		{"standings", &c.Standings},
		{"top_scorers", &c.TopScorers},
		{"top_assists", &c.TopAssists},
	}
	for _, t := range tables {
		raw, ok := o[t.key]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return Capture{}, fmt.Errorf("%s: %w", t.key, err)
		}
	}
	return c, nil
}

// Snapshot converts a league table capture into a league snapshot, filling
// absent labels with the given defaults.
func (c Capture) Snapshot(defaultSeason, defaultRound string) Snapshot {
	s := Snapshot{
		Competition: c.League,
		Season:      c.Season,
		Round:       c.Round,
		Kind:        KindLeague,
		Standings:   c.Standings,
		TopScorers:  c.TopScorers,
		TopAssists:  c.TopAssists,
	}
	if s.Competition == "" {
		s.Competition = UnknownLeague
	}
	if s.Season == "" {
		s.Season = defaultSeason
	}
	if s.Round == "" {
		s.Round = defaultRound
	}
	return s
}
