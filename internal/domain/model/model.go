// Package model contains the snapshot domain types shared by every layer.
//
// A competition's history is an ordered slice of Snapshot values. Position
// in that slice is the only notion of time: the last element is the most
// recent capture.
package model

// Round labels with special meaning.
const (
	RoundFinal     = "Final"
	RoundMidSeason = "Mid-season"
	RoundCombined  = "Combined"
)

// SeasonAllTime labels the all-time aggregate snapshot. It always sorts last.
const SeasonAllTime = "Histórico"

// GeneralCompetition is the default name of the synthetic aggregate competition.
const GeneralCompetition = "General"

// Kind distinguishes league and cup payloads.
type Kind string

const (
	KindLeague Kind = "league"
	KindCup    Kind = "cup"
)

// Snapshot is one recorded state of a competition.
type Snapshot struct {
	Competition string
	Season      string
	Round       string
	Kind        Kind

	// League payload. Cup snapshots may also carry scorer lists.
	Standings  []TeamRecord
	TopScorers []PlayerStat
	TopAssists []PlayerStat

	// Cup payload.
	Rounds []CupRound
}

// IsCup reports whether s carries a cup payload.
func (s Snapshot) IsCup() bool { return s.Kind == KindCup }

// TeamRecord is one row of a standings table.
type TeamRecord struct {
	Team           string `json:"team"`
	Rank           int    `json:"rank"`
	Points         int    `json:"points"`
	MatchesPlayed  int    `json:"matches_played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_diff"`
	Logo           string `json:"logo,omitempty"`

	// Origin is the competition a row came from inside an aggregate.
	Origin string `json:"origin_league,omitempty"`
	// SeasonsCount is set on all-time rows only.
	SeasonsCount int `json:"seasons_count,omitempty"`
}

// Add sums the counting stats of o into r.
func (r *TeamRecord) Add(o TeamRecord) {
	r.Points += o.Points
	r.MatchesPlayed += o.MatchesPlayed
	r.Wins += o.Wins
	r.Draws += o.Draws
	r.Losses += o.Losses
	r.GoalsFor += o.GoalsFor
	r.GoalsAgainst += o.GoalsAgainst
	r.GoalDifference += o.GoalDifference
}

// Stat selects which individual statistic a PlayerStat list ranks.
type Stat int

const (
	StatGoals Stat = iota
	StatAssists
)

func (s Stat) String() string {
	if s == StatAssists {
		return "assists"
	}
	return "goals"
}

// PlayerStat is one row of a scorers or assists table. Exactly one of Goals
// and Assists is set.
type PlayerStat struct {
	Player   string   `json:"player"`
	Team     string   `json:"team"`
	TeamLogo string   `json:"team_logo,omitempty"`
	Rank     int      `json:"rank"`
	Goals    *int     `json:"goals,omitempty"`
	Assists  *int     `json:"assists,omitempty"`
	Teams    []string `json:"teams,omitempty"`
	Origin   string   `json:"origin_league,omitempty"`
	Season   string   `json:"season,omitempty"`
}

// Value returns the statistic selected by s, zero when unset.
func (p PlayerStat) Value(s Stat) int {
	v := p.Goals
	if s == StatAssists {
		v = p.Assists
	}
	if v == nil {
		return 0
	}
	return *v
}

// WithValue returns a copy of p carrying only statistic s with value v.
func (p PlayerStat) WithValue(s Stat, v int) PlayerStat {
	p.Goals, p.Assists = nil, nil
	if s == StatAssists {
		p.Assists = &v
	} else {
		p.Goals = &v
	}
	return p
}

// Intp returns a pointer to v.
func Intp(v int) *int { return &v }

// MatchRecord is one cup tie.
type MatchRecord struct {
	Home      string `json:"home"`
	Away      string `json:"away"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
	HomeLogo  string `json:"homeLogo,omitempty"`
	AwayLogo  string `json:"awayLogo,omitempty"`
	Note      string `json:"note,omitempty"`
}

// CupRound groups the matches of one knockout round.
type CupRound struct {
	Name    string        `json:"name"`
	Matches []MatchRecord `json:"matches"`
}
