package aggregate

import (
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
)

// Default limits for player tables.
const (
	DefaultSeasonTop  = 50
	DefaultAllTimeTop = 100
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLeagues sets the ordered list of league competitions to merge.
func WithLeagues(leagues ...string) Option {
	return func(a *Aggregator) {
		if len(leagues) > 0 {
			a.leagues = append([]string(nil), leagues...)
		}
	}
}

// WithGeneralName sets the name of the synthetic competition.
func WithGeneralName(name string) Option {
	return func(a *Aggregator) {
		if name != "" {
			a.general = name
		}
	}
}

// WithSeasonTop sets how many players each per-season table keeps.
func WithSeasonTop(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.seasonTop = n
		}
	}
}

// WithAllTimeTop sets how many players each all-time table keeps.
func WithAllTimeTop(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.allTimeTop = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func defaults() *Aggregator {
	return &Aggregator{
		general:    model.GeneralCompetition,
		seasonTop:  DefaultSeasonTop,
		allTimeTop: DefaultAllTimeTop,
		log:        logger.Nop(),
	}
}
