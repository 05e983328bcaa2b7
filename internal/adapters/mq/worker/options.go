package worker

import (
	"github.com/okian/palmares/pkg/logger"
)

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithName sets the writer name used in log lines.
func WithName(name string) Option {
	return func(w *Writer) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDefaults sets the season and round assigned to league tables that
// carry neither.
func WithDefaults(season, round string) Option {
	return func(w *Writer) {
		if season != "" {
			w.defaultSeason = season
		}
		if round != "" {
			w.defaultRound = round
		}
	}
}
