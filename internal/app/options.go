package service

import (
	"github.com/okian/palmares/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of pending captures.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many capture ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaults sets the season and round given to captures that carry
// neither.
func WithDefaults(season, round string) Option {
	return func(s *Service) {
		if season != "" {
			s.defaultSeason = season
		}
		if round != "" {
			s.defaultRound = round
		}
	}
}

// WithGeneralName sets the name of the synthetic aggregate competition,
// which is left out of the trophy cabinet.
func WithGeneralName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.general = name
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
