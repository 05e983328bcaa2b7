package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if PALMARES_CONFIG is set
//  3. env (prefix PALMARES_)
//
// List values from env are comma separated, e.g.
// PALMARES_LEAGUE_COMPETITIONS="La Liga,Serie A".
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PALMARES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Map env keys like PALMARES_DATA_DIR -> data_dir (flat keys).
	envProvider := env.Provider("PALMARES_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "palmares_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Slices are defaulted after unmarshal so a shorter configured list
	// never inherits trailing default entries.
	cfg.LeagueCompetitions = trimList(cfg.Leagues())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
