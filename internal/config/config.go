// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and PALMARES_ env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultLeagues is the league list used when none is configured.
var DefaultLeagues = []string{"La Liga", "Premier League", "Ligue 1", "Serie A", "Bundesliga"} //nolint:gochecknoglobals // read-only default

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir is the directory holding per-competition history files.
	DataDir string `koanf:"data_dir"`

	// StoreBackend selects "file" or "sqlite".
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// GeneralCompetition names the cross-league aggregate competition.
	GeneralCompetition string `koanf:"general_competition"`

	// LeagueCompetitions is the ordered list aggregated into the general table.
	LeagueCompetitions []string `koanf:"league_competitions"`

	// SeasonTopLimit truncates per-season player lists.
	SeasonTopLimit int `koanf:"season_top_limit"`

	// AllTimeTopLimit truncates all-time player lists.
	AllTimeTopLimit int `koanf:"all_time_top_limit"`

	// DefaultSeason labels captures that carry no season.
	DefaultSeason string `koanf:"default_season"`

	// DefaultRound labels captures that carry no round or stage.
	DefaultRound string `koanf:"default_round"`

	// CaptureQueueSize bounds the in-memory capture queue.
	CaptureQueueSize int `koanf:"capture_queue_size"`

	// DedupeSize sets the size of the capture id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MCPEnabled mounts the MCP tool endpoint on the HTTP server.
	MCPEnabled bool `koanf:"mcp_enabled"`

	// MCPPath is the mount path of the MCP endpoint.
	MCPPath string `koanf:"mcp_path"`

	// OTelEndpoint is the OTLP/HTTP trace endpoint; empty disables tracing.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DataDir:            "data",
		StoreBackend:       BackendFile,
		SQLitePath:         "data/palmares.db",
		GeneralCompetition: "General",
		SeasonTopLimit:     50,
		AllTimeTopLimit:    100,
		DefaultSeason:      "Unknown",
		DefaultRound:       "Actual",
		CaptureQueueSize:   1_000,
		DedupeSize:         100_000,
		MCPEnabled:         true,
		MCPPath:            "/mcp",
	}
}

// Leagues returns the configured league list or DefaultLeagues.
func (c *Config) Leagues() []string {
	if len(c.LeagueCompetitions) == 0 {
		out := make([]string, len(DefaultLeagues))
		copy(out, DefaultLeagues)
		return out
	}
	return c.LeagueCompetitions
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreBackend != BackendFile && c.StoreBackend != BackendSQLite:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.StoreBackend)
	case c.StoreBackend == BackendFile && strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.StoreBackend == BackendSQLite && strings.TrimSpace(c.SQLitePath) == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.GeneralCompetition) == "":
		return fmt.Errorf("%w: general_competition must not be empty", ErrInvalidConfig)
	case c.SeasonTopLimit <= 0 || c.AllTimeTopLimit <= 0:
		return fmt.Errorf("%w: top limits must be positive", ErrInvalidConfig)
	case c.CaptureQueueSize <= 0:
		return fmt.Errorf("%w: capture_queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MCPEnabled && !strings.HasPrefix(c.MCPPath, "/"):
		return fmt.Errorf("%w: mcp_path must start with /", ErrInvalidConfig)
	}
	for _, l := range c.LeagueCompetitions {
		if strings.EqualFold(strings.TrimSpace(l), c.GeneralCompetition) {
			return fmt.Errorf("%w: %q", ErrGeneralIsLeague, l)
		}
	}
	return nil
}
