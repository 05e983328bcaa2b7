// Package replay re-submits stored capture records to a running palmares
// service, for backfills and for exercising the ingest path end to end.
package replay

import (
	"errors"
	"time"
)

// Defaults for Config fields left empty.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultWorkers    = 4
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 5
	DefaultBackoff    = 200 * time.Millisecond
)

var (
	ErrNoInput     = errors.New("no capture files given")
	ErrBadInput    = errors.New("unreadable capture file")
	ErrUnavailable = errors.New("service unavailable")
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL    string        // service base URL
	Paths      []string      // capture files or directories of .json/.jsonl files
	Workers    int           // concurrent submitters
	Timeout    time.Duration // per request timeout
	MaxRetries int           // retries of a capture refused with 429; negative disables retries
	Backoff    time.Duration // first retry delay, doubled on each retry
	Verbose    bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Workers < 1 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	} else if out.MaxRetries == 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	if out.Backoff <= 0 {
		out.Backoff = DefaultBackoff
	}
	return out
}

// AckResponse is the body returned by POST /captures.
type AckResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats summarises a replay run.
type Stats struct {
	Loaded    int           `json:"loaded"`
	Accepted  int           `json:"accepted"`
	Duplicate int           `json:"duplicate"`
	Rejected  int           `json:"rejected"`
	Failed    int           `json:"failed"`
	Retries   int           `json:"retries"`
	Duration  time.Duration `json:"duration"`
}
