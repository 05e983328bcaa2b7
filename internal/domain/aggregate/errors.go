package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	// ErrNoLeagues reports an aggregator built without league competitions.
	ErrNoLeagues = errors.New("no league competitions configured")
)
