package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Every validation failure matches
// ErrInvalidConfig; the narrower kinds below also match it.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrUnknownBackend reports a store_backend other than file or sqlite.
	ErrUnknownBackend = fmt.Errorf("%w: unknown store_backend", ErrInvalidConfig)
	// ErrGeneralIsLeague reports a league list that names the general
	// competition, which would feed the aggregate back into itself.
	ErrGeneralIsLeague = fmt.Errorf("%w: general competition listed as a league", ErrInvalidConfig)
)
