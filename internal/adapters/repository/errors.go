package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrCorruptStore reports a history that exists but cannot be parsed.
	ErrCorruptStore = errors.New("corrupt store")
	// ErrUnavailable reports a history that could not be read right now.
	ErrUnavailable = errors.New("store unavailable")
	// ErrUnwritable reports a destination that could not be written.
	ErrUnwritable = errors.New("store unwritable")
	// ErrInvalidCompetition reports an empty competition or journal name.
	ErrInvalidCompetition = errors.New("invalid competition name")
)

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCorruptStore):
		return "corrupt"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUnwritable):
		return "unwritable"
	case errors.Is(err, ErrInvalidCompetition):
		return "invalid"
	}
	return "other"
}
