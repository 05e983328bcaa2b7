package reconcile

import "errors"

// Sentinel kinds for reconcile errors.
var (
	// ErrNoGeneralSeason reports that the General history has no snapshot
	// for the requested season.
	ErrNoGeneralSeason = errors.New("no general snapshot for season")
	// ErrNoRows reports that the General snapshot has no rows tagged with
	// the requested competition.
	ErrNoRows = errors.New("no rows for competition in general snapshot")
	// ErrNotConfirmed reports a restore attempted without confirmation.
	ErrNotConfirmed = errors.New("restore not confirmed")
)
