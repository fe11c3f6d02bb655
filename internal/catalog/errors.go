package catalog

import "errors"

var (
	// ErrGameNotFound is returned when no game matches the requested id.
	ErrGameNotFound = errors.New("game not found")
	// ErrFamilyNotFound is returned when no family matches the requested id.
	ErrFamilyNotFound = errors.New("family not found")
	// ErrStateConflict is returned by CompareAndSetState when the stored state
	// no longer matches the expected state.
	ErrStateConflict = errors.New("game state changed concurrently")
)
