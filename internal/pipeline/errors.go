package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGuardRejected marks transitions denied by CanTransition.
	ErrGuardRejected = errors.New("transition rejected")
	// ErrCollaboratorFailed marks in-flight operations whose collaborator
	// reported failure or panicked.
	ErrCollaboratorFailed = errors.New("collaborator failed")
)

// GuardRejectedError reports a denied transition. The game is unchanged.
type GuardRejectedError struct {
	GameID string
	From   State
	To     State
	Reason string
}

func (e *GuardRejectedError) Error() string {
	to := string(e.To)
	if to == "" {
		to = "unspecified"
	}
	return fmt.Sprintf("transition %s->%s rejected: %s", e.From, to, e.Reason)
}

// Is lets errors.Is match ErrGuardRejected.
func (e *GuardRejectedError) Is(target error) bool {
	return target == ErrGuardRejected
}

// CollaboratorFailedError reports an in-flight operation that failed. The
// game has been rolled back to RolledBackTo and carries Message as its error.
// RolledBackTo is empty when the rollback write itself failed and the game
// still sits in the in-flight state.
type CollaboratorFailedError struct {
	GameID       string
	Operation    Operation
	RolledBackTo State
	Message      string
	Err          error
}

func (e *CollaboratorFailedError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.RolledBackTo == "" {
		return fmt.Sprintf("%s failed for game %s (not rolled back): %s", e.Operation, e.GameID, msg)
	}
	return fmt.Sprintf("%s failed for game %s (rolled back to %s): %s", e.Operation, e.GameID, e.RolledBackTo, msg)
}

// Is lets errors.Is match ErrCollaboratorFailed.
func (e *CollaboratorFailedError) Is(target error) bool {
	return target == ErrCollaboratorFailed
}

func (e *CollaboratorFailedError) Unwrap() error {
	return e.Err
}

// Kind classifies an error from the advancer for reporting. It returns
// "guard_rejected", "collaborator_failed", or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGuardRejected):
		return "guard_rejected"
	case errors.Is(err, ErrCollaboratorFailed):
		return "collaborator_failed"
	default:
		return "internal"
	}
}
