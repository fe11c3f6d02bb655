package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vecna/internal/pipeline"
)

// StaleReclaimMessage is stored as vecna_error on games rolled back by
// ReclaimStale.
const StaleReclaimMessage = "stale in-flight state reclaimed"

// CompareAndSetState moves a game from expected to next. The write only
// happens when the stored state still equals expected; otherwise
// ErrStateConflict is returned and nothing changes. errMsg becomes
// vecna_error (cleared when empty). is_published follows the new state.
func (s *Store) CompareAndSetState(ctx context.Context, id string, expected, next pipeline.State, errMsg string) (*Game, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown state %q", next)
	}
	timestamp := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE games
         SET vecna_state = ?, previous_state = ?, vecna_error = ?, is_published = ?,
             state_entered_at = ?, updated_at = ?
         WHERE id = ? AND vecna_state = ?`,
		next,
		expected,
		nullableString(errMsg),
		boolToInt(next == pipeline.StatePublished),
		timestamp,
		timestamp,
		id,
		expected,
	)
	if err != nil {
		return nil, fmt.Errorf("set state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("set state rows: %w", err)
	}
	if affected == 0 {
		current, getErr := s.GetGame(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return current, fmt.Errorf("%w: game %s is %s, expected %s", ErrStateConflict, id, current.State, expected)
	}
	return s.GetGame(ctx, id)
}

// StaleInFlight lists games that entered parsing or generating before cutoff.
func (s *Store) StaleInFlight(ctx context.Context, cutoff time.Time) ([]*Game, error) {
	inFlight := pipeline.InFlightStates()
	args := make([]any, 0, len(inFlight)+1)
	for _, state := range inFlight {
		args = append(args, state)
	}
	args = append(args, formatTime(cutoff))
	return s.queryGames(
		ctx,
		`SELECT `+gameColumns+` FROM games
         WHERE vecna_state IN (`+makePlaceholders(len(inFlight))+`) AND state_entered_at < ?
         ORDER BY state_entered_at`,
		args...,
	)
}

// ReclaimStale rolls stale in-flight games back to the state a failed
// operation would have produced. Games whose state moved on between listing
// and rollback are left alone, as are games for which skip returns true.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time, skip func(*Game) bool) ([]*Game, error) {
	stale, err := s.StaleInFlight(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale games: %w", err)
	}
	reclaimed := make([]*Game, 0, len(stale))
	for _, game := range stale {
		if skip != nil && skip(game) {
			continue
		}
		target := pipeline.RollbackState(game.State, game.PreviousState)
		updated, err := s.CompareAndSetState(ctx, game.ID, game.State, target, StaleReclaimMessage)
		if errors.Is(err, ErrStateConflict) {
			continue
		}
		if err != nil {
			return reclaimed, fmt.Errorf("reclaim game %s: %w", game.ID, err)
		}
		reclaimed = append(reclaimed, updated)
	}
	return reclaimed, nil
}
