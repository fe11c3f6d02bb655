package workflow

import (
	"context"
	"log/slog"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/logging"
)

// Reclaimer rolls back games stuck in parsing or generating longer than the
// configured timeout.
type Reclaimer struct {
	store    ReclaimStore
	logger   *slog.Logger
	timeout  time.Duration
	interval time.Duration
	busy     func(gameID string) bool
	now      func() time.Time
}

// NewReclaimer constructs a reclaimer. busy, when non-nil, reports games with
// a transition still running in this process; those are never reclaimed.
func NewReclaimer(store ReclaimStore, logger *slog.Logger, timeout, interval time.Duration, busy func(string) bool) *Reclaimer {
	return &Reclaimer{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "reclaimer"),
		timeout:  timeout,
		interval: interval,
		busy:     busy,
		now:      time.Now,
	}
}

// ReclaimOnce rolls back every stale in-flight game and returns them.
func (r *Reclaimer) ReclaimOnce(ctx context.Context) ([]*catalog.Game, error) {
	if r.timeout <= 0 {
		return nil, nil
	}
	cutoff := r.now().Add(-r.timeout)
	var skip func(*catalog.Game) bool
	if r.busy != nil {
		skip = func(g *catalog.Game) bool { return r.busy(g.ID) }
	}
	reclaimed, err := r.store.ReclaimStale(ctx, cutoff, skip)
	for _, game := range reclaimed {
		logging.WarnWithContext(r.logger, "reclaimed stale in-flight game", "stale_reclaimed",
			logging.String(logging.FieldGameID, game.ID),
			logging.String("from", string(game.PreviousState)),
			logging.String("to", string(game.State)),
			logging.String(logging.FieldErrorHint, "retry the transition once the collaborator is healthy"),
			logging.String(logging.FieldImpact, "in-flight work was abandoned"),
		)
	}
	return reclaimed, err
}

// Run reclaims on every interval tick until ctx is cancelled.
func (r *Reclaimer) Run(ctx context.Context) error {
	if r.timeout <= 0 || r.interval <= 0 {
		r.logger.Info("stale reclaim disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.ReclaimOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("stale reclaim failed",
				logging.String(logging.FieldEventType, "stale_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check database access"),
				logging.Error(err),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
