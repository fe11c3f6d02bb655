package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vecna/internal/catalog"
	"vecna/internal/logging"
	"vecna/internal/pipeline"
	"vecna/internal/services"
)

// ErrMissingGame marks a nil entry in a batch input.
var ErrMissingGame = errors.New("missing game entry")

// GameAdvancer is the single-game operation the orchestrator drives.
type GameAdvancer interface {
	Advance(ctx context.Context, gameID string, target pipeline.State) (*catalog.Game, error)
}

// Options controls a batch run.
type Options struct {
	SkipBlocked bool
	StopOnError bool
}

// Result is the outcome for one game in a batch. PreviousState is the state
// before the first step and NewState the state after the last one.
type Result struct {
	GameID        string
	Name          string
	PreviousState pipeline.State
	NewState      pipeline.State
	Success       bool
	Steps         int
	Error         string
	ErrorKind     string
	Skipped       bool
	SkipReason    string
}

// Summary aggregates batch counts.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Errors    int
}

// BatchSummary is returned by ProcessFamily. Results holds processed and
// skipped games in input order. When a run stops early the remaining games
// are absent from Results and listed in NotAttempted.
type BatchSummary struct {
	RequestID    string
	Mode         pipeline.Mode
	Summary      Summary
	Results      []Result
	Stopped      bool
	NotAttempted []string
}

// Orchestrator runs processing modes across families of games.
type Orchestrator struct {
	store    FamilyStore
	advancer GameAdvancer
	logger   *slog.Logger
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(store FamilyStore, advancer GameAdvancer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		advancer: advancer,
		logger:   logging.NewComponentLogger(logger, "orchestrator"),
	}
}

// ProcessFamilyByID loads a family's games in position order and processes
// them.
func (o *Orchestrator) ProcessFamilyByID(ctx context.Context, familyID string, mode pipeline.Mode, opts Options) (*BatchSummary, error) {
	games, err := o.store.FamilyGames(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("load family %s: %w", familyID, err)
	}
	ctx = services.WithFamilyID(ctx, familyID)
	return o.ProcessFamily(ctx, games, mode, opts)
}

// ProcessFamily advances each game in input order, one at a time. Each
// game's current state is re-read before deciding its target. Cancelling ctx
// stops the run between games; a game already being advanced finishes.
func (o *Orchestrator) ProcessFamily(ctx context.Context, games []*catalog.Game, mode pipeline.Mode, opts Options) (*BatchSummary, error) {
	if _, err := pipeline.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}
	logger := logging.WithContext(ctx, o.logger)

	summary := &BatchSummary{
		RequestID: requestID,
		Mode:      mode,
		Summary:   Summary{Total: len(games)},
		Results:   make([]Result, 0, len(games)),
	}
	logger.Info(
		"batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.String("mode", string(mode)),
		logging.Int("games", len(games)),
		logging.Bool("skip_blocked", opts.SkipBlocked),
		logging.Bool("stop_on_error", opts.StopOnError),
	)

	for i, game := range games {
		if err := ctx.Err(); err != nil {
			o.stop(logger, summary, games[i:], "context cancelled")
			break
		}

		var result Result
		if game == nil {
			result = failed(Result{}, fmt.Errorf("%w at position %d", ErrMissingGame, i))
		} else {
			result = o.processGame(ctx, game, mode, opts)
		}
		summary.Results = append(summary.Results, result)
		switch {
		case result.Skipped:
			summary.Summary.Skipped++
		case result.Success:
			summary.Summary.Processed++
		default:
			summary.Summary.Errors++
		}

		logger.Info(
			"batch item",
			logging.String(logging.FieldEventType, "batch_item"),
			logging.String(logging.FieldGameID, result.GameID),
			logging.String("previous_state", string(result.PreviousState)),
			logging.String("new_state", string(result.NewState)),
			logging.Bool("success", result.Success),
			logging.Bool("skipped", result.Skipped),
			logging.String("reason", firstNonEmpty(result.SkipReason, result.Error)),
		)

		if opts.StopOnError && !result.Success && !result.Skipped {
			o.stop(logger, summary, games[i+1:], "stop_on_error")
			break
		}
	}

	logger.Info(
		"batch completed",
		logging.String(logging.FieldEventType, "batch_completed"),
		logging.Int("total", summary.Summary.Total),
		logging.Int("processed", summary.Summary.Processed),
		logging.Int("skipped", summary.Summary.Skipped),
		logging.Int("errors", summary.Summary.Errors),
		logging.Bool("stopped", summary.Stopped),
	)
	return summary, nil
}

func (o *Orchestrator) stop(logger *slog.Logger, summary *BatchSummary, remaining []*catalog.Game, reason string) {
	summary.Stopped = true
	for _, game := range remaining {
		if game != nil {
			summary.NotAttempted = append(summary.NotAttempted, game.ID)
		}
	}
	logger.Warn(
		"batch stopped early",
		logging.String(logging.FieldEventType, "batch_stopped"),
		logging.String("reason", reason),
		logging.Int("not_attempted", len(summary.NotAttempted)),
	)
}

func (o *Orchestrator) processGame(ctx context.Context, input *catalog.Game, mode pipeline.Mode, opts Options) Result {
	result := Result{GameID: input.ID, Name: input.DisplayName(), PreviousState: input.State, NewState: input.State}

	game, err := o.store.GetGame(ctx, input.ID)
	if err != nil {
		return failed(result, err)
	}
	result.Name = game.DisplayName()
	result.PreviousState = game.State
	result.NewState = game.State

	target, ok := pipeline.ImpliedTarget(game.State, mode, game.Flags())
	if !ok {
		reason := pipeline.CanTransition(game.State, "", game.Flags()).Reason
		if opts.SkipBlocked {
			result.Skipped = true
			result.SkipReason = reason
			return result
		}
		return failed(result, &pipeline.GuardRejectedError{GameID: game.ID, From: game.State, Reason: reason})
	}
	if opts.SkipBlocked {
		if decision := pipeline.CanTransition(game.State, target, game.Flags()); !decision.Allowed {
			result.Skipped = true
			result.SkipReason = decision.Reason
			return result
		}
	}

	current := game
	for step := 0; step < len(pipeline.AllStates()); step++ {
		updated, err := o.advancer.Advance(ctx, current.ID, target)
		if updated != nil {
			result.NewState = updated.State
		}
		if err != nil {
			return failed(result, err)
		}
		result.Steps++
		current = updated
		if !mode.Chains() || ctx.Err() != nil {
			break
		}
		next, ok := pipeline.ImpliedTarget(current.State, mode, current.Flags())
		if !ok || !pipeline.CanTransition(current.State, next, current.Flags()).Allowed {
			break
		}
		target = next
	}
	result.Success = true
	return result
}

func failed(result Result, err error) Result {
	result.Success = false
	result.ErrorKind = pipeline.Kind(err)
	var collab *pipeline.CollaboratorFailedError
	switch {
	case errors.As(err, &collab):
		result.Error = collab.Message
	case errors.Is(err, ErrGameBusy):
		result.ErrorKind = "busy"
		result.Error = err.Error()
	default:
		result.Error = err.Error()
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
