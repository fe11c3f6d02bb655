package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"vecna/internal/catalog"
	"vecna/internal/logging"
	"vecna/internal/pipeline"
	"vecna/internal/services"
)

// Advancer executes single-game transitions.
type Advancer struct {
	store     Store
	parser    RulebookParser
	generator ContentGenerator
	logger    *slog.Logger
	locks     *gameLocks
}

// NewAdvancer wires an advancer to its store and collaborators. A nil
// collaborator makes the matching in-flight transition fail with a rollback.
func NewAdvancer(store Store, parser RulebookParser, generator ContentGenerator, logger *slog.Logger) *Advancer {
	return &Advancer{
		store:     store,
		parser:    parser,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, "workflow"),
		locks:     newGameLocks(),
	}
}

// InProgress reports whether a transition for gameID is currently running in
// this process.
func (a *Advancer) InProgress(gameID string) bool {
	return a.locks.isHeld(gameID)
}

// Advance moves a game to target. Guard rejections return a
// *pipeline.GuardRejectedError and leave the game untouched. Collaborator
// failures return a *pipeline.CollaboratorFailedError alongside the
// rolled-back game. The returned game reflects the stored row whenever one
// could be read.
func (a *Advancer) Advance(ctx context.Context, gameID string, target pipeline.State) (*catalog.Game, error) {
	release, ok := a.locks.tryLock(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameBusy, gameID)
	}
	defer release()

	ctx = a.requestContext(ctx, gameID)
	logger := logging.WithContext(ctx, a.logger)

	game, err := a.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	decision := pipeline.CanTransition(game.State, target, game.Flags())
	if !decision.Allowed {
		logger.Info(
			"transition rejected",
			logging.String(logging.FieldEventType, "transition_rejected"),
			logging.String("from", string(game.State)),
			logging.String("to", string(target)),
			logging.String("reason", decision.Reason),
		)
		return game, &pipeline.GuardRejectedError{GameID: gameID, From: game.State, To: target, Reason: decision.Reason}
	}

	trigger, inFlight := pipeline.TriggerFor(target)
	if !inFlight {
		updated, err := a.store.CompareAndSetState(ctx, gameID, game.State, target, "")
		if err != nil {
			return updated, fmt.Errorf("apply %s->%s: %w", game.State, target, err)
		}
		logger.Info(
			"transition applied",
			logging.String(logging.FieldEventType, "transition_applied"),
			logging.String("from", string(game.State)),
			logging.String("to", string(target)),
		)
		return updated, nil
	}

	return a.runInFlight(ctx, logger, game, trigger)
}

func (a *Advancer) runInFlight(ctx context.Context, logger *slog.Logger, game *catalog.Game, trigger pipeline.Trigger) (*catalog.Game, error) {
	origin := game.State
	started, err := a.store.CompareAndSetState(ctx, game.ID, origin, trigger.InFlight, "")
	if err != nil {
		return started, fmt.Errorf("enter %s: %w", trigger.InFlight, err)
	}

	// The collaborator and the writes after it run to completion even if the
	// caller goes away.
	work := context.WithoutCancel(ctx)

	logger.Info(
		"collaborator started",
		logging.String(logging.FieldEventType, "collaborator_started"),
		logging.String("operation", string(trigger.Operation)),
		logging.String("from", string(origin)),
		logging.String("to", string(trigger.InFlight)),
	)
	start := time.Now()
	opErr := a.invoke(work, trigger.Operation, started)
	elapsed := time.Since(start)

	if opErr == nil {
		done, err := a.store.CompareAndSetState(work, game.ID, trigger.InFlight, trigger.Success, "")
		if err != nil {
			return done, fmt.Errorf("complete %s: %w", trigger.Operation, err)
		}
		logger.Info(
			"transition applied",
			logging.String(logging.FieldEventType, "transition_applied"),
			logging.String("operation", string(trigger.Operation)),
			logging.String("from", string(trigger.InFlight)),
			logging.String("to", string(trigger.Success)),
			logging.Duration("duration", elapsed),
		)
		return done, nil
	}

	message := failureMessage(trigger.Operation, opErr)
	rollback := pipeline.RollbackState(trigger.InFlight, origin)
	logging.ErrorWithContext(logger, "collaborator failed", "collaborator_failed",
		logging.String("operation", string(trigger.Operation)),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, pipeline.Meta(rollback).SuggestedAction),
		logging.Alert("collaborator_failure"),
		logging.Duration("duration", elapsed),
		logging.Error(opErr),
	)

	rolledBack, err := a.store.CompareAndSetState(work, game.ID, trigger.InFlight, rollback, message)
	if err != nil {
		return rolledBack, errors.Join(
			&pipeline.CollaboratorFailedError{GameID: game.ID, Operation: trigger.Operation, Message: message, Err: opErr},
			fmt.Errorf("roll back to %s: %w", rollback, err),
		)
	}
	logger.Warn(
		"transition rolled back",
		logging.String(logging.FieldEventType, "transition_rolled_back"),
		logging.String("from", string(trigger.InFlight)),
		logging.String("to", string(rollback)),
		logging.String("vecna_error", message),
	)
	return rolledBack, &pipeline.CollaboratorFailedError{
		GameID:       game.ID,
		Operation:    trigger.Operation,
		RolledBackTo: rollback,
		Message:      message,
		Err:          opErr,
	}
}

// invoke calls the collaborator for op, converting panics into errors.
func (a *Advancer) invoke(ctx context.Context, op pipeline.Operation, game *catalog.Game) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("collaborator panicked",
				logging.String("operation", string(op)),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%s panicked: %v", op, r)
		}
	}()

	switch op {
	case pipeline.OperationParse:
		if a.parser == nil {
			return services.Wrap(services.ErrConfiguration, "", "", "rulebook parser not configured", nil)
		}
		return a.parser.ParseRulebook(ctx, game)
	case pipeline.OperationGenerate:
		if a.generator == nil {
			return services.Wrap(services.ErrConfiguration, "", "", "content generator not configured", nil)
		}
		return a.generator.GenerateContent(ctx, game)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// Override forces a game into target without consulting the guard or calling
// collaborators. It is the manual escape hatch for games stuck in flight.
// Targets that are themselves in-flight states are rejected since nothing
// would ever complete them.
func (a *Advancer) Override(ctx context.Context, gameID string, target pipeline.State, note string) (*catalog.Game, error) {
	release, ok := a.locks.tryLock(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameBusy, gameID)
	}
	defer release()

	ctx = a.requestContext(ctx, gameID)
	logger := logging.WithContext(ctx, a.logger)

	game, err := a.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	switch {
	case !target.Valid():
		return game, &pipeline.GuardRejectedError{GameID: gameID, From: game.State, To: target, Reason: fmt.Sprintf("unknown target state %q", target)}
	case target == game.State:
		return game, &pipeline.GuardRejectedError{GameID: gameID, From: game.State, To: target, Reason: "game is already " + string(target)}
	case target.IsInFlight():
		return game, &pipeline.GuardRejectedError{GameID: gameID, From: game.State, To: target, Reason: "cannot override into in-flight state"}
	}

	updated, err := a.store.CompareAndSetState(ctx, gameID, game.State, target, "")
	if err != nil {
		return updated, fmt.Errorf("override %s->%s: %w", game.State, target, err)
	}
	logger.Warn(
		"manual override applied",
		logging.String(logging.FieldEventType, "manual_override"),
		logging.String("from", string(game.State)),
		logging.String("to", string(target)),
		logging.String("note", strings.TrimSpace(note)),
		logging.String(logging.FieldErrorHint, "confirm the collaborator output exists before continuing"),
	)
	return updated, nil
}

func (a *Advancer) requestContext(ctx context.Context, gameID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	return services.WithGameID(ctx, gameID)
}

func failureMessage(op pipeline.Operation, err error) string {
	if msg := strings.TrimSpace(services.Details(err)); msg != "" {
		return msg
	}
	return fmt.Sprintf("%s failed without error detail", op)
}
