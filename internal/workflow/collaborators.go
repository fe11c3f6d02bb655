package workflow

import (
	"context"
	"time"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
)

// RulebookParser extracts and scores a game's rulebook. A returned error is
// recorded verbatim (marker prefix stripped) as the game's vecna_error.
type RulebookParser interface {
	ParseRulebook(ctx context.Context, game *catalog.Game) error
}

// ContentGenerator produces the configured content documents for a game.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, game *catalog.Game) error
}

// Store is the slice of the catalog the advancer needs.
type Store interface {
	GetGame(ctx context.Context, id string) (*catalog.Game, error)
	CompareAndSetState(ctx context.Context, id string, expected, next pipeline.State, errMsg string) (*catalog.Game, error)
}

// FamilyStore adds family lookups for batch runs.
type FamilyStore interface {
	GetGame(ctx context.Context, id string) (*catalog.Game, error)
	FamilyGames(ctx context.Context, familyID string) ([]*catalog.Game, error)
}

// ReclaimStore exposes stale in-flight recovery.
type ReclaimStore interface {
	ReclaimStale(ctx context.Context, cutoff time.Time, skip func(*catalog.Game) bool) ([]*catalog.Game, error)
}

// ParserFunc adapts a function to RulebookParser.
type ParserFunc func(ctx context.Context, game *catalog.Game) error

func (f ParserFunc) ParseRulebook(ctx context.Context, game *catalog.Game) error { return f(ctx, game) }

// GeneratorFunc adapts a function to ContentGenerator.
type GeneratorFunc func(ctx context.Context, game *catalog.Game) error

func (f GeneratorFunc) GenerateContent(ctx context.Context, game *catalog.Game) error {
	return f(ctx, game)
}
