package testsupport

import (
	"context"
	"testing"

	"vecna/internal/catalog"
	"vecna/internal/config"
	"vecna/internal/pipeline"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewGame inserts a game in the given state for tests.
func NewGame(t testing.TB, store *catalog.Store, name string, state pipeline.State) *catalog.Game {
	t.Helper()

	game, err := store.AddGame(context.Background(), &catalog.Game{Name: name, State: state})
	if err != nil {
		t.Fatalf("store.AddGame: %v", err)
	}
	return game
}

// NewFamily inserts a family and its games in order. Each spec becomes one
// game at the matching family position.
func NewFamily(t testing.TB, store *catalog.Store, id string, games ...GameSpec) []*catalog.Game {
	t.Helper()

	ctx := context.Background()
	if _, err := store.AddFamily(ctx, &catalog.Family{ID: id, Name: id}); err != nil {
		t.Fatalf("store.AddFamily: %v", err)
	}
	out := make([]*catalog.Game, 0, len(games))
	for i, spec := range games {
		game, err := store.AddGame(ctx, &catalog.Game{
			ID:             spec.ID,
			Name:           spec.Name,
			FamilyID:       id,
			FamilyPosition: i,
			State:          spec.State,
			HasRulebook:    spec.HasRulebook,
			RulebookURL:    spec.RulebookURL,
		})
		if err != nil {
			t.Fatalf("store.AddGame(%s): %v", spec.Name, err)
		}
		out = append(out, game)
	}
	return out
}

// GameSpec describes a game created by NewFamily.
type GameSpec struct {
	ID          string
	Name        string
	State       pipeline.State
	HasRulebook bool
	RulebookURL string
}
