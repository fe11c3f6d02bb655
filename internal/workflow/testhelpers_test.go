package workflow

import (
	"context"
	"sync"
	"testing"

	"vecna/internal/catalog"
	"vecna/internal/logging"
	"vecna/internal/testsupport"
)

type stubCollaborator struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, game *catalog.Game) error
}

func (s *stubCollaborator) call(ctx context.Context, game *catalog.Game) error {
	s.mu.Lock()
	s.calls = append(s.calls, game.ID)
	fn := s.fn
	s.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, game)
}

func (s *stubCollaborator) ParseRulebook(ctx context.Context, game *catalog.Game) error {
	return s.call(ctx, game)
}

func (s *stubCollaborator) GenerateContent(ctx context.Context, game *catalog.Game) error {
	return s.call(ctx, game)
}

func (s *stubCollaborator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type harness struct {
	store     *catalog.Store
	parser    *stubCollaborator
	generator *stubCollaborator
	advancer  *Advancer
	batch     *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	h := &harness{
		store:     store,
		parser:    &stubCollaborator{},
		generator: &stubCollaborator{},
	}
	h.advancer = NewAdvancer(store, h.parser, h.generator, logging.NewNop())
	h.batch = NewOrchestrator(store, h.advancer, logging.NewNop())
	return h
}

func (h *harness) reload(t *testing.T, id string) *catalog.Game {
	t.Helper()
	game, err := h.store.GetGame(context.Background(), id)
	if err != nil {
		t.Fatalf("GetGame(%s): %v", id, err)
	}
	return game
}
