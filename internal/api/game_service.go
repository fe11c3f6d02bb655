package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
)

// ErrUnknownState is returned when a state filter names no known state.
var ErrUnknownState = errors.New("unknown state")

// Catalog is the read surface of the game store.
type Catalog interface {
	GetGame(ctx context.Context, id string) (*catalog.Game, error)
	ListGames(ctx context.Context, states ...pipeline.State) ([]*catalog.Game, error)
	FamilyGames(ctx context.Context, familyID string) ([]*catalog.Game, error)
	GetFamily(ctx context.Context, id string) (*catalog.Family, error)
	ListFamilies(ctx context.Context) ([]*catalog.Family, error)
	CountByState(ctx context.Context) (map[pipeline.State]int, error)
	RulebookParseFor(ctx context.Context, gameID string) (*catalog.RulebookParse, error)
	ContentFor(ctx context.Context, gameID string) ([]catalog.Content, error)
}

// GameService exposes read-only catalog operations in API form. The HTTP
// server and the CLI's --json output share it.
type GameService struct {
	store Catalog
}

// NewGameService constructs a service backed by store.
func NewGameService(store Catalog) *GameService {
	return &GameService{store: store}
}

// ParseStates converts user-supplied state names, rejecting unknown ones.
func ParseStates(values []string) ([]pipeline.State, error) {
	var out []pipeline.State
	for _, raw := range values {
		for part := range strings.SplitSeq(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			state, ok := pipeline.ParseState(part)
			if !ok {
				return nil, fmt.Errorf("%w %q", ErrUnknownState, strings.TrimSpace(part))
			}
			out = append(out, state)
		}
	}
	return out, nil
}

// List returns games, optionally filtered by state.
func (s *GameService) List(ctx context.Context, states ...pipeline.State) ([]Game, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	games, err := s.store.ListGames(ctx, states...)
	if err != nil {
		return nil, err
	}
	return FromGames(games), nil
}

// Describe returns a game with its rulebook parse and generated content.
func (s *GameService) Describe(ctx context.Context, id string) (*GameDetail, error) {
	if s == nil || s.store == nil {
		return nil, catalog.ErrGameNotFound
	}
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	parse, err := s.store.RulebookParseFor(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.store.ContentFor(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GameDetail{
		Game:     FromGame(game),
		Rulebook: fromRulebookParse(parse),
		Content:  fromContent(content),
	}, nil
}

// Transitions evaluates the guard for every target from the game's current
// state. Nothing is written.
func (s *GameService) Transitions(ctx context.Context, id string) (*TransitionsResponse, error) {
	if s == nil || s.store == nil {
		return nil, catalog.ErrGameNotFound
	}
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := TransitionsFor(game)
	return &resp, nil
}

// Stats returns game counts keyed by state. States with no games are
// included with zero.
func (s *GameService) Stats(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, state := range pipeline.AllStates() {
		out[string(state)] = 0
	}
	if s == nil || s.store == nil {
		return out, nil
	}
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return nil, err
	}
	for state, n := range counts {
		out[string(state)] = n
	}
	return out, nil
}

// Families returns every family.
func (s *GameService) Families(ctx context.Context) ([]Family, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	families, err := s.store.ListFamilies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Family, 0, len(families))
	for _, family := range families {
		out = append(out, FromFamily(family))
	}
	return out, nil
}

// Family returns a family and its games in processing order.
func (s *GameService) Family(ctx context.Context, id string) (*FamilyDetail, error) {
	if s == nil || s.store == nil {
		return nil, catalog.ErrFamilyNotFound
	}
	family, err := s.store.GetFamily(ctx, id)
	if err != nil {
		return nil, err
	}
	games, err := s.store.FamilyGames(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FamilyDetail{Family: FromFamily(family), Games: FromGames(games)}, nil
}
