package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vecna/internal/pipeline"
)

// AddGame inserts a new game. Empty ids are replaced with a random UUID and
// an empty state defaults to imported. The stored row is returned.
func (s *Store) AddGame(ctx context.Context, game *Game) (*Game, error) {
	if game == nil {
		return nil, errors.New("game is nil")
	}
	name := strings.TrimSpace(game.Name)
	if name == "" {
		return nil, errors.New("game name required")
	}
	id := strings.TrimSpace(game.ID)
	if id == "" {
		id = uuid.NewString()
	}
	state := game.State
	if state == "" {
		state = pipeline.StateImported
	}
	if !state.Valid() {
		return nil, fmt.Errorf("unknown state %q", state)
	}
	hasRulebook := game.HasRulebook || strings.TrimSpace(game.RulebookURL) != ""

	timestamp := formatTime(time.Now())
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO games (
            id, bgg_id, name, family_id, family_position, vecna_state, vecna_error,
            has_rulebook, rulebook_url, has_content, is_published,
            state_entered_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		nullableInt64(game.BGGID),
		name,
		nullableString(strings.TrimSpace(game.FamilyID)),
		game.FamilyPosition,
		state,
		boolToInt(hasRulebook),
		nullableString(strings.TrimSpace(game.RulebookURL)),
		boolToInt(game.HasContent),
		boolToInt(state == pipeline.StatePublished),
		timestamp,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	return s.GetGame(ctx, id)
}

// GetGame fetches a game by identifier.
func (s *Store) GetGame(ctx context.Context, id string) (*Game, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGames returns games ordered by creation, optionally filtered to the
// supplied states.
func (s *Store) ListGames(ctx context.Context, states ...pipeline.State) ([]*Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games`
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		query += ` WHERE vecna_state IN (` + makePlaceholders(len(states)) + `)`
		for _, state := range states {
			args = append(args, state)
		}
	}
	query += ` ORDER BY created_at, id`
	return s.queryGames(ctx, query, args...)
}

// FamilyGames returns the games in a family in processing order.
func (s *Store) FamilyGames(ctx context.Context, familyID string) ([]*Game, error) {
	return s.queryGames(
		ctx,
		`SELECT `+gameColumns+` FROM games WHERE family_id = ? ORDER BY family_position, created_at, id`,
		familyID,
	)
}

func (s *Store) queryGames(ctx context.Context, query string, args ...any) ([]*Game, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

// UpdateFlags applies attribute changes that feed the transition guard.
// Setting a non-empty rulebook URL also marks the game as having a rulebook
// unless HasRulebook is given explicitly.
func (s *Store) UpdateFlags(ctx context.Context, id string, update FlagUpdate) (*Game, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if update.RulebookURL != nil {
		url := strings.TrimSpace(*update.RulebookURL)
		sets = append(sets, "rulebook_url = ?")
		args = append(args, nullableString(url))
		if update.HasRulebook == nil {
			sets = append(sets, "has_rulebook = ?")
			args = append(args, boolToInt(url != ""))
		}
	}
	if update.HasRulebook != nil {
		sets = append(sets, "has_rulebook = ?")
		args = append(args, boolToInt(*update.HasRulebook))
	}
	if update.HasContent != nil {
		sets = append(sets, "has_content = ?")
		args = append(args, boolToInt(*update.HasContent))
	}
	if len(sets) == 0 {
		return s.GetGame(ctx, id)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	res, err := s.execWithRetry(ctx, `UPDATE games SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update flags: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return s.GetGame(ctx, id)
}

// CountByState returns the number of games in each state.
func (s *Store) CountByState(ctx context.Context) (map[pipeline.State]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT vecna_state, COUNT(1) FROM games GROUP BY vecna_state`)
	if err != nil {
		return nil, fmt.Errorf("count games: %w", err)
	}
	defer rows.Close()

	counts := make(map[pipeline.State]int)
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[pipeline.State(state)] = count
	}
	return counts, rows.Err()
}
