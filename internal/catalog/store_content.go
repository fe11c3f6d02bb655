package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveRulebookParse records (or replaces) the parse result for a game.
func (s *Store) SaveRulebookParse(ctx context.Context, parse RulebookParse) error {
	if strings.TrimSpace(parse.GameID) == "" {
		return errors.New("rulebook parse: game id required")
	}
	parsedAt := parse.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = time.Now()
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO rulebook_parses (game_id, text_chars, page_count, complexity, parsed_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(game_id) DO UPDATE SET
             text_chars = excluded.text_chars,
             page_count = excluded.page_count,
             complexity = excluded.complexity,
             parsed_at = excluded.parsed_at`,
		parse.GameID,
		parse.TextChars,
		parse.PageCount,
		parse.Complexity,
		formatTime(parsedAt),
	); err != nil {
		return fmt.Errorf("save rulebook parse: %w", err)
	}
	return nil
}

// RulebookParseFor returns the stored parse for a game, or nil when the game
// has not been parsed.
func (s *Store) RulebookParseFor(ctx context.Context, gameID string) (*RulebookParse, error) {
	var (
		parse     RulebookParse
		parsedRaw string
	)
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT game_id, text_chars, page_count, complexity, parsed_at FROM rulebook_parses WHERE game_id = ?`,
		gameID,
	).Scan(&parse.GameID, &parse.TextChars, &parse.PageCount, &parse.Complexity, &parsedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rulebook parse: %w", err)
	}
	if parsedAt, err := parseTimeString(parsedRaw); err == nil {
		parse.ParsedAt = parsedAt
	}
	return &parse, nil
}

// SaveContent stores one generated document and marks the game as having
// content.
func (s *Store) SaveContent(ctx context.Context, content Content) error {
	contentType := strings.TrimSpace(content.ContentType)
	if strings.TrimSpace(content.GameID) == "" || contentType == "" {
		return errors.New("save content: game id and content type required")
	}
	timestamp := formatTime(time.Now())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO game_content (game_id, content_type, body, model, created_at)
             VALUES (?, ?, ?, ?, ?)
             ON CONFLICT(game_id, content_type) DO UPDATE SET
                 body = excluded.body,
                 model = excluded.model,
                 created_at = excluded.created_at`,
			content.GameID,
			contentType,
			content.Body,
			nullableString(content.Model),
			timestamp,
		); err != nil {
			return fmt.Errorf("save content: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE games SET has_content = 1, updated_at = ? WHERE id = ?`,
			timestamp,
			content.GameID,
		); err != nil {
			return fmt.Errorf("mark content: %w", err)
		}
		return nil
	})
}

// ContentFor returns every generated document for a game ordered by type.
func (s *Store) ContentFor(ctx context.Context, gameID string) ([]Content, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT game_id, content_type, body, model, created_at FROM game_content WHERE game_id = ? ORDER BY content_type`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	var out []Content
	for rows.Next() {
		var (
			item       Content
			model      sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&item.GameID, &item.ContentType, &item.Body, &model, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		item.Model = model.String
		if created, err := parseTimeString(createdRaw); err == nil {
			item.CreatedAt = created
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
