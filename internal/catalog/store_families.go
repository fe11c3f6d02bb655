package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const familyColumns = `f.id, f.name, f.base_game_id, f.created_at,
    (SELECT COUNT(1) FROM games g WHERE g.family_id = f.id)`

func scanFamily(scanner rowScanner) (*Family, error) {
	var (
		id         string
		name       string
		baseGameID sql.NullString
		createdRaw sql.NullString
		count      int
	)
	if err := scanner.Scan(&id, &name, &baseGameID, &createdRaw, &count); err != nil {
		return nil, err
	}
	family := &Family{ID: id, Name: name, BaseGameID: baseGameID.String, GameCount: count}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		family.CreatedAt = created
	}
	return family, nil
}

// AddFamily inserts a family. The id is required.
func (s *Store) AddFamily(ctx context.Context, family *Family) (*Family, error) {
	if family == nil {
		return nil, errors.New("family is nil")
	}
	id := strings.TrimSpace(family.ID)
	if id == "" {
		return nil, errors.New("family id required")
	}
	name := strings.TrimSpace(family.Name)
	if name == "" {
		name = id
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO families (id, name, base_game_id, created_at) VALUES (?, ?, ?, ?)`,
		id,
		name,
		nullableString(strings.TrimSpace(family.BaseGameID)),
		formatTime(time.Now()),
	); err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	return s.GetFamily(ctx, id)
}

// GetFamily fetches a family by identifier.
func (s *Store) GetFamily(ctx context.Context, id string) (*Family, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+familyColumns+` FROM families f WHERE f.id = ?`, id)
	family, err := scanFamily(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return family, nil
}

// ListFamilies returns every family ordered by name.
func (s *Store) ListFamilies(ctx context.Context) ([]*Family, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+familyColumns+` FROM families f ORDER BY f.name, f.id`)
	if err != nil {
		return nil, fmt.Errorf("query families: %w", err)
	}
	defer rows.Close()

	var families []*Family
	for rows.Next() {
		family, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate families: %w", err)
	}
	return families, nil
}
