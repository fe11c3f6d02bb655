package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"vecna/internal/pipeline"
)

// Seed is the YAML document accepted by ImportSeed.
type Seed struct {
	Families []SeedFamily `yaml:"families"`
	Games    []SeedGame   `yaml:"games"`
}

// SeedFamily describes a family entry in a seed file.
type SeedFamily struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	BaseGame string `yaml:"base_game"`
}

// SeedGame describes a game entry in a seed file. State is only honoured for
// games that do not exist yet.
type SeedGame struct {
	ID          string `yaml:"id"`
	BGGID       int64  `yaml:"bgg_id"`
	Name        string `yaml:"name"`
	Family      string `yaml:"family"`
	Position    int    `yaml:"position"`
	RulebookURL string `yaml:"rulebook_url"`
	State       string `yaml:"state"`
}

// SeedResult counts the rows written by ImportSeed.
type SeedResult struct {
	Families int
	Games    int
}

// ParseSeed decodes a seed document and validates its entries.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, family := range seed.Families {
		if strings.TrimSpace(family.ID) == "" {
			return nil, fmt.Errorf("seed family %d: id required", i)
		}
	}
	for i, game := range seed.Games {
		if strings.TrimSpace(game.Name) == "" {
			return nil, fmt.Errorf("seed game %d: name required", i)
		}
		if game.State != "" {
			if _, ok := pipeline.ParseState(game.State); !ok {
				return nil, fmt.Errorf("seed game %q: unknown state %q", game.Name, game.State)
			}
		}
	}
	return &seed, nil
}

// ImportSeed upserts the families and games in a YAML seed document in a
// single transaction. Existing games keep their pipeline state.
func (s *Store) ImportSeed(ctx context.Context, r io.Reader) (SeedResult, error) {
	var result SeedResult
	seed, err := ParseSeed(r)
	if err != nil {
		return result, err
	}

	timestamp := formatTime(time.Now())
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		result = SeedResult{}
		for _, family := range seed.Families {
			name := strings.TrimSpace(family.Name)
			if name == "" {
				name = strings.TrimSpace(family.ID)
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO families (id, name, base_game_id, created_at) VALUES (?, ?, ?, ?)
                 ON CONFLICT(id) DO UPDATE SET name = excluded.name, base_game_id = excluded.base_game_id`,
				strings.TrimSpace(family.ID),
				name,
				nullableString(strings.TrimSpace(family.BaseGame)),
				timestamp,
			); err != nil {
				return fmt.Errorf("upsert family %s: %w", family.ID, err)
			}
			result.Families++
		}

		for _, game := range seed.Games {
			id := strings.TrimSpace(game.ID)
			if id == "" {
				id = uuid.NewString()
			}
			state := pipeline.StateImported
			if parsed, ok := pipeline.ParseState(game.State); ok {
				state = parsed
			}
			url := strings.TrimSpace(game.RulebookURL)
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO games (
                    id, bgg_id, name, family_id, family_position, vecna_state,
                    has_rulebook, rulebook_url, has_content, is_published,
                    state_entered_at, created_at, updated_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)
                ON CONFLICT(id) DO UPDATE SET
                    bgg_id = excluded.bgg_id,
                    name = excluded.name,
                    family_id = excluded.family_id,
                    family_position = excluded.family_position,
                    has_rulebook = excluded.has_rulebook,
                    rulebook_url = excluded.rulebook_url,
                    updated_at = excluded.updated_at`,
				id,
				nullableInt64(game.BGGID),
				strings.TrimSpace(game.Name),
				nullableString(strings.TrimSpace(game.Family)),
				game.Position,
				state,
				boolToInt(url != ""),
				nullableString(url),
				boolToInt(state == pipeline.StatePublished),
				timestamp,
				timestamp,
				timestamp,
			); err != nil {
				return fmt.Errorf("upsert game %s: %w", game.Name, err)
			}
			result.Games++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}
