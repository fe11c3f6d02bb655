package catalog

import (
	"database/sql"
	"errors"
	"time"

	"vecna/internal/pipeline"
)

const gameColumns = "id, bgg_id, name, family_id, family_position, vecna_state, previous_state, vecna_error, has_rulebook, rulebook_url, has_content, is_published, state_entered_at, created_at, updated_at"

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface{ Scan(dest ...any) error }

func scanGame(scanner rowScanner) (*Game, error) {
	var (
		id             string
		bggID          sql.NullInt64
		name           string
		familyID       sql.NullString
		familyPosition sql.NullInt64
		stateStr       string
		previousStr    sql.NullString
		errorMessage   sql.NullString
		hasRulebook    sql.NullInt64
		rulebookURL    sql.NullString
		hasContent     sql.NullInt64
		isPublished    sql.NullInt64
		enteredRaw     sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&bggID,
		&name,
		&familyID,
		&familyPosition,
		&stateStr,
		&previousStr,
		&errorMessage,
		&hasRulebook,
		&rulebookURL,
		&hasContent,
		&isPublished,
		&enteredRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	game := &Game{
		ID:             id,
		BGGID:          bggID.Int64,
		Name:           name,
		FamilyID:       familyID.String,
		FamilyPosition: int(familyPosition.Int64),
		State:          pipeline.State(stateStr),
		PreviousState:  pipeline.State(previousStr.String),
		Error:          errorMessage.String,
		HasRulebook:    hasRulebook.Int64 != 0,
		RulebookURL:    rulebookURL.String,
		HasContent:     hasContent.Int64 != 0,
		IsPublished:    isPublished.Int64 != 0,
	}
	if entered, err := parseTimeString(enteredRaw.String); err == nil {
		game.StateEnteredAt = entered
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		game.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		game.UpdatedAt = updated
	}
	return game, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
