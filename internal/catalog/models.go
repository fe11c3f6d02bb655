package catalog

import (
	"time"

	"vecna/internal/pipeline"
)

// Game is a catalog entry tracked through the pipeline.
type Game struct {
	ID             string
	BGGID          int64
	Name           string
	FamilyID       string
	FamilyPosition int
	State          pipeline.State
	PreviousState  pipeline.State
	Error          string
	HasRulebook    bool
	RulebookURL    string
	HasContent     bool
	IsPublished    bool
	StateEnteredAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Flags returns the guard inputs derived from the game's attributes.
func (g *Game) Flags() pipeline.Flags {
	if g == nil {
		return pipeline.Flags{}
	}
	return pipeline.Flags{HasRulebook: g.HasRulebook, HasContent: g.HasContent}
}

// DisplayName returns the game's name, falling back to its id.
func (g *Game) DisplayName() string {
	if g == nil {
		return ""
	}
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}

// Family groups a base game with its expansions.
type Family struct {
	ID         string
	Name       string
	BaseGameID string
	GameCount  int
	CreatedAt  time.Time
}

// FlagUpdate carries optional attribute changes for UpdateFlags. Nil fields
// are left untouched.
type FlagUpdate struct {
	HasRulebook *bool
	RulebookURL *string
	HasContent  *bool
}

// RulebookParse records the outcome of a successful rulebook parse.
type RulebookParse struct {
	GameID     string
	TextChars  int
	PageCount  int
	Complexity float64
	ParsedAt   time.Time
}

// Content is one generated content document for a game.
type Content struct {
	GameID      string
	ContentType string
	Body        string
	Model       string
	CreatedAt   time.Time
}
