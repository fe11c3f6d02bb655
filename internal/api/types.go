package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Game describes a catalog game in a transport-friendly format.
type Game struct {
	ID              string `json:"id"`
	BGGID           int64  `json:"bgg_id,omitempty"`
	Name            string `json:"name"`
	FamilyID        string `json:"family_id,omitempty"`
	FamilyPosition  int    `json:"family_position"`
	State           string `json:"vecna_state"`
	StateLabel      string `json:"state_label"`
	StateColor      string `json:"state_color"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	Error           string `json:"vecna_error,omitempty"`
	HasRulebook     bool   `json:"has_rulebook"`
	RulebookURL     string `json:"rulebook_url,omitempty"`
	HasContent      bool   `json:"has_content"`
	IsPublished     bool   `json:"is_published"`
	InFlight        bool   `json:"in_flight"`
	StateEnteredAt  string `json:"state_entered_at,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// GameDetail extends Game with rulebook and content artefacts.
type GameDetail struct {
	Game     Game           `json:"game"`
	Rulebook *RulebookParse `json:"rulebook,omitempty"`
	Content  []Content      `json:"content"`
}

// RulebookParse summarizes a stored rulebook parse.
type RulebookParse struct {
	TextChars  int     `json:"text_chars"`
	PageCount  int     `json:"page_count"`
	Complexity float64 `json:"complexity"`
	ParsedAt   string  `json:"parsed_at,omitempty"`
}

// Content is one generated document.
type Content struct {
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
	Model       string `json:"model,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Family describes a family of games.
type Family struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BaseGameID string `json:"base_game_id,omitempty"`
	GameCount  int    `json:"game_count"`
}

// FamilyDetail lists a family's games in processing order.
type FamilyDetail struct {
	Family Family `json:"family"`
	Games  []Game `json:"games"`
}

// StateMeta is the display metadata for one pipeline state.
type StateMeta struct {
	State           string `json:"state"`
	Label           string `json:"label"`
	Color           string `json:"color"`
	Icon            string `json:"icon"`
	Description     string `json:"description"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	InFlight        bool   `json:"in_flight"`
}

// TransitionOption is the guard's verdict for moving to Target.
type TransitionOption struct {
	Target  string `json:"target"`
	Label   string `json:"label"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// TransitionsResponse lists every target for a game.
type TransitionsResponse struct {
	GameID      string             `json:"game_id"`
	State       string             `json:"vecna_state"`
	Transitions []TransitionOption `json:"transitions"`
}

// BatchResult is one game's outcome within a batch run.
type BatchResult struct {
	GameID        string `json:"game_id"`
	Name          string `json:"name"`
	PreviousState string `json:"previous_state"`
	NewState      string `json:"new_state"`
	Success       bool   `json:"success"`
	Steps         int    `json:"steps,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	Skipped       bool   `json:"skipped,omitempty"`
	SkipReason    string `json:"skip_reason,omitempty"`
}

// BatchCounts aggregates a batch run.
type BatchCounts struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// BatchSummary is the response for a family run.
type BatchSummary struct {
	RequestID    string        `json:"request_id"`
	Mode         string        `json:"mode"`
	Summary      BatchCounts   `json:"summary"`
	Results      []BatchResult `json:"results"`
	Stopped      bool          `json:"stopped"`
	NotAttempted []string      `json:"not_attempted,omitempty"`
}

// AdvanceRequest is the body of POST /api/games/:id/advance.
type AdvanceRequest struct {
	Target string `json:"target"`
}

// OverrideRequest is the body of POST /api/games/:id/override.
type OverrideRequest struct {
	Target string `json:"target"`
	Note   string `json:"note"`
}

// ProcessRequest is the body of POST /api/families/:id/process. Omitted
// flags fall back to the configured defaults.
type ProcessRequest struct {
	Mode        string `json:"mode"`
	SkipBlocked *bool  `json:"skip_blocked,omitempty"`
	StopOnError *bool  `json:"stop_on_error,omitempty"`
}

// ReclaimResponse reports games rolled back by a reclaim pass.
type ReclaimResponse struct {
	Count int    `json:"count"`
	Games []Game `json:"games"`
}

// SeedResponse reports rows written by an import.
type SeedResponse struct {
	Families int `json:"families"`
	Games    int `json:"games"`
}

// APIError is the error payload.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps errors. Game carries the stored game when a failed
// write still changed it (collaborator rollback).
type ErrorEnvelope struct {
	Error APIError `json:"error"`
	Game  *Game    `json:"game,omitempty"`
}
