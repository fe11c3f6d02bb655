package api

import (
	"time"

	"vecna/internal/catalog"
	"vecna/internal/pipeline"
	"vecna/internal/workflow"
)

// FromGame converts a catalog record to its API representation.
func FromGame(game *catalog.Game) Game {
	if game == nil {
		return Game{}
	}
	meta := pipeline.Meta(game.State)
	return Game{
		ID:              game.ID,
		BGGID:           game.BGGID,
		Name:            game.Name,
		FamilyID:        game.FamilyID,
		FamilyPosition:  game.FamilyPosition,
		State:           string(game.State),
		StateLabel:      meta.Label,
		StateColor:      meta.Color,
		SuggestedAction: meta.SuggestedAction,
		Error:           game.Error,
		HasRulebook:     game.HasRulebook,
		RulebookURL:     game.RulebookURL,
		HasContent:      game.HasContent,
		IsPublished:     game.IsPublished,
		InFlight:        game.State.IsInFlight(),
		StateEnteredAt:  formatTime(game.StateEnteredAt),
		CreatedAt:       formatTime(game.CreatedAt),
		UpdatedAt:       formatTime(game.UpdatedAt),
	}
}

// FromGames converts a slice of catalog games.
func FromGames(games []*catalog.Game) []Game {
	out := make([]Game, 0, len(games))
	for _, game := range games {
		if game == nil {
			continue
		}
		out = append(out, FromGame(game))
	}
	return out
}

// FromFamily converts a catalog family.
func FromFamily(family *catalog.Family) Family {
	if family == nil {
		return Family{}
	}
	return Family{
		ID:         family.ID,
		Name:       family.Name,
		BaseGameID: family.BaseGameID,
		GameCount:  family.GameCount,
	}
}

// FromPresentation converts display metadata.
func FromPresentation(meta pipeline.Presentation) StateMeta {
	return StateMeta{
		State:           string(meta.State),
		Label:           meta.Label,
		Color:           meta.Color,
		Icon:            meta.Icon,
		Description:     meta.Description,
		SuggestedAction: meta.SuggestedAction,
		InFlight:        meta.State.IsInFlight(),
	}
}

// StateCatalog returns display metadata for every state in pipeline order.
func StateCatalog() []StateMeta {
	all := pipeline.AllMeta()
	out := make([]StateMeta, 0, len(all))
	for _, meta := range all {
		out = append(out, FromPresentation(meta))
	}
	return out
}

// TransitionsFor evaluates the guard for every target state.
func TransitionsFor(game *catalog.Game) TransitionsResponse {
	decisions := pipeline.Targets(game.State, game.Flags())
	options := make([]TransitionOption, 0, len(decisions))
	for _, d := range decisions {
		options = append(options, TransitionOption{
			Target:  string(d.Target),
			Label:   pipeline.Meta(d.Target).Label,
			Allowed: d.Decision.Allowed,
			Reason:  d.Decision.Reason,
		})
	}
	return TransitionsResponse{GameID: game.ID, State: string(game.State), Transitions: options}
}

// FromBatchSummary converts an orchestrator summary.
func FromBatchSummary(summary *workflow.BatchSummary) BatchSummary {
	if summary == nil {
		return BatchSummary{}
	}
	results := make([]BatchResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		results = append(results, BatchResult{
			GameID:        r.GameID,
			Name:          r.Name,
			PreviousState: string(r.PreviousState),
			NewState:      string(r.NewState),
			Success:       r.Success,
			Steps:         r.Steps,
			Error:         r.Error,
			ErrorKind:     r.ErrorKind,
			Skipped:       r.Skipped,
			SkipReason:    r.SkipReason,
		})
	}
	return BatchSummary{
		RequestID: summary.RequestID,
		Mode:      string(summary.Mode),
		Summary: BatchCounts{
			Total:     summary.Summary.Total,
			Processed: summary.Summary.Processed,
			Skipped:   summary.Summary.Skipped,
			Errors:    summary.Summary.Errors,
		},
		Results:      results,
		Stopped:      summary.Stopped,
		NotAttempted: summary.NotAttempted,
	}
}

func fromRulebookParse(parse *catalog.RulebookParse) *RulebookParse {
	if parse == nil {
		return nil
	}
	return &RulebookParse{
		TextChars:  parse.TextChars,
		PageCount:  parse.PageCount,
		Complexity: parse.Complexity,
		ParsedAt:   formatTime(parse.ParsedAt),
	}
}

func fromContent(items []catalog.Content) []Content {
	out := make([]Content, 0, len(items))
	for _, item := range items {
		out = append(out, Content{
			ContentType: item.ContentType,
			Body:        item.Body,
			Model:       item.Model,
			CreatedAt:   formatTime(item.CreatedAt),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
