package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Presentation holds display metadata for a state. It has no influence on
// transition rules.
type Presentation struct {
	State           State
	Label           string
	Color           string
	Icon            string
	Description     string
	SuggestedAction string
}

var presentations = map[State]Presentation{
	StateImported: {
		Color:           "gray",
		Icon:            "download",
		Description:     "Metadata imported from BoardGameGeek",
		SuggestedAction: "Run enrichment",
	},
	StateEnriched: {
		Color:           "blue",
		Icon:            "book-open",
		Description:     "Wikidata and Wikipedia data attached",
		SuggestedAction: "Upload a rulebook or mark the rulebook as missing",
	},
	StateRulebookMissing: {
		Label:           "Rulebook Missing",
		Color:           "orange",
		Icon:            "file-question",
		Description:     "No rulebook is available for this game",
		SuggestedAction: "Add a rulebook, or skip to taxonomy using Wikipedia only",
	},
	StateRulebookReady: {
		Color:           "cyan",
		Icon:            "file-check",
		Description:     "Rulebook uploaded and waiting to be parsed",
		SuggestedAction: "Parse the rulebook",
	},
	StateParsing: {
		Color:           "yellow",
		Icon:            "loader",
		Description:     "Rulebook text extraction in progress",
		SuggestedAction: "Wait, or mark as complete (manual) if stuck",
	},
	StateParsed: {
		Color:           "teal",
		Icon:            "file-text",
		Description:     "Rulebook text and complexity extracted",
		SuggestedAction: "Assign taxonomy",
	},
	StateTaxonomyAssigned: {
		Color:           "indigo",
		Icon:            "tags",
		Description:     "Categories and mechanics assigned",
		SuggestedAction: "Generate content",
	},
	StateGenerating: {
		Color:           "yellow",
		Icon:            "sparkles",
		Description:     "AI content generation in progress",
		SuggestedAction: "Wait, or mark as complete (manual) if stuck",
	},
	StateGenerated: {
		Color:           "purple",
		Icon:            "file-pen",
		Description:     "Content generated and awaiting submission for review",
		SuggestedAction: "Submit for review",
	},
	StateReviewPending: {
		Color:           "amber",
		Icon:            "eye",
		Description:     "Waiting for staff review",
		SuggestedAction: "Publish, or regenerate content",
	},
	StatePublished: {
		Color:       "green",
		Icon:        "globe",
		Description: "Live on the site",
	},
}

// Meta returns display metadata for state. Unknown states get a neutral
// placeholder so callers never need a nil check.
func Meta(state State) Presentation {
	p, ok := presentations[state]
	if !ok {
		return Presentation{State: state, Label: string(state), Color: "gray", Icon: "help-circle", Description: "Unknown state"}
	}
	p.State = state
	if p.Label == "" {
		// Casers are stateful; build one per call.
		p.Label = cases.Title(language.English).String(strings.ReplaceAll(string(state), "_", " "))
	}
	return p
}

// AllMeta returns display metadata for every state in pipeline order.
func AllMeta() []Presentation {
	out := make([]Presentation, 0, len(allStates))
	for _, state := range allStates {
		out = append(out, Meta(state))
	}
	return out
}
