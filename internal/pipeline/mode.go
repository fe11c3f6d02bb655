package pipeline

import (
	"fmt"
	"strings"
)

// Mode selects which transitions the batch orchestrator attempts per game.
type Mode string

const (
	ModeFull         Mode = "full"
	ModeParseOnly    Mode = "parse-only"
	ModeGenerateOnly Mode = "generate-only"
	ModeFromCurrent  Mode = "from-current"
)

var allModes = []Mode{ModeFull, ModeParseOnly, ModeGenerateOnly, ModeFromCurrent}

// AllModes returns the supported processing modes.
func AllModes() []Mode {
	cp := make([]Mode, len(allModes))
	copy(cp, allModes)
	return cp
}

// ParseMode converts a string into a known Mode. Underscores are accepted in
// place of dashes.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
	for _, mode := range allModes {
		if string(mode) == normalized {
			return mode, nil
		}
	}
	return "", fmt.Errorf("unknown processing mode %q (want one of full, parse-only, generate-only, from-current)", value)
}

// Chains reports whether the orchestrator keeps stepping a game forward
// after a successful transition. from-current applies exactly one step.
func (m Mode) Chains() bool {
	return m != ModeFromCurrent
}

// NextForward returns the single forward step a game would take from state,
// ignoring the mode. Publishing is never implied; it stays a human action.
func NextForward(state State, flags Flags) (State, bool) {
	switch state {
	case StateImported:
		return StateEnriched, true
	case StateEnriched:
		if flags.HasRulebook {
			return StateRulebookReady, true
		}
		return StateRulebookMissing, true
	case StateRulebookMissing:
		return StateRulebookReady, true
	case StateRulebookReady:
		return StateParsing, true
	case StateParsed:
		return StateTaxonomyAssigned, true
	case StateTaxonomyAssigned:
		return StateGenerating, true
	case StateGenerated:
		return StateReviewPending, true
	default:
		return "", false
	}
}

// ImpliedTarget maps a game's current state and the processing mode to the
// next transition to attempt. The boolean is false when the mode implies no
// move from this state.
func ImpliedTarget(state State, mode Mode, flags Flags) (State, bool) {
	switch mode {
	case ModeFromCurrent:
		return NextForward(state, flags)
	case ModeParseOnly:
		return parseStep(state, flags)
	case ModeGenerateOnly:
		return generateStep(state)
	case ModeFull:
		if next, ok := parseStep(state, flags); ok {
			return next, true
		}
		return generateStep(state)
	default:
		return "", false
	}
}

func parseStep(state State, flags Flags) (State, bool) {
	switch state {
	case StateImported, StateEnriched, StateRulebookMissing, StateRulebookReady:
		return NextForward(state, flags)
	default:
		return "", false
	}
}

func generateStep(state State) (State, bool) {
	switch state {
	case StateParsed:
		return StateTaxonomyAssigned, true
	case StateTaxonomyAssigned, StateReviewPending:
		return StateGenerating, true
	default:
		return "", false
	}
}
