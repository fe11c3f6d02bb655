package pipeline

import "strings"

// State represents a game's position in the Vecna pipeline.
type State string

const (
	StateImported         State = "imported"
	StateEnriched         State = "enriched"
	StateRulebookMissing  State = "rulebook_missing"
	StateRulebookReady    State = "rulebook_ready"
	StateParsing          State = "parsing"
	StateParsed           State = "parsed"
	StateTaxonomyAssigned State = "taxonomy_assigned"
	StateGenerating       State = "generating"
	StateGenerated        State = "generated"
	StateReviewPending    State = "review_pending"
	StatePublished        State = "published"
)

// allStates is ordered by pipeline position. The index doubles as the rank
// used to tell forward moves from backward resets.
var allStates = []State{
	StateImported,
	StateEnriched,
	StateRulebookMissing,
	StateRulebookReady,
	StateParsing,
	StateParsed,
	StateTaxonomyAssigned,
	StateGenerating,
	StateGenerated,
	StateReviewPending,
	StatePublished,
}

var stateRank = func() map[State]int {
	ranks := make(map[State]int, len(allStates))
	for i, state := range allStates {
		ranks[state] = i
	}
	return ranks
}()

var inFlightStates = map[State]struct{}{
	StateParsing:    {},
	StateGenerating: {},
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateRank[normalized]
	return normalized, ok
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

// IsInFlight reports whether the state represents an outstanding external call.
func (s State) IsInFlight() bool {
	_, ok := inFlightStates[s]
	return ok
}

// IsTerminal reports whether the state is the end of the pipeline.
func (s State) IsTerminal() bool {
	return s == StatePublished
}

// InFlightStates returns the transient states in pipeline order.
func InFlightStates() []State {
	return []State{StateParsing, StateGenerating}
}

// Before reports whether s sits earlier in the pipeline than other.
func (s State) Before(other State) bool {
	a, okA := stateRank[s]
	b, okB := stateRank[other]
	return okA && okB && a < b
}

func (s State) String() string {
	return string(s)
}
