package pipeline

import "fmt"

// Flags carries the game attributes the guard consults.
type Flags struct {
	HasRulebook bool
	HasContent  bool
}

// Decision is the guard's verdict for one transition.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

type transition struct {
	from State
	to   State
}

type rule func(Flags) Decision

func always(Flags) Decision { return allow() }

func requireRulebook(f Flags) Decision {
	if f.HasRulebook {
		return allow()
	}
	return deny("rulebook required: upload a rulebook before continuing")
}

func requireNoRulebook(f Flags) Decision {
	if !f.HasRulebook {
		return allow()
	}
	return deny("game already has a rulebook; move to rulebook_ready instead")
}

// forwardRules enumerates every forward move. Moves not listed here are
// either backward resets or rejected.
var forwardRules = map[transition]rule{
	{StateImported, StateEnriched}:                always,
	{StateEnriched, StateRulebookReady}:           requireRulebook,
	{StateEnriched, StateRulebookMissing}:         requireNoRulebook,
	{StateRulebookMissing, StateRulebookReady}:    requireRulebook,
	{StateRulebookMissing, StateTaxonomyAssigned}: always,
	{StateRulebookReady, StateParsing}:            always,
	{StateParsing, StateParsed}:                   always,
	{StateParsed, StateTaxonomyAssigned}:          always,
	{StateTaxonomyAssigned, StateGenerating}:      always,
	{StateGenerating, StateGenerated}:             always,
	{StateGenerated, StateReviewPending}:          always,
	{StateReviewPending, StatePublished}:          always,
	{StateReviewPending, StateGenerating}:         always,
	{StatePublished, StateReviewPending}:          always,
}

// CanTransition decides whether a game in current may move to target. It is
// total over known and unknown inputs and never mutates anything.
func CanTransition(current, target State, flags Flags) Decision {
	if !current.Valid() {
		return deny(fmt.Sprintf("unknown current state %q", current))
	}
	if target == "" {
		return deny(noRule(current))
	}
	if !target.Valid() {
		return deny(fmt.Sprintf("unknown target state %q", target))
	}
	if current == target {
		return deny(noRule(current))
	}
	if r, ok := forwardRules[transition{from: current, to: target}]; ok {
		return r(flags)
	}
	if target.Before(current) {
		return allow()
	}
	return deny(noRule(current))
}

func noRule(current State) string {
	return fmt.Sprintf("no rule for %s->unspecified", current)
}

// TargetDecision pairs a target with the guard's verdict.
type TargetDecision struct {
	Target   State
	Decision Decision
}

// Targets evaluates every known state as a target from current.
func Targets(current State, flags Flags) []TargetDecision {
	out := make([]TargetDecision, 0, len(allStates))
	for _, target := range allStates {
		out = append(out, TargetDecision{Target: target, Decision: CanTransition(current, target, flags)})
	}
	return out
}

// Operation names the external collaborator a transition triggers.
type Operation string

const (
	OperationNone     Operation = ""
	OperationParse    Operation = "parse"
	OperationGenerate Operation = "generate"
)

// Trigger describes the in-flight sequence started by moving into an
// in-flight state.
type Trigger struct {
	Operation Operation
	InFlight  State
	Success   State
}

// TriggerFor reports the collaborator sequence a target starts, if any.
func TriggerFor(target State) (Trigger, bool) {
	switch target {
	case StateParsing:
		return Trigger{Operation: OperationParse, InFlight: StateParsing, Success: StateParsed}, true
	case StateGenerating:
		return Trigger{Operation: OperationGenerate, InFlight: StateGenerating, Success: StateGenerated}, true
	default:
		return Trigger{}, false
	}
}

// RollbackState returns the stable state a failed in-flight operation falls
// back to. origin is the state the game held before entering inFlight; pass
// "" when it is unknown (stale reclaim) to get the default.
func RollbackState(inFlight, origin State) State {
	switch inFlight {
	case StateParsing:
		return StateRulebookReady
	case StateGenerating:
		if origin == StateReviewPending {
			return StateReviewPending
		}
		return StateTaxonomyAssigned
	default:
		return origin
	}
}
