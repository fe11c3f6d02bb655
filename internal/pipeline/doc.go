// Package pipeline defines the Vecna pipeline states and the pure rules that
// govern movement between them.
//
// The State enum is closed: every game sits in exactly one of the eleven
// states. CanTransition is the transition guard used by the workflow
// advancer, the batch orchestrator, and the API (to enable or disable
// actions) and never touches storage. ImpliedTarget maps a processing mode to
// the next step for a game. Presentation metadata (labels, colors, suggested
// actions) lives in presentation.go and is keyed by the same State values so
// display changes never affect transition logic.
//
// When adding a state, extend allStates, the forward rule table in guard.go,
// and the presentation map together.
package pipeline
