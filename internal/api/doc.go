// Package api exposes the pipeline over HTTP and defines the wire-format
// types shared by the HTTP server and the CLI's --json output.
//
// # Key Types
//
// Game: transport representation of a catalog game with its state label and
// suggested next action.
//
// TransitionOption: guard verdict for one target, used to enable or disable
// UI actions without side effects.
//
// BatchSummary: per-game results and aggregate counts from a family run.
//
// # Server
//
// Server wraps a gin engine. Read routes go through GameService; write routes
// call the workflow Advancer, Orchestrator, and Reclaimer. Guard rejections and
// busy games map to 409, collaborator failures to 502 with the rolled-back
// game in the body.
//
// # Design Notes
//
// Payloads use snake_case keys matching the catalog columns. Timestamps use
// RFC3339 with milliseconds.
package api
