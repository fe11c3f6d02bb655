// Package workflow moves games through the Vecna pipeline.
//
// The Advancer performs one guarded transition for a single game. Moves into
// parsing or generating run the matching collaborator synchronously: the game
// is written to the in-flight state first, then to the success state or, on
// failure, rolled back with vecna_error set. A per-game in-process lock
// rejects overlapping advances with ErrGameBusy and every state write is a
// compare-and-swap against the catalog, so a lost race surfaces as
// catalog.ErrStateConflict instead of a silent overwrite.
//
// The Orchestrator walks a family in input order, deriving each game's target
// from the processing mode, and folds guard rejections and collaborator
// failures into a BatchSummary instead of aborting.
//
// The Reclaimer rolls back games left in an in-flight state past the
// configured timeout, typically after a crash.
package workflow
