// Package catalog persists board games, families, rulebook parses, and
// generated content in SQLite.
//
// The store owns the authoritative vecna_state of every game. State writes go
// through CompareAndSetState so two writers racing on the same game cannot
// both succeed; the loser receives ErrStateConflict and must re-read. Entering
// an in-flight state stamps state_entered_at, which StaleInFlight and
// ReclaimStale use to recover games abandoned by a crashed process.
//
// The schema is embedded and versioned. Opening a database created by a
// different schema version fails with ErrSchemaMismatch rather than migrating.
package catalog
