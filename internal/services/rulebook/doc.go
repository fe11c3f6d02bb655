// Package rulebook implements the parse collaborator: it fetches a game's
// rulebook PDF, extracts its text, scores rules complexity, and records the
// result in the catalog.
//
// Failures are wrapped with services markers and phrased for operators, so
// the message the workflow stores as vecna_error can be shown as-is
// ("No text extracted", "Rulebook download failed: HTTP 404").
package rulebook
