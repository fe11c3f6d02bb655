// Package services defines shared utilities consumed by the pipeline
// collaborators (rulebook parser, content generator) and the workflow layer.
//
// Key responsibilities:
//   - Context helpers that stamp game IDs, family IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so collaborator failures
//     carry a consistent classification (validation vs transient).
//
// Use these helpers when wiring new collaborators so failure reporting and
// observability stay uniform across the pipeline.
package services
