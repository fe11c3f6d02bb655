// Package config loads, normalizes, and validates Vecna configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VECNA_LLM_API_KEY. The Config type centralizes every knob the CLI and API
// server need so the data directory and collaborator credentials are
// discovered in one pass.
package config
