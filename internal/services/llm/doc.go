// Package llm implements the content generation collaborator on top of an
// OpenRouter-compatible chat completion client.
//
// # Entry Points
//
// NewClient: construct a chat client from Config.
// Client.Generate: request one content section and decode its {"body"} payload.
// Client.HealthCheck: verify the API key and model are usable.
// NewGenerator / NewGeneratorFromConfig: build the generate collaborator.
// Generator.GenerateContent: write every configured content type for a game.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A Retry-After header overrides the computed delay.
// Refusals and malformed payloads are not retried. Context cancellation
// aborts retries immediately.
//
// # Failure Messages
//
// Generator errors carry a services marker and an operator-facing message
// ("Content generation rate limited (HTTP 429)") that the workflow stores as
// the game's vecna_error after rolling back.
package llm
