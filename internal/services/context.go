package services

import "context"

type contextKey string

const (
	gameIDKey    contextKey = "game_id"
	familyIDKey  contextKey = "family_id"
	requestIDKey contextKey = "request_id"
)

// WithGameID annotates context with the catalog game identifier.
func WithGameID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, gameIDKey, id)
}

// GameIDFromContext extracts the game identifier if present.
func GameIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(gameIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFamilyID annotates context with the family being batch processed.
func WithFamilyID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, familyIDKey, id)
}

// FamilyIDFromContext returns the family identifier if present.
func FamilyIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(familyIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
