package logging

import (
	"context"
	"log/slog"

	"vecna/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldGameID is the structured logging key for catalog game identifiers.
	FieldGameID = "game_id"
	// FieldFamilyID is the structured logging key for family identifiers.
	FieldFamilyID      = "family_id"
	FieldCorrelationID = "correlation_id"
	// FieldEventType names the kind of pipeline event a log line records
	// (transition_applied, batch_item, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.GameIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldGameID, id))
	}
	if fam, ok := services.FamilyIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFamilyID, fam))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
