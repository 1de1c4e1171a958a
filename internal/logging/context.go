package logging

import (
	"context"
	"log/slog"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one sync or resolve invocation.
	FieldRunID = "run_id"
	// FieldStage is the pipeline stage (load, match, plan, apply, report).
	FieldStage = "stage"
	// FieldASIN is the audiobook identifier being processed.
	FieldASIN = "asin"
	// FieldLibraryID is the library record identifier being processed.
	FieldLibraryID = "library_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"

	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if asin, ok := services.ASINFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldASIN, asin))
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
	return logger.With(Args(fields...)...)
}
