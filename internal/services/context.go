package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	stageKey contextKey = "stage"
	asinKey  contextKey = "asin"
)

// WithRunID annotates context with the reconciliation run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name (load, match, plan, apply, report).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithASIN annotates context with the audiobook identifier currently processed.
func WithASIN(ctx context.Context, asin string) context.Context {
	if asin == "" {
		return ctx
	}
	return context.WithValue(ctx, asinKey, asin)
}

// ASINFromContext returns the ASIN if present.
func ASINFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(asinKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
