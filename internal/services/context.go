package services

import "context"

type contextKey int

const (
	jobIDKey contextKey = iota
	stageKey
	requestIDKey
)

// WithJobID tags ctx with a transcription job identifier. Blank IDs leave
// ctx unchanged.
func WithJobID(ctx context.Context, id string) context.Context {
	return withValue(ctx, jobIDKey, id)
}

// JobIDFromContext returns the job identifier set by WithJobID.
func JobIDFromContext(ctx context.Context) (string, bool) {
	return valueFrom(ctx, jobIDKey)
}

// WithStage tags ctx with the workflow stage (submit, refresh, poll).
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage set by WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	return valueFrom(ctx, stageKey)
}

// WithRequestID tags ctx with the HTTP request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation ID set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return valueFrom(ctx, requestIDKey)
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
