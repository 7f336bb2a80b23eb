package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID    contextKey = "request_id"
	ContextKeyComparisonID contextKey = "comparison_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithComparisonID adds the comparison ID being processed to the context
func WithComparisonID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyComparisonID, id)
}

// ComparisonIDFromContext extracts the comparison ID from context
func ComparisonIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyComparisonID).(string); ok {
		return id
	}
	return ""
}
