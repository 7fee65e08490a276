package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ActorKey is the context key for the acting user or system.
	ActorKey contextKey = "actor"

	// EnvironmentKey is the context key for the environment being operated on.
	EnvironmentKey contextKey = "environment"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithActor adds the acting identity to the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActor retrieves the acting identity from the context.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}

// WithEnvironment adds an environment id to the context.
func WithEnvironment(ctx context.Context, environmentID string) context.Context {
	return context.WithValue(ctx, EnvironmentKey, environmentID)
}

// GetEnvironment retrieves the environment id from the context.
func GetEnvironment(ctx context.Context) string {
	if env, ok := ctx.Value(EnvironmentKey).(string); ok {
		return env
	}
	return ""
}

// contextAttrs extracts common fields from context for logging.
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), requestID))
	}
	if actor := GetActor(ctx); actor != "" {
		attrs = append(attrs, slog.String(string(ActorKey), actor))
	}
	if env := GetEnvironment(ctx); env != "" {
		attrs = append(attrs, slog.String(string(EnvironmentKey), env))
	}

	return attrs
}
