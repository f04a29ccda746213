// Package middleware holds the HTTP plumbing shared by the web server and the
// API client: request logging, metrics and bearer authentication.
package middleware

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// OperationKey is the context key for the name of the API operation being called.
	OperationKey contextKey = "operation"
	// UserIDKey is the context key for storing the signed-in user ID.
	UserIDKey contextKey = "user_id"
)

// WithOperation names the API operation a request belongs to. The name is
// used as a metrics label and in logs.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, OperationKey, op)
}

// GetOperation extracts the operation name from the context.
// Returns "unknown" if not found.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(OperationKey).(string); ok && op != "" {
		return op
	}
	return "unknown"
}

// WithUserID stores the signed-in user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base with the given decorators. The first decorator is the outermost.
func Chain(base http.RoundTripper, wraps ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(wraps) - 1; i >= 0; i-- {
		base = wraps[i](base)
	}
	return base
}
