package agent

import "context"

// userIDKey is the context key carrying the requesting user's identity.
// Tools register with Genkit once at startup, so per-request identity
// travels through the context rather than the tool closure.
type userIDKey struct{}

// WithUserID returns a context carrying the user identity for tool handlers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext retrieves the user identity set by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey{}).(string)
	return uid, ok
}
