package access

import "context"

type tokenContextKey struct{}

// SetTokenContext stores the authenticated token ID on the context for
// downstream consumers. An empty ID means the caller is anonymous.
func SetTokenContext(ctx context.Context, tokenID string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, tokenID)
}

// TokenFromContext retrieves the authenticated token ID from the context.
// Returns "" for anonymous callers.
func TokenFromContext(ctx context.Context) string {
	tokenID, _ := ctx.Value(tokenContextKey{}).(string)
	return tokenID
}
