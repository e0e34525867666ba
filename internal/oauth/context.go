package oauth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// tokenContextKey is the context key under which the validated access
// token is stored.
const tokenContextKey contextKey = "accessToken"

// ContextWithToken returns a new context carrying the validated access
// token. The bearer middleware stores the token here so downstream
// handlers can identify the calling client.
func ContextWithToken(ctx context.Context, token *AccessToken) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// TokenFromContext retrieves the validated access token from the context.
func TokenFromContext(ctx context.Context) (*AccessToken, bool) {
	token, ok := ctx.Value(tokenContextKey).(*AccessToken)
	return token, ok && token != nil
}
