package context

import (
	"context"
	"strings"

	"pickstation/infrastructure/fulfillment"
)

type backendTokenKey struct{}

// NewContextWithBackendToken stores the backend token the kiosk operator signed in with.
func NewContextWithBackendToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, backendTokenKey{}, strings.TrimSpace(token))
}

func GetBackendTokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(backendTokenKey{}).(string)
	return t, ok && t != ""
}

// BackendClient returns client acting for the request's backend token, or
// client itself when the request carries none.
func BackendClient(ctx context.Context, client *fulfillment.Client) *fulfillment.Client {
	if token, ok := GetBackendTokenFromContext(ctx); ok {
		return client.WithCSRFToken(token)
	}
	return client
}
