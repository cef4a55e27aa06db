package handlers

import (
	"context"

	"anivault/models"
)

type identityKey struct{}

// ContextWithIdentity adds the resolved caller identity to the context.
func ContextWithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext retrieves the caller identity resolved by the identity
// middleware. The zero Identity means the request was anonymous.
func IdentityFromContext(ctx context.Context) models.Identity {
	if identity, ok := ctx.Value(identityKey{}).(models.Identity); ok {
		return identity
	}
	return models.Identity{}
}
