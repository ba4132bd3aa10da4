package auth

import (
	"context"
	"strings"
)

// Identity is an authenticated caller: an opaque user id plus the role hints
// the session token carried. Hints are advisory; the profile row wins during
// resolution.
type Identity struct {
	ID       string
	AppRole  string // provider app-metadata hint
	UserRole string // provider user-metadata hint
}

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	identity.ID = strings.TrimSpace(identity.ID)
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || v.ID == "" {
		return Identity{}, false
	}
	return v, true
}
