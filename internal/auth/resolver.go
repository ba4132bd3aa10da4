package auth

import (
	"context"
	"fmt"
	"strings"
)

// ProfileStore is the single-row lookup the resolver needs. A missing row is
// reported via ok=false and is not an error; err is reserved for the lookup
// itself failing.
type ProfileStore interface {
	ProfileRole(ctx context.Context, userID string) (role string, ok bool, err error)
}

// Resolver determines a caller's current tier on every privileged request.
// Results are never cached: a role change must be visible on the next request.
type Resolver struct {
	profiles ProfileStore
}

func NewResolver(profiles ProfileStore) *Resolver {
	return &Resolver{profiles: profiles}
}

// ResolveRole applies the precedence order: profile row, then the token's
// app-metadata hint, then its user-metadata hint. A value counts as a role
// only if it is a non-empty string. A store failure surfaces as
// ErrRoleResolution; "no role anywhere" returns the empty role, which
// weighs WeightUnknown and therefore fails closed at the gate.
func (r *Resolver) ResolveRole(ctx context.Context, identity Identity) (Role, error) {
	role, ok, err := r.profiles.ProfileRole(ctx, identity.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoleResolution, err)
	}
	if ok {
		if v := strings.TrimSpace(role); v != "" {
			return Role(v), nil
		}
	}
	if v := strings.TrimSpace(identity.AppRole); v != "" {
		return Role(v), nil
	}
	if v := strings.TrimSpace(identity.UserRole); v != "" {
		return Role(v), nil
	}
	return "", nil
}
