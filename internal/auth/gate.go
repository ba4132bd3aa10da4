package auth

import "context"

// Context is the result of a successful gate check. It is owned by the
// request handler that asked for it and must not outlive the request.
type Context struct {
	Identity Identity
	Role     Role
}

// DecisionHook observes the outcome of every gate decision. Outcomes:
// allowed, unauthenticated, forbidden, error.
type DecisionHook func(outcome string)

// Gate is the single chokepoint enforcing a minimum role before privileged
// logic runs. Routes call exactly one Require* method and never compare role
// strings themselves.
type Gate struct {
	resolver *Resolver
	decided  DecisionHook
}

func NewGate(profiles ProfileStore, hook DecisionHook) *Gate {
	if hook == nil {
		hook = func(string) {}
	}
	return &Gate{resolver: NewResolver(profiles), decided: hook}
}

// Require resolves the caller's identity and role and checks it against
// minimum. Failures are typed: ErrUnauthenticated (401), ErrRoleResolution
// (500), ErrForbidden (403).
func (g *Gate) Require(ctx context.Context, minimum Role) (Context, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		g.decided("unauthenticated")
		return Context{}, ErrUnauthenticated
	}
	role, err := g.resolver.ResolveRole(ctx, identity)
	if err != nil {
		g.decided("error")
		return Context{}, err
	}
	if !AtLeast(role, minimum) {
		g.decided("forbidden")
		return Context{}, ErrForbidden
	}
	g.decided("allowed")
	return Context{Identity: identity, Role: role}, nil
}

// RequireModerator gates read-mostly moderation operations.
func (g *Gate) RequireModerator(ctx context.Context) (Context, error) {
	return g.Require(ctx, RoleModerator)
}

// RequireAdmin gates destructive administrative operations.
func (g *Gate) RequireAdmin(ctx context.Context) (Context, error) {
	return g.Require(ctx, RoleAdmin)
}

// RequireUltraAdmin gates role management.
func (g *Gate) RequireUltraAdmin(ctx context.Context) (Context, error) {
	return g.Require(ctx, RoleUltraAdmin)
}
