package auth

import (
	"context"
	"errors"
	"testing"
)

type stubProfiles struct {
	role string
	ok   bool
	err  error
}

func (s *stubProfiles) ProfileRole(_ context.Context, _ string) (string, bool, error) {
	return s.role, s.ok, s.err
}

func TestResolveRolePrecedence(t *testing.T) {
	cases := []struct {
		name     string
		profile  string
		hasRow   bool
		appRole  string
		userRole string
		want     Role
	}{
		{"profile wins over both hints", "moderator", true, "admin", "ultra_admin", RoleModerator},
		{"app hint when no row", "", false, "admin", "user", RoleAdmin},
		{"user hint when app hint empty", "", false, "", "moderator", RoleModerator},
		{"blank profile role falls through", "   ", true, "admin", "", RoleAdmin},
		{"nothing anywhere", "", false, "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(&stubProfiles{role: tc.profile, ok: tc.hasRow})
			identity := Identity{ID: "user-1", AppRole: tc.appRole, UserRole: tc.userRole}
			got, err := r.ResolveRole(context.Background(), identity)
			if err != nil {
				t.Fatalf("ResolveRole: %v", err)
			}
			if got != tc.want {
				t.Fatalf("resolved %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveRoleStoreFailureIsLoud(t *testing.T) {
	r := NewResolver(&stubProfiles{err: errors.New("connection refused")})
	_, err := r.ResolveRole(context.Background(), Identity{ID: "user-1", AppRole: "admin"})
	if !errors.Is(err, ErrRoleResolution) {
		t.Fatalf("expected ErrRoleResolution, got %v", err)
	}
	if StatusFor(err) != 500 {
		t.Fatalf("expected status 500, got %d", StatusFor(err))
	}
}

func TestResolveRoleMissingRowFailsClosedSilently(t *testing.T) {
	r := NewResolver(&stubProfiles{ok: false})
	role, err := r.ResolveRole(context.Background(), Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("missing row must not error: %v", err)
	}
	if Weight(role) != WeightUnknown {
		t.Fatalf("expected unresolvable role, got %q", role)
	}
}
