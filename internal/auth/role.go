package auth

import (
	"fmt"
	"strings"
)

// Role is a named privilege tier. Tiers form a total order defined by Weight;
// every privilege decision in the service goes through that ordering and
// nothing else.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleUltraAdmin Role = "ultra_admin"
)

// WeightUnknown is the sentinel weight for missing or unrecognized roles.
// It sits strictly below RoleUser so that an unresolvable role can never
// pass any gate check.
const WeightUnknown = -1

var roleWeights = map[Role]int{
	RoleUser:       0,
	RoleModerator:  1,
	RoleAdmin:      2,
	RoleUltraAdmin: 3,
}

// Roles enumerates every assignable tier in ascending order of privilege.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin, RoleUltraAdmin}

// ModerationRoles is the restricted view offered by the moderation UI: it
// omits ultra_admin, which can only be granted through the role-update
// endpoint. It is a subset of Roles, never a second ordering.
var ModerationRoles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Weight maps a role to its position in the privilege order. Unknown or
// empty input yields WeightUnknown. Total by construction: it never fails.
func Weight(role Role) int {
	if w, ok := roleWeights[role]; ok {
		return w
	}
	return WeightUnknown
}

// AtLeast reports whether current is the same as or senior to minimum.
func AtLeast(current, minimum Role) bool {
	return Weight(current) >= Weight(minimum)
}

// ParseRole validates a requested role value against the fixed tier set.
// Role-changing operations must call this before touching the store.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleWeights[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}
