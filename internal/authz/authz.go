// Package authz decides what an already verified identity may do.
//
// Role checks are explicit set membership.  There is no numeric ordering
// between roles: a gate for {admin} does not admit super_admin unless the
// gate lists super_admin as well.
package authz

import "github.com/iliyamo/admin-platform/internal/model"

// RoleSet is the set of roles admitted by a gate.
type RoleSet map[model.Role]struct{}

// Roles builds a RoleSet from its members.
func Roles(roles ...model.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r model.Role) bool {
	_, ok := s[r]
	return ok
}

// Common gates.
var (
	Admins      = Roles(model.RoleAdmin, model.RoleSuperAdmin)
	SuperAdmins = Roles(model.RoleSuperAdmin)
)

// Authorize reports whether id carries one of the required roles.  An
// identity without a role is never authorized, and neither is any identity
// against an empty set.
func Authorize(id model.Identity, required RoleSet) bool {
	if id.Role == "" {
		return false
	}
	return required.Has(id.Role)
}

// grantors lists, for each role, the roles allowed to assign it to an
// account.  It is the whole privilege-escalation policy.
var grantors = map[model.Role]RoleSet{
	model.RoleSuperAdmin: Roles(model.RoleSuperAdmin),
	model.RoleAdmin:      Roles(model.RoleSuperAdmin),
	model.RoleUser:       Roles(model.RoleAdmin, model.RoleSuperAdmin),
	model.RoleViewer:     Roles(model.RoleAdmin, model.RoleSuperAdmin),
}

// CanGrant reports whether actor may create an account with role target or
// otherwise act on an account holding it.  Unknown roles are never grantable.
func CanGrant(actor model.Identity, target model.Role) bool {
	allowed, ok := grantors[target]
	if !ok {
		return false
	}
	return Authorize(actor, allowed)
}

// Grantors lists the roles that may grant target, highest first.
func Grantors(target model.Role) []model.Role {
	var out []model.Role
	for _, r := range []model.Role{model.RoleSuperAdmin, model.RoleAdmin, model.RoleUser, model.RoleViewer} {
		if grantors[target].Has(r) {
			out = append(out, r)
		}
	}
	return out
}
