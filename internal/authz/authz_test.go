package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/admin-platform/internal/model"
)

func who(r model.Role) model.Identity { return model.Identity{ID: "u", Role: r} }

func TestAuthorize_UserRejectedFromAdminGates(t *testing.T) {
	assert.False(t, Authorize(who(model.RoleUser), Admins))
	assert.False(t, Authorize(who(model.RoleUser), SuperAdmins))
	assert.False(t, Authorize(who(model.RoleViewer), Admins))
}

func TestAuthorize_IsExplicitUnion(t *testing.T) {
	// super_admin passes {admin, super_admin} because it is listed, and is
	// rejected by {admin} alone: there is no implied hierarchy.
	assert.True(t, Authorize(who(model.RoleSuperAdmin), Admins))
	assert.False(t, Authorize(who(model.RoleSuperAdmin), Roles(model.RoleAdmin)))
	assert.True(t, Authorize(who(model.RoleAdmin), Roles(model.RoleAdmin)))
}

func TestAuthorize_NoRoleOrEmptySet(t *testing.T) {
	assert.False(t, Authorize(model.Identity{ID: "u"}, Admins))
	assert.False(t, Authorize(who(model.RoleSuperAdmin), Roles()))
}

func TestCanGrant_PrecedenceTable(t *testing.T) {
	tests := []struct {
		actor  model.Role
		target model.Role
		want   bool
	}{
		{model.RoleSuperAdmin, model.RoleSuperAdmin, true},
		{model.RoleSuperAdmin, model.RoleAdmin, true},
		{model.RoleSuperAdmin, model.RoleUser, true},
		{model.RoleSuperAdmin, model.RoleViewer, true},
		{model.RoleAdmin, model.RoleSuperAdmin, false},
		{model.RoleAdmin, model.RoleAdmin, false},
		{model.RoleAdmin, model.RoleUser, true},
		{model.RoleAdmin, model.RoleViewer, true},
		{model.RoleUser, model.RoleUser, false},
		{model.RoleViewer, model.RoleViewer, false},
		{model.RoleSuperAdmin, model.Role("root"), false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CanGrant(who(tc.actor), tc.target), "%s -> %s", tc.actor, tc.target)
	}
}

func TestGrantors(t *testing.T) {
	assert.Equal(t, []model.Role{model.RoleSuperAdmin}, Grantors(model.RoleAdmin))
	assert.Equal(t, []model.Role{model.RoleSuperAdmin, model.RoleAdmin}, Grantors(model.RoleViewer))
	assert.Empty(t, Grantors(model.Role("root")))
}
