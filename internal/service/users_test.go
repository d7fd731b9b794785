package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/repository"
	"github.com/iliyamo/admin-platform/internal/testutil"
)

var (
	superID  = model.Identity{ID: "s-1", Role: model.RoleSuperAdmin}
	adminID  = model.Identity{ID: "a-1", Role: model.RoleAdmin}
	viewerID = model.Identity{ID: "v-1", Role: model.RoleViewer}
)

func newAdminEnv(t *testing.T) (*UserAdminService, *testutil.Users) {
	t.Helper()
	users := testutil.NewUsers(
		&model.User{ID: "s-1", Email: "root@x.com", Role: model.RoleSuperAdmin, Status: model.StatusActive},
		&model.User{ID: "a-1", Email: "admin@x.com", Role: model.RoleAdmin, Status: model.StatusActive},
		&model.User{ID: "a-2", Email: "admin2@x.com", Role: model.RoleAdmin, Status: model.StatusActive},
		&model.User{ID: "u-1", Email: "bob@x.com", FirstName: "Bob", Role: model.RoleUser, Status: model.StatusPending},
	)
	return NewUserAdminService(users, nil, bcrypt.MinCost), users
}

func TestUserAdmin_CreateFollowsPrecedenceTable(t *testing.T) {
	svc, _ := newAdminEnv(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, adminID, CreateUserInput{Email: "v@x.com", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)

	u, err = svc.Create(ctx, adminID, CreateUserInput{Email: "plain@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	_, err = svc.Create(ctx, adminID, CreateUserInput{Email: "boss@x.com", Password: "pw", Role: model.RoleAdmin})
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotAssignRole)

	_, err = svc.Create(ctx, adminID, CreateUserInput{Email: "boss@x.com", Password: "pw", Role: model.RoleSuperAdmin})
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotAssignRole)

	u, err = svc.Create(ctx, superID, CreateUserInput{Email: "boss@x.com", Password: "pw", Role: model.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, u.Role)

	_, err = svc.Create(ctx, viewerID, CreateUserInput{Email: "x@x.com", Password: "pw", Role: model.RoleViewer})
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotAssignRole)
}

func TestUserAdmin_CreateValidation(t *testing.T) {
	svc, _ := newAdminEnv(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, superID, CreateUserInput{Email: "x@x.com", Password: "pw", Role: "root"})
	requireAppErr(t, err, apperr.ErrBadRequest, MsgInvalidRole)

	_, err = svc.Create(ctx, superID, CreateUserInput{Email: "x@x.com", Password: "pw", Status: "asleep"})
	requireAppErr(t, err, apperr.ErrBadRequest, MsgInvalidStatus)

	_, err = svc.Create(ctx, superID, CreateUserInput{Email: "bob@x.com", Password: "pw"})
	requireAppErr(t, err, apperr.ErrConflict, MsgEmailExists)
}

func TestUserAdmin_CreateAdmin(t *testing.T) {
	svc, _ := newAdminEnv(t)
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, adminID, CreateUserInput{Email: "new-admin@x.com", Password: "pw"})
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotAssignRole)

	u, err := svc.CreateAdmin(ctx, superID, CreateUserInput{Email: "new-admin@x.com", Password: "pw", Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
}

func TestUserAdmin_StatusChanges(t *testing.T) {
	svc, users := newAdminEnv(t)
	ctx := context.Background()

	u, err := svc.Activate(ctx, adminID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, u.Status)

	u, err = svc.Suspend(ctx, adminID, "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSuspended, u.Status)
	stored, _ := users.Get("u-1")
	assert.Equal(t, model.StatusSuspended, stored.Status)

	_, err = svc.Suspend(ctx, adminID, "a-1")
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotSuspendSelf)

	_, err = svc.Suspend(ctx, superID, "s-1")
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotSuspendSelf)

	_, err = svc.Suspend(ctx, adminID, "s-1")
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotManageUser)

	_, err = svc.Suspend(ctx, adminID, "a-2")
	requireAppErr(t, err, apperr.ErrForbidden, MsgCannotManageUser)

	_, err = svc.Suspend(ctx, superID, "a-2")
	assert.NoError(t, err)

	_, err = svc.Activate(ctx, adminID, "missing")
	requireAppErr(t, err, apperr.ErrNotFound, MsgUserNotFound)
}

func TestUserAdmin_List(t *testing.T) {
	svc, _ := newAdminEnv(t)
	ctx := context.Background()

	all, err := svc.List(ctx, repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	admins, err := svc.List(ctx, repository.UserFilter{Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	found, err := svc.List(ctx, repository.UserFilter{Search: "bob"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u-1", found[0].ID)

	_, err = svc.List(ctx, repository.UserFilter{Role: "root"})
	requireAppErr(t, err, apperr.ErrBadRequest, MsgInvalidRole)
	_, err = svc.List(ctx, repository.UserFilter{Status: "asleep"})
	requireAppErr(t, err, apperr.ErrBadRequest, MsgInvalidStatus)
}
