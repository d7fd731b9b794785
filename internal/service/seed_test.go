package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/repository"
	"github.com/iliyamo/admin-platform/internal/testutil"
	"github.com/iliyamo/admin-platform/internal/utils"
)

func TestSeedSuperAdmin(t *testing.T) {
	users := testutil.NewUsers()
	ctx := context.Background()

	require.NoError(t, SeedSuperAdmin(ctx, users, "", "", bcrypt.MinCost, logging.Nop{}))
	all, _ := users.List(ctx, repository.UserFilter{})
	assert.Empty(t, all)

	require.NoError(t, SeedSuperAdmin(ctx, users, "Root@X.com", "pw", bcrypt.MinCost, logging.Nop{}))
	u, err := users.FindByEmail(ctx, "root@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "pw"))

	require.NoError(t, SeedSuperAdmin(ctx, users, "root@x.com", "other", bcrypt.MinCost, logging.Nop{}))
	all, _ = users.List(ctx, repository.UserFilter{})
	assert.Len(t, all, 1)

	users.Err = testutil.ErrBoom
	assert.ErrorIs(t, SeedSuperAdmin(ctx, users, "x@x.com", "pw", bcrypt.MinCost, logging.Nop{}), testutil.ErrBoom)
}
