package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/repository"
)

// SeedSuperAdmin makes sure a super admin with the given email exists.  An
// empty email or password disables seeding; an existing account is left
// untouched whatever its role.
func SeedSuperAdmin(ctx context.Context, users UserStore, email, password string, cost int, log logging.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		log.Info(ctx, "super admin seed skipped", "user_id", existing.ID, "role", existing.Role)
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("seed lookup: %w", err)
	}
	u := &model.User{
		Email:         email,
		FirstName:     "Super",
		LastName:      "Admin",
		Role:          model.RoleSuperAdmin,
		Status:        model.StatusActive,
		EmailVerified: true,
	}
	if err := createAccount(ctx, users, u, password, cost); err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}
	log.Info(ctx, "super admin seeded", "user_id", u.ID)
	return nil
}
