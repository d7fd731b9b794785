package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/authz"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/repository"
)

// AccountStore is what account administration needs from the repository.
type AccountStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	List(ctx context.Context, f repository.UserFilter) ([]model.User, error)
}

// UserAdminService manages accounts on behalf of an authenticated actor.
// Route gates decide who may call it at all; the role precedence table in
// authz decides which accounts the actor may create or change.
type UserAdminService struct {
	users      AccountStore
	log        logging.Logger
	bcryptCost int
}

func NewUserAdminService(users AccountStore, log logging.Logger, bcryptCost int) *UserAdminService {
	if log == nil {
		log = logging.Nop{}
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserAdminService{users: users, log: log, bcryptCost: bcryptCost}
}

// List returns accounts matching f.  Unknown filter values are rejected
// instead of silently matching nothing.
func (s *UserAdminService) List(ctx context.Context, f repository.UserFilter) ([]model.User, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.BadRequest(MsgInvalidStatus)
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, apperr.BadRequest(MsgInvalidRole)
	}
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// CreateUserInput describes an account created by an administrator.
// Role defaults to user and Status to active.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
	Status    model.Status
}

// Create adds an account whose role the actor is allowed to grant.
func (s *UserAdminService) Create(ctx context.Context, actor model.Identity, in CreateUserInput) (*model.User, error) {
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	if !in.Role.Valid() {
		return nil, apperr.BadRequest(MsgInvalidRole)
	}
	if !in.Status.Valid() {
		return nil, apperr.BadRequest(MsgInvalidStatus)
	}
	if !authz.CanGrant(actor, in.Role) {
		s.log.Warn(ctx, "role grant denied", "actor_id", actor.ID, "actor_role", actor.Role, "target_role", in.Role, "grantors", authz.Grantors(in.Role))
		return nil, apperr.Forbidden(MsgCannotAssignRole)
	}

	u := &model.User{
		Email:         in.Email,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Role:          in.Role,
		Status:        in.Status,
		EmailVerified: true,
	}
	if err := createAccount(ctx, s.users, u, in.Password, s.bcryptCost); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "account created", "actor_id", actor.ID, "user_id", u.ID, "role", u.Role)
	return u, nil
}

// CreateAdmin adds an active admin account.  Only roles that may grant
// admin get past the precedence check.
func (s *UserAdminService) CreateAdmin(ctx context.Context, actor model.Identity, in CreateUserInput) (*model.User, error) {
	in.Role = model.RoleAdmin
	in.Status = model.StatusActive
	return s.Create(ctx, actor, in)
}

func (s *UserAdminService) Activate(ctx context.Context, actor model.Identity, id string) (*model.User, error) {
	return s.setStatus(ctx, actor, id, model.StatusActive)
}

// Suspend blocks an account.  Sessions it already holds stop working on the
// next request because the guard re-reads the account every time.
func (s *UserAdminService) Suspend(ctx context.Context, actor model.Identity, id string) (*model.User, error) {
	return s.setStatus(ctx, actor, id, model.StatusSuspended)
}

func (s *UserAdminService) setStatus(ctx context.Context, actor model.Identity, id string, status model.Status) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if u.ID == actor.ID && status != model.StatusActive {
		return nil, apperr.Forbidden(MsgCannotSuspendSelf)
	}
	if u.ID != actor.ID && !authz.CanGrant(actor, u.Role) {
		s.log.Warn(ctx, "status change denied", "actor_id", actor.ID, "actor_role", actor.Role, "target_role", u.Role, "grantors", authz.Grantors(u.Role))
		return nil, apperr.Forbidden(MsgCannotManageUser)
	}
	if err := s.users.UpdateStatus(ctx, u.ID, status); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "account status changed", "actor_id", actor.ID, "user_id", u.ID, "from", u.Status, "to", status)
	u.Status = status
	u.PasswordHash = ""
	return u, nil
}
