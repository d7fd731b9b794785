package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/middleware"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/repository"
	"github.com/iliyamo/admin-platform/internal/service"
)

// UsersHandler serves account administration.  Route gates restrict it to
// admins; the service applies the role precedence table per target.
type UsersHandler struct {
	Users *service.UserAdminService
	Log   logging.Logger
}

func NewUsersHandler(u *service.UserAdminService, log logging.Logger) *UsersHandler {
	if log == nil {
		log = logging.Nop{}
	}
	return &UsersHandler{Users: u, Log: log}
}

type createUserReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

func (r createUserReq) input() service.CreateUserInput {
	return service.CreateUserInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      model.Role(strings.ToLower(strings.TrimSpace(r.Role))),
		Status:    model.Status(strings.ToLower(strings.TrimSpace(r.Status))),
	}
}

// account is the admin view of a user.  The password hash never leaves
// the service layer.
type account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Role          model.Role `json:"role"`
	Status        string     `json:"status"`
	AvatarURL     *string    `json:"avatarUrl"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toAccount(u *model.User) account {
	return account{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		Status:        string(u.Status),
		AvatarURL:     u.AvatarURL,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// actor returns the caller; the guard guarantees it exists on these routes.
func actor(c echo.Context) (model.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return model.Identity{}, apperr.Unauthorized(service.MsgUnauthorized)
	}
	return id, nil
}

// List: GET /users?status=&role=&search=
func (h *UsersHandler) List(c echo.Context) error {
	ctx, cancel := timeout(c)
	defer cancel()

	users, err := h.Users.List(ctx, repository.UserFilter{
		Status: model.Status(strings.ToLower(c.QueryParam("status"))),
		Role:   model.Role(strings.ToLower(c.QueryParam("role"))),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	out := make([]account, 0, len(users))
	for i := range users {
		out = append(out, toAccount(&users[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out, "total": len(out)})
}

// Create: POST /users
func (h *UsersHandler) Create(c echo.Context) error {
	return h.create(c, h.Users.Create)
}

// CreateAdmin: POST /users/admin
func (h *UsersHandler) CreateAdmin(c echo.Context) error {
	return h.create(c, h.Users.CreateAdmin)
}

type createFunc func(ctx context.Context, actor model.Identity, in service.CreateUserInput) (*model.User, error)

func (h *UsersHandler) create(c echo.Context, fn createFunc) error {
	who, err := actor(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, h.Log, apperr.BadRequest(msgInvalidBody))
	}

	ctx, cancel := timeout(c)
	defer cancel()

	u, err := fn(ctx, who, req.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, toAccount(u))
}

// Activate: POST /users/:id/activate
func (h *UsersHandler) Activate(c echo.Context) error {
	return h.setStatus(c, h.Users.Activate)
}

// Suspend: POST /users/:id/suspend
func (h *UsersHandler) Suspend(c echo.Context) error {
	return h.setStatus(c, h.Users.Suspend)
}

type statusFunc func(ctx context.Context, actor model.Identity, id string) (*model.User, error)

func (h *UsersHandler) setStatus(c echo.Context, fn statusFunc) error {
	who, err := actor(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	ctx, cancel := timeout(c)
	defer cancel()

	u, err := fn(ctx, who, c.Param("id"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toAccount(u))
}
