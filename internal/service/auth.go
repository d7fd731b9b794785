// Package service holds the authentication core and the account
// administration flows built on top of it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/metrics"
	"github.com/iliyamo/admin-platform/internal/model"
	"github.com/iliyamo/admin-platform/internal/queue"
	"github.com/iliyamo/admin-platform/internal/repository"
	"github.com/iliyamo/admin-platform/internal/utils"
)

// UserStore is the slice of the account repository the auth core needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Create(ctx context.Context, u *model.User) error
}

// AuthService verifies credentials, issues and refreshes token pairs,
// revokes sessions and authenticates bearer tokens.
type AuthService struct {
	users       UserStore
	tokens      *utils.TokenIssuer
	revocations *RevocationStore
	events      EventPublisher
	log         logging.Logger
	metrics     *metrics.Metrics
	bcryptCost  int
	now         func() time.Time
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

func WithEvents(p EventPublisher) AuthOption { return func(s *AuthService) { s.events = p } }
func WithLogger(l logging.Logger) AuthOption { return func(s *AuthService) { s.log = l } }
func WithMetrics(m *metrics.Metrics) AuthOption { return func(s *AuthService) { s.metrics = m } }
func WithBcryptCost(cost int) AuthOption { return func(s *AuthService) { s.bcryptCost = cost } }
func WithNow(now func() time.Time) AuthOption { return func(s *AuthService) { s.now = now } }

func NewAuthService(users UserStore, tokens *utils.TokenIssuer, revocations *RevocationStore, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		events:      NopPublisher{},
		log:         logging.Nop{},
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoginResult is a fresh token pair plus the account it was issued for.
type LoginResult struct {
	utils.TokenPair
	User *model.User
}

// VerifyCredentials checks email and password.  Unknown email and wrong
// password fail with the same message, and the unknown-email path still
// pays for one bcrypt comparison.  Accounts that are not active are
// rejected before the password is looked at.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			s.log.Info(ctx, "login rejected", "reason", "unknown_email")
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !u.IsActive() {
		s.log.Info(ctx, "login rejected", "reason", "inactive", "user_id", u.ID, "status", u.Status)
		return nil, apperr.Unauthorized(MsgAccountNotActive)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.log.Info(ctx, "login rejected", "reason", "bad_password", "user_id", u.ID)
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn(ctx, "update last login failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	u.PasswordHash = ""
	return u, nil
}

// Login verifies credentials and issues a pair.  rememberMe stretches the
// refresh lifetime to the remember-me window.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*LoginResult, error) {
	u, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		s.metrics.AuthEvent("login", metrics.OutcomeRejected)
		return nil, err
	}
	pair, err := s.tokens.IssuePair(u.Identity(), rememberMe)
	if err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("login", metrics.OutcomeSuccess)
	s.log.Info(ctx, "login succeeded", "user_id", u.ID, "remember_me", rememberMe)
	return &LoginResult{TokenPair: pair, User: u}, nil
}

// Refresh exchanges a refresh token for a new pair.  The revocation check
// comes first, then signature and expiry, then the live account status.
// The new refresh token always gets the default lifetime.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*LoginResult, error) {
	res, err := s.refresh(ctx, raw)
	if err != nil {
		s.metrics.AuthEvent("refresh", metrics.OutcomeRejected)
		return nil, err
	}
	s.metrics.AuthEvent("refresh", metrics.OutcomeSuccess)
	return res, nil
}

func (s *AuthService) refresh(ctx context.Context, raw string) (*LoginResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Unauthorized(MsgRefreshInvalid)
	}
	revoked, err := s.revocations.IsRevoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		s.log.Info(ctx, "refresh rejected", "reason", "revoked")
		return nil, apperr.Unauthorized(MsgRefreshRevoked)
	}

	claims, err := s.tokens.Parse(raw, utils.TokenRefresh)
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return nil, apperr.Unauthorized(MsgRefreshExpired)
	case errors.Is(err, utils.ErrTokenInvalid):
		return nil, apperr.Unauthorized(MsgRefreshSignature)
	case err != nil:
		return nil, apperr.Unauthorized(MsgRefreshInvalid)
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgRefreshInvalid)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if !u.IsActive() {
		s.log.Info(ctx, "refresh rejected", "reason", "inactive", "user_id", u.ID, "status", u.Status)
		return nil, apperr.Unauthorized(MsgAccountNotActive)
	}

	pair, err := s.tokens.IssuePair(u.Identity(), false)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return &LoginResult{TokenPair: pair, User: u}, nil
}

// Logout revokes the refresh token and, when one is supplied, the bearer
// access token.  It never fails: malformed, expired or unknown tokens
// still log the caller out, and storage errors are only logged.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) string {
	refreshToken = strings.TrimSpace(refreshToken)
	for _, raw := range []string{refreshToken, strings.TrimSpace(accessToken)} {
		if err := s.revocations.Revoke(ctx, raw); err != nil {
			s.log.Warn(ctx, "logout revocation skipped", "error", err)
		}
	}

	if claims, err := s.tokens.Parse(refreshToken, utils.TokenRefresh); err == nil {
		s.publish(ctx, queue.AuthEvent{
			Type:       queue.EventUserLoggedOut,
			UserID:     claims.Subject,
			OccurredAt: s.now().UTC(),
		})
	}
	s.metrics.AuthEvent("logout", metrics.OutcomeSuccess)
	return MsgLoggedOut
}

// ForgotPassword signs a reset token for an existing account and publishes
// it for delivery.  The reply is the same whether or not the email exists,
// and no failure is ever reported to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) string {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "forgot password lookup failed", "error", err)
		}
		return MsgForgotPassword
	}
	token, exp, err := s.tokens.SignReset(u.ID, u.Email)
	if err != nil {
		s.log.Error(ctx, "sign reset token failed", "user_id", u.ID, "error", err)
		return MsgForgotPassword
	}
	s.publish(ctx, queue.AuthEvent{
		Type:       queue.EventPasswordResetRequested,
		UserID:     u.ID,
		Email:      u.Email,
		Token:      token,
		ExpiresAt:  exp.UTC(),
		OccurredAt: s.now().UTC(),
	})
	s.metrics.AuthEvent("forgot_password", metrics.OutcomeSuccess)
	return MsgForgotPassword
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a pending account with the user role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	u := &model.User{
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      model.RoleUser,
		Status:    model.StatusPending,
	}
	if err := createAccount(ctx, s.users, u, in.Password, s.bcryptCost); err != nil {
		return nil, err
	}
	s.metrics.AuthEvent("register", metrics.OutcomeSuccess)
	s.log.Info(ctx, "account registered", "user_id", u.ID)
	return u, nil
}

// Authenticate runs the bearer token checks for a protected request:
// signature and expiry, then revocation, then the live account.  The
// returned user is the fresh database record, not the token claims.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, apperr.Unauthorized(MsgUnauthorized)
	}
	claims, err := s.tokens.Parse(raw, utils.TokenAccess)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperr.Unauthorized(MsgTokenExpired)
		}
		return nil, apperr.Unauthorized(MsgTokenSignature)
	}
	revoked, err := s.revocations.IsRevoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Unauthorized(MsgTokenRevoked)
	}
	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgUserGone)
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if !u.IsActive() {
		return nil, apperr.Unauthorized(MsgUserNotActive)
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *AuthService) publish(ctx context.Context, ev queue.AuthEvent) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn(ctx, "publish auth event failed", "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

type accountCreator interface {
	Create(ctx context.Context, u *model.User) error
}

// createAccount hashes password and inserts u, translating repository
// failures into client errors.
func createAccount(ctx context.Context, users accountCreator, u *model.User, password string, cost int) error {
	u.Email = repository.NormalizeEmail(u.Email)
	if u.Email == "" || password == "" {
		return apperr.BadRequest(MsgEmailPasswordReq)
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperr.BadRequest(MsgPasswordTooLong)
		}
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Conflict(MsgEmailExists)
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.PasswordHash = ""
	return nil
}
