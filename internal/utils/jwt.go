package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/admin-platform/internal/config"
	"github.com/iliyamo/admin-platform/internal/model"
)

// TokenType distinguishes what a signed token may be used for.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenReset   TokenType = "reset"
)

// Parse failures.  Expiry is reported separately from every other defect
// (bad signature, malformed input, wrong algorithm or token type).
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the JWT body: the identity payload plus the registered
// sub/iat/exp/jti claims and the token type.
type Claims struct {
	Email     string     `json:"email,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Type      TokenType  `json:"typ"`
	jwt.RegisteredClaims
}

// Identity rebuilds the identity payload carried by the token.
func (c *Claims) Identity() model.Identity {
	return model.Identity{
		ID:        c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int64 // access token lifetime in seconds
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 tokens with one process-wide secret.
// It holds no mutable state and is safe for concurrent use.
type TokenIssuer struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration
	resetTTL    time.Duration
	now         func() time.Time
}

// IssuerOption customizes a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock replaces time.Now for signing and expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer builds an issuer from the JWT configuration.
func NewTokenIssuer(cfg config.JWTConfig, opts ...IssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		secret:      []byte(cfg.Secret),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		rememberTTL: cfg.RememberMeTTL,
		resetTTL:    cfg.ResetTTL,
		now:         time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// AccessTTL is the fixed access token lifetime.
func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

// Sign builds and signs a token of the given type for id, valid for ttl.
func (t *TokenIssuer) Sign(id model.Identity, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)
	claims := Claims{
		Email:     id.Email,
		Role:      id.Role,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// IssuePair signs an access token and a refresh token carrying identical
// identity claims.  The refresh lifetime is the remember-me window when
// rememberMe is set and the default window otherwise.
func (t *TokenIssuer) IssuePair(id model.Identity, rememberMe bool) (TokenPair, error) {
	access, accessExp, err := t.Sign(id, TokenAccess, t.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	ttl := t.refreshTTL
	if rememberMe {
		ttl = t.rememberTTL
	}
	refresh, refreshExp, err := t.Sign(id, TokenRefresh, ttl)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int64(t.accessTTL / time.Second),
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// SignReset signs a password reset token.  It carries only subject and
// email; it can never pass as an access or refresh token.
func (t *TokenIssuer) SignReset(userID, email string) (string, time.Time, error) {
	return t.Sign(model.Identity{ID: userID, Email: email}, TokenReset, t.resetTTL)
}

// Parse verifies signature, algorithm, expiry and token type.  Expired
// tokens yield ErrTokenExpired; every other defect yields ErrTokenInvalid.
func (t *TokenIssuer) Parse(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenInvalid, want, claims.Type)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}

// UnverifiedExpiry decodes the exp claim without checking the signature.
// It is only used to size revocation records: blacklisting a forged token
// gains an attacker nothing.
func UnverifiedExpiry(raw string) (time.Time, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	}
	return claims.ExpiresAt.Time, nil
}

// HashToken returns the SHA-256 hex digest of a raw token.  Revocation
// records are keyed by this digest instead of the token itself.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
