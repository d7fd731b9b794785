package model

import "time"

// Role is the coarse privilege level stored on every account.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Status is the lifecycle state of an account.  Only active accounts may
// authenticate or keep an existing session alive.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	}
	return false
}

// User represents an account record as stored in the `users` table.
//
// Fields:
//
//	ID            – UUID primary key.
//	Email         – unique, normalized (trimmed, lower-case) email address.
//	PasswordHash  – bcrypt hash; never serialized.
//	Role, Status  – see Role and Status.
//	LastLoginAt   – set on every successful credential check.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          Role
	Status        Status
	AvatarURL     *string
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the account may hold a session.
func (u *User) IsActive() bool { return u != nil && u.Status == StatusActive }

// Identity returns the claim set embedded in tokens for this account.
// The password hash is deliberately not part of it.
func (u *User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Identity is the minimal payload identifying an authenticated subject.
// It is embedded in every issued token and attached to verified requests.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
