// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Auth event types.
const (
	EventPasswordResetRequested = "password_reset_requested"
	EventUserLoggedOut          = "user_logged_out"
)

// AuthEvent is published on the auth events queue.  Token is only set on
// password reset requests and is meant for the mail delivery consumer; it
// must never be written to logs.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	OccurredAt time.Time `json:"occurred_at"`
}
