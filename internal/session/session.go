// Package session keeps the authenticated user context that the booking
// workflow reads its customer id from.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomrenting/internal/models"
)

var (
	ErrNoSession = errors.New("no active session")
	ErrForbidden = errors.New("operation requires a different role")
)

// Session is one logged-in user. It is created by Manager.Login and dropped
// by Manager.Logout.
type Session struct {
	Token     string      `json:"token"`
	UserID    int64       `json:"userId"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phoneNumber"`
	Role      models.Role `json:"userType"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt,omitempty"`
}

// Expired reports whether the session has passed its expiry. A zero expiry
// never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions by profile name. Get returns nil, nil for an
// unknown profile.
type Store interface {
	Get(ctx context.Context, profile string) (*Session, error)
	Save(ctx context.Context, profile string, s *Session) error
	Delete(ctx context.Context, profile string) error
}

// RequireRole returns ErrNoSession for a nil session and ErrForbidden when the
// role does not match.
func RequireRole(s *Session, role models.Role) error {
	if s == nil {
		return ErrNoSession
	}
	if s.Role != role {
		return fmt.Errorf("%w: %s required, session is %s", ErrForbidden, role, s.Role)
	}
	return nil
}
