package session

import (
	"context"
	"time"
)

// Store defines the interface for session persistence. Sessions are
// addressed by their token, the only identifier the transport layer
// carries.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves changes to an existing session.
	Update(ctx context.Context, s *Session) error

	// Touch updates the LastActiveAt timestamp.
	// Used for activity tracking without full session updates at call sites.
	Touch(ctx context.Context, token string, lastActiveAt time.Time) error

	// Delete removes a session by its token. Deleting a missing session
	// is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes all sessions for a user.
	// Useful for "logout from all devices" functionality.
	DeleteByUserID(ctx context.Context, userID string) error
}
