// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/compartilha/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// SessionStore persists browser sessions so that signed-in users survive a
// server restart. Divisions themselves live in the bill-splitting API and are
// never stored here.
type SessionStore interface {
	// CreateSession persists a new session. The ID and timestamps are
	// populated by the store when empty.
	CreateSession(ctx context.Context, sess *models.WebSession) error

	// GetSession retrieves a session by its ID.
	// Returns ErrNotFound if there is none.
	GetSession(ctx context.Context, id string) (*models.WebSession, error)

	// UpdateSession replaces the tokens and division of a session.
	// Returns ErrNotFound if there is none.
	UpdateSession(ctx context.Context, sess *models.WebSession) error

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpired removes sessions not updated since the given Unix time
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, before int64) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
