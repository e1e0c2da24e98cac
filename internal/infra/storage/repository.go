package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

var (
	// ErrSessionNotFound is returned when a session doesn't exist
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// SessionRepository handles content session history
type SessionRepository interface {
	// Save inserts or replaces a session
	Save(ctx context.Context, session *domain.ContentSession) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*domain.ContentSession, error)

	// List returns the most recent sessions, newest first
	List(ctx context.Context, limit int) ([]*domain.ContentSession, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// DeleteOlderThan removes sessions created before the cutoff and reports how many
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
