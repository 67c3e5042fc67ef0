package repository

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"session-auth/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// Create persists s. An empty s.ID is assigned a new ULID.
	Create(ctx context.Context, s *domain.Session) error
	// ListActiveByUser returns the user's sessions with ExpiresAt >= now.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error)
	// DeleteByID removes the session and reports whether this call removed it.
	// Of several concurrent callers for the same id at most one sees true.
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	// DeleteExpired removes sessions with ExpiresAt < now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewID returns a new lexically sortable session id.
func NewID() string {
	return ulid.Make().String()
}
