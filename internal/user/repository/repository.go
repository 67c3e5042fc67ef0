package repository

import (
	"context"
	"errors"
	"time"

	"session-auth/backend/internal/user/domain"
)

// ErrEmailTaken is returned by Create when another user already holds the email.
var ErrEmailTaken = errors.New("email already registered")

// Repository defines persistence for users. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateName(ctx context.Context, id, name string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, at time.Time) error
	// SetDeletedAt soft-deletes (non-nil deletedAt) or restores (nil) the user. Reports whether the row exists.
	SetDeletedAt(ctx context.Context, id string, deletedAt *time.Time, at time.Time) (bool, error)
}
