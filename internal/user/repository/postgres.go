package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"session-auth/backend/internal/user/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, email, name, password_hash, role, created_at, updated_at, deleted_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found. Soft-deleted users are returned;
// callers decide via IsDeleted.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// The email is normalized before lookup.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email))
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned by this method.
// Returns ErrEmailTaken when the email unique index rejects the row.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// UpdateName sets the display name of a non-deleted user. Missing rows are not an error.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`,
		id, name, at,
	)
	return err
}

// UpdatePasswordHash replaces the stored password digest of a non-deleted user.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`,
		id, passwordHash, at,
	)
	return err
}

// SetDeletedAt sets or clears deleted_at. Returns false when no user has id.
func (r *PostgresRepository) SetDeletedAt(ctx context.Context, id string, deletedAt *time.Time, at time.Time) (bool, error) {
	var del sql.NullTime
	if deletedAt != nil {
		del = sql.NullTime{Time: *deletedAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET deleted_at = $2, updated_at = $3 WHERE id = $1`,
		id, del, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
