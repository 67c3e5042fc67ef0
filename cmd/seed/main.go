// seed inserts development users for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db"
	"session-auth/backend/internal/logging"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/user/domain"
	userrepo "session-auth/backend/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123"
	userPassword  = "User123"
)

var sampleUsers = []struct {
	name  string
	email string
}{
	{"Alice Johnson", "alice@example.com"},
	{"Bob Smith", "bob@example.com"},
	{"Carol White", "carol@example.com"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{})
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if existing != nil {
		logger.Info("seed.skip", "reason", "admin exists", "email", adminEmail)
		return nil
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	if err := createUser(ctx, users, hasher, "Admin", adminEmail, adminPassword, domain.RoleAdmin); err != nil {
		return err
	}
	for _, u := range sampleUsers {
		if err := createUser(ctx, users, hasher, u.name, u.email, userPassword, domain.RoleUser); err != nil {
			return err
		}
	}
	logger.Info("seed.done", "users", len(sampleUsers)+1)
	return nil
}

func createUser(ctx context.Context, users *userrepo.PostgresRepository, hasher *security.Hasher, name, email, password string, role domain.Role) error {
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	err = users.Create(ctx, &domain.User{
		ID:           uuid.New().String(),
		Email:        domain.NormalizeEmail(email),
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, userrepo.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", email, err)
	}
	return nil
}
