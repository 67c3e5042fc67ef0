// Worker periodically purges expired sessions from the configured session store.
// Uses the same configuration as the server; GRPC_ADDR is unused.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db"
	"session-auth/backend/internal/logging"
	"session-auth/backend/internal/session/reaper"
	sessionrepo "session-auth/backend/internal/session/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo sessionrepo.Repository
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		repo = sessionrepo.NewRedisRepository(client, cfg.RedisKeyPrefix)
	default:
		conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 2})
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer conn.Close()
		repo = sessionrepo.NewPostgresRepository(conn)
	}

	logger.Info("worker.start", "session_store", cfg.SessionStore, "interval", cfg.ReaperEvery().String())
	reaper.New(repo, cfg.ReaperEvery(), logger).Run(ctx)
	logger.Info("worker.stop")
	return nil
}
