// server runs the auth gRPC API. Configuration comes from the environment (see internal/config).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	grpchealth "google.golang.org/grpc/health"

	authv1 "session-auth/backend/api/auth/v1"
	"session-auth/backend/internal/audit"
	auditrepo "session-auth/backend/internal/audit/repository"
	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db"
	"session-auth/backend/internal/health"
	identityservice "session-auth/backend/internal/identity/service"
	"session-auth/backend/internal/logging"
	"session-auth/backend/internal/policy/engine"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/server"
	"session-auth/backend/internal/server/interceptors"
	sessionrepo "session-auth/backend/internal/session/repository"
	"session-auth/backend/internal/telemetry/otel"
	userrepo "session-auth/backend/internal/user/repository"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
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

	providers, err := otel.NewProviders(ctx, otel.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute})
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	sessions, pingers, closeSessions, err := openSessionStore(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer closeSessions()

	key, err := cfg.SigningKey()
	if err != nil {
		return err
	}
	tokens := security.NewTokenProvider(key, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	users := userrepo.NewPostgresRepository(conn)
	auditLogs := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(
		auditLogs,
		interceptors.ClientIP,
		audit.WithEmitter(otel.NewAuditEmitter(providers.LoggerProvider)),
		audit.WithSlog(logger),
	)
	authSvc := identityservice.NewAuthService(users, sessions, security.NewHasher(cfg.BcryptCost), tokens,
		identityservice.WithAuditLogger(auditLogger),
		identityservice.WithAuditReader(auditLogs),
		identityservice.WithRevokeOnPasswordChange(cfg.RevokeSessionsOnPasswordChange),
	)

	module, err := cfg.AuthzPolicy()
	if err != nil {
		return err
	}
	policy, err := engine.NewOPAEvaluator(ctx, module)
	if err != nil {
		return fmt.Errorf("authz policy: %w", err)
	}

	hs := grpchealth.NewServer()
	checker := health.NewChecker(pingers, policy)
	go checker.Run(ctx, hs, authv1.ServiceName, healthInterval, logger)

	s, err := server.NewServer(server.Deps{
		Auth:   authSvc,
		Users:  users,
		Tokens: tokens,
		Policy: policy,
		Meter:  providers.Meter("session-auth/server"),
		Logger: logger,
		Health: hs,
	})
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server.start", "addr", cfg.GRPCAddr, "session_store", cfg.SessionStore, "alg", key.Alg())
		serveErr <- s.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server.stop")
	hs.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		s.Stop()
	}
	return nil
}

// openSessionStore returns the configured session repository, the health pingers for the
// backing stores and a close function.
func openSessionStore(ctx context.Context, cfg *config.Config, conn *sql.DB) (sessionrepo.Repository, map[string]health.Pinger, func(), error) {
	pingers := map[string]health.Pinger{"postgres": conn}
	if cfg.SessionStore != config.SessionStoreRedis {
		return sessionrepo.NewPostgresRepository(conn), pingers, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}
	pingers["redis"] = health.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	return sessionrepo.NewRedisRepository(client, cfg.RedisKeyPrefix), pingers, func() { _ = client.Close() }, nil
}
