// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"session-auth/backend/internal/security"
)

// Session store backends selectable with SESSION_STORE.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN for users, audit logs and (by default) sessions.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionStore selects where sessions live: "postgres" (default) or "redis".
	SessionStore string `mapstructure:"SESSION_STORE"`
	// RedisURL is the Redis URL (redis://host:6379/0); required when SessionStore is redis.
	RedisURL string `mapstructure:"REDIS_URL"`
	// RedisKeyPrefix namespaces session keys in Redis.
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`

	// JWTSecret is the HS256 secret (at least 32 bytes). Ignored when the key pair is set.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31) for passwords and refresh-token digests.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RevokeSessionsOnPasswordChange deletes every session of a user after a password change.
	RevokeSessionsOnPasswordChange bool `mapstructure:"REVOKE_SESSIONS_ON_PASSWORD_CHANGE"`

	// AuthzPolicyPath optionally replaces the built-in Rego authorization policy with a file.
	AuthzPolicyPath string `mapstructure:"AUTHZ_POLICY_PATH"`
	// ReaperInterval is how often the worker purges expired sessions (e.g. "1h").
	ReaperInterval string `mapstructure:"REAPER_INTERVAL"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTelEndpoint is the OTLP gRPC collector; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces plaintext to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	// Every key needs a default so Unmarshal sees env-only values.
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_STORE", SessionStorePostgres)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_KEY_PREFIX", "sess")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "session-auth")
	v.SetDefault("JWT_AUDIENCE", "session-auth-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("REVOKE_SESSIONS_ON_PASSWORD_CHANGE", true)
	v.SetDefault("AUTHZ_POLICY_PATH", "")
	v.SetDefault("REAPER_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "session-auth")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	switch cfg.SessionStore {
	case SessionStorePostgres:
	case SessionStoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("config: REDIS_URL must be set when SESSION_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("config: SESSION_STORE must be %q or %q", SessionStorePostgres, SessionStoreRedis)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if (cfg.JWTPrivateKey == "") != (cfg.JWTPublicKey == "") {
		return nil, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < security.MinSecretLength {
		return nil, fmt.Errorf("config: JWT_SECRET must be at least %d bytes", security.MinSecretLength)
	}

	return &cfg, nil
}

// SigningKey builds the token signing key: the RS256/ES256 key pair when set, otherwise the HS256 secret.
// Returns an error when neither is configured.
func (c *Config) SigningKey() (*security.SigningKey, error) {
	if c.JWTPrivateKey != "" && c.JWTPublicKey != "" {
		return security.NewAsymmetricKey(c.JWTPrivateKey, c.JWTPublicKey)
	}
	if c.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET or JWT_PRIVATE_KEY/JWT_PUBLIC_KEY must be set")
	}
	return security.NewHMACKey([]byte(c.JWTSecret))
}

// AuthzPolicy returns the Rego module at AuthzPolicyPath, or "" to use the built-in policy.
func (c *Config) AuthzPolicy() (string, error) {
	if c.AuthzPolicyPath == "" {
		return "", nil
	}
	b, err := os.ReadFile(c.AuthzPolicyPath)
	if err != nil {
		return "", fmt.Errorf("config: read AUTHZ_POLICY_PATH: %w", err)
	}
	return string(b), nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 168*time.Hour)
}

// ReaperEvery parses ReaperInterval as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) ReaperEvery() time.Duration {
	return parseDuration(c.ReaperInterval, time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
