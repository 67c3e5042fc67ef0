// migrate applies or rolls back the embedded schema migrations: go run ./cmd/migrate -direction up.
package main

import (
	"flag"
	"fmt"
	"os"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db/migrate"
	"session-auth/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate.fail", "direction", *direction, "error", err)
		os.Exit(1)
	}
	version, dirty, err := migrate.Version(cfg.DatabaseURL)
	if err != nil {
		logger.Error("migrate.version.fail", "error", err)
		os.Exit(1)
	}
	logger.Info("migrate.done", "direction", *direction, "version", version, "dirty", dirty)
}
