// Package health tracks readiness of the auth server's dependencies and publishes it through the
// standard grpc.health.v1 service.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether a backing store is reachable (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger (e.g. a Redis client's Ping).
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// PolicyChecker reports whether the authorization policy evaluates (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs every dependency check. Nil dependencies are skipped.
type Checker struct {
	pingers map[string]Pinger
	policy  PolicyChecker
	timeout time.Duration
}

// NewChecker returns a Checker for the named pingers and the policy checker.
func NewChecker(pingers map[string]Pinger, policy PolicyChecker) *Checker {
	return &Checker{pingers: pingers, policy: policy, timeout: 2 * time.Second}
}

// Check returns the first failing dependency, checked in name order with the policy last.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	names := make([]string, 0, len(c.pingers))
	for name := range c.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := c.pingers[name]
		if p == nil {
			continue
		}
		if err := p.PingContext(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	return nil
}

// Update sets the serving status of service (and the overall "" entry) from one Check.
func (c *Checker) Update(ctx context.Context, hs *grpchealth.Server, service string, log *slog.Logger) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := c.Check(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		if log != nil {
			log.WarnContext(ctx, "health.check.fail", "error", err)
		}
	}
	hs.SetServingStatus("", st)
	hs.SetServingStatus(service, st)
}

// Run updates hs immediately and then every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, hs *grpchealth.Server, service string, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	c.Update(ctx, hs, service, log)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Update(ctx, hs, service, log)
		}
	}
}
