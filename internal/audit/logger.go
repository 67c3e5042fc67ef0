package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"session-auth/backend/internal/audit/domain"
	auditrepo "session-auth/backend/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// EventEmitter mirrors an audit entry to an external sink (e.g. OTel logs).
type EventEmitter interface {
	Emit(ctx context.Context, entry *domain.AuditLog)
}

// AuditLogger writes a single audit event with explicit action/resource. Used by the auth service.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository, an optional IP extractor and an optional emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     EventEmitter
	log         *slog.Logger
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithEmitter mirrors every event to e.
func WithEmitter(e EventEmitter) LoggerOption {
	return func(l *Logger) { l.emitter = e }
}

// WithSlog sets the logger used to report persistence failures.
func WithSlog(log *slog.Logger) LoggerOption {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, opts ...LoggerOption) *Logger {
	l := &Logger{repo: repo, ipExtractor: ipExtractor, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil && l.emitter == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if l.repo != nil {
		if err := l.repo.Create(ctx, entry); err != nil {
			l.log.Warn("audit.write.fail", "action", action, "resource", resource, "error", err)
		}
	}
	if l.emitter != nil {
		l.emitter.Emit(ctx, entry)
	}
}
