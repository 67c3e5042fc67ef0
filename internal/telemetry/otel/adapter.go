package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-auth/backend/internal/audit"
	auditdomain "session-auth/backend/internal/audit/domain"
)

const auditScope = "session-auth.audit"

// NewAuditEmitter returns an audit.EventEmitter that mirrors audit entries as OTel log records via the
// given LoggerProvider. If provider is nil, returns a no-op emitter.
func NewAuditEmitter(provider *sdklog.LoggerProvider) audit.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(auditScope)}
}

// NewAuditEmitterWithLogger returns an emitter writing to logger. Used in tests to capture records.
func NewAuditEmitterWithLogger(logger otellog.Logger) audit.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *auditdomain.AuditLog) {}

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the audit entry to an OTel log record. Failures use WARN severity so collectors can alert on them.
func (e *otelEmitter) Emit(ctx context.Context, entry *auditdomain.AuditLog) {
	if entry == nil {
		return
	}
	rec := otellog.Record{}
	rec.SetTimestamp(entry.CreatedAt)
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetEventName("audit." + entry.Action)
	rec.SetSeverity(severity(entry.Action))
	rec.SetSeverityText(severity(entry.Action).String())
	if entry.Metadata != "" {
		rec.SetBody(otellog.StringValue(entry.Metadata))
	}
	rec.AddAttributes(
		otellog.String("audit.id", entry.ID),
		otellog.String("audit.action", entry.Action),
		otellog.String("audit.resource", entry.Resource),
	)
	if entry.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", entry.UserID))
	}
	if entry.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", entry.IP))
	}
	e.logger.Emit(ctx, rec)
}

func severity(action string) otellog.Severity {
	switch action {
	case auditdomain.ActionLoginFailure, auditdomain.ActionRefreshFailure, auditdomain.ActionLogoutFailure:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
