package audit

import (
	"context"
	"errors"
	"testing"

	"session-auth/backend/internal/audit/domain"
	"session-auth/backend/internal/logging"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

type captureEmitter struct {
	entries []*domain.AuditLog
}

func (c *captureEmitter) Emit(_ context.Context, entry *domain.AuditLog) {
	c.entries = append(c.entries, entry)
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(context.Context) string { return "192.168.1.1" })

	logger.LogEvent(context.Background(), "user-1", domain.ActionLoginSuccess, domain.ResourceAuthentication, "metadata")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", entry.UserID, "user-1")
	}
	if entry.Action != "login_success" {
		t.Errorf("action = %q, want %q", entry.Action, "login_success")
	}
	if entry.Resource != "authentication" {
		t.Errorf("resource = %q, want %q", entry.Resource, "authentication")
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != "metadata" {
		t.Errorf("metadata = %q, want %q", entry.Metadata, "metadata")
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry CreatedAt should be set")
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "", domain.ActionLoginFailure, domain.ResourceAuthentication, "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
}

func TestLogger_LogEvent_Emitter(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	em := &captureEmitter{}
	logger := NewLogger(repo, nil, WithEmitter(em), WithSlog(logging.Discard()))

	logger.LogEvent(context.Background(), "user-1", domain.ActionLogout, domain.ResourceSession, "")

	if len(em.entries) != 1 {
		t.Fatalf("emitter should receive the event even when the repo fails, got %d", len(em.entries))
	}
	if em.entries[0].Action != "logout" {
		t.Errorf("action = %q, want logout", em.entries[0].Action)
	}
}

func TestLogger_LogEvent_RepositoryError(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	logger := NewLogger(repo, nil, WithSlog(logging.Discard()))

	// best-effort: must not panic
	logger.LogEvent(context.Background(), "user-1", "action", "resource", "")
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	NewLogger(nil, nil).LogEvent(context.Background(), "user-1", "action", "resource", "")
}
