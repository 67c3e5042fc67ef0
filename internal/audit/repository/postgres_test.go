package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"session-auth/backend/internal/audit/domain"
)

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	entry := &domain.AuditLog{
		ID: "a1", Action: domain.ActionLoginFailure, Resource: domain.ResourceAuthentication,
		IP: "10.0.0.1", CreatedAt: now,
	}
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs("a1", sql.NullString{}, "login_failure", "authentication", "10.0.0.1", sql.NullString{}, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "ip", "metadata", "created_at"}).
		AddRow("a2", "u1", "logout", "session", "1.2.3.4", nil, now).
		AddRow("a1", "u1", "login_success", "authentication", "1.2.3.4", `{"k":"v"}`, now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE user_id = $1")).
		WithArgs("u1", int32(10), int32(0)).
		WillReturnRows(rows)

	list, err := repo.ListByUser(context.Background(), "u1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("want 2 entries, got %d", len(list))
	}
	if list[0].Metadata != "" || list[1].Metadata != `{"k":"v"}` {
		t.Errorf("metadata mapping wrong: %q, %q", list[0].Metadata, list[1].Metadata)
	}
}
