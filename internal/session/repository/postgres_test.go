package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"session-auth/backend/internal/session/domain"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_CreateAssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	s := &domain.Session{UserID: "u1", RefreshTokenHash: "h", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "u1", "h", now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(s.ID) != 26 {
		t.Errorf("ID = %q, want a 26-char ULID", s.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresRepository_ListActiveByUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "refresh_token_hash", "expires_at", "created_at"}).
		AddRow("s2", "u1", "h2", now.Add(2*time.Hour), now).
		AddRow("s1", "u1", "h1", now.Add(time.Hour), now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE user_id = $1 AND expires_at >= $2")).
		WithArgs("u1", now).
		WillReturnRows(rows)

	list, err := repo.ListActiveByUser(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("ListActiveByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "s2" || list[1].RefreshTokenHash != "h1" {
		t.Fatalf("unexpected sessions: %+v", list)
	}
}

func TestPostgresRepository_ListActiveByUser_Error(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM sessions").WillReturnError(errors.New("db down"))
	if _, err := repo.ListActiveByUser(context.Background(), "u1", time.Now()); err == nil {
		t.Fatal("want error")
	}
}

func TestPostgresRepository_DeleteByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.DeleteByID(context.Background(), "s1")
	if err != nil || !ok {
		t.Fatalf("first DeleteByID = %v, %v; want true, nil", ok, err)
	}
	ok, err = repo.DeleteByID(context.Background(), "s1")
	if err != nil || ok {
		t.Fatalf("second DeleteByID = %v, %v; want false, nil", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresRepository_DeleteAllAndExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.DeleteAllByUser(context.Background(), "u1")
	if err != nil || n != 3 {
		t.Fatalf("DeleteAllByUser = %d, %v; want 3, nil", n, err)
	}
	n, err = repo.DeleteExpired(context.Background(), now)
	if err != nil || n != 5 {
		t.Fatalf("DeleteExpired = %d, %v; want 5, nil", n, err)
	}
}
