package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`(?s)INSERT INTO audit_log\s*\(id, subject, user_id, application, purpose, accessed_at\)`).
		WithArgs("id-1", "alice", "alice", "ci-runner", "deploy", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &models.AuditRecord{
		ID: "id-1", Subject: "alice", UserID: "alice",
		Application: "ci-runner", Purpose: "deploy", AccessedAt: now,
	}
	if err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("db down"))

	if err := repo.Insert(context.Background(), &models.AuditRecord{ID: "id-1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSelectUnarchived(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "subject", "user_id", "application", "purpose", "accessed_at"}).
		AddRow("id-1", "alice", "alice", "app", "p", now.Add(-time.Hour)).
		AddRow("id-2", "bob", "bob", "app", "p", now)
	mock.ExpectQuery(`(?s)SELECT id, subject, user_id, application, purpose, accessed_at.*WHERE archived_at IS NULL.*LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(rows)

	got, err := repo.SelectUnarchived(context.Background(), 100)
	if err != nil {
		t.Fatalf("SelectUnarchived error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "id-1" || got[1].Subject != "bob" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestSelectUnarchived_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, subject`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject", "user_id", "application", "purpose", "accessed_at"}))

	got, err := repo.SelectUnarchived(context.Background(), 10)
	if err != nil {
		t.Fatalf("SelectUnarchived error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestMarkArchived(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	when := time.Now()
	mock.ExpectExec(`(?s)UPDATE audit_log SET archived_at = \$1\s*WHERE id IN \(\$2, \$3\)`).
		WithArgs(when, "id-1", "id-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.MarkArchived(context.Background(), []string{"id-1", "id-2"}, when); err != nil {
		t.Fatalf("MarkArchived error: %v", err)
	}
}

func TestMarkArchived_NoIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.MarkArchived(context.Background(), nil, time.Now()); err != nil {
		t.Fatalf("MarkArchived error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement should run for empty ids: %v", err)
	}
}
