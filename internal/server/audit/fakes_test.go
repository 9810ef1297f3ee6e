package audit

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/dbx"
	"github.com/dmitrijs2005/tokenvault/internal/logging"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	auditrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/audit"
	tokensrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/tokens"
	usersrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/users"
)

type fakeAuditRepo struct {
	mu      sync.Mutex
	records []*models.AuditRecord

	insertErr error
	selectErr error
	markErr   error

	marked [][]string
}

func (f *fakeAuditRepo) Insert(ctx context.Context, r *models.AuditRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

func (f *fakeAuditRepo) SelectUnarchived(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditRecord
	for _, r := range f.records {
		if r.ArchivedAt == nil {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) MarkArchived(ctx context.Context, ids []string, when time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, ids)
	for _, id := range ids {
		for _, r := range f.records {
			if r.ID == id {
				w := when
				r.ArchivedAt = &w
			}
		}
	}
	return nil
}

type fakeRepoManager struct {
	a *fakeAuditRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return nil }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository     { return nil }
func (m *fakeRepoManager) Audit(db dbx.DBTX) auditrepo.Repository       { return m.a }

func newBufferedLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}
