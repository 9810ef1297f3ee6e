package services

// Shared fakes for service tests: in-memory repositories behind a fake
// RepositoryManager, and a capturing audit recorder.

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/dbx"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	auditrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/audit"
	tokensrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/tokens"
	usersrepo "github.com/dmitrijs2005/tokenvault/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Username]; ok {
		return common.ErrorAlreadyExists
	}
	f.users[u.Username] = u
	return nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// fakeTokensRepo mimics the atomic upsert: created_at is set once and
// preserved on replacement.
type fakeTokensRepo struct {
	mu      sync.Mutex
	records map[string]*models.TokenRecord

	upsertErr error
	getErr    error
	deleteErr error
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{records: map[string]*models.TokenRecord{}}
}

func (f *fakeTokensRepo) Upsert(ctx context.Context, r *models.TokenRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := &models.TokenRecord{
		UserID:     r.UserID,
		Ciphertext: r.Ciphertext,
		Method:     r.Method,
		CreatedAt:  r.UpdatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if existing, ok := f.records[r.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	f.records[r.UserID] = stored
	return nil
}

func (f *fakeTokensRepo) Get(ctx context.Context, userID string) (*models.TokenRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeTokensRepo) Delete(ctx context.Context, userID string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[userID]
	delete(f.records, userID)
	return ok, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	records []*models.AuditRecord

	insertErr error
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
	f.mu.Lock()
	defer f.mu.Unlock()
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
	u *fakeUsersRepo
	t *fakeTokensRepo
	a *fakeAuditRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Tokens(db dbx.DBTX) tokensrepo.Repository     { return m.t }
func (m *fakeRepoManager) Audit(db dbx.DBTX) auditrepo.Repository       { return m.a }

type fakeRecorder struct {
	mu             sync.Mutex
	records        []*models.AuditRecord
	err            error
	ctxHadDeadline bool
}

func (f *fakeRecorder) Record(ctx context.Context, r *models.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.ctxHadDeadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}
