package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenvault/internal/dbx"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/audit"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes the schema migration hook. Services hold a manager plus the pool
// and bind repositories per call, so the same code path runs against *sql.DB
// or inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Audit(db dbx.DBTX) audit.Repository
}
