// Package audit implements the audit trail for plaintext token accesses:
// a Recorder that writes durable audit records, and an Archiver that ships
// them to S3-compatible object storage in the background.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tokenvault/internal/logging"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Recorder persists one audit record per successful plaintext access and
// mirrors it to the structured log. The durable write is the control: when
// it fails the caller must fail the access.
type Recorder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Recorder {
	return &Recorder{db: db, repomanager: m, logger: logger.With("component", "audit")}
}

// Record assigns the record an id, stores it, and logs the access. The
// record carries metadata only, never the token plaintext.
func (r *Recorder) Record(ctx context.Context, record *models.AuditRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	repo := r.repomanager.Audit(r.db)
	if err := repo.Insert(ctx, record); err != nil {
		return fmt.Errorf("error writing audit record: %w", err)
	}

	r.logger.Info(ctx, "token accessed",
		"audit_id", record.ID,
		"subject", record.Subject,
		"user_id", record.UserID,
		"application", record.Application,
		"purpose", record.Purpose,
		"accessed_at", record.AccessedAt,
	)
	return nil
}
