package audit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

// Repository stores the durable audit trail of plaintext token accesses.
type Repository interface {
	Insert(ctx context.Context, record *models.AuditRecord) error
	SelectUnarchived(ctx context.Context, limit int) ([]*models.AuditRecord, error)
	MarkArchived(ctx context.Context, ids []string, when time.Time) error
}
