// Package audit provides a PostgreSQL-backed repository for the audit trail.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/dbx"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends one audit record.
func (r *PostgresRepository) Insert(ctx context.Context, record *models.AuditRecord) error {
	query := `
		INSERT INTO audit_log (id, subject, user_id, application, purpose, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query,
		record.ID, record.Subject, record.UserID, record.Application, record.Purpose, record.AccessedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// SelectUnarchived returns up to limit records that have not been shipped
// offsite yet, oldest first.
func (r *PostgresRepository) SelectUnarchived(ctx context.Context, limit int) ([]*models.AuditRecord, error) {
	query := `
		SELECT id, subject, user_id, application, purpose, accessed_at
		FROM audit_log
		WHERE archived_at IS NULL
		ORDER BY accessed_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var records []*models.AuditRecord
	for rows.Next() {
		rec := &models.AuditRecord{}
		if err := rows.Scan(&rec.ID, &rec.Subject, &rec.UserID, &rec.Application, &rec.Purpose, &rec.AccessedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return records, nil
}

// MarkArchived stamps the given records as shipped at the given time.
func (r *PostgresRepository) MarkArchived(ctx context.Context, ids []string, when time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, when)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE audit_log SET archived_at = $1
		WHERE id IN (%s)
	`, strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
