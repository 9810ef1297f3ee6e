// Package tokens provides a PostgreSQL-backed repository for encrypted token
// records. The user_id primary key plus the atomic upsert below are what
// enforce the one-token-per-user invariant under concurrent saves.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenvault/internal/common"
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

// Upsert stores record, replacing any existing row for the same user in a
// single atomic statement. created_at is preserved on replacement; only
// ciphertext, generation_method and updated_at change. Never a
// read-then-write, so concurrent saves for the same user cannot produce a
// duplicate row or a lost update with mixed fields.
func (r *PostgresRepository) Upsert(ctx context.Context, record *models.TokenRecord) error {
	query := `
		INSERT INTO tokens (user_id, ciphertext, generation_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			ciphertext = EXCLUDED.ciphertext,
			generation_method = EXCLUDED.generation_method,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query,
		record.UserID, record.Ciphertext, string(record.Method), record.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the user's token row (ciphertext, not plaintext) or
// common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.TokenRecord, error) {
	query := `
		SELECT user_id, ciphertext, generation_method, created_at, updated_at
		FROM tokens
		WHERE user_id = $1
	`
	record := &models.TokenRecord{}
	var method string
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&record.UserID, &record.Ciphertext, &method, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	record.Method = models.GenerationMethod(method)
	return record, nil
}

// Delete removes the user's token row and reports whether one existed.
// A missing row is not an error, so delete is idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, userID string) (bool, error) {
	query := `
		DELETE FROM tokens
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected > 0, nil
}
