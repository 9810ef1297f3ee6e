// TokenService implements the token lifecycle: save (create or rotate),
// access (decrypt + audit), status (metadata only) and delete. All ciphertext
// passes through the crypto envelope; plaintext never reaches a repository.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/cryptox"
	"github.com/dmitrijs2005/tokenvault/internal/server/config"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/tokens"
)

// GeneratedTokenLength is the length of AUTO-generated tokens.
const GeneratedTokenLength = 32

// AuditRecorder persists one audit record per plaintext access. The token
// service treats a recorder failure as a failure of the access itself.
type AuditRecorder interface {
	Record(ctx context.Context, record *models.AuditRecord) error
}

// SaveResult carries the outcome of a save: the plaintext (returned to the
// owner exactly once, on creation or rotation), the stored metadata, and
// whether the save created the record or rotated an existing one.
type SaveResult struct {
	Token   string
	Record  *models.TokenRecord
	Created bool
}

// AccessResult carries the decrypted token plus metadata for the owner.
type AccessResult struct {
	Token      string
	Record     *models.TokenRecord
	AccessedAt time.Time
}

// TokenService composes the credential store, the crypto envelope and the
// audit recorder. It is stateless apart from those immutable collaborators.
type TokenService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	envelope     *cryptox.Envelope
	recorder     AuditRecorder
	queryTimeout time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, envelope *cryptox.Envelope, recorder AuditRecorder, cfg *config.Config) *TokenService {
	return &TokenService{
		db:           db,
		repomanager:  m,
		envelope:     envelope,
		recorder:     recorder,
		queryTimeout: cfg.QueryTimeout,
	}
}

// Save encrypts and upserts the user's token. An empty plaintext means
// "generate one for me": the service draws GeneratedTokenLength characters
// from the mixed alphanumeric alphabet using crypto/rand and the method is
// AUTO; a supplied plaintext is stored with method MANUAL.
func (s *TokenService) Save(ctx context.Context, userID, plaintext string) (*SaveResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrorValidation)
	}

	method := models.MethodManual
	if plaintext == "" {
		generated, err := common.MakeRandTokenString(GeneratedTokenLength)
		if err != nil {
			return nil, fmt.Errorf("error generating token: %w", err)
		}
		plaintext = generated
		method = models.MethodAuto
	}

	ciphertext, err := s.envelope.Encrypt([]byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("error encrypting token: %w", err)
	}

	repo := s.repomanager.Tokens(s.db)
	record := &models.TokenRecord{
		UserID:     userID,
		Ciphertext: ciphertext,
		Method:     method,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := withRetry(ctx, s.queryTimeout, func(ctx context.Context) error {
		return repo.Upsert(ctx, record)
	}); err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}

	// Re-read for the authoritative timestamps. The insert sets
	// created_at = updated_at, so equality tells creation from rotation.
	stored, err := s.fetch(ctx, repo, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading back token: %w", err)
	}

	return &SaveResult{
		Token:   plaintext,
		Record:  stored,
		Created: stored.CreatedAt.Equal(stored.UpdatedAt),
	}, nil
}

// Access returns the decrypted token to its owner and records the access in
// the audit trail. The audit write is a security control, not incidental
// logging: if it fails, the access fails.
func (s *TokenService) Access(ctx context.Context, subject, userID, application, purpose string) (*AccessResult, error) {
	repo := s.repomanager.Tokens(s.db)
	record, err := s.fetch(ctx, repo, userID)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.envelope.Decrypt(record.Ciphertext)
	if err != nil {
		// wrong key or tampered row; never conflated with "no record"
		return nil, fmt.Errorf("token for %s: %w", userID, err)
	}

	// The audit write gets the same bounded timeout as any store call, but
	// no retry: a replayed insert would double-count the access.
	recordCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	accessedAt := time.Now().UTC()
	if err := s.recorder.Record(recordCtx, &models.AuditRecord{
		Subject:     subject,
		UserID:      userID,
		Application: application,
		Purpose:     purpose,
		AccessedAt:  accessedAt,
	}); err != nil {
		return nil, fmt.Errorf("error recording audit: %w", err)
	}

	return &AccessResult{Token: string(plaintext), Record: record, AccessedAt: accessedAt}, nil
}

// Status returns the stored metadata without ever touching the envelope.
// Absence is reported as common.ErrorNotFound.
func (s *TokenService) Status(ctx context.Context, userID string) (*models.TokenRecord, error) {
	repo := s.repomanager.Tokens(s.db)
	record, err := s.fetch(ctx, repo, userID)
	if err != nil {
		return nil, err
	}
	record.Ciphertext = nil
	return record, nil
}

// Delete removes the user's token, reporting whether one existed. Deleting
// an absent token is not an error.
func (s *TokenService) Delete(ctx context.Context, userID string) (bool, error) {
	repo := s.repomanager.Tokens(s.db)
	var deleted bool
	err := withRetry(ctx, s.queryTimeout, func(ctx context.Context) (delErr error) {
		deleted, delErr = repo.Delete(ctx, userID)
		return delErr
	})
	if err != nil {
		return false, fmt.Errorf("error deleting token: %w", err)
	}
	return deleted, nil
}

func (s *TokenService) fetch(ctx context.Context, repo tokens.Repository, userID string) (*models.TokenRecord, error) {
	var record *models.TokenRecord
	err := withRetry(ctx, s.queryTimeout, func(ctx context.Context) (getErr error) {
		record, getErr = repo.Get(ctx, userID)
		return getErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error fetching token: %w", err)
	}
	return record, nil
}
