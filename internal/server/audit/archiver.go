package audit

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/tokenvault/internal/dbx"
	"github.com/dmitrijs2005/tokenvault/internal/logging"
	"github.com/dmitrijs2005/tokenvault/internal/server/config"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// archiveBatchSize caps how many records one flush ships.
const archiveBatchSize = 500

// finalDrainTimeout bounds the last flush during shutdown, whose parent
// context is already cancelled.
const finalDrainTimeout = 10 * time.Second

// Seams for testing the S3 interaction.
var (
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// Archiver periodically drains unarchived audit records, uploads them as a
// JSON-lines object to S3-compatible storage, and marks them archived.
// It is the only background goroutine besides the HTTP server.
type Archiver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

// NewArchiver constructs an Archiver. The caller decides whether to run it
// (config.ArchiverEnabled).
func NewArchiver(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *Archiver {
	return &Archiver{db: db, repomanager: m, config: cfg, logger: logger.With("component", "audit-archiver")}
}

// archivedLine is the JSON-lines form of one shipped record.
type archivedLine struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	UserID      string    `json:"user_id"`
	Application string    `json:"application"`
	Purpose     string    `json:"purpose"`
	AccessedAt  time.Time `json:"accessed_at"`
}

// Run flushes on every tick until ctx is cancelled, then performs a final
// drain so shutdown does not strand records that were already selected.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.config.AuditFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.flushOnce(ctx); err != nil {
				a.logger.Error(ctx, "audit flush failed", "error", err.Error())
			}
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), finalDrainTimeout)
			err := a.flushOnce(drainCtx)
			cancel()
			return multierr.Append(ctx.Err(), err)
		}
	}
}

// flushOnce ships at most one batch. Records are marked archived in a single
// transaction only after the upload succeeded, so a failed upload retries the
// same batch on the next tick.
func (a *Archiver) flushOnce(ctx context.Context) error {
	repo := a.repomanager.Audit(a.db)
	records, err := repo.SelectUnarchived(ctx, archiveBatchSize)
	if err != nil {
		return fmt.Errorf("error selecting audit records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var body bytes.Buffer
	ids := make([]string, 0, len(records))
	enc := json.NewEncoder(&body)
	for _, rec := range records {
		line := archivedLine{
			ID:          rec.ID,
			Subject:     rec.Subject,
			UserID:      rec.UserID,
			Application: rec.Application,
			Purpose:     rec.Purpose,
			AccessedAt:  rec.AccessedAt,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("error encoding audit record: %w", err)
		}
		ids = append(ids, rec.ID)
	}

	client, err := a.getClient(ctx)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %w", err)
	}

	key := fmt.Sprintf("audit/%s/%s.jsonl", time.Now().UTC().Format("2006/01/02"), uuid.NewString())
	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.config.S3Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body.Bytes()),
	}); err != nil {
		return fmt.Errorf("error uploading audit archive: %w", err)
	}

	now := time.Now().UTC()
	if err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.repomanager.Audit(tx).MarkArchived(ctx, ids, now)
	}); err != nil {
		return fmt.Errorf("error marking audit records archived: %w", err)
	}

	a.logger.Info(ctx, "audit records archived", "count", len(ids), "key", key)
	return nil
}

func (a *Archiver) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3AccessKey,
			a.config.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}
