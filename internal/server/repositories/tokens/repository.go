package tokens

import (
	"context"

	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

// Repository stores encrypted token records, at most one per user.
type Repository interface {
	Upsert(ctx context.Context, record *models.TokenRecord) error
	Get(ctx context.Context, userID string) (*models.TokenRecord, error)
	Delete(ctx context.Context, userID string) (bool, error)
}
