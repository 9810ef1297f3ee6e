package users

import (
	"context"

	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

// Repository stores user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
