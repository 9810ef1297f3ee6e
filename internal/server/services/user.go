// Package services contains server-side business logic. This file implements
// UserService, which handles registration and login, issuing the signed
// session credential on successful authentication.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/cryptox"
	"github.com/dmitrijs2005/tokenvault/internal/server/auth"
	"github.com/dmitrijs2005/tokenvault/internal/server/config"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
	"github.com/dmitrijs2005/tokenvault/internal/server/repositories/repomanager"
)

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	ExpiresIn   int64 // seconds
}

// UserService provides authentication-related operations:
// - Register: create users (operator CLI, not exposed over HTTP)
// - Login: verify credentials and mint the session credential
type UserService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	jwtSecret    []byte
	sessionTTL   time.Duration
	queryTimeout time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:           db,
		repomanager:  m,
		jwtSecret:    []byte(cfg.SessionSecret),
		sessionTTL:   cfg.SessionTTL,
		queryTimeout: cfg.QueryTimeout,
	}
}

// Register validates the credentials, hashes the password (Argon2id) and
// creates the user. A duplicate username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}

	hash, err := cryptox.HashPassword([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	repo := s.repomanager.Users(s.db)
	if err := withRetry(ctx, s.queryTimeout, func(ctx context.Context) error {
		return repo.Create(ctx, user)
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Login verifies the password against the stored Argon2id hash and mints
// a session credential. Unknown username and wrong password yield the same
// common.ErrorUnauthorized, and an unknown username still burns the full
// hashing cost so the two cases are not distinguishable by timing either.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	repo := s.repomanager.Users(s.db)

	var user *models.User
	err := withRetry(ctx, s.queryTimeout, func(ctx context.Context) (getErr error) {
		user, getErr = repo.GetByUsername(ctx, username)
		return getErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.DummyVerify([]byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	ok, err := cryptox.VerifyPassword([]byte(password), user.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{AccessToken: token, ExpiresIn: int64(s.sessionTTL.Seconds())}, nil
}
