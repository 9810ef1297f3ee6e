// Package auth issues and verifies the session credential: a self-contained
// signed JWT (HS256) asserting an authenticated subject. Nothing is persisted
// server-side, so a credential cannot be revoked before expiry, a documented
// limitation of the design.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints a session credential for subject with the given TTL.
func GenerateToken(subject string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(secretKey)
}

// GetSubjectFromToken verifies the signature (HS256 only) and expiry of a
// session credential and returns its subject. An expired-but-well-signed
// credential yields common.ErrTokenExpired; everything else that fails
// yields common.ErrInvalidToken. Both map to "unauthenticated" externally
// but are logged as different kinds.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
