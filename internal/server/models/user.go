// Package models defines the persisted entities of the custody core.
package models

import "time"

// User is an account that can authenticate and own at most one token record.
// The username is the immutable identifier; the core never mutates or
// deletes users.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
