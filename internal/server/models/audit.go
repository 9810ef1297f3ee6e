package models

import "time"

// AuditRecord captures one successful access to a token's plaintext:
// who asked, whose token, for which application and purpose, and when.
// ArchivedAt stays nil until the record has been shipped to offsite storage.
type AuditRecord struct {
	ID          string
	Subject     string
	UserID      string
	Application string
	Purpose     string
	AccessedAt  time.Time
	ArchivedAt  *time.Time
}
