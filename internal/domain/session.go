package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record of an issued bearer token.
// ID is the token's jti claim.
type Session struct {
	ID        uuid.UUID
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Caller is the identity resolved once per request from a verified token.
type Caller struct {
	UserID    int64
	SessionID uuid.UUID
	ExpiresAt time.Time
}
