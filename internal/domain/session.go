package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a login issued by the API. Only the SHA-256 of the bearer token is stored.
type Session struct {
	ID        int64     `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	TokenHash string    `db:"token_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}
