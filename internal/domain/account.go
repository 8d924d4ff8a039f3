package domain

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     *string    `db:"full_name" json:"full_name,omitempty"`
	PasswordHash []byte     `db:"password_hash" json:"-"`
	PasswordSalt []byte     `db:"password_salt" json:"-"`
	ResetCode    *string    `db:"reset_code" json:"-"`
	CodeExpiry   *time.Time `db:"code_expiry" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName falls back to a generic greeting when the account has no name on file.
func (a *Account) DisplayName() string {
	if a == nil || a.FullName == nil || *a.FullName == "" {
		return "User"
	}
	return *a.FullName
}
