package domain

import "time"

// PasswordReset is the pending reset state carried on an account row.
type PasswordReset struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}
