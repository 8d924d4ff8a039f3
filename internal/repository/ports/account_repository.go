package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plp-eems/eems-api/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	// FindByResetCode returns sql.ErrNoRows unless email, code and an expiry later than now all match.
	FindByResetCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error)
	// SetResetCode overwrites any pending code. Returns sql.ErrNoRows when the email is unknown.
	SetResetCode(ctx context.Context, reset domain.PasswordReset) (*domain.Account, error)
	// ClearResetCode clears the pending code only while it still equals code.
	ClearResetCode(ctx context.Context, id uuid.UUID, code string) error
	// CommitPasswordReset swaps the password and clears the code in one conditional update.
	// It reports false when no pending, unexpired code matched.
	CommitPasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash, passwordSalt []byte) (bool, error)
}
