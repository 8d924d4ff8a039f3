package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plp-eems/eems-api/internal/domain"
)

type SessionRepository interface {
	CreateSession(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error)
	DeactivateSession(ctx context.Context, tokenHash string) error
	// FindActiveSession returns sql.ErrNoRows for unknown, revoked or expired sessions.
	FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*domain.Session, error)
	// DeactivateAccountSessions revokes every active session of the account owning email.
	DeactivateAccountSessions(ctx context.Context, email string) (int64, error)
}
