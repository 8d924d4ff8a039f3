package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plp-eems/eems-api/internal/domain"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error) {
	const query = `
        INSERT INTO admin_session (account_id, token_hash, expires_at, is_active)
        VALUES ($1, $2, $3, true)
        RETURNING id, account_id, token_hash, created_at, expires_at, is_active
    `
	var session domain.Session
	if err := r.db.QueryRowxContext(ctx, query, accountID, tokenHash, expiresAt).StructScan(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) DeactivateSession(ctx context.Context, tokenHash string) error {
	const query = `
        UPDATE admin_session SET is_active = false, expires_at = NOW()
        WHERE token_hash = $1 AND is_active = true
    `
	_, err := r.db.ExecContext(ctx, query, tokenHash)
	return err
}

func (r *SessionRepository) FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*domain.Session, error) {
	const query = `
        SELECT id, account_id, token_hash, created_at, expires_at, is_active
        FROM admin_session
        WHERE token_hash = $1 AND is_active = true AND expires_at > $2
    `
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, tokenHash, now); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) DeactivateAccountSessions(ctx context.Context, email string) (int64, error) {
	const query = `
        UPDATE admin_session s SET is_active = false, expires_at = NOW()
        FROM admin_account a
        WHERE s.account_id = a.id AND a.email = $1 AND s.is_active = true
    `
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
