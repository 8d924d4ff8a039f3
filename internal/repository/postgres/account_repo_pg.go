package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plp-eems/eems-api/internal/domain"
)

const accountColumns = `id, email, full_name, password_hash, password_salt, reset_code, code_expiry, created_at, updated_at`

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	const query = `
        INSERT INTO admin_account (email, full_name, password_hash, password_salt)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + accountColumns
	row := r.db.QueryRowxContext(ctx, query, email, fullName, passwordHash, passwordSalt)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `
        SELECT ` + accountColumns + `
        FROM admin_account
        WHERE email = $1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	const query = `
        SELECT ` + accountColumns + `
        FROM admin_account
        WHERE id = $1
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByResetCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error) {
	const query = `
        SELECT ` + accountColumns + `
        FROM admin_account
        WHERE email = $1 AND reset_code = $2 AND code_expiry > $3
    `
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email, code, now); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) SetResetCode(ctx context.Context, reset domain.PasswordReset) (*domain.Account, error) {
	const query = `
        UPDATE admin_account
        SET reset_code = $2,
            code_expiry = $3,
            updated_at = NOW()
        WHERE email = $1
        RETURNING ` + accountColumns
	row := r.db.QueryRowxContext(ctx, query, reset.Email, reset.Code, reset.ExpiresAt)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) ClearResetCode(ctx context.Context, id uuid.UUID, code string) error {
	const query = `
        UPDATE admin_account
        SET reset_code = NULL,
            code_expiry = NULL,
            updated_at = NOW()
        WHERE id = $1 AND reset_code = $2
    `
	_, err := r.db.ExecContext(ctx, query, id, code)
	return err
}

func (r *AccountRepository) CommitPasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash, passwordSalt []byte) (bool, error) {
	const query = `
        UPDATE admin_account
        SET password_hash = $4,
            password_salt = $5,
            reset_code = NULL,
            code_expiry = NULL,
            updated_at = NOW()
        WHERE email = $1 AND reset_code = $2 AND code_expiry > $3
    `
	res, err := r.db.ExecContext(ctx, query, email, code, now, passwordHash, passwordSalt)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
