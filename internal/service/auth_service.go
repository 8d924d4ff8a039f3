package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/domain"
	"github.com/plp-eems/eems-api/internal/metrics"
	"github.com/plp-eems/eems-api/internal/repository/ports"
	"github.com/plp-eems/eems-api/internal/util"
)

const uniqueViolation = "23505"

type LoginResult struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	accounts       ports.AccountRepository
	sessions       ports.SessionRepository
	jwt            *util.JWTManager
	minPasswordLen int
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// NewAuthService builds the login service. With a nil sessions repository tokens are
// accepted until they expire and cannot be revoked.
func NewAuthService(accounts ports.AccountRepository, sessions ports.SessionRepository, jwtManager *util.JWTManager, minPasswordLength int, logger *zap.Logger, m *metrics.Metrics) *AuthService {
	if minPasswordLength <= 0 {
		minPasswordLength = util.DefaultMinPasswordLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:       accounts,
		sessions:       sessions,
		jwt:            jwtManager,
		minPasswordLen: minPasswordLength,
		logger:         logger.Named("auth"),
		metrics:        m,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer func() { s.metrics.Login(outcomeFor(err)) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeError("lookup account", err)
	}
	if !util.VerifyPassword(password, account.PasswordSalt, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.Generate(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if _, err := s.sessions.CreateSession(ctx, account.ID, util.HashToken(token), expiresAt); err != nil {
			return nil, storeError("create session", err)
		}
	}
	s.logger.Info("login succeeded", zap.String("account_id", account.ID.String()))
	return &LoginResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if s.sessions != nil {
		if _, err := s.sessions.FindActiveSession(ctx, util.HashToken(token), time.Now()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrInvalidToken
			}
			return nil, storeError("lookup session", err)
		}
	}
	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, storeError("lookup account", err)
	}
	return account, nil
}

// Logout revokes the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.DeactivateSession(ctx, util.HashToken(token)); err != nil {
		return storeError("deactivate session", err)
	}
	return nil
}

// CreateAccount provisions an admin account.
func (s *AuthService) CreateAccount(ctx context.Context, email, fullName, password string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, validationError("a valid email is required")
	}
	if err := util.ValidatePassword(password, s.minPasswordLen); err != nil {
		return nil, passwordPolicyError(err, s.minPasswordLen)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}

	var name *string
	if trimmed := strings.TrimSpace(fullName); trimmed != "" {
		name = &trimmed
	}

	account, err := s.accounts.Create(ctx, email, name, hash, salt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, storeError("create account", err)
	}
	return account, nil
}
