package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/plp-eems/eems-api/internal/domain"
	"github.com/plp-eems/eems-api/internal/metrics"
	"github.com/plp-eems/eems-api/internal/repository/ports"
	"github.com/plp-eems/eems-api/internal/util"
)

const (
	defaultResetCodeTTL     = 15 * time.Minute
	defaultResetMailTimeout = 10 * time.Second
	resetRollbackTimeout    = 5 * time.Second

	stepSendCode   = "send_code"
	stepVerifyCode = "verify_code"
	stepReset      = "reset"
)

type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, name, code string, validFor time.Duration) error
}

type PasswordResetConfig struct {
	CodeTTL           time.Duration
	MinPasswordLength int
	MailTimeout       time.Duration
	// ConcealUnknownEmail answers RequestCode for unknown addresses exactly like a success.
	ConcealUnknownEmail bool
	// Throttle is optional; when nil no per-email limit applies.
	Throttle ports.Throttle
	// Sessions, when set, has every login of the account revoked after a successful reset.
	Sessions ports.SessionRepository
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

type ResetRequestResult struct {
	Email string
}

// PasswordResetService runs the send-code / verify-code / reset protocol against the account
// row. Every step re-reads the store; nothing is cached between steps.
type PasswordResetService struct {
	accounts ports.AccountRepository
	mailer   PasswordResetSender
	throttle ports.Throttle
	sessions ports.SessionRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics

	codeTTL        time.Duration
	minPasswordLen int
	mailTimeout    time.Duration
	concealUnknown bool
	now            func() time.Time
	generateCode   func() (string, error)
}

func NewPasswordResetService(accounts ports.AccountRepository, mailer PasswordResetSender, cfg PasswordResetConfig) *PasswordResetService {
	codeTTL := cfg.CodeTTL
	if codeTTL <= 0 {
		codeTTL = defaultResetCodeTTL
	}
	mailTimeout := cfg.MailTimeout
	if mailTimeout <= 0 {
		mailTimeout = defaultResetMailTimeout
	}
	minLen := cfg.MinPasswordLength
	if minLen <= 0 {
		minLen = util.DefaultMinPasswordLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &PasswordResetService{
		accounts:       accounts,
		mailer:         mailer,
		throttle:       cfg.Throttle,
		sessions:       cfg.Sessions,
		logger:         logger.Named("password_reset"),
		metrics:        cfg.Metrics,
		codeTTL:        codeTTL,
		minPasswordLen: minLen,
		mailTimeout:    mailTimeout,
		concealUnknown: cfg.ConcealUnknownEmail,
		now:            time.Now,
		generateCode:   util.GenerateResetCode,
	}
}

// RequestCode stores a fresh code on the account, replacing any pending one, and mails it.
// If delivery fails the stored code is cleared again so no undelivered code stays valid.
func (s *PasswordResetService) RequestCode(ctx context.Context, email string) (result *ResetRequestResult, err error) {
	defer func() { s.metrics.ResetStep(stepSendCode, outcomeFor(err)) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError("email is required")
	}
	if err := s.checkThrottle(ctx, "send", email); err != nil {
		return nil, err
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate reset code: %w", err)
	}
	expiresAt := s.now().Add(s.codeTTL)

	account, err := s.accounts.SetResetCode(ctx, domain.PasswordReset{Email: email, Code: code, ExpiresAt: expiresAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if s.concealUnknown {
				s.logger.Info("reset requested for unknown email", emailField(email))
				return &ResetRequestResult{Email: email}, nil
			}
			return nil, ErrAccountNotFound
		}
		return nil, storeError("store reset code", err)
	}

	mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	started := time.Now()
	sendErr := s.mailer.SendPasswordReset(mailCtx, account.Email, account.DisplayName(), code, s.codeTTL)
	s.metrics.ObserveMail(time.Since(started).Seconds())
	if sendErr != nil {
		s.rollbackCode(ctx, account, code)
		s.logger.Warn("reset code delivery failed",
			zap.String("account_id", account.ID.String()),
			zap.Error(sendErr),
		)
		return nil, fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}

	s.logger.Info("reset code sent",
		zap.String("account_id", account.ID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return &ResetRequestResult{Email: account.Email}, nil
}

// VerifyCode checks email, code and expiry without touching the stored state.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) (err error) {
	defer func() { s.metrics.ResetStep(stepVerifyCode, outcomeFor(err)) }()

	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return validationError("email and code are required")
	}
	if err := s.checkThrottle(ctx, "verify", email); err != nil {
		return err
	}

	if _, err := s.accounts.FindByResetCode(ctx, email, code, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidOrExpired
		}
		return storeError("lookup reset code", err)
	}
	return nil
}

// CommitNewPassword re-validates the code and, in the same conditional update, stores the new
// password hash and clears the code.
func (s *PasswordResetService) CommitNewPassword(ctx context.Context, email, code, newPassword string) (err error) {
	defer func() { s.metrics.ResetStep(stepReset, outcomeFor(err)) }()

	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return validationError("email, code and new password are required")
	}
	if err := util.ValidatePassword(newPassword, s.minPasswordLen); err != nil {
		return passwordPolicyError(err, s.minPasswordLen)
	}
	if err := s.checkThrottle(ctx, "verify", email); err != nil {
		return err
	}

	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.accounts.CommitPasswordReset(ctx, email, code, s.now(), hash, salt)
	if err != nil {
		return storeError("commit password reset", err)
	}
	if !updated {
		return ErrInvalidOrExpired
	}

	s.logger.Info("password reset completed", emailField(email))
	s.revokeSessions(ctx, email)
	return nil
}

// revokeSessions runs after the password is already changed, so failures are only logged.
func (s *PasswordResetService) revokeSessions(ctx context.Context, email string) {
	if s.sessions == nil {
		return
	}
	revoked, err := s.sessions.DeactivateAccountSessions(ctx, email)
	if err != nil {
		s.logger.Error("revoke sessions after reset", emailField(email), zap.Error(err))
		return
	}
	if revoked > 0 {
		s.logger.Info("sessions revoked after reset", emailField(email), zap.Int64("count", revoked))
	}
}

func (s *PasswordResetService) rollbackCode(ctx context.Context, account *domain.Account, code string) {
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetRollbackTimeout)
	defer cancel()
	if err := s.accounts.ClearResetCode(clearCtx, account.ID, code); err != nil {
		s.logger.Error("clear undelivered reset code",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
}

// checkThrottle fails open when the throttle backend errors.
func (s *PasswordResetService) checkThrottle(ctx context.Context, step, email string) error {
	if s.throttle == nil {
		return nil
	}
	allowed, retryAfter, err := s.throttle.Hit(ctx, step+":"+email)
	if err != nil {
		s.logger.Warn("reset throttle unavailable", zap.String("step", step), emailField(email), zap.Error(err))
		return nil
	}
	if !allowed {
		return &RetryAfterError{RetryAfter: retryAfter}
	}
	return nil
}

// emailField identifies an address in logs without writing it out.
func emailField(email string) zap.Field {
	return zap.String("email_hash", util.HashToken(strings.ToLower(email))[:16])
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeRejected
	case errors.Is(err, ErrAccountNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrInvalidCredentials):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrDeliveryFailed):
		return metrics.OutcomeDelivery
	case errors.Is(err, ErrThrottled):
		return metrics.OutcomeThrottled
	default:
		return metrics.OutcomeError
	}
}
