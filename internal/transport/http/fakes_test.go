package http

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plp-eems/eems-api/internal/domain"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newMemAccounts(accounts ...*domain.Account) *memAccounts {
	m := &memAccounts{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.Email] = a
	}
	return m
}

func (m *memAccounts) Create(_ context.Context, email string, fullName *string, hash, salt []byte) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := &domain.Account{ID: uuid.New(), Email: email, FullName: fullName, PasswordHash: hash, PasswordSalt: salt}
	m.accounts[email] = account
	clone := *account
	return &clone, nil
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (m *memAccounts) FindByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.ID == id {
			clone := *account
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAccounts) matches(email, code string, now time.Time) (*domain.Account, bool) {
	account, ok := m.accounts[email]
	if !ok || account.ResetCode == nil || *account.ResetCode != code ||
		account.CodeExpiry == nil || !account.CodeExpiry.After(now) {
		return nil, false
	}
	return account, true
}

func (m *memAccounts) FindByResetCode(_ context.Context, email, code string, now time.Time) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.matches(email, code, now)
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (m *memAccounts) SetResetCode(_ context.Context, reset domain.PasswordReset) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[reset.Email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	code, expiry := reset.Code, reset.ExpiresAt
	account.ResetCode, account.CodeExpiry = &code, &expiry
	clone := *account
	return &clone, nil
}

func (m *memAccounts) ClearResetCode(_ context.Context, id uuid.UUID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.ID == id && account.ResetCode != nil && *account.ResetCode == code {
			account.ResetCode, account.CodeExpiry = nil, nil
		}
	}
	return nil
}

func (m *memAccounts) CommitPasswordReset(_ context.Context, email, code string, now time.Time, hash, salt []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.matches(email, code, now)
	if !ok {
		return false, nil
	}
	account.PasswordHash, account.PasswordSalt = hash, salt
	account.ResetCode, account.CodeExpiry = nil, nil
	return true, nil
}

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, _, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type stubThrottle struct {
	mu         sync.Mutex
	keys       []string
	allowed    bool
	retryAfter time.Duration
	err        error
}

func (s *stubThrottle) Hit(_ context.Context, key string) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return s.allowed, s.retryAfter, s.err
}

type fixedTimeSource struct {
	now time.Time
	err error
}

func (f fixedTimeSource) ServerTime(context.Context) (time.Time, error) {
	return f.now, f.err
}

type memSessions struct {
	mu       sync.Mutex
	accounts *memAccounts
	sessions map[string]*domain.Session
}

func newMemSessions(accounts *memAccounts) *memSessions {
	return &memSessions{accounts: accounts, sessions: make(map[string]*domain.Session)}
}

func (m *memSessions) CreateSession(_ context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := &domain.Session{AccountID: accountID, TokenHash: tokenHash, ExpiresAt: expiresAt, IsActive: true}
	m.sessions[tokenHash] = session
	clone := *session
	return &clone, nil
}

func (m *memSessions) DeactivateSession(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[tokenHash]; ok {
		session.IsActive = false
	}
	return nil
}

func (m *memSessions) FindActiveSession(_ context.Context, tokenHash string, now time.Time) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[tokenHash]
	if !ok || !session.IsActive || !session.ExpiresAt.After(now) {
		return nil, sql.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

func (m *memSessions) DeactivateAccountSessions(ctx context.Context, email string) (int64, error) {
	account, err := m.accounts.FindByEmail(ctx, email)
	if err != nil {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var revoked int64
	for _, session := range m.sessions {
		if session.AccountID == account.ID && session.IsActive {
			session.IsActive = false
			revoked++
		}
	}
	return revoked, nil
}

// countingThrottle allows limit hits per key and blocks the rest.
type countingThrottle struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func newCountingThrottle(limit int) *countingThrottle {
	return &countingThrottle{limit: limit, counts: make(map[string]int)}
}

func (c *countingThrottle) Hit(_ context.Context, key string) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	if c.counts[key] > c.limit {
		return false, time.Minute, nil
	}
	return true, 0, nil
}

func (c *countingThrottle) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
