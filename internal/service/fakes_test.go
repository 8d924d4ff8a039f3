package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plp-eems/eems-api/internal/domain"
)

// fakeAccountRepo applies the same row predicates as the postgres repository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account

	setCalls   []domain.PasswordReset
	clearCalls []struct {
		id   uuid.UUID
		code string
	}
	commitCalls int

	createErr error
	findErr   error
	setErr    error
	clearErr  error
	commitErr error
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		repo.accounts[a.Email] = a
	}
	return repo
}

func (f *fakeAccountRepo) snapshot(email string) domain.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[email]
	if !ok {
		return domain.Account{}
	}
	clone := *account
	if account.ResetCode != nil {
		code := *account.ResetCode
		clone.ResetCode = &code
	}
	if account.CodeExpiry != nil {
		expiry := *account.CodeExpiry
		clone.CodeExpiry = &expiry
	}
	clone.PasswordHash = append([]byte(nil), account.PasswordHash...)
	clone.PasswordSalt = append([]byte(nil), account.PasswordSalt...)
	return clone
}

func (f *fakeAccountRepo) Create(ctx context.Context, email string, fullName *string, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	account := &domain.Account{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.accounts[email] = account
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, account := range f.accounts {
		if account.ID == id {
			clone := *account
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

// codeMatches mirrors the store's predicate: same code, expiry strictly after now.
func codeMatches(account *domain.Account, code string, now time.Time) bool {
	return account.ResetCode != nil && *account.ResetCode == code &&
		account.CodeExpiry != nil && account.CodeExpiry.After(now)
}

func (f *fakeAccountRepo) FindByResetCode(ctx context.Context, email, code string, now time.Time) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[email]
	if !ok || !codeMatches(account, code, now) {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) SetResetCode(ctx context.Context, reset domain.PasswordReset) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, reset)
	if f.setErr != nil {
		return nil, f.setErr
	}
	account, ok := f.accounts[reset.Email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	code := reset.Code
	expiry := reset.ExpiresAt
	account.ResetCode = &code
	account.CodeExpiry = &expiry
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) ClearResetCode(ctx context.Context, id uuid.UUID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls = append(f.clearCalls, struct {
		id   uuid.UUID
		code string
	}{id: id, code: code})
	if f.clearErr != nil {
		return f.clearErr
	}
	for _, account := range f.accounts {
		if account.ID == id && account.ResetCode != nil && *account.ResetCode == code {
			account.ResetCode = nil
			account.CodeExpiry = nil
		}
	}
	return nil
}

func (f *fakeAccountRepo) CommitPasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash, passwordSalt []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitCalls++
	if f.commitErr != nil {
		return false, f.commitErr
	}
	account, ok := f.accounts[email]
	if !ok || !codeMatches(account, code, now) {
		return false, nil
	}
	account.PasswordHash = append([]byte(nil), passwordHash...)
	account.PasswordSalt = append([]byte(nil), passwordSalt...)
	account.ResetCode = nil
	account.CodeExpiry = nil
	return true, nil
}

type sentResetMail struct {
	email    string
	name     string
	code     string
	validFor time.Duration
}

type fakeResetMailer struct {
	mu     sync.Mutex
	sent   []sentResetMail
	err    error
	block  bool
	onSend func()
}

func (f *fakeResetMailer) SendPasswordReset(ctx context.Context, email, name, code string, validFor time.Duration) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentResetMail{email: email, name: name, code: code, validFor: validFor})
	hook := f.onSend
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeResetMailer) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].code
}

type fakeThrottle struct {
	mu         sync.Mutex
	limit      int
	hits       map[string]int
	retryAfter time.Duration
	err        error
}

func (f *fakeThrottle) Hit(ctx context.Context, key string) (bool, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	if f.hits == nil {
		f.hits = make(map[string]int)
	}
	f.hits[key]++
	if f.hits[key] > f.limit {
		return false, f.retryAfter, nil
	}
	return true, 0, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func strPtr(s string) *string {
	return &s
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	sessions map[string]*domain.Session
	nextID   int64

	createErr error
	revokeErr error
}

func newFakeSessionRepo(accounts *fakeAccountRepo) *fakeSessionRepo {
	return &fakeSessionRepo{accounts: accounts, sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, accountID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	session := &domain.Session{ID: f.nextID, AccountID: accountID, TokenHash: tokenHash, CreatedAt: time.Now(), ExpiresAt: expiresAt, IsActive: true}
	f.sessions[tokenHash] = session
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[tokenHash]; ok {
		session.IsActive = false
	}
	return nil
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, tokenHash string, now time.Time) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[tokenHash]
	if !ok || !session.IsActive || !session.ExpiresAt.After(now) {
		return nil, sql.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepo) DeactivateAccountSessions(ctx context.Context, email string) (int64, error) {
	if f.revokeErr != nil {
		return 0, f.revokeErr
	}
	account, err := f.accounts.FindByEmail(ctx, email)
	if err != nil {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var revoked int64
	for _, session := range f.sessions {
		if session.AccountID == account.ID && session.IsActive {
			session.IsActive = false
			revoked++
		}
	}
	return revoked, nil
}

func (f *fakeSessionRepo) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, session := range f.sessions {
		if session.IsActive {
			count++
		}
	}
	return count
}
