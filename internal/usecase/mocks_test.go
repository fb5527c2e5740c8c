//go:build !integration

package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// --- In-memory voucher repository ---

// memVoucherRepo mirrors the store's conditional-update semantics so the
// lifecycle engine can be exercised without a database. Err fields force
// failures for specific methods.
type memVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*model.Voucher

	CreateErr     error
	FindErr       error
	SetExpiresErr error
	UpdateErr     error

	// ReadHook runs after a successful FindByCodeAndAccount, outside the
	// lock. Tests use it as a rendezvous to line up racing callers.
	ReadHook func()
}

func newMemVoucherRepo() *memVoucherRepo {
	return &memVoucherRepo{vouchers: map[string]*model.Voucher{}}
}

func (m *memVoucherRepo) put(v *model.Voucher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.vouchers[v.ID] = &cp
}

func (m *memVoucherRepo) get(id string) *model.Voucher {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vouchers[id]; ok {
		cp := *v
		return &cp
	}
	return nil
}

func (m *memVoucherRepo) Create(ctx context.Context, tx repository.Tx, v *model.Voucher) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vouchers {
		if existing.Code == v.Code {
			return domain.ErrDuplicateCode
		}
	}
	cp := *v
	m.vouchers[v.ID] = &cp
	return nil
}

func (m *memVoucherRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Voucher, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if v := m.get(id); v != nil {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memVoucherRepo) FindByCodeAndAccount(ctx context.Context, tx repository.Tx, code, accountID string) (*model.Voucher, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	var found *model.Voucher
	for _, v := range m.vouchers {
		if v.Code == code && v.AccountID != nil && *v.AccountID == accountID {
			cp := *v
			found = &cp
			break
		}
	}
	m.mu.Unlock()
	if found == nil {
		return nil, domain.ErrNotFound
	}
	if m.ReadHook != nil {
		m.ReadHook()
	}
	return found, nil
}

func (m *memVoucherRepo) FindByAccount(ctx context.Context, tx repository.Tx, accountID string) ([]*model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Voucher
	for _, v := range m.vouchers {
		if v.AccountID != nil && *v.AccountID == accountID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memVoucherRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Voucher
	for _, v := range m.vouchers {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memVoucherRepo) UpdateStatusIfCurrent(ctx context.Context, tx repository.Tx, id string, expected, next model.VoucherStatus, upd repository.StatusUpdate) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok || v.Status != expected {
		return domain.ErrConcurrentModification
	}
	v.Status = next
	if upd.ExpiresAt != nil {
		v.ExpiresAt = upd.ExpiresAt
	}
	if upd.UsedAt != nil {
		v.UsedAt = upd.UsedAt
	}
	return nil
}

func (m *memVoucherRepo) SetExpiresAtIfNull(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) error {
	if m.SetExpiresErr != nil {
		return m.SetExpiresErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok || v.Status != model.VoucherStatusActive || v.ExpiresAt != nil {
		return domain.ErrConcurrentModification
	}
	v.ExpiresAt = &expiresAt
	return nil
}

func (m *memVoucherRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.vouchers {
		if v.Status == model.VoucherStatusActive && v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
			v.Status = model.VoucherStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memVoucherRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, v := range m.vouchers {
		out[string(v.Status)]++
	}
	return out, nil
}

// --- In-memory account repository ---

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.Account

	SaveErr error
	FindErr error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[string]*model.Account{}}
}

func (m *memAccountRepo) put(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.ID] = &cp
}

func (m *memAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email && existing.ID != a.ID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memAccountRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Account, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == strings.ToLower(strings.TrimSpace(email)) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAccountRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Account
	for _, a := range m.accounts {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAccountRepo) CountAccounts(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts), nil
}

// --- In-memory transaction repository ---

type memTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*model.Transaction

	SaveErr error
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{transactions: map[string]*model.Transaction{}}
}

func (m *memTransactionRepo) get(id string) *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.transactions[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

func (m *memTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *memTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	if t := m.get(id); t != nil {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memTransactionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTransactionRepo) FindByProviderID(ctx context.Context, tx repository.Tx, providerID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.Metadata != nil {
			if id, ok := t.Metadata["checkout_request_id"].(string); ok && id == providerID {
				cp := *t
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTransactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, accountID, voucherID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	if accountID != nil {
		t.AccountID = accountID
	}
	if voucherID != nil {
		t.VoucherID = voucherID
	}
	return nil
}

func (m *memTransactionRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.transactions {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.transactions {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTransactionRepo) ListByAccount(ctx context.Context, tx repository.Tx, accountID string) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.transactions {
		if t.AccountID != nil && *t.AccountID == accountID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTransactionRepo) SumCompletedByMethod(ctx context.Context, tx repository.Tx) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for _, t := range m.transactions {
		if t.Status == model.TransactionStatusCompleted {
			out[t.Method] += t.AmountCents
		}
	}
	return out, nil
}

// --- In-memory package repository ---

type memPackageRepo struct {
	mu       sync.Mutex
	packages map[string]*model.Package
}

func newMemPackageRepo() *memPackageRepo {
	return &memPackageRepo{packages: map[string]*model.Package{}}
}

func (m *memPackageRepo) put(p *model.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.packages[p.ID] = &cp
}

func (m *memPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	m.put(p)
	return nil
}

func (m *memPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Package
	for _, p := range m.packages {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Package
	for _, p := range m.packages {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPackageRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.packages, id)
	return nil
}

// --- Stub gateways and notifiers ---

type stubController struct {
	mu      sync.Mutex
	grants  []grantCall
	revokes []string

	GrantFunc func(ctx context.Context, clientMAC string, sessionSeconds int) (adapter.GrantResult, error)
	RevokeErr error
}

type grantCall struct {
	MAC     string
	Seconds int
}

func (s *stubController) Name() string { return "stub" }

func (s *stubController) Grant(ctx context.Context, clientMAC string, sessionSeconds int) (adapter.GrantResult, error) {
	s.mu.Lock()
	s.grants = append(s.grants, grantCall{MAC: clientMAC, Seconds: sessionSeconds})
	s.mu.Unlock()
	if s.GrantFunc != nil {
		return s.GrantFunc(ctx, clientMAC, sessionSeconds)
	}
	return adapter.GrantResult{Status: adapter.GrantGranted, SessionSeconds: sessionSeconds}, nil
}

func (s *stubController) Revoke(ctx context.Context, clientMAC string) error {
	s.mu.Lock()
	s.revokes = append(s.revokes, clientMAC)
	s.mu.Unlock()
	return s.RevokeErr
}

func (s *stubController) grantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

type stubGateway struct {
	mu     sync.Mutex
	pushes []string // references

	PushErr error
}

func (s *stubGateway) Name() string { return "stub" }

func (s *stubGateway) Push(ctx context.Context, phone string, amountCents int64, reference, description string) (adapter.PushResult, error) {
	if s.PushErr != nil {
		return adapter.PushResult{}, s.PushErr
	}
	s.mu.Lock()
	s.pushes = append(s.pushes, reference)
	s.mu.Unlock()
	return adapter.PushResult{
		ProviderID:  "ws_CO_TEST_" + reference,
		MerchantID:  "mr_TEST",
		Description: "Accepted for processing",
	}, nil
}

// stubNotifications records what was sent without a worker pool.
type stubNotifications struct {
	mu           sync.Mutex
	voucherCodes []string
	demoCodes    []string
	opsAlerts    []string
}

func (s *stubNotifications) SendVoucherCode(ctx context.Context, email, code string, durationMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voucherCodes = append(s.voucherCodes, code)
}

func (s *stubNotifications) SendDemoVoucher(ctx context.Context, email, code string, durationMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoCodes = append(s.demoCodes, code)
}

func (s *stubNotifications) AlertOps(ctx context.Context, subject, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opsAlerts = append(s.opsAlerts, subject)
}

// --- Stub locker and rate limiter ---

type stubLocker struct {
	Held bool // simulate another holder
}

func (s *stubLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.Held {
		return "", domain.ErrLockHeld
	}
	return "token", nil
}

func (s *stubLocker) Unlock(ctx context.Context, key, token string) error { return nil }

type stubLimiter struct {
	Allowed bool
	Err     error
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return s.Allowed, s.Err
}
