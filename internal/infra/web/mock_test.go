//go:build !integration

package web

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// --- Mock Use Cases ---

type mockRedemptionUC struct {
	RedeemFunc func(ctx context.Context, code, email, clientID string) *usecase.RedemptionOutcome
	LogoutFunc func(ctx context.Context, clientID string) error
}

func (m *mockRedemptionUC) Redeem(ctx context.Context, code, email, clientID string) *usecase.RedemptionOutcome {
	return m.RedeemFunc(ctx, code, email, clientID)
}
func (m *mockRedemptionUC) Logout(ctx context.Context, clientID string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, clientID)
}

type mockVoucherUC struct {
	usecase.VoucherUseCase

	IssueFunc         func(ctx context.Context, accountID string, durationMinutes int, dataCapMB *int, packageID *string) (*model.Voucher, error)
	ValidateFunc      func(ctx context.Context, code, accountID string) (*usecase.ValidationResult, error)
	ForceExpireFunc   func(ctx context.Context, voucherID string) error
	ListFunc          func(ctx context.Context, offset, limit int) ([]*model.Voucher, error)
	ListByAccountFunc func(ctx context.Context, accountID string) ([]*model.Voucher, error)
}

func (m *mockVoucherUC) Issue(ctx context.Context, accountID string, durationMinutes int, dataCapMB *int, packageID *string) (*model.Voucher, error) {
	return m.IssueFunc(ctx, accountID, durationMinutes, dataCapMB, packageID)
}
func (m *mockVoucherUC) Validate(ctx context.Context, code, accountID string) (*usecase.ValidationResult, error) {
	return m.ValidateFunc(ctx, code, accountID)
}
func (m *mockVoucherUC) ForceExpire(ctx context.Context, voucherID string) error {
	return m.ForceExpireFunc(ctx, voucherID)
}
func (m *mockVoucherUC) List(ctx context.Context, offset, limit int) ([]*model.Voucher, error) {
	return m.ListFunc(ctx, offset, limit)
}
func (m *mockVoucherUC) ListByAccount(ctx context.Context, accountID string) ([]*model.Voucher, error) {
	return m.ListByAccountFunc(ctx, accountID)
}

type mockAccountUC struct {
	usecase.AccountUseCase

	GetByEmailFunc      func(ctx context.Context, email string) (*model.Account, error)
	RegisterOrFetchFunc func(ctx context.Context, email, phone string) (*model.Account, error)
	DeactivateFunc      func(ctx context.Context, id string) error
	ListFunc            func(ctx context.Context, offset, limit int) ([]*model.Account, error)
	CountFunc           func(ctx context.Context) (int, error)
}

func (m *mockAccountUC) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return m.GetByEmailFunc(ctx, email)
}
func (m *mockAccountUC) RegisterOrFetch(ctx context.Context, email, phone string) (*model.Account, error) {
	return m.RegisterOrFetchFunc(ctx, email, phone)
}
func (m *mockAccountUC) Deactivate(ctx context.Context, id string) error {
	return m.DeactivateFunc(ctx, id)
}
func (m *mockAccountUC) List(ctx context.Context, offset, limit int) ([]*model.Account, error) {
	return m.ListFunc(ctx, offset, limit)
}
func (m *mockAccountUC) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

type mockPaymentUC struct {
	usecase.PaymentUseCase

	CreateIntentFunc func(ctx context.Context, email, packageID string) (*usecase.PaymentIntent, error)
	InitiateFunc     func(ctx context.Context, email, phone, packageID string) (*model.Transaction, error)
	ConfirmFunc      func(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc, receipt string) (*model.Transaction, error)
	ProcessDummyFunc func(ctx context.Context, email, packageID string) (*model.Transaction, error)
	GetFunc          func(ctx context.Context, id string) (*model.Transaction, error)
	ListFunc         func(ctx context.Context, offset, limit int) ([]*model.Transaction, error)
}

func (m *mockPaymentUC) CreateIntent(ctx context.Context, email, packageID string) (*usecase.PaymentIntent, error) {
	return m.CreateIntentFunc(ctx, email, packageID)
}
func (m *mockPaymentUC) InitiateMpesa(ctx context.Context, email, phone, packageID string) (*model.Transaction, error) {
	return m.InitiateFunc(ctx, email, phone, packageID)
}
func (m *mockPaymentUC) ConfirmMpesa(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc, receipt string) (*model.Transaction, error) {
	return m.ConfirmFunc(ctx, checkoutRequestID, resultCode, resultDesc, receipt)
}
func (m *mockPaymentUC) ProcessDummy(ctx context.Context, email, packageID string) (*model.Transaction, error) {
	return m.ProcessDummyFunc(ctx, email, packageID)
}
func (m *mockPaymentUC) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockPaymentUC) ListTransactions(ctx context.Context, offset, limit int) ([]*model.Transaction, error) {
	return m.ListFunc(ctx, offset, limit)
}

type mockDemoUC struct {
	RequestFunc func(ctx context.Context, email string) (*model.Voucher, error)
}

func (m *mockDemoUC) Request(ctx context.Context, email string) (*model.Voucher, error) {
	return m.RequestFunc(ctx, email)
}

type mockStatsUC struct {
	TotalsFunc  func(ctx context.Context) (int, map[string]int, error)
	RevenueFunc func(ctx context.Context) (map[string]int64, error)
}

func (m *mockStatsUC) Totals(ctx context.Context) (int, map[string]int, error) {
	return m.TotalsFunc(ctx)
}
func (m *mockStatsUC) Revenue(ctx context.Context) (map[string]int64, error) {
	return m.RevenueFunc(ctx)
}

// --- Mock Package Repository (PackageUseCase is concrete) ---

type mockPackageRepo struct {
	mu       sync.Mutex
	packages []*model.Package
}

func (m *mockPackageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages = append(m.packages, p)
	return nil
}
func (m *mockPackageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockPackageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Package
	for _, p := range m.packages {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *mockPackageRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.packages, nil
}
func (m *mockPackageRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.packages {
		if p.ID == id {
			m.packages = append(m.packages[:i], m.packages[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
