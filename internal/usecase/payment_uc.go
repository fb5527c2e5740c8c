// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/logging"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// Locker is the distributed-lock capability used to dedupe concurrent
// provider callbacks for the same payment.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// PaymentMethod describes one way the splash page can collect payment.
type PaymentMethod struct {
	Method        string
	Name          string
	Description   string
	PhoneRequired bool
}

// PaymentIntent is returned to the frontend before any provider call.
type PaymentIntent struct {
	Reference   string
	PackageID   string
	AmountCents int64
	Currency    string
	Methods     []PaymentMethod
}

// PaymentUseCase funds voucher issuance: it initiates mobile-money
// collection, consumes the provider's asynchronous confirmation, and on
// success issues a voucher through the lifecycle engine.
type PaymentUseCase interface {
	CreateIntent(ctx context.Context, email, packageID string) (*PaymentIntent, error)
	// InitiateMpesa starts an STK push on the payer's handset and records a
	// pending transaction correlated by the provider's checkout id.
	InitiateMpesa(ctx context.Context, email, phone, packageID string) (*model.Transaction, error)
	// ConfirmMpesa consumes the Daraja result callback. resultCode zero
	// means the payer approved; anything else is a failure/cancel.
	ConfirmMpesa(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc string, receipt string) (*model.Transaction, error)
	// ProcessDummy simulates a successful payment end to end (demo/test
	// deployments only).
	ProcessDummy(ctx context.Context, email, packageID string) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	// ListTransactions pages through all transactions, newest first, for
	// the admin surface.
	ListTransactions(ctx context.Context, offset, limit int) ([]*model.Transaction, error)
}

type paymentUC struct {
	transactions repository.TransactionRepository
	packages     repository.PackageRepository
	accounts     AccountUseCase
	vouchers     VoucherUseCase
	gateway      adapter.MobileMoneyGateway
	notify       NotificationUseCase
	locker       Locker
	allowDummy   bool
	log          *zerolog.Logger
}

func NewPaymentUseCase(
	transactions repository.TransactionRepository,
	packages repository.PackageRepository,
	accounts AccountUseCase,
	vouchers VoucherUseCase,
	gateway adapter.MobileMoneyGateway,
	notify NotificationUseCase,
	locker Locker,
	allowDummy bool,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		transactions: transactions,
		packages:     packages,
		accounts:     accounts,
		vouchers:     vouchers,
		gateway:      gateway,
		notify:       notify,
		locker:       locker,
		allowDummy:   allowDummy,
		log:          &l,
	}
}

// newPaymentReference returns a sortable correlation reference sent to the
// provider, e.g. WIFI-01J8ZC3P4Q....
func newPaymentReference() string {
	return "WIFI-" + ulid.Make().String()
}

func (u *paymentUC) CreateIntent(ctx context.Context, email, packageID string) (*PaymentIntent, error) {
	pkg, err := u.activePackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	methods := []PaymentMethod{
		{Method: "mpesa", Name: "M-Pesa", Description: "Pay with M-Pesa mobile money", PhoneRequired: true},
	}
	if u.allowDummy {
		methods = append(methods, PaymentMethod{
			Method: "dummy", Name: "Test Payment (Demo)",
			Description: "Simulate successful payment for testing",
		})
	}
	return &PaymentIntent{
		Reference:   newPaymentReference(),
		PackageID:   pkg.ID,
		AmountCents: pkg.PriceCents,
		Currency:    pkg.Currency,
		Methods:     methods,
	}, nil
}

func (u *paymentUC) InitiateMpesa(ctx context.Context, email, phone, packageID string) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.InitiateMpesa")()

	pkg, err := u.activePackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	acc, err := u.accounts.RegisterOrFetch(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	reference := newPaymentReference()
	desc := fmt.Sprintf("Wi-Fi Voucher - %d minutes", pkg.DurationMinutes)
	push, err := u.gateway.Push(ctx, phone, pkg.PriceCents, reference, desc)
	if err != nil {
		metrics.IncPayment("push_failed")
		return nil, fmt.Errorf("mpesa push: %w", err)
	}

	t, err := model.NewTransaction("", reference, pkg.PriceCents, pkg.Currency, "mpesa", &pkg.ID)
	if err != nil {
		return nil, err
	}
	t.AccountID = &acc.ID
	t.Metadata = map[string]interface{}{
		"checkout_request_id": push.ProviderID,
		"merchant_request_id": push.MerchantID,
		"phone":               phone,
	}
	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	metrics.IncPayment("pending")
	u.log.Info().Str("transaction_id", t.ID).Str("checkout_request_id", push.ProviderID).Msg("stk push initiated")
	return t, nil
}

func (u *paymentUC) ConfirmMpesa(ctx context.Context, checkoutRequestID string, resultCode int, resultDesc string, receipt string) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ConfirmMpesa")()

	// Daraja retries callbacks; a short lock keyed on the checkout id keeps
	// concurrent deliveries from double-processing. Voucher state itself is
	// still protected by the store, this only avoids wasted work.
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "payment:cb:"+checkoutRequestID, 30*time.Second)
		if err != nil {
			return nil, domain.ErrLockHeld
		}
		defer func() { _ = u.locker.Unlock(ctx, "payment:cb:"+checkoutRequestID, token) }()
	}

	t, err := u.transactions.FindByProviderID(ctx, repository.NoTX, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	if t.Terminal() {
		return t, nil // duplicate callback
	}

	if resultCode != 0 {
		if err := u.transactions.UpdateStatus(ctx, repository.NoTX, t.ID, model.TransactionStatusFailed, nil, nil); err != nil {
			return nil, err
		}
		t.Status = model.TransactionStatusFailed
		metrics.IncPayment("failed")
		u.log.Warn().Str("transaction_id", t.ID).Int("result_code", resultCode).Str("result_desc", resultDesc).Msg("mpesa payment failed")
		u.notify.AlertOps(ctx, "Payment failed", fmt.Sprintf("Transaction %s failed: %s", t.ID, resultDesc))
		return t, nil
	}

	if receipt != "" {
		if t.Metadata == nil {
			t.Metadata = map[string]interface{}{}
		}
		t.Metadata["mpesa_receipt"] = receipt
		if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
			u.log.Warn().Err(err).Str("transaction_id", t.ID).Msg("failed to record mpesa receipt")
		}
	}
	return u.complete(ctx, t)
}

func (u *paymentUC) ProcessDummy(ctx context.Context, email, packageID string) (*model.Transaction, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.ProcessDummy")()

	if !u.allowDummy {
		return nil, domain.ErrInvalidArgument
	}
	pkg, err := u.activePackage(ctx, packageID)
	if err != nil {
		return nil, err
	}
	acc, err := u.accounts.RegisterOrFetch(ctx, email, "")
	if err != nil {
		return nil, err
	}

	t, err := model.NewTransaction("", newPaymentReference(), pkg.PriceCents, pkg.Currency, "dummy", &pkg.ID)
	if err != nil {
		return nil, err
	}
	t.AccountID = &acc.ID
	t.Metadata = map[string]interface{}{"simulated": true}
	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	return u.complete(ctx, t)
}

func (u *paymentUC) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return u.transactions.FindByID(ctx, repository.NoTX, id)
}

func (u *paymentUC) ListTransactions(ctx context.Context, offset, limit int) ([]*model.Transaction, error) {
	return u.transactions.List(ctx, repository.NoTX, offset, limit)
}

// complete finalizes a confirmed payment: issue the voucher first, then
// flip the transaction, so a crash in between leaves a pending transaction
// an operator can reconcile rather than a paid account with nothing.
func (u *paymentUC) complete(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	if t.AccountID == nil || t.PackageID == nil {
		return nil, domain.ErrInvalidArgument
	}
	pkg, err := u.packages.FindByID(ctx, repository.NoTX, *t.PackageID)
	if err != nil {
		return nil, err
	}
	v, err := u.vouchers.Issue(ctx, *t.AccountID, pkg.DurationMinutes, pkg.DataCapMB, &pkg.ID)
	if err != nil {
		return nil, fmt.Errorf("issue voucher for payment %s: %w", t.ID, err)
	}
	if err := u.transactions.UpdateStatus(ctx, repository.NoTX, t.ID, model.TransactionStatusCompleted, t.AccountID, &v.ID); err != nil {
		return nil, err
	}
	t.Status = model.TransactionStatusCompleted
	t.VoucherID = &v.ID

	metrics.IncPayment("completed")
	metrics.AddPaymentRevenue(t.Currency, t.AmountCents)
	u.log.Info().Str("transaction_id", t.ID).Str("voucher_id", v.ID).Msg("payment completed, voucher issued")

	if acc, err := u.accounts.GetByID(ctx, *t.AccountID); err == nil {
		u.notify.SendVoucherCode(ctx, acc.Email, v.Code, v.DurationMinutes)
	}
	return t, nil
}

func (u *paymentUC) activePackage(ctx context.Context, packageID string) (*model.Package, error) {
	pkg, err := u.packages.FindByID(ctx, repository.NoTX, packageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, domain.ErrNotFound
	}
	return pkg, nil
}
