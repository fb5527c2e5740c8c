package repository

import (
	"context"
	"time"

	"github.com/dadyutenga/voucher/internal/domain/model"
)

// -----------------------------
// Transactions
// -----------------------------

type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Transaction, error)
	// FindByProviderID looks up a pending transaction by the provider-side
	// correlation id stored in metadata (e.g. Daraja CheckoutRequestID).
	FindByProviderID(ctx context.Context, tx Tx, providerID string) (*model.Transaction, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.TransactionStatus, accountID, voucherID *string) error
	// ListPendingOlderThan returns pending transactions created before
	// cutoff, oldest first, for abandoned-payment cleanup.
	ListPendingOlderThan(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Transaction, error)
	ListByAccount(ctx context.Context, tx Tx, accountID string) ([]*model.Transaction, error)
	// List pages through all transactions, newest first.
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Transaction, error)
	SumCompletedByMethod(ctx context.Context, tx Tx) (map[string]int64, error)
}
