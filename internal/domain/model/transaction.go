package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dadyutenga/voucher/internal/domain"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // payment initiated at provider
	TransactionStatusCompleted TransactionStatus = "completed" // provider confirmed success
	TransactionStatusFailed    TransactionStatus = "failed"    // provider reported failure/cancel
)

// Transaction is the append-only audit record of a payment event. Status
// progresses pending→completed or pending→failed and records are never
// deleted, even when the owning account is deactivated.
type Transaction struct {
	ID          string
	AccountID   *string // nil until the payer is resolved to an account
	VoucherID   *string // nil until a voucher is issued for this payment
	PackageID   *string
	Reference   string // our correlation reference sent to the provider
	AmountCents int64
	Currency    string
	Method      string // "mpesa" | "dummy"
	Status      TransactionStatus
	Metadata    map[string]interface{} // provider correlation ids, stored as JSONB
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewTransaction(id, reference string, amountCents int64, currency, method string, packageID *string) (*Transaction, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if reference == "" || amountCents <= 0 || currency == "" || method == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:          id,
		Reference:   reference,
		AmountCents: amountCents,
		Currency:    currency,
		Method:      method,
		PackageID:   packageID,
		Status:      TransactionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *Transaction) IsZero() bool { return t == nil || t.ID == "" }

// Terminal reports whether the status can no longer progress.
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}
