package repository

import (
	"context"
	"time"

	"github.com/dadyutenga/voucher/internal/domain/model"
)

// -----------------------------
// Vouchers
// -----------------------------

// StatusUpdate carries the fields a compare-and-set transition may touch.
// Nil fields are left unchanged.
type StatusUpdate struct {
	ExpiresAt *time.Time
	UsedAt    *time.Time
}

// VoucherRepository is the port for voucher persistence. UpdateStatusIfCurrent
// is the single concurrency-control primitive of the redemption flow: it must
// apply the transition atomically and fail with ErrConcurrentModification when
// the voucher is no longer in the expected status.
type VoucherRepository interface {
	// Create persists a new voucher; fails with ErrDuplicateCode when the
	// code is already taken.
	Create(ctx context.Context, tx Tx, v *model.Voucher) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Voucher, error)
	FindByCodeAndAccount(ctx context.Context, tx Tx, code, accountID string) (*model.Voucher, error)
	FindByAccount(ctx context.Context, tx Tx, accountID string) ([]*model.Voucher, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Voucher, error)

	// UpdateStatusIfCurrent transitions id from expected to next, applying
	// upd in the same statement. Zero affected rows means the precondition
	// no longer held and surfaces as ErrConcurrentModification.
	UpdateStatusIfCurrent(ctx context.Context, tx Tx, id string, expected, next model.VoucherStatus, upd StatusUpdate) error

	// SetExpiresAtIfNull starts the activation window exactly once; a second
	// call is a no-op returning the stored value's success. Returns
	// ErrConcurrentModification when the voucher is no longer active.
	SetExpiresAtIfNull(ctx context.Context, tx Tx, id string, expiresAt time.Time) error

	// ExpireDue marks every active voucher whose window has elapsed as of
	// now; returns the number of vouchers transitioned.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) (int, error)

	CountByStatus(ctx context.Context, tx Tx) (map[string]int, error)
}
