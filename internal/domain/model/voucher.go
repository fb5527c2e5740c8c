package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dadyutenga/voucher/internal/domain"
)

type VoucherStatus string

const (
	VoucherStatusActive  VoucherStatus = "active"  // issued, usable, clock may not have started
	VoucherStatusUsed    VoucherStatus = "used"    // redeemed; access granted
	VoucherStatusExpired VoucherStatus = "expired" // window elapsed or force-expired
)

// Voucher is the central entity: a single redeemable code granting bounded
// Wi-Fi access. Status moves along active→used or active→expired and never
// leaves a terminal state. Code and DurationMinutes are immutable after
// creation; ExpiresAt is nil until the first redemption attempt starts the
// activation window.
type Voucher struct {
	ID              string
	Code            string
	AccountID       *string // nil until associated with an account
	PackageID       *string // nil for ad-hoc vouchers
	DurationMinutes int
	DataCapMB       *int // advisory only; never metered
	Status          VoucherStatus
	CreatedAt       time.Time
	ExpiresAt       *time.Time // nil until activated
	UsedAt          *time.Time // nil until marked used
}

// NewVoucher constructs an issued voucher in the initial state.
func NewVoucher(id, code string, accountID *string, durationMinutes int, dataCapMB *int, packageID *string) (*Voucher, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if code == "" || durationMinutes <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if dataCapMB != nil && *dataCapMB <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Voucher{
		ID:              id,
		Code:            code,
		AccountID:       accountID,
		PackageID:       packageID,
		DurationMinutes: durationMinutes,
		DataCapMB:       dataCapMB,
		Status:          VoucherStatusActive,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func (v *Voucher) IsZero() bool { return v == nil || v.ID == "" }

// Activated reports whether the activation window has started.
func (v *Voucher) Activated() bool { return v.ExpiresAt != nil }

// WindowElapsed reports whether the activation window has started and passed.
func (v *Voucher) WindowElapsed(now time.Time) bool {
	return v.ExpiresAt != nil && now.After(*v.ExpiresAt)
}

// RemainingMinutes returns whole minutes left in the window, floored at zero.
// Returns nil when the window has not started yet.
func (v *Voucher) RemainingMinutes(now time.Time) *int {
	if v.ExpiresAt == nil {
		return nil
	}
	rem := int(v.ExpiresAt.Sub(now).Minutes())
	if rem < 0 {
		rem = 0
	}
	return &rem
}

// RemainingSeconds returns seconds left in the window, floored at zero.
// When the window has not started it returns the full fixed duration.
func (v *Voucher) RemainingSeconds(now time.Time) int {
	if v.ExpiresAt == nil {
		return v.DurationMinutes * 60
	}
	rem := int(v.ExpiresAt.Sub(now).Seconds())
	if rem < 0 {
		rem = 0
	}
	return rem
}

// CanTransitionTo enforces the closed state machine.
func (v *Voucher) CanTransitionTo(next VoucherStatus) bool {
	if v.Status != VoucherStatusActive {
		return false
	}
	return next == VoucherStatusUsed || next == VoucherStatusExpired
}
