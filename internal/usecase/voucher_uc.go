// File: internal/usecase/voucher_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/logging"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
)

// Compile-time check
var _ VoucherUseCase = (*voucherUC)(nil)

// ValidationResult is the read-only answer to "is this code good".
// MinutesRemaining is nil while the activation window has not started.
type ValidationResult struct {
	Valid            bool
	Message          string
	MinutesRemaining *int
	DataCapMB        *int
}

// VoucherUseCase owns the voucher state machine: issuance, validation,
// window activation, consumption and expiry. It never talks to the
// access-point controller; that composition lives in RedemptionUseCase.
type VoucherUseCase interface {
	// Issue creates a voucher for an existing account. The account must
	// already exist; callers that accept new subscribers resolve or create
	// the account first.
	Issue(ctx context.Context, accountID string, durationMinutes int, dataCapMB *int, packageID *string) (*model.Voucher, error)

	// Validate checks a code without consuming it. Discovering an elapsed
	// window persists the expired status as a side effect so repeated
	// validations observe a consistent answer.
	Validate(ctx context.Context, code, accountID string) (*ValidationResult, error)

	// ActivateAndReserve is the mutating counterpart used during
	// redemption: same checks as Validate, plus it starts the activation
	// window on first use. It does NOT mark the voucher used.
	ActivateAndReserve(ctx context.Context, code, accountID string) (*model.Voucher, error)

	// MarkUsed finalizes consumption after a confirmed grant. Idempotent
	// when already used; ErrInvalidTransition when expired.
	MarkUsed(ctx context.Context, voucherID string) error

	// ForceExpire is the administrative override for any non-terminal voucher.
	ForceExpire(ctx context.Context, voucherID string) error

	// ExpireDue sweeps active vouchers whose window has elapsed.
	ExpireDue(ctx context.Context) (int, error)

	Get(ctx context.Context, voucherID string) (*model.Voucher, error)
	ListByAccount(ctx context.Context, accountID string) ([]*model.Voucher, error)
	List(ctx context.Context, offset, limit int) ([]*model.Voucher, error)
}

type voucherUC struct {
	vouchers repository.VoucherRepository
	accounts repository.AccountRepository
	log      *zerolog.Logger
	now      func() time.Time // injectable clock for tests
}

func NewVoucherUseCase(vouchers repository.VoucherRepository, accounts repository.AccountRepository, logger *zerolog.Logger) *voucherUC {
	l := logger.With().Str("component", "VoucherUC").Logger()
	return &voucherUC{
		vouchers: vouchers,
		accounts: accounts,
		log:      &l,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// issueMaxAttempts bounds code-collision retries; with a 31-char alphabet and
// 10 positions a collision is already vanishingly rare.
const issueMaxAttempts = 5

func (u *voucherUC) Issue(ctx context.Context, accountID string, durationMinutes int, dataCapMB *int, packageID *string) (*model.Voucher, error) {
	defer logging.TraceDuration(u.log, "VoucherUC.Issue")()

	acc, err := u.accounts.FindByID(ctx, repository.NoTX, accountID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, domain.ErrAccountInactive
	}

	var v *model.Voucher
	for attempt := 0; attempt < issueMaxAttempts; attempt++ {
		code, err := generateVoucherCode()
		if err != nil {
			return nil, err
		}
		v, err = model.NewVoucher("", code, &acc.ID, durationMinutes, dataCapMB, packageID)
		if err != nil {
			return nil, err
		}
		err = u.vouchers.Create(ctx, repository.NoTX, v)
		if err == nil {
			metrics.IncVoucherIssued()
			return v, nil
		}
		if !errors.Is(err, domain.ErrDuplicateCode) {
			return nil, err
		}
		u.log.Warn().Int("attempt", attempt+1).Msg("voucher code collision, regenerating")
	}
	return nil, domain.ErrDuplicateCode
}

func (u *voucherUC) Validate(ctx context.Context, code, accountID string) (*ValidationResult, error) {
	defer logging.TraceDuration(u.log, "VoucherUC.Validate")()

	v, err := u.vouchers.FindByCodeAndAccount(ctx, repository.NoTX, code, accountID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case model.VoucherStatusUsed:
		return &ValidationResult{Valid: false, Message: "Voucher is used. Please purchase a new voucher."}, nil
	case model.VoucherStatusExpired:
		return &ValidationResult{Valid: false, Message: "Voucher is expired. Please purchase a new voucher."}, nil
	}

	now := u.now()
	if v.WindowElapsed(now) {
		if err := u.expireElapsed(ctx, v); err != nil {
			return nil, err
		}
		return &ValidationResult{Valid: false, Message: "Voucher has expired. Please purchase a new voucher."}, nil
	}

	return &ValidationResult{
		Valid:            true,
		Message:          "Voucher is valid.",
		MinutesRemaining: v.RemainingMinutes(now),
		DataCapMB:        v.DataCapMB,
	}, nil
}

func (u *voucherUC) ActivateAndReserve(ctx context.Context, code, accountID string) (*model.Voucher, error) {
	defer logging.TraceDuration(u.log, "VoucherUC.ActivateAndReserve")()

	v, err := u.vouchers.FindByCodeAndAccount(ctx, repository.NoTX, code, accountID)
	if err != nil {
		return nil, err
	}

	switch v.Status {
	case model.VoucherStatusUsed:
		return nil, domain.ErrVoucherUsed
	case model.VoucherStatusExpired:
		return nil, domain.ErrVoucherExpired
	}

	now := u.now()
	if v.WindowElapsed(now) {
		if err := u.expireElapsed(ctx, v); err != nil {
			return nil, err
		}
		return nil, domain.ErrVoucherExpired
	}

	if v.ExpiresAt == nil {
		// First use starts the clock. The conditional update is also the
		// arbitration point between two concurrent redemptions of a fresh
		// voucher: exactly one caller wins the IS NULL precondition.
		expires := now.Add(time.Duration(v.DurationMinutes) * time.Minute)
		err := u.vouchers.SetExpiresAtIfNull(ctx, repository.NoTX, v.ID, expires)
		if errors.Is(err, domain.ErrConcurrentModification) {
			// Lost the race; re-read once and re-evaluate.
			cur, rerr := u.vouchers.FindByID(ctx, repository.NoTX, v.ID)
			if rerr != nil {
				return nil, rerr
			}
			switch cur.Status {
			case model.VoucherStatusUsed:
				return nil, domain.ErrVoucherUsed
			case model.VoucherStatusExpired:
				return nil, domain.ErrVoucherExpired
			}
			// Still active: another redemption of this voucher is in
			// flight and owns the window it just started.
			return nil, domain.ErrConcurrentModification
		}
		if err != nil {
			return nil, err
		}
		v.ExpiresAt = &expires
		u.log.Info().Str("voucher_id", v.ID).Time("expires_at", expires).Msg("activation window started")
	}
	return v, nil
}

func (u *voucherUC) MarkUsed(ctx context.Context, voucherID string) error {
	defer logging.TraceDuration(u.log, "VoucherUC.MarkUsed")()

	v, err := u.vouchers.FindByID(ctx, repository.NoTX, voucherID)
	if err != nil {
		return err
	}
	switch v.Status {
	case model.VoucherStatusUsed:
		return nil // already consumed; retried confirmation is a no-op
	case model.VoucherStatusExpired:
		return domain.ErrInvalidTransition
	}

	usedAt := u.now()
	err = u.vouchers.UpdateStatusIfCurrent(ctx, repository.NoTX, v.ID,
		model.VoucherStatusActive, model.VoucherStatusUsed,
		repository.StatusUpdate{UsedAt: &usedAt})
	if errors.Is(err, domain.ErrConcurrentModification) {
		// Lost a race; re-read to distinguish "someone else confirmed it"
		// from "it expired underneath us".
		cur, rerr := u.vouchers.FindByID(ctx, repository.NoTX, voucherID)
		if rerr != nil {
			return rerr
		}
		if cur.Status == model.VoucherStatusUsed {
			return nil
		}
		return domain.ErrInvalidTransition
	}
	if err == nil {
		metrics.IncVoucherConsumed()
	}
	return err
}

func (u *voucherUC) ForceExpire(ctx context.Context, voucherID string) error {
	defer logging.TraceDuration(u.log, "VoucherUC.ForceExpire")()

	v, err := u.vouchers.FindByID(ctx, repository.NoTX, voucherID)
	if err != nil {
		return err
	}
	switch v.Status {
	case model.VoucherStatusExpired:
		return nil
	case model.VoucherStatusUsed:
		return domain.ErrInvalidTransition
	}
	err = u.vouchers.UpdateStatusIfCurrent(ctx, repository.NoTX, v.ID,
		model.VoucherStatusActive, model.VoucherStatusExpired, repository.StatusUpdate{})
	if errors.Is(err, domain.ErrConcurrentModification) {
		cur, rerr := u.vouchers.FindByID(ctx, repository.NoTX, voucherID)
		if rerr != nil {
			return rerr
		}
		if cur.Status == model.VoucherStatusExpired {
			return nil
		}
		return domain.ErrInvalidTransition
	}
	if err == nil {
		metrics.IncVoucherExpired(1)
	}
	return err
}

func (u *voucherUC) ExpireDue(ctx context.Context) (int, error) {
	n, err := u.vouchers.ExpireDue(ctx, repository.NoTX, u.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.IncVoucherExpired(n)
	}
	return n, nil
}

func (u *voucherUC) Get(ctx context.Context, voucherID string) (*model.Voucher, error) {
	return u.vouchers.FindByID(ctx, repository.NoTX, voucherID)
}

func (u *voucherUC) ListByAccount(ctx context.Context, accountID string) ([]*model.Voucher, error) {
	return u.vouchers.FindByAccount(ctx, repository.NoTX, accountID)
}

func (u *voucherUC) List(ctx context.Context, offset, limit int) ([]*model.Voucher, error) {
	return u.vouchers.List(ctx, repository.NoTX, offset, limit)
}

// expireElapsed persists the active→expired transition discovered during a
// read. A concurrent transition to used/expired is fine; the caller reports
// the voucher unusable either way.
func (u *voucherUC) expireElapsed(ctx context.Context, v *model.Voucher) error {
	err := u.vouchers.UpdateStatusIfCurrent(ctx, repository.NoTX, v.ID,
		model.VoucherStatusActive, model.VoucherStatusExpired, repository.StatusUpdate{})
	if err != nil && !errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}
	if err == nil {
		metrics.IncVoucherExpired(1)
	}
	v.Status = model.VoucherStatusExpired
	return nil
}
