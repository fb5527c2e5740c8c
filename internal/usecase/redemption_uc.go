// File: internal/usecase/redemption_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/logging"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
)

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

// RedemptionOutcome is the structured answer the splash page renders. The
// core never lets a storage or gateway error escape unmapped; unknown errors
// become a generic retry message and are logged with full detail.
type RedemptionOutcome struct {
	Success        bool
	Message        string
	Retryable      bool
	SessionSeconds int
}

// RedemptionUseCase composes the voucher lifecycle with the access-point
// controller to implement "use my voucher to get online" end to end.
type RedemptionUseCase interface {
	Redeem(ctx context.Context, code, email, clientID string) *RedemptionOutcome

	// Logout revokes the device's controller session, best-effort.
	Logout(ctx context.Context, clientID string) error
}

type redemptionUC struct {
	accounts   repository.AccountRepository
	vouchers   VoucherUseCase
	controller adapter.NetworkAccessController
	minSession int // seconds; floor for grants from nearly-expired vouchers
	log        *zerolog.Logger
	now        func() time.Time
}

func NewRedemptionUseCase(accounts repository.AccountRepository, vouchers VoucherUseCase, controller adapter.NetworkAccessController, minSessionSeconds int, logger *zerolog.Logger) *redemptionUC {
	if minSessionSeconds <= 0 {
		minSessionSeconds = 60
	}
	l := logger.With().Str("component", "RedemptionUC").Logger()
	return &redemptionUC{
		accounts:   accounts,
		vouchers:   vouchers,
		controller: controller,
		minSession: minSessionSeconds,
		log:        &l,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const (
	msgAccountNotFound  = "Account not found. Please check your email address."
	msgVoucherNotFound  = "Invalid voucher code for this email address."
	msgVoucherUsed      = "Voucher is used. Please purchase a new voucher."
	msgVoucherExpired   = "Voucher has expired. Please purchase a new voucher."
	msgVoucherContended = "Voucher is no longer available. It may already be in use."
	msgBadClientID      = "Could not identify your device. Please reconnect to the Wi-Fi network and try again."
	msgTryAgain         = "Something went wrong. Please try again in a moment."
)

// Redeem runs the redemption algorithm. Ordering is deliberate: the voucher
// is validated and its window started before the controller is contacted,
// and the voucher is marked used only after the controller confirmed the
// grant, so a crash in between leaves it active and retryable.
func (u *redemptionUC) Redeem(ctx context.Context, code, email, clientID string) *RedemptionOutcome {
	defer logging.TraceDuration(u.log, "RedemptionUC.Redeem")()
	log := logging.With(ctx, u.log)

	// Reject malformed hardware addresses before touching any state; a bad
	// client identifier must not start a voucher's clock.
	mac, err := model.CanonicalMAC(clientID)
	if err != nil {
		metrics.IncRedemption("invalid_client")
		return &RedemptionOutcome{Success: false, Message: msgBadClientID}
	}

	acc, err := u.accounts.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncRedemption("account_not_found")
			return &RedemptionOutcome{Success: false, Message: msgAccountNotFound}
		}
		log.Error().Err(err).Msg("account lookup failed")
		metrics.IncRedemption("error")
		return &RedemptionOutcome{Success: false, Message: msgTryAgain, Retryable: true}
	}

	v, outcome := u.activate(ctx, code, acc.ID)
	if outcome != nil {
		return outcome
	}

	remaining := v.RemainingSeconds(u.now())
	if remaining < u.minSession {
		remaining = u.minSession
	}

	// The grant call is detached from caller cancellation: once issued it
	// runs to completion or its own timeout, so an impatient client cannot
	// leave the controller in an ambiguous state.
	grantCtx := context.WithoutCancel(ctx)
	res, err := u.controller.Grant(grantCtx, mac, remaining)
	if err != nil {
		log.Error().Err(err).Str("client_mac", mac).Msg("grant call failed locally")
		metrics.IncRedemption("error")
		return &RedemptionOutcome{Success: false, Message: msgTryAgain, Retryable: true}
	}

	switch res.Status {
	case adapter.GrantGranted:
		if err := u.vouchers.MarkUsed(ctx, v.ID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrConcurrentModification) {
				metrics.IncRedemption("contended")
				return &RedemptionOutcome{Success: false, Message: msgVoucherContended}
			}
			// Access was granted but we could not record it; surface
			// success anyway and leave the voucher for the expiry sweep.
			log.Error().Err(err).Str("voucher_id", v.ID).Msg("mark-used failed after confirmed grant")
		}
		session := res.SessionSeconds
		if session == 0 {
			session = remaining
		}
		log.Info().Str("voucher_id", v.ID).Str("client_mac", mac).Int("session_seconds", session).Msg("redemption granted")
		metrics.IncRedemption("granted")
		metrics.ObserveSessionSeconds(session)
		u.touchAccount(ctx, acc)
		return &RedemptionOutcome{Success: true, Message: "Login successful! You now have internet access.", SessionSeconds: session}

	case adapter.GrantRejected:
		log.Warn().Str("voucher_id", v.ID).Str("client_mac", mac).Str("reason", res.Reason).Msg("controller rejected grant")
		metrics.IncRedemption("rejected")
		return &RedemptionOutcome{Success: false, Message: "The network refused the connection for this device. Contact support if this persists."}

	case adapter.GrantUnavailable:
		log.Warn().Str("voucher_id", v.ID).Str("client_mac", mac).Str("reason", res.Reason).Msg("controller unavailable")
		metrics.IncRedemption("unavailable")
		return &RedemptionOutcome{Success: false, Message: "The network is temporarily unavailable. Your voucher is untouched; please try again.", Retryable: true}
	}

	log.Error().Str("status", string(res.Status)).Msg("unknown grant status")
	metrics.IncRedemption("error")
	return &RedemptionOutcome{Success: false, Message: msgTryAgain, Retryable: true}
}

// activate calls ActivateAndReserve and maps its error set to outcomes. A
// lost optimistic race is re-evaluated once inside the lifecycle engine; if
// it still reports contention another redemption owns the voucher, and
// proceeding to the controller would risk a double grant.
func (u *redemptionUC) activate(ctx context.Context, code, accountID string) (*model.Voucher, *RedemptionOutcome) {
	v, err := u.vouchers.ActivateAndReserve(ctx, code, accountID)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncRedemption("code_not_found")
		return nil, &RedemptionOutcome{Success: false, Message: msgVoucherNotFound}
	case errors.Is(err, domain.ErrVoucherUsed):
		metrics.IncRedemption("already_used")
		return nil, &RedemptionOutcome{Success: false, Message: msgVoucherUsed}
	case errors.Is(err, domain.ErrVoucherExpired):
		metrics.IncRedemption("expired")
		return nil, &RedemptionOutcome{Success: false, Message: msgVoucherExpired}
	case errors.Is(err, domain.ErrConcurrentModification):
		metrics.IncRedemption("contended")
		return nil, &RedemptionOutcome{Success: false, Message: msgVoucherContended}
	default:
		logging.With(ctx, u.log).Error().Err(err).Msg("activate-and-reserve failed")
		metrics.IncRedemption("error")
		return nil, &RedemptionOutcome{Success: false, Message: msgTryAgain, Retryable: true}
	}
}

func (u *redemptionUC) Logout(ctx context.Context, clientID string) error {
	mac, err := model.CanonicalMAC(clientID)
	if err != nil {
		return err
	}
	if err := u.controller.Revoke(context.WithoutCancel(ctx), mac); err != nil {
		u.log.Warn().Err(err).Str("client_mac", mac).Msg("session revoke failed")
		return err
	}
	return nil
}

func (u *redemptionUC) touchAccount(ctx context.Context, acc *model.Account) {
	acc.Touch()
	if err := u.accounts.Save(ctx, repository.NoTX, acc); err != nil {
		u.log.Warn().Err(err).Str("account_id", acc.ID).Msg("failed to record last login")
	}
}
