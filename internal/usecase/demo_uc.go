// File: internal/usecase/demo_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain"
	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/infra/logging"
	red "github.com/dadyutenga/voucher/internal/infra/redis"
)

// Compile-time check
var _ DemoUseCase = (*demoUC)(nil)

// RateAllower is the fixed-window rate limit capability demo issuance uses.
type RateAllower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// DemoUseCase hands out short free vouchers so visitors can try the network
// before paying. Issuance is rate limited per e-mail.
type DemoUseCase interface {
	Request(ctx context.Context, email string) (*model.Voucher, error)
}

type demoUC struct {
	accounts AccountUseCase
	vouchers VoucherUseCase
	notify   NotificationUseCase
	limiter  RateAllower

	durationMinutes int
	rateLimit       int
	rateWindow      time.Duration
	log             *zerolog.Logger
}

func NewDemoUseCase(
	accounts AccountUseCase,
	vouchers VoucherUseCase,
	notify NotificationUseCase,
	limiter RateAllower,
	durationMinutes, rateLimit int,
	rateWindow time.Duration,
	logger *zerolog.Logger,
) *demoUC {
	if durationMinutes <= 0 {
		durationMinutes = 15
	}
	if rateLimit <= 0 {
		rateLimit = 1
	}
	if rateWindow <= 0 {
		rateWindow = 24 * time.Hour
	}
	l := logger.With().Str("component", "DemoUC").Logger()
	return &demoUC{
		accounts:        accounts,
		vouchers:        vouchers,
		notify:          notify,
		limiter:         limiter,
		durationMinutes: durationMinutes,
		rateLimit:       rateLimit,
		rateWindow:      rateWindow,
		log:             &l,
	}
}

func (u *demoUC) Request(ctx context.Context, email string) (*model.Voucher, error) {
	defer logging.TraceDuration(u.log, "DemoUC.Request")()

	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, red.DemoVoucherKey(email), u.rateLimit, u.rateWindow)
		if err != nil {
			// Redis down must not take demo issuance with it.
			u.log.Warn().Err(err).Msg("demo rate limiter unavailable, allowing")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	acc, err := u.accounts.RegisterOrFetch(ctx, email, "")
	if err != nil {
		return nil, err
	}
	v, err := u.vouchers.Issue(ctx, acc.ID, u.durationMinutes, nil, nil)
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("account_id", acc.ID).Str("voucher_id", v.ID).Msg("demo voucher issued")
	u.notify.SendDemoVoucher(ctx, acc.Email, v.Code, v.DurationMinutes)
	return v, nil
}
