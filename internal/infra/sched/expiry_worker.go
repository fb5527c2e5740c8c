package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/usecase"
)

// ExpiryWorker periodically sweeps activated vouchers whose window has
// elapsed. Redemption also expires lazily; the sweep keeps listings and
// stats honest for vouchers nobody touches again.
type ExpiryWorker struct {
	interval  time.Duration
	voucherUC usecase.VoucherUseCase
	log       *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, voucherUC usecase.VoucherUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryWorker{
		interval:  interval,
		voucherUC: voucherUC,
		log:       &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.voucherUC.ExpireDue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("elapsed vouchers expired")
			}
		}
	}
}
