package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain/model"
	"github.com/dadyutenga/voucher/internal/domain/ports/repository"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
	"github.com/dadyutenga/voucher/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending transactions and
// fails them. An STK prompt the payer never answered stays pending forever
// otherwise; the provider would have delivered its callback long before
// staleAfter.
type PaymentReconciler struct {
	transactions repository.TransactionRepository
	notify       usecase.NotificationUseCase
	interval     time.Duration // how often to scan
	staleAfter   time.Duration // how old a pending transaction must be to fail
	log          *zerolog.Logger
}

func NewPaymentReconciler(transactions repository.TransactionRepository, notify usecase.NotificationUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		transactions: transactions,
		notify:       notify,
		interval:     interval,
		staleAfter:   staleAfter,
		log:          &l,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.staleAfter)
	pending, err := w.transactions.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending transactions")
		return
	}
	for _, t := range pending {
		if err := w.transactions.UpdateStatus(ctx, repository.NoTX, t.ID, model.TransactionStatusFailed, nil, nil); err != nil {
			w.log.Error().Err(err).Str("transaction_id", t.ID).Msg("fail stale transaction")
			continue
		}
		metrics.IncPayment("abandoned")
		w.log.Warn().Str("transaction_id", t.ID).Str("reference", t.Reference).Msg("stale pending transaction failed")
	}
	if len(pending) > 0 && w.notify != nil {
		w.notify.AlertOps(ctx, "Stale payments reconciled",
			fmt.Sprintf("%d pending transactions older than %s were marked failed", len(pending), w.staleAfter))
	}
}
