// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
	"github.com/dadyutenga/voucher/internal/infra/metrics"
	"github.com/dadyutenga/voucher/internal/infra/worker"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase delivers voucher codes and ops alerts. Every send is
// best-effort: deliveries run on the worker pool so request paths never
// block on SMTP, and failures are logged, never propagated.
type NotificationUseCase interface {
	SendVoucherCode(ctx context.Context, email, code string, durationMinutes int)
	SendDemoVoucher(ctx context.Context, email, code string, durationMinutes int)
	AlertOps(ctx context.Context, subject, body string)
}

type notificationUC struct {
	subscriber adapter.Notifier // e-mail to the voucher owner
	ops        adapter.Notifier // alert channel for operators, may be nil
	pool       *worker.Pool
	log        *zerolog.Logger
}

func NewNotificationUseCase(subscriber, ops adapter.Notifier, pool *worker.Pool, logger *zerolog.Logger) *notificationUC {
	l := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{subscriber: subscriber, ops: ops, pool: pool, log: &l}
}

func (n *notificationUC) SendVoucherCode(ctx context.Context, email, code string, durationMinutes int) {
	subject := "Your Wi-Fi Voucher"
	body := fmt.Sprintf(
		"Hello,\n\nYour Wi-Fi voucher code is: %s\n\nIt grants %s of access, starting the first time you use it.\n\nEnter this code on the Wi-Fi splash page to get online.",
		code, humanDuration(durationMinutes))
	n.dispatch(n.subscriber, email, subject, body)
}

func (n *notificationUC) SendDemoVoucher(ctx context.Context, email, code string, durationMinutes int) {
	subject := "Your Demo Wi-Fi Voucher"
	body := fmt.Sprintf(
		"Hello,\n\nYour demo Wi-Fi voucher code is: %s\n\nIt is valid for %d minutes.\n\nUse this code on the Wi-Fi splash page to get internet access.",
		code, durationMinutes)
	n.dispatch(n.subscriber, email, subject, body)
}

func (n *notificationUC) AlertOps(ctx context.Context, subject, body string) {
	if n.ops == nil {
		return
	}
	n.dispatch(n.ops, "", subject, body)
}

func (n *notificationUC) dispatch(via adapter.Notifier, recipient, subject, body string) {
	if via == nil {
		return
	}
	err := n.pool.Submit(func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := via.Send(sendCtx, recipient, subject, body); err != nil {
			metrics.IncNotification(via.Name(), false)
			n.log.Warn().Err(err).Str("channel", via.Name()).Msg("notification delivery failed")
			return nil // best-effort; do not let the pool re-log it
		}
		metrics.IncNotification(via.Name(), true)
		return nil
	})
	if err != nil {
		n.log.Warn().Err(err).Str("channel", via.Name()).Msg("notification dropped, queue saturated")
	}
}

func humanDuration(minutes int) string {
	d := time.Duration(minutes) * time.Minute
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", minutes)
}
