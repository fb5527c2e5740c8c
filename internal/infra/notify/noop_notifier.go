package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs messages instead of delivering them. Used in dev
// deployments without SMTP, and as the ops channel when no Telegram token
// is configured.
type NoopNotifier struct {
	channel string
	log     *zerolog.Logger
}

func NewNoopNotifier(channel string, logger *zerolog.Logger) *NoopNotifier {
	l := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{channel: channel, log: &l}
}

func (n *NoopNotifier) Name() string { return n.channel }

func (n *NoopNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info().
		Str("channel", n.channel).
		Str("recipient", recipient).
		Str("subject", subject).
		Msg(body)
	return nil
}
