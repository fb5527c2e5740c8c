package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dadyutenga/voucher/internal/config"
	"github.com/dadyutenga/voucher/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*EmailNotifier)(nil)

// EmailNotifier delivers voucher codes over plain SMTP. Delivery runs on
// the notification worker pool, never on a request path.
type EmailNotifier struct {
	addr   string
	auth   smtp.Auth
	sender string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailNotifier{
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:   auth,
		sender: cfg.Sender,
		send:   smtp.SendMail,
	}
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.sender)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	if err := n.send(n.addr, n.auth, n.sender, []string{recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}
