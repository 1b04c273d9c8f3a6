package notification

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/rmedeiros-eng/scse/internal"
)

// Notifier delivers one rendered message to one recipient.
type Notifier interface {
	Send(subject, body, recipient string) error
}

// SMTPNotifier sends through the configured SMTP relay.
type SMTPNotifier struct {
	cfg    internal.MailerConfig
	dialer *gomail.Dialer
}

func NewSMTPNotifier(cfg internal.MailerConfig) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return &SMTPNotifier{cfg: cfg, dialer: dialer}
}

func (n *SMTPNotifier) Send(subject, body, recipient string) error {
	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)

	msg.SetAddressHeader("From", n.cfg.From, n.cfg.FromName)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// Dispatcher wraps a Notifier in its own error boundary. Delivery runs in
// a goroutine and failures are logged, never propagated: a broken relay
// must not turn a successful state transition into a reported failure.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
}

func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger}
}

func (d *Dispatcher) Dispatch(subject, body, recipient string) {
	if d.notifier == nil || recipient == "" {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notifier panicked", "recover", r)
			}
		}()

		if err := d.notifier.Send(subject, body, recipient); err != nil {
			d.logger.Warn("notification delivery failed",
				"recipient", recipient,
				"subject", subject,
				"error", err)
			return
		}

		d.logger.Info("notification delivered", "recipient", recipient, "subject", subject)
	}()
}
