package notify

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// SMTPConfig is read from the SMTP_* environment variables.
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string // envelope sender; display name comes from the invoice
}

// SMTPConfigFromEnv returns the SMTP configuration, or ok=false when SMTP_HOST
// is unset and email should be disabled.
func SMTPConfigFromEnv() (SMTPConfig, bool) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return SMTPConfig{}, false
	}
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return SMTPConfig{
		Host:      host,
		Port:      port,
		Username:  os.Getenv("SMTP_USERNAME"),
		Password:  os.Getenv("SMTP_PASSWORD"),
		FromEmail: os.Getenv("SMTP_FROM"),
	}, true
}

type smtpNotifier struct {
	cfg SMTPConfig
	log zerolog.Logger
}

// NewSMTPNotifier builds a Notifier that delivers over SMTP. A fresh client is
// dialed per send; invoice email volume does not warrant a held connection.
func NewSMTPNotifier(cfg SMTPConfig, log zerolog.Logger) Notifier {
	return &smtpNotifier{cfg: cfg, log: log}
}

func (n *smtpNotifier) SendInvoiceEmail(ctx context.Context, kind Kind, to string, data TemplateData) error {
	body, err := RenderBody(kind, data)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(data.SenderName, n.cfg.FromEmail); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", n.cfg.FromEmail, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	msg.Subject(Subject(kind, data))
	msg.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{mail.WithPort(n.cfg.Port)}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to build SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", kind, to, err)
	}
	n.log.Info().Str("kind", string(kind)).Str("to", to).Int("invoice_number", data.InvoiceNumber).Msg("invoice email sent")
	return nil
}

type logNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier is the no-SMTP fallback: it logs what would have been sent.
func NewLogNotifier(log zerolog.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) SendInvoiceEmail(_ context.Context, kind Kind, to string, data TemplateData) error {
	n.log.Info().
		Str("kind", string(kind)).
		Str("to", to).
		Int("invoice_number", data.InvoiceNumber).
		Str("amount", data.Amount).
		Msg("email delivery disabled; logging instead")
	return nil
}
