package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// Message is an outbound transactional email.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Notifier delivers transactional email. Delivery is fire-and-forget from
// the caller's point of view: a failed send never rolls back the operation
// that triggered it, but callers must log the error.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the settings for the SMTP notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPNotifier sends mail through a plain-auth SMTP relay.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger Logger
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier builds an SMTP-backed Notifier.
func NewSMTPNotifier(cfg SMTPConfig, logger Logger) *SMTPNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sender address")
	}
	if err := m.To(msg.To...); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid recipient address")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver email")
	}

	return nil
}

// LogNotifier writes messages to the logger instead of delivering them.
// Used in development and tests.
type LogNotifier struct {
	logger Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier builds a log-only Notifier.
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("outbound email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
