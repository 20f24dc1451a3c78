// Package mail delivers notification e-mail over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

const sendTimeout = 15 * time.Second

var ErrInvalidEmail = errors.New("invalid email payload")

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPNotifier implements ports.Notifier.
type SMTPNotifier struct {
	client   *gomail.Client
	validate *validator.Validate
	log      zerolog.Logger
}

// NewNotifier returns a NopNotifier when no SMTP host is configured.
func NewNotifier(cfg Config, log zerolog.Logger) (ports.Notifier, error) {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, notifications disabled")
		return NopNotifier{log: log}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPNotifier{client: client, validate: validator.New(), log: log}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, email domain.Email) error {
	msg, err := buildMessage(n.validate, email)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	n.log.Debug().Strs("to", email.To).Str("subject", email.Subject).Msg("email sent")
	return nil
}

func buildMessage(v *validator.Validate, email domain.Email) (*gomail.Msg, error) {
	if email.Subject == "" || email.HTML == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidEmail)
	}
	if err := v.Var(email.From, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: from %q", ErrInvalidEmail, email.From)
	}
	if err := v.Var(email.To, "required,min=1,dive,email"); err != nil {
		return nil, fmt.Errorf("%w: to %v", ErrInvalidEmail, email.To)
	}

	msg := gomail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, email.HTML)
	return msg, nil
}

// NopNotifier drops every message.
type NopNotifier struct {
	log zerolog.Logger
}

func (n NopNotifier) Send(_ context.Context, email domain.Email) error {
	n.log.Debug().Str("subject", email.Subject).Msg("notification dropped, SMTP disabled")
	return nil
}
