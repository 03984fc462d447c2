// Package smtp provides a mailer.Sender that delivers through an SMTP relay.
package smtp

import (
	"context"
	"errors"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/dmitrymomot/outreach/pkg/mailer"
)

// ErrMissingHost is returned by New when no relay host is configured.
var ErrMissingHost = errors.New("smtp: host is required")

// Sender implements mailer.Sender over SMTP.
type Sender struct {
	client *mail.Client
	config Config
}

// New creates an SMTP sender. No connection is made until the first Send.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, ErrMissingHost
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client: %w", err)
	}

	return &Sender{client: client, config: cfg}, nil
}

// Send implements mailer.Sender. The returned id is the generated Message-ID header.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	msg, err := s.message(email)
	if err != nil {
		return "", err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp: failed to send email: %w", err)
	}

	return msg.GetMessageID(), nil
}

func (s *Sender) message(email *mailer.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()

	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("smtp: invalid sender %q: %w", from, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp: invalid reply-to %q: %w", email.ReplyTo, err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetMessageID()
	for k, v := range email.Headers {
		msg.SetGenHeader(mail.Header(k), v)
	}

	switch {
	case email.Text != "" && email.HTML != "":
		msg.SetBodyString(mail.TypeTextPlain, email.Text)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	case email.HTML != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.Text)
	}

	return msg, nil
}

func tlsPolicy(v string) mail.TLSPolicy {
	switch v {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}
