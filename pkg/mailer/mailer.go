package mailer

import (
	"context"
	"errors"
)

// Mailer provides high-level email sending with template rendering.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a new Mailer with the given sender and renderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
	}
}

// SendParams contains parameters for sending a templated email.
type SendParams struct {
	To       string            // Single recipient
	Template string            // Template code (e.g., "R1s")
	Data     map[string]string // Merge values

	// Optional overrides
	Subject string            // Override template subject
	From    string            // Override default sender
	ReplyTo string            // Reply-to address, defaults to config
	Headers map[string]string // Custom headers
	Tags    Tags              // Provider tags
}

// Send renders a template and sends an email.
// Returns the provider message identifier.
func (m *Mailer) Send(ctx context.Context, params SendParams) (string, error) {
	if params.To == "" {
		return "", ErrNoRecipient
	}

	msg, err := m.renderer.Render(params.Template, params.Data)
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}

	subject := msg.Subject
	if params.Subject != "" {
		subject = params.Subject
	}

	replyTo := params.ReplyTo
	if replyTo == "" {
		replyTo = m.config.ReplyTo
	}

	return m.SendRaw(ctx, &Email{
		To:      []string{params.To},
		Subject: subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		From:    params.From,
		ReplyTo: replyTo,
		Headers: params.Headers,
		Tags:    params.Tags,
	})
}

// SendRaw sends a pre-built email without template rendering.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrNoRecipient
	}
	if email.Subject == "" {
		return "", ErrNoSubject
	}
	if email.HTML == "" {
		return "", ErrNoContent
	}

	id, err := m.sender.Send(ctx, email)
	if err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}

	return id, nil
}

// Renderer returns the renderer used by the mailer.
func (m *Mailer) Renderer() *Renderer {
	return m.renderer
}
