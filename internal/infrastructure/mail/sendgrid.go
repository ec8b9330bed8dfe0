package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// Client is the subset of the SendGrid client the mailer needs.
type Client interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers digest batches through the SendGrid v3 API.
type SendGridMailer struct {
	client   Client
	from     *sgmail.Email
	renderer *Renderer
	logger   *slog.Logger
}

var _ ports.Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer builds a mailer on the official client.
func NewSendGridMailer(apiKey, fromName, fromAddress string, renderer *Renderer, logger *slog.Logger) *SendGridMailer {
	return NewSendGridMailerWithClient(sendgrid.NewSendClient(apiKey), fromName, fromAddress, renderer, logger)
}

// NewSendGridMailerWithClient accepts any client, mostly for tests.
func NewSendGridMailerWithClient(client Client, fromName, fromAddress string, renderer *Renderer, logger *slog.Logger) *SendGridMailer {
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	return &SendGridMailer{
		client:   client,
		from:     sgmail.NewEmail(fromName, fromAddress),
		renderer: renderer,
		logger:   logger,
	}
}

// Send renders the batch and mails it to one address.
func (m *SendGridMailer) Send(ctx context.Context, address string, batch []domain.Digest) error {
	if m.client == nil || m.from.Address == "" {
		return fmt.Errorf("sendgrid mailer misconfigured")
	}

	msg, err := m.renderer.Render(batch)
	if err != nil {
		return err
	}

	email := sgmail.NewSingleEmail(m.from, msg.Subject, sgmail.NewEmail("", address), msg.Text, msg.HTML)
	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid request: %v: %w", err, domain.ErrTransient)
	}

	if m.logger != nil {
		m.logger.Debug("sendgrid response", "recipient", address, "status", resp.StatusCode)
	}

	switch {
	case resp.StatusCode < http.StatusBadRequest:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("sendgrid returned %d: %s: %w", resp.StatusCode, resp.Body, domain.ErrTransient)
	default:
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
}
