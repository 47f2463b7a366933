package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/saransh1220/album-market/internal/modules/notification/domain"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends plain notification e-mails through SendGrid.
type SendGridMailer struct {
	client sender
	from   *mail.Email
	logger *slog.Logger
}

func NewSendGridMailer(apiKey, fromEmail, fromName string, logger *slog.Logger) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger.With("component", "sendgrid_mailer"),
	}, nil
}

func (m *SendGridMailer) Send(ctx context.Context, to domain.Recipient, subject, body string) error {
	if to.Email == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		m.from,
		subject,
		mail.NewEmail(to.Name, to.Email),
		body,
		fmt.Sprintf("<p>%s</p>", html.EscapeString(body)),
	)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	m.logger.Info("mail sent", "status", response.StatusCode, "to", to.Email, "subject", subject)
	return nil
}
