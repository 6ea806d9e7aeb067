package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/codecache/codecache/internal/model"
)

// SendGridMailer sends invitation emails through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey  string
	from    string
	baseURL string
	logger  *slog.Logger
}

// NewSendGridMailer creates a mailer sending from the given address.
// baseURL is embedded in the accept link inside the email body.
func NewSendGridMailer(apiKey, from, baseURL string, logger *slog.Logger) *SendGridMailer {
	return &SendGridMailer{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		logger:  logger,
	}
}

var _ Mailer = (*SendGridMailer)(nil)

// SendInvitation sends the invitation email. Non-2xx SendGrid responses
// are returned as errors for the caller to log.
func (m *SendGridMailer) SendInvitation(_ context.Context, inv *model.Invitation, snippetTitle string) error {
	if m.apiKey == "" {
		return fmt.Errorf("mail: sendgrid api key is empty")
	}

	from := sgmail.NewEmail("CodeCache", m.from)
	to := sgmail.NewEmail("", inv.InviteeEmail)

	body := invitationBody(inv, snippetTitle, m.baseURL)
	message := sgmail.NewSingleEmail(
		from,
		invitationSubject(snippetTitle),
		to,
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid send failed: status=%d body=%s",
			response.StatusCode, response.Body)
	}

	m.logger.Info("invitation email sent",
		slog.Int("status", response.StatusCode),
		slog.String("to", inv.InviteeEmail),
		slog.String("invitationID", inv.ID),
	)

	return nil
}
