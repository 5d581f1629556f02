package handraise

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers e-mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger Logger
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: defLogger{},
	}
}

func (m *ResendMailer) WithLogger(logger Logger) *ResendMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *ResendMailer) Send(ctx context.Context, msg MailMessage) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "resend send failed").
			WithMetadata(map[string]any{"to": msg.To})
	}

	m.logger.Debug("mail dispatched", "id", sent.Id, "to", msg.To)
	return nil
}

var _ Mailer = (*ResendMailer)(nil)
