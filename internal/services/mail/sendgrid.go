package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGrid(key, fromName, fromEmail string) Mailer {
	return &sendgridMailer{
		client: sendgrid.NewSendClient(key),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *sendgridMailer) Send(ctx context.Context, to, subject, text, html string) error {
	if html == "" {
		html = text
	}

	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), text, html)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
