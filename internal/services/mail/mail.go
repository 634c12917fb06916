package mail

import (
	"context"
	"os"
)

// Mailer delivers one message to one recipient. Implementations are
// best-effort transports; callers treat failures as isolated per
// recipient and never let them abort an enclosing batch.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// NewFromEnv picks the backend: SendGrid when SENDGRID_API_KEY is set,
// console logging otherwise.
func NewFromEnv() Mailer {
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		return NewSendGrid(key, os.Getenv("MAIL_FROM_NAME"), os.Getenv("MAIL_FROM_EMAIL"))
	}
	return NewConsole()
}
