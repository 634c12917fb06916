package mail

import (
	"context"
	"log"
)

// consoleMailer logs messages instead of delivering them; the default
// backend for development.
type consoleMailer struct{}

func NewConsole() Mailer {
	return consoleMailer{}
}

func (consoleMailer) Send(_ context.Context, to, subject, text, _ string) error {
	log.Printf("mail to=%s subject=%q\n%s", to, subject, text)
	return nil
}
