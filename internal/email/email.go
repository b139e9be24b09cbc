// Package email sends transactional mail (class invites, welcome notes).
package email

import (
	"net/mail"
	"os"
	"strings"
)

type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

func (m *Message) HasRecipients() bool {
	return len(m.To) > 0
}

func (m *Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// Service delivers messages asynchronously; callers never block on the
// provider and delivery is best-effort.
type Service interface {
	SendMessages(messages ...*Message)
}

// NewServiceFromEnv picks sendgrid when SENDGRID_API_KEY is set, otherwise
// the console logger (dev default).
func NewServiceFromEnv(appName string) Service {
	key := strings.TrimSpace(os.Getenv("SENDGRID_API_KEY"))
	from := strings.TrimSpace(os.Getenv("EMAIL_FROM"))
	if from == "" {
		from = "no-reply@classboard.app"
	}
	if key == "" {
		return NewConsoleService(appName)
	}
	return NewSendgridService(key, appName, from)
}
