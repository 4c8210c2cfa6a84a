package mail

import (
	"context"
	"fmt"

	"github.com/mailersend/mailersend-go"
)

// MailerSend sends through the MailerSend API.
type MailerSend struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
}

func NewMailerSend(apiKey, fromEmail, fromName string) *MailerSend {
	return &MailerSend{
		client:    mailersend.NewMailersend(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (m *MailerSend) Send(ctx context.Context, msg Message) error {
	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetHTML(msg.HTMLBody)
	message.SetText(msg.TextBody)

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailersend request failed: %w", err)
	}
	if res != nil && res.StatusCode >= 300 {
		return fmt.Errorf("mailersend returned status %d", res.StatusCode)
	}
	return nil
}
