// Package mailer delivers exports as email attachments through MailerSend.
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/mailersend/mailersend-go"
)

// XLSXContentType is the MIME type of the export attachment
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Attachment is a file sent along with a message
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a plain-text email with attachments
type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	Text        string
	Attachments []Attachment
}

// Sender sends messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// MailerSend sends messages through the MailerSend API
type MailerSend struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewMailerSend creates a MailerSend sender using the given API key and sender identity
func NewMailerSend(apiKey, fromEmail, fromName string, logger *slog.Logger) *MailerSend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailerSend{
		client:    mailersend.NewMailersend(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// Send implements Sender
func (m *MailerSend) Send(ctx context.Context, msg *Message) error {
	message := m.buildMessage(msg)

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailersend: %w", err)
	}

	var messageID string
	if res != nil && res.Response != nil {
		messageID = res.Header.Get("X-Message-Id")
	}

	m.logger.InfoContext(ctx, "email accepted by mailersend",
		"recipient", msg.ToEmail,
		"message_id", messageID,
		"attachments", len(msg.Attachments))

	return nil
}

func (m *MailerSend) buildMessage(msg *Message) *mailersend.Message {
	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Name:  m.fromName,
		Email: m.fromEmail,
	})
	message.SetReplyTo(mailersend.ReplyTo{
		Name:  m.fromName,
		Email: m.fromEmail,
	})
	message.SetRecipients([]mailersend.Recipient{
		{
			Name:  msg.ToName,
			Email: msg.ToEmail,
		},
	})
	message.SetSubject(msg.Subject)
	message.SetText(msg.Text)

	for _, a := range msg.Attachments {
		message.AddAttachment(mailersend.Attachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}
	return message
}
