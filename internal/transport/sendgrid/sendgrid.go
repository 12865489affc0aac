// Package sendgrid implements a Transport backed by the SendGrid v3 mail API.
package sendgrid

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the SendGrid transport is registered under.
const Name = "sendgrid"

// Error is a non-2xx answer from the SendGrid API.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sendgrid: API error (status %d): %s", e.StatusCode, e.Body)
}

// SendAPI is the subset of the SendGrid client used by Transport.
type SendAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Transport delivers messages through SendGrid.
type Transport struct {
	client SendAPI
	from   string
}

// New creates a SendGrid transport for apiKey. from is used when a message has no sender.
func New(apiKey, from string) *Transport {
	return &Transport{client: sendgrid.NewSendClient(apiKey), from: from}
}

// NewWithClient creates a Transport with a custom client, used for testing.
func NewWithClient(client SendAPI, from string) *Transport {
	return &Transport{client: client, from: from}
}

// Factory builds a SendGrid transport from the "services.sendgrid" section (key, from).
func Factory(cfg transport.Config) (transport.Transport, error) {
	return New(cfg.Get("key"), cfg.Get("from")), nil
}

// Name returns the driver name.
func (s *Transport) Name() string {
	return Name
}

// Send delivers msg via the SendGrid v3 API.
func (s *Transport) Send(ctx context.Context, msg *email.Email) error {
	response, err := s.client.SendWithContext(ctx, s.buildMessage(msg))
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}

	// 2xx means SendGrid queued the message
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &Error{StatusCode: response.StatusCode, Body: response.Body}
	}
	return nil
}

func (s *Transport) buildMessage(msg *email.Email) *mail.SGMailV3 {
	from, fromName := msg.From, msg.FromName
	if from == "" {
		from, fromName = s.from, ""
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(fromName, from))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, addr := range msg.To {
		personalization.AddTos(mail.NewEmail("", addr))
	}
	for _, addr := range msg.Cc {
		personalization.AddCCs(mail.NewEmail("", addr))
	}
	for _, addr := range msg.Bcc {
		personalization.AddBCCs(mail.NewEmail("", addr))
	}
	message.AddPersonalizations(personalization)

	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	for k, v := range msg.Headers {
		message.SetHeader(k, v)
	}

	// SendGrid requires text/plain before text/html
	if msg.TextBody != "" {
		message.AddContent(mail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HtmlBody != "" {
		message.AddContent(mail.NewContent("text/html", msg.HtmlBody))
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		a.SetType(contentType)
		a.SetFilename(att.Filename)
		if att.Inline() {
			a.SetDisposition("inline")
			a.SetContentID(att.ContentID)
		} else {
			a.SetDisposition("attachment")
		}
		message.AddAttachment(a)
	}

	return message
}
