// Package resend implements a Transport backed by the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the Resend transport is registered under.
const Name = "resend"

// EmailsAPI is the subset of the Resend emails service used by Transport.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Transport implements transport.Transport using the Resend API.
type Transport struct {
	emails EmailsAPI
	from   string
}

// New creates a new Resend transport. from is used when a message has no sender.
func New(apiKey, from string) *Transport {
	return &Transport{
		emails: resend.NewClient(apiKey).Emails,
		from:   from,
	}
}

// NewWithClient creates a Transport with a custom emails service, used for testing.
func NewWithClient(emails EmailsAPI, from string) *Transport {
	return &Transport{emails: emails, from: from}
}

// Factory builds a Resend transport from the "services.resend" section (key, from).
func Factory(cfg transport.Config) (transport.Transport, error) {
	return New(cfg.Get("key"), cfg.Get("from")), nil
}

// Name returns the driver name.
func (s *Transport) Name() string {
	return Name
}

// Send implements transport.Transport.
func (s *Transport) Send(ctx context.Context, msg *email.Email) error {
	req := &resend.SendEmailRequest{
		From:    s.sender(msg),
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HtmlBody,
		Text:    msg.TextBody,
		ReplyTo: msg.ReplyTo,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Headers: msg.Headers,
	}

	if len(msg.Attachments) > 0 {
		req.Attachments = make([]*resend.Attachment, len(msg.Attachments))
		for i, a := range msg.Attachments {
			req.Attachments[i] = &resend.Attachment{
				Filename:    a.Filename,
				Content:     a.Content,
				ContentType: a.ContentType,
				ContentId:   a.ContentID,
			}
		}
	}

	if _, err := s.emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

func (s *Transport) sender(msg *email.Email) string {
	if msg.From == "" {
		return s.from
	}
	if msg.FromName != "" {
		return fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	return msg.From
}
