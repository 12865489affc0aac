// Package mailjet implements a Transport that delivers email through the
// Mailjet Send API v3.1.
package mailjet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mailjet/mailjet-apiv3-go/v4"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the Mailjet transport is registered under.
const Name = "mailjet"

// statusSuccess is the per-message status Mailjet reports for accepted mail.
const statusSuccess = "success"

// ErrNotDelivered indicates Mailjet answered the request but did not
// report the message as accepted.
var ErrNotDelivered = errors.New("mailjet: message not accepted")

// SendMailV31API is the subset of the Mailjet client used by Transport.
// Used for testing with mock implementations.
type SendMailV31API interface {
	SendMailV31(data *mailjet.MessagesV31, options ...mailjet.RequestOptions) (*mailjet.ResultsV31, error)
}

// Transport sends email messages via the Mailjet API.
type Transport struct {
	key      string
	secret   string
	baseURL  string
	from     string
	fromName string
	sandbox  bool
	client   SendMailV31API
}

// Option configures a Transport.
type Option func(*Transport)

// WithBaseURL points the client at a different API endpoint. The client
// appends ".1/send" to a "/v3" base, so "/v3" is added when url lacks it:
// "https://api.eu.example.com" and "https://api.eu.example.com/v3" are
// equivalent.
func WithBaseURL(url string) Option {
	return func(t *Transport) {
		t.baseURL = normalizeBaseURL(url)
	}
}

// WithSender sets the sender used when a message carries no From address.
func WithSender(address, name string) Option {
	return func(t *Transport) {
		t.from = address
		t.fromName = name
	}
}

// WithSandbox enables Mailjet sandbox mode: requests are validated but no
// mail is delivered.
func WithSandbox(enabled bool) Option {
	return func(t *Transport) {
		t.sandbox = enabled
	}
}

// WithClient replaces the Mailjet client, used for testing.
func WithClient(client SendMailV31API) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// New creates a Transport bound to the given API key and secret. The
// credentials are not validated; Mailjet rejects bad credentials on Send.
func New(key, secret string, opts ...Option) *Transport {
	t := &Transport{
		key:    key,
		secret: secret,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		if t.baseURL != "" {
			t.client = mailjet.NewMailjetClient(key, secret, t.baseURL)
		} else {
			t.client = mailjet.NewMailjetClient(key, secret)
		}
	}

	return t
}

// Factory builds a Mailjet transport from the "services.mailjet" section.
// Absent "key" or "secret" resolve to empty strings; construction never fails.
func Factory(cfg transport.Config) (transport.Transport, error) {
	if !cfg.Has("key") || !cfg.Has("secret") {
		slog.Warn("mailjet credentials incomplete, sends will be rejected",
			"key_set", cfg.Has("key"),
			"secret_set", cfg.Has("secret"),
		)
	}

	return New(cfg.Get("key"), cfg.Get("secret"),
		WithBaseURL(cfg.Get("base_url")),
		WithSender(cfg.Get("from"), cfg.Get("from_name")),
		WithSandbox(cfg.Bool("sandbox")),
	), nil
}

// Key returns the API key the transport was built with.
func (t *Transport) Key() string {
	return t.key
}

// Secret returns the API secret the transport was built with.
func (t *Transport) Secret() string {
	return t.secret
}

// Name returns the driver name.
func (t *Transport) Name() string {
	return Name
}

// Send delivers an email message via the Mailjet Send API v3.1.
func (t *Transport) Send(ctx context.Context, msg *email.Email) error {
	req := t.buildMessages(msg)

	res, err := t.client.SendMailV31(req, mailjet.WithContext(ctx))
	if err != nil {
		slog.Warn("mailjet API error",
			"custom_id", req.Info[0].CustomID,
			"error", err,
		)
		return fmt.Errorf("mailjet: send: %w", err)
	}

	if res == nil || len(res.ResultsV31) == 0 {
		return fmt.Errorf("%w: empty response", ErrNotDelivered)
	}
	for _, r := range res.ResultsV31 {
		if r.Status != statusSuccess {
			return fmt.Errorf("%w: status %q", ErrNotDelivered, r.Status)
		}
	}

	slog.Debug("mailjet message accepted",
		"custom_id", req.Info[0].CustomID,
		"recipients", len(msg.Recipients()),
	)
	return nil
}

// buildMessages converts an email.Email into a single-message v3.1 request.
func (t *Transport) buildMessages(msg *email.Email) *mailjet.MessagesV31 {
	from, fromName := msg.From, msg.FromName
	if from == "" {
		from, fromName = t.from, t.fromName
	}

	info := mailjet.InfoMessagesV31{
		From: &mailjet.RecipientV31{
			Email: from,
			Name:  fromName,
		},
		Subject:  msg.Subject,
		TextPart: msg.TextBody,
		HTMLPart: msg.HtmlBody,
		CustomID: customID(msg),
	}

	if msg.ReplyTo != "" {
		info.ReplyTo = &mailjet.RecipientV31{Email: msg.ReplyTo}
	}
	if to := recipients(msg.To); to != nil {
		info.To = to
	}
	if cc := recipients(msg.Cc); cc != nil {
		info.Cc = cc
	}
	if bcc := recipients(msg.Bcc); bcc != nil {
		info.Bcc = bcc
	}

	if len(msg.Headers) > 0 {
		info.Headers = make(map[string]interface{}, len(msg.Headers))
		for k, v := range msg.Headers {
			info.Headers[k] = v
		}
	}

	var attachments mailjet.AttachmentsV31
	var inlined mailjet.InlinedAttachmentsV31
	for _, att := range msg.Attachments {
		a := mailjet.AttachmentV31{
			ContentType:   contentType(att),
			Filename:      att.Filename,
			Base64Content: base64.StdEncoding.EncodeToString(att.Content),
		}
		if att.Inline() {
			inlined = append(inlined, mailjet.InlinedAttachmentV31{
				AttachmentV31: a,
				ContentID:     att.ContentID,
			})
			continue
		}
		attachments = append(attachments, a)
	}
	if len(attachments) > 0 {
		info.Attachments = &attachments
	}
	if len(inlined) > 0 {
		info.InlinedAttachments = &inlined
	}

	return &mailjet.MessagesV31{
		Info:        []mailjet.InfoMessagesV31{info},
		SandBoxMode: t.sandbox,
	}
}

func recipients(addrs []string) *mailjet.RecipientsV31 {
	if len(addrs) == 0 {
		return nil
	}
	out := make(mailjet.RecipientsV31, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, mailjet.RecipientV31{Email: addr})
	}
	return &out
}

func customID(msg *email.Email) string {
	if msg.MessageID != "" {
		return msg.MessageID
	}
	return uuid.NewString()
}

func contentType(att email.Attachment) string {
	if att.ContentType == "" {
		return "application/octet-stream"
	}
	return att.ContentType
}

// apiVersionPath is the path segment the client expects at the end of its
// base URL.
const apiVersionPath = "/v3"

func normalizeBaseURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" || strings.HasSuffix(url, apiVersionPath) {
		return url
	}
	return url + apiVersionPath
}
