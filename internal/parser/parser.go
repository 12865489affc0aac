// Package parser turns a raw RFC 5322 message into an email.Email ready to be
// handed to a transport.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/prspace/mailjet-transport/internal/email"
)

// Parse parses a raw message. Nested multiparts are walked depth first; the
// first text/plain and text/html inline parts become the bodies and every
// other part becomes an attachment. X- headers are carried over.
func Parse(raw []byte) (*email.Email, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if err != nil {
		slog.Warn("unknown charset in message header", "error", err)
	}
	defer mr.Close()

	result := &email.Email{}
	readHeader(&mr.Header, result)

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}
		if part == nil {
			continue
		}

		if err := readPart(part, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func readHeader(h *mail.Header, result *email.Email) {
	if from := addresses(h, "From"); len(from) > 0 {
		result.From = from[0].Address
		result.FromName = from[0].Name
	}
	if replyTo := addresses(h, "Reply-To"); len(replyTo) > 0 {
		result.ReplyTo = replyTo[0].Address
	}
	result.To = addressStrings(addresses(h, "To"))
	result.Cc = addressStrings(addresses(h, "Cc"))
	result.Bcc = addressStrings(addresses(h, "Bcc"))

	subject, err := h.Subject()
	if err != nil {
		slog.Warn("failed to decode subject", "error", err)
		subject = h.Get("Subject")
	}
	result.Subject = subject
	result.MessageID = strings.TrimSpace(h.Get("Message-Id"))

	fields := h.Fields()
	for fields.Next() {
		key := fields.Key()
		if !strings.HasPrefix(strings.ToLower(key), "x-") {
			continue
		}
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		result.Headers[key] = value
	}
}

func readPart(part *mail.Part, result *email.Email) error {
	content, err := io.ReadAll(part.Body)
	if err != nil {
		return fmt.Errorf("failed to read part content: %w", err)
	}

	switch h := part.Header.(type) {
	case *mail.InlineHeader:
		mediaType, params, err := h.ContentType()
		if err != nil {
			mediaType = "text/plain"
		}
		switch {
		case mediaType == "text/plain" && result.TextBody == "":
			result.TextBody = string(content)
			return nil
		case mediaType == "text/html" && result.HtmlBody == "":
			result.HtmlBody = string(content)
			return nil
		}
		result.Attachments = append(result.Attachments, email.Attachment{
			Filename:    fallbackFilename(params["name"], mediaType),
			ContentType: mediaType,
			ContentID:   contentID(h.Get("Content-Id")),
			Content:     content,
		})
	case *mail.AttachmentHeader:
		mediaType, params, err := h.ContentType()
		if err != nil {
			mediaType = "application/octet-stream"
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			filename = params["name"]
		}
		result.Attachments = append(result.Attachments, email.Attachment{
			Filename:    fallbackFilename(filename, mediaType),
			ContentType: mediaType,
			ContentID:   contentID(h.Get("Content-Id")),
			Content:     content,
		})
	default:
		slog.Warn("unrecognized MIME part, skipping")
	}
	return nil
}

// fallbackFilename names unnamed parts after their media subtype, since
// some providers reject attachments without a name.
func fallbackFilename(name, mediaType string) string {
	if name != "" {
		return name
	}
	if _, sub, ok := strings.Cut(mediaType, "/"); ok && sub != "" {
		return "attachment." + sub
	}
	return "attachment"
}

func contentID(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<")
	return strings.TrimSuffix(raw, ">")
}

func addresses(h *mail.Header, key string) []*mail.Address {
	list, err := h.AddressList(key)
	if err != nil {
		slog.Warn("failed to parse address list", "header", key, "error", err)
		return splitAddresses(h.Get(key))
	}
	return list
}

// splitAddresses is the fallback for headers that are not valid RFC 5322
// address lists.
func splitAddresses(raw string) []*mail.Address {
	var out []*mail.Address
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, &mail.Address{Address: trimmed})
		}
	}
	return out
}

func addressStrings(list []*mail.Address) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}
