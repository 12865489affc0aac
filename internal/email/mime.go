package email

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Render writes e as a multipart MIME document with sender in the From
// header. Bcc recipients are never rendered; they travel in the envelope.
func (e *Email) Render(sender string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: e.FromName, Address: sender}})
	if len(e.To) > 0 {
		h.SetAddressList("To", AddressList(e.To))
	}
	if len(e.Cc) > 0 {
		h.SetAddressList("Cc", AddressList(e.Cc))
	}
	if e.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Address: e.ReplyTo}})
	}
	h.SetSubject(e.Subject)
	if e.MessageID != "" {
		h.Set("Message-Id", e.MessageID)
	}
	for k, v := range e.Headers {
		h.Set(k, v)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	if e.TextBody != "" || e.HtmlBody != "" {
		tw, err := mw.CreateInline()
		if err != nil {
			return nil, fmt.Errorf("failed to create body part: %w", err)
		}
		if e.TextBody != "" {
			if err := writeInline(tw, "text/plain", e.TextBody); err != nil {
				return nil, err
			}
		}
		if e.HtmlBody != "" {
			if err := writeInline(tw, "text/html", e.HtmlBody); err != nil {
				return nil, err
			}
		}
		if err := tw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close body part: %w", err)
		}
	}

	for _, att := range e.Attachments {
		var ah mail.AttachmentHeader
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ah.Set("Content-Type", contentType)
		ah.Set("Content-Transfer-Encoding", "base64")
		if att.Inline() {
			ah.SetContentDisposition("inline", map[string]string{"filename": att.Filename})
			ah.Set("Content-Id", "<"+att.ContentID+">")
		} else {
			ah.SetFilename(att.Filename)
		}

		w, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		if _, err := w.Write(att.Content); err != nil {
			return nil, fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to close attachment part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInline(tw *mail.InlineWriter, contentType, body string) error {
	var th mail.InlineHeader
	th.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	th.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := tw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

// AddressList parses each entry as an RFC 5322 address, keeping entries that
// do not parse as bare addresses.
func AddressList(addrs []string) []*mail.Address {
	out := make([]*mail.Address, 0, len(addrs))
	for _, a := range addrs {
		if parsed, err := mail.ParseAddress(a); err == nil {
			out = append(out, parsed)
			continue
		}
		out = append(out, &mail.Address{Address: a})
	}
	return out
}
