package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParsePlainTextEmail(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: Sender Name <sender@example.com>",
		"Reply-To: support@example.com",
		"To: recipient@example.com",
		"Subject: Test Subject",
		"Message-Id: <test123@example.com>",
		"Content-Type: text/plain",
		"",
		"Hello, this is a plain text email.",
	))
	require.NoError(t, err)

	assert.Equal(t, "sender@example.com", msg.From)
	assert.Equal(t, "Sender Name", msg.FromName)
	assert.Equal(t, "support@example.com", msg.ReplyTo)
	assert.Equal(t, []string{"recipient@example.com"}, msg.To)
	assert.Equal(t, "Test Subject", msg.Subject)
	assert.Equal(t, "<test123@example.com>", msg.MessageID)
	assert.Equal(t, "Hello, this is a plain text email.", msg.TextBody)
	assert.Empty(t, msg.HtmlBody)
	assert.Empty(t, msg.Attachments)
}

func TestParseMultipartTextAndHTML(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: alice@example.com, bob@example.com",
		"Cc: carol@example.com",
		"Subject: Multipart Test",
		"Content-Type: multipart/alternative; boundary=boundary123",
		"",
		"--boundary123",
		"Content-Type: text/plain",
		"",
		"Plain text body",
		"--boundary123",
		"Content-Type: text/html",
		"",
		"<html><body><p>HTML body</p></body></html>",
		"--boundary123--",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, msg.To)
	assert.Equal(t, []string{"carol@example.com"}, msg.Cc)
	assert.Equal(t, "Plain text body", msg.TextBody)
	assert.Equal(t, "<html><body><p>HTML body</p></body></html>", msg.HtmlBody)
}

func TestParseEmailWithAttachments(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: With Attachment",
		"Content-Type: multipart/mixed; boundary=mixedboundary",
		"",
		"--mixedboundary",
		"Content-Type: text/plain",
		"",
		"Email body text",
		"--mixedboundary",
		"Content-Type: application/pdf; name=\"report.pdf\"",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--mixedboundary--",
	))
	require.NoError(t, err)

	assert.Equal(t, "Email body text", msg.TextBody)
	require.Len(t, msg.Attachments, 1)

	att := msg.Attachments[0]
	assert.Equal(t, "report.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, "Hello World", string(att.Content))
	assert.False(t, att.Inline())
}

func TestParseInlineImage(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: Inline",
		"Content-Type: multipart/related; boundary=rel",
		"",
		"--rel",
		"Content-Type: text/html",
		"",
		"<img src=\"cid:logo\">",
		"--rel",
		"Content-Type: image/png; name=\"logo.png\"",
		"Content-Disposition: inline",
		"Content-Id: <logo>",
		"Content-Transfer-Encoding: base64",
		"",
		"cG5n",
		"--rel--",
	))
	require.NoError(t, err)

	assert.Equal(t, "<img src=\"cid:logo\">", msg.HtmlBody)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "logo.png", msg.Attachments[0].Filename)
	assert.Equal(t, "logo", msg.Attachments[0].ContentID)
	assert.Equal(t, "png", string(msg.Attachments[0].Content))
	assert.True(t, msg.Attachments[0].Inline())
}

func TestParseMalformedHeader(t *testing.T) {
	t.Parallel()

	_, err := Parse(crlf(
		"this header line has no colon",
		"",
		"body",
	))
	require.Error(t, err)
}

func TestParseMissingContentType(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: No Content Type",
		"",
		"Body without content type header",
	))
	require.NoError(t, err)
	assert.Equal(t, "Body without content type header", msg.TextBody)
}

func TestParseMultipleRecipients(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: alice@example.com, bob@example.com, carol@example.com",
		"Bcc: secret@example.com",
		"Subject: Multiple Recipients",
		"Content-Type: text/plain",
		"",
		"Hello everyone",
	))
	require.NoError(t, err)

	assert.Len(t, msg.To, 3)
	assert.Equal(t, []string{"secret@example.com"}, msg.Bcc)
}

func TestParseEmptyAddressFields(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"Subject: No To",
		"Content-Type: text/plain",
		"",
		"Body",
	))
	require.NoError(t, err)

	assert.Nil(t, msg.To)
	assert.Nil(t, msg.Cc)
	assert.Nil(t, msg.Bcc)
	assert.Empty(t, msg.ReplyTo)
}

func TestParseCustomHeaders(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"X-Custom-Header: custom-value",
		"Subject: Headers Test",
		"Content-Type: text/plain",
		"",
		"Body",
	))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"X-Custom-Header": "custom-value"}, msg.Headers)
}

func TestParseEncodedSubject(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: =?UTF-8?B?SMOpbGxv?=",
		"Content-Type: text/plain",
		"",
		"Body",
	))
	require.NoError(t, err)
	assert.Equal(t, "Héllo", msg.Subject)
}

func TestParseBase64AttachmentWithCRLF(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: CRLF Base64",
		"Content-Type: multipart/mixed; boundary=bound",
		"",
		"--bound",
		"Content-Type: text/plain",
		"",
		"body",
		"--bound",
		"Content-Type: application/pdf; name=\"file.pdf\"",
		"Content-Disposition: attachment; filename=\"file.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVs",
		"bG8g",
		"V29y",
		"bGQ=",
		"--bound--",
		"",
	))
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "file.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "Hello World", string(msg.Attachments[0].Content))
}

func TestParseAttachmentWithoutFilename(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: No Filename",
		"Content-Type: multipart/mixed; boundary=bound",
		"",
		"--bound",
		"Content-Type: text/plain",
		"",
		"body",
		"--bound",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--bound--",
	))
	require.NoError(t, err)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "attachment.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "Hello World", string(msg.Attachments[0].Content))
}

func TestParseNestedMultipart(t *testing.T) {
	t.Parallel()

	msg, err := Parse(crlf(
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: Nested Multipart",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain",
		"",
		"Plain text part",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>HTML part</p>",
		"--inner--",
		"--outer",
		"Content-Type: application/octet-stream; name=\"data.bin\"",
		"Content-Disposition: attachment; filename=\"data.bin\"",
		"",
		"binarydata",
		"--outer--",
	))
	require.NoError(t, err)

	assert.Equal(t, "Plain text part", msg.TextBody)
	assert.Equal(t, "<p>HTML part</p>", msg.HtmlBody)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "data.bin", msg.Attachments[0].Filename)
}

func TestFallbackFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		filename  string
		mediaType string
		want      string
	}{
		{"explicit name", "a.txt", "text/plain", "a.txt"},
		{"from subtype", "", "image/jpeg", "attachment.jpeg"},
		{"no subtype", "", "weird", "attachment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fallbackFilename(tt.filename, tt.mediaType))
		})
	}
}
