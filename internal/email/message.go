// Package email defines the composed message handed to a mail transport.
package email

// Email is a fully composed outgoing message.
type Email struct {
	From        string
	FromName    string
	ReplyTo     string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	TextBody    string
	HtmlBody    string
	Attachments []Attachment
	Headers     map[string]string
	MessageID   string
}

// Attachment is a file carried by a message. A non-empty ContentID marks
// the attachment as inline (referenced from the HTML body via cid:).
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Content     []byte
}

// Inline reports whether the attachment is referenced from the body.
func (a Attachment) Inline() bool {
	return a.ContentID != ""
}

// Recipients returns every envelope recipient: To, then Cc, then Bcc.
func (e *Email) Recipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}
