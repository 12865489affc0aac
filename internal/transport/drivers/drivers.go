// Package drivers registers the built-in mail transports with a Manager.
package drivers

import (
	"github.com/prspace/mailjet-transport/internal/transport"
	"github.com/prspace/mailjet-transport/internal/transport/array"
	"github.com/prspace/mailjet-transport/internal/transport/graph"
	"github.com/prspace/mailjet-transport/internal/transport/mailjet"
	"github.com/prspace/mailjet-transport/internal/transport/resend"
	"github.com/prspace/mailjet-transport/internal/transport/sendgrid"
	"github.com/prspace/mailjet-transport/internal/transport/ses"
	"github.com/prspace/mailjet-transport/internal/transport/smtp"
	"github.com/prspace/mailjet-transport/internal/transport/stdout"
)

// Builtin maps every bundled driver name to its factory.
func Builtin() map[string]transport.Factory {
	return map[string]transport.Factory{
		mailjet.Name:  mailjet.Factory,
		ses.Name:      ses.Factory,
		graph.Name:    graph.Factory,
		resend.Name:   resend.Factory,
		sendgrid.Name: sendgrid.Factory,
		smtp.Name:     smtp.Factory,
		stdout.Name:   stdout.Factory,
		array.Name:    array.Factory,
	}
}

// Register adds every bundled driver to m. Drivers registered on m
// afterwards with the same name replace the bundled ones.
func Register(m *transport.Manager) {
	for name, f := range Builtin() {
		m.Extend(name, f)
	}
}
