// Package transport defines the delivery abstraction used by the mail
// subsystem and the Manager that resolves named drivers to transports.
package transport

import (
	"context"

	"github.com/prspace/mailjet-transport/internal/email"
)

// Transport is the interface that email delivery backends must implement.
// A Transport hands a composed message to a provider (Mailjet, SES, ...)
// and reports whether the provider accepted it.
type Transport interface {
	// Send delivers an email message through this transport.
	// It returns an error if the provider rejects the message.
	Send(ctx context.Context, msg *email.Email) error

	// Name returns the driver name of this transport.
	Name() string
}

// Factory builds a Transport from a driver's configuration section.
// Factories must not perform I/O that depends on the credentials being
// valid; credential problems surface on the first Send.
type Factory func(cfg Config) (Transport, error)
