// Package array implements a Transport that keeps sent messages in memory.
// It backs tests and dry runs where nothing may leave the process.
package array

import (
	"context"
	"sync"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the array transport is registered under.
const Name = "array"

// Transport records every message it is asked to send.
// It is safe for concurrent use.
type Transport struct {
	mu       sync.Mutex
	messages []*email.Email
}

// New creates an empty array Transport.
func New() *Transport {
	return &Transport{}
}

// Factory builds an array transport. The section is ignored.
func Factory(transport.Config) (transport.Transport, error) {
	return New(), nil
}

// Name returns the driver name.
func (t *Transport) Name() string {
	return Name
}

// Send stores msg. It fails only when ctx is already done.
func (t *Transport) Send(ctx context.Context, msg *email.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return nil
}

// Messages returns a snapshot of the recorded messages in send order.
func (t *Transport) Messages() []*email.Email {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*email.Email, len(t.messages))
	copy(out, t.messages)
	return out
}

// Flush discards all recorded messages.
func (t *Transport) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
