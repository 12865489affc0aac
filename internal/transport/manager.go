package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/prspace/mailjet-transport/internal/email"
)

// DefaultDriver is the driver resolved when no name is given and no other
// default has been configured.
const DefaultDriver = "mailjet"

// Manager resolves driver names to transports. Drivers are registered with
// Extend; each driver receives its own configuration section from the
// injected Source when it is built.
//
// A Manager is safe for concurrent use.
type Manager struct {
	mu            sync.RWMutex
	source        Source
	factories     map[string]Factory
	transports    map[string]Transport
	defaultDriver string

	// generations counts invalidations per name; epoch counts Purge calls.
	// Driver caches a built transport only if neither moved during Create.
	generations map[string]uint64
	epoch       uint64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDefaultDriver sets the driver used by Driver("") and Send.
func WithDefaultDriver(name string) ManagerOption {
	return func(m *Manager) {
		if name != "" {
			m.defaultDriver = name
		}
	}
}

// NewManager creates a Manager reading driver configuration from src.
// A nil src behaves as if every section were empty.
func NewManager(src Source, opts ...ManagerOption) *Manager {
	if src == nil {
		src = StaticSource(nil)
	}

	m := &Manager{
		source:        src,
		factories:     make(map[string]Factory),
		transports:    make(map[string]Transport),
		defaultDriver: DefaultDriver,
		generations:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Extend registers f under name, replacing any previous registration.
// A cached transport for name is dropped so the next Driver call uses f.
func (m *Manager) Extend(name string, f Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.factories[name] = f
	m.invalidate(name)
}

// DefaultDriverName returns the name resolved by Driver("").
func (m *Manager) DefaultDriverName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultDriver
}

// Drivers returns the registered driver names in sorted order.
func (m *Manager) Drivers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.factories))
	for name := range m.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds a new transport for name. Every call returns a fresh
// instance; nothing is cached.
func (m *Manager) Create(name string) (Transport, error) {
	name = m.resolveName(name)

	m.mu.RLock()
	f, ok := m.factories[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
	}

	t, err := f(m.source.Section(name))
	if err != nil {
		return nil, fmt.Errorf("transport: create %q: %w", name, err)
	}
	if t == nil {
		return nil, fmt.Errorf("transport: create %q: %w", name, ErrNilTransport)
	}

	slog.Debug("mail transport created", "driver", name)
	return t, nil
}

// Driver returns the transport for name, building it on first use and
// reusing it afterwards. An empty name resolves to the default driver.
func (m *Manager) Driver(name string) (Transport, error) {
	name = m.resolveName(name)

	m.mu.RLock()
	t, ok := m.transports[name]
	gen, epoch := m.generations[name], m.epoch
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	created, err := m.Create(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Extend, Forget or Purge ran while building: the instance may come
	// from a replaced factory or stale configuration, so hand it out once
	// without caching it.
	if m.generations[name] != gen || m.epoch != epoch {
		return created, nil
	}
	// Another goroutine may have won the race; keep its instance.
	if existing, ok := m.transports[name]; ok {
		return existing, nil
	}
	m.transports[name] = created
	return created, nil
}

// Forget drops the cached transport for name so the next Driver call
// rebuilds it from the current configuration.
func (m *Manager) Forget(name string) {
	name = m.resolveName(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidate(name)
}

// Purge drops every cached transport.
func (m *Manager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transports = make(map[string]Transport)
	m.epoch++
}

// invalidate drops the cached transport for name. Callers hold m.mu.
func (m *Manager) invalidate(name string) {
	delete(m.transports, name)
	m.generations[name]++
}

// Send delivers msg through the default driver.
func (m *Manager) Send(ctx context.Context, msg *email.Email) error {
	t, err := m.Driver("")
	if err != nil {
		return err
	}
	return t.Send(ctx, msg)
}

func (m *Manager) resolveName(name string) string {
	if name != "" {
		return name
	}
	return m.DefaultDriverName()
}
