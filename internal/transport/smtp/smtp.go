// Package smtp implements a Transport that relays email to an SMTP server.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/prspace/mailjet-transport/internal/email"
	"github.com/prspace/mailjet-transport/internal/transport"
)

// Name is the driver name the SMTP transport is registered under.
const Name = "smtp"

const defaultTimeout = 30 * time.Second

// Encryption selects how the connection to the relay is secured.
type Encryption string

const (
	// EncryptionNone sends in plain text.
	EncryptionNone Encryption = ""
	// EncryptionSTARTTLS upgrades a plain connection and fails if the
	// server does not offer STARTTLS.
	EncryptionSTARTTLS Encryption = "starttls"
	// EncryptionTLS dials with implicit TLS (SMTPS).
	EncryptionTLS Encryption = "tls"
)

var (
	// ErrNoSender indicates neither the message nor the transport has a
	// From address.
	ErrNoSender = errors.New("smtp: no sender address")

	// ErrNoRecipients indicates the message has no To, Cc or Bcc address.
	ErrNoRecipients = errors.New("smtp: no recipients")
)

// Config holds the configuration for creating a Transport.
type Config struct {
	Host       string
	Port       string
	Username   string
	Password   string
	Encryption Encryption
	Timeout    time.Duration
	From       string
	FromName   string

	// TLSConfig is used for STARTTLS and implicit TLS. When nil a
	// configuration verifying Host against the system roots is used.
	TLSConfig *tls.Config
}

// Transport delivers each message over its own SMTP connection.
type Transport struct {
	addr       string
	username   string
	password   string
	encryption Encryption
	timeout    time.Duration
	from       string
	fromName   string
	tlsConfig  *tls.Config
}

// New creates a Transport with the given configuration.
func New(cfg Config) *Transport {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort(cfg.Encryption)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.TLSConfig == nil {
		cfg.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	return &Transport{
		addr:       net.JoinHostPort(cfg.Host, cfg.Port),
		username:   cfg.Username,
		password:   cfg.Password,
		encryption: cfg.Encryption,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		fromName:   cfg.FromName,
		tlsConfig:  cfg.TLSConfig,
	}
}

// Factory builds an SMTP transport from the "services.smtp" section
// (host, port, username, password, encryption, ca_file,
// insecure_skip_verify, timeout, from, from_name).
func Factory(cfg transport.Config) (transport.Transport, error) {
	encryption := Encryption(strings.ToLower(cfg.Get("encryption")))
	switch encryption {
	case EncryptionNone, EncryptionSTARTTLS, EncryptionTLS:
	case "none":
		encryption = EncryptionNone
	default:
		return nil, fmt.Errorf("smtp: unsupported encryption %q", cfg.Get("encryption"))
	}

	var timeout time.Duration
	if raw := cfg.Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("smtp: invalid timeout %q: %w", raw, err)
		}
		timeout = d
	}

	host := cfg.Get("host")
	if host == "" {
		host = "localhost"
	}

	tlsConfig, err := loadTLSConfig(host, cfg.Get("ca_file"), cfg.Bool("insecure_skip_verify"))
	if err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}

	return New(Config{
		Host:       host,
		Port:       cfg.Get("port"),
		Username:   cfg.Get("username"),
		Password:   cfg.Get("password"),
		Encryption: encryption,
		Timeout:    timeout,
		From:       cfg.Get("from"),
		FromName:   cfg.Get("from_name"),
		TLSConfig:  tlsConfig,
	}), nil
}

// Name returns the driver name.
func (t *Transport) Name() string {
	return Name
}

// Addr returns the host:port the transport relays to.
func (t *Transport) Addr() string {
	return t.addr
}

// Send renders msg and relays it in a single SMTP session. Cancelling ctx
// aborts the session.
func (t *Transport) Send(ctx context.Context, msg *email.Email) error {
	sender := msg.From
	if sender == "" {
		sender = t.from
	}
	if sender == "" {
		return ErrNoSender
	}

	rcpts := msg.Recipients()
	if len(rcpts) == 0 {
		return ErrNoRecipients
	}

	if msg.FromName == "" && msg.From == "" {
		cp := *msg
		cp.FromName = t.fromName
		msg = &cp
	}

	raw, err := msg.Render(sender)
	if err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return t.ctxErr(ctx, fmt.Errorf("smtp: dial %s: %w", t.addr, err))
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := t.newClient(conn)
	if err != nil {
		conn.Close()
		return t.ctxErr(ctx, fmt.Errorf("smtp: handshake: %w", err))
	}
	defer c.Close()

	if t.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.username, t.password)); err != nil {
			return t.ctxErr(ctx, fmt.Errorf("smtp: auth: %w", err))
		}
	}

	if err := c.SendMail(sender, rcpts, bytes.NewReader(raw)); err != nil {
		slog.Warn("smtp relay rejected message",
			"addr", t.addr,
			"recipients", len(rcpts),
			"error", err,
		)
		return t.ctxErr(ctx, fmt.Errorf("smtp: send: %w", err))
	}

	if err := c.Quit(); err != nil {
		slog.Debug("smtp quit failed", "addr", t.addr, "error", err)
	}
	return nil
}

func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.timeout}

	var (
		conn net.Conn
		err  error
	)
	if t.encryption == EncryptionTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: t.tlsConfig}).DialContext(ctx, "tcp", t.addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", t.addr)
	}
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (t *Transport) newClient(conn net.Conn) (*gosmtp.Client, error) {
	if t.encryption == EncryptionSTARTTLS {
		return gosmtp.NewClientStartTLS(conn, t.tlsConfig)
	}
	return gosmtp.NewClient(conn), nil
}

// ctxErr prefers the context error when ctx ended the session.
func (t *Transport) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

func defaultPort(enc Encryption) string {
	switch enc {
	case EncryptionTLS:
		return "465"
	case EncryptionSTARTTLS:
		return "587"
	default:
		return "25"
	}
}
