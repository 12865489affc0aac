// Package main is the entry point for mailsend, which reads an RFC 5322
// message and delivers it through a configured mail transport.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/prspace/mailjet-transport/internal/config"
	"github.com/prspace/mailjet-transport/internal/parser"
	"github.com/prspace/mailjet-transport/internal/transport"
	"github.com/prspace/mailjet-transport/internal/transport/drivers"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	driverName := flag.String("driver", "", "transport to send with (defaults to mail.driver)")
	filePath := flag.String("file", "", "path to the message to send (defaults to stdin)")
	listDrivers := flag.Bool("list", false, "print the registered drivers and exit")
	flag.Parse()

	// A missing .env is fine; any other failure is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Logging.Level)

	manager := transport.NewManager(cfg, transport.WithDefaultDriver(cfg.Mail.Driver))
	drivers.Register(manager)

	if *listDrivers {
		for _, name := range manager.Drivers() {
			fmt.Println(name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, manager, *driverName, *filePath); err != nil {
		slog.Error("failed to send message", "error", err)
		os.Exit(1)
	}
}

// run parses the message from path (or stdin) and sends it with the named
// driver.
func run(ctx context.Context, m *transport.Manager, driver, path string) error {
	raw, err := readMessage(path)
	if err != nil {
		return err
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		return err
	}

	t, err := m.Driver(driver)
	if err != nil {
		return err
	}

	slog.Info("sending message",
		"driver", t.Name(),
		"subject", msg.Subject,
		"recipients", len(msg.Recipients()),
		"attachments", len(msg.Attachments),
	)

	if err := t.Send(ctx, msg); err != nil {
		return err
	}

	slog.Info("message sent", "driver", t.Name())
	return nil
}

func readMessage(path string) ([]byte, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read message from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read message file: %w", err)
	}
	return data, nil
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output on stderr,
// keeping stdout free for the stdout driver.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
