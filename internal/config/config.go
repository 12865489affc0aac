// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mail transports.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prspace/mailjet-transport/internal/transport"
)

// Config holds the complete application configuration.
type Config struct {
	Mail     MailConfig                   `yaml:"mail"`
	Services map[string]map[string]string `yaml:"services"`
	Logging  LoggingConfig                `yaml:"logging"`
}

// MailConfig selects the default driver and the global sender.
type MailConfig struct {
	Driver string     `yaml:"driver"`
	From   FromConfig `yaml:"from"`
}

// FromConfig is the sender used when neither the message nor the driver
// section names one.
type FromConfig struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envBinding maps an environment variable onto a key of a service section.
type envBinding struct {
	env     string
	service string
	key     string
}

var serviceEnv = []envBinding{
	{"MAILJET_KEY", "mailjet", "key"},
	{"MAILJET_SECRET", "mailjet", "secret"},
	{"MAILJET_BASE_URL", "mailjet", "base_url"},
	{"MAILJET_SANDBOX", "mailjet", "sandbox"},

	{"SES_REGION", "ses", "region"},
	{"SES_KEY", "ses", "key"},
	{"SES_SECRET", "ses", "secret"},
	{"SES_SENDER", "ses", "sender"},

	{"GRAPH_TENANT_ID", "graph", "tenant_id"},
	{"GRAPH_CLIENT_ID", "graph", "client_id"},
	{"GRAPH_CLIENT_SECRET", "graph", "client_secret"},
	{"GRAPH_SENDER", "graph", "sender"},

	{"RESEND_KEY", "resend", "key"},
	{"RESEND_FROM", "resend", "from"},

	{"SENDGRID_KEY", "sendgrid", "key"},
	{"SENDGRID_FROM", "sendgrid", "from"},

	{"SMTP_HOST", "smtp", "host"},
	{"SMTP_PORT", "smtp", "port"},
	{"SMTP_USERNAME", "smtp", "username"},
	{"SMTP_PASSWORD", "smtp", "password"},
	{"SMTP_ENCRYPTION", "smtp", "encryption"},
	{"SMTP_CA_FILE", "smtp", "ca_file"},
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Services == nil {
		cfg.Services = make(map[string]map[string]string)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Section implements transport.Source. The returned map is a copy, so
// factories cannot alter the loaded configuration. The global sender fills
// "from" and "from_name" when the section does not set them.
func (c *Config) Section(name string) transport.Config {
	src := c.Services[name]

	out := make(transport.Config, len(src)+2)
	for k, v := range src {
		out[k] = v
	}

	if out["from"] == "" && c.Mail.From.Address != "" {
		out["from"] = c.Mail.From.Address
		if out["from_name"] == "" {
			out["from_name"] = c.Mail.From.Name
		}
	}
	return out
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Mail.Driver = transport.DefaultDriver
	c.Services = make(map[string]map[string]string)
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAIL_DRIVER"); v != "" {
		c.Mail.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("MAIL_FROM_ADDRESS"); v != "" {
		c.Mail.From.Address = v
	}
	if v := os.Getenv("MAIL_FROM_NAME"); v != "" {
		c.Mail.From.Name = v
	}

	for _, b := range serviceEnv {
		v := os.Getenv(b.env)
		if v == "" {
			continue
		}
		section := c.Services[b.service]
		if section == nil {
			section = make(map[string]string)
			c.Services[b.service] = section
		}
		section[b.key] = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
