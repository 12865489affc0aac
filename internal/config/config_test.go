package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prspace/mailjet-transport/internal/transport"
)

func clearEnv(t *testing.T) {
	t.Helper()

	t.Setenv("MAIL_DRIVER", "")
	t.Setenv("MAIL_FROM_ADDRESS", "")
	t.Setenv("MAIL_FROM_NAME", "")
	t.Setenv("LOG_LEVEL", "")
	for _, b := range serviceEnv {
		t.Setenv(b.env, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mailjet", cfg.Mail.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Services)
	assert.Empty(t, cfg.Mail.From.Address)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_DRIVER", "SES")
	t.Setenv("MAIL_FROM_ADDRESS", "noreply@example.com")
	t.Setenv("MAIL_FROM_NAME", "Example")
	t.Setenv("MAILJET_KEY", "abc123")
	t.Setenv("MAILJET_SECRET", "xyz789")
	t.Setenv("MAILJET_SANDBOX", "true")
	t.Setenv("SES_REGION", "us-east-1")
	t.Setenv("GRAPH_TENANT_ID", "tid-123")
	t.Setenv("RESEND_KEY", "re_123")
	t.Setenv("SENDGRID_KEY", "SG.123")
	t.Setenv("SMTP_HOST", "relay.example.com")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ses", cfg.Mail.Driver)
	assert.Equal(t, "noreply@example.com", cfg.Mail.From.Address)
	assert.Equal(t, "Example", cfg.Mail.From.Name)
	assert.Equal(t, "abc123", cfg.Services["mailjet"]["key"])
	assert.Equal(t, "xyz789", cfg.Services["mailjet"]["secret"])
	assert.Equal(t, "true", cfg.Services["mailjet"]["sandbox"])
	assert.Equal(t, "us-east-1", cfg.Services["ses"]["region"])
	assert.Equal(t, "tid-123", cfg.Services["graph"]["tenant_id"])
	assert.Equal(t, "re_123", cfg.Services["resend"]["key"])
	assert.Equal(t, "SG.123", cfg.Services["sendgrid"]["key"])
	assert.Equal(t, "relay.example.com", cfg.Services["smtp"]["host"])
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile_YAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, `
mail:
  driver: mailjet
  from:
    address: team@example.com
    name: Team
services:
  mailjet:
    key: abc123
    secret: xyz789
    sandbox: true
  ses:
    region: eu-west-1
logging:
  level: warn
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "mailjet", cfg.Mail.Driver)
	assert.Equal(t, "team@example.com", cfg.Mail.From.Address)
	assert.Equal(t, "abc123", cfg.Services["mailjet"]["key"])
	assert.Equal(t, "xyz789", cfg.Services["mailjet"]["secret"])
	assert.Equal(t, "true", cfg.Services["mailjet"]["sandbox"])
	assert.Equal(t, "eu-west-1", cfg.Services["ses"]["region"])
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILJET_SECRET", "from-env")

	path := writeFile(t, `
services:
  mailjet:
    key: abc123
    secret: from-file
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.Services["mailjet"]["key"])
	assert.Equal(t, "from-env", cfg.Services["mailjet"]["secret"])
	assert.Equal(t, "mailjet", cfg.Mail.Driver, "default driver survives a file without mail block")
}

func TestLoadFromFile_NullServices(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILJET_KEY", "abc123")

	cfg, err := LoadFromFile(writeFile(t, "services:\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Services["mailjet"]["key"])
}

func TestLoadFromFile_Missing(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFile_Invalid(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(writeFile(t, "services: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSection(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Services: map[string]map[string]string{
			"mailjet": {"key": "abc123", "secret": "xyz789"},
			"resend":  {"key": "re_1", "from": "resend@example.com"},
		},
		Mail: MailConfig{From: FromConfig{Address: "team@example.com", Name: "Team"}},
	}

	mj := cfg.Section("mailjet")
	assert.Equal(t, "abc123", mj.Get("key"))
	assert.Equal(t, "xyz789", mj.Get("secret"))
	assert.Equal(t, "team@example.com", mj.Get("from"))
	assert.Equal(t, "Team", mj.Get("from_name"))

	rs := cfg.Section("resend")
	assert.Equal(t, "resend@example.com", rs.Get("from"), "section sender wins over global")

	missing := cfg.Section("sendgrid")
	assert.NotNil(t, missing)
	assert.Equal(t, "", missing.Get("key"))
}

func TestSection_ReturnsCopy(t *testing.T) {
	t.Parallel()

	cfg := &Config{Services: map[string]map[string]string{"mailjet": {"key": "abc123"}}}

	section := cfg.Section("mailjet")
	section["key"] = "mutated"

	assert.Equal(t, "abc123", cfg.Services["mailjet"]["key"])
}

func TestSection_NilServices(t *testing.T) {
	t.Parallel()

	var cfg Config
	assert.Equal(t, transport.Config{}, cfg.Section("mailjet"))
}

// Config must satisfy transport.Source so it can be injected into a Manager.
func TestConfigIsSource(t *testing.T) {
	t.Parallel()

	var _ transport.Source = (*Config)(nil)
}
