package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
jwt:
  secret: s3cret
database:
  host: db.internal
  name: lms
quiz:
  submission_grace: 90s
`))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 90*time.Second, cfg.Quiz.SubmissionGrace)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, "0 6 * * *", cfg.Scheduler.ExpiryReminderSpec)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "jwt:\n  secret: from-file\n"))
	t.Setenv("LMS_JWT_SECRET", "from-env")
	t.Setenv("LMS_DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("LMS_OUTBOX_POLL_INTERVAL", "1s")
	t.Setenv("LMS_RATE_LIMIT_BURST", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"smtp without host", func(c *Config) { c.Email.Provider = "smtp" }, "email.smtp.host"},
		{"sendgrid without key", func(c *Config) { c.Email.Provider = "sendgrid" }, "sendgrid_api_key"},
		{"unknown provider", func(c *Config) { c.Email.Provider = "pigeon" }, "unknown email provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				JWT:    JWTConfig{Secret: "x"},
				Email:  EmailConfig{Provider: "log"},
				Outbox: OutboxConfig{BatchSize: 10},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
