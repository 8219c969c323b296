package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{
		Slack: SlackConfig{Webhooks: []string{"https://hooks.example.com/file"}},
	}
	err := applyEnv(cfg, envMap(map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"SLACK_WEBHOOK_URL": "https://hooks.example.com/a, ,https://hooks.example.com/b",
		"SLACK_WEBHOOK_2":   "https://hooks.example.com/n2",
		"SMTP_PORT":         "465",
		"FROM_EMAIL":        "bot@example.com",
		"EMAIL_PASSWORD":    "secret",
		"TO_EMAIL":          "a@example.com,b@example.com",
		"TO_EMAIL_10":       "z@example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, []string{
		"https://hooks.example.com/file",
		"https://hooks.example.com/a",
		"https://hooks.example.com/b",
		"https://hooks.example.com/n2",
	}, cfg.Slack.Webhooks)
	assert.Equal(t, 465, cfg.Email.SMTPPort)
	assert.True(t, cfg.Email.Ready())
	assert.Equal(t, []string{"a@example.com", "b@example.com", "z@example.com"}, cfg.Email.To)
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	err := applyEnv(&Config{}, envMap(map[string]string{"SMTP_PORT": "abc"}))
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key: from-file\nlog:\n  level: debug\n"), 0o644))
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultMaxTokens, cfg.LLM.MaxTokens)
	assert.Equal(t, DefaultTopics, cfg.Topics)
	assert.Equal(t, DefaultSMTPServer, cfg.Email.SMTPServer)
	assert.Equal(t, DefaultSMTPPort, cfg.Email.SMTPPort)
	assert.Equal(t, DefaultSMTPTimeout, cfg.Email.Timeout)
	assert.Equal(t, 1, cfg.Concurrency.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		LLM:   LLMConfig{Provider: "gemini", Model: "m", MaxTokens: 10},
		Slack: SlackConfig{Webhooks: []string{"not a url"}},
		Email: EmailConfig{To: []string{"nobody"}},
	}

	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "oneof", verr.Fields["llm.provider"])
	assert.Equal(t, "required", verr.Fields["llm.api_key"])
	assert.Equal(t, "url", verr.Fields["slack.webhooks[0]"])
	assert.Equal(t, "email", verr.Fields["email.to[0]"])
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "radar"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=radar sslmode=disable", c.DSN())
}
