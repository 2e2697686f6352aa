package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.True(t, cfg.AltScreen)
	assert.Equal(t, 500, cfg.PreviewLimit)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.yaml")
	yaml := "base_url: https://classifier.example.com/api\ntimeout: 15s\nlog_file: /tmp/classifier.log\nalt_screen: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CLASSIFIER_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://classifier.example.com/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/classifier.log", cfg.LogFile)
	assert.False(t, cfg.AltScreen)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unterminated\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestClientValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Client)
		ok     bool
	}{
		{"defaults", func(*Client) {}, true},
		{"empty url", func(c *Client) { c.BaseURL = "" }, false},
		{"relative url", func(c *Client) { c.BaseURL = "/api" }, false},
		{"ftp url", func(c *Client) { c.BaseURL = "ftp://host/api" }, false},
		{"zero timeout", func(c *Client) { c.Timeout = 0 }, false},
		{"negative preview", func(c *Client) { c.PreviewLimit = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultClient()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadServer(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 5, cfg.RateLimitPerMinute)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
}

func TestLoadServerRejectsBadValues(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_PER_MINUTE", "many")
		_, err := LoadServer()
		assert.Error(t, err)
	})
	t.Run("provider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "gemini")
		_, err := LoadServer()
		assert.Error(t, err)
	})
	t.Run("openai without key", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "openai")
		t.Setenv("OPENAI_API_KEY", "")
		_, err := LoadServer()
		assert.Error(t, err)
	})
}
