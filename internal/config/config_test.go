package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "data/leanvibe.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.Agent.Model)
	assert.Equal(t, []string{"hey leanvibe", "leanvibe"}, cfg.Voice.WakePhrases)
	assert.Equal(t, 0.8, cfg.Approval.ConfidenceThreshold)
	assert.Contains(t, cfg.Approval.RiskActions, "delete_file")
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
approval:
  confidence_threshold: 0.9
voice:
  wake_phrases:
    - "hey assistant"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Approval.ConfidenceThreshold)
	assert.Equal(t, []string{"hey assistant"}, cfg.Voice.WakePhrases)
	assert.Equal(t, "info", cfg.Logger.Level, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEANVIBE_PORT", "9100")
	t.Setenv("LEANVIBE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero threshold", func(c *Config) { c.Approval.ConfidenceThreshold = 0 }, true},
		{"threshold above one", func(c *Config) { c.Approval.ConfidenceThreshold = 1.2 }, true},
		{"threshold at one", func(c *Config) { c.Approval.ConfidenceThreshold = 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
