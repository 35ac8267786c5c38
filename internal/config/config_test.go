// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "listpilot", cfg.Logger.ServiceName)
	assert.Equal(t, ProviderGemini, cfg.Model.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model.Model)
	assert.NotEmpty(t, cfg.Model.Candidates)
	assert.Equal(t, 90*time.Second, cfg.Model.APITimeout)
	assert.Equal(t, 12, cfg.Loop.MaxCycles)
	assert.False(t, cfg.Browser.Headless)

	w, h := cfg.Browser.ViewportSize()
	assert.Equal(t, 1366, w)
	assert.Equal(t, 900, h)

	// Timing defaults mirror the executor's documented ranges.
	assert.Equal(t, DurationRange{Min: 8 * time.Second, Max: 12 * time.Second}, cfg.Humanoid.RiskPause)
	assert.Equal(t, DurationRange{Min: 45 * time.Millisecond, Max: 180 * time.Millisecond}, cfg.Humanoid.KeyDelay)
	assert.Equal(t, IntRange{Min: 200, Max: 650}, cfg.Humanoid.ScrollDelta)
	assert.Equal(t, 4, cfg.Humanoid.ScrollSteps)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("max cycles", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Loop.MaxCycles = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loop.max_cycles must be a positive integer")
	})

	t.Run("provider", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Model.Provider = "openai"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported model.provider")
	})

	t.Run("humanoid ranges", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Humanoid.Wait = DurationRange{Min: 3 * time.Second, Max: time.Second}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait range is invalid")

		cfg = NewDefaultConfig()
		cfg.Humanoid.ScrollSteps = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("api key is lazy", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate(), "offline use must not need an API key")
		assert.Error(t, cfg.Model.RequireAPIKey())
		cfg.Model.APIKey = "k"
		assert.NoError(t, cfg.Model.RequireAPIKey())
	})
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LISTPILOT_DATABASE_URL", "postgres://localhost/listpilot")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	yamlConfig := []byte(`
loop:
  max_cycles: 20
model:
  model: gemini-2.0-flash
  requests_per_minute: 0
humanoid:
  risk_pause:
    min: 1s
    max: 2s
paths:
  credentials_store: ~/listpilot/credentials.enc
`)
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Loop.MaxCycles)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Model)
	assert.Equal(t, 0, cfg.Model.RequestsPerMinute)
	assert.Equal(t, "test-key", cfg.Model.APIKey)
	assert.Equal(t, "postgres://localhost/listpilot", cfg.Database.URL)
	assert.Equal(t, DurationRange{Min: time.Second, Max: 2 * time.Second}, cfg.Humanoid.RiskPause)

	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "listpilot", "credentials.enc"), cfg.Paths.CredentialsStore)
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("loop.max_cycles", -1)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
