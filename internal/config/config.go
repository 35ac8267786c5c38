// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Humanoid HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
	Loop     LoopConfig     `mapstructure:"loop" yaml:"loop"`
	Paths    PathsConfig    `mapstructure:"paths" yaml:"paths"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ModelProvider defines the supported decision model vendors.
type ModelProvider string

const (
	ProviderGemini ModelProvider = "gemini"
)

// ModelConfig configures the decision model and the invoker's fallback behavior.
type ModelConfig struct {
	Provider ModelProvider `mapstructure:"provider" yaml:"provider"`
	Model    string        `mapstructure:"model" yaml:"model"`
	// Candidates is the ordered list of known-good identifiers tried after a failure.
	Candidates        []string      `mapstructure:"candidates" yaml:"candidates"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// PersonaConfig is the browser identity presented to sites.
type PersonaConfig struct {
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Platform  string   `mapstructure:"platform" yaml:"platform"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
	Timezone  string   `mapstructure:"timezone" yaml:"timezone"`
	Locale    string   `mapstructure:"locale" yaml:"locale"`
}

// BrowserConfig holds settings for the automated browser.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless" yaml:"headless"`
	SessionDir string `mapstructure:"session_dir" yaml:"session_dir"`
	// SnapshotDir, when set, receives every cycle's screenshot.
	SnapshotDir       string         `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	Persona           PersonaConfig  `mapstructure:"persona" yaml:"persona"`
}

// LoopConfig bounds the decision-execution loop.
type LoopConfig struct {
	MaxCycles int `mapstructure:"max_cycles" yaml:"max_cycles"`
}

// PathsConfig locates the local files the tool reads and writes.
type PathsConfig struct {
	CredentialsStore string `mapstructure:"credentials_store" yaml:"credentials_store"`
	CredentialKey    string `mapstructure:"credential_key" yaml:"-"`
	JournalFile      string `mapstructure:"journal_file" yaml:"journal_file"`
	ImagesDir        string `mapstructure:"images_dir" yaml:"images_dir"`
}

// DatabaseConfig holds the optional event store connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"-"`
}

// ViewportSize returns the configured viewport, falling back to 1366x900.
func (b BrowserConfig) ViewportSize() (int, int) {
	w, h := b.Viewport["width"], b.Viewport["height"]
	if w <= 0 {
		w = 1366
	}
	if h <= 0 {
		h = 900
	}
	return w, h
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "listpilot")
	v.SetDefault("logger.log_file", "logs/listpilot.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Model --
	v.SetDefault("model.provider", string(ProviderGemini))
	v.SetDefault("model.model", "gemini-2.5-flash")
	v.SetDefault("model.candidates", []string{
		"gemini-2.5-flash",
		"gemini-2.0-flash",
		"gemini-2.5-flash-lite",
		"gemini-2.5-pro",
	})
	v.SetDefault("model.api_timeout", "90s")
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("model.max_tokens", 2048)
	v.SetDefault("model.requests_per_minute", 30)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.session_dir", "sessions")
	v.SetDefault("browser.snapshot_dir", "")
	v.SetDefault("browser.viewport", map[string]int{"width": 1366, "height": 900})
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.persona.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("browser.persona.platform", "Win32")
	v.SetDefault("browser.persona.languages", []string{"en-US", "en"})
	v.SetDefault("browser.persona.timezone", "America/Los_Angeles")
	v.SetDefault("browser.persona.locale", "en-US")

	setHumanoidDefaults(v)

	// -- Loop --
	v.SetDefault("loop.max_cycles", 12)

	// -- Paths --
	v.SetDefault("paths.credentials_store", "config/credentials.enc")
	v.SetDefault("paths.journal_file", "sessions/user_action_cache/actions.jsonl")
	v.SetDefault("paths.images_dir", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets only come from the environment.
	_ = v.BindEnv("model.api_key", "GEMINI_API_KEY", "LISTPILOT_MODEL_API_KEY")
	_ = v.BindEnv("paths.credential_key", "LISTPILOT_CREDENTIAL_KEY", "CREDENTIAL_ENCRYPTION_KEY")
	_ = v.BindEnv("database.url", "LISTPILOT_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Logger.LogFile,
		&c.Browser.SessionDir,
		&c.Browser.SnapshotDir,
		&c.Paths.CredentialsStore,
		&c.Paths.JournalFile,
		&c.Paths.ImagesDir,
	} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Loop.MaxCycles <= 0 {
		return fmt.Errorf("loop.max_cycles must be a positive integer")
	}
	if c.Model.Provider != ProviderGemini {
		return fmt.Errorf("unsupported model.provider %q (supported: %s)", c.Model.Provider, ProviderGemini)
	}
	if strings.TrimSpace(c.Model.Model) == "" {
		return fmt.Errorf("model.model is required")
	}
	if c.Model.RequestsPerMinute < 0 {
		return fmt.Errorf("model.requests_per_minute must not be negative")
	}
	if c.Browser.SessionDir == "" {
		return fmt.Errorf("browser.session_dir is required")
	}
	if err := c.Humanoid.Validate(); err != nil {
		return fmt.Errorf("humanoid configuration invalid: %w", err)
	}
	return nil
}

// RequireAPIKey is checked lazily: offline commands never need one.
func (m ModelConfig) RequireAPIKey() error {
	if m.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required. Add it to your environment or config file")
	}
	return nil
}
