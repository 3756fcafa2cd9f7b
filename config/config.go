package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the provider field
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds all aish settings
type Config struct {
	Shell             string        `yaml:"shell,omitempty"`             // overrides shell resolution
	PreferPowerShell  bool          `yaml:"prefer_powershell,omitempty"` // windows only
	Provider          string        `yaml:"provider"`                    // openai | ollama | gemini | none
	Model             string        `yaml:"model,omitempty"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	APIKeyEnv         string        `yaml:"api_key_env,omitempty"`
	TranslateTimeout  time.Duration `yaml:"translate_timeout"`
	HistoryFile       string        `yaml:"history_file,omitempty"`
	Journal           bool          `yaml:"journal"`
	LogLevel          string        `yaml:"log_level"`
	ContextMaxEntries int           `yaml:"context_max_entries"`

	// Dir is the resolved configuration directory. It is never read from the file.
	Dir string `yaml:"-"`
}

// Defaults returns the configuration used when no file exists
func Defaults() Config {
	return Config{
		Provider:          ProviderOpenAI,
		TranslateTimeout:  30 * time.Second,
		Journal:           true,
		LogLevel:          "info",
		ContextMaxEntries: 50,
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DefaultDir returns <user-config-dir>/aish, or AISH_CONFIG_DIR when set
func DefaultDir() (string, error) {
	if dir := getEnvString(envVarPrefix+"CONFIG_DIR", ""); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("resolving config directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "aish"), nil
}

// Load reads <dir>/config.yaml over the defaults and then applies AISH_*
// environment overrides. A missing file is not an error.
func Load(dir string) (Config, error) {
	cfg := Defaults()
	path := filepath.Join(dir, "config.yaml")

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ParseError{Path: path, Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	cfg.Dir = dir
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = filepath.Join(dir, "history")
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = defaultKeyEnv(cfg.Provider)
	}
	if cfg.ContextMaxEntries <= 0 {
		cfg.ContextMaxEntries = Defaults().ContextMaxEntries
	}
	if cfg.TranslateTimeout <= 0 {
		cfg.TranslateTimeout = Defaults().TranslateTimeout
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Save writes the configuration back to <Dir>/config.yaml
func (c Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Dir, "config.yaml"), data, 0o644)
}

// SetProvider switches provider. A key variable that was only the old
// provider's default follows the switch.
func (c *Config) SetProvider(provider string) {
	if c.APIKeyEnv == defaultKeyEnv(c.Provider) {
		c.APIKeyEnv = defaultKeyEnv(provider)
	}
	c.Provider = provider
}

// defaultKeyEnv names the environment variable holding the provider's API key
func defaultKeyEnv(provider string) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	}
	return ""
}
