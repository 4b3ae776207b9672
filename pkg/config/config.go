package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
)

// ProviderConfig holds the credentials for one LLM vendor.
type ProviderConfig struct {
	APIKey string `json:"api_key" env:"API_KEY"`
	Model  string `json:"model" env:"MODEL"`
}

type UserConfig struct {
	Name  string `json:"name" env:"ATTACHE_USER_NAME"`
	Email string `json:"email" env:"ATTACHE_USER_EMAIL"`
}

// GoogleConfig configures the OAuth client used for Calendar and Gmail.
// TokenPath points at the persisted oauth2 token JSON.
type GoogleConfig struct {
	ClientID     string `json:"client_id" env:"ATTACHE_GOOGLE_CLIENT_ID"`
	ClientSecret string `json:"client_secret" env:"ATTACHE_GOOGLE_CLIENT_SECRET"`
	TokenPath    string `json:"token_path" env:"ATTACHE_GOOGLE_TOKEN_PATH"`
}

type CalendarConfig struct {
	DefaultType string `json:"default_type" env:"ATTACHE_CALENDAR_DEFAULT_TYPE"`
	Timezone    string `json:"timezone" env:"ATTACHE_CALENDAR_TIMEZONE"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"ATTACHE_LOG_LEVEL"`
	File  string `json:"file" env:"ATTACHE_LOG_FILE"`
}

type Config struct {
	// Provider is the last-used LLM provider: claude, openai, gemini or kimi.
	Provider string         `json:"provider" env:"ATTACHE_PROVIDER"`
	User     UserConfig     `json:"user"`
	Claude   ProviderConfig `json:"claude" envPrefix:"ATTACHE_CLAUDE_"`
	OpenAI   ProviderConfig `json:"openai" envPrefix:"ATTACHE_OPENAI_"`
	Gemini   ProviderConfig `json:"gemini" envPrefix:"ATTACHE_GEMINI_"`
	Kimi     ProviderConfig `json:"kimi" envPrefix:"ATTACHE_KIMI_"`
	Google   GoogleConfig   `json:"google"`
	Calendar CalendarConfig `json:"calendar"`
	Logging  LoggingConfig  `json:"logging"`

	mu   sync.RWMutex
	path string
}

func DefaultConfig() *Config {
	return &Config{
		Provider: "claude",
		Calendar: CalendarConfig{
			DefaultType: "google",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, applies ATTACHE_* environment
// overrides, and fills defaults for anything unset. A missing file is not an
// error; the defaults are returned so first-run works without setup.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// first run, defaults only
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if cfg.Calendar.DefaultType == "" {
		cfg.Calendar.DefaultType = "google"
	}
	if cfg.Google.TokenPath == "" {
		cfg.Google.TokenPath = filepath.Join(Dir(), "google_token.json")
	}
	return cfg, nil
}

// Save writes the config back to its file via a temp-file rename.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// ForProvider returns the credentials block for the named provider.
func (c *Config) ForProvider(name string) (ProviderConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "claude":
		return c.Claude, nil
	case "openai":
		return c.OpenAI, nil
	case "gemini":
		return c.Gemini, nil
	case "kimi":
		return c.Kimi, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider %q", name)
	}
}

// SetProvider records the last-used provider.
func (c *Config) SetProvider(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Provider = name
}
