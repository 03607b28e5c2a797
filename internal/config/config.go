// Package config loads the provider and server settings used by the CLI and
// the HTTP surface from a YAML file and optional .env files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/unillm/providers/ai"
)

// Config is the root of the YAML document.
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Log       LogConfig                 `yaml:"log"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ServerConfig configures `unillm serve`.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig selects the slog observer format and level. Empty values fall
// back to UNILLM_LOG_FORMAT and UNILLM_LOG_LEVEL.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProviderConfig describes one vendor. APIKey wins over APIKeyEnv; when both
// are empty the provider falls back to its conventional variable, e.g.
// OPENAI_API_KEY.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	APIKeyEnv    string `yaml:"api_key_env"`
	BaseURL      string `yaml:"base_url"`
	DefaultModel string `yaml:"default_model"`
	Disabled     bool   `yaml:"disabled"`
}

const (
	DefaultAddr           = ":8080"
	DefaultRequestTimeout = 2 * time.Minute
)

var knownProviders = []ai.ProviderID{ai.ProviderOpenAI, ai.ProviderAnthropic, ai.ProviderGemini}

// Default enables every known provider with environment-provided
// credentials.
func Default() Config {
	cfg := Config{Providers: map[string]ProviderConfig{}}
	for _, id := range knownProviders {
		cfg.Providers[string(id)] = ProviderConfig{}
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the YAML file at path. Providers absent from the
// file are not registered.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", absPath, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate rejects unknown provider names and negative timeouts.
func (c Config) Validate() error {
	for name := range c.Providers {
		if !isKnownProvider(name) {
			return fmt.Errorf("providers.%s: unknown provider, expected one of %v", name, knownProviders)
		}
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative, got %s", c.Server.RequestTimeout)
	}
	return nil
}

func isKnownProvider(name string) bool {
	for _, id := range knownProviders {
		if string(id) == name {
			return true
		}
	}
	return false
}

// ResolveAPIKey returns the configured key, or the value of APIKeyEnv, or "".
func (p ProviderConfig) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// LoadEnv loads variables from the given .env files without overriding ones
// already set. With no files it loads ./.env if present.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files %v: %w", files, err)
	}
	return nil
}
