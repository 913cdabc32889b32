// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/GuilermoT/BlackStory2/internal/provider"
)

// Config represents the application configuration.
type Config struct {
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Server    ServerConfig              `yaml:"server,omitempty"`
}

// DefaultsConfig holds default game settings.
type DefaultsConfig struct {
	MaxQuestions        int    `yaml:"max_questions"`
	Format              string `yaml:"format"`
	OutputDir           string `yaml:"output_dir"`
	ForceSolveThreshold int    `yaml:"force_solve_threshold"`
}

// ProviderConfig holds backend-specific settings.
type ProviderConfig struct {
	BaseURL      string `yaml:"base_url,omitempty"`
	APIKeyEnv    string `yaml:"api_key_env,omitempty"`
	DefaultModel string `yaml:"default_model,omitempty"`
	Timeout      string `yaml:"timeout,omitempty"`
	Enabled      bool   `yaml:"enabled"`
}

// ServerConfig holds archive server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			MaxQuestions:        20,
			Format:              "markdown",
			OutputDir:           "./conversations",
			ForceSolveThreshold: 5,
		},
		Providers: map[string]ProviderConfig{
			"gemini": {
				APIKeyEnv:    "GEMINI_API_KEY",
				DefaultModel: "gemini-2.0-flash-exp",
				Timeout:      "5m",
				Enabled:      true,
			},
			"ollama": {
				BaseURL:      provider.DefaultOllamaBaseURL,
				DefaultModel: "llama3",
				Timeout:      "5m",
				Enabled:      true,
			},
			"mock": {
				DefaultModel: "mock-v1",
				Enabled:      true,
			},
		},
		Server: ServerConfig{Port: 8172},
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "blackstory.yaml"
	}
	return filepath.Join(home, ".blackstory", "config.yaml")
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, merged over defaults.
// Credentials come from the environment; a .env file in the working
// directory is loaded first when present.
func LoadFrom(path string) (*Config, error) {
	// Credentials live in the environment, not the config file.
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults.
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Merge with defaults for any missing providers.
	for name, defaultProvider := range Default().Providers {
		if _, exists := cfg.Providers[name]; !exists {
			cfg.Providers[name] = defaultProvider
		}
	}

	return cfg, nil
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// CreateProvider builds a provider for the given backend tag and model. An
// empty model selects the backend's configured default.
func (c *Config) CreateProvider(name, model string) (provider.Provider, error) {
	provCfg, ok := c.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in config", name)
	}
	if !provCfg.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}

	if model == "" {
		model = provCfg.DefaultModel
	}

	var apiKey string
	if provCfg.APIKeyEnv != "" {
		apiKey = os.Getenv(provCfg.APIKeyEnv)
	}

	return provider.Factory(name, model, provider.Config{
		BaseURL: provCfg.BaseURL,
		APIKey:  apiKey,
		Timeout: provCfg.Timeout,
	})
}

// GenerateExample returns an example configuration file.
func GenerateExample() string {
	return `# blackstory configuration file
# Place this file at ~/.blackstory/config.yaml

defaults:
  max_questions: 20         # Detective turn budget
  format: markdown          # Export format: markdown, json, text, pdf
  output_dir: ./conversations
  force_solve_threshold: 5  # Questions left at which resolution is forced

providers:
  gemini:
    api_key_env: GEMINI_API_KEY
    default_model: gemini-2.0-flash-exp
    timeout: 5m
    enabled: true

  ollama:
    base_url: http://localhost:11434/v1
    default_model: llama3
    timeout: 5m
    enabled: true

server:
  port: 8172
`
}
