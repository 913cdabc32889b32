// Package provider contains AI backend abstractions and implementations.
package provider

import (
	"context"
	"fmt"
)

// Provider defines the interface for AI text-completion backends.
type Provider interface {
	// Name returns the backend identifier (e.g. "gemini", "ollama").
	Name() string

	// ModelName returns the configured model identifier.
	ModelName() string

	// Generate sends a prompt and returns the model's text reply. It blocks
	// for the duration of the backend round-trip, bounded by the configured
	// timeout.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings needed to construct a provider.
type Config struct {
	Model   string
	BaseURL string
	APIKey  string
	Timeout string // duration string, e.g. "5m"
}

// Factory maps a backend tag to a constructed provider. The set of backends
// is closed; unknown tags are a configuration error.
func Factory(name, model string, cfg Config) (Provider, error) {
	cfg.Model = model
	switch name {
	case "gemini":
		return NewGemini(cfg)
	case "ollama":
		return NewOllama(cfg)
	case "mock":
		return NewMock(model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
