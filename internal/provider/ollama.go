package provider

import (
	"log/slog"
)

// DefaultOllamaBaseURL is the OpenAI-compatible endpoint of a local Ollama.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// NewOllama creates a provider backed by a local Ollama server.
func NewOllama(cfg Config) (Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.APIKey == "" {
		// Ollama ignores credentials but the client requires a token.
		cfg.APIKey = "ollama"
	}
	slog.Info("Ollama provider initialized", "model", cfg.Model, "base_url", cfg.BaseURL)
	return newChatClient("ollama", cfg), nil
}
