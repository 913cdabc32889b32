package provider

import (
	"fmt"
	"log/slog"
)

// DefaultGeminiBaseURL is Google's OpenAI-compatible endpoint for Gemini.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// NewGemini creates a provider backed by the Gemini API.
func NewGemini(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key (set GEMINI_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	slog.Info("Gemini provider initialized", "model", cfg.Model)
	return newChatClient("gemini", cfg), nil
}
