package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultTimeout = 5 * time.Minute

// chatClient wraps a go-openai client pointed at an OpenAI-compatible chat
// completion endpoint. Both concrete backends differ only in wiring: base
// URL, credentials and model naming.
type chatClient struct {
	name    string
	model   string
	client  *openai.Client
	timeout time.Duration
}

func newChatClient(name string, cfg Config) *chatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	timeout := defaultTimeout
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = d
		} else {
			slog.Warn("Invalid provider timeout, using default", "provider", name, "timeout", cfg.Timeout)
		}
	}

	return &chatClient{
		name:    name,
		model:   cfg.Model,
		client:  openai.NewClientWithConfig(clientCfg),
		timeout: timeout,
	}
}

// Name returns the backend identifier.
func (c *chatClient) Name() string { return c.name }

// ModelName returns the configured model identifier.
func (c *chatClient) ModelName() string { return c.model }

// Generate sends the prompt as a single user message and returns the reply.
func (c *chatClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s chat completion: empty response", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}
