// Package improve provides optional grammar and punctuation cleanup of
// transcribed text via an OpenAI-compatible chat endpoint.
package improve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "Fix punctuation, capitalization, and grammar. " +
	"Keep concise. Output only the corrected text, nothing else."

// Improver rewrites transcribed text. Failure or unavailability must be
// treated by callers as "use the original text", never as a session error.
type Improver interface {
	Improve(ctx context.Context, text string) (string, error)
}

// ChatImprover calls an OpenAI-compatible chat completion endpoint.
// Pointing the base URL at a local Ollama server keeps improvement fully
// offline.
type ChatImprover struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Config holds improver settings.
type Config struct {
	Endpoint string // Base URL of the OpenAI-compatible API
	APIKey   string // May be empty for local servers
	Model    string
	Timeout  time.Duration
}

// NewChatImprover creates an improver against the configured endpoint.
func NewChatImprover(cfg Config, logger *slog.Logger) *ChatImprover {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	return &ChatImprover{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Improve returns a cleaned-up version of text.
// Empty input is returned unchanged without a request.
func (c *ChatImprover) Improve(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	improved := strings.TrimSpace(resp.Choices[0].Message.Content)
	if improved == "" {
		return "", fmt.Errorf("chat completion returned empty text")
	}

	c.logger.Debug("text improved",
		"duration", time.Since(start), "in_chars", len(text), "out_chars", len(improved))
	return improved, nil
}
