package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicCompleter implements Completer using the Anthropic Messages API.
type AnthropicCompleter struct {
	client       anthropic.Client
	model        anthropic.Model
	maxTokens    int64
	systemPrompt string
	log          *slog.Logger
}

// NewAnthropicCompleter creates a completer from a resolved config.
func NewAnthropicCompleter(cfg *Config) *AnthropicCompleter {
	return &AnthropicCompleter{
		client:       anthropic.NewClient(option.WithAPIKey(cfg.apiKey)),
		model:        anthropic.Model(cfg.model),
		maxTokens:    cfg.maxTokens,
		systemPrompt: cfg.systemPrompt,
		log:          cfg.logger,
	}
}

// Complete sends a prompt to Claude and returns the response text.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	c.log.Info("Anthropic API call starting", "model", c.model, "maxTokens", c.maxTokens, "promptLen", len(prompt))

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: c.systemPrompt},
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		c.log.Error("Anthropic API call failed", "duration", duration, "error", err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}
	c.log.Info("Anthropic API call completed", "duration", duration, "stopReason", msg.StopReason)

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}
	return text.String(), nil
}
