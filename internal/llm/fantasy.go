package llm

import (
	"context"
	"fmt"
	"log/slog"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
)

// FantasyCompleter implements Completer with a Fantasy agent over the
// Anthropic provider. The agent carries no tools.
type FantasyCompleter struct {
	model        fantasy.LanguageModel
	systemPrompt string
	log          *slog.Logger
}

// NewFantasyCompleter creates the provider and language model up front so a
// bad key or model name fails at startup rather than on the first question.
func NewFantasyCompleter(ctx context.Context, cfg *Config) (*FantasyCompleter, error) {
	provider, err := anthropic.New(anthropic.WithAPIKey(cfg.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Claude model: %w", err)
	}

	return &FantasyCompleter{
		model:        model,
		systemPrompt: cfg.systemPrompt,
		log:          cfg.logger,
	}, nil
}

// Complete implements Completer.
func (c *FantasyCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	agent := fantasy.NewAgent(
		c.model,
		fantasy.WithSystemPrompt(c.systemPrompt),
	)

	result, err := agent.Generate(ctx, fantasy.AgentCall{Prompt: prompt})
	if err != nil {
		c.log.Error("Fantasy generation failed", "error", err)
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return result.Response.Content.Text(), nil
}
