// Package llm provides the text-completion boundary used to synthesize query
// expressions, with Anthropic-backed implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	defaultModel        = "claude-haiku-4-5"
	defaultMaxTokens    = 512
	defaultSystemPrompt = "You translate questions about a student attendance table into a single query expression. Reply with the expression only: no prose, no markdown, no explanations."
)

// ErrUnavailable marks a completer that cannot be used at all, for example
// because no API key is configured.
var ErrUnavailable = errors.New("language model unavailable")

// Completer sends a prompt to a language model and returns its text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider selects the client implementation.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderFantasy   Provider = "fantasy"
)

// Config holds the configuration for creating a completer
type Config struct {
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int64
	timeout      time.Duration
	retries      uint
	logger       *slog.Logger
}

// Option is a functional option for configuring a completer
type Option func(*Config) error

// WithAPIKey sets the Anthropic API key
func WithAPIKey(apiKey string) Option {
	return func(c *Config) error {
		if apiKey == "" {
			return fmt.Errorf("%w: API key cannot be empty", ErrUnavailable)
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithAPIKeyFromEnv sets the API key from the ANTHROPIC_API_KEY environment variable
func WithAPIKeyFromEnv() Option {
	return func(c *Config) error {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable not set", ErrUnavailable)
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithModel sets the Claude model to use (default: claude-haiku-4-5)
func WithModel(model string) Option {
	return func(c *Config) error {
		if model == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithSystemPrompt sets a custom system prompt
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithMaxTokens caps the response length
func WithMaxTokens(n int64) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", n)
		}
		c.maxTokens = n
		return nil
	}
}

// WithTimeout bounds each completion call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative")
		}
		c.timeout = d
		return nil
	}
}

// WithRetries sets how many extra attempts are made after a failed call.
func WithRetries(n uint) Option {
	return func(c *Config) error {
		c.retries = n
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		c.logger = l
		return nil
	}
}

// New creates a completer for the given provider. It returns an error
// wrapping ErrUnavailable when no API key was configured.
func New(ctx context.Context, provider Provider, opts ...Option) (Completer, error) {
	cfg := &Config{
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
		maxTokens:    defaultMaxTokens,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required (use WithAPIKey or WithAPIKeyFromEnv)", ErrUnavailable)
	}

	var c Completer
	switch provider {
	case ProviderAnthropic, "":
		c = NewAnthropicCompleter(cfg)
	case ProviderFantasy:
		fc, err := NewFantasyCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c = fc
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	if cfg.timeout > 0 {
		c = WithDeadline(c, cfg.timeout)
	}
	if cfg.retries > 0 {
		c = WithRetry(c, cfg.retries, cfg.logger)
	}
	return c, nil
}
