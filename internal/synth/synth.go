// Package synth asks a language model to translate an attendance question
// into a single query expression.
package synth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"attendq/internal/dataset"
	"attendq/internal/llm"
)

// Style selects how the dataset is described in the prompt.
type Style string

const (
	// StyleSummary describes the table semantically: metadata vs date
	// columns, date range and counts, plus three sample rows.
	StyleSummary Style = "summary"
	// StyleBasic lists column types and two sample rows.
	StyleBasic Style = "basic"
)

// Dialect is the expression language the model must answer in.
type Dialect string

const (
	DialectExpr Dialect = "expr"
	DialectSQL  Dialect = "sql"
)

// LLMUnavailableError means no language model client is configured.
type LLMUnavailableError struct {
	Err error
}

func (e *LLMUnavailableError) Error() string {
	if e.Err != nil {
		return "LLM not initialized: " + e.Err.Error()
	}
	return "LLM not initialized."
}

func (e *LLMUnavailableError) Unwrap() error { return e.Err }

// SynthesisError wraps a failed completion call.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "LLM Error: " + e.Err.Error() }

func (e *SynthesisError) Unwrap() error { return e.Err }

// Synthesizer builds prompts and calls the completer.
type Synthesizer struct {
	llm        llm.Completer
	style      Style
	dialect    Dialect
	examples   string
	sampleRows int
	log        *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStyle sets the prompt style.
func WithStyle(s Style) Option {
	return func(x *Synthesizer) { x.style = s }
}

// WithDialect sets the target expression language. It also resets the
// few-shot examples to the built-in set for that dialect.
func WithDialect(d Dialect) Option {
	return func(x *Synthesizer) {
		x.dialect = d
		x.examples = DefaultExamples(d)
	}
}

// WithExamples replaces the few-shot examples.
func WithExamples(examples string) Option {
	return func(x *Synthesizer) { x.examples = examples }
}

// WithSampleRows overrides the number of sample rows shown to the model.
func WithSampleRows(n int) Option {
	return func(x *Synthesizer) { x.sampleRows = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Synthesizer) { x.log = l }
}

// New creates a synthesizer. c may be nil, in which case every call fails
// with *LLMUnavailableError.
func New(c llm.Completer, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		llm:      c,
		style:    StyleSummary,
		dialect:  DialectExpr,
		examples: DefaultExamples(DialectExpr),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sampleRows <= 0 {
		s.sampleRows = defaultSampleRows(s.style)
	}
	return s
}

// Dialect returns the configured dialect.
func (s *Synthesizer) Dialect() Dialect { return s.dialect }

// Synthesize returns the expression the model produced for question. An
// empty string with a nil error means the model replied with nothing usable.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, ds *dataset.Dataset) (string, error) {
	if s.llm == nil {
		return "", &LLMUnavailableError{}
	}

	prompt := s.BuildPrompt(question, ds)

	start := time.Now()
	out, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		s.log.Error("Expression synthesis failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, llm.ErrUnavailable) {
			return "", &LLMUnavailableError{Err: err}
		}
		return "", &SynthesisError{Err: err}
	}

	expression := CleanResponse(out)
	s.log.Info("Expression synthesized",
		"dialect", s.dialect,
		"expression", expression,
		"duration", time.Since(start))
	return expression, nil
}

// CleanResponse strips markdown fences and surrounding whitespace from a
// model reply.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "```") {
		start := strings.Index(text, "```") + 3
		end := strings.Index(text[start:], "```")
		if end >= 0 {
			text = text[start : start+end]
		} else {
			text = text[start:]
		}
		// Drop a language tag on the opening fence line.
		if nl := strings.Index(text, "\n"); nl >= 0 {
			tag := strings.TrimSpace(text[:nl])
			if tag != "" && !strings.ContainsAny(tag, " (\"'.") {
				text = text[nl+1:]
			}
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > 1 && strings.HasPrefix(text, "`") && strings.HasSuffix(text, "`") {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}
