package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"attendq/internal/config"
	"attendq/internal/dataset"
	"attendq/internal/datenorm"
	"attendq/internal/llm"
	"attendq/internal/pipeline"
	"attendq/internal/query"
	"attendq/internal/synth"
)

// App ties the attendance store to the question pipeline.
type App struct {
	cfg      config.Config
	db       *DB
	mu       sync.RWMutex
	dataset  *dataset.Dataset
	pipeline *pipeline.Pipeline
	executor *query.Executor
	registry *prometheus.Registry
	llmErr   error
}

// NewApp loads the dataset from db and builds the pipeline described by cfg.
// A missing API key is not fatal: questions then fail with the
// LLM-unavailable message.
func NewApp(ctx context.Context, cfg config.Config, db *DB) (*App, error) {
	log := logger
	if log == nil {
		log = slog.Default()
	}

	if err := db.SelectClass(cfg.Class); err != nil {
		return nil, err
	}
	ds, err := db.Dataset()
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}

	llmOpts := []llm.Option{
		llm.WithAPIKey(cfg.APIKey),
		llm.WithModel(cfg.Model),
		llm.WithTimeout(cfg.LLMTimeout),
		llm.WithRetries(cfg.LLMRetries),
		llm.WithLogger(log),
	}
	if cfg.SystemPrompt != "" {
		llmOpts = append(llmOpts, llm.WithSystemPrompt(cfg.SystemPrompt))
	}
	completer, llmErr := llm.New(ctx, llm.Provider(cfg.Provider), llmOpts...)
	if llmErr != nil {
		if !errors.Is(llmErr, llm.ErrUnavailable) {
			return nil, fmt.Errorf("failed to create language model client: %w", llmErr)
		}
		log.Warn("Language model unavailable", "error", llmErr)
	}

	engine, dialect := engineFor(cfg.Engine)
	opts := []synth.Option{
		synth.WithStyle(synth.Style(cfg.PromptStyle)),
		synth.WithDialect(dialect),
		synth.WithSampleRows(cfg.SampleRows),
		synth.WithLogger(log),
	}
	if cfg.Examples != "" {
		examples, err := synth.LoadExamples(cfg.Examples)
		if err != nil {
			return nil, err
		}
		if examples != "" {
			opts = append(opts, synth.WithExamples(examples))
		}
	}

	registry := prometheus.NewRegistry()
	executor := query.NewExecutor(engine, log)
	clock := cfg.Clock()

	p, err := pipeline.New(pipeline.Config{
		Normalizer:  datenorm.New(datenorm.WithClock(clock), datenorm.WithLogger(log)),
		Synthesizer: synth.New(completer, opts...),
		Executor:    executor,
		Logger:      log,
		Clock:       clock,
		GuardPanics: cfg.GuardPanics,
		Metrics:     pipeline.NewMetrics(registry),
		CacheTTL:    cfg.CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Pipeline ready",
		"class", cfg.Class,
		"students", ds.Len(),
		"class_days", len(ds.DateColumns()),
		"engine", engine.Name(),
		"prompt_style", cfg.PromptStyle,
		"llm", completer != nil,
	)

	return &App{
		cfg:      cfg,
		db:       db,
		dataset:  ds,
		pipeline: p,
		executor: executor,
		registry: registry,
		llmErr:   llmErr,
	}, nil
}

func engineFor(name string) (query.Engine, synth.Dialect) {
	if name == "sql" {
		return query.NewSQLEngine(), synth.DialectSQL
	}
	return query.NewExprEngine(), synth.DialectExpr
}

// Ask answers one natural-language question.
func (a *App) Ask(ctx context.Context, question string) pipeline.State {
	return a.pipeline.Answer(ctx, question, a.Dataset())
}

// Eval runs an expression directly against the dataset, skipping synthesis.
func (a *App) Eval(ctx context.Context, expression string) (any, error) {
	return a.executor.Execute(ctx, expression, a.Dataset(), nil)
}

// Schema describes the loaded dataset.
func (a *App) Schema() dataset.Summary {
	return dataset.Summarize(a.Dataset())
}

// Dataset returns the loaded attendance table.
func (a *App) Dataset() *dataset.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// Classes lists the classes in the register.
func (a *App) Classes() ([]string, error) { return a.db.Classes() }

// Class returns the class questions are answered for, empty for all.
func (a *App) Class() string { return a.db.Class() }

// SetClass scopes the dataset to one class and reloads it. An empty class
// covers every student.
func (a *App) SetClass(class string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	previous := a.db.Class()
	if err := a.db.SelectClass(class); err != nil {
		return err
	}
	ds, err := a.db.Dataset()
	if err != nil {
		_ = a.db.SelectClass(previous)
		return fmt.Errorf("failed to load attendance: %w", err)
	}
	a.dataset = ds
	return nil
}

// LLMAvailable reports whether a language model client was configured.
func (a *App) LLMAvailable() bool { return a.llmErr == nil }

func (a *App) Close() error {
	a.pipeline.Close()
	return a.db.Close()
}
