// Package pipeline answers attendance questions by running them through date
// normalization, expression synthesis, execution and formatting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"

	"attendq/internal/dataset"
	"attendq/internal/format"
)

// Normalizer rewrites relative dates in a question to ISO dates.
type Normalizer interface {
	Normalize(question string, ds *dataset.Dataset) (string, error)
}

// Synthesizer turns a question into a query expression.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, ds *dataset.Dataset) (string, error)
}

// Executor evaluates an expression. With an empty expression it returns
// prior, or a generic fault when prior is nil.
type Executor interface {
	Execute(ctx context.Context, expression string, ds *dataset.Dataset, prior error) (any, error)
}

// State is the record threaded through the stages for one question.
type State struct {
	ID string `json:"id"`
	// Original is the question as asked.
	Original string `json:"original"`
	// Question is the question after date normalization.
	Question   string `json:"question"`
	Expression string `json:"expression,omitempty"`
	Result     Result `json:"result"`
	Answer     string `json:"answer"`
}

type Config struct {
	Normalizer  Normalizer
	Synthesizer Synthesizer
	Executor    Executor

	// Optional configuration.
	Logger *slog.Logger
	Clock  clockwork.Clock
	// GuardPanics converts a panicking stage into an internal failure
	// instead of letting it unwind out of Answer.
	GuardPanics bool
	Metrics     *Metrics
	// CacheTTL enables the expression cache when positive.
	CacheTTL time.Duration
	// CacheCapacity bounds the number of cached expressions.
	CacheCapacity uint64
}

func (c *Config) Validate() error {
	if c.Normalizer == nil {
		return errors.New("normalizer is required")
	}
	if c.Synthesizer == nil {
		return errors.New("synthesizer is required")
	}
	if c.Executor == nil {
		return errors.New("executor is required")
	}

	// Optional configuration.
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}
	if c.CacheCapacity == 0 {
		c.CacheCapacity = defaultCacheCapacity
	}
	return nil
}

const defaultCacheCapacity = 1024

type Pipeline struct {
	cfg       Config
	log       *slog.Logger
	cache     *ttlcache.Cache[string, string]
	closeOnce sync.Once
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{cfg: cfg, log: cfg.Logger}
	if cfg.CacheTTL > 0 {
		p.cache = ttlcache.New(
			ttlcache.WithTTL[string, string](cfg.CacheTTL),
			ttlcache.WithCapacity[string, string](cfg.CacheCapacity),
		)
		// Removes expired expressions until Close.
		go p.cache.Start()
	}
	return p, nil
}

// Close stops the expression cache's cleanup loop.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		if p.cache != nil {
			p.cache.Stop()
		}
	})
}

// Answer runs question through every stage. It always returns a state with a
// non-empty Answer; failures are reported through State.Result.
func (p *Pipeline) Answer(ctx context.Context, question string, ds *dataset.Dataset) State {
	state := State{
		ID:       uuid.NewString(),
		Original: question,
		Question: question,
	}
	log := p.log.With("request_id", state.ID)
	log.Info("Answering question", "question", question)

	var failure *Failure

	var normalized string
	err := p.stage(log, "normalize", func() error {
		var err error
		normalized, err = p.cfg.Normalizer.Normalize(question, ds)
		return err
	})
	if err != nil {
		failure = classify(err)
	} else {
		state.Question = normalized
	}

	if failure == nil {
		var value any
		if err := p.stage(log, "synthesize", func() error {
			var err error
			state.Expression, err = p.synthesize(ctx, log, state.Question, ds)
			return err
		}); err != nil {
			// The executor reproduces the synthesis failure.
			p.stage(log, "execute", func() error {
				_, execErr := p.cfg.Executor.Execute(ctx, "", ds, err)
				return execErr
			})
			failure = classify(err)
		} else if err := p.stage(log, "execute", func() error {
			var err error
			value, err = p.cfg.Executor.Execute(ctx, state.Expression, ds, nil)
			return err
		}); err != nil {
			failure = classify(err)
		} else {
			state.Result = Success(value)
		}
	}

	if failure != nil {
		state.Result = Result{Kind: ResultFailure, Failure: failure}
		log.Warn("Question failed", "kind", failure.Kind, "message", failure.Message)
	}

	p.stage(log, "format", func() error {
		state.Answer = p.format(state)
		return nil
	})
	if state.Answer == "" {
		state.Answer = format.Failure("internal error while formatting answer")
	}

	p.record(state)
	log.Info("Question answered", "outcome", state.Result.Kind, "expression", state.Expression)
	return state
}

func (p *Pipeline) synthesize(ctx context.Context, log *slog.Logger, question string, ds *dataset.Dataset) (string, error) {
	key := ds.Fingerprint() + "\x00" + question
	if p.cache != nil {
		if item := p.cache.Get(key); item != nil {
			log.Debug("Expression cache hit", "expression", item.Value())
			if p.cfg.Metrics != nil {
				p.cfg.Metrics.CacheHits.Inc()
			}
			return item.Value(), nil
		}
	}

	expression, err := p.cfg.Synthesizer.Synthesize(ctx, question, ds)
	if err != nil {
		return "", err
	}
	if p.cache != nil && expression != "" {
		p.cache.Set(key, expression, ttlcache.DefaultTTL)
	}
	return expression, nil
}

func (p *Pipeline) format(state State) string {
	if !state.Result.OK() {
		msg := ""
		if state.Result.Failure != nil {
			msg = state.Result.Failure.Message
		}
		return format.Failure(msg)
	}
	return format.Answer(state.Question, state.Result.Value)
}

// stage times fn and, when guarding is enabled, turns a panic into an
// internal failure.
func (p *Pipeline) stage(log *slog.Logger, name string, fn func() error) (err error) {
	start := p.cfg.Clock.Now()
	defer func() {
		if p.cfg.GuardPanics {
			if r := recover(); r != nil {
				log.Error("Stage panicked", "stage", name, "panic", r)
				err = &Failure{Kind: FailureInternal, Message: fmt.Sprintf("ERROR in %s: %v", name, r)}
			}
		}
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.StageDuration.WithLabelValues(name).Observe(p.cfg.Clock.Since(start).Seconds())
		}
	}()
	return fn()
}

func (p *Pipeline) record(state State) {
	if p.cfg.Metrics == nil {
		return
	}
	p.cfg.Metrics.QuestionsTotal.WithLabelValues(string(state.Result.Kind)).Inc()
	if state.Result.Failure != nil {
		p.cfg.Metrics.FailuresTotal.WithLabelValues(string(state.Result.Failure.Kind)).Inc()
	}
}
