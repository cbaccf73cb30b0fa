// Package query evaluates generated expressions against an attendance dataset.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"attendq/internal/dataset"
)

// Engine evaluates one expression against a dataset.
type Engine interface {
	Name() string
	Eval(ctx context.Context, expression string, ds *dataset.Dataset) (any, error)
}

// ExecutionError reports a fault raised while evaluating an expression.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return "ERROR executing code: " + e.Message
}

const noExpression = "no expression generated"

// Executor runs expressions through an Engine with the dataset bound to df.
type Executor struct {
	engine Engine
	log    *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default().
func NewExecutor(engine Engine, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{engine: engine, log: log}
}

// Engine returns the underlying engine.
func (x *Executor) Engine() Engine { return x.engine }

// Execute evaluates expression against a private copy of ds. When expression
// is empty it returns prior, or a generic fault if prior is nil. Every other
// failure, panics included, is returned as *ExecutionError.
func (x *Executor) Execute(ctx context.Context, expression string, ds *dataset.Dataset, prior error) (result any, err error) {
	if strings.TrimSpace(expression) == "" {
		if prior != nil {
			return nil, prior
		}
		return nil, &ExecutionError{Message: noExpression}
	}
	if ds == nil {
		return nil, &ExecutionError{Message: "no dataset loaded"}
	}

	defer func() {
		if r := recover(); r != nil {
			x.log.Error("Expression evaluation panicked", "engine", x.engine.Name(), "panic", r)
			result = nil
			err = &ExecutionError{Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	result, err = x.engine.Eval(ctx, expression, ds.Clone())
	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			return nil, execErr
		}
		x.log.Warn("Expression evaluation failed", "engine", x.engine.Name(), "expression", expression, "error", err)
		return nil, &ExecutionError{Message: err.Error()}
	}
	return result, nil
}
