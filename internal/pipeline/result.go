package pipeline

import (
	"errors"

	"attendq/internal/datenorm"
	"attendq/internal/format"
	"attendq/internal/query"
	"attendq/internal/synth"
)

// ResultKind tags a Result.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultFailure ResultKind = "failure"
)

// FailureKind classifies why a question could not be answered.
type FailureKind string

const (
	FailureFutureDate     FailureKind = "future_date"
	FailureUnknownDate    FailureKind = "unknown_date"
	FailureLLMUnavailable FailureKind = "llm_unavailable"
	FailureSynthesis      FailureKind = "synthesis"
	FailureExecution      FailureKind = "execution"
	FailureInternal       FailureKind = "internal"
)

// Failure is the failure variant of a Result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string { return f.Message }

// Result is either a value or a failure, never both.
type Result struct {
	Kind    ResultKind `json:"kind"`
	Value   any        `json:"value,omitempty"`
	Failure *Failure   `json:"failure,omitempty"`
}

// Success wraps a value.
func Success(v any) Result {
	return Result{Kind: ResultSuccess, Value: v}
}

// Failed builds a failure result.
func Failed(kind FailureKind, message string) Result {
	return Result{Kind: ResultFailure, Failure: &Failure{Kind: kind, Message: message}}
}

// OK reports whether r is a success.
func (r Result) OK() bool { return r.Kind == ResultSuccess }

// classify maps a stage error onto the failure taxonomy. Messages keep the
// textual markers users already know: a warning sign for bad dates, an ERROR
// prefix for evaluation faults.
func classify(err error) *Failure {
	var (
		future      *datenorm.FutureDateError
		unknown     *datenorm.UnknownDateError
		unavailable *synth.LLMUnavailableError
		synthErr    *synth.SynthesisError
		execErr     *query.ExecutionError
		failure     *Failure
	)
	switch {
	case errors.As(err, &failure):
		return failure
	case errors.As(err, &future):
		return &Failure{Kind: FailureFutureDate, Message: format.WarningMarker + " " + future.Error()}
	case errors.As(err, &unknown):
		return &Failure{Kind: FailureUnknownDate, Message: format.WarningMarker + " " + unknown.Error()}
	case errors.As(err, &unavailable):
		return &Failure{Kind: FailureLLMUnavailable, Message: unavailable.Error()}
	case errors.As(err, &synthErr):
		return &Failure{Kind: FailureSynthesis, Message: synthErr.Error()}
	case errors.As(err, &execErr):
		return &Failure{Kind: FailureExecution, Message: execErr.Error()}
	default:
		return &Failure{Kind: FailureInternal, Message: "ERROR: " + err.Error()}
	}
}
