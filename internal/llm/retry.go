package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type retryingCompleter struct {
	next    Completer
	retries uint
	backoff func() backoff.BackOff
	log     *slog.Logger
}

// WithRetry retries failed completions with exponential backoff. retries is
// the number of extra attempts after the first. ErrUnavailable is never retried.
func WithRetry(c Completer, retries uint, log *slog.Logger) Completer {
	if log == nil {
		log = slog.Default()
	}
	return &retryingCompleter{
		next:    c,
		retries: retries,
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:     log,
	}
}

func (r *retryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		if attempt > 1 {
			r.log.Warn("Completion failed, retrying", "attempt", attempt)
		}
		out, err := r.next.Complete(ctx, prompt)
		if err != nil && errors.Is(err, ErrUnavailable) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithBackOff(r.backoff()), backoff.WithMaxTries(r.retries+1))
}

type deadlineCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithDeadline bounds every call to c by timeout.
func WithDeadline(c Completer, timeout time.Duration) Completer {
	return &deadlineCompleter{next: c, timeout: timeout}
}

func (d *deadlineCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.next.Complete(ctx, prompt)
}
