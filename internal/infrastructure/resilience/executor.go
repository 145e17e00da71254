// Package resilience retries recognizer calls and trips a circuit breaker
// when a backend keeps failing.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Hooks customise an Executor. A nil Classify falls back to ClassifyHTTP.
type Hooks struct {
	Classify      ErrorClassifier
	OnStateChange func(backend, state string)
	Logger        *slog.Logger
}

// Executor guards the calls to a single recognizer backend. Its breaker is
// shared by every call, so one failing model server stops all extraction
// requests routed to it.
type Executor struct {
	backend  string
	policy   Policy
	classify ErrorClassifier
	logger   *slog.Logger
	breaker  *gobreaker.CircuitBreaker[any]
}

func NewExecutor(backend string, policy Policy, hooks Hooks) *Executor {
	if backend == "" {
		backend = "unknown"
	}
	if hooks.Classify == nil {
		hooks.Classify = ClassifyHTTP
	}
	if hooks.Logger == nil {
		hooks.Logger = slog.Default()
	}

	e := &Executor{
		backend:  backend,
		policy:   policy.normalize(),
		classify: hooks.Classify,
		logger:   hooks.Logger,
	}
	if e.policy.Breaker {
		e.breaker = e.newBreaker(hooks.OnStateChange)
	}
	return e
}

func (e *Executor) Backend() string { return e.backend }

func (e *Executor) Execute(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: %s callback is nil", e.backend)
	}
	if e.breaker == nil {
		return e.retry(ctx, fn)
	}
	_, err := e.breaker.Execute(func() (any, error) {
		return nil, e.retry(ctx, fn)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, fn func(context.Context) error) error {
	backoff := e.policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := e.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if attempt >= e.policy.Attempts || !e.classify(err).Retryable {
			return err
		}

		wait := min(backoff, e.policy.MaxBackoff)
		e.logger.Warn("ocr_retry_attempt",
			"backend", e.backend,
			"attempt", attempt,
			"max_attempts", e.policy.Attempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
		backoff = min(time.Duration(float64(backoff)*e.policy.Multiplier), e.policy.MaxBackoff)
	}
}

func (e *Executor) attempt(ctx context.Context, fn func(context.Context) error) error {
	if e.policy.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, e.policy.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

// Call runs fn through e and returns its value. A nil executor calls fn once.
func Call[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var out T
	if e == nil {
		return fn(ctx)
	}
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (e *Executor) newBreaker(onStateChange func(backend, state string)) *gobreaker.CircuitBreaker[any] {
	p := e.policy
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "ocr." + e.backend,
		MaxRequests: p.BreakerProbeCalls,
		Timeout:     p.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < p.BreakerMinCalls {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= p.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !e.classify(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("ocr_breaker_state_change", "backend", e.backend, "from", from.String(), "to", to.String())
			if onStateChange != nil {
				onStateChange(e.backend, to.String())
			}
		},
	})
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
