// Package supervisor drives a full rebalance-or-deposit cycle to completion
// with a bounded exponential-backoff retry loop.
package supervisor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultInitialBackoff = 5 * time.Second
	defaultMaxAttempts    = 3
)

// Supervisor re-executes a cycle on failure, doubling the backoff between
// attempts. One successful cycle terminates the loop: this is a single-shot
// batch job, external scheduling re-invokes the process.
type Supervisor struct {
	initialBackoff time.Duration
	maxAttempts    int
	noRetry        []error
	logger         *zap.Logger
}

// Option configures the Supervisor.
type Option func(*Supervisor)

// WithInitialBackoff sets the backoff before the second attempt.
func WithInitialBackoff(d time.Duration) Option {
	return func(s *Supervisor) {
		s.initialBackoff = d
	}
}

// WithMaxAttempts sets the total attempt budget.
func WithMaxAttempts(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithNoRetry registers sentinel errors that fail the run immediately.
func WithNoRetry(errs ...error) Option {
	return func(s *Supervisor) {
		s.noRetry = append(s.noRetry, errs...)
	}
}

// New creates a Supervisor with default values and optional overrides.
func New(logger *zap.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		initialBackoff: defaultInitialBackoff,
		maxAttempts:    defaultMaxAttempts,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes fn until it succeeds or the attempt budget is exhausted.
func (s *Supervisor) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := s.initialBackoff

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.Info("starting attempt",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.maxAttempts))

		err = fn(ctx)
		if err == nil {
			return nil
		}

		for _, sentinel := range s.noRetry {
			if errors.Is(err, sentinel) {
				return err
			}
		}

		s.logger.Error("cycle failed",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		if attempt == s.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return errors.Wrapf(err, "giving up after %d attempts", s.maxAttempts)
}
