// Package retry applies a bounded backoff policy at collaborator boundaries.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"DocDigest/internal/domain"
)

// Policy describes how often and how patiently a call is retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Retryable classifies errors; nil retries only domain.ErrTransient.
	Retryable func(error) bool
	Logger    *slog.Logger
}

// IsTransient is the default retry predicate.
func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
func (p Policy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	if p.Multiplier > 0 {
		exp.Multiplier = p.Multiplier
	}
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.Logger != nil {
			p.Logger.Warn("retrying call", "call", name, "error", err, "backoff", wait)
		}
	}

	return backoff.RetryNotify(wrapped, b, notify)
}
