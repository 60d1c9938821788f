package fetch

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// permanent wraps errors that retrying cannot fix: quota exhaustion,
// undersized renders, HTTP 4xx.
func permanent(err error) error {
	if errors.Is(err, ErrQuotaExhausted) || errors.Is(err, ErrContentTooSmall) {
		return backoff.Permanent(err)
	}
	return err
}

// newBackOff returns the shared retry policy: exponential from 1s, doubling,
// capped at maxRetries additional attempts.
func newBackOff(maxRetries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.MaxInterval = 30 * time.Second
	return backoff.WithMaxRetries(b, maxRetries)
}
