package upstream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// withRetry runs fn up to retries+1 times with exponential, jittered backoff.
// Errors that shouldRetry rejects end the loop immediately.
func (c *Client) withRetry(ctx context.Context, path string, fn func() ([]byte, error)) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		body, err := fn()
		if err != nil && !shouldRetry(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Debug().Err(err).Str("path", path).Int("attempt", attempt).Dur("wait", wait).Msg("Retrying upstream request")
		}),
	)
}

func (c *Client) newBackOff() backoff.BackOff {
	if c.retryWait <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.RandomizationFactor = 0.2
	b.Multiplier = 2
	b.MaxInterval = 16 * c.retryWait
	return b
}

// shouldRetry treats network errors, 429 and 5xx as transient.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}
