package llm

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math"
	"math/big"
	"time"
)

// RetryPolicy bounds the backoff/attempt loop applied to retryable failures
// of the request-send step. Once a stream has begun yielding chunks, no part
// of the core retries; re-issuing a partially consumed generation would
// duplicate output.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the first backoff; it doubles each attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff.
	MaxDelay time.Duration

	// Jitter is the +/- fraction applied to each sleep (0 disables).
	Jitter float64
}

// DefaultRetryPolicy allows three attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Jitter:     0.2,
	}
}

// Retry runs op under the policy. Only errors whose kind is retryable are
// retried; everything else (including errors that are not a *ProviderError)
// returns immediately. When a rate-limit error carries a RetryAfter, that
// value overrides the computed backoff for the next attempt. The final
// error is returned unmodified.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		pe, ok := AsProviderError(err)
		if !ok || !pe.IsRetryable() || attempt == attempts {
			return zero, err
		}

		sleep := policy.backoff(attempt - 1)
		if pe.Kind == ErrKindRateLimited && pe.RetryAfter > 0 {
			sleep = pe.RetryAfter
		}
		if logger != nil {
			logger.Debug("llm retry", "attempt", attempt, "sleep", sleep, "kind", pe.Kind, "err", err)
		}

		select {
		case <-ctx.Done():
			return zero, lastErr
		case <-time.After(sleep):
		}
	}

	return zero, lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	max := p.MaxDelay
	if max <= 0 {
		max = 2 * time.Second
	}

	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > max {
		d = max
	}
	return time.Duration(float64(d) * (1 + jitter(p.Jitter)))
}

func jitter(maxFrac float64) float64 {
	if maxFrac <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return 0
	}
	return (float64(n.Int64())/1000.0)*maxFrac - maxFrac/2
}
