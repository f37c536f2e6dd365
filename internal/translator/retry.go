package translator

import (
	"context"
	"time"

	"github.com/MimeLyc/dialogue-translator/internal/mask"
	"github.com/MimeLyc/dialogue-translator/pkg/log"
)

// RetryConfig bounds the exponential backoff around a backend call.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// WithRetry runs fn until it succeeds, returns a non-retryable error or the
// retries are used up.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay * time.Duration(1<<attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			log.Warn("Translation attempt %d failed, retry in %s: %v", attempt+1, delay, err)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}

// retrying wraps a Translator with WithRetry.
type retrying struct {
	next Translator
	cfg  RetryConfig
}

// NewRetrying adds bounded retries to next.
func NewRetrying(next Translator, cfg RetryConfig) Translator {
	return &retrying{next: next, cfg: cfg}
}

func (r *retrying) Translate(ctx context.Context, text string, opts Options, restore mask.Table) (string, error) {
	return WithRetry(ctx, r.cfg, func() (string, error) {
		return r.next.Translate(ctx, text, opts, restore)
	})
}
