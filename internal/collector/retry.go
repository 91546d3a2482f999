package collector

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// retryConfig controls how network failures are retried.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// retryOp runs fn until it succeeds, returns a non-retryable error, the
// retries are exhausted or ctx is done.
func retryOp(ctx context.Context, cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var fe *FetchError
		if !errors.As(lastErr, &fe) || !fe.Retryable() {
			return lastErr
		}
		if attempt == cfg.maxRetries {
			break
		}

		timer := time.NewTimer(backoffDelay(cfg, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

// backoffDelay is baseDelay * 2^attempt capped at maxDelay, plus up to
// baseDelay of jitter.
func backoffDelay(cfg retryConfig, attempt int) time.Duration {
	if cfg.baseDelay <= 0 {
		return 0
	}
	delay := cfg.baseDelay << uint(attempt)
	if cfg.maxDelay > 0 && delay > cfg.maxDelay {
		delay = cfg.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(cfg.baseDelay)))
	return delay + jitter
}
