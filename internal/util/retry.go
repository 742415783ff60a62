package util

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryWithBackoff calls fn up to maxRetries+1 times with exponential
// backoff doubling from one second. fn receives the 0-indexed attempt
// number and should return nil on success. Page navigations are the
// main caller: they fail transiently when LinkedIn throttles or the
// network hiccups, and a short backoff usually clears it.
// A cancelled context short-circuits the wait.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		backoff := time.Duration(1<<attempt) * time.Second
		slog.Debug("Attempt failed, backing off", "attempt", attempt, "backoff", backoff, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
