package llm

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"
)

// retryWithBackoff runs op up to maxAttempts times, doubling baseDelay
// between attempts. Only errors the classifier marks retryable are
// retried; anything else fails immediately.
func retryWithBackoff(ctx context.Context, op func() error, retryable func(error) bool, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("embedding succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !retryable(lastErr) || attempt == maxAttempts {
			break
		}

		slog.Debug("embedding attempt failed, backing off", "attempt", attempt, "delay", delay, "err", lastErr)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}

// isRetryable reports whether an embedding provider error is a
// rate-limit or transient failure worth retrying. The provider client
// folds HTTP status into the error text, so classification is textual.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429", "rate limit", "too many requests",
		"500", "502", "503", "timeout", "connection reset",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
