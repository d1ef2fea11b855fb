package common

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryConfig controls the backoff used by Retry.
type RetryConfig struct {
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns 2 attempts starting at 300ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 300 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// Retry runs fn until it succeeds, returns a non-transient error or runs out of attempts.
// Status errors are never retried: the upstream answered, it just said no.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(cfg.MaxAttempts),
		retry.Delay(cfg.InitialDelay),
		retry.MaxDelay(cfg.MaxDelay),
		retry.RetryIf(IsTransientError),
		retry.LastErrorOnly(true),
	}
	// RandomDelay needs a positive jitter.
	if jitter := cfg.InitialDelay / 4; jitter > 0 {
		opts = append(opts,
			retry.MaxJitter(jitter),
			retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		)
	} else {
		opts = append(opts, retry.DelayType(retry.BackOffDelay))
	}
	return retry.Do(fn, opts...)
}

// IsTransientError returns true for network errors that may succeed on retry:
// timeouts, connection resets, EOF, TLS handshake failures.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "tls")
}
