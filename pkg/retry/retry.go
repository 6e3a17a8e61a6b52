// Package retry implements bounded exponential backoff for transient
// database failures. The connector backends wrap their reconnect paths in
// DoIfRetryable, which refuses to retry errors that look permanent (bad
// credentials, SQL syntax) and gives up early when the same failure class
// keeps repeating.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Config bounds the backoff loop.
type Config struct {
	MaxRetries       int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	JitterFactor     float64 // fraction of the delay randomized in both directions, 0 disables jitter
	MaxSameErrorType int     // consecutive same-class failures before giving up, 0 disables
}

// DefaultConfig is tuned for interactive database sessions: three retries
// starting at 100ms, doubling up to a 5s cap, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialDelay:     100 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		Multiplier:       2.0,
		JitterFactor:     0.1,
		MaxSameErrorType: 5,
	}
}

// RetryableError lets an error declare its own retry behavior instead of
// relying on string matching.
type RetryableError interface {
	error
	IsRetryable() bool
}

// backoff tracks the delay between attempts.
type backoff struct {
	cfg   *Config
	delay time.Duration
}

// wait sleeps for the current jittered delay and then grows it for the
// next round. Returns the context error when ctx ends mid-wait.
func (b *backoff) wait(ctx context.Context) error {
	d := b.delay
	if f := b.cfg.JitterFactor; f > 0 {
		d += time.Duration(float64(d) * f * (rand.Float64()*2 - 1))
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
		return ctx.Err()
	}

	b.delay = time.Duration(float64(b.delay) * b.cfg.Multiplier)
	if b.delay > b.cfg.MaxDelay {
		b.delay = b.cfg.MaxDelay
	}
	return nil
}

// DoIfRetryable runs fn up to 1+MaxRetries times, backing off between
// attempts while the returned error looks transient. Permanent failures
// return immediately without consuming the retry budget. When the same
// failure class repeats MaxSameErrorType times in a row the loop stops
// early and reports the repetition, so a server that keeps refusing
// connections fails fast instead of riding out every attempt.
func DoIfRetryable(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	bo := &backoff{cfg: cfg, delay: cfg.InitialDelay}
	var lastErr error
	var lastClass string
	repeats := 0

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}

		class := errorClass(err)
		if class == lastClass {
			repeats++
			if cfg.MaxSameErrorType > 0 && repeats >= cfg.MaxSameErrorType {
				return fmt.Errorf("repeated error (%d times, type=%s): %w", repeats, class, err)
			}
		} else {
			lastClass = class
			repeats = 1
		}

		if attempt < cfg.MaxRetries {
			if werr := bo.wait(ctx); werr != nil {
				return werr
			}
		}
	}

	return lastErr
}

// retryablePatterns are substrings of driver and network errors that
// indicate a transient condition. Matched case-insensitively against the
// full error text.
var retryablePatterns = []string{
	// Network errors
	"connection refused",
	"connection reset",
	"connection timed out",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"timeout",
	"timed out",
	"temporary failure",
	// Database driver errors
	"too many connections",
	"deadlock",
	"bad connection",
	"conn closed",
	"connection closed",
	"closed pool",
	"server is not accepting clients",
}

// IsRetryable reports whether err is worth retrying. Errors implementing
// RetryableError decide for themselves; everything else is matched against
// retryablePatterns. Unrecognized errors are treated as permanent so auth
// failures and malformed SQL never loop.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	text := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	return false
}

// errorClass buckets an error for repeat detection. Two errors in the
// same class count as the same ongoing failure even when their texts
// differ, such as two timeouts against different hosts.
func errorClass(err error) string {
	if err == nil {
		return "nil"
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "connection refused") || strings.Contains(text, "connection reset"):
		return "connection"
	case strings.Contains(text, "timeout") || strings.Contains(text, "timed out"):
		return "timeout"
	case strings.Contains(text, "broken pipe"):
		return "broken_pipe"
	case strings.Contains(text, "too many connections"):
		return "too_many_connections"
	case strings.Contains(text, "deadlock"):
		return "deadlock"
	case strings.Contains(text, "bad connection") || strings.Contains(text, "conn closed") ||
		strings.Contains(text, "connection closed") || strings.Contains(text, "closed pool"):
		return "bad_connection"
	default:
		return "unknown"
	}
}
