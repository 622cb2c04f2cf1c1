package validators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"pagecheck/pkg/profile"
)

// RetryStrategy defines how the delay grows between attempts.
type RetryStrategy string

const (
	// RetryStrategyFixed uses a fixed delay between retries
	RetryStrategyFixed RetryStrategy = "fixed"

	// RetryStrategyExponential doubles the delay on every attempt up to MaxDelay
	RetryStrategyExponential RetryStrategy = "exponential"

	// RetryStrategyLinear uses linearly increasing delay between retries
	RetryStrategyLinear RetryStrategy = "linear"
)

// RetryConfig holds the retry policy for a remote validator. The zero value
// never retries.
type RetryConfig struct {
	MaxRetries int
	Strategy   RetryStrategy
	Delay      time.Duration
	MaxDelay   time.Duration
	// Jitter is the fraction of the delay that is randomized.
	Jitter float64
}

// DefaultRetryConfig returns the policy used when a profile asks for retries
// without naming a delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Strategy: RetryStrategyExponential,
		Delay:    time.Second,
		MaxDelay: 30 * time.Second,
		Jitter:   0.2,
	}
}

// RetryConfigFrom converts the profile's retry settings.
func RetryConfigFrom(cfg profile.ValidatorConfig) (RetryConfig, error) {
	config := DefaultRetryConfig()
	config.MaxRetries = cfg.Retries
	if cfg.RetryDelay != "" {
		delay, err := time.ParseDuration(cfg.RetryDelay)
		if err != nil {
			return config, fmt.Errorf("invalid retry delay format: %w", err)
		}
		config.Delay = delay
	}
	return config, nil
}

// statusError is a non-200 answer from a remote validator.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("validator returned HTTP %d: %s", e.Code, e.Body)
}

// retryable reports whether err is worth another attempt: transport errors,
// 429 and 5xx answers. Cancellation and malformed responses are final.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var te *transportError
	return errors.As(err, &te)
}

// transportError marks a request that never produced a response.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return fmt.Sprintf("validator request failed: %v", e.err) }
func (e *transportError) Unwrap() error { return e.err }

// calculateRetryDelay calculates the delay before the next retry attempt
func (c RetryConfig) calculateRetryDelay(attempt int) time.Duration {
	delay := float64(c.Delay)
	maxDelay := float64(c.MaxDelay)
	if maxDelay <= 0 {
		maxDelay = math.MaxInt64
	}

	switch c.Strategy {
	case RetryStrategyExponential:
		delay = math.Min(delay*math.Pow(2, float64(attempt)), maxDelay)
	case RetryStrategyLinear:
		delay = math.Min(delay*float64(attempt+1), maxDelay)
	}

	if c.Jitter > 0 {
		jitterRange := delay * c.Jitter
		delay = delay - (jitterRange / 2) + (rand.Float64() * jitterRange)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// do runs fn until it succeeds, returns a final error, or the retries are
// used up. The wait between attempts is cut short by ctx.
func (c RetryConfig) do(ctx context.Context, name string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if attempt >= c.MaxRetries || !retryable(err) {
			return err
		}

		delay := c.calculateRetryDelay(attempt)
		slog.Warn("Retrying validator request",
			"validator", name,
			"attempt", attempt+1,
			"max_retries", c.MaxRetries,
			"delay", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
