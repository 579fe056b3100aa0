package secrets

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig configures retries of secret lookups
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig returns the backoff settings with a single attempt; callers opt in to retries
// by raising MaxAttempts
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   1,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// calculateDelay calculates the delay before the next attempt
func (c *RetryConfig) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))

	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	// Up to 10% jitter
	if c.JitterEnabled {
		delay += rand.Float64() * 0.1 * delay
	}

	return time.Duration(delay)
}

// RetryingResolver retries lookups that failed because the store was unavailable.
// Missing and invalid secrets are returned on the first attempt.
type RetryingResolver struct {
	resolver *Resolver
	config   *RetryConfig
	logger   *logrus.Logger
}

// NewRetryingResolver wraps resolver with retry logic
func NewRetryingResolver(resolver *Resolver, config *RetryConfig, logger *logrus.Logger) *RetryingResolver {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &RetryingResolver{
		resolver: resolver,
		config:   config,
		logger:   logger,
	}
}

// Resolve implements the resolver contract with retries on store unavailability
func (r *RetryingResolver) Resolve(ctx context.Context, secretID string) (*DatabaseConfig, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		dbConfig, err := r.resolver.Resolve(ctx, secretID)
		if err == nil {
			return dbConfig, nil
		}

		lastErr = err
		if attempt >= r.config.MaxAttempts || !IsStoreUnavailable(err) {
			break
		}

		delay := r.config.calculateDelay(attempt)
		r.logger.WithFields(logrus.Fields{
			"secret_id": secretID,
			"attempt":   attempt,
			"delay":     delay,
		}).WithError(err).Warn("Secret store unavailable, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
