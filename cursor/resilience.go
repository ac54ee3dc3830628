package cursor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// RetryConfig configures WithRetry.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per page (including the first).
	MaxAttempts uint64 `mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `mapstructure:"max_backoff"`
	// RetryIf decides whether an error is worth retrying.
	RetryIf func(error) bool `mapstructure:"-"`
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context cancellation and
// AppErrors explicitly marked as not retryable.
func DefaultRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

func (c *RetryConfig) applyDefaults() {
	def := DefaultRetryConfig()
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.RetryIf == nil {
		c.RetryIf = def.RetryIf
	}
}

// WithRetry retries failed page fetches with exponential backoff. The cursor
// never sees a failure until every attempt for that page has failed.
func WithRetry[T any](fetch PageFetcher[T], cfg RetryConfig, log *logger.Logger) PageFetcher[T] {
	cfg.applyDefaults()
	if log == nil {
		log = logger.Get("cursor")
	}

	return func(ctx context.Context, token string) (Page[T], error) {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = cfg.InitialBackoff
		eb.MaxInterval = cfg.MaxBackoff
		eb.MaxElapsedTime = 0
		b := backoff.WithContext(backoff.WithMaxRetries(eb, cfg.MaxAttempts-1), ctx)

		attempt := 0
		op := func() (Page[T], error) {
			attempt++
			page, err := fetch(ctx, token)
			if err != nil && !cfg.RetryIf(err) {
				return page, backoff.Permanent(err)
			}
			return page, err
		}
		notify := func(err error, wait time.Duration) {
			log.Warn("page fetch failed, retrying", logger.Fields(
				"attempt", attempt,
				logger.FieldError, err.Error(),
				"backoff", wait.String(),
			))
		}
		return backoff.RetryNotifyWithData(op, b, notify)
	}
}

// BreakerConfig configures WithBreaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string `mapstructure:"name"`
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32 `mapstructure:"max_failures"`
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration `mapstructure:"timeout"`
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32 `mapstructure:"half_open_requests"`
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// WithBreaker fails page fetches fast while the backing store keeps failing.
// An open breaker surfaces as a retryable CONNECTION_FAILED error.
func WithBreaker[T any](fetch PageFetcher[T], cfg BreakerConfig, log *logger.Logger) PageFetcher[T] {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if log == nil {
		log = logger.Get("cursor")
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("page fetch breaker state changed", logger.Fields(
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			))
		},
	})

	return func(ctx context.Context, token string) (Page[T], error) {
		out, err := cb.Execute(func() (interface{}, error) {
			return fetch(ctx, token)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return Page[T]{}, errors.ConnectionFailed(cfg.Name, err)
			}
			return Page[T]{}, err
		}
		return out.(Page[T]), nil
	}
}
