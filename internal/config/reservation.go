package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	defaultMaxAttempts = 5
	defaultMaxRetryAge = 60 * time.Minute
	defaultRetryDelay  = 30 * time.Second
	defaultSweepPeriod = 60 * time.Second
	defaultCallTimeout = 3 * time.Second

	defaultRetryMaxAttempts    = 3
	defaultRetryBaseBackoff    = 500 * time.Millisecond
	defaultRetryMaxBackoff     = 5 * time.Second
	defaultBreakerFailureRatio = 0.5
	defaultBreakerMinRequests  = 10
	defaultBreakerWindow       = 60 * time.Second
	defaultBreakerOpenTimeout  = 30 * time.Second
	defaultBreakerHalfOpen     = 3
)

// Reservation holds the attempt, age and timing policy of the reservation workflow.
type Reservation struct {
	MaxAttempts int
	MaxRetryAge time.Duration
	RetryDelay  time.Duration
	SweepPeriod time.Duration
	CallTimeout time.Duration
	// SweepBatchSize limits orders per sweep; zero means unlimited.
	SweepBatchSize int
}

// Resilience configures the retry loop and circuit breaker around inventory calls.
type Resilience struct {
	RetryMaxAttempts int
	RetryBaseBackoff time.Duration
	RetryMaxBackoff  time.Duration

	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerWindow       time.Duration
	BreakerOpenTimeout  time.Duration
	BreakerHalfOpen     uint32
}

// DefaultReservation returns the built-in reservation policy.
func DefaultReservation() Reservation {
	return Reservation{
		MaxAttempts: defaultMaxAttempts,
		MaxRetryAge: defaultMaxRetryAge,
		RetryDelay:  defaultRetryDelay,
		SweepPeriod: defaultSweepPeriod,
		CallTimeout: defaultCallTimeout,
	}
}

// DefaultResilience returns the built-in retry and breaker settings.
func DefaultResilience() Resilience {
	return Resilience{
		RetryMaxAttempts:    defaultRetryMaxAttempts,
		RetryBaseBackoff:    defaultRetryBaseBackoff,
		RetryMaxBackoff:     defaultRetryMaxBackoff,
		BreakerFailureRatio: defaultBreakerFailureRatio,
		BreakerMinRequests:  defaultBreakerMinRequests,
		BreakerWindow:       defaultBreakerWindow,
		BreakerOpenTimeout:  defaultBreakerOpenTimeout,
		BreakerHalfOpen:     defaultBreakerHalfOpen,
	}
}

// LoadReservation reads the reservation policy from viper.
// Non-positive values are replaced by defaults.
func LoadReservation() Reservation {
	cfg := Reservation{
		MaxAttempts:    viper.GetInt("order_service.scheduler.max_attempts"),
		MaxRetryAge:    time.Duration(viper.GetInt("order_service.scheduler.max_retry_minutes")) * time.Minute,
		RetryDelay:     time.Duration(viper.GetInt("order_service.scheduler.retry_delay_seconds")) * time.Second,
		SweepPeriod:    time.Duration(viper.GetInt("order_service.scheduler.retry_rate_ms")) * time.Millisecond,
		CallTimeout:    time.Duration(viper.GetInt("inventory.timeout_ms")) * time.Millisecond,
		SweepBatchSize: viper.GetInt("order_service.scheduler.batch_size"),
	}

	return cfg.withDefaults()
}

func (c Reservation) withDefaults() Reservation {
	def := DefaultReservation()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.MaxRetryAge <= 0 {
		c.MaxRetryAge = def.MaxRetryAge
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.SweepPeriod <= 0 {
		c.SweepPeriod = def.SweepPeriod
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.SweepBatchSize < 0 {
		c.SweepBatchSize = 0
	}

	return c
}

// LoadResilience reads the retry and breaker settings from viper.
// Invalid values are replaced by defaults.
func LoadResilience() Resilience {
	cfg := Resilience{
		RetryMaxAttempts:    viper.GetInt("inventory.retry.max_attempts"),
		RetryBaseBackoff:    time.Duration(viper.GetInt("inventory.retry.base_backoff_ms")) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(viper.GetInt("inventory.retry.max_backoff_ms")) * time.Millisecond,
		BreakerFailureRatio: viper.GetFloat64("inventory.breaker.failure_ratio"),
		BreakerMinRequests:  viper.GetUint32("inventory.breaker.min_requests"),
		BreakerWindow:       time.Duration(viper.GetInt("inventory.breaker.window_seconds")) * time.Second,
		BreakerOpenTimeout:  time.Duration(viper.GetInt("inventory.breaker.open_timeout_seconds")) * time.Second,
		BreakerHalfOpen:     viper.GetUint32("inventory.breaker.half_open_requests"),
	}

	return cfg.WithDefaults()
}

// WithDefaults replaces invalid values with the built-in ones.
func (c Resilience) WithDefaults() Resilience {
	def := DefaultResilience()
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if c.RetryBaseBackoff <= 0 {
		c.RetryBaseBackoff = def.RetryBaseBackoff
	}
	if c.RetryMaxBackoff < c.RetryBaseBackoff {
		c.RetryMaxBackoff = max(def.RetryMaxBackoff, c.RetryBaseBackoff)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerWindow <= 0 {
		c.BreakerWindow = def.BreakerWindow
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if c.BreakerHalfOpen == 0 {
		c.BreakerHalfOpen = def.BreakerHalfOpen
	}

	return c
}
