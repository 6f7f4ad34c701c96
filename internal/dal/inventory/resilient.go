package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"

	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

const fallbackMessage = "Failed to reserve stock after multiple attempts: "

type reserver interface {
	Reserve(ctx context.Context, req reservation.Request) (reservation.Outcome, error)
}

// Resilient wraps a reserver with retry, a circuit breaker and a fallback outcome.
type Resilient struct {
	reserver    reserver
	breaker     *gobreaker.CircuitBreaker[reservation.Outcome]
	cfg         config.Resilience
	callTimeout time.Duration
	listeners   []func(open bool)
}

type resilientOption func(*Resilient)

// WithStateListener registers fn to be told when the breaker opens or closes.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStateListener(fn func(open bool)) resilientOption {
	return func(r *Resilient) {
		if fn != nil {
			r.listeners = append(r.listeners, fn)
		}
	}
}

// NewResilient creates the wrapper. callTimeout bounds every single attempt.
// Invalid settings and a non-positive callTimeout fall back to the defaults.
func NewResilient(
	inner reserver,
	cfg config.Resilience,
	callTimeout time.Duration,
	opts ...resilientOption,
) *Resilient {
	cfg = cfg.WithDefaults()
	if callTimeout <= 0 {
		callTimeout = config.DefaultReservation().CallTimeout
	}

	r := &Resilient{
		reserver:    inner,
		cfg:         cfg,
		callTimeout: callTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.breaker = gobreaker.NewCircuitBreaker[reservation.Outcome](gobreaker.Settings{
		Name:        "inventory",
		MaxRequests: cfg.BreakerHalfOpen,
		Interval:    cfg.BreakerWindow,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		OnStateChange: r.stateChanged,
		IsSuccessful: func(err error) bool {
			return err == nil || !reservation.IsRetryable(err)
		},
	})

	return r
}

// Open reports whether calls are currently short-circuited.
func (r *Resilient) Open() bool {
	return r.breaker.State() == gobreaker.StateOpen
}

// Reserve asks the inventory service to reserve stock for o.
// It returns a degraded failed outcome with a nil error when retries are exhausted
// or the breaker is open; client faults are returned as *reservation.CallError.
func (r *Resilient) Reserve(ctx context.Context, o *order.Order) (reservation.Outcome, error) {
	ctx, span := otel.Tracer("inventory-client").Start(ctx, "Resilient.Reserve")
	defer span.End()

	req := reservation.NewRequest(o)

	var outcome reservation.Outcome
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		res, err := r.breaker.Execute(func() (reservation.Outcome, error) {
			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			return r.reserver.Reserve(callCtx, req)
		})
		if err == nil {
			outcome = res

			return nil
		}

		if isBreakerRejection(err) || !reservation.IsRetryable(err) {
			return err
		}

		slog.WarnContext(ctx, "Inventory call failed, retrying", "order_id", o.ID, "error", err)

		return retry.RetryableError(err)
	})
	if err == nil {
		return outcome, nil
	}

	var callErr *reservation.CallError
	if errors.As(err, &callErr) && !callErr.Retryable {
		return reservation.Outcome{}, err
	}

	slog.ErrorContext(ctx, "All retries exhausted for reserving stock", "order_id", o.ID, "error", err)

	return fallback(o, err), nil
}

func (r *Resilient) backoff() retry.Backoff {
	b := retry.NewExponential(r.cfg.RetryBaseBackoff)
	b = retry.WithCappedDuration(r.cfg.RetryMaxBackoff, b)

	return retry.WithMaxRetries(uint64(r.cfg.RetryMaxAttempts-1), b)
}

func (r *Resilient) stateChanged(name string, from, to gobreaker.State) {
	slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())

	for _, fn := range r.listeners {
		fn(to == gobreaker.StateOpen)
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func fallback(o *order.Order, err error) reservation.Outcome {
	return reservation.Outcome{
		OrderID:  o.ID,
		Success:  false,
		Message:  fallbackMessage + err.Error(),
		Degraded: true,
	}
}
