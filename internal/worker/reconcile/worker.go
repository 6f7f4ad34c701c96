package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

type orderFinder interface {
	FindByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error)
}

type orderService interface {
	ProcessOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, reason string) (*order.Order, error)
}

// Report summarizes one sweep.
type Report struct {
	Scanned   int
	Processed int
	Expired   int
	Exhausted int
	Skipped   int
	Failed    int
}

// Worker periodically re-drives orders stuck in PENDING_RESERVING_STOCK.
type Worker struct {
	orders   orderFinder
	service  orderService
	cfg      config.Reservation
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

type option func(*Worker)

// WithClock replaces time.Now.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(w *Worker) {
		w.now = now
	}
}

// NewWorker creates a new reconciliation worker.
func NewWorker(orders orderFinder, service orderService, cfg config.Reservation, opts ...option) *Worker {
	w := &Worker{
		orders:  orders,
		service: service,
		cfg:     cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start runs a sweep every SweepPeriod until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SweepPeriod)
	defer ticker.Stop()

	slog.Info("Reconciliation worker started",
		"period", w.cfg.SweepPeriod,
		"max_attempts", w.cfg.MaxAttempts,
		"max_retry_age", w.cfg.MaxRetryAge,
		"retry_delay", w.cfg.RetryDelay,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Reconciliation worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Reconciliation worker stopped")

			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Sweep evaluates every in-flight order once. Errors are logged per order and never abort the sweep.
func (w *Worker) Sweep(ctx context.Context) Report {
	ctx, span := otel.Tracer("worker").Start(ctx, "Reconcile.Sweep")
	defer span.End()

	var report Report

	pending, err := w.orders.FindByStatus(ctx, order.StatusPendingReservingStock, w.cfg.SweepBatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get pending orders", "error", err)

		return report
	}

	report.Scanned = len(pending)
	for _, o := range pending {
		if ctx.Err() != nil {
			break
		}

		w.reconcile(ctx, o, &report)
	}

	span.SetAttributes(
		attribute.Int("sweep.scanned", report.Scanned),
		attribute.Int("sweep.processed", report.Processed),
		attribute.Int("sweep.failed", report.Failed),
	)

	if report.Scanned > 0 {
		slog.InfoContext(ctx, "Reconciliation sweep finished",
			"scanned", report.Scanned,
			"processed", report.Processed,
			"expired", report.Expired,
			"exhausted", report.Exhausted,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}

	return report
}

func (w *Worker) reconcile(ctx context.Context, o *order.Order, report *Report) {
	defer func() {
		if r := recover(); r != nil {
			report.Failed++
			slog.ErrorContext(ctx, "Order reconciliation panicked", "order_id", o.ID, "error", fmt.Errorf("%v", r))
		}
	}()

	now := w.now()

	switch {
	case now.Sub(o.UpdatedAt) > w.cfg.MaxRetryAge:
		if w.invalidate(ctx, o, order.ReasonMaxRetryAge) {
			report.Expired++
		} else {
			report.Failed++
		}
	case o.ReservationAttempts >= w.cfg.MaxAttempts:
		if w.invalidate(ctx, o, order.ReasonMaxAttempts) {
			report.Exhausted++
		} else {
			report.Failed++
		}
	case o.LastReservationAttempt != nil && now.Sub(*o.LastReservationAttempt) < w.cfg.RetryDelay:
		report.Skipped++
	default:
		if _, err := w.service.ProcessOrder(ctx, o.ID); err != nil {
			report.Failed++
			slog.ErrorContext(ctx, "Failed to process pending order", "order_id", o.ID, "error", err)

			return
		}
		report.Processed++
	}
}

func (w *Worker) invalidate(ctx context.Context, o *order.Order, reason string) bool {
	if _, err := w.service.UpdateOrderStatus(ctx, o.ID, order.StatusInvalid, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate order", "order_id", o.ID, "reason", reason, "error", err)

		return false
	}

	slog.WarnContext(ctx, "Order invalidated by reconciliation",
		"order_id", o.ID,
		"attempt", o.ReservationAttempts,
		"reason", reason,
	)

	return true
}
