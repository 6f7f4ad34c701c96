package app

import (
	"context"

	"github.com/corray333/backend-labs/reservation/internal/otel"
	"github.com/corray333/backend-labs/reservation/internal/worker/reconcile"
)

// Sweeper runs a single reconciliation sweep outside the server.
type Sweeper struct {
	*core

	otel   *otel.OtelController
	worker *reconcile.Worker
}

// MustNewSweeper wires the components a sweep needs.
func MustNewSweeper() *Sweeper {
	otelController := otel.MustInitOtel()
	c := mustNewCore(nil)

	return &Sweeper{
		core:   c,
		otel:   otelController,
		worker: reconcile.NewWorker(c.orderRepo, c.orderSvc, c.cfg),
	}
}

// Run performs one sweep and releases all connections.
func (s *Sweeper) Run(ctx context.Context) reconcile.Report {
	defer s.close()
	defer func() {
		_ = s.otel.Shutdown(context.WithoutCancel(ctx))
	}()

	return s.worker.Sweep(ctx)
}
