package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/corray333/backend-labs/reservation/internal/otel"
	grpctransport "github.com/corray333/backend-labs/reservation/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/reservation/internal/transport/http"
	"github.com/corray333/backend-labs/reservation/internal/worker/outbox"
	"github.com/corray333/backend-labs/reservation/internal/worker/reconcile"
)

const shutdownTimeout = 10 * time.Second

// App represents the application.
type App struct {
	*core

	otel            *otel.OtelController
	httpTransport   *httptransport.HTTPTransport
	grpcTransport   *grpctransport.GRPCTransport
	reconcileWorker *reconcile.Worker
	outboxWorker    *outbox.Worker
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	grpcTransport := grpctransport.NewGRPCTransport()
	c := mustNewCore(grpcTransport.InventoryStateChanged)

	httpTransport := httptransport.NewHTTPTransport(c.orderSvc)
	httpTransport.RegisterRoutes()

	a := &App{
		core:            c,
		otel:            otelController,
		httpTransport:   httpTransport,
		grpcTransport:   grpcTransport,
		reconcileWorker: reconcile.NewWorker(c.orderRepo, c.orderSvc, c.cfg),
	}
	if c.broker != nil {
		a.outboxWorker = outbox.NewWorker(c.outboxRepo, c.broker)
	}

	return a
}

// Run starts the servers and workers.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		return a.grpcTransport.Run()
	})
	g.Go(func() error {
		a.reconcileWorker.Start(gctx)

		return nil
	})
	if a.outboxWorker != nil {
		g.Go(func() error {
			a.outboxWorker.Start(gctx)

			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")
		a.gracefulShutdown()

		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

// gracefulShutdown stops workers, then servers, then flushes traces and closes connections.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.reconcileWorker.Stop()
	if a.outboxWorker != nil {
		a.outboxWorker.Stop()
	}

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	if err := a.otel.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	a.close()
}
