package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start launches the API and SSE listeners. The returned channel is closed
// once a termination signal arrives.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	a.listen("http", a.httpServer)
	if a.sseServer.Addr != "" {
		a.listen("sse", a.sseServer)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sig)

		got := <-sig
		slog.Info("termination signal received", "signal", got.String())

		if a.cancel != nil {
			a.cancel()
		}
		close(done)
	}()

	return done
}

func (a *App) listen(name string, srv *http.Server) {
	go func() {
		slog.Info("server listening", "server", name, "address", srv.Addr)

		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped unexpectedly", "server", name, "error", err)
			os.Exit(1)
		}
	}()
}

// Stop shuts the listeners first so no scan arrives while terminals, brokers
// and stores close. Closers then run in registration order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server shutdown failed", "server", "http", "error", err)
	}
	if err := a.sseServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server shutdown failed", "server", "sse", "error", err)
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background task failed", "error", err)
	}
	slog.InfoContext(ctx, "background tasks drained")

	for _, c := range a.closers {
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resource", "name", c.name, "error", err)
		}
	}

	slog.InfoContext(ctx, "gatepass stopped")
}
