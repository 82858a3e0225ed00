package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/httpapi"
)

// startServer binds the configured listen address and serves the HTTP API
// in the background. An empty address disables it.
func (a *App) startServer(ctx context.Context, ctrl *core.Controller) error {
	a.logger.Debug("Configuring HTTP server.")
	if a.config.Listen == "" {
		a.logger.Warn("HTTP server not started: disabled")
		return nil
	}

	ln, err := net.Listen("tcp", a.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.Listen, err)
	}
	a.addr = ln.Addr().String()

	a.httpServer = &http.Server{
		Handler: httpapi.NewHandler(ctrl, httpapi.Options{
			Logger:  a.logger,
			Metrics: a.metrics.Handler(),
		}),
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("🩺 HTTP server starting", "address", fmt.Sprintf("http://%s", a.addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeServer() error {
	if a.httpServer == nil {
		a.logger.Debug("HTTP server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("HTTP server shut down gracefully.")
	return nil
}
