package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/ctxlog"
)

// Run starts package engines, the core control loop and the HTTP server, and
// blocks until ctx is cancelled or the loop fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.core.StartEngines(ctx); err != nil {
		return fmt.Errorf("failed to start engines: %w", err)
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- a.core.Run(ctx) }()

	ctrl := a.core.Controller()
	if err := a.createGraphs(ctx, ctrl); err != nil {
		cancel()
		<-loopErr
		return err
	}
	if err := a.startServer(ctx, ctrl); err != nil {
		cancel()
		<-loopErr
		return err
	}
	close(a.ready)

	var err error
	select {
	case <-ctx.Done():
		err = <-loopErr
	case err = <-loopErr:
	}
	cancel()

	if closeErr := a.closeServer(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	a.logger.Debug("App.Run method finished.")
	return err
}

// createGraphs adds the configured graphs after the first, which the core
// created as its default.
func (a *App) createGraphs(ctx context.Context, ctrl *core.Controller) error {
	for i, name := range a.config.Graphs {
		if i == 0 {
			continue
		}
		created, err := core.Call[core.GraphCreated](ctx, ctrl, core.CreateGraph{Name: name})
		if err != nil {
			return fmt.Errorf("failed to create graph %q: %w", name, err)
		}
		a.logger.Debug("Graph created.", "graph", created.ID, "name", created.Name)
	}
	return nil
}
