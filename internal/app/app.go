package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/patchbay/internal/config"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/ctxlog"
	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger   *slog.Logger
	config   *config.Config
	registry *registry.Registry
	metrics  *metrics.Registry
	core     *core.Core

	httpServer *http.Server
	ready      chan struct{}
	addr       string
}

// NewApp loads configuration, registers modules and builds the core. With
// no modules given, the compiled-in set is used.
func NewApp(ctx context.Context, outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	cfg, err := config.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	appConfig.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Configuration loaded.", "graphs", cfg.Graphs, "packages", len(cfg.Packages))

	reg := registry.New(cfg.Packages)
	if len(modules) == 0 {
		modules = defaultModules(reg)
	}
	if err := reg.Register(modules...); err != nil {
		return nil, err
	}
	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("All modules registered.", "count", len(modules))

	m := metrics.New()
	opts := core.Options{
		InvokeTimeout: cfg.InvokeTimeout,
		MaxChainSteps: cfg.MaxChainSteps,
		EventBuffer:   cfg.EventBuffer,
		RequestBuffer: cfg.RequestBuffer,
		Logger:        logger,
		Metrics:       m,
	}
	if len(cfg.Graphs) > 0 {
		opts.DefaultGraph = cfg.Graphs[0]
	}
	c := core.New(opts)
	for _, pkg := range reg.Packages() {
		if err := c.RegisterPackage(pkg); err != nil {
			return nil, err
		}
	}

	return &App{
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  m,
		core:     c,
		ready:    make(chan struct{}),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Ready is closed once Run has started the loop, created the configured
// graphs and bound the HTTP listener.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Addr is the HTTP listener's address, valid after Ready. It is empty when
// the HTTP surface is disabled.
func (a *App) Addr() string {
	return a.addr
}
