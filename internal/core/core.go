package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/patchbay/internal/graph"
	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/plugin"
)

// Options configures a Core. Zero fields take their defaults.
type Options struct {
	InvokeTimeout time.Duration
	MaxChainSteps int
	EventBuffer   int
	RequestBuffer int
	DefaultGraph  string
	Logger        *slog.Logger
	Metrics       *metrics.Registry
}

func (o *Options) setDefaults() {
	if o.InvokeTimeout <= 0 {
		o.InvokeTimeout = 5 * time.Second
	}
	if o.MaxChainSteps <= 0 {
		o.MaxChainSteps = 10000
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 256
	}
	if o.RequestBuffer <= 0 {
		o.RequestBuffer = 64
	}
	if o.DefaultGraph == "" {
		o.DefaultGraph = "Main"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
}

type envelope struct {
	req   Request
	reply chan result
}

type result struct {
	resp Response
	err  error
}

// Core owns graphs and packages and runs the control loop.
type Core struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Registry

	graphs      map[int]*graph.Graph
	nextGraphID int
	packages    []*plugin.Package
	byName      map[string]*plugin.Package

	requests chan envelope
	events   chan plugin.Event
	stopped  chan struct{}
	inflight sync.WaitGroup
}

// New returns a Core holding one empty default graph.
func New(opts Options) *Core {
	opts.setDefaults()
	c := &Core{
		opts:     opts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		graphs:   make(map[int]*graph.Graph),
		byName:   make(map[string]*plugin.Package),
		requests: make(chan envelope, opts.RequestBuffer),
		events:   make(chan plugin.Event, opts.EventBuffer),
		stopped:  make(chan struct{}),
	}
	c.addGraph(opts.DefaultGraph)
	return c
}

// RegisterPackage adds pkg. Packages must be registered before Run.
func (c *Core) RegisterPackage(pkg *plugin.Package) error {
	if _, exists := c.byName[pkg.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePackage, pkg.Name())
	}
	c.packages = append(c.packages, pkg)
	c.byName[pkg.Name()] = pkg
	c.logger.Debug("Package registered", "package", pkg.Name(), "schemas", len(pkg.Schemas()))
	return nil
}

// Packages returns the registered packages in registration order.
func (c *Core) Packages() []*plugin.Package {
	return append([]*plugin.Package(nil), c.packages...)
}

// StartEngines starts the engine of every package that has one. Engines
// stop when ctx is cancelled.
func (c *Core) StartEngines(ctx context.Context) error {
	for _, pkg := range c.packages {
		eng := pkg.Engine()
		if eng == nil {
			continue
		}
		err := eng.Start(ctx, plugin.StartOptions{
			Package:       pkg.Name(),
			Events:        c.events,
			Logger:        c.logger,
			InvokeTimeout: c.opts.InvokeTimeout,
		})
		if err != nil {
			return fmt.Errorf("starting engine of package %q: %w", pkg.Name(), err)
		}
	}
	return nil
}

// Run is the control loop. It returns when ctx is cancelled, after every
// in-flight dispatch has finished.
func (c *Core) Run(ctx context.Context) error {
	c.logger.Info("🚀 Core control loop started", "packages", len(c.packages), "graphs", len(c.graphs))
	defer func() {
		close(c.stopped)
		c.inflight.Wait()
		c.logger.Info("🏁 Core control loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-c.requests:
			resp, err := c.handle(env.req)
			c.metrics.RecordRequest(env.req.Kind(), err)
			if err != nil {
				c.logger.Debug("Request failed", "kind", env.req.Kind(), "error", err)
			}
			env.reply <- result{resp: resp, err: err}
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

// Controller returns a handle for submitting requests and events.
func (c *Core) Controller() *Controller {
	return &Controller{requests: c.requests, events: c.events, stopped: c.stopped}
}

// Controller submits work to a Core's control loop. It is safe for
// concurrent use.
type Controller struct {
	requests chan<- envelope
	events   chan<- plugin.Event
	stopped  <-chan struct{}
}

// Do submits req and waits for the loop's answer.
func (c *Controller) Do(ctx context.Context, req Request) (Response, error) {
	if c.isStopped() {
		return nil, ErrStopped
	}
	reply := make(chan result, 1)
	select {
	case c.requests <- envelope{req: req, reply: reply}:
	case <-c.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.resp, r.err
	case <-c.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Emit queues an event as if an engine had emitted it.
func (c *Controller) Emit(ctx context.Context, ev plugin.Event) error {
	if c.isStopped() {
		return ErrStopped
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call is Do with the response asserted to R.
func Call[R Response](ctx context.Context, c *Controller, req Request) (R, error) {
	var zero R
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(R)
	if !ok {
		return zero, fmt.Errorf("%s answered with %T, not %T", req.Kind(), resp, zero)
	}
	return typed, nil
}

func (c *Controller) isStopped() bool {
	select {
	case <-c.stopped:
		return true
	default:
		return false
	}
}
