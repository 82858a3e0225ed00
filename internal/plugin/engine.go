package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// State is an engine's lifecycle stage.
type State int

const (
	Created State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	}
	return "stopped"
}

// RunFunc is an engine's entrypoint. It owns its goroutine until it returns.
// Returning ends the engine; pending and future requests fail.
type RunFunc func(ctx context.Context, ec *EngineContext) error

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithLockedThread pins the engine goroutine to its OS thread, for engines
// wrapping thread-affine OS input APIs.
func WithLockedThread() EngineOption {
	return func(e *Engine) { e.lockThread = true }
}

// WithRequestBuffer sets the capacity of the engine's request queue.
func WithRequestBuffer(n int) EngineOption {
	return func(e *Engine) { e.buffer = n }
}

// Engine is a package's background worker.
type Engine struct {
	run        RunFunc
	initial    any
	lockThread bool
	buffer     int

	mu       sync.Mutex
	state    State
	requests chan Request
	done     chan struct{}
	err      error
	timeout  time.Duration
}

// NewEngine returns an engine in the Created state.
func NewEngine(run RunFunc, initialState any, opts ...EngineOption) *Engine {
	e := &Engine{run: run, initial: initialState, buffer: 16}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartOptions carries what the core hands an engine when starting it.
type StartOptions struct {
	Package       string
	Events        chan<- Event
	Logger        *slog.Logger
	InvokeTimeout time.Duration
}

// Start moves the engine to Running and launches its entrypoint. The engine
// stops when ctx is cancelled and its entrypoint returns.
func (e *Engine) Start(ctx context.Context, opts StartOptions) error {
	e.mu.Lock()
	if e.state != Created {
		e.mu.Unlock()
		return ErrEngineAlreadyStarted
	}
	e.requests = make(chan Request, e.buffer)
	e.done = make(chan struct{})
	e.timeout = opts.InvokeTimeout
	e.state = Running
	e.mu.Unlock()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("package", opts.Package)
	ec := &EngineContext{
		pkg:      opts.Package,
		requests: e.requests,
		state:    e.initial,
		events:   opts.Events,
		logger:   logger,
	}

	go func() {
		if e.lockThread {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		logger.Info("⚙️ Engine started")
		err := e.run(ctx, ec)

		e.mu.Lock()
		e.state = Stopped
		e.err = err
		e.mu.Unlock()
		close(e.done)

		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Engine stopped with error", "error", err)
			return
		}
		logger.Info("⚙️ Engine stopped")
	}()
	return nil
}

// State returns the current lifecycle stage.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the error the entrypoint returned, once stopped.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Done is closed when the engine's entrypoint has returned. It is nil
// before Start.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *Engine) channels() (chan Request, chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Running {
		return nil, nil, fmt.Errorf("%w: engine is %s", ErrEngineNotRunning, e.state)
	}
	return e.requests, e.done, nil
}

func (e *Engine) enqueue(ctx context.Context, req Request) (chan struct{}, error) {
	requests, done, err := e.channels()
	if err != nil {
		return nil, err
	}
	select {
	case requests <- req:
		return done, nil
	case <-done:
		return nil, ErrEngineNotRunning
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send delivers payload without waiting for a reply.
func (e *Engine) Send(ctx context.Context, payload any) error {
	_, err := e.enqueue(ctx, Request{Payload: payload})
	return err
}

// Invoke delivers payload and waits for the engine's reply. The wait is
// bounded by ctx and by the invoke timeout given at Start.
func (e *Engine) Invoke(ctx context.Context, payload any) (any, error) {
	e.mu.Lock()
	timeout := e.timeout
	e.mu.Unlock()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := newInvokeRequest(payload)
	defer req.reply.finish()
	done, err := e.enqueue(ctx, req)
	if err != nil {
		return nil, invokeErr(err)
	}

	select {
	case v, ok := <-req.reply.ch:
		if !ok {
			return nil, ErrEngineReplyLost
		}
		return v, nil
	case <-done:
		select {
		case v, ok := <-req.reply.ch:
			if ok {
				return v, nil
			}
		default:
		}
		return nil, fmt.Errorf("%w: engine stopped", ErrEngineReplyLost)
	case <-ctx.Done():
		return nil, invokeErr(ctx.Err())
	}
}

func invokeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
	}
	return err
}
