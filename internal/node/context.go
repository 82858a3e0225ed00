package node

import (
	"context"
	"fmt"
	"log/slog"
)

// EngineClient is the side of a package engine that behaviours talk to.
type EngineClient interface {
	// Send delivers a fire-and-forget request.
	Send(ctx context.Context, payload any) error
	// Invoke delivers a request and waits for the engine's reply.
	Invoke(ctx context.Context, payload any) (any, error)
}

// ExecuteContext is handed to base and exec behaviours. It binds the
// behaviour to its package's engine.
type ExecuteContext struct {
	engine EngineClient
	logger *slog.Logger
}

// NewExecuteContext binds engine, which may be nil for engineless packages.
func NewExecuteContext(engine EngineClient, logger *slog.Logger) ExecuteContext {
	if logger == nil {
		logger = slog.Default()
	}
	return ExecuteContext{engine: engine, logger: logger}
}

func (c ExecuteContext) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func (c ExecuteContext) Send(ctx context.Context, payload any) error {
	if c.engine == nil {
		return ErrNoEngine
	}
	return c.engine.Send(ctx, payload)
}

func (c ExecuteContext) Invoke(ctx context.Context, payload any) (any, error) {
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	return c.engine.Invoke(ctx, payload)
}

// InvokeAs invokes the engine and asserts the reply to T.
func InvokeAs[T any](ctx context.Context, c ExecuteContext, payload any) (T, error) {
	var zero T
	reply, err := c.Invoke(ctx, payload)
	if err != nil {
		return zero, err
	}
	typed, ok := reply.(T)
	if !ok {
		return zero, fmt.Errorf("%w: want %T, got %T", ErrUnexpectedReply, zero, reply)
	}
	return typed, nil
}
