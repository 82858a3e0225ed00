package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// EngineContext is what a running engine sees of the core.
type EngineContext struct {
	pkg      string
	requests <-chan Request
	state    any
	events   chan<- Event
	logger   *slog.Logger
}

// Package returns the name of the package the engine belongs to.
func (c *EngineContext) Package() string { return c.pkg }

// Requests yields requests sent by executing nodes.
func (c *EngineContext) Requests() <-chan Request { return c.requests }

// InitialState returns the state the engine was created with.
func (c *EngineContext) InitialState() any { return c.state }

func (c *EngineContext) Logger() *slog.Logger { return c.logger }

// Emit publishes an event named name. It blocks until the core accepts the
// event or ctx is done.
func (c *EngineContext) Emit(ctx context.Context, name string, payload any) error {
	ev := Event{ID: uuid.NewString(), Package: c.pkg, Name: name, Payload: payload}
	select {
	case c.events <- ev:
		c.logger.Debug("Event emitted", "event", name, "event_id", ev.ID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InitialState returns the engine's initial state as a T.
func InitialState[T any](c *EngineContext) (T, error) {
	typed, ok := c.state.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: want %T, got %T", ErrInitialState, zero, c.state)
	}
	return typed, nil
}
