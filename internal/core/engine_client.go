package core

import (
	"context"
	"time"

	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/plugin"
)

// instrumentedEngine times invoke round trips per package.
type instrumentedEngine struct {
	engine  *plugin.Engine
	pkg     string
	metrics *metrics.Registry
}

func (e *instrumentedEngine) Send(ctx context.Context, payload any) error {
	return e.engine.Send(ctx, payload)
}

func (e *instrumentedEngine) Invoke(ctx context.Context, payload any) (any, error) {
	start := time.Now()
	reply, err := e.engine.Invoke(ctx, payload)
	e.metrics.RecordInvoke(e.pkg, err, time.Since(start))
	return reply, err
}
