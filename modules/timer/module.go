// Package timer provides a ticking event and a Wait node, both driven by the
// package engine.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
)

const PackageName = "Timer"

// Settings is the "package" block of Timer.
type Settings struct {
	// Interval between Tick events. Empty or "0s" disables ticking.
	Interval string `hcl:"interval,optional"`
}

// Tick is the payload of the Tick event.
type Tick struct {
	Count int32
	At    time.Time
}

// waitRequest asks the engine to reply after Duration.
type waitRequest struct {
	Duration time.Duration
}

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Register(r *registry.Registry) error {
	var s Settings
	if err := r.DecodeSettings(PackageName, &s); err != nil {
		return err
	}
	pkg, err := NewPackage(s)
	if err != nil {
		return err
	}
	return r.AddPackage(pkg)
}

// NewPackage builds the Timer package and its engine.
func NewPackage(s Settings) (*plugin.Package, error) {
	var interval time.Duration
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil {
			return nil, fmt.Errorf("timer interval: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("timer interval must not be negative, got %s", d)
		}
		interval = d
	}

	pkg := plugin.NewPackage(PackageName)
	tick := node.NewEventSchema("Tick",
		func(b *node.Builder) {
			b.ExecOutput("Fired")
			b.IntOutput("Count")
		},
		func(io *node.IOProxy, t Tick) (string, error) {
			io.SetInt("Count", t.Count)
			return "Fired", nil
		},
	)
	wait := node.NewExecSchema("Wait",
		func(b *node.Builder) {
			b.IntInput("Milliseconds", 1000)
			b.FloatOutput("Elapsed")
		},
		waitNode,
	)
	for _, schema := range []*node.Schema{tick, wait} {
		if err := pkg.AddSchema(schema); err != nil {
			return nil, err
		}
	}
	pkg.SetEngine(plugin.NewEngine(run, interval))
	return pkg, nil
}

func waitNode(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
	ms, _ := io.GetInt("Milliseconds")
	if ms < 0 {
		ms = 0
	}
	elapsed, err := node.InvokeAs[time.Duration](ctx, ec, waitRequest{Duration: time.Duration(ms) * time.Millisecond})
	if err != nil {
		return err
	}
	io.SetFloat("Elapsed", elapsed.Seconds())
	return nil
}

// run ticks at the configured interval and answers wait requests. Waits are
// answered from timers so the loop keeps ticking meanwhile.
func run(ctx context.Context, ec *plugin.EngineContext) error {
	interval, err := plugin.InitialState[time.Duration](ec)
	if err != nil {
		return err
	}

	var ticks <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks = ticker.C
		ec.Logger().Info("⏱️ Timer ticking", "interval", interval)
	}

	var count int32
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case at := <-ticks:
			count++
			if err := ec.Emit(ctx, "Tick", Tick{Count: count, At: at}); err != nil {
				return err
			}
		case req := <-ec.Requests():
			w, ok := req.Payload.(waitRequest)
			if !ok {
				ec.Logger().Warn("Unexpected timer request", "payload", fmt.Sprintf("%T", req.Payload))
				req.Drop()
				continue
			}
			start := time.Now()
			time.AfterFunc(w.Duration, func() { req.Reply(time.Since(start)) })
		}
	}
}
