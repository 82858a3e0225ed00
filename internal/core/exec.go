package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vk/patchbay/internal/ctxlog"
	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
)

// dispatch fires every live instance of the event's schema. It returns as
// soon as the fan-out goroutine is started.
func (c *Core) dispatch(ctx context.Context, ev plugin.Event) {
	logger := c.logger.With("package", ev.Package, "event", ev.Name, "event_id", ev.ID)

	s, err := c.schema(ev.Package, ev.Name)
	if err != nil {
		logger.Warn("Event dropped", "error", err)
		return
	}
	if s.Kind() != node.EventKind {
		logger.Warn("Event dropped", "error", fmt.Errorf("%w: %q is a %s schema", node.ErrNotExecutable, ev.Name, s.Kind()))
		return
	}
	c.metrics.RecordEvent(ev.Package, ev.Name)

	instances := s.Instances()
	if len(instances) == 0 {
		logger.Debug("Event has no live instances")
		return
	}
	logger.Debug("Dispatching event", "instances", len(instances))

	ctx = ctxlog.WithLogger(ctx, logger)
	c.inflight.Add(1)
	c.metrics.InFlightDispatches.Inc()
	go func() {
		defer c.inflight.Done()
		defer c.metrics.InFlightDispatches.Dec()

		var g errgroup.Group
		for _, n := range instances {
			g.Go(func() error {
				nctx, nodeLogger := ctxlog.With(ctx, "graph", n.GraphID(), "node", n.ID())
				err := c.fire(nctx, n, ev.Payload)
				if err != nil {
					nodeLogger.Error("Chain aborted", "error", err)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			logger.Debug("Event dispatch finished with errors")
		}
	}()
}

// fire runs n's fire function with payload and then the chain that follows.
func (c *Core) fire(ctx context.Context, n *node.Node, payload any) error {
	io := n.Proxy()
	outcome, err := n.Schema().Fire(io, payload)
	if err == nil {
		err = n.WriteBack(io)
	}
	if err != nil {
		c.metrics.RecordChain(metrics.ChainFailed)
		return fmt.Errorf("firing %q: %w", n.Schema().Name(), err)
	}

	_, err = c.runChain(ctx, n.Next(outcome))
	switch {
	case err == nil:
		c.metrics.RecordChain(metrics.ChainCompleted)
	case errors.Is(err, ErrStepLimit):
		c.metrics.RecordChain(metrics.ChainStepLimit)
	default:
		c.metrics.RecordChain(metrics.ChainFailed)
	}
	return err
}

// runChain executes from next onwards and returns the number of nodes
// executed.
func (c *Core) runChain(ctx context.Context, next *node.Node) (int, error) {
	steps := 0
	for next != nil {
		if steps >= c.opts.MaxChainSteps {
			return steps, fmt.Errorf("%w: stopped after %d steps at node %d", ErrStepLimit, steps, next.ID())
		}
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		outcome, err := c.executeNode(ctx, next)
		if err != nil {
			return steps, fmt.Errorf("node %d (%s): %w", next.ID(), next.Schema().Name(), err)
		}
		steps++
		ctxlog.FromContext(ctx).Debug("Node executed", "node", next.ID(), "schema", next.Schema().Name(), "outcome", outcome)
		next = next.Next(outcome)
	}
	return steps, nil
}

// executeNode pulls n's inputs, runs its behaviour and writes its outputs.
func (c *Core) executeNode(ctx context.Context, n *node.Node) (string, error) {
	s := n.Schema()
	if s.Kind() == node.EventKind {
		return "", fmt.Errorf("%w: event schema %q", node.ErrNotExecutable, s.Name())
	}
	if err := c.pullInputs(ctx, n, map[*node.Node]bool{n: true}); err != nil {
		return "", err
	}
	return c.run(ctx, n)
}

func (c *Core) run(ctx context.Context, n *node.Node) (string, error) {
	s := n.Schema()
	ec, err := c.executeContext(s.Package(), ctxlog.FromContext(ctx))
	if err != nil {
		return "", err
	}
	io := n.Proxy()
	outcome, err := s.Execute(ctx, io, ec)
	c.metrics.RecordExecution(s.Package(), s.Name())
	if err != nil {
		return "", err
	}
	if err := n.WriteBack(io); err != nil {
		return "", err
	}
	return outcome, nil
}

// pullInputs refreshes every data input of n from its producer. visited
// holds the nodes already evaluated in this pull and guards against cycles
// of pure nodes.
func (c *Core) pullInputs(ctx context.Context, n *node.Node, visited map[*node.Node]bool) error {
	for _, in := range n.Inputs() {
		d, ok := in.(*node.DataInput)
		if !ok {
			continue
		}
		src := d.Source()
		if src == nil {
			d.SetValue(d.Default())
			continue
		}
		producer := src.Node()
		if isPure(producer) && !visited[producer] {
			visited[producer] = true
			if err := c.pullInputs(ctx, producer, visited); err != nil {
				return err
			}
			if _, err := c.run(ctx, producer); err != nil {
				return fmt.Errorf("evaluating node %d (%s): %w", producer.ID(), producer.Schema().Name(), err)
			}
		}
		d.SetValue(src.Value())
	}
	return nil
}

// isPure reports whether n is a base node outside control flow.
func isPure(n *node.Node) bool {
	return n.Schema().Kind() == node.BaseKind && !n.HasExecInputs()
}

func (c *Core) executeContext(pkgName string, logger *slog.Logger) (node.ExecuteContext, error) {
	pkg, ok := c.byName[pkgName]
	if !ok || pkg.Engine() == nil {
		return node.NewExecuteContext(nil, logger), nil
	}
	eng := pkg.Engine()
	if state := eng.State(); state != plugin.Running {
		return node.ExecuteContext{}, fmt.Errorf("%w: engine of package %q is %s", plugin.ErrEngineNotRunning, pkgName, state)
	}
	return node.NewExecuteContext(&instrumentedEngine{engine: eng, pkg: pkgName, metrics: c.metrics}, logger), nil
}
