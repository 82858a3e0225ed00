package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/plugin"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Harness is a running core with its log output captured.
type Harness struct {
	Core       *core.Core
	Controller *core.Controller
	Metrics    *metrics.Registry
	Logs       *SafeBuffer
}

// StartCore registers pkgs on a new core, starts their engines and runs the
// control loop until the test ends. Zero option fields take the core's
// defaults; Logger and Metrics are always replaced.
func StartCore(t *testing.T, opts core.Options, pkgs ...*plugin.Package) *Harness {
	t.Helper()

	logs := &SafeBuffer{}
	opts.Logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts.Metrics = metrics.New()
	c := core.New(opts)
	for _, pkg := range pkgs {
		require.NoError(t, c.RegisterPackage(pkg))
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.StartEngines(ctx))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("core did not stop")
		}
		if os.Getenv("PATCHBAY_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return &Harness{Core: c, Controller: c.Controller(), Metrics: opts.Metrics, Logs: logs}
}

// Do sends req and fails the test on error.
func (h *Harness) Do(t *testing.T, req core.Request) core.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := h.Controller.Do(ctx, req)
	require.NoError(t, err, "request %s", req.Kind())
	return resp
}

// CreateNode creates a node in graph 0 and returns its id.
func (h *Harness) CreateNode(t *testing.T, pkg, schema string) int {
	t.Helper()
	resp := h.Do(t, core.CreateNode{Package: pkg, Schema: schema})
	created, ok := resp.(core.NodeCreated)
	require.True(t, ok, "unexpected response %T", resp)
	return created.ID
}

// Connect links outNode.out to inNode.in in graph 0.
func (h *Harness) Connect(t *testing.T, outNode int, out string, inNode int, in string) {
	t.Helper()
	h.Do(t, core.ConnectIO{OutputNode: outNode, Output: out, InputNode: inNode, Input: in})
}

// Emit injects an event as if the package's engine had emitted it.
func (h *Harness) Emit(t *testing.T, pkg, name string, payload any) {
	t.Helper()
	err := h.Controller.Emit(context.Background(), plugin.Event{Package: pkg, Name: name, Payload: payload})
	require.NoError(t, err)
}

// Node returns the raw view of a node in graph 0.
func (h *Harness) Node(t *testing.T, id int) core.RawNode {
	t.Helper()
	resp := h.Do(t, core.GetProject{})
	project, ok := resp.(core.Project)
	require.True(t, ok)
	for _, g := range project.Graphs {
		if g.ID != 0 {
			continue
		}
		for _, n := range g.Nodes {
			if n.ID == id {
				return n
			}
		}
	}
	t.Fatalf("node %d not found in graph 0", id)
	return core.RawNode{}
}

// Input returns the named input of a raw node.
func Input(t *testing.T, n core.RawNode, name string) core.RawInput {
	t.Helper()
	for _, in := range n.Inputs {
		if in.Name == name {
			return in
		}
	}
	t.Fatalf("node %d has no input %q", n.ID, name)
	return core.RawInput{}
}

// Output returns the named output of a raw node.
func Output(t *testing.T, n core.RawNode, name string) core.RawOutput {
	t.Helper()
	for _, out := range n.Outputs {
		if out.Name == name {
			return out
		}
	}
	t.Fatalf("node %d has no output %q", n.ID, name)
	return core.RawOutput{}
}
