package testutil

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/value"
)

// PackageName is the name of the package built by NewPackage.
const PackageName = "Test"

// ErrFailed is returned by the "Fail" schema.
var ErrFailed = errors.New("test node failed")

// Trigger is the payload of the "On Trigger" event.
type Trigger struct {
	N    int32
	Text string
}

// Recorder collects executions of the recording schemas.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	evals map[string]int
	ch    chan Call
}

func NewRecorder() *Recorder {
	return &Recorder{evals: make(map[string]int), ch: make(chan Call, 256)}
}

func (r *Recorder) record(schema string, io *node.IOProxy, names ...string) {
	c := Call{Schema: schema, Inputs: make(map[string]value.Value)}
	for _, name := range names {
		if v, ok := io.Input(name); ok {
			c.Inputs[name] = v
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	r.ch <- c
}

func (r *Recorder) countEval(schema string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals[schema]++
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Evaluations returns how often each pure schema ran.
func (r *Recorder) Evaluations() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.evals)
}

// Wait blocks until n more calls were recorded and returns them.
func (r *Recorder) Wait(t *testing.T, n int) []Call {
	t.Helper()
	out := make([]Call, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case c := <-r.ch:
			out = append(out, c)
		case <-timeout:
			t.Fatalf("waited for %d calls, got %d", n, len(out))
		}
	}
	return out
}

// NewPackage builds the "Test" package:
//
//   - "On Trigger": event, exec output "Fired", data outputs N and Text.
//   - "Record": exec node recording its Number and Text inputs.
//   - "Fail": exec node that always fails.
//   - "Add One": pure base node, Out = In + 1.
//   - "Choose": base node with exec input "In" and outcomes "Yes"/"No".
func NewPackage(rec *Recorder) *plugin.Package {
	pkg := plugin.NewPackage(PackageName)

	mustAdd(pkg, node.NewEventSchema("On Trigger",
		func(b *node.Builder) {
			b.ExecOutput("Fired")
			b.IntOutput("N")
			b.StringOutput("Text")
		},
		func(io *node.IOProxy, t Trigger) (string, error) {
			io.SetInt("N", t.N)
			io.SetString("Text", t.Text)
			return "Fired", nil
		},
	))

	mustAdd(pkg, node.NewExecSchema("Record",
		func(b *node.Builder) {
			b.IntInput("Number", 0)
			b.StringInput("Text", "")
		},
		func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) error {
			rec.record("Record", io, "Number", "Text")
			return nil
		},
	))

	mustAdd(pkg, node.NewExecSchema("Fail", nil,
		func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) error {
			rec.record("Fail", io)
			return ErrFailed
		},
	))

	mustAdd(pkg, node.NewBaseSchema("Add One",
		func(b *node.Builder) {
			b.IntInput("In", 0)
			b.IntOutput("Out")
		},
		func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
			rec.countEval("Add One")
			in, _ := io.GetInt("In")
			io.SetInt("Out", in+1)
			return "", nil
		},
	))

	mustAdd(pkg, node.NewBaseSchema("Choose",
		func(b *node.Builder) {
			b.ExecInput("In")
			b.ExecOutput("Yes")
			b.ExecOutput("No")
			b.BoolInput("Cond", false)
		},
		func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
			if cond, _ := io.GetBool("Cond"); cond {
				return "Yes", nil
			}
			return "No", nil
		},
	))

	// Merge joins two exec flows into one, for wiring exec cycles.
	mustAdd(pkg, node.NewBaseSchema("Merge",
		func(b *node.Builder) {
			b.ExecInput("A")
			b.ExecInput("B")
			b.ExecOutput("Out")
		},
		func(context.Context, *node.IOProxy, node.ExecuteContext) (string, error) {
			return "Out", nil
		},
	))

	return pkg
}

func mustAdd(pkg *plugin.Package, s *node.Schema) {
	if err := pkg.AddSchema(s); err != nil {
		panic(err)
	}
}
