package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/metrics"
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	tu "github.com/vk/patchbay/internal/testutil"
	"github.com/vk/patchbay/internal/value"
)

func newHarness(t *testing.T, opts core.Options) (*tu.Harness, *tu.Recorder) {
	t.Helper()
	rec := tu.NewRecorder()
	return tu.StartCore(t, opts, tu.NewPackage(rec)), rec
}

func TestCore_TriggerRunsConnectedNodeOnce(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	record := h.CreateNode(t, tu.PackageName, "Record")
	h.Connect(t, trigger, "Fired", record, node.ExecutePort)
	h.Connect(t, trigger, "N", record, "Number")

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{N: 5})

	calls := rec.Wait(t, 1)
	assert.Equal(t, value.IntValue(5), calls[0].Inputs["Number"])
	// Unconnected inputs run with their defaults.
	assert.Equal(t, value.StringValue(""), calls[0].Inputs["Text"])

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.Metrics.ChainsTotal.WithLabelValues(metrics.ChainCompleted)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.Calls(), 1)
}

func TestCore_MapPayloadIsDecoded(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	record := h.CreateNode(t, tu.PackageName, "Record")
	h.Connect(t, trigger, "Fired", record, node.ExecutePort)
	h.Connect(t, trigger, "Text", record, "Text")

	h.Emit(t, tu.PackageName, "On Trigger", map[string]any{"Text": "from json", "N": "3"})

	calls := rec.Wait(t, 1)
	assert.Equal(t, value.StringValue("from json"), calls[0].Inputs["Text"])
}

func TestCore_EveryInstanceRunsItsOwnChain(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	const n = 4
	for i := range n {
		trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
		target := "Record"
		if i == 0 {
			target = "Fail"
		}
		id := h.CreateNode(t, tu.PackageName, target)
		h.Connect(t, trigger, "Fired", id, node.ExecutePort)
	}

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})

	calls := rec.Wait(t, n)
	counts := map[string]int{}
	for _, c := range calls {
		counts[c.Schema]++
	}
	assert.Equal(t, map[string]int{"Record": n - 1, "Fail": 1}, counts)
	tu.AssertLogged(t, h, "Chain aborted")
	tu.AssertLogged(t, h, tu.ErrFailed.Error())
}

func TestCore_ChainLengthIsExact(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	const length = 5
	prev, prevOut := h.CreateNode(t, tu.PackageName, "On Trigger"), "Fired"
	for range length {
		id := h.CreateNode(t, tu.PackageName, "Record")
		h.Connect(t, prev, prevOut, id, node.ExecutePort)
		prev, prevOut = id, node.ExecutePort
	}

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})
	rec.Wait(t, length)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.Metrics.ChainsTotal.WithLabelValues(metrics.ChainCompleted)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.Calls(), length)
	assert.Equal(t, float64(length), testutil.ToFloat64(h.Metrics.NodeExecutions.WithLabelValues(tu.PackageName, "Record")))
}

func TestCore_StepLimitStopsCycles(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{MaxChainSteps: 10})

	// An exec input has one source, so the loop re-enters through Merge.B
	// while the trigger keeps Merge.A.
	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	merge := h.CreateNode(t, tu.PackageName, "Merge")
	record := h.CreateNode(t, tu.PackageName, "Record")
	h.Connect(t, trigger, "Fired", merge, "A")
	h.Connect(t, merge, "Out", record, node.ExecutePort)
	h.Connect(t, record, node.ExecutePort, merge, "B")

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.Metrics.ChainsTotal.WithLabelValues(metrics.ChainStepLimit)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, rec.Calls(), 5)
	assert.Zero(t, testutil.ToFloat64(h.Metrics.ChainsTotal.WithLabelValues(metrics.ChainCompleted)))
	tu.AssertLogged(t, h, core.ErrStepLimit.Error())
}

func TestCore_BranchingFollowsOutcome(t *testing.T) {
	t.Parallel()

	for _, cond := range []bool{true, false} {
		h, rec := newHarness(t, core.Options{})

		trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
		choose := h.CreateNode(t, tu.PackageName, "Choose")
		yes := h.CreateNode(t, tu.PackageName, "Record")
		no := h.CreateNode(t, tu.PackageName, "Record")
		h.Connect(t, trigger, "Fired", choose, "In")
		h.Connect(t, choose, "Yes", yes, node.ExecutePort)
		h.Connect(t, choose, "No", no, node.ExecutePort)
		h.Do(t, core.SetDefaultValue{Node: yes, Input: "Text", Value: value.StringValue("yes")})
		h.Do(t, core.SetDefaultValue{Node: no, Input: "Text", Value: value.StringValue("no")})
		h.Do(t, core.SetDefaultValue{Node: choose, Input: "Cond", Value: value.BoolValue(cond)})

		h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})

		want := "no"
		if cond {
			want = "yes"
		}
		calls := rec.Wait(t, 1)
		assert.Equal(t, value.StringValue(want), calls[0].Inputs["Text"], "cond=%t", cond)
	}
}

func TestCore_PureProducersAreEvaluatedOnPull(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	first := h.CreateNode(t, tu.PackageName, "Add One")
	second := h.CreateNode(t, tu.PackageName, "Add One")
	record := h.CreateNode(t, tu.PackageName, "Record")
	h.Connect(t, trigger, "Fired", record, node.ExecutePort)
	h.Connect(t, trigger, "N", first, "In")
	h.Connect(t, first, "Out", second, "In")
	h.Connect(t, second, "Out", record, "Number")

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{N: 10})
	calls := rec.Wait(t, 1)
	assert.Equal(t, value.IntValue(12), calls[0].Inputs["Number"])

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{N: 20})
	calls = rec.Wait(t, 1)
	assert.Equal(t, value.IntValue(22), calls[0].Inputs["Number"])
	assert.Equal(t, 4, rec.Evaluations()["Add One"])
}

func TestCore_PureCycleTerminates(t *testing.T) {
	t.Parallel()
	h, rec := newHarness(t, core.Options{})

	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	a := h.CreateNode(t, tu.PackageName, "Add One")
	b := h.CreateNode(t, tu.PackageName, "Add One")
	record := h.CreateNode(t, tu.PackageName, "Record")
	h.Connect(t, trigger, "Fired", record, node.ExecutePort)
	h.Connect(t, a, "Out", b, "In")
	h.Connect(t, b, "Out", a, "In")
	h.Connect(t, b, "Out", record, "Number")

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})
	rec.Wait(t, 1)
	assert.Equal(t, 2, rec.Evaluations()["Add One"])
}

func TestCore_EngineNotRunningAbortsChain(t *testing.T) {
	t.Parallel()

	rec := tu.NewRecorder()
	dead := plugin.NewPackage("Dead")
	require.NoError(t, dead.AddSchema(node.NewExecSchema("Use", nil,
		func(context.Context, *node.IOProxy, node.ExecuteContext) error { return nil },
	)))
	// The engine returns straight away and is Stopped by the time it is used.
	eng := plugin.NewEngine(func(context.Context, *plugin.EngineContext) error { return nil }, nil)
	dead.SetEngine(eng)

	h := tu.StartCore(t, core.Options{}, tu.NewPackage(rec), dead)
	<-eng.Done()

	trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
	use := h.CreateNode(t, "Dead", "Use")
	h.Connect(t, trigger, "Fired", use, node.ExecutePort)

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.Metrics.ChainsTotal.WithLabelValues(metrics.ChainFailed)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	tu.AssertLogged(t, h, plugin.ErrEngineNotRunning.Error())
}

func TestCore_ChainsRunConcurrently(t *testing.T) {
	t.Parallel()

	done := make(chan tu.ExecutionRecord, 2)
	sleeper := tu.NewSleeper(done, 100*time.Millisecond)
	rec := tu.NewRecorder()
	h := tu.StartCore(t, core.Options{}, tu.NewPackage(rec), sleeper.Package())

	for range 2 {
		trigger := h.CreateNode(t, tu.PackageName, "On Trigger")
		sleep := h.CreateNode(t, "Sleeper", "Sleep")
		h.Connect(t, trigger, "Fired", sleep, node.ExecutePort)
	}

	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})

	var records []tu.ExecutionRecord
	for range 2 {
		select {
		case r := <-done:
			records = append(records, r)
		case <-time.After(2 * time.Second):
			t.Fatal("sleep nodes did not finish")
		}
	}
	// Overlapping executions mean the two chains did not run one after the other.
	assert.True(t, records[0].Start.Before(records[1].End) && records[1].Start.Before(records[0].End))

	// The loop keeps answering while chains are suspended.
	h.Emit(t, tu.PackageName, "On Trigger", tu.Trigger{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := h.Controller.Do(ctx, core.GetPackages{})
	assert.NoError(t, err)
}

func TestCore_UnknownEventIsDropped(t *testing.T) {
	t.Parallel()
	h, _ := newHarness(t, core.Options{})

	h.Emit(t, tu.PackageName, "Nope", nil)
	h.Emit(t, "Nowhere", "On Trigger", nil)

	tu.AssertLogged(t, h, "Event dropped")
	assert.Equal(t, float64(0), testutil.ToFloat64(h.Metrics.EventsTotal.WithLabelValues(tu.PackageName, "Nope")))
}

func TestCore_ControllerAfterStop(t *testing.T) {
	t.Parallel()

	c := core.New(core.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()
	require.NoError(t, <-done)

	ctrl := c.Controller()
	_, err := ctrl.Do(context.Background(), core.GetProject{})
	assert.ErrorIs(t, err, core.ErrStopped)
	assert.ErrorIs(t, ctrl.Emit(context.Background(), plugin.Event{}), core.ErrStopped)
}
