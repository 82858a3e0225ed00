package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordRequest("CreateNode", nil)
	r.RecordRequest("CreateNode", errors.New("x"))
	r.RecordRequest("CreateNode", nil)
	r.RecordEvent("Keyboard", "A")
	r.RecordChain(ChainCompleted)
	r.RecordExecution("Utils", "Print")
	r.RecordInvoke("Timer", nil, 10*time.Millisecond)
	r.LiveNodes.Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("CreateNode", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RequestsTotal.WithLabelValues("CreateNode", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.EventsTotal.WithLabelValues("Keyboard", "A")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ChainsTotal.WithLabelValues(ChainCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.NodeExecutions.WithLabelValues("Utils", "Print")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.LiveNodes))
	assert.Equal(t, 1, testutil.CollectAndCount(r.EngineInvokeTime))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	r := New()
	r.RecordEvent("Timer", "Tick")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `patchbay_events_total{event="Tick",package="Timer"} 1`)
}
