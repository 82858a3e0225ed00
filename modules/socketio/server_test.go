package socketio_test

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sio "github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/patchbay/internal/core"
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/testutil"
	"github.com/vk/patchbay/internal/value"
	"github.com/vk/patchbay/modules/socketio"
)

// startServer runs a Socket.IO server and calls onConnect for each client.
func startServer(t *testing.T, onConnect func(client *sio.Socket)) string {
	t.Helper()
	server := sio.NewServer(nil, nil)
	require.NoError(t, server.On("connection", func(clients ...any) {
		onConnect(clients[0].(*sio.Socket))
	}))
	httpServer := httptest.NewServer(server.ServeHandler(nil))
	t.Cleanup(func() {
		server.Close(nil)
		httpServer.Close()
	})
	return httpServer.URL + "/socket.io/"
}

func startClient(t *testing.T, url string, opts core.Options, events ...string) (*testutil.Harness, *testutil.Recorder) {
	t.Helper()
	s := socketio.DefaultSettings()
	s.URL = url
	s.Timeout = "5s"
	s.Events = events
	pkg, err := socketio.NewPackage(s)
	require.NoError(t, err)

	rec := testutil.NewRecorder()
	h := testutil.StartCore(t, opts, testutil.NewPackage(rec), pkg)
	testutil.AssertLogged(t, h, "Socket.IO connected")
	return h, rec
}

// addRequest wires trigger -> Request -> Record, with Response into Text.
func addRequest(t *testing.T, h *testutil.Harness, number int32, data, replyEvent string) (trigger, request int) {
	t.Helper()
	trigger = h.CreateNode(t, testutil.PackageName, "On Trigger")
	request = h.CreateNode(t, socketio.PackageName, "Request")
	record := h.CreateNode(t, testutil.PackageName, "Record")
	h.Do(t, core.SetDefaultValue{Node: request, Input: "Event", Value: value.StringValue("ask")})
	h.Do(t, core.SetDefaultValue{Node: request, Input: "Reply Event", Value: value.StringValue(replyEvent)})
	h.Do(t, core.SetDefaultValue{Node: request, Input: "Data", Value: value.StringValue(data)})
	h.Do(t, core.SetDefaultValue{Node: record, Input: "Number", Value: value.IntValue(number)})
	h.Connect(t, trigger, "Fired", request, node.ExecutePort)
	h.Connect(t, request, node.ExecutePort, record, node.ExecutePort)
	h.Connect(t, request, "Response", record, "Text")
	return trigger, request
}

func responses(calls []testutil.Call) map[value.Value]value.Value {
	out := make(map[value.Value]value.Value)
	for _, c := range calls {
		out[c.Inputs["Number"]] = c.Inputs["Text"]
	}
	return out
}

func TestRequest_ConcurrentReplyEventsKeepTheirOrder(t *testing.T) {
	t.Parallel()

	url := startServer(t, func(client *sio.Socket) {
		var mu sync.Mutex
		var asked []any
		client.On("ask", func(args ...any) {
			mu.Lock()
			defer mu.Unlock()
			asked = append(asked, args[0])
			if len(asked) < 2 {
				return
			}
			for _, data := range asked {
				client.Emit("answer", data)
			}
		})
	})
	h, rec := startClient(t, url, core.Options{})
	addRequest(t, h, 1, "one", "answer")
	addRequest(t, h, 2, "two", "answer")

	h.Emit(t, testutil.PackageName, "On Trigger", testutil.Trigger{})

	assert.Equal(t, map[value.Value]value.Value{
		value.IntValue(1): value.StringValue("one"),
		value.IntValue(2): value.StringValue("two"),
	}, responses(rec.Wait(t, 2)))
}

func TestRequest_AcksAnswerTheirOwnRequest(t *testing.T) {
	t.Parallel()

	url := startServer(t, func(client *sio.Socket) {
		type asked struct {
			data any
			ack  sio.Ack
		}
		var mu sync.Mutex
		var pending []asked
		client.On("ask", func(args ...any) {
			mu.Lock()
			defer mu.Unlock()
			pending = append(pending, asked{data: args[0], ack: args[len(args)-1].(sio.Ack)})
			if len(pending) < 2 {
				return
			}
			for i := len(pending) - 1; i >= 0; i-- {
				pending[i].ack([]any{"re:" + pending[i].data.(string)}, nil)
			}
		})
	})
	h, rec := startClient(t, url, core.Options{})
	addRequest(t, h, 1, "one", "")
	addRequest(t, h, 2, "two", "")

	h.Emit(t, testutil.PackageName, "On Trigger", testutil.Trigger{})

	assert.Equal(t, map[value.Value]value.Value{
		value.IntValue(1): value.StringValue("re:one"),
		value.IntValue(2): value.StringValue("re:two"),
	}, responses(rec.Wait(t, 2)))
}

func TestRequest_TimedOutRequestLeavesTheQueue(t *testing.T) {
	t.Parallel()

	url := startServer(t, func(client *sio.Socket) {
		client.On("ask", func(args ...any) {
			if args[0] == "lost" {
				return
			}
			client.Emit("answer", args[0])
		})
	})
	h, rec := startClient(t, url, core.Options{InvokeTimeout: 200 * time.Millisecond})
	trigger, request := addRequest(t, h, 1, "", "answer")
	h.Connect(t, trigger, "Text", request, "Data")

	h.Emit(t, testutil.PackageName, "On Trigger", testutil.Trigger{Text: "lost"})
	testutil.AssertLogged(t, h, plugin.ErrEngineTimeout.Error())

	h.Emit(t, testutil.PackageName, "On Trigger", testutil.Trigger{Text: "two"})

	calls := rec.Wait(t, 1)
	assert.Equal(t, value.StringValue("two"), calls[0].Inputs["Text"])
	assert.Len(t, rec.Calls(), 1)
}

func TestEmit_ServerEventsBecomeMessages(t *testing.T) {
	t.Parallel()

	url := startServer(t, func(client *sio.Socket) {
		client.On("shout", func(args ...any) {
			client.Emit("news", args...)
		})
	})
	h, rec := startClient(t, url, core.Options{}, "news")

	trigger := h.CreateNode(t, testutil.PackageName, "On Trigger")
	emit := h.CreateNode(t, socketio.PackageName, "Emit")
	h.Do(t, core.SetDefaultValue{Node: emit, Input: "Event", Value: value.StringValue("shout")})
	h.Do(t, core.SetDefaultValue{Node: emit, Input: "Data", Value: value.StringValue("hello")})
	h.Connect(t, trigger, "Fired", emit, node.ExecutePort)

	received := h.CreateNode(t, socketio.PackageName, "Message Received")
	record := h.CreateNode(t, testutil.PackageName, "Record")
	h.Connect(t, received, "Received", record, node.ExecutePort)
	h.Connect(t, received, "Data", record, "Text")

	h.Emit(t, testutil.PackageName, "On Trigger", testutil.Trigger{})

	calls := rec.Wait(t, 1)
	assert.Equal(t, value.StringValue("hello"), calls[0].Inputs["Text"])
}
