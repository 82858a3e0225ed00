// Package socketio connects graphs to a Socket.IO server. Configured server
// events become Message Received events; Emit and Request nodes talk back
// through the engine's single client connection.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
)

const PackageName = "SocketIO"

// Settings is the "package" block of SocketIO.
type Settings struct {
	URL                string   `hcl:"url,optional" validate:"required,url"`
	Namespace          string   `hcl:"namespace,optional"`
	Events             []string `hcl:"events,optional" validate:"dive,required"`
	Timeout            string   `hcl:"timeout,optional"`
	InsecureSkipVerify bool     `hcl:"insecure_skip_verify,optional"`
}

// DefaultSettings returns settings for a local server on the root namespace.
func DefaultSettings() Settings {
	return Settings{URL: "http://localhost:3000/socket.io/", Namespace: "/", Timeout: "15s"}
}

// Message is the payload of the Message Received event.
type Message struct {
	Event string
	Data  string
}

type emitRequest struct {
	Event string
	Data  any
}

// requestRequest is answered through the server's ack, or by the next
// ReplyEvent when one is named.
type requestRequest struct {
	Event      string
	ReplyEvent string
	Data       any
}

type response struct {
	Data string
	Err  error
}

type connection struct {
	settings Settings
	base     string
	path     string
	timeout  time.Duration
}

// Module implements the registry.Module interface for this package.
type Module struct{}

func (m *Module) Register(r *registry.Registry) error {
	s := DefaultSettings()
	if err := r.DecodeSettings(PackageName, &s); err != nil {
		return err
	}
	pkg, err := NewPackage(s)
	if err != nil {
		return err
	}
	return r.AddPackage(pkg)
}

// NewPackage builds the SocketIO package. The engine connects when started.
func NewPackage(s Settings) (*plugin.Package, error) {
	conn, err := parseSettings(s)
	if err != nil {
		return nil, err
	}

	pkg := plugin.NewPackage(PackageName)
	for _, schema := range []*node.Schema{
		node.NewEventSchema("Message Received",
			func(b *node.Builder) {
				b.ExecOutput("Received")
				b.StringOutput("Event")
				b.StringOutput("Data")
			},
			func(io *node.IOProxy, m Message) (string, error) {
				io.SetString("Event", m.Event)
				io.SetString("Data", m.Data)
				return "Received", nil
			},
		),
		node.NewExecSchema("Emit",
			func(b *node.Builder) {
				b.StringInput("Event", "")
				b.StringInput("Data", "")
			},
			func(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
				event, _ := io.GetString("Event")
				if event == "" {
					return errors.New("emit: event name is empty")
				}
				data, _ := io.GetString("Data")
				return ec.Send(ctx, emitRequest{Event: event, Data: decodeData(data)})
			},
		),
		node.NewExecSchema("Request",
			func(b *node.Builder) {
				b.StringInput("Event", "")
				b.StringInput("Reply Event", "")
				b.StringInput("Data", "")
				b.StringOutput("Response")
			},
			func(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
				event, _ := io.GetString("Event")
				if event == "" {
					return errors.New("request: event name is empty")
				}
				reply, _ := io.GetString("Reply Event")
				data, _ := io.GetString("Data")
				resp, err := node.InvokeAs[response](ctx, ec, requestRequest{Event: event, ReplyEvent: reply, Data: decodeData(data)})
				if err != nil {
					return err
				}
				if resp.Err != nil {
					return fmt.Errorf("request %q: %w", event, resp.Err)
				}
				io.SetString("Response", resp.Data)
				return nil
			},
		),
	} {
		if err := pkg.AddSchema(schema); err != nil {
			return nil, err
		}
	}
	pkg.SetEngine(plugin.NewEngine(run, conn))
	return pkg, nil
}

func parseSettings(s Settings) (connection, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return connection{}, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return connection{}, fmt.Errorf("url %q needs a scheme and host", s.URL)
	}
	timeout := 15 * time.Second
	if s.Timeout != "" {
		if timeout, err = time.ParseDuration(s.Timeout); err != nil {
			return connection{}, fmt.Errorf("invalid timeout %q: %w", s.Timeout, err)
		}
		if timeout <= 0 {
			return connection{}, fmt.Errorf("timeout must be positive, got %s", s.Timeout)
		}
	}
	if s.Namespace == "" {
		s.Namespace = "/"
	}
	return connection{
		settings: s,
		base:     fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		path:     u.Path,
		timeout:  timeout,
	}, nil
}

func run(ctx context.Context, ec *plugin.EngineContext) error {
	conn, err := plugin.InitialState[connection](ec)
	if err != nil {
		return err
	}
	logger := ec.Logger().With("url", conn.settings.URL, "namespace", conn.settings.Namespace)

	opts := socket.DefaultOptions()
	opts.SetPath(conn.path)
	if conn.settings.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(conn.base, opts)
	client := manager.Socket(conn.settings.Namespace, opts)
	defer client.Disconnect()

	connected := make(chan error, 1)
	client.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	client.Once(types.EventName("connect_error"), func(errs ...any) {
		connected <- connectError(errs)
	})

	// Handlers run on the client's goroutines; messages are handed to the
	// engine loop so events leave in arrival order.
	incoming := make(chan Message, 64)
	for _, name := range conn.settings.Events {
		client.On(types.EventName(name), func(data ...any) {
			select {
			case incoming <- Message{Event: name, Data: encodeData(data)}:
			case <-ctx.Done():
			}
		})
	}
	client.On(types.EventName("disconnect"), func(reason ...any) {
		logger.Warn("Socket.IO disconnected", "reason", reason)
	})

	replies := newReplyQueues()

	client.Connect()
	wait, cancel := context.WithTimeout(ctx, conn.timeout)
	defer cancel()
	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", conn.settings.URL, err)
		}
	case <-wait.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("timed out while waiting for initial connection to %s", conn.settings.URL)
	}
	logger.Info("🔌 Socket.IO connected", "sid", client.Id(), "events", conn.settings.Events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-incoming:
			if err := ec.Emit(ctx, "Message Received", msg); err != nil {
				return err
			}
		case req := <-ec.Requests():
			handle(client, replies, req, ec)
		}
	}
}

// handle emits on the engine goroutine.
func handle(client *socket.Socket, replies *replyQueues, req plugin.Request, ec *plugin.EngineContext) {
	logger := ec.Logger()
	switch p := req.Payload.(type) {
	case emitRequest:
		if err := client.Emit(p.Event, args(p.Data)...); err != nil {
			logger.Error("Socket.IO emit failed", "event", p.Event, "error", err)
		}
	case requestRequest:
		if p.ReplyEvent == "" {
			client.EmitWithAck(p.Event, args(p.Data)...)(func(data []any, err error) {
				req.Reply(response{Data: encodeData(data), Err: err})
			})
			return
		}
		if replies.push(p.ReplyEvent, req) {
			event := p.ReplyEvent
			client.On(types.EventName(event), func(data ...any) {
				if !replies.pop(event, response{Data: encodeData(data)}) {
					logger.Debug("Socket.IO reply without a waiting request", "event", event)
				}
			})
		}
		if err := client.Emit(p.Event, args(p.Data)...); err != nil {
			logger.Error("Socket.IO emit failed", "event", p.Event, "error", err)
			req.Reply(response{Err: err})
		}
	default:
		logger.Warn("Unexpected socket.io request", "payload", fmt.Sprintf("%T", req.Payload))
		req.Drop()
	}
}

func args(data any) []any {
	if data == nil {
		return nil
	}
	return []any{data}
}

// replyQueues pairs reply events with waiting requests in emit order. A
// request leaves its queue when answered or when its invoker gives up.
type replyQueues struct {
	mu     sync.Mutex
	queues map[string][]*waiter
}

type waiter struct {
	req plugin.Request
}

func newReplyQueues() *replyQueues {
	return &replyQueues{queues: make(map[string][]*waiter)}
}

// push queues req on event and reports whether event had no queue yet, in
// which case the caller registers its listener.
func (q *replyQueues) push(event string, req plugin.Request) bool {
	w := &waiter{req: req}
	q.mu.Lock()
	_, known := q.queues[event]
	q.queues[event] = append(q.queues[event], w)
	q.mu.Unlock()

	if done := req.Done(); done != nil {
		go func() {
			<-done
			q.remove(event, w)
		}()
	}
	return !known
}

// pop answers the oldest request on event that is still waiting.
func (q *replyQueues) pop(event string, resp response) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[event]
	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		if !abandoned(w.req) {
			q.queues[event] = queue
			w.req.Reply(resp)
			return true
		}
	}
	q.queues[event] = queue
	return false
}

func (q *replyQueues) remove(event string, w *waiter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	queue := q.queues[event]
	for i, other := range queue {
		if other == w {
			q.queues[event] = append(queue[:i:i], queue[i+1:]...)
			return
		}
	}
}

func abandoned(req plugin.Request) bool {
	select {
	case <-req.Done():
		return true
	default:
		return false
	}
}

func connectError(errs []any) error {
	if len(errs) > 0 {
		if err, ok := errs[0].(error); ok {
			return err
		}
		return fmt.Errorf("%v", errs[0])
	}
	return errors.New("connect_error")
}

// decodeData turns a Data input into an emit argument: JSON text is sent
// as the decoded value, anything else as the plain string.
func decodeData(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

// encodeData renders event arguments as a Data output. A single string is
// passed through; other values are JSON encoded, several as an array.
func encodeData(args []any) string {
	var v any
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
		v = args[0]
	default:
		v = args
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
