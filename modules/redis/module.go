// Package redis bridges graphs to a Redis server: subscribed channels become
// Message events, and nodes publish, set and get through the engine's
// connection.
package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
)

const PackageName = "Redis"

// Settings is the "package" block of Redis.
type Settings struct {
	Addr     string   `hcl:"addr,optional" validate:"required,hostname_port"`
	Password string   `hcl:"password,optional"`
	DB       int      `hcl:"db,optional" validate:"gte=0"`
	Channels []string `hcl:"channels,optional" validate:"dive,required"`
}

// DefaultSettings points at a local server with no subscriptions.
func DefaultSettings() Settings {
	return Settings{Addr: "localhost:6379"}
}

// Message is the payload of the Message event.
type Message struct {
	Channel string
	Payload string
}

type publishRequest struct{ Channel, Message string }

type setRequest struct{ Key, Value string }

type getRequest struct{ Key string }

type getReply struct {
	Value string
	Found bool
	Err   error
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

// NewPackage builds the Redis package. The engine connects when started.
func NewPackage(s Settings) (*plugin.Package, error) {
	pkg := plugin.NewPackage(PackageName)
	for _, schema := range []*node.Schema{
		node.NewEventSchema("Message",
			func(b *node.Builder) {
				b.ExecOutput("Received")
				b.StringOutput("Channel")
				b.StringOutput("Payload")
			},
			func(io *node.IOProxy, m Message) (string, error) {
				io.SetString("Channel", m.Channel)
				io.SetString("Payload", m.Payload)
				return "Received", nil
			},
		),
		node.NewExecSchema("Publish",
			func(b *node.Builder) {
				b.StringInput("Channel", "")
				b.StringInput("Message", "")
			},
			func(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
				ch, _ := io.GetString("Channel")
				msg, _ := io.GetString("Message")
				return ec.Send(ctx, publishRequest{Channel: ch, Message: msg})
			},
		),
		node.NewExecSchema("Set",
			func(b *node.Builder) {
				b.StringInput("Key", "")
				b.StringInput("Value", "")
			},
			func(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
				key, _ := io.GetString("Key")
				val, _ := io.GetString("Value")
				return ec.Send(ctx, setRequest{Key: key, Value: val})
			},
		),
		node.NewExecSchema("Get",
			func(b *node.Builder) {
				b.StringInput("Key", "")
				b.StringOutput("Value")
				b.BoolOutput("Found")
			},
			func(ctx context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
				key, _ := io.GetString("Key")
				reply, err := node.InvokeAs[getReply](ctx, ec, getRequest{Key: key})
				if err != nil {
					return err
				}
				if reply.Err != nil {
					return fmt.Errorf("redis get %q: %w", key, reply.Err)
				}
				io.SetString("Value", reply.Value)
				io.SetBool("Found", reply.Found)
				return nil
			},
		),
	} {
		if err := pkg.AddSchema(schema); err != nil {
			return nil, err
		}
	}
	pkg.SetEngine(plugin.NewEngine(run, s))
	return pkg, nil
}

func run(ctx context.Context, ec *plugin.EngineContext) error {
	s, err := plugin.InitialState[Settings](ec)
	if err != nil {
		return err
	}
	logger := ec.Logger()

	client := backend.NewClient(&backend.Options{Addr: s.Addr, Password: s.Password, DB: s.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis at %s: %w", s.Addr, err)
	}
	logger.Info("🔌 Redis connected", "addr", s.Addr)

	var messages <-chan *backend.Message
	if len(s.Channels) > 0 {
		pubsub := client.Subscribe(ctx, s.Channels...)
		defer pubsub.Close()
		// Wait for the subscription confirmation so no publish is missed.
		if _, err := pubsub.Receive(ctx); err != nil {
			return fmt.Errorf("subscribing to %v: %w", s.Channels, err)
		}
		messages = pubsub.Channel()
		logger.Info("Redis subscribed", "channels", s.Channels)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			if err := ec.Emit(ctx, "Message", Message{Channel: msg.Channel, Payload: msg.Payload}); err != nil {
				return err
			}
		case req := <-ec.Requests():
			handle(ctx, client, req, ec)
		}
	}
}

// handle runs sends in order on the engine goroutine. Gets are answered from
// their own goroutine so a slow server does not stall the loop.
func handle(ctx context.Context, client *backend.Client, req plugin.Request, ec *plugin.EngineContext) {
	logger := ec.Logger()
	switch p := req.Payload.(type) {
	case publishRequest:
		if err := client.Publish(ctx, p.Channel, p.Message).Err(); err != nil {
			logger.Error("Redis publish failed", "channel", p.Channel, "error", err)
		}
	case setRequest:
		if err := client.Set(ctx, p.Key, p.Value, 0).Err(); err != nil {
			logger.Error("Redis set failed", "key", p.Key, "error", err)
		}
	case getRequest:
		go func() {
			val, err := client.Get(ctx, p.Key).Result()
			switch {
			case errors.Is(err, backend.Nil):
				req.Reply(getReply{})
			case err != nil:
				req.Reply(getReply{Err: err})
			default:
				req.Reply(getReply{Value: val, Found: true})
			}
		}()
	default:
		logger.Warn("Unexpected redis request", "payload", fmt.Sprintf("%T", req.Payload))
		req.Drop()
	}
}
