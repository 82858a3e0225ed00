package node

import (
	"context"
	"fmt"
	"sync"
	"weak"

	"github.com/mitchellh/mapstructure"
)

// ExecutePort names the implicit exec input and output of exec schemas, and
// the outcome every exec schema resolves to.
const ExecutePort = "execute"

// SchemaKind selects a schema's behaviour.
type SchemaKind int

const (
	// BaseKind schemas compute outputs and return a named outcome. They get
	// no implicit exec ports.
	BaseKind SchemaKind = iota
	// ExecKind schemas carry an implicit "execute" exec input and output and
	// always continue through "execute".
	ExecKind
	// EventKind schemas are fired by engine events and never executed.
	EventKind
)

func (k SchemaKind) String() string {
	switch k {
	case BaseKind:
		return "base"
	case ExecKind:
		return "exec"
	case EventKind:
		return "event"
	}
	return "unknown"
}

// BuildFunc declares a node's ports.
type BuildFunc func(b *Builder)

// BaseFunc is the behaviour of a base schema. The returned outcome names the
// exec output the chain continues through.
type BaseFunc func(ctx context.Context, io *IOProxy, ec ExecuteContext) (string, error)

// ExecFunc is the behaviour of an exec schema.
type ExecFunc func(ctx context.Context, io *IOProxy, ec ExecuteContext) error

// FireFunc maps an event payload of type T onto the node's outputs and
// returns the outcome to continue through.
type FireFunc[T any] func(io *IOProxy, payload T) (string, error)

// Schema is the blueprint nodes are built from. Schemas are immutable once
// their package is registered, except for the set of live instances.
type Schema struct {
	name    string
	pkg     string
	kind    SchemaKind
	build   BuildFunc
	execute BaseFunc
	fire    func(io *IOProxy, payload any) (string, error)

	mu        sync.Mutex
	instances map[weak.Pointer[Node]]struct{}
}

func newSchema(name string, kind SchemaKind, build BuildFunc) *Schema {
	if build == nil {
		build = func(*Builder) {}
	}
	return &Schema{
		name:      name,
		kind:      kind,
		build:     build,
		instances: make(map[weak.Pointer[Node]]struct{}),
	}
}

// NewBaseSchema returns a schema whose behaviour resolves its own outcome.
func NewBaseSchema(name string, build BuildFunc, fn BaseFunc) *Schema {
	s := newSchema(name, BaseKind, build)
	s.execute = fn
	return s
}

// NewExecSchema returns a schema with the implicit "execute" exec pair placed
// before the ports declared by build.
func NewExecSchema(name string, build BuildFunc, fn ExecFunc) *Schema {
	s := newSchema(name, ExecKind, func(b *Builder) {
		b.ExecInput(ExecutePort)
		b.ExecOutput(ExecutePort)
		if build != nil {
			build(b)
		}
	})
	s.execute = func(ctx context.Context, io *IOProxy, ec ExecuteContext) (string, error) {
		if err := fn(ctx, io, ec); err != nil {
			return "", err
		}
		return ExecutePort, nil
	}
	return s
}

// NewEventSchema returns an event schema whose payloads are of type T.
// Payloads delivered as map[string]any are decoded into T.
func NewEventSchema[T any](name string, build BuildFunc, fire FireFunc[T]) *Schema {
	s := newSchema(name, EventKind, build)
	s.fire = func(io *IOProxy, payload any) (string, error) {
		typed, err := decodePayload[T](name, payload)
		if err != nil {
			return "", err
		}
		return fire(io, typed)
	}
	return s
}

func decodePayload[T any](schema string, payload any) (T, error) {
	var typed T
	switch p := payload.(type) {
	case T:
		return p, nil
	case map[string]any:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &typed,
		})
		if err != nil {
			return typed, err
		}
		if err := dec.Decode(p); err != nil {
			return typed, fmt.Errorf("%w: event %q: %v", ErrPayloadType, schema, err)
		}
		return typed, nil
	case nil:
		return typed, nil
	}
	return typed, fmt.Errorf("%w: event %q expects %T, got %T", ErrPayloadType, schema, typed, payload)
}

func (s *Schema) Name() string     { return s.name }
func (s *Schema) Package() string  { return s.pkg }
func (s *Schema) Kind() SchemaKind { return s.kind }

// SetPackage records the owning package. Packages call it on registration.
func (s *Schema) SetPackage(name string) { s.pkg = name }

// Build runs the build function against a fresh Builder.
func (s *Schema) Build() *Builder {
	b := &Builder{}
	s.build(b)
	return b
}

// Execute runs a base or exec schema's behaviour and returns its outcome.
func (s *Schema) Execute(ctx context.Context, io *IOProxy, ec ExecuteContext) (string, error) {
	if s.execute == nil {
		return "", fmt.Errorf("%w: %s schema %q cannot execute", ErrNotExecutable, s.kind, s.name)
	}
	return s.execute(ctx, io, ec)
}

// Fire runs an event schema's fire function.
func (s *Schema) Fire(io *IOProxy, payload any) (string, error) {
	if s.fire == nil {
		return "", fmt.Errorf("%w: %s schema %q cannot fire", ErrNotExecutable, s.kind, s.name)
	}
	return s.fire(io, payload)
}

func (s *Schema) track(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[weak.Make(n)] = struct{}{}
}

func (s *Schema) untrack(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, weak.Make(n))
}

// Instances returns the live nodes built from s. Collected or released
// nodes are pruned.
func (s *Schema) Instances() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Node, 0, len(s.instances))
	for wp := range s.instances {
		n := wp.Value()
		if n == nil || n.Released() {
			delete(s.instances, wp)
			continue
		}
		out = append(out, n)
	}
	return out
}
