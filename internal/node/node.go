package node

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a live instance of a Schema. Its port lists are owned exclusively
// by the node and are reconciled against the schema on every build.
type Node struct {
	id      int
	graphID int
	schema  *Schema

	mu       sync.Mutex
	position Position
	inputs   []Input
	outputs  []Output

	released atomic.Bool
}

// New builds a node from schema and registers it as a live instance.
func New(id, graphID int, schema *Schema, pos Position) *Node {
	n := &Node{id: id, graphID: graphID, schema: schema, position: pos}
	n.Rebuild()
	schema.track(n)
	return n
}

func (n *Node) ID() int         { return n.id }
func (n *Node) GraphID() int    { return n.graphID }
func (n *Node) Schema() *Schema { return n.schema }

func (n *Node) Position() Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.position
}

func (n *Node) SetPosition(p Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.position = p
}

// Released reports whether the node has been removed from its graph. Links
// to ports of a released node are treated as disconnected.
func (n *Node) Released() bool {
	return n != nil && n.released.Load()
}

// Release disconnects every port, marks the node released and drops it from
// its schema's instance set.
func (n *Node) Release() {
	n.DisconnectAll()
	n.released.Store(true)
	n.schema.untrack(n)
}

// DisconnectAll severs every link of every port.
func (n *Node) DisconnectAll() {
	for _, in := range n.Inputs() {
		in.Disconnect()
	}
	for _, out := range n.Outputs() {
		out.Disconnect()
	}
}

// Rebuild re-runs the schema's build function and reconciles the ports.
func (n *Node) Rebuild() {
	b := n.schema.Build()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.inputs = reconcile(n.inputs, b.inputs, n.adoptInput, n.newInput)
	n.outputs = reconcile(n.outputs, b.outputs, n.adoptOutput, n.newOutput)
}

// Inputs returns a snapshot of the input ports in order.
func (n *Node) Inputs() []Input {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Input(nil), n.inputs...)
}

// Outputs returns a snapshot of the output ports in order.
func (n *Node) Outputs() []Output {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Output(nil), n.outputs...)
}

func (n *Node) Input(name string) (Input, bool) {
	for _, in := range n.Inputs() {
		if in.Name() == name {
			return in, true
		}
	}
	return nil, false
}

func (n *Node) Output(name string) (Output, bool) {
	for _, out := range n.Outputs() {
		if out.Name() == name {
			return out, true
		}
	}
	return nil, false
}

func (n *Node) DataInput(name string) (*DataInput, bool) {
	in, _ := n.Input(name)
	p, ok := in.(*DataInput)
	return p, ok
}

func (n *Node) DataOutput(name string) (*DataOutput, bool) {
	out, _ := n.Output(name)
	p, ok := out.(*DataOutput)
	return p, ok
}

func (n *Node) ExecInput(name string) (*ExecInput, bool) {
	in, _ := n.Input(name)
	p, ok := in.(*ExecInput)
	return p, ok
}

func (n *Node) ExecOutput(name string) (*ExecOutput, bool) {
	out, _ := n.Output(name)
	p, ok := out.(*ExecOutput)
	return p, ok
}

// HasExecInputs reports whether the node takes part in control flow.
func (n *Node) HasExecInputs() bool {
	for _, in := range n.Inputs() {
		if _, ok := in.(*ExecInput); ok {
			return true
		}
	}
	return false
}

// Proxy snapshots the data inputs into a fresh IOProxy.
func (n *Node) Proxy() *IOProxy {
	p := NewIOProxy()
	for _, in := range n.Inputs() {
		if d, ok := in.(*DataInput); ok {
			p.inputs[d.Name()] = d.Value()
		}
	}
	return p
}

// WriteBack stores the proxy's outputs on the matching data outputs. Every
// output is attempted; the joined error reports the ones that failed.
func (n *Node) WriteBack(p *IOProxy) error {
	var errs []error
	for name, v := range p.outputs {
		out, ok := n.DataOutput(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: node %d has no data output %q", ErrUnknownPort, n.id, name))
			continue
		}
		if out.Type() != v.Type() {
			errs = append(errs, fmt.Errorf("%w: output %q is %s, got %s", ErrTypeMismatch, name, out.Type(), v.Type()))
			continue
		}
		out.SetValue(v)
	}
	return errors.Join(errs...)
}

// Next follows the exec output named outcome and returns the node on the
// other end, or nil when the chain ends there.
func (n *Node) Next(outcome string) *Node {
	out, ok := n.ExecOutput(outcome)
	if !ok {
		return nil
	}
	in := out.Target()
	if in == nil {
		return nil
	}
	return in.Node()
}

func (n *Node) newInput(d Descriptor) Input {
	if d.Kind == ExecPort {
		return &ExecInput{name: d.Name, owner: n}
	}
	return newDataInput(n, d.Name, d.Default)
}

func (n *Node) newOutput(d Descriptor) Output {
	if d.Kind == ExecPort {
		return &ExecOutput{name: d.Name, owner: n}
	}
	return newDataOutput(n, d.Name, d.Default)
}

func (n *Node) adoptInput(p Input, d Descriptor) bool {
	switch port := p.(type) {
	case *ExecInput:
		return d.Kind == ExecPort
	case *DataInput:
		if d.Kind != DataPort {
			return false
		}
		port.adopt(d.Default)
		return true
	}
	return false
}

func (n *Node) adoptOutput(p Output, d Descriptor) bool {
	switch port := p.(type) {
	case *ExecOutput:
		return d.Kind == ExecPort
	case *DataOutput:
		if d.Kind != DataPort {
			return false
		}
		port.adopt(d.Default)
		return true
	}
	return false
}
