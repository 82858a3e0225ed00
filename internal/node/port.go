package node

import (
	"fmt"
	"sync"

	"github.com/vk/patchbay/internal/value"
)

// Port is the behaviour shared by every port kind.
type Port interface {
	Name() string
	// Node returns the node owning the port.
	Node() *Node
	// Connected reports whether the port has at least one live link.
	Connected() bool
	// Disconnect removes every link of the port on both ends.
	Disconnect()
}

// Input is implemented by *DataInput and *ExecInput.
type Input interface {
	Port
	isInput()
}

// Output is implemented by *DataOutput and *ExecOutput.
type Output interface {
	Port
	isOutput()
}

// DataInput receives a value from at most one DataOutput. While it is not
// connected its value equals its default.
type DataInput struct {
	name  string
	owner *Node

	mu  sync.Mutex
	typ value.Type
	def value.Value
	val value.Value
	src *DataOutput
}

func newDataInput(owner *Node, name string, def value.Value) *DataInput {
	return &DataInput{name: name, owner: owner, typ: def.Type(), def: def, val: def}
}

func (p *DataInput) isInput()     {}
func (p *DataInput) Name() string { return p.name }
func (p *DataInput) Node() *Node  { return p.owner }

// Type is the input's value type, fixed until a rebuild changes it.
func (p *DataInput) Type() value.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typ
}

// Default is the value the input falls back to when unconnected.
func (p *DataInput) Default() value.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.def
}

// SetDefault replaces the default value. An unconnected input also takes
// the new default as its current value.
func (p *DataInput) SetDefault(v value.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v.Type() != p.typ {
		return fmt.Errorf("%w: input %q is %s, got %s", ErrTypeMismatch, p.name, p.typ, v.Type())
	}
	p.def = v
	if p.src == nil {
		p.val = v
	}
	return nil
}

// Value is the last value set or pulled into the input.
func (p *DataInput) Value() value.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val
}

// SetValue stores v as the current value. It ignores connection state and
// does not check the type.
func (p *DataInput) SetValue(v value.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.val = v
}

// Source returns the producing output, or nil when the input is not
// connected or the producer's node has been released.
func (p *DataInput) Source() *DataOutput {
	p.mu.Lock()
	src := p.src
	p.mu.Unlock()
	if src == nil || src.owner.Released() {
		return nil
	}
	return src
}

func (p *DataInput) Connected() bool { return p.Source() != nil }

func (p *DataInput) Disconnect() {
	p.mu.Lock()
	src := p.src
	p.src = nil
	p.val = p.def
	p.mu.Unlock()
	if src != nil {
		src.removeSink(p)
	}
}

// detach clears the link to out if it is still the current one.
func (p *DataInput) detach(out *DataOutput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == out {
		p.src = nil
		p.val = p.def
	}
}

// adopt keeps the port as is when def has the port's type. A changed type
// severs the link and resets the port to def.
func (p *DataInput) adopt(def value.Value) {
	if p.Type() == def.Type() {
		return
	}
	p.Disconnect()
	p.mu.Lock()
	p.typ, p.def, p.val = def.Type(), def, def
	p.mu.Unlock()
}

// DataOutput publishes a value to any number of DataInputs.
type DataOutput struct {
	name  string
	owner *Node

	mu    sync.Mutex
	typ   value.Type
	val   value.Value
	sinks map[*DataInput]struct{}
}

func newDataOutput(owner *Node, name string, initial value.Value) *DataOutput {
	return &DataOutput{
		name:  name,
		owner: owner,
		typ:   initial.Type(),
		val:   initial,
		sinks: make(map[*DataInput]struct{}),
	}
}

func (p *DataOutput) isOutput()    {}
func (p *DataOutput) Name() string { return p.name }
func (p *DataOutput) Node() *Node  { return p.owner }

// Type is the output's value type.
func (p *DataOutput) Type() value.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typ
}

// Value is the last value published.
func (p *DataOutput) Value() value.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.val
}

// SetValue publishes v. Connected inputs see it on their next pull.
func (p *DataOutput) SetValue(v value.Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.val = v
}

// Sinks returns the connected inputs whose nodes are still live.
func (p *DataOutput) Sinks() []*DataInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*DataInput, 0, len(p.sinks))
	for in := range p.sinks {
		if !in.owner.Released() {
			out = append(out, in)
		}
	}
	return out
}

func (p *DataOutput) Connected() bool { return len(p.Sinks()) > 0 }

// Disconnect severs every consumer; each consumer resets to its default.
func (p *DataOutput) Disconnect() {
	p.mu.Lock()
	sinks := p.sinks
	p.sinks = make(map[*DataInput]struct{})
	p.mu.Unlock()
	for in := range sinks {
		in.detach(p)
	}
}

func (p *DataOutput) removeSink(in *DataInput) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sinks, in)
}

func (p *DataOutput) adopt(initial value.Value) {
	if p.Type() == initial.Type() {
		return
	}
	p.Disconnect()
	p.mu.Lock()
	p.typ, p.val = initial.Type(), initial
	p.mu.Unlock()
}

// ConnectData links out to in. The input's previous producer, if any, is
// disconnected first. Ports of different types are rejected and existing
// links are left untouched.
func ConnectData(out *DataOutput, in *DataInput) error {
	if ot, it := out.Type(), in.Type(); ot != it {
		return fmt.Errorf("%w: output %q is %s, input %q is %s", ErrTypeMismatch, out.name, ot, in.name, it)
	}
	in.Disconnect()

	in.mu.Lock()
	in.src = out
	in.mu.Unlock()

	out.mu.Lock()
	out.sinks[in] = struct{}{}
	out.mu.Unlock()
	return nil
}
