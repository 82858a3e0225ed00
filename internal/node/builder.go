package node

import (
	"fmt"

	"github.com/vk/patchbay/internal/value"
)

// PortKind distinguishes control-flow ports from data ports.
type PortKind int

const (
	ExecPort PortKind = iota
	DataPort
)

func (k PortKind) String() string {
	if k == ExecPort {
		return "exec"
	}
	return "data"
}

// Descriptor declares one port. Data descriptors carry the port's default
// value, which also fixes its type.
type Descriptor struct {
	Name    string
	Kind    PortKind
	Default value.Value
}

// Type returns the declared data type; exec descriptors have none.
func (d Descriptor) Type() value.Type { return d.Default.Type() }

// Builder collects the ports declared by a schema's build function.
// Duplicate names are dropped and reported by Err.
type Builder struct {
	inputs  []Descriptor
	outputs []Descriptor
	errs    []string
}

func (b *Builder) add(list *[]Descriptor, side string, d Descriptor) {
	for _, existing := range *list {
		if existing.Name == d.Name {
			b.errs = append(b.errs, fmt.Sprintf("duplicate %s %q", side, d.Name))
			return
		}
	}
	if d.Kind == DataPort && !d.Default.Valid() {
		b.errs = append(b.errs, fmt.Sprintf("%s %q has no type", side, d.Name))
		return
	}
	*list = append(*list, d)
}

func (b *Builder) ExecInput(name string) {
	b.add(&b.inputs, "input", Descriptor{Name: name, Kind: ExecPort})
}

func (b *Builder) ExecOutput(name string) {
	b.add(&b.outputs, "output", Descriptor{Name: name, Kind: ExecPort})
}

// DataInput declares a data input whose type and default come from def.
func (b *Builder) DataInput(name string, def value.Value) {
	b.add(&b.inputs, "input", Descriptor{Name: name, Kind: DataPort, Default: def})
}

// DataOutput declares a data output holding initial until first written.
func (b *Builder) DataOutput(name string, initial value.Value) {
	b.add(&b.outputs, "output", Descriptor{Name: name, Kind: DataPort, Default: initial})
}

func (b *Builder) BoolInput(name string, def bool)     { b.DataInput(name, value.BoolValue(def)) }
func (b *Builder) IntInput(name string, def int32)     { b.DataInput(name, value.IntValue(def)) }
func (b *Builder) FloatInput(name string, def float64) { b.DataInput(name, value.FloatValue(def)) }
func (b *Builder) StringInput(name string, def string) { b.DataInput(name, value.StringValue(def)) }
func (b *Builder) ListInput(name string, k value.Kind) {
	b.DataInput(name, value.Default(value.ListOf(k)))
}
func (b *Builder) BoolOutput(name string)   { b.DataOutput(name, value.BoolValue(false)) }
func (b *Builder) IntOutput(name string)    { b.DataOutput(name, value.IntValue(0)) }
func (b *Builder) FloatOutput(name string)  { b.DataOutput(name, value.FloatValue(0)) }
func (b *Builder) StringOutput(name string) { b.DataOutput(name, value.StringValue("")) }
func (b *Builder) ListOutput(name string, k value.Kind) {
	b.DataOutput(name, value.Default(value.ListOf(k)))
}

// Inputs returns the declared inputs in order.
func (b *Builder) Inputs() []Descriptor { return b.inputs }

// Outputs returns the declared outputs in order.
func (b *Builder) Outputs() []Descriptor { return b.outputs }

// Err reports declarations that were dropped.
func (b *Builder) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid port declarations: %v", b.errs)
}
