package node

import "github.com/vk/patchbay/internal/value"

// IOProxy is the view a behaviour gets of its node: a snapshot of the input
// values and a set of pending output values that are written back once the
// behaviour returns. An IOProxy belongs to one execution and is not safe for
// concurrent use.
type IOProxy struct {
	inputs  map[string]value.Value
	outputs map[string]value.Value
}

func NewIOProxy() *IOProxy {
	return &IOProxy{
		inputs:  make(map[string]value.Value),
		outputs: make(map[string]value.Value),
	}
}

// Input returns the raw value of input name.
func (p *IOProxy) Input(name string) (value.Value, bool) {
	v, ok := p.inputs[name]
	return v, ok
}

// SetInput overrides an input value. Used when seeding a proxy by hand.
func (p *IOProxy) SetInput(name string, v value.Value) { p.inputs[name] = v }

func (p *IOProxy) GetBool(name string) (bool, bool)        { return p.inputs[name].AsBool() }
func (p *IOProxy) GetInt(name string) (int32, bool)        { return p.inputs[name].AsInt() }
func (p *IOProxy) GetFloat(name string) (float64, bool)    { return p.inputs[name].AsFloat() }
func (p *IOProxy) GetString(name string) (string, bool)    { return p.inputs[name].AsString() }
func (p *IOProxy) GetList(name string) (*value.List, bool) { return p.inputs[name].AsList() }

// Set stages v for output name.
func (p *IOProxy) Set(name string, v value.Value) { p.outputs[name] = v }

func (p *IOProxy) SetBool(name string, v bool)        { p.Set(name, value.BoolValue(v)) }
func (p *IOProxy) SetInt(name string, v int32)        { p.Set(name, value.IntValue(v)) }
func (p *IOProxy) SetFloat(name string, v float64)    { p.Set(name, value.FloatValue(v)) }
func (p *IOProxy) SetString(name string, v string)    { p.Set(name, value.StringValue(v)) }
func (p *IOProxy) SetList(name string, l *value.List) { p.Set(name, value.ListValue(l)) }

// Output returns a staged output value.
func (p *IOProxy) Output(name string) (value.Value, bool) {
	v, ok := p.outputs[name]
	return v, ok
}
