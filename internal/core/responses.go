package core

import (
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/value"
)

// Response is the answer to a Request.
type Response interface {
	response()
}

// Ack acknowledges requests that return no data.
type Ack struct{}

// NodeCreated answers CreateNode.
type NodeCreated struct {
	RawNode
}

// PackageList answers GetPackages.
type PackageList struct {
	Packages []RawPackage `json:"packages"`
}

// Project answers GetProject.
type Project struct {
	Graphs []RawGraph `json:"graphs"`
}

// GraphCreated answers CreateGraph.
type GraphCreated struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (Ack) response()          {}
func (NodeCreated) response()  {}
func (PackageList) response()  {}
func (Project) response()      {}
func (GraphCreated) response() {}

// RawLink points at a port on another node.
type RawLink struct {
	Node int    `json:"node"`
	IO   string `json:"io"`
}

type RawInput struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	Type       *value.Type  `json:"type,omitempty"`
	Value      *value.Value `json:"value,omitempty"`
	Default    *value.Value `json:"default,omitempty"`
	Connection *RawLink     `json:"connection,omitempty"`
}

type RawOutput struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Type        *value.Type  `json:"type,omitempty"`
	Value       *value.Value `json:"value,omitempty"`
	Connections []RawLink    `json:"connections,omitempty"`
}

type RawNode struct {
	ID       int           `json:"id"`
	Graph    int           `json:"graph"`
	Package  string        `json:"package"`
	Schema   string        `json:"schema"`
	Position node.Position `json:"position"`
	Inputs   []RawInput    `json:"inputs"`
	Outputs  []RawOutput   `json:"outputs"`
}

type RawGraph struct {
	ID    int       `json:"id"`
	Name  string    `json:"name"`
	Nodes []RawNode `json:"nodes"`
}

type RawSchema struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	Kind    string `json:"kind"`
}

type RawPackage struct {
	Name    string      `json:"name"`
	Engine  bool        `json:"engine"`
	Schemas []RawSchema `json:"schemas"`
}

func rawInput(in node.Input) RawInput {
	switch p := in.(type) {
	case *node.DataInput:
		typ, val, def := p.Type(), p.Value(), p.Default()
		raw := RawInput{Name: p.Name(), Kind: node.DataPort.String(), Type: &typ, Value: &val, Default: &def}
		if src := p.Source(); src != nil {
			raw.Connection = &RawLink{Node: src.Node().ID(), IO: src.Name()}
		}
		return raw
	case *node.ExecInput:
		raw := RawInput{Name: p.Name(), Kind: node.ExecPort.String()}
		if src := p.Source(); src != nil {
			raw.Connection = &RawLink{Node: src.Node().ID(), IO: src.Name()}
		}
		return raw
	}
	return RawInput{Name: in.Name()}
}

func rawOutput(out node.Output) RawOutput {
	switch p := out.(type) {
	case *node.DataOutput:
		typ, val := p.Type(), p.Value()
		raw := RawOutput{Name: p.Name(), Kind: node.DataPort.String(), Type: &typ, Value: &val}
		for _, in := range p.Sinks() {
			raw.Connections = append(raw.Connections, RawLink{Node: in.Node().ID(), IO: in.Name()})
		}
		return raw
	case *node.ExecOutput:
		raw := RawOutput{Name: p.Name(), Kind: node.ExecPort.String()}
		if dst := p.Target(); dst != nil {
			raw.Connections = []RawLink{{Node: dst.Node().ID(), IO: dst.Name()}}
		}
		return raw
	}
	return RawOutput{Name: out.Name()}
}

func rawNode(n *node.Node) RawNode {
	raw := RawNode{
		ID:       n.ID(),
		Graph:    n.GraphID(),
		Package:  n.Schema().Package(),
		Schema:   n.Schema().Name(),
		Position: n.Position(),
		Inputs:   []RawInput{},
		Outputs:  []RawOutput{},
	}
	for _, in := range n.Inputs() {
		raw.Inputs = append(raw.Inputs, rawInput(in))
	}
	for _, out := range n.Outputs() {
		raw.Outputs = append(raw.Outputs, rawOutput(out))
	}
	return raw
}
