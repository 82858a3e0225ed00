package node

import (
	"context"

	"github.com/vk/patchbay/internal/value"
)

// sourceSchema has one exec pair and outputs of every primitive kind.
func sourceSchema() *Schema {
	return NewExecSchema("Source", func(b *Builder) {
		b.IntOutput("Int")
		b.StringOutput("Text")
		b.BoolOutput("Flag")
	}, func(context.Context, *IOProxy, ExecuteContext) error { return nil })
}

// sinkSchema has inputs of every primitive kind.
func sinkSchema() *Schema {
	return NewExecSchema("Sink", func(b *Builder) {
		b.IntInput("Int", 7)
		b.StringInput("Text", "default")
		b.BoolInput("Flag", false)
	}, func(context.Context, *IOProxy, ExecuteContext) error { return nil })
}

// mutableSchema returns a schema whose ports are whatever *decl holds at
// build time, so tests can change the declaration between rebuilds.
func mutableSchema(decl *[]Descriptor) *Schema {
	return NewBaseSchema("Mutable", func(b *Builder) {
		for _, d := range *decl {
			if d.Kind == ExecPort {
				b.ExecInput(d.Name)
				b.ExecOutput(d.Name)
				continue
			}
			b.DataInput(d.Name, d.Default)
			b.DataOutput(d.Name, d.Default)
		}
	}, func(context.Context, *IOProxy, ExecuteContext) (string, error) { return "", nil })
}

func dataDesc(name string, v value.Value) Descriptor {
	return Descriptor{Name: name, Kind: DataPort, Default: v}
}

func execDesc(name string) Descriptor {
	return Descriptor{Name: name, Kind: ExecPort}
}

func mustDataInput(n *Node, name string) *DataInput {
	p, ok := n.DataInput(name)
	if !ok {
		panic("missing data input " + name)
	}
	return p
}

func mustDataOutput(n *Node, name string) *DataOutput {
	p, ok := n.DataOutput(name)
	if !ok {
		panic("missing data output " + name)
	}
	return p
}

func names[P Port](ports []P) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Name()
	}
	return out
}
