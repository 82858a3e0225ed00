// Package logic provides boolean control flow and comparison nodes.
package logic

import (
	"context"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
)

// PackageName is the name the package registers under.
const PackageName = "Logic"

// Outcomes of the Branch node.
const (
	True  = "True"
	False = "False"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register adds the Logic package.
func (m *Module) Register(r *registry.Registry) error {
	pkg, err := NewPackage()
	if err != nil {
		return err
	}
	return r.AddPackage(pkg)
}

// NewPackage builds the Logic package.
func NewPackage() (*plugin.Package, error) {
	pkg := plugin.NewPackage(PackageName)
	for _, s := range []*node.Schema{
		node.NewBaseSchema("Branch", buildBranch, branch),
		node.NewBaseSchema("And", buildBinary, binary(func(a, b bool) bool { return a && b })),
		node.NewBaseSchema("Or", buildBinary, binary(func(a, b bool) bool { return a || b })),
		node.NewBaseSchema("Not", buildNot, not),
		node.NewBaseSchema("Equal", buildEqual, equal),
	} {
		if err := pkg.AddSchema(s); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

func buildBranch(b *node.Builder) {
	b.ExecInput(node.ExecutePort)
	b.ExecOutput(True)
	b.ExecOutput(False)
	b.BoolInput("Condition", false)
}

// branch resolves to True or False and nothing else.
func branch(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
	if cond, _ := io.GetBool("Condition"); cond {
		return True, nil
	}
	return False, nil
}

func buildBinary(b *node.Builder) {
	b.BoolInput("A", false)
	b.BoolInput("B", false)
	b.BoolOutput("Result")
}

func binary(op func(a, b bool) bool) node.BaseFunc {
	return func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
		a, _ := io.GetBool("A")
		b, _ := io.GetBool("B")
		io.SetBool("Result", op(a, b))
		return "", nil
	}
}

func buildNot(b *node.Builder) {
	b.BoolInput("Value", false)
	b.BoolOutput("Result")
}

func not(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
	v, _ := io.GetBool("Value")
	io.SetBool("Result", !v)
	return "", nil
}

func buildEqual(b *node.Builder) {
	b.StringInput("A", "")
	b.StringInput("B", "")
	b.BoolOutput("Result")
}

func equal(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
	a, _ := io.GetString("A")
	b, _ := io.GetString("B")
	io.SetBool("Result", a == b)
	return "", nil
}
