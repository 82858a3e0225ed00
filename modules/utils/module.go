// Package utils provides general purpose nodes: printing, environment
// lookup and string lists.
package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/plugin"
	"github.com/vk/patchbay/internal/registry"
	"github.com/vk/patchbay/internal/value"
)

const PackageName = "Utils"

// Settings is the "package" block of Utils.
type Settings struct {
	// PrintPrefix is written before every printed line.
	PrintPrefix string `hcl:"print_prefix,optional"`
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives Print output. Defaults to os.Stdout.
	Out io.Writer
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Register decodes the Utils settings and adds the package.
func (m *Module) Register(r *registry.Registry) error {
	var s Settings
	if err := r.DecodeSettings(PackageName, &s); err != nil {
		return err
	}
	pkg, err := m.NewPackage(s)
	if err != nil {
		return err
	}
	return r.AddPackage(pkg)
}

// NewPackage builds the Utils package.
func (m *Module) NewPackage(s Settings) (*plugin.Package, error) {
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	lookup := m.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	p := &printer{out: out, prefix: s.PrintPrefix}

	pkg := plugin.NewPackage(PackageName)
	for _, schema := range []*node.Schema{
		node.NewExecSchema("Print", func(b *node.Builder) {
			b.StringInput("Value", "")
		}, p.print),
		node.NewExecSchema("Get Env", func(b *node.Builder) {
			b.StringInput("Name", "")
			b.StringOutput("Value")
			b.BoolOutput("Found")
		}, getEnv(lookup)),
		node.NewBaseSchema("Split", func(b *node.Builder) {
			b.StringInput("Value", "")
			b.StringInput("Separator", ",")
			b.ListOutput("Parts", value.String)
		}, split),
		node.NewBaseSchema("Count", func(b *node.Builder) {
			b.ListInput("List", value.String)
			b.IntOutput("Count")
		}, count),
	} {
		if err := pkg.AddSchema(schema); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

// printer serialises writes so concurrent chains never interleave a line.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

func (p *printer) print(_ context.Context, io *node.IOProxy, ec node.ExecuteContext) error {
	v, _ := io.GetString("Value")
	ec.Logger().Debug("Printing value", "length", len(v))

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.out, "%s%s\n", p.prefix, v)
	return err
}

func getEnv(lookup func(string) (string, bool)) node.ExecFunc {
	return func(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) error {
		name, _ := io.GetString("Name")
		v, found := lookup(name)
		io.SetString("Value", v)
		io.SetBool("Found", found)
		return nil
	}
}

func split(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
	v, _ := io.GetString("Value")
	sep, _ := io.GetString("Separator")
	var parts []string
	if v != "" {
		parts = strings.Split(v, sep)
	}
	io.SetList("Parts", value.NewStringList(parts...))
	return "", nil
}

func count(_ context.Context, io *node.IOProxy, _ node.ExecuteContext) (string, error) {
	n := 0
	if l, ok := io.GetList("List"); ok && l != nil {
		n = l.Len()
	}
	io.SetInt("Count", int32(n))
	return "", nil
}
