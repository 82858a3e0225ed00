package plugin

import (
	"fmt"

	"github.com/vk/patchbay/internal/node"
)

// Package is a named bundle of schemas with an optional engine.
type Package struct {
	name    string
	schemas []*node.Schema
	engine  *Engine
}

func NewPackage(name string) *Package {
	return &Package{name: name}
}

func (p *Package) Name() string { return p.name }

// AddSchema registers s under this package.
func (p *Package) AddSchema(s *node.Schema) error {
	if _, exists := p.Schema(s.Name()); exists {
		return fmt.Errorf("%w: package %q already has schema %q", ErrDuplicateSchema, p.name, s.Name())
	}
	s.SetPackage(p.name)
	p.schemas = append(p.schemas, s)
	return nil
}

// Schemas returns the schemas in registration order.
func (p *Package) Schemas() []*node.Schema {
	return append([]*node.Schema(nil), p.schemas...)
}

func (p *Package) Schema(name string) (*node.Schema, bool) {
	for _, s := range p.schemas {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// SetEngine attaches the package's engine.
func (p *Package) SetEngine(e *Engine) { p.engine = e }

// Engine returns the package's engine, or nil.
func (p *Package) Engine() *Engine { return p.engine }
