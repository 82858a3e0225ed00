package registry

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/patchbay/internal/config"
	"github.com/vk/patchbay/internal/plugin"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry) error
}

// Registry collects the packages of every module for a single application
// instance.
type Registry struct {
	settings map[string]*config.Package
	packages []*plugin.Package
	byName   map[string]*plugin.Package
	validate *validator.Validate
}

// New creates a registry serving the given package settings, as loaded by
// config.Load. settings may be nil.
func New(settings map[string]*config.Package) *Registry {
	if settings == nil {
		settings = make(map[string]*config.Package)
	}
	return &Registry{
		settings: settings,
		byName:   make(map[string]*plugin.Package),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register runs every module's Register in order.
func (r *Registry) Register(modules ...Module) error {
	for _, m := range modules {
		if err := m.Register(r); err != nil {
			return fmt.Errorf("registering module %T: %w", m, err)
		}
	}
	return nil
}

// AddPackage adds pkg. Package names must be unique.
func (r *Registry) AddPackage(pkg *plugin.Package) error {
	if _, exists := r.byName[pkg.Name()]; exists {
		return fmt.Errorf("package %q is already registered", pkg.Name())
	}
	r.packages = append(r.packages, pkg)
	r.byName[pkg.Name()] = pkg
	return nil
}

// Packages returns the registered packages in registration order.
func (r *Registry) Packages() []*plugin.Package {
	return append([]*plugin.Package(nil), r.packages...)
}

// Configured reports whether the configuration has a block for pkg.
func (r *Registry) Configured(pkg string) bool {
	_, ok := r.settings[pkg]
	return ok
}

// DecodeSettings decodes the "package" block named pkg into target, a
// pointer to a struct with hcl tags, and validates it against its validate
// tags. Without a block target keeps its current values, which serve as the
// module's defaults.
func (r *Registry) DecodeSettings(pkg string, target any) error {
	if block, ok := r.settings[pkg]; ok {
		if diags := gohcl.DecodeBody(block.Body, nil, target); diags.HasErrors() {
			return fmt.Errorf("package %q settings: %w", pkg, diags)
		}
	}
	if err := r.validate.Struct(target); err != nil {
		return fmt.Errorf("package %q settings: %w", pkg, err)
	}
	return nil
}

// Body returns the raw settings body of pkg, or an empty body.
func (r *Registry) Body(pkg string) hcl.Body {
	if block, ok := r.settings[pkg]; ok {
		return block.Body
	}
	return hcl.EmptyBody()
}
