package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/patchbay/internal/ctxlog"
	"github.com/vk/patchbay/internal/node"
)

// Validate checks the registered packages against the configuration and
// dry-runs every schema's build function.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(r.settings))
	for name := range r.settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			errs = append(errs, fmt.Sprintf("package block %q at %s: no such package is registered", name, r.settings[name].Range))
		}
	}

	for _, pkg := range r.packages {
		if pkg.Name() == "" {
			errs = append(errs, "a package has an empty name")
		}
		schemas := pkg.Schemas()
		if len(schemas) == 0 {
			logger.Warn("Package declares no schemas", "package", pkg.Name())
		}
		for _, s := range schemas {
			b := s.Build()
			if err := b.Err(); err != nil {
				errs = append(errs, fmt.Sprintf("package '%s', schema '%s': %v", pkg.Name(), s.Name(), err))
			}
			if s.Kind() == node.EventKind && len(b.Inputs()) > 0 {
				errs = append(errs, fmt.Sprintf("package '%s', event schema '%s': event schemas cannot declare inputs", pkg.Name(), s.Name()))
			}
		}
		if pkg.Engine() == nil {
			logger.Debug("Package has no engine", "package", pkg.Name())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validated", "packages", len(r.packages))
	return nil
}
