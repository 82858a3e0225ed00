package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/patchbay/internal/ctxlog"
	"github.com/vk/patchbay/internal/fsutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads every path, which may be a file or a directory searched
// recursively for .hcl files, and merges the result over Default.
func Load(ctx context.Context, paths ...string) (*Config, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default()

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("walking config directory %s: %w", path, err)
		}
		if len(found) == 0 {
			logger.Warn("No .hcl config files found in path", "path", path)
		}
		files = append(files, found...)
	}

	parser := hclparse.NewParser()
	var diags hcl.Diagnostics
	var runtimeSeen, httpSeen string
	for _, path := range files {
		f, parseDiags := parser.ParseHCLFile(path)
		if parseDiags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, parseDiags)
		}

		var raw file
		if decodeDiags := gohcl.DecodeBody(f.Body, nil, &raw); decodeDiags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, decodeDiags)
		}

		for _, rt := range raw.Runtime {
			diags = append(diags, unique("runtime", &runtimeSeen, path)...)
			diags = append(diags, cfg.applyRuntime(path, rt)...)
		}
		for _, h := range raw.HTTP {
			diags = append(diags, unique("http", &httpSeen, path)...)
			if h.Listen != nil {
				cfg.Listen = *h.Listen
			}
		}
		for _, g := range raw.Graphs {
			cfg.Graphs = append(cfg.Graphs, g.Name)
		}
		for _, p := range raw.Packages {
			rng := p.Body.MissingItemRange()
			if prev, exists := cfg.Packages[p.Name]; exists {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"package\" block",
					Detail:   fmt.Sprintf("Package %q was already configured at %s.", p.Name, prev.Range),
					Subject:  rng.Ptr(),
				})
				continue
			}
			cfg.Packages[p.Name] = &Package{Name: p.Name, Body: p.Body, Range: rng}
		}
		logger.Debug("Loaded config file", "file", path)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded", "files", len(files), "packages", len(cfg.Packages), "graphs", len(cfg.Graphs))
	return cfg, nil
}

// Validate checks field ranges. Load calls it; callers that override fields
// afterwards should call it again.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("config field %s: invalid value %v (%s %s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
			}
			return errors.Join(errs...)
		}
		return err
	}
	return nil
}

func (c *Config) applyRuntime(path string, rt runtimeBlock) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if rt.LogLevel != nil {
		c.LogLevel = *rt.LogLevel
	}
	if rt.LogFormat != nil {
		c.LogFormat = *rt.LogFormat
	}
	if rt.InvokeTimeout != nil {
		d, err := time.ParseDuration(*rt.InvokeTimeout)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid duration",
				Detail:   fmt.Sprintf("%s: invoke_timeout: %v", path, err),
			})
		} else {
			c.InvokeTimeout = d
		}
	}
	if rt.MaxChainSteps != nil {
		c.MaxChainSteps = *rt.MaxChainSteps
	}
	if rt.EventBuffer != nil {
		c.EventBuffer = *rt.EventBuffer
	}
	if rt.RequestBuffer != nil {
		c.RequestBuffer = *rt.RequestBuffer
	}
	return diags
}

// unique reports a second block of the same type across all files.
func unique(name string, seen *string, path string) hcl.Diagnostics {
	if *seen == "" {
		*seen = path
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Duplicate \"" + name + "\" block",
		Detail:   fmt.Sprintf("Only one %q block is allowed; found one in %s and another in %s.", name, *seen, path),
	}}
}
