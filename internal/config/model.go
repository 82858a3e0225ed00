package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// file is the gohcl schema of a single configuration file.
type file struct {
	Runtime  []runtimeBlock `hcl:"runtime,block"`
	HTTP     []httpBlock    `hcl:"http,block"`
	Graphs   []graphBlock   `hcl:"graph,block"`
	Packages []packageBlock `hcl:"package,block"`
}

type runtimeBlock struct {
	LogLevel      *string `hcl:"log_level,optional"`
	LogFormat     *string `hcl:"log_format,optional"`
	InvokeTimeout *string `hcl:"invoke_timeout,optional"`
	MaxChainSteps *int    `hcl:"max_chain_steps,optional"`
	EventBuffer   *int    `hcl:"event_buffer,optional"`
	RequestBuffer *int    `hcl:"request_buffer,optional"`
}

type httpBlock struct {
	Listen *string `hcl:"listen,optional"`
}

type graphBlock struct {
	Name string `hcl:"name,label"`
}

type packageBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Config is the merged runtime configuration.
type Config struct {
	LogLevel      string        `validate:"oneof=debug info warn error"`
	LogFormat     string        `validate:"oneof=text json"`
	InvokeTimeout time.Duration `validate:"gt=0"`
	MaxChainSteps int           `validate:"gt=0"`
	EventBuffer   int           `validate:"gt=0"`
	RequestBuffer int           `validate:"gt=0"`
	Listen        string

	// Graphs lists the graphs to create at startup, in file order.
	Graphs []string `validate:"dive,required"`

	// Packages holds the raw settings body of each package block, by
	// package name.
	Packages map[string]*Package
}

// Package is a package block awaiting decoding by its module.
type Package struct {
	Name  string
	Body  hcl.Body
	Range hcl.Range
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		InvokeTimeout: 5 * time.Second,
		MaxChainSteps: 10000,
		EventBuffer:   256,
		RequestBuffer: 64,
		Packages:      make(map[string]*Package),
	}
}
