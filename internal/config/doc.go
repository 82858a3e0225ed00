// Package config loads the runtime configuration from HCL files.
//
// A configuration is one file or a directory of .hcl files. Each file may
// contain at most one "runtime" and one "http" block across the whole set,
// any number of "graph" blocks naming the graphs to create at startup, and
// one "package" block per package. Package blocks are not interpreted here;
// their bodies are handed to the matching module, which decodes them into
// its own settings struct.
package config
