// Package registry provides the central "glue" for the module system.
//
// Every statically linked module implements Module. At startup each module
// is handed the Registry, decodes its "package" block from the runtime
// configuration into its own settings struct, builds its plugin.Package and
// adds it. The registry is then validated so that configuration naming an
// unknown package, or schemas that cannot build their ports, stop the
// application before the core starts.
package registry
