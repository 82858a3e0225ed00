// Package node implements live graph nodes, their typed ports and the
// schemas they are built from.
//
// A Schema is the immutable blueprint registered by a package: a build
// function that declares ports, plus exactly one behaviour (base, exec or
// event). A Node is a live instance of a schema. Whenever the schema's build
// function is run for a node, the node's existing ports are reconciled
// against the declared ones so that unchanged ports keep their links and
// values.
//
// Links between ports are mutual. Topology changes (connect, disconnect,
// rebuild) are expected from a single goroutine at a time; port values may
// be read and written from any goroutine.
package node
