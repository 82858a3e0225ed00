// Package plugin defines the contract between the core and the statically
// linked packages that extend it.
//
// A Package bundles node schemas and, optionally, an Engine: a long-lived
// worker running on its own goroutine. Engines are created at registration
// time and started exactly once when the core boots. From then on they
// receive Requests sent by executing nodes and may emit Events at any time,
// which the core delivers to every live instance of the matching event
// schema.
//
// Two request flavours exist. Send is fire-and-forget. Invoke carries a
// one-shot reply slot and the caller waits for the engine to answer, for
// the engine to drop the request, or for the invoke timeout to expire.
package plugin
