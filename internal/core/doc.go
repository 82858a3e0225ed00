// Package core is the runtime's orchestrator.
//
// A Core owns every graph and every registered package. All graph mutation
// goes through a single control loop (Run) that reads from two channels:
// requests submitted through a Controller, and events emitted by package
// engines. Requests are handled one at a time on the loop goroutine and
// answered on a one-shot reply channel, so the graph needs no locking of
// its own.
//
// # Event dispatch
//
// An event is matched to the event schema of the same name in the emitting
// package. The loop snapshots the schema's live instances and hands them to
// a dispatch goroutine that fires every instance concurrently and waits for
// all of them. The loop itself never waits on execution, so requests keep
// flowing while chains are suspended in engine calls.
//
// # Exec chains
//
// Firing an event node runs its fire function, writes the staged outputs
// and follows the exec output named by the outcome. Every node reached that
// way is executed in turn:
//
//  1. Connected data inputs are pulled from their producers. A producer that
//     is a pure base node (no exec inputs) is evaluated on demand first, so
//     its value reflects its own current inputs. Unconnected inputs reset to
//     their defaults.
//  2. The node's behaviour runs with an IO proxy and an execute context bound
//     to its package's engine.
//  3. Staged outputs are written back and the chain continues through the
//     exec output named by the outcome, or ends when it is unlinked.
//
// An error at any step ends that chain only. It is logged with the event id
// and counted; other chains of the same event carry on. A step limit stops
// chains that loop through cyclic exec wiring.
package core
