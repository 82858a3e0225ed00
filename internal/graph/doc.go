// Package graph holds the live node collection of a single graph and owns
// node lifecycle.
//
// # Responsibilities
//
// A Graph maps node ids to live nodes. It allocates ids from a monotonic
// counter that is never reused, so a deleted node's id never comes back
// within the same graph, even after Reset.
//
//   - CreateNode builds a node from a schema, reconciles its ports and
//     registers it with the schema's instance set.
//   - DeleteNode disconnects every port of the node before it is released,
//     so no remote port keeps a link to it.
//   - Reset does the same for every node and empties the graph.
//
// # Thread-Safety
//
// A Graph is NOT safe for concurrent mutation. It is owned by the core's
// control loop, which is the only goroutine that calls the mutating
// methods. Executions running on other goroutines only touch nodes and
// ports, which carry their own synchronization.
package graph
