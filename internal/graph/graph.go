package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/patchbay/internal/node"
)

// ErrNodeNotFound is returned for ids the graph does not hold.
var ErrNodeNotFound = errors.New("node not found")

// Graph is an indexed collection of live nodes.
type Graph struct {
	id     int
	name   string
	nextID int
	nodes  map[int]*node.Node
}

// New returns an empty graph.
func New(id int, name string) *Graph {
	return &Graph{id: id, name: name, nodes: make(map[int]*node.Node)}
}

// ID is the graph's index in the project.
func (g *Graph) ID() int { return g.id }

// Name is the display name; SetName changes it.
func (g *Graph) Name() string     { return g.name }
func (g *Graph) SetName(n string) { g.name = n }

// Len reports how many live nodes the graph holds.
func (g *Graph) Len() int { return len(g.nodes) }

// CreateNode builds a node of schema at pos and adds it to the graph.
func (g *Graph) CreateNode(schema *node.Schema, pos node.Position) *node.Node {
	id := g.nextID
	g.nextID++
	n := node.New(id, g.id, schema, pos)
	g.nodes[id] = n
	return n
}

// DeleteNode disconnects and releases the node, then drops it.
func (g *Graph) DeleteNode(id int) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: graph %d has no node %d", ErrNodeNotFound, g.id, id)
	}
	n.Release()
	delete(g.nodes, id)
	return nil
}

// Node looks up a node by id.
func (g *Graph) Node(id int) (*node.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []*node.Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*node.Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Reset releases every node and empties the graph. The id counter keeps
// counting.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.Release()
	}
	clear(g.nodes)
}
