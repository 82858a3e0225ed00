package core

import (
	"errors"
	"fmt"

	"github.com/vk/patchbay/internal/graph"
	"github.com/vk/patchbay/internal/node"
)

// handle runs on the control loop goroutine. It is the only place graphs
// and links are mutated.
func (c *Core) handle(req Request) (Response, error) {
	switch r := req.(type) {
	case CreateNode:
		return c.createNode(r)
	case DeleteNode:
		return c.deleteNode(r)
	case ConnectIO:
		return c.connectIO(r)
	case DisconnectIO:
		return c.disconnectIO(r)
	case SetDefaultValue:
		return c.setDefaultValue(r)
	case SetNodePosition:
		return c.setNodePosition(r)
	case GetPackages:
		return c.getPackages(), nil
	case GetProject:
		return c.getProject(), nil
	case Reset:
		return c.reset(r)
	case CreateGraph:
		return c.createGraph(r), nil
	case RenameGraph:
		return c.renameGraph(r)
	case DeleteGraph:
		return c.deleteGraph(r)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownRequest, req)
}

func (c *Core) graph(id int) (*graph.Graph, error) {
	g, ok := c.graphs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGraphNotFound, id)
	}
	return g, nil
}

func (c *Core) node(graphID, id int) (*node.Node, error) {
	g, err := c.graph(graphID)
	if err != nil {
		return nil, err
	}
	n, ok := g.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: graph %d has no node %d", ErrNodeNotFound, graphID, id)
	}
	return n, nil
}

func (c *Core) schema(pkgName, name string) (*node.Schema, error) {
	pkg, ok := c.byName[pkgName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPackageNotFound, pkgName)
	}
	s, ok := pkg.Schema(name)
	if !ok {
		return nil, fmt.Errorf("%w: package %q has no schema %q", ErrSchemaNotFound, pkgName, name)
	}
	return s, nil
}

func (c *Core) addGraph(name string) *graph.Graph {
	id := c.nextGraphID
	c.nextGraphID++
	g := graph.New(id, name)
	c.graphs[id] = g
	return g
}

func (c *Core) updateLiveNodes() {
	total := 0
	for _, g := range c.graphs {
		total += g.Len()
	}
	c.metrics.LiveNodes.Set(float64(total))
}

func (c *Core) createNode(r CreateNode) (Response, error) {
	g, err := c.graph(r.Graph)
	if err != nil {
		return nil, err
	}
	s, err := c.schema(r.Package, r.Schema)
	if err != nil {
		return nil, err
	}
	n := g.CreateNode(s, r.Position)
	c.updateLiveNodes()
	c.logger.Debug("Node created", "graph", g.ID(), "node", n.ID(), "package", r.Package, "schema", r.Schema)
	return NodeCreated{RawNode: rawNode(n)}, nil
}

func (c *Core) deleteNode(r DeleteNode) (Response, error) {
	g, err := c.graph(r.Graph)
	if err != nil {
		return nil, err
	}
	if err := g.DeleteNode(r.Node); err != nil {
		if errors.Is(err, graph.ErrNodeNotFound) {
			return nil, fmt.Errorf("%w: graph %d has no node %d", ErrNodeNotFound, r.Graph, r.Node)
		}
		return nil, err
	}
	c.updateLiveNodes()
	return Ack{}, nil
}

func (c *Core) connectIO(r ConnectIO) (Response, error) {
	g, err := c.graph(r.Graph)
	if err != nil {
		return nil, err
	}
	outNode, outOK := g.Node(r.OutputNode)
	inNode, inOK := g.Node(r.InputNode)
	if !outOK || !inOK {
		return nil, &InvalidNodesError{Input: !inOK, Output: !outOK}
	}

	out, outOK := outNode.Output(r.Output)
	in, inOK := inNode.Input(r.Input)
	if !outOK || !inOK {
		return nil, &InvalidIOError{Input: !inOK, Output: !outOK}
	}

	switch o := out.(type) {
	case *node.ExecOutput:
		i, ok := in.(*node.ExecInput)
		if !ok {
			return nil, fmt.Errorf("%w: exec output %q cannot feed data input %q", ErrTypeMismatch, r.Output, r.Input)
		}
		node.ConnectExec(o, i)
	case *node.DataOutput:
		i, ok := in.(*node.DataInput)
		if !ok {
			return nil, fmt.Errorf("%w: data output %q cannot feed exec input %q", ErrTypeMismatch, r.Output, r.Input)
		}
		if err := node.ConnectData(o, i); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("Ports connected",
		"graph", r.Graph,
		"from", fmt.Sprintf("%d.%s", r.OutputNode, r.Output),
		"to", fmt.Sprintf("%d.%s", r.InputNode, r.Input),
	)
	return Ack{}, nil
}

func (c *Core) disconnectIO(r DisconnectIO) (Response, error) {
	n, err := c.node(r.Graph, r.Node)
	if err != nil {
		return nil, err
	}
	var port node.Port
	var ok bool
	if r.IsInput {
		port, ok = n.Input(r.IO)
	} else {
		port, ok = n.Output(r.IO)
	}
	if !ok {
		return nil, fmt.Errorf("%w: node %d has no port %q", ErrPortNotFound, r.Node, r.IO)
	}
	port.Disconnect()
	return Ack{}, nil
}

func (c *Core) setDefaultValue(r SetDefaultValue) (Response, error) {
	n, err := c.node(r.Graph, r.Node)
	if err != nil {
		return nil, err
	}
	in, ok := n.DataInput(r.Input)
	if !ok {
		return nil, fmt.Errorf("%w: node %d has no data input %q", ErrPortNotFound, r.Node, r.Input)
	}
	if err := in.SetDefault(r.Value); err != nil {
		return nil, err
	}
	return Ack{}, nil
}

func (c *Core) setNodePosition(r SetNodePosition) (Response, error) {
	n, err := c.node(r.Graph, r.Node)
	if err != nil {
		return nil, err
	}
	n.SetPosition(r.Position)
	return Ack{}, nil
}

func (c *Core) getPackages() PackageList {
	list := PackageList{Packages: make([]RawPackage, 0, len(c.packages))}
	for _, pkg := range c.packages {
		raw := RawPackage{Name: pkg.Name(), Engine: pkg.Engine() != nil, Schemas: []RawSchema{}}
		for _, s := range pkg.Schemas() {
			raw.Schemas = append(raw.Schemas, RawSchema{Name: s.Name(), Package: pkg.Name(), Kind: s.Kind().String()})
		}
		list.Packages = append(list.Packages, raw)
	}
	return list
}

func (c *Core) getProject() Project {
	p := Project{Graphs: make([]RawGraph, 0, len(c.graphs))}
	for id := range c.nextGraphID {
		g, ok := c.graphs[id]
		if !ok {
			continue
		}
		raw := RawGraph{ID: g.ID(), Name: g.Name(), Nodes: []RawNode{}}
		for _, n := range g.Nodes() {
			raw.Nodes = append(raw.Nodes, rawNode(n))
		}
		p.Graphs = append(p.Graphs, raw)
	}
	return p
}

func (c *Core) reset(r Reset) (Response, error) {
	g, err := c.graph(r.Graph)
	if err != nil {
		return nil, err
	}
	g.Reset()
	c.updateLiveNodes()
	c.logger.Info("Graph reset", "graph", g.ID())
	return Ack{}, nil
}

func (c *Core) createGraph(r CreateGraph) GraphCreated {
	name := r.Name
	if name == "" {
		name = fmt.Sprintf("Graph %d", c.nextGraphID)
	}
	g := c.addGraph(name)
	return GraphCreated{ID: g.ID(), Name: g.Name()}
}

func (c *Core) renameGraph(r RenameGraph) (Response, error) {
	g, err := c.graph(r.ID)
	if err != nil {
		return nil, err
	}
	g.SetName(r.Name)
	return Ack{}, nil
}

func (c *Core) deleteGraph(r DeleteGraph) (Response, error) {
	g, err := c.graph(r.ID)
	if err != nil {
		return nil, err
	}
	if len(c.graphs) == 1 {
		return nil, ErrLastGraph
	}
	g.Reset()
	delete(c.graphs, r.ID)
	c.updateLiveNodes()
	return Ack{}, nil
}
