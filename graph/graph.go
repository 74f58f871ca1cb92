// Package graph drives a request through a fixed directed graph of agent
// nodes: static edges, one conditional branch per node at most, and a step
// cap guaranteeing termination. All branches converge at the synthesizer.
package graph

import (
	"fmt"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
)

// End is the terminal pseudo-node name.
const End = "__end__"

// NodeFunc is one graph node: it owns the state exclusively during its turn.
type NodeFunc func(st *core.State) error

// RouteFunc picks the next node name after a conditional node runs.
type RouteFunc func(st *core.State) string

// Graph is a fixed directed control-flow graph over agent nodes.
type Graph struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]RouteFunc
	entry       string
	maxSteps    int
	logger      logging.Logger
}

// Option mutates graph construction.
type Option func(*Graph)

// WithMaxSteps overrides the step cap (default 10).
func WithMaxSteps(n int) Option {
	return func(g *Graph) { g.maxSteps = n }
}

// WithLogger sets the graph logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:       map[string]NodeFunc{},
		edges:       map[string]string{},
		conditional: map[string]RouteFunc{},
		maxSteps:    10,
		logger:      logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode registers a named node.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge wires a static transition.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

// AddConditional wires a router function deciding the successor at run time.
func (g *Graph) AddConditional(from string, route RouteFunc) *Graph {
	g.conditional[from] = route
	return g
}

// SetEntry declares the entry node.
func (g *Graph) SetEntry(name string) *Graph {
	g.entry = name
	return g
}

// Run walks the graph from the entry node until End or the step cap. Node
// errors abort the walk; agents are expected to absorb their own failures,
// so an error here is a wiring defect, not a model hiccup.
func (g *Graph) Run(st *core.State) error {
	if g.entry == "" {
		return fmt.Errorf("graph has no entry node")
	}
	current := g.entry
	for step := 0; step < g.maxSteps; step++ {
		if current == End {
			return nil
		}
		fn, ok := g.nodes[current]
		if !ok {
			return fmt.Errorf("unknown node %q", current)
		}
		g.logger.Debug("graph.step", "node", current, "step", step)
		if err := fn(st); err != nil {
			return fmt.Errorf("node %q: %w", current, err)
		}

		if route, ok := g.conditional[current]; ok {
			next := route(st)
			if next == "" {
				next = End
			}
			current = next
			continue
		}
		if next, ok := g.edges[current]; ok {
			current = next
			continue
		}
		return nil
	}
	return fmt.Errorf("step cap reached without hitting End")
}
