// Package blueprint builds immutable-by-convention descriptions of a
// computation graph. A Graph holds named nodes and nested sub-graphs, each
// addressed by a dotted path, plus a single canonical list of edges between
// them. A blueprint is never evaluated; Instantiate turns it into a runtime
// instance with its own state.
package blueprint

import (
	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// Graph is the root of a blueprint. It owns every node definition and every
// edge; sub-graphs are views into it.
type Graph struct {
	*scope
	edges *edgeSet
}

// SubGraph is a named child of a Graph sharing the root's node and edge
// storage under a path prefix.
type SubGraph struct {
	*scope
}

// scope is the part shared by the root and its sub-graphs: an ordered set of
// named children at a fixed prefix.
type scope struct {
	root   *Graph
	prefix nodeid.Path
	names  []string
	items  map[string]any // *NodeDef or *SubGraph
}

func newScope(root *Graph, prefix nodeid.Path) *scope {
	return &scope{root: root, prefix: prefix, items: make(map[string]any)}
}

// New creates a blueprint from the given items. Each item is stored as if
// passed to Add.
func New(items ...any) (*Graph, error) {
	g := &Graph{edges: &edgeSet{}}
	g.scope = newScope(g, nodeid.Path{})
	if err := g.Add(items...); err != nil {
		return nil, err
	}
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(items ...any) *Graph {
	g, err := New(items...)
	if err != nil {
		panic(err)
	}
	return g
}

// Pipe builds a blueprint from a single pipeline. One item yields a
// single-node graph.
func Pipe(items ...any) (*Graph, error) {
	switch len(items) {
	case 0:
		return nil, errs.New(errs.KindArity, "pipe", "", "nothing to pipe")
	case 1:
		return New(items[0])
	}
	g, err := New()
	if err != nil {
		return nil, err
	}
	if err := g.Pipe(items...); err != nil {
		return nil, err
	}
	return g, nil
}

// Named attaches an explicit name to a callable or a Graph.
type Named struct {
	Name string
	Item any
}

// Node names a callable.
func Node(c callable.Callable, name string) Named {
	return Named{Name: name, Item: c}
}

// Nested names a graph, so that adding it merges it as a sub-graph.
func Nested(name string, g *Graph) Named {
	return Named{Name: name, Item: g}
}

// Partial pairs a callable with default arguments.
type Partial struct {
	Callable callable.Callable
	Params   params.Params
}

// Bind creates a Partial.
func Bind(c callable.Callable, p params.Params) Partial {
	return Partial{Callable: c, Params: p}
}

// Prefix returns the path of this scope. It is empty for the root.
func (s *scope) Prefix() nodeid.Path { return s.prefix }

// Root returns the blueprint this scope belongs to.
func (s *scope) Root() *Graph { return s.root }

// Names returns the child names in insertion order.
func (s *scope) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of direct children.
func (s *scope) Len() int { return len(s.names) }

// Get returns the direct child called name, a *NodeDef or a *SubGraph.
func (s *scope) Get(name string) (any, error) {
	item, ok := s.items[name]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "get", s.prefix.Child(name).String(), "")
	}
	return item, nil
}

// Node returns the direct child node called name.
func (s *scope) Node(name string) (*NodeDef, error) {
	item, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	def, ok := item.(*NodeDef)
	if !ok {
		return nil, errs.New(errs.KindNotFound, "node", s.prefix.Child(name).String(), "it is a sub-graph")
	}
	return def, nil
}

// MustNode is like Node but panics on error.
func (s *scope) MustNode(name string) *NodeDef {
	def, err := s.Node(name)
	if err != nil {
		panic(err)
	}
	return def
}

// Sub returns the direct child sub-graph called name.
func (s *scope) Sub(name string) (*SubGraph, error) {
	item, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	sub, ok := item.(*SubGraph)
	if !ok {
		return nil, errs.New(errs.KindNotFound, "sub", s.prefix.Child(name).String(), "it is a node")
	}
	return sub, nil
}

// MustSub is like Sub but panics on error.
func (s *scope) MustSub(name string) *SubGraph {
	sub, err := s.Sub(name)
	if err != nil {
		panic(err)
	}
	return sub
}

// NodeAt resolves a dotted path relative to this scope to a node.
func (s *scope) NodeAt(path string) (*NodeDef, error) {
	p, err := nodeid.Parse(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindNaming, "node", path, err)
	}
	if p.IsRoot() {
		return nil, errs.New(errs.KindNotFound, "node", path, "empty path")
	}
	parent, err := s.walk(p.Parent())
	if err != nil {
		return nil, err
	}
	return parent.Node(p.Name())
}

// SubAt resolves a dotted path relative to this scope to a sub-graph.
func (s *scope) SubAt(path string) (*SubGraph, error) {
	p, err := nodeid.Parse(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindNaming, "sub", path, err)
	}
	if p.IsRoot() {
		return nil, errs.New(errs.KindNotFound, "sub", path, "empty path")
	}
	parent, err := s.walk(p.Parent())
	if err != nil {
		return nil, err
	}
	return parent.Sub(p.Name())
}

func (s *scope) walk(p nodeid.Path) (*scope, error) {
	cur := s
	for _, seg := range p.Segments() {
		sub, err := cur.Sub(seg)
		if err != nil {
			return nil, err
		}
		cur = sub.scope
	}
	return cur, nil
}

// Set stores item under name, overriding any node already there. Overriding
// a node keeps its path and edges and swaps its callable and defaults.
func (s *scope) Set(name string, item any) error {
	_, err := s.store(item, name)
	return err
}

// Add stores each item under its own name. Callables are named after their
// signature, graphs are merged flat into this scope and Named items use the
// name they carry.
func (s *scope) Add(items ...any) error {
	for _, item := range items {
		if _, err := s.store(item, ""); err != nil {
			return err
		}
	}
	return nil
}

// Union merges g into this scope, node for node, including its edges.
func (s *scope) Union(g *Graph) error {
	return s.merge(g, "")
}

// UnionAs merges g as the sub-graph called name.
func (s *scope) UnionAs(name string, g *Graph) error {
	if !nodeid.ValidName(name) {
		return errs.New(errs.KindNaming, "union", name, "invalid sub-graph name")
	}
	return s.merge(g, name)
}

// Downstream lists the targets fed by the node at path, in insertion order.
func (g *Graph) Downstream(path nodeid.Path) []Edge {
	return g.edges.downstream(path)
}

// Upstream lists the sources feeding the node at path, in insertion order.
func (g *Graph) Upstream(path nodeid.Path) []Edge {
	return g.edges.upstream(path)
}

// Edges returns a copy of the canonical edge list in insertion order.
func (g *Graph) Edges() []Link {
	return append([]Link(nil), g.edges.links...)
}

// Nodes returns every node definition in depth-first insertion order.
func (g *Graph) Nodes() []*NodeDef {
	var out []*NodeDef
	var visit func(s *scope)
	visit = func(s *scope) {
		for _, name := range s.names {
			switch v := s.items[name].(type) {
			case *NodeDef:
				out = append(out, v)
			case *SubGraph:
				visit(v.scope)
			}
		}
	}
	visit(g.scope)
	return out
}
