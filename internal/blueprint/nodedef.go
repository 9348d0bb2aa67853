package blueprint

import (
	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// NodeDef is a node in a blueprint: a callable with default arguments,
// stored at a path inside its owning Graph.
type NodeDef struct {
	owner  *Graph
	fn     callable.Callable
	name   string
	path   nodeid.Path
	args   []any
	kwargs map[string]any
}

func (d *NodeDef) Owner() *Graph                { return d.owner }
func (d *NodeDef) Callable() callable.Callable  { return d.fn }
func (d *NodeDef) Name() string                 { return d.name }
func (d *NodeDef) Path() nodeid.Path            { return d.path }
func (d *NodeDef) Args() []any                  { return params.CopyArgs(d.args) }
func (d *NodeDef) Kwargs() map[string]any       { return params.CopyKwargs(d.kwargs) }
func (d *NodeDef) String() string               { return d.path.String() }
func (d *NodeDef) Signature() callable.Signature { return d.fn.Signature() }

// Param refers to the keyword input param of this node. Piping into it binds
// the upstream output to that keyword instead of appending it positionally.
//
//	g.Pipe("b", g.MustNode("c").Param("val_b"))
func (d *NodeDef) Param(param string) EdgeRef {
	return EdgeRef{Node: d, Param: param}
}

// rebind replaces the callable and default arguments in place. The path and
// every edge touching it are kept.
func (d *NodeDef) rebind(other *NodeDef) {
	d.fn = other.fn
	d.args = params.CopyArgs(other.args)
	d.kwargs = params.CopyKwargs(other.kwargs)
}

// rebase copies d into owner under prefix. An empty name keeps d's name.
func (d *NodeDef) rebase(owner *Graph, prefix nodeid.Path, name string) *NodeDef {
	if name == "" {
		name = d.name
	}
	return &NodeDef{
		owner:  owner,
		fn:     d.fn,
		name:   name,
		path:   prefix.Child(name),
		args:   params.CopyArgs(d.args),
		kwargs: params.CopyKwargs(d.kwargs),
	}
}

// EdgeRef is a node together with the keyword input that the previous item
// of a pipeline should feed.
type EdgeRef struct {
	Node  *NodeDef
	Param string
}
