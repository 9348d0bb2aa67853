package runtime

import (
	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
)

// Plan is a flattened blueprint: everything needed to build an instance,
// with no references back to the blueprint it was compiled from.
type Plan struct {
	// Nodes is the arena of node records. Groups refer to it by index.
	Nodes []NodeSpec
	Root  GroupSpec
	Edges []EdgeSpec
}

// NodeSpec describes one node. Args and Kwargs must already be private copies.
type NodeSpec struct {
	Path     nodeid.Path
	Callable callable.Callable
	Args     []any
	Kwargs   map[string]any
}

// GroupSpec describes a group and its children in insertion order.
type GroupSpec struct {
	Path  nodeid.Path
	Items []ItemSpec
}

// ItemSpec is a child of a group: a node when Group is nil, otherwise a
// nested group.
type ItemSpec struct {
	Name  string
	Node  int
	Group *GroupSpec
}

// EdgeSpec feeds the output of From into To, bound to the keyword Param when
// it is set.
type EdgeSpec struct {
	From  nodeid.Path
	To    nodeid.Path
	Param string
}
