package runtime

import (
	"log/slog"

	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// NodeGroup is the live counterpart of a blueprint scope: an ordered set of
// named nodes and nested groups.
type NodeGroup struct {
	path   nodeid.Path
	names  []string
	nodes  map[string]*NodeState
	groups map[string]*NodeGroup

	broadcast BroadcastMode
	log       *slog.Logger
}

func newNodeGroup(path nodeid.Path, mode BroadcastMode, log *slog.Logger) *NodeGroup {
	return &NodeGroup{
		path:      path,
		nodes:     make(map[string]*NodeState),
		groups:    make(map[string]*NodeGroup),
		broadcast: mode,
		log:       log,
	}
}

func (g *NodeGroup) Path() nodeid.Path { return g.path }

// Names returns the child names in insertion order.
func (g *NodeGroup) Names() []string {
	return append([]string(nil), g.names...)
}

// Get returns the direct child called name, a *NodeState or a *NodeGroup.
func (g *NodeGroup) Get(name string) (any, error) {
	if n, ok := g.nodes[name]; ok {
		return n, nil
	}
	if sub, ok := g.groups[name]; ok {
		return sub, nil
	}
	return nil, errs.New(errs.KindNotFound, "get", g.path.Child(name).String(), "")
}

// Node returns the direct child node called name.
func (g *NodeGroup) Node(name string) (*NodeState, error) {
	if n, ok := g.nodes[name]; ok {
		return n, nil
	}
	return nil, errs.New(errs.KindNotFound, "node", g.path.Child(name).String(), "")
}

// MustNode is like Node but panics on error.
func (g *NodeGroup) MustNode(name string) *NodeState {
	n, err := g.Node(name)
	if err != nil {
		panic(err)
	}
	return n
}

// Group returns the direct child group called name.
func (g *NodeGroup) Group(name string) (*NodeGroup, error) {
	if sub, ok := g.groups[name]; ok {
		return sub, nil
	}
	return nil, errs.New(errs.KindNotFound, "group", g.path.Child(name).String(), "")
}

// MustGroup is like Group but panics on error.
func (g *NodeGroup) MustGroup(name string) *NodeGroup {
	sub, err := g.Group(name)
	if err != nil {
		panic(err)
	}
	return sub
}

// NodeAt resolves a dotted path relative to this group to a node.
func (g *NodeGroup) NodeAt(path string) (*NodeState, error) {
	parent, name, err := g.resolve(path)
	if err != nil {
		return nil, err
	}
	return parent.Node(name)
}

// GroupAt resolves a dotted path relative to this group to a group.
func (g *NodeGroup) GroupAt(path string) (*NodeGroup, error) {
	parent, name, err := g.resolve(path)
	if err != nil {
		return nil, err
	}
	return parent.Group(name)
}

func (g *NodeGroup) resolve(raw string) (*NodeGroup, string, error) {
	p, err := nodeid.Parse(raw)
	if err != nil {
		return nil, "", errs.Wrap(errs.KindNaming, "lookup", raw, err)
	}
	if p.IsRoot() {
		return nil, "", errs.New(errs.KindNotFound, "lookup", raw, "empty path")
	}
	cur := g
	for _, seg := range p.Parent().Segments() {
		if cur, err = cur.Group(seg); err != nil {
			return nil, "", err
		}
	}
	return cur, p.Name(), nil
}

// Leaves returns every node in this group's subtree, depth first in
// insertion order.
func (g *NodeGroup) Leaves() []*NodeState {
	var out []*NodeState
	g.walk(func(n *NodeState) { out = append(out, n) })
	return out
}

func (g *NodeGroup) walk(fn func(*NodeState)) {
	for _, name := range g.names {
		if n, ok := g.nodes[name]; ok {
			fn(n)
			continue
		}
		g.groups[name].walk(fn)
	}
}

// Set routes a parameter payload into this group.
//
// Keys naming a child are specific entries: a params.Params value replaces
// that node's arguments, a params.Group value is routed into that child
// group. Every other key is a global value, offered to the nodes of this
// subtree and folded underneath the keywords of each specific entry.
//
// The payload is checked in full before anything changes, so a failing Set
// leaves the group untouched.
func (g *NodeGroup) Set(values params.Group) error {
	if err := g.check(values); err != nil {
		return err
	}
	g.apply(values, nil)
	return nil
}

// split separates the entries addressed to children from the globals.
func (g *NodeGroup) split(values params.Group) (specific, global map[string]any) {
	specific = map[string]any{}
	global = map[string]any{}
	for k, v := range values {
		_, isNode := g.nodes[k]
		_, isGroup := g.groups[k]
		if isNode || isGroup {
			specific[k] = v
		} else {
			global[k] = v
		}
	}
	return specific, global
}

func (g *NodeGroup) check(values params.Group) error {
	specific, _ := g.split(values)
	for _, name := range params.SortedKeys(specific) {
		path := g.path.Child(name).String()
		switch v := asEntry(specific[name]).(type) {
		case params.Params:
			if _, ok := g.nodes[name]; !ok {
				return errs.New(errs.KindParamSpec, "set", path, "params given for a group, use a params.Group")
			}
		case params.Group:
			sub, ok := g.groups[name]
			if !ok {
				return errs.New(errs.KindParamSpec, "set", path, "group given for a node, use params.Params")
			}
			if err := sub.check(v); err != nil {
				return err
			}
		default:
			return errs.New(errs.KindParamSpec, "set", path,
				"expected params.Params or params.Group, got %T", specific[name])
		}
	}
	return nil
}

// asEntry normalises pointer and plain-map spellings of specific entries.
func asEntry(v any) any {
	switch t := v.(type) {
	case *params.Params:
		if t != nil {
			return *t
		}
	case map[string]any:
		return params.Group(t)
	}
	return v
}

func (g *NodeGroup) apply(values params.Group, inherited map[string]any) {
	specific, global := g.split(values)
	g.log.Debug("Applying parameters.", "group", g.path.String(), "specific", len(specific), "global", len(global))

	if len(global) > 0 {
		g.broadcastGlobals(global)
	}

	globals := params.Merge(inherited, global)
	for _, name := range params.SortedKeys(specific) {
		switch v := asEntry(specific[name]).(type) {
		case params.Params:
			g.nodes[name].Set(params.Params{Args: v.Args, Kwargs: params.Merge(globals, v.Kwargs)})
		case params.Group:
			g.groups[name].apply(v, globals)
		}
	}
}

// broadcastGlobals merges the global values into the nodes of this subtree
// and invalidates every node it visits.
func (g *NodeGroup) broadcastGlobals(global map[string]any) {
	g.walk(func(n *NodeState) {
		if g.broadcast == BroadcastInputs && !n.IsInput() {
			return
		}
		n.Update(global)
	})
}
