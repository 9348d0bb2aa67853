package blueprint

import (
	"reflect"

	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// store adds item to this scope and returns the path it was stored at. An
// explicit name takes precedence over the one carried by the item.
func (s *scope) store(item any, name string) (nodeid.Path, error) {
	switch v := item.(type) {
	case nil:
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "nil item")
	case Named:
		if name == "" {
			name = v.Name
		}
		if g, ok := v.Item.(*Graph); ok {
			return s.storeGraph(g, name)
		}
		return s.store(v.Item, name)
	case *Graph:
		return s.storeGraph(v, name)
	case *SubGraph:
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "merging a sub-graph is not supported")
	case EdgeRef:
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "parameter references can only be piped")
	default:
		return s.storeNode(item, name)
	}
}

func (s *scope) storeGraph(g *Graph, name string) (nodeid.Path, error) {
	if name != "" && !nodeid.ValidName(name) {
		return nodeid.Path{}, errs.New(errs.KindNaming, "store", name, "invalid sub-graph name")
	}
	if err := s.merge(g, name); err != nil {
		return nodeid.Path{}, err
	}
	if name == "" {
		return s.prefix, nil
	}
	return s.prefix.Child(name), nil
}

// storeNode stores anything that describes a single node.
func (s *scope) storeNode(item any, name string) (nodeid.Path, error) {
	switch v := item.(type) {
	case *NodeDef:
		// A node of this blueprint is referenced, not copied.
		if v.owner == s.root && name == "" {
			return v.path, nil
		}
		if name != "" && !nodeid.ValidName(name) {
			return nodeid.Path{}, errs.New(errs.KindNaming, "store", name, "invalid node name")
		}
		return s.put(v.rebase(s.root, s.prefix, name))
	case Named:
		if name == "" {
			name = v.Name
		}
		return s.storeNode(v.Item, name)
	case Partial:
		if isNil(v.Callable) {
			return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "partial without a callable")
		}
		return s.storeCallable(v.Callable, name, v.Params)
	case callable.Callable:
		return s.storeCallable(v, name, params.Params{})
	case *Graph, *SubGraph:
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "a graph cannot be used as a node")
	default:
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "unsupported item of type %T", item)
	}
}

func (s *scope) storeCallable(c callable.Callable, name string, p params.Params) (nodeid.Path, error) {
	if isNil(c) {
		return nodeid.Path{}, errs.New(errs.KindUnsupported, "store", name, "nil callable of type %T", c)
	}
	if name == "" {
		name = c.Signature().Name
	}
	if name == "" {
		return nodeid.Path{}, errs.New(errs.KindNaming, "store", "", "cannot derive a name for an anonymous callable, name it with Node")
	}
	if !nodeid.ValidName(name) {
		return nodeid.Path{}, errs.New(errs.KindNaming, "store", name, "invalid node name")
	}
	return s.put(&NodeDef{
		owner:  s.root,
		fn:     c,
		name:   name,
		path:   s.prefix.Child(name),
		args:   params.CopyArgs(p.Args),
		kwargs: params.CopyKwargs(p.Kwargs),
	})
}

// put registers def, or rebinds the node already stored under its name.
func (s *scope) put(def *NodeDef) (nodeid.Path, error) {
	switch existing := s.items[def.name].(type) {
	case *SubGraph:
		return nodeid.Path{}, errs.New(errs.KindStructureConflict, "store", existing.prefix.String(),
			"a sub-graph is already stored under this name")
	case *NodeDef:
		existing.rebind(def)
		return existing.path, nil
	}
	s.items[def.name] = def
	s.names = append(s.names, def.name)
	return def.path, nil
}

// subgraph returns the sub-graph called name, creating it if needed.
func (s *scope) subgraph(name string) (*SubGraph, error) {
	switch existing := s.items[name].(type) {
	case *SubGraph:
		return existing, nil
	case *NodeDef:
		return nil, errs.New(errs.KindStructureConflict, "store", existing.path.String(),
			"a node is already stored under this name")
	}
	sub := &SubGraph{scope: newScope(s.root, s.prefix.Child(name))}
	s.items[name] = sub
	s.names = append(s.names, name)
	return sub, nil
}

// merge copies g's structure and edges into this scope, or into the
// sub-graph called name when name is set. Conflicts are detected before
// anything is written.
func (s *scope) merge(g *Graph, name string) error {
	if g == nil {
		return errs.New(errs.KindUnsupported, "union", name, "nil graph")
	}
	if g == s.root {
		return errs.New(errs.KindSelfReference, "union", name, "cannot merge a graph into itself")
	}

	if err := s.checkMerge(g.scope, name); err != nil {
		return err
	}

	target := s
	if name != "" {
		sub, err := s.subgraph(name)
		if err != nil {
			return err
		}
		target = sub.scope
	}
	if err := target.copyFrom(g.scope); err != nil {
		return err
	}
	s.root.edges.merge(g.edges, target.prefix)
	return nil
}

func (s *scope) checkMerge(src *scope, name string) error {
	dst := s
	if name != "" {
		switch existing := s.items[name].(type) {
		case *NodeDef:
			return errs.New(errs.KindStructureConflict, "union", existing.path.String(),
				"a node is already stored under this name")
		case *SubGraph:
			dst = existing.scope
		default:
			return nil
		}
	}
	return checkStructure(dst, src)
}

// checkStructure reports the first name that is a node on one side and a
// sub-graph on the other.
func checkStructure(dst, src *scope) error {
	for _, name := range src.names {
		switch existing := dst.items[name].(type) {
		case *NodeDef:
			if _, ok := src.items[name].(*SubGraph); ok {
				return errs.New(errs.KindStructureConflict, "union", existing.path.String(),
					"cannot merge a sub-graph over a node")
			}
		case *SubGraph:
			sub, ok := src.items[name].(*SubGraph)
			if !ok {
				return errs.New(errs.KindStructureConflict, "union", existing.prefix.String(),
					"cannot merge a node over a sub-graph")
			}
			if err := checkStructure(existing.scope, sub.scope); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *scope) copyFrom(src *scope) error {
	for _, name := range src.names {
		switch v := src.items[name].(type) {
		case *NodeDef:
			if _, err := s.put(v.rebase(s.root, s.prefix, "")); err != nil {
				return err
			}
		case *SubGraph:
			sub, err := s.subgraph(name)
			if err != nil {
				return err
			}
			if err := sub.copyFrom(v.scope); err != nil {
				return err
			}
		}
	}
	return nil
}

// isNil reports whether c is nil or an interface holding a nil pointer, func
// or map.
func isNil(c callable.Callable) bool {
	if c == nil {
		return true
	}
	switch v := reflect.ValueOf(c); v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
