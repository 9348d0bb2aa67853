package runtime

import (
	"log/slog"
	"maps"

	"github.com/specialistvlad/pipegraph/internal/callable"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// source is anything a node can pull an input from.
type source interface {
	cached() (any, error)
}

// NodeState is the live state of one node in an instance.
//
// Its cached value is valid only while the node is clean. A clean node
// implies every upstream node is clean too, which is what lets invalidation
// stop at nodes that are already dirty.
type NodeState struct {
	name string
	path nodeid.Path
	fn   callable.Callable
	sig  callable.Signature

	args   []any
	kwargs map[string]any

	upstream   []source
	downstream []*NodeState

	dirty bool
	cache any

	log *slog.Logger
}

func newNodeState(spec NodeSpec, log *slog.Logger) *NodeState {
	n := &NodeState{
		name:   spec.Path.Name(),
		path:   spec.Path,
		fn:     spec.Callable,
		sig:    spec.Callable.Signature(),
		args:   spec.Args,
		kwargs: spec.Kwargs,
		dirty:  true,
		log:    log,
	}
	if n.kwargs == nil {
		n.kwargs = map[string]any{}
	}
	return n
}

func (n *NodeState) Name() string                  { return n.name }
func (n *NodeState) Path() nodeid.Path             { return n.path }
func (n *NodeState) Signature() callable.Signature { return n.fn.Signature() }

// Dirty reports whether the next Value call will recompute.
func (n *NodeState) Dirty() bool { return n.dirty }

// Args returns a copy of the stored positional arguments.
func (n *NodeState) Args() []any { return params.CopyArgs(n.args) }

// Kwargs returns a copy of the stored keyword arguments.
func (n *NodeState) Kwargs() map[string]any { return params.CopyKwargs(n.kwargs) }

// IsInput reports whether the node has no upstream peers.
func (n *NodeState) IsInput() bool { return len(n.upstream) == 0 }

// Call evaluates the node with the given positional arguments appended to its
// upstream inputs. The stored arguments are not used and the cache is
// neither read nor written.
func (n *NodeState) Call(args ...any) (any, error) {
	return n.eval(args, nil)
}

// CallWith is like Call but also takes keyword arguments.
func (n *NodeState) CallWith(p params.Params) (any, error) {
	return n.eval(p.Args, p.Kwargs)
}

// Value returns the cached output, recomputing it from the stored arguments
// when the node is dirty. A failed evaluation leaves the node dirty.
func (n *NodeState) Value() (any, error) {
	return n.cached()
}

func (n *NodeState) cached() (any, error) {
	if !n.dirty {
		return n.cache, nil
	}

	n.log.Debug("Recomputing node.", "path", n.path.String())
	out, err := n.eval(n.args, n.kwargs)
	if err != nil {
		n.log.Debug("Node evaluation failed.", "path", n.path.String(), "error", err)
		return nil, err
	}
	n.cache = out
	n.dirty = false
	return out, nil
}

// eval gathers the upstream outputs and calls the node. A Params output is
// spread over the positional and keyword arguments, anything else is
// appended positionally. Caller arguments follow, and caller keywords take
// precedence over upstream ones.
func (n *NodeState) eval(args []any, kwargs map[string]any) (any, error) {
	var inArgs []any
	inKwargs := map[string]any{}

	for _, up := range n.upstream {
		v, err := up.cached()
		if err != nil {
			return nil, err
		}
		if p, ok := v.(params.Params); ok {
			inArgs = append(inArgs, p.Args...)
			maps.Copy(inKwargs, p.Kwargs)
			continue
		}
		inArgs = append(inArgs, v)
	}

	inArgs = append(inArgs, args...)
	maps.Copy(inKwargs, kwargs)
	return n.fn.Call(inArgs, inKwargs)
}

// Set replaces the stored arguments and invalidates the node and everything
// downstream of it. Keywords the callable does not accept are dropped.
func (n *NodeState) Set(p params.Params) {
	n.log.Debug("Setting node parameters.", "path", n.path.String())
	n.args = params.CopyArgs(p.Args)
	n.setKwargs(p.Kwargs, true)
	n.invalidate()
}

// Update merges kwargs into the stored keyword arguments and invalidates.
// Positional arguments are left untouched.
func (n *NodeState) Update(kwargs map[string]any) {
	n.log.Debug("Updating node parameters.", "path", n.path.String())
	n.setKwargs(kwargs, false)
	n.invalidate()
}

func (n *NodeState) setKwargs(kwargs map[string]any, replace bool) {
	if replace {
		n.kwargs = make(map[string]any, len(kwargs))
	}
	for k, v := range kwargs {
		if n.sig.Accepts(k) {
			n.kwargs[k] = params.CopyValue(v)
		}
	}
}

// invalidate marks the node and its downstream closure dirty. Reaching a node
// that is already dirty ends the walk along that path.
func (n *NodeState) invalidate() {
	if n.dirty {
		return
	}
	n.dirty = true
	n.cache = nil
	for _, d := range n.downstream {
		d.invalidate()
	}
}

// paramTarget re-packages a source's output as a single keyword argument.
type paramTarget struct {
	param string
	src   *NodeState
}

func (p paramTarget) cached() (any, error) {
	v, err := p.src.cached()
	if err != nil {
		return nil, err
	}
	return params.Kw(p.param, v), nil
}
