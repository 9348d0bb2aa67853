// Package runtime evaluates compiled blueprints.
//
// An Instance owns one NodeState per blueprint node, wired with the
// blueprint's edges. Node outputs are computed lazily: Value pulls the
// cached outputs of upstream nodes, recomputing only what has been
// invalidated since the last read. Changing a node's parameters invalidates
// the node and everything downstream of it.
//
// An Instance is not safe for concurrent use.
package runtime

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/specialistvlad/pipegraph/internal/errs"
	"github.com/specialistvlad/pipegraph/internal/nodeid"
	"github.com/specialistvlad/pipegraph/internal/params"
)

// Instance is a live, evaluable copy of a blueprint. Its embedded NodeGroup
// is the root group.
type Instance struct {
	*NodeGroup

	id    string
	cfg   *Config
	arena []*NodeState
	index map[string]*NodeState
}

// New builds an instance from plan in three phases: create every node and
// group, wire the edges, then apply the initial parameter values. The
// resulting graph must be acyclic.
func New(plan Plan, values params.Group, opts ...Option) (*Instance, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	log := cfg.logger().With("instance", id)

	inst := &Instance{
		id:    id,
		cfg:   cfg,
		index: make(map[string]*NodeState, len(plan.Nodes)),
	}
	inst.NodeGroup = inst.build(&plan.Root, plan, log)

	if err := inst.wire(plan.Edges); err != nil {
		return nil, err
	}
	if err := inst.checkCycles(); err != nil {
		return nil, err
	}

	log.Debug("Instance built.", "nodes", len(inst.arena), "edges", len(plan.Edges), "broadcast", string(cfg.Broadcast))

	if len(values) > 0 {
		if err := inst.Set(values); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (i *Instance) build(spec *GroupSpec, plan Plan, log *slog.Logger) *NodeGroup {
	g := newNodeGroup(spec.Path, i.cfg.Broadcast, log)
	for _, item := range spec.Items {
		g.names = append(g.names, item.Name)
		if item.Group != nil {
			g.groups[item.Name] = i.build(item.Group, plan, log)
			continue
		}
		n := newNodeState(plan.Nodes[item.Node], log)
		g.nodes[item.Name] = n
		i.arena = append(i.arena, n)
		i.index[n.path.Key()] = n
	}
	return g
}

func (i *Instance) wire(edges []EdgeSpec) error {
	for _, e := range edges {
		from, ok := i.index[e.From.Key()]
		if !ok {
			return errs.New(errs.KindNotFound, "wire", e.From.String(), "edge source is not a node")
		}
		to, ok := i.index[e.To.Key()]
		if !ok {
			return errs.New(errs.KindNotFound, "wire", e.To.String(), "edge target is not a node")
		}

		from.downstream = append(from.downstream, to)
		if e.Param == "" {
			to.upstream = append(to.upstream, from)
		} else {
			to.upstream = append(to.upstream, paramTarget{param: e.Param, src: from})
		}
	}
	return nil
}

// checkCycles runs a depth-first search over the downstream links. Pulling a
// value through a cycle would never terminate.
func (i *Instance) checkCycles() error {
	permanent := make(map[*NodeState]bool, len(i.arena))
	temporary := make(map[*NodeState]bool)

	var visit func(n *NodeState) error
	visit = func(n *NodeState) error {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			return errs.New(errs.KindCycle, "instantiate", n.path.String(), "node is part of a cycle")
		}

		temporary[n] = true
		for _, d := range n.downstream {
			if err := visit(d); err != nil {
				return err
			}
		}
		delete(temporary, n)
		permanent[n] = true
		return nil
	}

	for _, n := range i.arena {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the identifier attached to every log record of this instance.
func (i *Instance) ID() string { return i.id }

// Config returns the validated configuration of this instance.
func (i *Instance) Config() Config { return *i.cfg }

// Nodes returns every node in depth-first insertion order.
func (i *Instance) Nodes() []*NodeState {
	return append([]*NodeState(nil), i.arena...)
}

// Lookup returns the node at an absolute path.
func (i *Instance) Lookup(path nodeid.Path) (*NodeState, bool) {
	n, ok := i.index[path.Key()]
	return n, ok
}
