package blueprint

import (
	"github.com/specialistvlad/pipegraph/internal/params"
	"github.com/specialistvlad/pipegraph/internal/runtime"
)

// Plan flattens the blueprint into a runtime plan. Default arguments are
// deep-copied, so later changes to the blueprint do not reach instances
// built from the plan.
func (g *Graph) Plan() runtime.Plan {
	var plan runtime.Plan

	var compile func(s *scope) runtime.GroupSpec
	compile = func(s *scope) runtime.GroupSpec {
		spec := runtime.GroupSpec{Path: s.prefix}
		for _, name := range s.names {
			switch v := s.items[name].(type) {
			case *NodeDef:
				spec.Items = append(spec.Items, runtime.ItemSpec{Name: name, Node: len(plan.Nodes)})
				plan.Nodes = append(plan.Nodes, runtime.NodeSpec{
					Path:     v.path,
					Callable: v.fn,
					Args:     params.CopyArgs(v.args),
					Kwargs:   params.CopyKwargs(v.kwargs),
				})
			case *SubGraph:
				sub := compile(v.scope)
				spec.Items = append(spec.Items, runtime.ItemSpec{Name: name, Node: -1, Group: &sub})
			}
		}
		return spec
	}
	plan.Root = compile(g.scope)

	for _, l := range g.edges.links {
		plan.Edges = append(plan.Edges, runtime.EdgeSpec{From: l.From, To: l.To, Param: l.Param})
	}
	return plan
}

// Instantiate builds a runtime instance of the blueprint and applies values
// to it as if passed to the instance's Set.
func (g *Graph) Instantiate(values params.Group, opts ...runtime.Option) (*runtime.Instance, error) {
	return runtime.New(g.Plan(), values, opts...)
}
