package blueprint

import "github.com/specialistvlad/pipegraph/internal/errs"

// Pipe connects the items in order, each feeding the next. Items may be
// nodes of this blueprint, names or dotted paths of existing nodes relative
// to this scope, parameter references made with NodeDef.Param, or anything
// Add accepts as a node. Items not yet stored are added first; a callable
// whose name is already taken overrides that node.
func (s *scope) Pipe(items ...any) error {
	if len(items) < 2 {
		return errs.New(errs.KindArity, "pipe", "", "pipelining requires at least two items, got %d", len(items))
	}

	vertices := make([]Edge, 0, len(items))
	for _, item := range items {
		v, err := s.vertex(item)
		if err != nil {
			return err
		}
		vertices = append(vertices, v)
	}

	for i := 1; i < len(vertices); i++ {
		s.root.edges.add(vertices[i-1].Path, vertices[i].Path, vertices[i].Param)
	}
	return nil
}

// Join pipes every source into target.
func (s *scope) Join(sources []any, target any) error {
	for _, src := range sources {
		if err := s.Pipe(src, target); err != nil {
			return err
		}
	}
	return nil
}

// Fan pipes source into every target.
func (s *scope) Fan(source any, targets []any) error {
	for _, dst := range targets {
		if err := s.Pipe(source, dst); err != nil {
			return err
		}
	}
	return nil
}

func (s *scope) vertex(item any) (Edge, error) {
	switch v := item.(type) {
	case EdgeRef:
		if v.Node == nil {
			return Edge{}, errs.New(errs.KindUnsupported, "pipe", v.Param, "parameter reference without a node")
		}
		p, err := s.storeNode(v.Node, "")
		return Edge{Path: p, Param: v.Param}, err
	case string:
		def, err := s.NodeAt(v)
		if err != nil {
			return Edge{}, err
		}
		return Edge{Path: def.path}, nil
	default:
		p, err := s.storeNode(item, "")
		return Edge{Path: p}, err
	}
}

// Ref names an existing node by dotted path and binds the pipeline input to
// its keyword param.
func (s *scope) Ref(path, param string) (EdgeRef, error) {
	def, err := s.NodeAt(path)
	if err != nil {
		return EdgeRef{}, err
	}
	return def.Param(param), nil
}
