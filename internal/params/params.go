// Package params holds the argument containers shared by blueprints and
// runtime instances.
//
// Params bundles positional and keyword arguments. It is used to supply a
// node's arguments and, when returned by a node, to spread that node's
// output over a downstream node's positional and keyword arguments.
//
// Group is a keyword mapping whose values are globals, Params or nested
// Groups. It addresses the parameters of nodes inside a sub-graph.
package params

import (
	"maps"
	"slices"
)

// Params is an ordered sequence of positional values plus a keyword mapping.
type Params struct {
	Args   []any
	Kwargs map[string]any
}

// P builds a Params from positional values. Keywords are added with With.
func P(args ...any) Params {
	return Params{Args: slices.Clone(args), Kwargs: map[string]any{}}
}

// Kw builds a Params holding a single keyword argument.
func Kw(name string, value any) Params {
	return Params{Kwargs: map[string]any{name: value}}
}

// With returns a copy of p with the keyword name bound to value.
func (p Params) With(name string, value any) Params {
	out := p.Clone()
	out.Kwargs[name] = value
	return out
}

// Clone returns a copy of p that shares no slices or maps with it. The
// values themselves are not copied.
func (p Params) Clone() Params {
	return Params{Args: slices.Clone(p.Args), Kwargs: CloneKwargs(p.Kwargs)}
}

// Group is a nested keyword bundle used to address sub-graph parameters.
type Group map[string]any

// CloneKwargs copies a keyword map. A nil map yields an empty, non-nil map.
func CloneKwargs(kw map[string]any) map[string]any {
	out := make(map[string]any, len(kw))
	maps.Copy(out, kw)
	return out
}

// Merge returns a new map holding base overlaid by every map in overlays, in
// order. Later maps win on key conflicts.
func Merge(base map[string]any, overlays ...map[string]any) map[string]any {
	out := CloneKwargs(base)
	for _, o := range overlays {
		maps.Copy(out, o)
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
