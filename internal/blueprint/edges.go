package blueprint

import (
	"github.com/specialistvlad/pipegraph/internal/nodeid"
)

// Edge is one end of a dependency. Seen from a source it names the target
// node, seen from a target it names the source node. Param is the keyword
// the source's output is bound to, or "" for the default binding.
type Edge struct {
	Path  nodeid.Path
	Param string
}

// Link is a single directed edge in the canonical edge list. The output of
// From feeds To, bound to the keyword Param when it is set.
type Link struct {
	From  nodeid.Path
	To    nodeid.Path
	Param string
}

func (l Link) key() string {
	return l.From.Key() + "\x00" + l.To.Key() + "\x00" + l.Param
}

// edgeSet holds a blueprint's only edge list. Upstream and downstream views
// are derived from it on demand.
type edgeSet struct {
	links []Link
}

// add appends an edge. Pipelining the same pair twice records it twice.
func (s *edgeSet) add(from, to nodeid.Path, param string) {
	s.links = append(s.links, Link{From: from, To: to, Param: param})
}

// merge appends every link of other, rebased under prefix, that is not
// already present. Presence is checked against the edges held before the
// merge started, so repeated links within other are all kept.
func (s *edgeSet) merge(other *edgeSet, prefix nodeid.Path) {
	existing := make(map[string]struct{}, len(s.links))
	for _, l := range s.links {
		existing[l.key()] = struct{}{}
	}

	for _, l := range other.links {
		rebased := Link{From: prefix.Join(l.From), To: prefix.Join(l.To), Param: l.Param}
		if _, ok := existing[rebased.key()]; ok {
			continue
		}
		s.links = append(s.links, rebased)
	}
}

// downstream lists the targets fed by from, in insertion order.
func (s *edgeSet) downstream(from nodeid.Path) []Edge {
	var out []Edge
	for _, l := range s.links {
		if l.From.Equal(from) {
			out = append(out, Edge{Path: l.To, Param: l.Param})
		}
	}
	return out
}

// upstream lists the sources feeding to, in insertion order.
func (s *edgeSet) upstream(to nodeid.Path) []Edge {
	var out []Edge
	for _, l := range s.links {
		if l.To.Equal(to) {
			out = append(out, Edge{Path: l.From, Param: l.Param})
		}
	}
	return out
}
