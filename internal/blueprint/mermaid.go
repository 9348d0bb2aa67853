package blueprint

import (
	"fmt"
	"io"
	"strings"
)

// WriteMermaid renders the blueprint as a Mermaid flowchart. Sub-graphs
// become Mermaid subgraphs and keyword edges are labelled with the keyword.
func (g *Graph) WriteMermaid(w io.Writer) error {
	var b strings.Builder
	ids := make(map[string]string)

	b.WriteString("graph TD\n")

	groups := 0
	var render func(s *scope, depth int)
	render = func(s *scope, depth int) {
		indent := strings.Repeat("    ", depth)
		for _, name := range s.names {
			switch v := s.items[name].(type) {
			case *NodeDef:
				id := fmt.Sprintf("n%d", len(ids))
				ids[v.path.Key()] = id
				fmt.Fprintf(&b, "%s%s[%q]\n", indent, id, name)
			case *SubGraph:
				fmt.Fprintf(&b, "%ssubgraph g%d[%q]\n", indent, groups, name)
				groups++
				render(v.scope, depth+1)
				fmt.Fprintf(&b, "%send\n", indent)
			}
		}
	}
	render(g.scope, 1)

	for _, l := range g.edges.links {
		from, to := ids[l.From.Key()], ids[l.To.Key()]
		if l.Param == "" {
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		} else {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", from, l.Param, to)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
