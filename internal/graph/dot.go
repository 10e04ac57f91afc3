package graph

import (
	"fmt"
	"strings"
)

// DOT renders the structure in Graphviz format. Label nodes are boxed.
func (s *Structure) DOT(title string, labels ...string) string {
	isLabel := make(map[string]bool, len(labels))
	for _, l := range labels {
		isLabel[l] = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", title)
	sb.WriteString("  rankdir=LR;\n")
	for _, n := range s.Nodes() {
		if isLabel[n] {
			fmt.Fprintf(&sb, "  %q [shape=box];\n", n)
			continue
		}
		fmt.Fprintf(&sb, "  %q;\n", n)
	}
	for _, e := range s.Edges() {
		fmt.Fprintf(&sb, "  %q -> %q;\n", e.From, e.To)
	}
	sb.WriteString("}\n")
	return sb.String()
}
