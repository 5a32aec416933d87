package patterntree

import (
	"fmt"
	"strings"
)

// Mermaid returns a flowchart of the tree in the syntax
// understood by mermaid-js (https://mermaid.js.org).
//
// Transitions are drawn as circle-ended edges labeled with their
// key, component reads as arrows labeled with the component name.
// Terminal nodes show their destination and the nodes they bind;
// exhaustive nodes are drawn with a thick border.
func Mermaid(t *Tree) string {
	var buf strings.Builder
	w := &indentWriter{
		w: &buf,
	}
	w.Printf("flowchart LR")
	w.Indent()
	writeMermaid(w, t, Root)
	w.Unindent()
	return buf.String()
}

func writeMermaid(w *indentWriter, t *Tree, id NodeID) {
	n := t.nodes[id]
	if n.exhaustive {
		w.Printf("style id%d stroke-width: 4px", id)
	}
	var label []string
	if n.subject != NoType {
		label = append(label, string(n.subject))
	}
	if n.hasTerminal {
		bindings := joinFunc(n.bindings, ",", func(b NodeID) string {
			return fmt.Sprintf("id%d", b)
		})
		label = append(label, fmt.Sprintf("%d(%s)", n.terminal, bindings))
	}
	w.Printf("id%d(%q)", id, strings.Join(label, ", "))
	for k, next := range n.Transitions() {
		w.Printf("id%d-- %s --oid%d", id, k, next)
	}
	if n.chain != noNode {
		w.Printf("id%d-- \".%s\" -->id%d", id, t.nodes[n.chain].component.Name, n.chain)
		writeMermaid(w, t, n.chain)
	}
	for _, next := range n.Transitions() {
		writeMermaid(w, t, next)
	}
}
