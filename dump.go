package patterntree

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// String returns a textual dump of the tree structure, one node
// per line. Transitions are shown as "key: node" and component
// reads as ".name: node".
func (t *Tree) String() string {
	root := treeprint.NewWithRoot(t.nodeLabel(Root))
	t.dump(root, Root)
	return root.String()
}

func (t *Tree) dump(branch treeprint.Tree, id NodeID) {
	n := t.nodes[id]
	if n.chain != noNode {
		c := t.nodes[n.chain]
		sub := branch.AddBranch(fmt.Sprintf(".%s: %s", c.component.Name, t.nodeLabel(c.id)))
		t.dump(sub, c.id)
	}
	for k, next := range n.Transitions() {
		sub := branch.AddBranch(fmt.Sprintf("%v: %s", k, t.nodeLabel(next)))
		t.dump(sub, next)
	}
}

func (t *Tree) nodeLabel(id NodeID) string {
	n := t.nodes[id]
	var buf strings.Builder
	fmt.Fprintf(&buf, "n%d", id)
	if n.subject != NoType {
		fmt.Fprintf(&buf, " %v", n.subject)
	}
	var flags []string
	if n.entry {
		flags = append(flags, "entry")
	}
	if n.exhaustive {
		flags = append(flags, "exhaustive")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&buf, " [%s]", strings.Join(flags, " "))
	}
	if n.hasTerminal {
		fmt.Fprintf(&buf, " -> case %d%v", n.terminal, n.bindings)
	}
	return buf.String()
}
