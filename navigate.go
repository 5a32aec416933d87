package patterntree

import (
	"fmt"
	"strings"
)

// Selector is one step of a path through a tree.
// See [Field] and [On].
type Selector struct {
	field string
	key   Key
	isKey bool
}

// Field returns a selector that descends from a node to the node
// reading the named component of the enclosing decomposition.
func Field(name string) Selector {
	return Selector{
		field: name,
	}
}

// On returns a selector that follows the transition labeled k.
func On(k Key) Selector {
	return Selector{
		key:   k,
		isKey: true,
	}
}

// OnType is shorthand for On(TypeKey(t)).
func OnType(t Type) Selector {
	return On(TypeKey(t))
}

// OnNull is shorthand for On(NullKey).
func OnNull() Selector {
	return On(NullKey)
}

// OnBare is shorthand for On(BareKey).
func OnBare() Selector {
	return On(BareKey)
}

// ParseSelector parses the textual form of a selector:
// ".name" selects a component, "null" the null transition,
// "_" the bare-match transition, and anything else
// the transition testing the type of that name.
func ParseSelector(s string) (Selector, error) {
	switch {
	case s == "":
		return Selector{}, fmt.Errorf("empty selector")
	case s == "null":
		return OnNull(), nil
	case s == DontCare:
		return OnBare(), nil
	case strings.HasPrefix(s, "."):
		if len(s) == 1 {
			return Selector{}, fmt.Errorf("selector %q has no component name", s)
		}
		return Field(s[1:]), nil
	}
	return OnType(Type(s)), nil
}

func (s Selector) String() string {
	if s.isKey {
		return s.key.String()
	}
	return "." + s.field
}

// Navigate follows path from the root and returns the node it reaches.
func (t *Tree) Navigate(path ...Selector) (NodeID, error) {
	id := Root
	for i, sel := range path {
		n := t.nodes[id]
		if sel.isKey {
			next, ok := n.next[sel.key]
			if !ok {
				return noNode, usageErrorf("navigate", NoPath, "no transition %v from n%d at step %d of %v", sel.key, id, i, pathString(path))
			}
			id = next
			continue
		}
		if n.chain == noNode {
			return noNode, usageErrorf("navigate", NoPath, "n%d reads no component at step %d of %v", id, i, pathString(path))
		}
		c := t.nodes[n.chain]
		if c.component.Name != sel.field {
			return noNode, usageErrorf("navigate", NoPath, "n%d reads component %q, not %q, at step %d of %v", id, c.component.Name, sel.field, i, pathString(path))
		}
		id = c.id
	}
	return id, nil
}

// MarkExhaustive asserts that the transitions of the given node,
// together with any exclusion of null already established on the
// paths reaching it, cover every value of its subject type.
// The emitter then omits the runtime test on the node's
// last transition.
func (t *Tree) MarkExhaustive(id NodeID) error {
	if id < 0 || int(id) >= len(t.nodes) {
		return usageErrorf("mark exhaustive", NoPath, "no node n%d", id)
	}
	n := t.nodes[id]
	if n.exhaustive {
		return usageErrorf("mark exhaustive", AlreadyExhaustive, "n%d", id)
	}
	if _, ok := t.ts.Subtypes(n.subject); !ok {
		return usageErrorf("mark exhaustive", NotClosed, "n%d has subject type %v", id, n.subject)
	}
	n.exhaustive = true
	logger.Printf("n%d marked exhaustive", id)
	return nil
}

func pathString(path []Selector) string {
	var buf strings.Builder
	buf.WriteString("[")
	for i, sel := range path {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sel.String())
	}
	buf.WriteString("]")
	return buf.String()
}
