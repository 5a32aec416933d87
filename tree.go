// Package patterntree compiles a list of structural patterns, each
// attached to a destination index, into a shared decision tree and
// linearizes that tree into a sequence of primitive runtime tests.
//
// Patterns are inserted one case at a time with [Tree.Insert]; cases
// sharing a structural prefix share the nodes for that prefix.
// Callers may then mark closed-hierarchy nodes as exhaustive
// ([Tree.Navigate], [Tree.MarkExhaustive]) before calling [Tree.Emit].
//
// A Tree is not safe for concurrent modification. Once built and
// annotated it is never modified again and may be read and emitted
// concurrently. Tracing with [LogTo] is shared by all trees; concurrent
// traces are interleaved.
package patterntree

import (
	"fmt"
	"iter"
	"slices"
)

// NodeID is the handle of a node within its [Tree].
type NodeID int

// Root is the handle of the root node of every tree.
const Root NodeID = 0

const noNode NodeID = -1

// KeyKind classifies a transition [Key].
type KeyKind uint8

const (
	// KeyType is a runtime test against a concrete type.
	KeyType KeyKind = iota
	// KeyNull is a test for the null value.
	KeyNull
	// KeyBare requires no test: the value is already known
	// to be of the node's subject type.
	KeyBare
)

// Key labels a transition from a node to one of its children.
type Key struct {
	Kind KeyKind
	// Type holds the tested type when Kind is KeyType.
	Type Type
}

// TypeKey returns the key of a runtime test against t.
func TypeKey(t Type) Key {
	return Key{
		Kind: KeyType,
		Type: t,
	}
}

var (
	// NullKey is the key of the null test.
	NullKey = Key{Kind: KeyNull}
	// BareKey is the key of the bare-match transition.
	BareKey = Key{Kind: KeyBare}
)

func (k Key) String() string {
	switch k.Kind {
	case KeyNull:
		return "null"
	case KeyBare:
		return "_"
	}
	return string(k.Type)
}

// Node is a vertex of a decision tree. Its fields are only
// modified by the [Tree] that owns it.
type Node struct {
	id      NodeID
	subject Type

	// component and source are set when the value of
	// this node is read from the value of source.
	component Component
	source    NodeID

	// chain holds the node reading the next component,
	// or noNode.
	chain NodeID

	keys []Key
	next map[Key]NodeID

	terminal    int
	hasTerminal bool
	bindings    []NodeID

	exhaustive bool
	entry      bool
}

// ID returns the handle of n.
func (n *Node) ID() NodeID {
	return n.id
}

// Subject returns the type that a value at this node is known to have.
func (n *Node) Subject() Type {
	return n.subject
}

// Component reports whether the value of n is read as a component
// of the value of another node, and if so, returns the component
// and that node.
func (n *Node) Component() (Component, NodeID, bool) {
	if n.source == noNode {
		return Component{}, noNode, false
	}
	return n.component, n.source, true
}

// Chain returns the node that reads the next component of the
// enclosing decomposition, if there is one.
func (n *Node) Chain() (NodeID, bool) {
	return n.chain, n.chain != noNode
}

// Transitions returns an iterator over the transitions of n
// in the order they were first created.
func (n *Node) Transitions() iter.Seq2[Key, NodeID] {
	return func(yield func(Key, NodeID) bool) {
		for _, k := range n.keys {
			if !yield(k, n.next[k]) {
				return
			}
		}
	}
}

// NumTransitions returns the number of transitions from n.
func (n *Node) NumTransitions() int {
	return len(n.keys)
}

// Child returns the child of n reached through k.
func (n *Node) Child(k Key) (NodeID, bool) {
	id, ok := n.next[k]
	return id, ok
}

// Terminal reports whether n terminates a case and
// returns the case's destination index if so.
func (n *Node) Terminal() (int, bool) {
	return n.terminal, n.hasTerminal
}

// Bindings returns the nodes whose values are passed, in order,
// to the destination of the case terminating at n.
func (n *Node) Bindings() []NodeID {
	return slices.Clone(n.bindings)
}

// Exhaustive reports whether n has been marked exhaustive.
func (n *Node) Exhaustive() bool {
	return n.exhaustive
}

// IsEntry reports whether n is the entry point of a record decomposition.
func (n *Node) IsEntry() bool {
	return n.entry
}

func (n *Node) isRead() bool {
	return n.source != noNode
}

// Tree is a decision tree built from a sequence of cases.
type Tree struct {
	ts    TypeSystem
	nodes []*Node
}

// New returns a tree with a single root node
// for values of type scrutinee.
func New(ts TypeSystem, scrutinee Type) *Tree {
	t := &Tree{
		ts: ts,
	}
	t.newNode(scrutinee)
	return t
}

// Build returns a tree holding all the given cases in order.
func Build(ts TypeSystem, scrutinee Type, cases []Case) (*Tree, error) {
	t := New(ts, scrutinee)
	for _, c := range cases {
		if _, err := t.Insert(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Scrutinee returns the type of the values the tree dispatches on.
func (t *Tree) Scrutinee() Type {
	return t.nodes[Root].subject
}

// TypeSystem returns the type system the tree was created with.
func (t *Tree) TypeSystem() TypeSystem {
	return t.ts
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given handle.
func (t *Tree) Node(id NodeID) *Node {
	return t.nodes[id]
}

// Nodes returns an iterator over all nodes in creation order.
func (t *Tree) Nodes() iter.Seq[*Node] {
	return slices.Values(t.nodes)
}

func (t *Tree) newNode(subject Type) *Node {
	n := &Node{
		id:      NodeID(len(t.nodes)),
		subject: subject,
		source:  noNode,
		chain:   noNode,
	}
	t.nodes = append(t.nodes, n)
	return n
}

// child returns the child of the node at reached through k,
// creating it if needed.
func (t *Tree) child(at NodeID, k Key) *Node {
	n := t.nodes[at]
	if id, ok := n.next[k]; ok {
		return t.nodes[id]
	}
	var subject Type
	switch k.Kind {
	case KeyType:
		subject = k.Type
	case KeyBare:
		subject = n.subject
	}
	c := t.newNode(subject)
	if n.next == nil {
		n.next = make(map[Key]NodeID)
	}
	n.next[k] = c.id
	n.keys = append(n.keys, k)
	logger.Printf("n%d -%v-> n%d (new)", at, k, c.id)
	return c
}

// read returns the node that reads component comp of entry's value
// after the node at, creating it if needed.
func (t *Tree) read(at NodeID, comp Component, entry NodeID) *Node {
	n := t.nodes[at]
	if n.chain != noNode {
		c := t.nodes[n.chain]
		if c.component != comp || c.source != entry {
			panic(fmt.Errorf("inconsistent component chain at n%d: have %s from n%d, want %s from n%d", at, c.component.Name, c.source, comp.Name, entry))
		}
		return c
	}
	c := t.newNode(comp.Type)
	c.component = comp
	c.source = entry
	n.chain = c.id
	logger.Printf("n%d .%s-> n%d (new)", at, comp.Name, c.id)
	return c
}

// slot returns the node where a pattern on type typ continues
// after at. The type-keyed child of at and its chain of bare-match
// fallbacks hold alternating whole-value bindings and decompositions,
// tried in that order. Only the last alternative may be shared, and
// only by a pattern of the same shape; otherwise the pattern gets a
// new fallback below it.
func (t *Tree) slot(at NodeID, typ Type, decompose bool) *Node {
	n := t.child(at, TypeKey(typ))
	for {
		id, ok := n.next[BareKey]
		if !ok {
			break
		}
		n = t.nodes[id]
	}
	if n.chain == noNode && !n.hasTerminal && !n.entry {
		// Not claimed by any case yet.
		return n
	}
	if n.entry == decompose {
		return n
	}
	return t.child(n.id, BareKey)
}

// Insert adds the given case to the tree and returns the
// node that terminates it.
func (t *Tree) Insert(c Case) (NodeID, error) {
	logger.Printf("insert %v {", c)
	logger.Indent()
	defer logger.Printf("}")
	defer logger.Unindent()

	var bindings []NodeID
	n, err := t.insert(Root, Unparen(c.Pattern), &bindings)
	if err != nil {
		return noNode, err
	}
	end := t.nodes[n]
	if end.hasTerminal {
		return noNode, usageErrorf("insert", DuplicateCase, "%v reaches n%d, which already terminates case %d", c, n, end.terminal)
	}
	end.terminal = c.Index
	end.hasTerminal = true
	end.bindings = bindings
	return n, nil
}

// insert inserts p at the given node, appending the nodes
// whose values p binds to bindings. It returns the node
// reached when p matches.
func (t *Tree) insert(at NodeID, p Pattern, bindings *[]NodeID) (NodeID, error) {
	switch p := p.(type) {
	case NullPattern:
		return t.child(at, NullKey).id, nil

	case TypePattern:
		slot := t.slot(at, p.Type, false)
		if binds(p.Name) {
			*bindings = append(*bindings, slot.id)
		}
		return slot.id, nil

	case RecordPattern:
		comps, ok := t.ts.Components(p.Type)
		if !ok {
			return noNode, usageErrorf("insert", NotProduct, "record pattern %v on %v", p, p.Type)
		}
		if len(comps) != len(p.Elems) {
			return noNode, usageErrorf("insert", ArityMismatch, "record pattern %v has %d sub-patterns; %v has %d components", p, len(p.Elems), p.Type, len(comps))
		}
		entry := t.slot(at, p.Type, true)
		entry.entry = true
		if p.AliasFirst && binds(p.Name) {
			*bindings = append(*bindings, entry.id)
		}
		cur := entry.id
		for i, comp := range comps {
			r := t.read(cur, comp, entry.id)
			end, err := t.insert(r.id, p.Elems[i], bindings)
			if err != nil {
				return noNode, err
			}
			cur = end
		}
		if !p.AliasFirst && binds(p.Name) {
			*bindings = append(*bindings, entry.id)
		}
		return cur, nil
	}
	panic(fmt.Errorf("unexpected pattern %T", p))
}
