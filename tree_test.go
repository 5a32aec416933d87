package patterntree_test

import (
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/patterntree"
	"github.com/rogpeppe/patterntree/universe"
)

func TestTreeString(t *testing.T) {
	u := javaLang().Record("Foo", field("o", "Object"))
	tree, err := patterntree.Build(u, "Object", cases(
		rec("Foo", "", null()),
		rec("Foo", "", typ("String", "s")),
		rec("Foo", "", typ("Object", "o2")),
		typ("Object", "o3"),
	))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(tree.String(), strings.TrimPrefix(`
n0 Object
├── Foo: n1 Foo [entry]
│   └── .o: n2 Object
│       ├── null: n3 -> case 1[]
│       ├── String: n4 String -> case 2[4]
│       └── Object: n5 Object -> case 3[5]
└── Object: n6 Object -> case 4[6]
`, "\n")))
}

func TestMermaid(t *testing.T) {
	tree, err := patterntree.Build(javaLang(), "Object", cases(
		null(),
		typ("String", "s"),
		typ("Object", "o2"),
	))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(patterntree.Mermaid(tree), strings.TrimPrefix(`
flowchart LR
	id0("Object")
	id0-- null --oid1
	id0-- String --oid2
	id0-- Object --oid3
	id1("1()")
	id2("String, 2(id2)")
	id3("Object, 3(id3)")
`, "\n")))
}

func TestMermaidComponentsAndExhaustive(t *testing.T) {
	u := javaLang().
		Closed("I", "A", "B").
		Record("Box", field("v", "I"))
	tree, err := patterntree.Build(u, "Box", cases(
		rec("Box", "", typ("A", "a")),
		rec("Box", "", typ("B", "b")),
	))
	qt.Assert(t, qt.IsNil(err))
	markPaths(t, tree, [][]string{{"Box", ".v"}})
	qt.Assert(t, qt.Equals(patterntree.Mermaid(tree), strings.TrimPrefix(`
flowchart LR
	id0("Box")
	id0-- Box --oid1
	id1("Box")
	id1-- ".v" -->id2
	style id2 stroke-width: 4px
	id2("I")
	id2-- A --oid3
	id2-- B --oid4
	id3("A, 1(id3)")
	id4("B, 2(id4)")
`, "\n")))
}

func TestInsertSharesPrefix(t *testing.T) {
	u := javaLang().
		Record("Foo", field("o", "Object"), field("o2", "Object")).
		Record("Bar", field("x", "int"))
	tree := patterntree.New(u, "Object")
	qt.Assert(t, qt.Equals(tree.Scrutinee(), patterntree.Type("Object")))
	qt.Assert(t, qt.Equals(tree.Len(), 1))

	end1, err := tree.Insert(patterntree.Case{
		Pattern: rec("Foo", "", rec("Bar", "", typ("int", "x")), typ("Integer", "i")),
		Index:   1,
	})
	qt.Assert(t, qt.IsNil(err))
	n := tree.Len()

	end2, err := tree.Insert(patterntree.Case{
		Pattern: rec("Foo", "", rec("Bar", "", typ("int", "y")), typ("Object", "o2")),
		Index:   2,
	})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Not(qt.Equals(end1, end2)))
	// Only the final Object transition is new.
	qt.Assert(t, qt.Equals(tree.Len(), n+1))

	foo, err := tree.Navigate(patterntree.OnType("Foo"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(tree.Node(foo).IsEntry()))

	o2, err := tree.Navigate(
		patterntree.OnType("Foo"),
		patterntree.Field("o"),
		patterntree.OnType("Bar"),
		patterntree.Field("x"),
		patterntree.OnType("int"),
		patterntree.Field("o2"),
	)
	qt.Assert(t, qt.IsNil(err))
	node := tree.Node(o2)
	comp, src, ok := node.Component()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(comp, patterntree.Component{Name: "o2", Type: "Object"}))
	qt.Assert(t, qt.Equals(src, foo))
	qt.Assert(t, qt.Equals(node.NumTransitions(), 2))

	var keys []patterntree.Key
	for k, next := range node.Transitions() {
		keys = append(keys, k)
		_, ok := tree.Node(next).Terminal()
		qt.Assert(t, qt.IsTrue(ok))
	}
	qt.Assert(t, qt.DeepEquals(keys, []patterntree.Key{
		patterntree.TypeKey("Integer"),
		patterntree.TypeKey("Object"),
	}))
	idx, ok := tree.Node(end2).Terminal()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(idx, 2))
	qt.Assert(t, qt.HasLen(tree.Node(end2).Bindings(), 2))
}

func TestBindingSlots(t *testing.T) {
	u := javaLang().Record("Q", field("x", "Object"))

	// A decomposition claims the slot first: the plain
	// binding hangs off its bare transition.
	tree, err := patterntree.Build(u, "Object", cases(
		rec("Q", "", typ("String", "s")),
		typ("Q", "q"),
	))
	qt.Assert(t, qt.IsNil(err))
	bare, err := tree.Navigate(patterntree.OnType("Q"), patterntree.OnBare())
	qt.Assert(t, qt.IsNil(err))
	idx, ok := tree.Node(bare).Terminal()
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(idx, 2))
	qt.Assert(t, qt.Equals(tree.Node(bare).Subject(), patterntree.Type("Q")))

	// A plain binding claims the slot first: the
	// decomposition hangs off its bare transition.
	tree, err = patterntree.Build(u, "Object", cases(
		typ("Q", "q"),
		rec("Q", "", typ("String", "s")),
	))
	qt.Assert(t, qt.IsNil(err))
	slot, err := tree.Navigate(patterntree.OnType("Q"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(tree.Node(slot).IsEntry()))
	bare, err = tree.Navigate(patterntree.OnType("Q"), patterntree.OnBare(), patterntree.Field("x"))
	qt.Assert(t, qt.IsNil(err))
	_, src, _ := tree.Node(bare).Component()
	qt.Assert(t, qt.IsTrue(tree.Node(src).IsEntry()))
}

func TestAlternatingSlots(t *testing.T) {
	u := javaLang().Record("Q", field("x", "Object"))
	tree, err := patterntree.Build(u, "Object", cases(
		typ("Q", "q"),
		rec("Q", "", typ("String", "s")),
		typ("Q", "q2"),
		rec("Q", "", typ("Integer", "i")),
		rec("Q", "", typ("Object", "o")),
	))
	qt.Assert(t, qt.IsNil(err))

	// Each change of shape opens a new fallback below the
	// previous one; equal shapes share the last alternative.
	want := []struct {
		entry bool
		cases []int
	}{
		{false, []int{1}},
		{true, []int{2}},
		{false, []int{3}},
		{true, []int{4, 5}},
	}
	path := []patterntree.Selector{patterntree.OnType("Q")}
	for i, w := range want {
		id, err := tree.Navigate(path...)
		qt.Assert(t, qt.IsNil(err))
		n := tree.Node(id)
		qt.Assert(t, qt.Equals(n.IsEntry(), w.entry), qt.Commentf("alternative %d", i))
		var got []int
		if idx, ok := n.Terminal(); ok {
			got = append(got, idx)
		}
		if x, ok := n.Chain(); ok {
			for _, next := range tree.Node(x).Transitions() {
				idx, ok := tree.Node(next).Terminal()
				qt.Assert(t, qt.IsTrue(ok))
				got = append(got, idx)
			}
		}
		qt.Assert(t, qt.DeepEquals(got, w.cases), qt.Commentf("alternative %d", i))
		path = append(path, patterntree.OnBare())
	}
	_, err = tree.Navigate(path...)
	qt.Assert(t, qt.ErrorIs(err, patterntree.ErrUsage))
}

func TestBindingOrder(t *testing.T) {
	u := javaLang().Record("Pair", field("a", "Object"), field("b", "Object"))
	tree := patterntree.New(u, "Pair")
	end, err := tree.Insert(patterntree.Case{
		Pattern: patterntree.RecordPattern{
			Type:       "Pair",
			Name:       "p",
			AliasFirst: true,
			Elems:      []patterntree.Pattern{typ("Object", "a"), typ("Object", patterntree.DontCare)},
		},
		Index: 1,
	})
	qt.Assert(t, qt.IsNil(err))
	entry, err := tree.Navigate(patterntree.OnType("Pair"))
	qt.Assert(t, qt.IsNil(err))
	a, err := tree.Navigate(patterntree.OnType("Pair"), patterntree.Field("a"), patterntree.OnType("Object"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.DeepEquals(tree.Node(end).Bindings(), []patterntree.NodeID{entry, a}))
}

func TestExhaustiveFlag(t *testing.T) {
	u := javaLang().Closed("I", "A", "B")
	tree, err := patterntree.Build(u, "I", cases(typ("A", "a"), typ("B", "b")))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(tree.Node(patterntree.Root).Exhaustive()))
	qt.Assert(t, qt.IsNil(tree.MarkExhaustive(patterntree.Root)))
	qt.Assert(t, qt.IsTrue(tree.Node(patterntree.Root).Exhaustive()))
	qt.Assert(t, qt.StringContains(tree.String(), "n0 I [exhaustive]\n"))
}

func TestParseSelector(t *testing.T) {
	for _, test := range []struct {
		s    string
		want patterntree.Selector
	}{
		{".x", patterntree.Field("x")},
		{"null", patterntree.OnNull()},
		{"_", patterntree.OnBare()},
		{"Foo", patterntree.OnType("Foo")},
	} {
		sel, err := patterntree.ParseSelector(test.s)
		qt.Assert(t, qt.IsNil(err))
		qt.Check(t, qt.Equals(sel, test.want))
		qt.Check(t, qt.Equals(sel.String(), test.s))
	}
	_, err := patterntree.ParseSelector("")
	qt.Assert(t, qt.ErrorMatches(err, `empty selector`))
	_, err = patterntree.ParseSelector(".")
	qt.Assert(t, qt.ErrorMatches(err, `selector "." has no component name`))
}

var usageErrorTests = []struct {
	testName  string
	types     func() *universe.Universe
	scrutinee patterntree.Type
	cases     []patterntree.Case
	paths     [][]string
	node      patterntree.NodeID
	kind      patterntree.UsageKind
	err       string
}{{
	testName: "NotProduct",
	types:    javaLang,
	cases:    cases(rec("String", "", typ("Object", "o"))),
	kind:     patterntree.NotProduct,
	err:      `insert: not a product type: record pattern String\(Object o\) on String`,
}, {
	testName: "ArityMismatch",
	types: func() *universe.Universe {
		return javaLang().Record("Foo", field("o", "Object"))
	},
	cases: cases(rec("Foo", "", typ("Object", "a"), typ("Object", "b"))),
	kind:  patterntree.ArityMismatch,
	err:   `insert: arity mismatch: record pattern Foo\(Object a, Object b\) has 2 sub-patterns; Foo has 1 components`,
}, {
	testName: "DuplicateCase",
	types:    javaLang,
	cases:    cases(typ("String", "s"), typ("String", "t")),
	kind:     patterntree.DuplicateCase,
	err:      `insert: duplicate case: case String t -> 2 reaches n1, which already terminates case 1`,
}, {
	testName: "AlreadyExhaustive",
	types: func() *universe.Universe {
		return javaLang().Closed("I", "A")
	},
	scrutinee: "I",
	cases:     cases(typ("A", "a")),
	paths:     [][]string{{}, {}},
	kind:      patterntree.AlreadyExhaustive,
	err:       `mark exhaustive: already exhaustive: n0`,
}, {
	testName: "NotClosed",
	types:    javaLang,
	cases:    cases(typ("String", "s")),
	paths:    [][]string{{}},
	kind:     patterntree.NotClosed,
	err:      `mark exhaustive: not a closed type: n0 has subject type Object`,
}, {
	testName: "NoTransition",
	types:    javaLang,
	cases:    cases(typ("String", "s")),
	paths:    [][]string{{"Integer"}},
	kind:     patterntree.NoPath,
	err:      `navigate: no such path: no transition Integer from n0 at step 0 of \[Integer\]`,
}, {
	testName: "NoComponent",
	types:    javaLang,
	cases:    cases(typ("String", "s")),
	paths:    [][]string{{"String", ".x"}},
	kind:     patterntree.NoPath,
	err:      `navigate: no such path: n1 reads no component at step 1 of \[String .x\]`,
}, {
	testName: "WrongComponent",
	types: func() *universe.Universe {
		return javaLang().Record("Foo", field("o", "Object"), field("o2", "Object"))
	},
	cases: cases(rec("Foo", "", typ("Object", "a"), typ("Object", "b"))),
	paths: [][]string{{"Foo", ".o2"}},
	kind:  patterntree.NoPath,
	err:   `navigate: no such path: n1 reads component "o", not "o2", at step 1 of \[Foo .o2\]`,
}, {
	testName: "NoNode",
	types:    javaLang,
	node:     5,
	kind:     patterntree.NoPath,
	err:      `mark exhaustive: no such path: no node n5`,
}}

func TestUsageErrors(t *testing.T) {
	for _, test := range usageErrorTests {
		t.Run(test.testName, func(t *testing.T) {
			scrutinee := test.scrutinee
			if scrutinee == "" {
				scrutinee = "Object"
			}
			err := usageError(test.types(), scrutinee, test.cases, test.paths, test.node)
			qt.Assert(t, qt.ErrorMatches(err, test.err))
			qt.Assert(t, qt.ErrorIs(err, patterntree.ErrUsage))
			var uerr *patterntree.UsageError
			qt.Assert(t, qt.ErrorAs(err, &uerr))
			qt.Assert(t, qt.Equals(uerr.Kind, test.kind))
		})
	}
}

// usageError runs the given construction steps and returns the
// first error. If there are no paths, node is marked exhaustive
// after inserting the cases.
func usageError(u *universe.Universe, scrutinee patterntree.Type, cs []patterntree.Case, paths [][]string, node patterntree.NodeID) error {
	tree, err := patterntree.Build(u, scrutinee, cs)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return tree.MarkExhaustive(node)
	}
	for _, path := range paths {
		sels := make([]patterntree.Selector, len(path))
		for i, s := range path {
			if sels[i], err = patterntree.ParseSelector(s); err != nil {
				return err
			}
		}
		id, err := tree.Navigate(sels...)
		if err != nil {
			return err
		}
		if err := tree.MarkExhaustive(id); err != nil {
			return err
		}
	}
	return nil
}
