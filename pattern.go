package patterntree

import (
	"fmt"
	"strings"
)

// DontCare is the binding name that binds nothing.
const DontCare = "_"

// Type identifies a type known to the [TypeSystem].
// Two types are the same type exactly when they compare equal.
type Type string

// NoType is the subject type of nodes whose value has no static type,
// such as the node reached by a null test.
const NoType Type = ""

func (t Type) String() string {
	if t == NoType {
		return "<none>"
	}
	return string(t)
}

// Pattern describes what a single pattern matches.
// It is implemented by [NullPattern], [TypePattern], [ParenPattern]
// and [RecordPattern] only.
type Pattern interface {
	fmt.Stringer
	pattern()
}

// NullPattern matches only the null value.
type NullPattern struct{}

// TypePattern matches any value assignable to Type and binds it
// to Name unless Name is [DontCare].
type TypePattern struct {
	Type Type
	Name string
}

// ParenPattern is a parenthesized pattern. It matches exactly
// what Pattern matches.
type ParenPattern struct {
	Pattern Pattern
}

// RecordPattern matches a value of the product type Type and
// matches each of its components against the corresponding
// element of Elems.
type RecordPattern struct {
	Type  Type
	Elems []Pattern
	// Name optionally binds the whole value. The empty string and
	// [DontCare] both mean no binding.
	Name string
	// AliasFirst reports that Name was written before the
	// decomposition, so it is bound before any of the values
	// bound by Elems.
	AliasFirst bool
}

func (NullPattern) pattern()   {}
func (TypePattern) pattern()   {}
func (ParenPattern) pattern()  {}
func (RecordPattern) pattern() {}

// Null returns a pattern matching the null value.
func Null() Pattern {
	return NullPattern{}
}

// TypeOf returns a pattern matching values of type t, binding them to name.
func TypeOf(t Type, name string) Pattern {
	return TypePattern{
		Type: t,
		Name: name,
	}
}

// Paren returns p in parentheses.
func Paren(p Pattern) Pattern {
	return ParenPattern{
		Pattern: p,
	}
}

// Record returns a pattern decomposing a value of the product type t.
func Record(t Type, name string, elems ...Pattern) Pattern {
	return RecordPattern{
		Type:  t,
		Elems: elems,
		Name:  name,
	}
}

func (NullPattern) String() string {
	return "null"
}

func (p TypePattern) String() string {
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

func (p ParenPattern) String() string {
	return "(" + p.Pattern.String() + ")"
}

func (p RecordPattern) String() string {
	var buf strings.Builder
	if p.AliasFirst && binds(p.Name) {
		fmt.Fprintf(&buf, "%s @ ", p.Name)
	}
	buf.WriteString(string(p.Type))
	buf.WriteString("(")
	for i, elem := range p.Elems {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(elem.String())
	}
	buf.WriteString(")")
	if !p.AliasFirst && binds(p.Name) {
		fmt.Fprintf(&buf, " %s", p.Name)
	}
	return buf.String()
}

// binds reports whether name actually binds a value.
func binds(name string) bool {
	return name != "" && name != DontCare
}

// Unparen returns p with all parenthesized patterns removed,
// at any depth.
func Unparen(p Pattern) Pattern {
	switch p := p.(type) {
	case ParenPattern:
		return Unparen(p.Pattern)
	case RecordPattern:
		elems := make([]Pattern, len(p.Elems))
		for i, elem := range p.Elems {
			elems[i] = Unparen(elem)
		}
		p.Elems = elems
		return p
	}
	return p
}

// Case pairs a pattern with the index of the destination
// invoked when the pattern matches.
type Case struct {
	Pattern Pattern
	Index   int
}

func (c Case) String() string {
	return fmt.Sprintf("case %v -> %d", c.Pattern, c.Index)
}

// Component is a named component of a product type.
type Component struct {
	Name string
	Type Type
}

// TypeSystem provides the information about types that the
// tree builder and the annotation API need.
type TypeSystem interface {
	// Components returns the components of t in declaration
	// order and reports whether t is a product type.
	Components(t Type) ([]Component, bool)

	// Subtypes returns the direct subtypes of t and reports
	// whether t is a closed hierarchy.
	Subtypes(t Type) ([]Type, bool)
}

// Subtyper reports the assignability relation between types.
// It is only needed to execute a [Program].
type Subtyper interface {
	Assignable(from, to Type) bool
}
