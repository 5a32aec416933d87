// Package universe provides an in-memory type system for
// building pattern trees: product types with named components,
// closed hierarchies, explicit supertypes and a top type.
package universe

import (
	"fmt"
	"iter"
	"slices"

	"github.com/rogpeppe/patterntree"
)

type Type = patterntree.Type

// Universe is a set of type declarations.
// The zero value is not usable; call [New].
type Universe struct {
	top   Type
	order []Type
	types map[Type]*typeInfo
}

type typeInfo struct {
	goType     string
	product    bool
	components []patterntree.Component
	closed     bool
	subtypes   []Type
	supers     []Type
}

var (
	_ patterntree.TypeSystem = (*Universe)(nil)
	_ patterntree.Subtyper   = (*Universe)(nil)
)

// New returns an empty universe.
func New() *Universe {
	return &Universe{
		types: make(map[Type]*typeInfo),
	}
}

func (u *Universe) info(t Type) *typeInfo {
	if info := u.types[t]; info != nil {
		return info
	}
	info := &typeInfo{}
	u.types[t] = info
	u.order = append(u.order, t)
	return info
}

// Top declares t as the type every type is assignable to.
func (u *Universe) Top(t Type) *Universe {
	u.info(t)
	u.top = t
	return u
}

// Basic declares t as a type without structure.
// If goType is non-empty, it names the Go type that
// represents t in generated code.
func (u *Universe) Basic(t Type, goType string) *Universe {
	u.info(t).goType = goType
	return u
}

// Record declares t as a product type with the given components.
func (u *Universe) Record(t Type, comps ...patterntree.Component) *Universe {
	info := u.info(t)
	info.product = true
	info.components = slices.Clone(comps)
	return u
}

// Closed declares t as a closed hierarchy whose direct subtypes
// are exactly members. Each member becomes a subtype of t.
func (u *Universe) Closed(t Type, members ...Type) *Universe {
	info := u.info(t)
	info.closed = true
	info.subtypes = slices.Clone(members)
	for _, m := range members {
		u.Extends(m, t)
	}
	return u
}

// Extends declares t as a direct subtype of super.
func (u *Universe) Extends(t, super Type) *Universe {
	u.info(super)
	info := u.info(t)
	if !slices.Contains(info.supers, super) {
		info.supers = append(info.supers, super)
	}
	return u
}

// Field is shorthand for a [patterntree.Component].
func Field(name string, t Type) patterntree.Component {
	return patterntree.Component{
		Name: name,
		Type: t,
	}
}

// Components implements [patterntree.TypeSystem.Components].
func (u *Universe) Components(t Type) ([]patterntree.Component, bool) {
	info := u.types[t]
	if info == nil || !info.product {
		return nil, false
	}
	return info.components, true
}

// Subtypes implements [patterntree.TypeSystem.Subtypes].
func (u *Universe) Subtypes(t Type) ([]Type, bool) {
	info := u.types[t]
	if info == nil || !info.closed {
		return nil, false
	}
	return info.subtypes, true
}

// Assignable implements [patterntree.Subtyper.Assignable].
func (u *Universe) Assignable(from, to Type) bool {
	if from == to || (to == u.top && u.top != patterntree.NoType) {
		return true
	}
	seen := make(map[Type]bool)
	var walk func(t Type) bool
	walk = func(t Type) bool {
		if seen[t] {
			return false
		}
		seen[t] = true
		info := u.types[t]
		if info == nil {
			return false
		}
		for _, s := range info.supers {
			if s == to || walk(s) {
				return true
			}
		}
		return false
	}
	return walk(from)
}

// Types returns an iterator over all declared types in the
// order they were first mentioned.
func (u *Universe) Types() iter.Seq[Type] {
	return slices.Values(u.order)
}

// Has reports whether t has been declared or mentioned.
func (u *Universe) Has(t Type) bool {
	return u.types[t] != nil
}

// TopType returns the top type, or NoType if there is none.
func (u *Universe) TopType() Type {
	return u.top
}

// GoType returns the Go type name declared for t with [Universe.Basic].
func (u *Universe) GoType(t Type) (string, bool) {
	info := u.types[t]
	if info == nil || info.goType == "" {
		return "", false
	}
	return info.goType, true
}

// Supers returns the direct supertypes of t.
func (u *Universe) Supers(t Type) []Type {
	info := u.types[t]
	if info == nil {
		return nil
	}
	return info.supers
}

// Value returns a value of type t with the given components.
// It panics if t is a product type and the number of components
// does not match its declaration.
func (u *Universe) Value(t Type, comps ...patterntree.Value) *Object {
	if decl, ok := u.Components(t); ok && len(decl) != len(comps) {
		panic(fmt.Errorf("value of %v needs %d components, got %d", t, len(decl), len(comps)))
	}
	return &Object{
		u:     u,
		typ:   t,
		comps: comps,
	}
}

// Object is a runtime value created by [Universe.Value].
type Object struct {
	u     *Universe
	typ   Type
	comps []patterntree.Value
}

var _ patterntree.Value = (*Object)(nil)

// Type implements [patterntree.Value.Type].
func (o *Object) Type() Type {
	return o.typ
}

// Component implements [patterntree.Value.Component].
func (o *Object) Component(name string) patterntree.Value {
	decl, _ := o.u.Components(o.typ)
	for i, c := range decl {
		if c.Name == name {
			return o.comps[i]
		}
	}
	panic(fmt.Errorf("%v has no component %q", o.typ, name))
}

func (o *Object) String() string {
	if len(o.comps) == 0 {
		return string(o.typ) + "()"
	}
	s := string(o.typ) + "("
	for i, c := range o.comps {
		if i > 0 {
			s += ", "
		}
		if c == nil {
			s += "null"
		} else {
			s += fmt.Sprint(c)
		}
	}
	return s + ")"
}
