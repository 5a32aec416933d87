package patterntree_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/rogpeppe/patterntree"
	"github.com/rogpeppe/patterntree/universe"
)

var (
	rec   = patterntree.Record
	typ   = patterntree.TypeOf
	null  = patterntree.Null
	field = universe.Field
)

// cases returns a case for each pattern, numbered from 1.
func cases(ps ...patterntree.Pattern) []patterntree.Case {
	cs := make([]patterntree.Case, len(ps))
	for i, p := range ps {
		cs[i] = patterntree.Case{
			Pattern: p,
			Index:   i + 1,
		}
	}
	return cs
}

// javaLang returns a universe holding some basic types
// below the top type Object.
func javaLang() *universe.Universe {
	return universe.New().
		Top("Object").
		Basic("String", "string").
		Basic("Integer", "int").
		Basic("int", "int").
		Basic("double", "float64")
}

// parseValue parses a value written as null, T or T(v1, v2, ...).
func parseValue(t *testing.T, u *universe.Universe, s string) patterntree.Value {
	v, rest := parseValue1(t, u, strings.TrimSpace(s))
	qt.Assert(t, qt.Equals(rest, ""), qt.Commentf("trailing text in %q", s))
	return v
}

func parseValue1(t *testing.T, u *universe.Universe, s string) (patterntree.Value, string) {
	end := strings.IndexAny(s, "(,)")
	if end == -1 {
		end = len(s)
	}
	name := strings.TrimSpace(s[:end])
	s = s[end:]
	qt.Assert(t, qt.Not(qt.Equals(name, "")), qt.Commentf("missing type name"))
	if name == "null" {
		return nil, s
	}
	if !strings.HasPrefix(s, "(") {
		return u.Value(patterntree.Type(name)), s
	}
	s = strings.TrimSpace(s[1:])
	var comps []patterntree.Value
	for !strings.HasPrefix(s, ")") {
		var c patterntree.Value
		c, s = parseValue1(t, u, s)
		comps = append(comps, c)
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), ","))
	}
	return u.Value(patterntree.Type(name), comps...), s[1:]
}

// resultString describes the outcome of running p on v.
func resultString(p *patterntree.Program, st patterntree.Subtyper, v patterntree.Value) string {
	res, err := p.Exec(v, st)
	if err != nil {
		var nullErr *patterntree.NullRemainderError
		var invErr *patterntree.InvariantError
		switch {
		case errors.Is(err, patterntree.ErrNoMatch):
			return "no match"
		case errors.As(err, &nullErr):
			return fmt.Sprintf("null remainder at %v", nullErr.Reg)
		case errors.As(err, &invErr):
			return fmt.Sprintf("invariant: %v holds %v, not %v", invErr.Reg, invErr.Got, invErr.Want)
		}
		return "error: " + err.Error()
	}
	args := make([]string, len(res.Args))
	for i, a := range res.Args {
		if a == nil {
			args[i] = "null"
		} else {
			args[i] = fmt.Sprint(a)
		}
	}
	return fmt.Sprintf("%d(%s)", res.Case, strings.Join(args, ", "))
}

// markPaths marks the node at the end of each path exhaustive.
func markPaths(t *testing.T, tree *patterntree.Tree, paths [][]string) {
	for _, path := range paths {
		sels := make([]patterntree.Selector, len(path))
		for i, s := range path {
			sel, err := patterntree.ParseSelector(s)
			qt.Assert(t, qt.IsNil(err))
			sels[i] = sel
		}
		id, err := tree.Navigate(sels...)
		qt.Assert(t, qt.IsNil(err))
		qt.Assert(t, qt.IsNil(tree.MarkExhaustive(id)))
	}
}
