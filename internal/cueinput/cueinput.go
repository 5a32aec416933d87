// Package cueinput reads pattern tree descriptions written in CUE
// and renders compiled programs back to CUE.
//
// An input is validated against the #Input definition in schema.cue.
// For example:
//
//	scrutinee: "Object"
//	types: {
//		Object: top: true
//		Shape: closed: ["Circle", "Square"]
//		Circle: components: [{name: "r", type: "Object"}]
//		Square: components: []
//	}
//	cases: [
//		{index: 1, pattern: null: true},
//		{index: 2, pattern: {record: "Circle", elems: [{type: "Object", bind: "r"}]}},
//		{index: 3, pattern: {type: "Object", bind: "o"}},
//	]
package cueinput

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/load"

	"github.com/rogpeppe/patterntree"
	"github.com/rogpeppe/patterntree/universe"
)

//go:embed schema.cue
var schemaSource string

// Input is the decoded form of an #Input value.
type Input struct {
	Scrutinee string `json:"scrutinee"`
	// Types holds the type declarations in the order written.
	Types      []TypeDecl `json:"-"`
	Cases      []Case     `json:"cases"`
	Exhaustive [][]string `json:"exhaustive,omitempty"`
}

// TypeDecl is the decoded form of a #Type value.
type TypeDecl struct {
	Name       string       `json:"-"`
	Top        bool         `json:"top,omitempty"`
	Go         string       `json:"go,omitempty"`
	Components *[]Component `json:"components,omitempty"`
	Closed     *[]string    `json:"closed,omitempty"`
	Extends    []string     `json:"extends,omitempty"`
}

type Component struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Case struct {
	Index   int     `json:"index"`
	Pattern Pattern `json:"pattern"`
}

// Pattern is the decoded form of a #Pattern value.
type Pattern struct {
	Null      bool      `json:"null,omitempty"`
	Type      string    `json:"type,omitempty"`
	Record    string    `json:"record,omitempty"`
	Elems     []Pattern `json:"elems,omitempty"`
	Paren     *Pattern  `json:"paren,omitempty"`
	Bind      string    `json:"bind,omitempty"`
	BindFirst bool      `json:"bindFirst,omitempty"`
}

// Load loads the CUE instance named by args (files or a package)
// and returns its value, or the value at path within it if
// path is not empty.
func Load(ctx *cue.Context, args []string, path string) (cue.Value, error) {
	insts := load.Instances(args, nil)
	vs, err := ctx.BuildInstances(insts)
	if err != nil {
		return cue.Value{}, fmt.Errorf("cannot build instances: %w", err)
	}
	v := vs[0]
	if path != "" {
		v = v.LookupPath(cue.ParsePath(path))
		if !v.Exists() {
			return cue.Value{}, fmt.Errorf("no value at path %q", path)
		}
	}
	return v, nil
}

// Decode validates v against the schema and decodes it.
func Decode(v cue.Value) (*Input, error) {
	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Errorf("bad embedded schema: %v", errors.Details(err, nil)))
	}
	v = schema.LookupPath(cue.ParsePath("#Input")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	var in Input
	if err := v.Decode(&in); err != nil {
		return nil, fmt.Errorf("cannot decode input: %w", err)
	}
	types := v.LookupPath(cue.ParsePath("types"))
	if !types.Exists() {
		return &in, nil
	}
	iter, err := types.Fields()
	if err != nil {
		return nil, fmt.Errorf("cannot iterate types: %w", err)
	}
	for iter.Next() {
		var decl TypeDecl
		if err := iter.Value().Decode(&decl); err != nil {
			return nil, fmt.Errorf("cannot decode type %v: %w", iter.Selector(), err)
		}
		decl.Name = iter.Selector().Unquoted()
		in.Types = append(in.Types, decl)
	}
	return &in, nil
}

// Universe returns the type universe declared by in.
func (in *Input) Universe() *universe.Universe {
	u := universe.New()
	for _, decl := range in.Types {
		t := patterntree.Type(decl.Name)
		if decl.Top {
			u.Top(t)
		}
		u.Basic(t, decl.Go)
		if decl.Components != nil {
			comps := make([]patterntree.Component, len(*decl.Components))
			for i, c := range *decl.Components {
				comps[i] = universe.Field(c.Name, patterntree.Type(c.Type))
			}
			u.Record(t, comps...)
		}
		if decl.Closed != nil {
			members := make([]patterntree.Type, len(*decl.Closed))
			for i, m := range *decl.Closed {
				members[i] = patterntree.Type(m)
			}
			u.Closed(t, members...)
		}
		for _, s := range decl.Extends {
			u.Extends(t, patterntree.Type(s))
		}
	}
	return u
}

// Tree builds the tree for the cases of in over the type system ts
// and marks the nodes at its exhaustive paths.
func (in *Input) Tree(ts patterntree.TypeSystem) (*patterntree.Tree, error) {
	cases := make([]patterntree.Case, len(in.Cases))
	for i, c := range in.Cases {
		p, err := c.Pattern.Pattern()
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		cases[i] = patterntree.Case{
			Pattern: p,
			Index:   c.Index,
		}
	}
	t, err := patterntree.Build(ts, patterntree.Type(in.Scrutinee), cases)
	if err != nil {
		return nil, err
	}
	for _, path := range in.Exhaustive {
		sels := make([]patterntree.Selector, len(path))
		for i, s := range path {
			sel, err := patterntree.ParseSelector(s)
			if err != nil {
				return nil, fmt.Errorf("exhaustive path %q: %w", path, err)
			}
			sels[i] = sel
		}
		id, err := t.Navigate(sels...)
		if err != nil {
			return nil, err
		}
		if err := t.MarkExhaustive(id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Pattern converts p to a [patterntree.Pattern].
func (p *Pattern) Pattern() (patterntree.Pattern, error) {
	n := 0
	for _, set := range []bool{p.Null, p.Type != "", p.Record != "", p.Paren != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("pattern must have exactly one of null, type, record or paren")
	}
	switch {
	case p.Null:
		return patterntree.Null(), nil
	case p.Type != "":
		name := p.Bind
		if name == "" {
			name = patterntree.DontCare
		}
		return patterntree.TypeOf(patterntree.Type(p.Type), name), nil
	case p.Paren != nil:
		sub, err := p.Paren.Pattern()
		if err != nil {
			return nil, err
		}
		return patterntree.Paren(sub), nil
	}
	elems := make([]patterntree.Pattern, len(p.Elems))
	for i := range p.Elems {
		elem, err := p.Elems[i].Pattern()
		if err != nil {
			return nil, fmt.Errorf("element %d of %s: %w", i, p.Record, err)
		}
		elems[i] = elem
	}
	return patterntree.RecordPattern{
		Type:       patterntree.Type(p.Record),
		Elems:      elems,
		Name:       p.Bind,
		AliasFirst: p.BindFirst,
	}, nil
}

// EncodeProgram returns p formatted as CUE.
func EncodeProgram(ctx *cue.Context, p *patterntree.Program) ([]byte, error) {
	v := ctx.Encode(p)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("cannot encode program: %w", err)
	}
	data, err := format.Node(v.Syntax(cue.Final(), cue.Concrete(true)))
	if err != nil {
		return nil, fmt.Errorf("cannot format program: %w", err)
	}
	return data, nil
}
