// Package gosrc renders a compiled [patterntree.Program] as Go source.
//
// The generated file declares a Go type for each type in the
// universe and a dispatch function
//
//	func match(v any) (int, []any)
//
// that returns the destination index of the matching case and
// the values it binds, or -1 when no case matches. Null is
// represented by nil.
//
// Product types become structs whose fields are named after their
// components and are used through pointers. Types with subtypes
// become interfaces with a marker method per type, so that
// type assertions follow the subtype relation of the universe.
// The top type is any.
package gosrc

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	goparser "go/parser"
	"go/token"
	"slices"
	"strconv"

	"github.com/rogpeppe/patterntree"
	"github.com/rogpeppe/patterntree/universe"
)

type Type = patterntree.Type

// Config holds the names used in the generated file.
type Config struct {
	// Package holds the package name. It defaults to "main".
	Package string
	// Func holds the dispatch function name. It defaults to "match".
	Func string
}

// Generate returns gofmt-formatted Go source implementing p
// over the types of u.
func Generate(p *patterntree.Program, u *universe.Universe, cfg Config) ([]byte, error) {
	if cfg.Package == "" {
		cfg.Package = "main"
	}
	if cfg.Func == "" {
		cfg.Func = "match"
	}
	for _, name := range []string{cfg.Package, cfg.Func} {
		if !token.IsIdentifier(name) {
			return nil, fmt.Errorf("name %q is not a Go identifier", name)
		}
	}
	g := &generator{
		u:       u,
		p:       p,
		hasSubs: make(map[Type]bool),
	}
	if err := g.collectTypes(); err != nil {
		return nil, err
	}
	decls, err := g.decls()
	if err != nil {
		return nil, err
	}
	body := []goast.Stmt{
		define(goast.NewIdent("r"), &goast.CallExpr{
			Fun:  goast.NewIdent("make"),
			Args: []goast.Expr{anySlice(), intLit(max(p.NumRegs, 1))},
		}),
		assign(reg(0), goast.NewIdent("v")),
	}
	body = append(body, g.block(0, len(p.Instrs))...)
	body = append(body, &goast.ReturnStmt{
		Results: []goast.Expr{
			&goast.UnaryExpr{Op: token.SUB, X: intLit(1)},
			goast.NewIdent("nil"),
		},
	})
	decls = append(decls, &goast.FuncDecl{
		Name: goast.NewIdent(cfg.Func),
		Type: &goast.FuncType{
			Params: &goast.FieldList{List: []*goast.Field{{
				Names: []*goast.Ident{goast.NewIdent("v")},
				Type:  goast.NewIdent("any"),
			}}},
			Results: &goast.FieldList{List: []*goast.Field{
				{Type: goast.NewIdent("int")},
				{Type: anySlice()},
			}},
		},
		Body: &goast.BlockStmt{List: body},
	})
	f := &goast.File{
		Name:  goast.NewIdent(cfg.Package),
		Decls: decls,
	}
	var buf bytes.Buffer
	buf.WriteString("// Code generated by patterntree. DO NOT EDIT.\n\n")
	if err := format.Node(&buf, token.NewFileSet(), f); err != nil {
		return nil, fmt.Errorf("cannot format generated code: %v", err)
	}
	return buf.Bytes(), nil
}

type generator struct {
	u       *universe.Universe
	p       *patterntree.Program
	types   []Type
	hasSubs map[Type]bool
}

// collectTypes gathers every type mentioned by the universe or
// the program, in order of first mention.
func (g *generator) collectTypes() error {
	seen := make(map[Type]bool)
	add := func(t Type) error {
		if t == patterntree.NoType || seen[t] {
			return nil
		}
		if !token.IsIdentifier(string(t)) {
			return fmt.Errorf("type name %q is not a Go identifier", t)
		}
		seen[t] = true
		g.types = append(g.types, t)
		if name, ok := g.u.GoType(t); ok {
			if _, err := goparser.ParseExpr(name); err != nil {
				return fmt.Errorf("Go type %q of %v is not a type expression: %v", name, t, err)
			}
		}
		return nil
	}
	for t := range g.u.Types() {
		if err := add(t); err != nil {
			return err
		}
		for _, s := range g.u.Supers(t) {
			g.hasSubs[s] = true
		}
		comps, _ := g.u.Components(t)
		for _, c := range comps {
			if !token.IsIdentifier(c.Name) {
				return fmt.Errorf("component name %q of %v is not a Go identifier", c.Name, t)
			}
			if err := add(c.Type); err != nil {
				return err
			}
		}
	}
	for _, in := range g.p.Instrs {
		if err := add(in.Type); err != nil {
			return err
		}
	}
	return nil
}

// kind classifies the Go representation of a type.
type kind int

const (
	kindStruct kind = iota
	kindInterface
	kindBasic
	kindTop
)

func (g *generator) kind(t Type) kind {
	if t == g.u.TopType() {
		return kindTop
	}
	if _, ok := g.u.GoType(t); ok {
		return kindBasic
	}
	if _, ok := g.u.Components(t); ok {
		return kindStruct
	}
	if _, ok := g.u.Subtypes(t); ok || g.hasSubs[t] {
		return kindInterface
	}
	return kindStruct
}

// goType returns the Go type used for values of type t.
func (g *generator) goType(t Type) goast.Expr {
	switch g.kind(t) {
	case kindTop:
		return goast.NewIdent("any")
	case kindBasic:
		// Checked by collectTypes.
		name, _ := g.u.GoType(t)
		return goast.NewIdent(name)
	case kindInterface:
		return goast.NewIdent(string(t))
	}
	return &goast.StarExpr{X: goast.NewIdent(string(t))}
}

// markers returns t's marker methods: one for t itself if it
// is an interface and one for each interface above it.
func (g *generator) markers(t Type) []string {
	var ms []string
	if g.kind(t) == kindInterface {
		ms = append(ms, "is"+string(t))
	}
	seen := map[Type]bool{t: true}
	queue := slices.Clone(g.u.Supers(t))
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if seen[s] {
			continue
		}
		seen[s] = true
		if g.kind(s) == kindInterface {
			ms = append(ms, "is"+string(s))
		}
		queue = append(queue, g.u.Supers(s)...)
	}
	return ms
}

func (g *generator) decls() ([]goast.Decl, error) {
	var decls []goast.Decl
	typeDecl := func(t Type, x goast.Expr) {
		decls = append(decls, &goast.GenDecl{
			Tok: token.TYPE,
			Specs: []goast.Spec{&goast.TypeSpec{
				Name: goast.NewIdent(string(t)),
				Type: x,
			}},
		})
	}
	for _, t := range g.types {
		switch g.kind(t) {
		case kindInterface:
			var methods []*goast.Field
			for _, m := range g.markers(t) {
				methods = append(methods, &goast.Field{
					Names: []*goast.Ident{goast.NewIdent(m)},
					Type:  &goast.FuncType{Params: &goast.FieldList{}},
				})
			}
			typeDecl(t, &goast.InterfaceType{Methods: &goast.FieldList{List: methods}})
		case kindStruct:
			comps, _ := g.u.Components(t)
			var fields []*goast.Field
			for _, c := range comps {
				fields = append(fields, &goast.Field{
					Names: []*goast.Ident{goast.NewIdent(c.Name)},
					Type:  g.goType(c.Type),
				})
			}
			typeDecl(t, &goast.StructType{Fields: &goast.FieldList{List: fields}})
			for _, m := range g.markers(t) {
				decls = append(decls, &goast.FuncDecl{
					Recv: &goast.FieldList{List: []*goast.Field{{
						Type: &goast.StarExpr{X: goast.NewIdent(string(t))},
					}}},
					Name: goast.NewIdent(m),
					Type: &goast.FuncType{Params: &goast.FieldList{}},
					Body: &goast.BlockStmt{},
				})
			}
		case kindBasic:
			if ms := g.markers(t); len(ms) > 0 {
				return nil, fmt.Errorf("basic type %v cannot have supertype marker %s", t, ms[0])
			}
		}
	}
	return decls, nil
}

// block returns the statements for the instructions in [from, to).
func (g *generator) block(from, to int) []goast.Stmt {
	var stmts []goast.Stmt
	for pc := from; pc < to; pc++ {
		in := g.p.Instrs[pc]
		switch in.Op {
		case patterntree.OpReadComponent:
			stmts = append(stmts, g.nullRemainder(in.Src, pc))
			comps, _ := g.u.Components(in.Type)
			var ctype Type
			for _, c := range comps {
				if c.Name == in.Component {
					ctype = c.Type
				}
			}
			sel := &goast.SelectorExpr{
				X:   &goast.TypeAssertExpr{X: reg(in.Src), Type: g.goType(in.Type)},
				Sel: goast.NewIdent(in.Component),
			}
			if g.kind(ctype) == kindStruct {
				// A nil pointer must become a nil interface.
				c := goast.NewIdent("c")
				stmts = append(stmts, &goast.IfStmt{
					Init: define(c, sel),
					Cond: &goast.BinaryExpr{X: c, Op: token.NEQ, Y: goast.NewIdent("nil")},
					Body: &goast.BlockStmt{List: []goast.Stmt{assign(reg(in.Dst), c)}},
					Else: &goast.BlockStmt{List: []goast.Stmt{assign(reg(in.Dst), goast.NewIdent("nil"))}},
				})
			} else {
				stmts = append(stmts, assign(reg(in.Dst), sel))
			}
		case patterntree.OpTestNull:
			if in.Remainder {
				stmts = append(stmts, g.nullRemainder(in.Src, pc))
				continue
			}
			stmts = append(stmts, &goast.IfStmt{
				Cond: isNil(reg(in.Src)),
				Body: &goast.BlockStmt{List: g.block(pc+1, in.Else)},
			})
		case patterntree.OpTestType:
			ok := goast.NewIdent("ok")
			body := []goast.Stmt{assign(reg(in.Dst), reg(in.Src))}
			stmts = append(stmts, &goast.IfStmt{
				Init: g.typeAssert(in.Src, in.Type),
				Cond: ok,
				Body: &goast.BlockStmt{List: append(body, g.block(pc+1, in.Else)...)},
			})
		case patterntree.OpUncheckedNarrow:
			if !g.nullChecked(pc) {
				stmts = append(stmts, g.nullRemainder(in.Src, pc))
			}
			stmts = append(stmts, &goast.IfStmt{
				Init: g.typeAssert(in.Src, in.Type),
				Cond: &goast.UnaryExpr{Op: token.NOT, X: goast.NewIdent("ok")},
				Body: panicf("broken exhaustiveness assertion: %v is not %v at instruction %d", in.Src, in.Type, pc),
			}, assign(reg(in.Dst), reg(in.Src)))
		case patterntree.OpInvoke:
			args := make([]goast.Expr, len(in.Args))
			for i, a := range in.Args {
				args[i] = reg(a)
			}
			stmts = append(stmts, &goast.ReturnStmt{
				Results: []goast.Expr{
					intLit(in.Case),
					&goast.CompositeLit{Type: anySlice(), Elts: args},
				},
			})
		default:
			panic(fmt.Errorf("unknown op %v at instruction %d", in.Op, pc))
		}
		if in.IsGuard() {
			pc = in.Else - 1
		}
	}
	return stmts
}

// typeAssert returns the statement
//
//	_, ok := r[src].(T)
func (g *generator) typeAssert(src patterntree.Reg, t Type) goast.Stmt {
	return &goast.AssignStmt{
		Lhs: []goast.Expr{goast.NewIdent("_"), goast.NewIdent("ok")},
		Tok: token.DEFINE,
		Rhs: []goast.Expr{&goast.TypeAssertExpr{X: reg(src), Type: g.goType(t)}},
	}
}

// nullRemainder returns a check that fails when r holds null.
func (g *generator) nullRemainder(r patterntree.Reg, pc int) goast.Stmt {
	return &goast.IfStmt{
		Cond: isNil(reg(r)),
		Body: panicf("null is a remainder: %v is null at instruction %d", r, pc),
	}
}

// nullChecked reports whether the narrow at pc is
// directly preceded by a null remainder guard on its source.
func (g *generator) nullChecked(pc int) bool {
	if pc == 0 {
		return false
	}
	prev, in := g.p.Instrs[pc-1], g.p.Instrs[pc]
	return prev.Op == patterntree.OpTestNull && prev.Remainder && prev.Src == in.Src
}

func reg(r patterntree.Reg) goast.Expr {
	return &goast.IndexExpr{X: goast.NewIdent("r"), Index: intLit(int(r))}
}

func intLit(n int) goast.Expr {
	return &goast.BasicLit{Kind: token.INT, Value: strconv.Itoa(n)}
}

func anySlice() goast.Expr {
	return &goast.ArrayType{Elt: goast.NewIdent("any")}
}

func isNil(x goast.Expr) goast.Expr {
	return &goast.BinaryExpr{X: x, Op: token.EQL, Y: goast.NewIdent("nil")}
}

func assign(lhs, rhs goast.Expr) goast.Stmt {
	return &goast.AssignStmt{Lhs: []goast.Expr{lhs}, Tok: token.ASSIGN, Rhs: []goast.Expr{rhs}}
}

func define(lhs, rhs goast.Expr) goast.Stmt {
	return &goast.AssignStmt{Lhs: []goast.Expr{lhs}, Tok: token.DEFINE, Rhs: []goast.Expr{rhs}}
}

// panicf returns a block that panics with the formatted message.
func panicf(f string, a ...any) *goast.BlockStmt {
	return &goast.BlockStmt{List: []goast.Stmt{&goast.ExprStmt{X: &goast.CallExpr{
		Fun: goast.NewIdent("panic"),
		Args: []goast.Expr{&goast.BasicLit{
			Kind:  token.STRING,
			Value: strconv.Quote(fmt.Sprintf(f, a...)),
		}},
	}}}}
}
