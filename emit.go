package patterntree

import (
	"fmt"

	"github.com/benbjohnson/immutable"
)

// Emit linearizes the tree into a [Program].
// It does not modify the tree and always returns
// the same program for the same tree.
func (t *Tree) Emit() *Program {
	e := &emitter{
		t: t,
		prog: &Program{
			NumRegs: 1,
		},
	}
	logger.Printf("emit {")
	logger.Indent()
	e.node(Root, 0, 1, regScope{immutable.NewMap[int, Reg](nil)}, false)
	logger.Unindent()
	logger.Printf("}")
	return e.prog
}

// regScope maps each node on the current path to the
// register holding its value. Sibling branches each
// extend their own copy.
type regScope struct {
	m *immutable.Map[int, Reg]
}

func (s regScope) with(id NodeID, r Reg) regScope {
	return regScope{s.m.Set(int(id), r)}
}

func (s regScope) get(id NodeID) Reg {
	r, ok := s.m.Get(int(id))
	if !ok {
		panic(fmt.Errorf("no register for n%d in scope", id))
	}
	return r
}

type emitter struct {
	t    *Tree
	prog *Program
}

func (e *emitter) add(in Instr) int {
	pc := len(e.prog.Instrs)
	e.prog.Instrs = append(e.prog.Instrs, in)
	if int(in.Dst)+1 > e.prog.NumRegs {
		e.prog.NumRegs = int(in.Dst) + 1
	}
	return pc
}

// closeGuard ends the block guarded by the test at pc.
func (e *emitter) closeGuard(pc int) {
	e.prog.Instrs[pc].Else = len(e.prog.Instrs)
}

// node emits the code for the node id, whose value (unless it
// is read from another node) is in reg. Registers from next up
// are free. nonNull reports whether the value in reg is known
// not to be null.
func (e *emitter) node(id NodeID, reg, next Reg, scope regScope, nonNull bool) {
	n := e.t.nodes[id]
	if n.isRead() {
		src := e.t.nodes[n.source]
		reg = next
		next++
		e.add(Instr{
			Op:        OpReadComponent,
			Dst:       reg,
			Src:       scope.get(src.id),
			Component: n.component.Name,
			Type:      src.subject,
		})
		nonNull = false
	}
	scope = scope.with(id, reg)
	if n.hasTerminal {
		args := make([]Reg, len(n.bindings))
		for i, b := range n.bindings {
			args[i] = scope.get(b)
		}
		logger.Printf("n%d: invoke %d", id, n.terminal)
		e.add(Instr{
			Op:   OpInvoke,
			Src:  reg,
			Case: n.terminal,
			Args: args,
		})
		return
	}
	// A node with both a chain and transitions owns a type slot
	// claimed by an earlier case; that case's continuation comes
	// before the later fallbacks hanging off the transitions.
	if n.chain != noNode {
		e.node(n.chain, reg, next, scope, nonNull)
	}
	nullExcluded := nonNull
	for i, k := range n.keys {
		child := e.t.nodes[n.next[k]]
		last := i == len(n.keys)-1
		switch {
		case k.Kind == KeyNull:
			pc := e.add(Instr{
				Op:  OpTestNull,
				Src: reg,
			})
			e.node(child.id, reg, next, scope, false)
			e.closeGuard(pc)
			if child.hasTerminal {
				nullExcluded = true
			}
		case k.Kind == KeyBare:
			e.node(child.id, reg, next, scope, nullExcluded)
		case last && k.Type == n.subject && !e.needsNullGuard(n, child, nullExcluded):
			e.node(child.id, reg, next, scope, nullExcluded)
		case last && n.exhaustive:
			if !nullExcluded && !e.implicitNullCheck(child) {
				e.add(Instr{
					Op:        OpTestNull,
					Src:       reg,
					Remainder: true,
				})
			}
			e.add(Instr{
				Op:          OpUncheckedNarrow,
				Dst:         next,
				Src:         reg,
				Type:        k.Type,
				MustNotFail: true,
			})
			e.node(child.id, next, next+1, scope, true)
		default:
			pc := e.add(Instr{
				Op:   OpTestType,
				Dst:  next,
				Src:  reg,
				Type: k.Type,
			})
			e.node(child.id, next, next+1, scope, true)
			e.closeGuard(pc)
		}
	}
}

// needsNullGuard reports whether falling through from n into the
// decomposition entry child without a test could read a component
// of null. The scrutinee itself is never guarded: null there is
// a remainder unless a case handles it.
func (e *emitter) needsNullGuard(n, child *Node, nullExcluded bool) bool {
	if nullExcluded || !n.isRead() || !child.entry {
		return false
	}
	comps, _ := e.t.ts.Components(child.subject)
	return len(comps) > 0
}

// implicitNullCheck reports whether narrowing into child is
// immediately followed by reading a component, which fails
// on null anyway.
func (e *emitter) implicitNullCheck(child *Node) bool {
	if !child.entry {
		return false
	}
	comps, _ := e.t.ts.Components(child.subject)
	return len(comps) > 0
}
