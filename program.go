package patterntree

import (
	"fmt"
	"strings"
)

// Reg names a register of a [Program]. Register 0 holds the scrutinee.
type Reg int

func (r Reg) String() string {
	return fmt.Sprintf("r%d", int(r))
}

// Op is the operation performed by an [Instr].
type Op uint8

const (
	// OpReadComponent reads component Component of the record
	// of type Type held in Src into Dst.
	OpReadComponent Op = iota + 1
	// OpTestNull tests whether Src holds null. When it does not,
	// execution continues at Else. When Remainder is set the
	// instruction does not branch: null in Src is a failure.
	OpTestNull
	// OpTestType tests whether Src holds a value of type Type.
	// When it does, the value is copied to Dst and execution
	// continues with the next instruction; otherwise it
	// continues at Else.
	OpTestType
	// OpUncheckedNarrow copies Src to Dst as a value of type Type
	// without branching. MustNotFail is always set: a failure
	// means that an exhaustiveness assertion was wrong.
	OpUncheckedNarrow
	// OpInvoke invokes destination Case with the values in Args.
	OpInvoke
)

var opNames = map[Op]string{
	OpReadComponent:   "read-component",
	OpTestNull:        "test-null",
	OpTestType:        "test-type",
	OpUncheckedNarrow: "unchecked-narrow",
	OpInvoke:          "invoke",
}

func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// MarshalText implements [encoding.TextMarshaler].
func (op Op) MarshalText() ([]byte, error) {
	if _, ok := opNames[op]; !ok {
		return nil, fmt.Errorf("unknown op %d", int(op))
	}
	return []byte(op.String()), nil
}

// Instr is a single instruction of a [Program].
// The meaning of each field depends on Op.
type Instr struct {
	Op        Op     `json:"op"`
	Dst       Reg    `json:"dst,omitempty"`
	Src       Reg    `json:"src"`
	Component string `json:"component,omitempty"`
	Type      Type   `json:"type,omitempty"`
	// Else holds the index of the first instruction after the
	// block guarded by a test.
	Else        int   `json:"else,omitempty"`
	MustNotFail bool  `json:"mustNotFail,omitempty"`
	Remainder   bool  `json:"remainder,omitempty"`
	Case        int   `json:"case,omitempty"`
	Args        []Reg `json:"args,omitempty"`
}

// IsGuard reports whether the instruction guards a block
// that ends at Else.
func (in Instr) IsGuard() bool {
	switch in.Op {
	case OpTestType:
		return true
	case OpTestNull:
		return !in.Remainder
	}
	return false
}

// Program is the linear form of a decision tree.
// Execution starts at instruction 0 with the scrutinee in register 0
// and ends at the first OpInvoke reached; running off the end means
// that no case matched.
type Program struct {
	Instrs  []Instr `json:"instrs"`
	NumRegs int     `json:"numRegs"`
}

// String returns the program as indented text, one
// instruction per line, with guarded blocks in braces.
func (p *Program) String() string {
	var buf strings.Builder
	w := &indentWriter{
		w: &buf,
	}
	p.write(w, 0, len(p.Instrs))
	return buf.String()
}

func (p *Program) write(w *indentWriter, from, to int) {
	for pc := from; pc < to; pc++ {
		in := p.Instrs[pc]
		switch in.Op {
		case OpReadComponent:
			w.Printf("%v = %v.%s", in.Dst, in.Src, in.Component)
		case OpTestNull:
			if in.Remainder {
				w.Printf("requireNonNull(%v)  // null is a remainder", in.Src)
				continue
			}
			w.Printf("if %v == null {", in.Src)
		case OpTestType:
			w.Printf("if %v instanceof %v -> %v {", in.Src, in.Type, in.Dst)
		case OpUncheckedNarrow:
			w.Printf("%v = (%v) %v  // must not fail", in.Dst, in.Type, in.Src)
		case OpInvoke:
			w.Printf("invoke %d(%s)", in.Case, joinFunc(in.Args, ", ", Reg.String))
		default:
			w.Printf("%v ???", in.Op)
		}
		if in.IsGuard() {
			w.Indent()
			p.write(w, pc+1, in.Else)
			w.Unindent()
			w.Printf("}")
			pc = in.Else - 1
		}
	}
}

// Paths returns every sequence of instruction indexes that
// execution can follow from the start of the program to an
// OpInvoke. Each path ends with that OpInvoke.
// Branches are followed both ways regardless of whether both
// outcomes are feasible, passing branch first.
func (p *Program) Paths() [][]int {
	var paths [][]int
	var walk func(pc int, path []int)
	walk = func(pc int, path []int) {
		for ; pc < len(p.Instrs); pc++ {
			in := p.Instrs[pc]
			path = append(path, pc)
			switch {
			case in.Op == OpInvoke:
				paths = append(paths, path)
				return
			case in.IsGuard():
				walk(pc+1, append([]int(nil), path...))
				// Test fails: skip the guarded block.
				pc = in.Else - 1
			}
		}
	}
	walk(0, nil)
	return paths
}

// Count returns the number of instructions in p with the given op.
func (p *Program) Count(op Op) int {
	n := 0
	for _, in := range p.Instrs {
		if in.Op == op {
			n++
		}
	}
	return n
}
