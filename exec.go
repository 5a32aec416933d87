package patterntree

import (
	"fmt"
)

// Value is a runtime value that a [Program] can be executed on.
// The null value is represented by a nil Value.
type Value interface {
	// Type returns the dynamic type of the value.
	Type() Type
	// Component returns the named component of the value,
	// which must be of a product type having that component.
	Component(name string) Value
}

// Result holds the outcome of a successful match.
type Result struct {
	// Case holds the destination index of the matching case.
	Case int
	// Args holds the values bound by the matching case, in order.
	Args []Value
}

// Exec runs the program on v and returns the matching case.
//
// It returns [ErrNoMatch] if no case matches,
// a [*NullRemainderError] if v holds null where no case
// accounts for it, and an [*InvariantError] if a narrowing
// emitted under an exhaustiveness assertion fails.
func (p *Program) Exec(v Value, st Subtyper) (Result, error) {
	regs := make([]Value, max(p.NumRegs, 1))
	regs[0] = v
	for pc := 0; pc < len(p.Instrs); pc++ {
		in := p.Instrs[pc]
		switch in.Op {
		case OpReadComponent:
			recv := regs[in.Src]
			if recv == nil {
				return Result{}, &NullRemainderError{
					PC:  pc,
					Reg: in.Src,
				}
			}
			regs[in.Dst] = recv.Component(in.Component)
		case OpTestNull:
			isNull := regs[in.Src] == nil
			if in.Remainder {
				if isNull {
					return Result{}, &NullRemainderError{
						PC:  pc,
						Reg: in.Src,
					}
				}
				continue
			}
			if !isNull {
				pc = in.Else - 1
			}
		case OpTestType:
			x := regs[in.Src]
			if x == nil || !st.Assignable(x.Type(), in.Type) {
				pc = in.Else - 1
				continue
			}
			regs[in.Dst] = x
		case OpUncheckedNarrow:
			x := regs[in.Src]
			if x == nil {
				// Null is only unexcluded here when the narrowed
				// value is about to be decomposed.
				return Result{}, &NullRemainderError{
					PC:  pc,
					Reg: in.Src,
				}
			}
			if !st.Assignable(x.Type(), in.Type) {
				return Result{}, &InvariantError{
					PC:   pc,
					Reg:  in.Src,
					Want: in.Type,
					Got:  x.Type(),
				}
			}
			regs[in.Dst] = x
		case OpInvoke:
			args := make([]Value, len(in.Args))
			for i, r := range in.Args {
				args[i] = regs[r]
			}
			return Result{
				Case: in.Case,
				Args: args,
			}, nil
		default:
			panic(fmt.Errorf("unknown op %v at instruction %d", in.Op, pc))
		}
	}
	return Result{}, ErrNoMatch
}
