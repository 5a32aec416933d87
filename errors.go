package patterntree

import (
	"errors"
	"fmt"
)

// ErrUsage is matched (with [errors.Is]) by every [*UsageError].
var ErrUsage = errors.New("pattern tree usage error")

// UsageKind classifies a [UsageError].
type UsageKind int

const (
	_ UsageKind = iota
	// NotProduct is reported for a record pattern whose type
	// is not a product type.
	NotProduct
	// ArityMismatch is reported for a record pattern whose number of
	// sub-patterns differs from the number of components of its type.
	ArityMismatch
	// DuplicateCase is reported when a case reaches a node that
	// already terminates an earlier case.
	DuplicateCase
	// AlreadyExhaustive is reported when a node is marked
	// exhaustive twice.
	AlreadyExhaustive
	// NotClosed is reported when a node whose subject type is
	// not a closed hierarchy is marked exhaustive.
	NotClosed
	// NoPath is reported when a navigation step does not exist.
	NoPath
)

var usageKindNames = map[UsageKind]string{
	NotProduct:        "not a product type",
	ArityMismatch:     "arity mismatch",
	DuplicateCase:     "duplicate case",
	AlreadyExhaustive: "already exhaustive",
	NotClosed:         "not a closed type",
	NoPath:            "no such path",
}

func (k UsageKind) String() string {
	if s, ok := usageKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("UsageKind(%d)", int(k))
}

// UsageError describes a misuse of the tree builder or the
// annotation API. A tree whose construction failed with a
// UsageError may be partially modified and should be discarded.
type UsageError struct {
	// Op names the operation that failed.
	Op     string
	Kind   UsageKind
	Detail string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
}

// Is implements the interface used by [errors.Is].
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

func usageErrorf(op string, kind UsageKind, f string, a ...any) error {
	return &UsageError{
		Op:     op,
		Kind:   kind,
		Detail: fmt.Sprintf(f, a...),
	}
}

// ErrNoMatch is returned by [Program.Exec] when no case matches the value.
var ErrNoMatch = errors.New("no case matches")

// NullRemainderError is returned by [Program.Exec] when a null value
// reaches a position where null is not handled by any case.
type NullRemainderError struct {
	// PC holds the index of the failing instruction.
	PC  int
	Reg Reg
}

func (e *NullRemainderError) Error() string {
	return fmt.Sprintf("null is a remainder: %v is null at instruction %d", e.Reg, e.PC)
}

// InvariantError is returned by [Program.Exec] when a narrowing that
// must not fail does fail. It indicates that a node was wrongly marked
// exhaustive, not that the value failed to match.
type InvariantError struct {
	// PC holds the index of the failing instruction.
	PC   int
	Reg  Reg
	Want Type
	Got  Type
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("broken exhaustiveness assertion: %v holds %v, not %v (instruction %d)", e.Reg, e.Got, e.Want, e.PC)
}
