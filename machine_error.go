// machine_error.go - Machine fault taxonomy for Intuition8

package main

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// SegmentationFault covers any computed address that falls outside the
	// valid range for the current mode: jump, call and return targets as
	// well as the memory spans touched by FX33, FX55, FX65 and DXYN.
	SegmentationFault ErrorKind = iota

	// SubroutineStackOverflow is a call attempted with all 16 stack slots
	// already in use.
	SubroutineStackOverflow

	// SubroutineStackEmpty is a return attempted with an empty stack.
	SubroutineStackEmpty

	// IndexOutOfBounds covers register or array indices derived from
	// malformed register contents, e.g. a key-skip instruction whose VX
	// holds a value past 0xF.
	IndexOutOfBounds

	// UnexpectedError is the defensive catch-all for dispatch branches
	// that should be unreachable given the fixed opcode encoding.
	UnexpectedError
)

func (k ErrorKind) String() string {
	switch k {
	case SegmentationFault:
		return "segmentation fault"
	case SubroutineStackOverflow:
		return "subroutine stack overflow"
	case SubroutineStackEmpty:
		return "subroutine stack empty"
	case IndexOutOfBounds:
		return "index out of bounds"
	default:
		return "unexpected error"
	}
}

// MachineError carries the fault context for a failed cycle. A cycle either
// completes fully or fails atomically with one of these; the machine never
// retries or recovers on its own.
type MachineError struct {
	Kind   ErrorKind
	Op     string // instruction or operation that faulted
	Addr   uint16 // offending address, where one exists
	Detail string
}

func (e *MachineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s at 0x%03X: %s", e.Op, e.Kind, e.Addr, e.Detail)
	}
	return fmt.Sprintf("%s: %s at 0x%03X", e.Op, e.Kind, e.Addr)
}

// IsMachineError reports whether err is a MachineError of the given kind.
func IsMachineError(err error, kind ErrorKind) bool {
	var me *MachineError
	return errors.As(err, &me) && me.Kind == kind
}
