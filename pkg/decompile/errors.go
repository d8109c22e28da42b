package decompile

import (
	"errors"
	"fmt"

	"github.com/moorhen-dev/moorhen/pkg/program"
)

// ErrUnexpectedEnd is returned when the instruction stream runs out while a
// construct is still open.
var ErrUnexpectedEnd = errors.New("decompile: unexpected end of program")

// MalformedProgramError means the instruction stream does not have the shape
// the code generator produces.
type MalformedProgramError struct {
	Reason string
}

func (e *MalformedProgramError) Error() string {
	return fmt.Sprintf("decompile: malformed program: %s", e.Reason)
}

func malformed(format string, args ...any) error {
	return &MalformedProgramError{Reason: fmt.Sprintf(format, args...)}
}

// UnknownLabelError means an instruction referenced a jump label the program
// does not define.
type UnknownLabelError struct {
	Label program.Label
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("decompile: unknown jump label %d", e.Label)
}

// UnknownBuiltinError means a call instruction referenced a function id
// outside the registry.
type UnknownBuiltinError struct {
	ID program.Builtin
}

func (e *UnknownBuiltinError) Error() string {
	return fmt.Sprintf("decompile: unknown builtin function %d", e.ID)
}

// UnknownNameError means an instruction referenced a variable slot the
// program's name table does not cover.
type UnknownNameError struct {
	Name program.Name
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("decompile: unknown variable slot %d", e.Name)
}
