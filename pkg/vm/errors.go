package vm

import (
	"errors"
	"fmt"

	"github.com/vito/tiny/pkg/bytecode"
)

var (
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrStackIndexOutOfRange = errors.New("stack index out of range")
	ErrInvalidInstruction   = errors.New("invalid instruction")
)

// StackUnderflowError is returned when an instruction needs more operands
// than the stack holds.
type StackUnderflowError struct {
	PC    int
	Instr bytecode.Instruction
	Need  int
	Depth int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow at %04d (%s): need %d, have %d", e.PC, e.Instr, e.Need, e.Depth)
}

func (e *StackUnderflowError) Is(target error) bool {
	return target == ErrStackUnderflow
}

// StackIndexError is returned when LOAD reaches past the bottom of the
// stack.
type StackIndexError struct {
	PC     int
	Instr  bytecode.Instruction
	Offset int64
	Depth  int
}

func (e *StackIndexError) Error() string {
	return fmt.Sprintf("stack index out of range at %04d (%s): offset %d, depth %d", e.PC, e.Instr, e.Offset, e.Depth)
}

func (e *StackIndexError) Is(target error) bool {
	return target == ErrStackIndexOutOfRange
}

type InvalidInstructionError struct {
	PC    int
	Instr bytecode.Instruction
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction at %04d: %s", e.PC, e.Instr)
}

func (e *InvalidInstructionError) Is(target error) bool {
	return target == ErrInvalidInstruction
}
