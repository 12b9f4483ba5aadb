// Package bytecode defines the stack machine's instruction set and the
// compiler that lowers nameless expressions into it.
package bytecode

import (
	"fmt"
	"strings"
)

type Opcode uint8

const (
	OpPushConstant Opcode = iota // push Operand
	OpAdd                        // pop v2, v1; push v1 + v2
	OpMultiply                   // pop v2, v1; push v1 * v2
	OpLoadVar                    // push a copy of the value Operand slots below the top
	OpPop                        // drop the top
	OpSwap                       // exchange the top two
)

var opNames = [...]string{
	OpPushConstant: "PUSH",
	OpAdd:          "ADD",
	OpMultiply:     "MUL",
	OpLoadVar:      "LOAD",
	OpPop:          "POP",
	OpSwap:         "SWAP",
}

func (op Opcode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return int(op) < len(opNames)
}

// HasOperand reports whether instructions with this opcode use Operand.
func (op Opcode) HasOperand() bool {
	return op == OpPushConstant || op == OpLoadVar
}

// Instruction is a single machine step. Operand is the constant for
// OpPushConstant and the stack offset for OpLoadVar; it is zero otherwise.
type Instruction struct {
	Op      Opcode
	Operand int64
}

func PushConstant(v int64) Instruction { return Instruction{Op: OpPushConstant, Operand: v} }
func LoadVar(offset int) Instruction   { return Instruction{Op: OpLoadVar, Operand: int64(offset)} }

var (
	Add      = Instruction{Op: OpAdd}
	Multiply = Instruction{Op: OpMultiply}
	Pop      = Instruction{Op: OpPop}
	Swap     = Instruction{Op: OpSwap}
)

func (i Instruction) String() string {
	if i.Op.HasOperand() {
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	}
	return i.Op.String()
}

// Program is a compiled instruction sequence. It is built once and not
// modified afterwards.
type Program []Instruction

// String renders a numbered listing, one instruction per line.
func (p Program) String() string {
	var b strings.Builder
	for pc, instr := range p {
		fmt.Fprintf(&b, "%04d  %s\n", pc, instr)
	}
	return b.String()
}
