package bytecode

import (
	"encoding/binary"
	"fmt"
)

// encodingVersion prefixes every encoded program
const encodingVersion byte = 1

// MarshalBinary encodes p as a version byte followed by one opcode byte per
// instruction, each PUSH and LOAD followed by a varint operand.
func (p Program) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 1+len(p)*2)
	buf = append(buf, encodingVersion)
	for pc, instr := range p {
		if !instr.Op.Valid() {
			return nil, fmt.Errorf("encode: invalid opcode %d at %d", instr.Op, pc)
		}
		buf = append(buf, byte(instr.Op))
		if instr.Op.HasOperand() {
			buf = binary.AppendVarint(buf, instr.Operand)
		}
	}
	return buf, nil
}

// Unmarshal decodes a program written by MarshalBinary.
func Unmarshal(data []byte) (Program, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode: empty input")
	}
	if data[0] != encodingVersion {
		return nil, fmt.Errorf("decode: unsupported encoding version %d", data[0])
	}

	prog := Program{}
	for i := 1; i < len(data); {
		op := Opcode(data[i])
		if !op.Valid() {
			return nil, fmt.Errorf("decode: invalid opcode %d at byte %d", op, i)
		}
		i++

		instr := Instruction{Op: op}
		if op.HasOperand() {
			v, n := binary.Varint(data[i:])
			if n <= 0 {
				return nil, fmt.Errorf("decode: truncated operand for %s at byte %d", op, i)
			}
			if op == OpLoadVar && v < 0 {
				return nil, fmt.Errorf("decode: negative offset %d at byte %d", v, i)
			}
			instr.Operand = v
			i += n
		}
		prog = append(prog, instr)
	}
	return prog, nil
}
