package bytecode

import (
	"fmt"

	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/nameless"
)

// Compile lowers expr into a program by postorder traversal. Running the
// program leaves exactly one extra value, the result, on the stack.
func Compile(expr nameless.Expr) Program {
	var c compiler
	c.emit(expr)
	return c.code
}

type compiler struct {
	code Program
}

func (c *compiler) emit(expr nameless.Expr) {
	switch e := expr.(type) {
	case *nameless.Constant:
		c.code = append(c.code, PushConstant(e.Value))
	case *nameless.BinaryOp:
		c.emit(e.Left)
		c.emit(e.Right)
		c.code = append(c.code, opInstruction(e.Op))
	case *nameless.Variable:
		c.code = append(c.code, LoadVar(e.Offset))
	case *nameless.Let:
		c.emit(e.Bound)
		c.emit(e.Body)
		// stack is [body, bound, ...]; drop bound, keep body on top
		c.code = append(c.code, Swap, Pop)
	default:
		// resolve never produces anything else
		panic(fmt.Sprintf("compile: unexpected nameless expression %T", expr))
	}
}

func opInstruction(op ast.Operator) Instruction {
	switch op {
	case ast.Add:
		return Add
	case ast.Multiply:
		return Multiply
	default:
		panic(fmt.Sprintf("compile: unknown operator %s", op))
	}
}
