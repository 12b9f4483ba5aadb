// Package nameless holds the lexically addressed form of an expression:
// variables are stack offsets rather than names.
package nameless

import (
	"fmt"
	"strconv"

	"github.com/vito/tiny/pkg/ast"
)

// Expr is a nameless expression. Sub-trees are immutable and may be shared
// between parents.
type Expr interface {
	String() string
	isExpr()
}

type Constant struct {
	Value int64
}

type BinaryOp struct {
	Op    ast.Operator
	Left  Expr
	Right Expr
}

// Variable reads the value Offset slots below the top of the stack.
type Variable struct {
	Offset int
}

// Let pushes Bound for the duration of Body.
type Let struct {
	Bound Expr
	Body  Expr
}

func (*Constant) isExpr() {}
func (*BinaryOp) isExpr() {}
func (*Variable) isExpr() {}
func (*Let) isExpr()      {}

func (c *Constant) String() string {
	return strconv.FormatInt(c.Value, 10)
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (v *Variable) String() string {
	return "#" + strconv.Itoa(v.Offset)
}

func (l *Let) String() string {
	return fmt.Sprintf("(let %s in %s)", l.Bound, l.Body)
}

// Eval evaluates e directly against env, where env[0] is the innermost
// slot. env mirrors the operand stack: the left value of a binary
// operation occupies a slot while its right side is evaluated.
func Eval(e Expr, env []int64) (int64, error) {
	switch e := e.(type) {
	case *Constant:
		return e.Value, nil
	case *BinaryOp:
		l, err := Eval(e.Left, env)
		if err != nil {
			return 0, err
		}
		r, err := Eval(e.Right, push(env, l))
		if err != nil {
			return 0, err
		}
		return e.Op.Apply(l, r)
	case *Variable:
		if e.Offset < 0 || e.Offset >= len(env) {
			return 0, fmt.Errorf("offset %d out of range for environment of %d", e.Offset, len(env))
		}
		return env[e.Offset], nil
	case *Let:
		v, err := Eval(e.Bound, env)
		if err != nil {
			return 0, err
		}
		return Eval(e.Body, push(env, v))
	default:
		return 0, fmt.Errorf("unknown nameless expression %T", e)
	}
}

func push(env []int64, v int64) []int64 {
	extended := make([]int64, 0, len(env)+1)
	extended = append(extended, v)
	return append(extended, env...)
}
