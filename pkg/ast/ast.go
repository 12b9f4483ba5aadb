package ast

import (
	"fmt"
	"strconv"
)

// SourceLocation represents a location in a tree file
type SourceLocation struct {
	Filename string
	Line     int
	Column   int
	Length   int // Length of the syntax node that caused the error
}

func (loc *SourceLocation) String() string {
	if loc == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", loc.Filename, loc.Line, loc.Column)
}

// Expr is a named expression. Nodes own their children and are never
// mutated after construction.
type Expr interface {
	// String renders the expression in surface syntax.
	String() string

	// GetSourceLocation returns where the node was decoded from, or nil.
	GetSourceLocation() *SourceLocation

	isExpr()
}

// Operator is the kind of a binary operation.
type Operator int

const (
	Add Operator = iota
	Multiply
)

func (op Operator) String() string {
	switch op {
	case Add:
		return "+"
	case Multiply:
		return "*"
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	return op == Add || op == Multiply
}

// precedence is used only for rendering
func (op Operator) precedence() int {
	if op == Multiply {
		return 2
	}
	return 1
}

// Apply computes l op r.
func (op Operator) Apply(l, r int64) (int64, error) {
	switch op {
	case Add:
		return l + r, nil
	case Multiply:
		return l * r, nil
	default:
		return 0, fmt.Errorf("unknown operator: %s", op)
	}
}

// Constant is an integer literal.
type Constant struct {
	Value int64
	Loc   *SourceLocation
}

// BinaryOp applies Op to Left and Right. It introduces no bindings.
type BinaryOp struct {
	Op    Operator
	Left  Expr
	Right Expr
	Loc   *SourceLocation
}

// Variable references the closest enclosing binding of Name.
type Variable struct {
	Name string
	Loc  *SourceLocation
}

// Let binds Name to Bound for the duration of Body. Bound cannot see Name.
type Let struct {
	Name  string
	Bound Expr
	Body  Expr
	Loc   *SourceLocation
}

var _ Expr = (*Constant)(nil)
var _ Expr = (*BinaryOp)(nil)
var _ Expr = (*Variable)(nil)
var _ Expr = (*Let)(nil)

func (*Constant) isExpr() {}
func (*BinaryOp) isExpr() {}
func (*Variable) isExpr() {}
func (*Let) isExpr()      {}

func (c *Constant) GetSourceLocation() *SourceLocation { return c.Loc }
func (b *BinaryOp) GetSourceLocation() *SourceLocation { return b.Loc }
func (v *Variable) GetSourceLocation() *SourceLocation { return v.Loc }
func (l *Let) GetSourceLocation() *SourceLocation      { return l.Loc }

// Cst builds a Constant.
func Cst(v int64) *Constant {
	return &Constant{Value: v}
}

// Plus builds l + r.
func Plus(l, r Expr) *BinaryOp {
	return &BinaryOp{Op: Add, Left: l, Right: r}
}

// Times builds l * r.
func Times(l, r Expr) *BinaryOp {
	return &BinaryOp{Op: Multiply, Left: l, Right: r}
}

// Var builds a Variable.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// LetIn builds let name = bound in body.
func LetIn(name string, bound, body Expr) *Let {
	return &Let{Name: name, Bound: bound, Body: body}
}

func (c *Constant) String() string {
	return strconv.FormatInt(c.Value, 10)
}

func (b *BinaryOp) String() string {
	return render(b, 0)
}

func (v *Variable) String() string {
	return v.Name
}

func (l *Let) String() string {
	return render(l, 0)
}

// render prints e, parenthesizing it when it binds looser than prec.
// Let extends as far right as possible, so it is wrapped whenever it
// appears as an operand.
func render(e Expr, prec int) string {
	switch e := e.(type) {
	case *BinaryOp:
		p := e.Op.precedence()
		// operators are left-associative: the right side needs parens at
		// equal precedence
		s := fmt.Sprintf("%s %s %s", render(e.Left, p), e.Op, render(e.Right, p+1))
		if p < prec {
			return "(" + s + ")"
		}
		return s
	case *Let:
		s := fmt.Sprintf("let %s = %s in %s", e.Name, render(e.Bound, 0), render(e.Body, 0))
		if prec > 0 {
			return "(" + s + ")"
		}
		return s
	case nil:
		return "<nil>"
	default:
		return e.String()
	}
}
