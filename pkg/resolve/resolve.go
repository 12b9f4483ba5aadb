// Package resolve turns named expressions into nameless ones by replacing
// every variable with its distance from the top of the operand stack.
package resolve

import (
	"fmt"

	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/nameless"
)

// Resolve rewrites expr so that each variable carries the offset of its
// binding in env. The first match wins, which gives inner lets precedence
// over outer ones with the same name. Offsets count every value on the
// stack at that point, named or not.
func Resolve(expr ast.Expr, env *Env) (nameless.Expr, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		return &nameless.Constant{Value: e.Value}, nil

	case *ast.BinaryOp:
		if !e.Op.Valid() {
			return nil, &UnknownOperatorError{Op: e.Op, Loc: e.Loc}
		}
		left, err := Resolve(e.Left, env)
		if err != nil {
			return nil, err
		}
		// the left value sits on the stack while the right side runs; it
		// takes a slot but binds no name
		right, err := Resolve(e.Right, env.Reserve())
		if err != nil {
			return nil, err
		}
		return &nameless.BinaryOp{Op: e.Op, Left: left, Right: right}, nil

	case *ast.Variable:
		offset, found := env.Lookup(e.Name)
		if !found {
			return nil, &UnboundVariableError{Name: e.Name, Loc: e.Loc, Env: env}
		}
		return &nameless.Variable{Offset: offset}, nil

	case *ast.Let:
		bound, err := Resolve(e.Bound, env)
		if err != nil {
			return nil, err
		}
		// the bound value sits on top of the stack while the body runs
		body, err := Resolve(e.Body, env.Extend(e.Name))
		if err != nil {
			return nil, err
		}
		return &nameless.Let{Bound: bound, Body: body}, nil

	case nil:
		return nil, fmt.Errorf("cannot resolve a nil expression")

	default:
		return nil, fmt.Errorf("expression of type %T is unhandled", expr)
	}
}
