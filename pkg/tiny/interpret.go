package tiny

import (
	"fmt"

	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/resolve"
)

// Interpret evaluates expr by walking the named tree, looking variables up
// by name in bindings. It shares no code with the resolver, compiler or
// machine, which makes it a reference for checking them.
func Interpret(expr ast.Expr, bindings Bindings) (int64, error) {
	switch e := expr.(type) {
	case *ast.Constant:
		return e.Value, nil
	case *ast.BinaryOp:
		l, err := Interpret(e.Left, bindings)
		if err != nil {
			return 0, err
		}
		r, err := Interpret(e.Right, bindings)
		if err != nil {
			return 0, err
		}
		return e.Op.Apply(l, r)
	case *ast.Variable:
		v, found := bindings.Lookup(e.Name)
		if !found {
			return 0, &resolve.UnboundVariableError{Name: e.Name, Loc: e.Loc, Env: bindings.Env()}
		}
		return v, nil
	case *ast.Let:
		v, err := Interpret(e.Bound, bindings)
		if err != nil {
			return 0, err
		}
		return Interpret(e.Body, bindings.With(e.Name, v))
	case nil:
		return 0, fmt.Errorf("cannot interpret a nil expression")
	default:
		return 0, fmt.Errorf("expression of type %T is unhandled", expr)
	}
}
