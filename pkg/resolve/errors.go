package resolve

import (
	"errors"
	"fmt"

	"github.com/vito/tiny/pkg/ast"
)

// ErrUnboundVariable matches any *UnboundVariableError.
var ErrUnboundVariable = errors.New("unbound variable")

// UnboundVariableError is returned when a variable has no enclosing binding.
type UnboundVariableError struct {
	Name string
	Loc  *ast.SourceLocation

	// Env is the environment the lookup was made in.
	Env *Env
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("unbound variable %q (in scope: %s)", e.Name, e.Env)
}

func (e *UnboundVariableError) Is(target error) bool {
	return target == ErrUnboundVariable
}

// GetSourceLocation returns the location of the offending reference.
func (e *UnboundVariableError) GetSourceLocation() *ast.SourceLocation {
	return e.Loc
}

// UnknownOperatorError is returned for a binary operation whose operator
// the machine has no instruction for.
type UnknownOperatorError struct {
	Op  ast.Operator
	Loc *ast.SourceLocation
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %s", e.Op)
}

func (e *UnknownOperatorError) GetSourceLocation() *ast.SourceLocation {
	return e.Loc
}
