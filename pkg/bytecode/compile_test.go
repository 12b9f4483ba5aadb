package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/nameless"
	"github.com/vito/tiny/pkg/resolve"
	"gotest.tools/v3/golden"
)

func compileNamed(t *testing.T, expr ast.Expr) Program {
	t.Helper()
	resolved, err := resolve.Resolve(expr, resolve.Empty())
	require.NoError(t, err)
	return Compile(resolved)
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		expr     nameless.Expr
		expected Program
	}{
		{
			name:     "constant",
			expr:     &nameless.Constant{Value: 3},
			expected: Program{PushConstant(3)},
		},
		{
			name:     "variable",
			expr:     &nameless.Variable{Offset: 2},
			expected: Program{LoadVar(2)},
		},
		{
			name: "postorder arithmetic",
			expr: &nameless.BinaryOp{
				Op:    ast.Multiply,
				Left:  &nameless.BinaryOp{Op: ast.Add, Left: &nameless.Constant{Value: 5}, Right: &nameless.Constant{Value: 2}},
				Right: &nameless.Constant{Value: 4},
			},
			expected: Program{PushConstant(5), PushConstant(2), Add, PushConstant(4), Multiply},
		},
		{
			name: "let tail",
			expr: &nameless.Let{
				Bound: &nameless.Constant{Value: 1},
				Body:  &nameless.Variable{Offset: 0},
			},
			expected: Program{PushConstant(1), LoadVar(0), Swap, Pop},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compile(tt.expr))
		})
	}
}

func TestCompileNestedLet(t *testing.T) {
	expr := ast.LetIn("x", ast.Cst(11),
		ast.LetIn("y", ast.Plus(ast.Var("x"), ast.Cst(45)),
			ast.Times(ast.Var("y"), ast.Cst(3))))

	prog := compileNamed(t, expr)
	assert.Equal(t, Program{
		PushConstant(11),
		LoadVar(0),
		PushConstant(45),
		Add,
		LoadVar(0),
		PushConstant(3),
		Multiply,
		Swap, Pop,
		Swap, Pop,
	}, prog)

	golden.Assert(t, prog.String(), "nested_let.golden")
}

func TestCompileRightOperand(t *testing.T) {
	// let x = 3 in let y = 4 in x * y
	expr := ast.LetIn("x", ast.Cst(3), ast.LetIn("y", ast.Cst(4), ast.Times(ast.Var("x"), ast.Var("y"))))

	prog := compileNamed(t, expr)
	assert.Equal(t, Program{
		PushConstant(3),
		PushConstant(4),
		LoadVar(1), // x, below y
		LoadVar(1), // y, below the copy of x
		Multiply,
		Swap, Pop,
		Swap, Pop,
	}, prog)

	golden.Assert(t, prog.String(), "right_operand.golden")
}

func TestCompileArithmeticListing(t *testing.T) {
	prog := compileNamed(t, ast.Times(ast.Plus(ast.Cst(5), ast.Cst(2)), ast.Times(ast.Cst(5), ast.Cst(2))))
	golden.Assert(t, prog.String(), "arithmetic.golden")
}

func TestCompileDeterministic(t *testing.T) {
	expr := ast.LetIn("x", ast.Cst(1), ast.LetIn("x", ast.Times(ast.Var("x"), ast.Cst(9)), ast.Plus(ast.Var("x"), ast.Cst(2))))
	assert.Equal(t, compileNamed(t, expr), compileNamed(t, expr))
}

func TestInstructionString(t *testing.T) {
	assert.Equal(t, "PUSH -4", PushConstant(-4).String())
	assert.Equal(t, "LOAD 1", LoadVar(1).String())
	assert.Equal(t, "SWAP", Swap.String())
	assert.Equal(t, "OP(42)", Instruction{Op: 42}.String())
}

func TestEncoding(t *testing.T) {
	prog := compileNamed(t, ast.LetIn("x", ast.Cst(-300), ast.Times(ast.Var("x"), ast.Cst(1<<40))))

	data, err := prog.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, prog, decoded)

	t.Run("empty program", func(t *testing.T) {
		data, err := Program{}.MarshalBinary()
		require.NoError(t, err)
		decoded, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := Unmarshal(nil)
		require.ErrorContains(t, err, "empty input")

		_, err = Unmarshal([]byte{9})
		require.ErrorContains(t, err, "unsupported encoding version")

		_, err = Unmarshal([]byte{encodingVersion, 200})
		require.ErrorContains(t, err, "invalid opcode")

		_, err = Unmarshal([]byte{encodingVersion, byte(OpPushConstant)})
		require.ErrorContains(t, err, "truncated operand")

		_, err = Unmarshal([]byte{encodingVersion, byte(OpLoadVar), 0x01})
		require.ErrorContains(t, err, "negative offset")

		_, err = Program{{Op: 99}}.MarshalBinary()
		require.Error(t, err)
	})
}
