package tiny

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dagger/testctx"
	"github.com/dagger/testctx/oteltest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/bytecode"
	"github.com/vito/tiny/pkg/ioctx"
	"github.com/vito/tiny/pkg/nameless"
	"github.com/vito/tiny/pkg/resolve"
	"github.com/vito/tiny/pkg/vm"
)

func TestMain(m *testing.M) {
	os.Exit(oteltest.Main(m))
}

type PipelineSuite struct{}

func TestPipeline(tT *testing.T) {
	testctx.New(tT,
		oteltest.WithTracing[*testing.T](),
		oteltest.WithLogging[*testing.T](),
	).RunTests(PipelineSuite{})
}

func (PipelineSuite) TestExamples(ctx context.Context, t *testctx.T) {
	for _, ex := range Examples {
		t.Run(ex.Name, func(ctx context.Context, t *testctx.T) {
			res, err := (&Evaluator{}).Evaluate(ctx, ex.Expr)
			require.NoError(t, err)
			assert.Equal(t, []int64{ex.Expected}, res.Stack.Values())

			direct, err := Interpret(ex.Expr, nil)
			require.NoError(t, err)
			assert.Equal(t, ex.Expected, direct)
		})
	}
}

func (PipelineSuite) TestNestedLetScenario(ctx context.Context, t *testctx.T) {
	ex, ok := LookupExample("nested")
	require.True(t, ok)

	res, err := (&Evaluator{}).Evaluate(ctx, ex.Expr)
	require.NoError(t, err)

	assert.Equal(t, &nameless.Let{
		Bound: &nameless.Constant{Value: 11},
		Body: &nameless.Let{
			Bound: &nameless.BinaryOp{Op: ast.Add, Left: &nameless.Variable{Offset: 0}, Right: &nameless.Constant{Value: 45}},
			Body:  &nameless.BinaryOp{Op: ast.Multiply, Left: &nameless.Variable{Offset: 0}, Right: &nameless.Constant{Value: 3}},
		},
	}, res.Nameless)

	n := len(res.Program)
	require.GreaterOrEqual(t, n, 4)
	assert.Equal(t, bytecode.Program{bytecode.Swap, bytecode.Pop, bytecode.Swap, bytecode.Pop}, res.Program[n-4:])
	assert.Equal(t, []int64{168}, res.Stack.Values())
	assert.Equal(t, int64(168), res.Value())
}

func (PipelineSuite) TestArithmeticScenario(ctx context.Context, t *testctx.T) {
	expr := ast.Times(ast.Plus(ast.Cst(5), ast.Cst(2)), ast.Times(ast.Cst(5), ast.Cst(2)))

	v, err := Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.Equal(t, int64(70), v)

	oracle, err := Interpret(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(70), oracle)
}

func (PipelineSuite) TestShadowing(ctx context.Context, t *testctx.T) {
	v, err := Evaluate(ctx, ast.LetIn("x", ast.Cst(1), ast.LetIn("x", ast.Cst(2), ast.Var("x"))))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = Evaluate(ctx, ast.LetIn("x", ast.Cst(1), ast.LetIn("y", ast.Cst(2), ast.Var("x"))))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func (PipelineSuite) TestUnboundVariable(ctx context.Context, t *testctx.T) {
	_, err := Evaluate(ctx, ast.Plus(ast.Var("x"), ast.Cst(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, resolve.ErrUnboundVariable))

	var unbound *resolve.UnboundVariableError
	require.True(t, errors.As(err, &unbound))
	assert.Equal(t, "x", unbound.Name)
	assert.True(t, strings.HasPrefix(err.Error(), "resolve: "))
}

func (PipelineSuite) TestOracleEquivalence(ctx context.Context, t *testctx.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		expr := genArith(r, 6)

		want, err := Interpret(expr, nil)
		require.NoError(t, err)

		resolved, err := resolve.Resolve(expr, resolve.Empty())
		require.NoError(t, err)
		stack, err := vm.Run(bytecode.Compile(resolved))
		require.NoError(t, err)

		top, ok := stack.Top()
		require.True(t, ok)
		require.Equal(t, want, top, "expression: %s", expr)
	}
}

func (PipelineSuite) TestClosedExpressions(ctx context.Context, t *testctx.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		expr := genClosed(r, 6, nil)

		want, err := Interpret(expr, nil)
		require.NoError(t, err, "expression: %s", expr)

		resolved, err := resolve.Resolve(expr, resolve.Empty())
		require.NoError(t, err)

		viaTree, err := nameless.Eval(resolved, nil)
		require.NoError(t, err)
		require.Equal(t, want, viaTree, "expression: %s", expr)

		stack, err := vm.Run(bytecode.Compile(resolved))
		require.NoError(t, err)
		require.Equal(t, []int64{want}, stack.Values(), "expression: %s", expr)
	}
}

func (PipelineSuite) TestStackBalance(ctx context.Context, t *testctx.T) {
	bindings := Bindings{{Name: "a", Value: 7}, {Name: "b", Value: -2}, {Name: "c", Value: 5}}
	ev := &Evaluator{Bindings: bindings}

	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 100; i++ {
		expr := genClosed(r, 5, bindings.Names())

		res, err := ev.Evaluate(ctx, expr)
		require.NoError(t, err, "expression: %s", expr)
		require.Equal(t, len(bindings)+1, res.Stack.Len())

		// the bindings are untouched beneath the result
		require.Equal(t, bindings.Values(), res.Stack.Values()[1:])

		want, err := Interpret(expr, bindings)
		require.NoError(t, err)
		require.Equal(t, want, res.Value())
	}
}

func (PipelineSuite) TestDeterminism(ctx context.Context, t *testctx.T) {
	r := rand.New(rand.NewPCG(7, 8))
	for i := 0; i < 50; i++ {
		expr := genClosed(r, 5, nil)
		_, first, _, err := (&Evaluator{}).Compile(ctx, expr)
		require.NoError(t, err)
		_, second, _, err := (&Evaluator{}).Compile(ctx, expr)
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
}

func (PipelineSuite) TestEvaluateAll(ctx context.Context, t *testctx.T) {
	ev := &Evaluator{Bindings: Bindings{{Name: "n", Value: 10}}}

	var exprs []ast.Expr
	for i := int64(0); i < 32; i++ {
		exprs = append(exprs, ast.LetIn("x", ast.Cst(i), ast.Times(ast.Var("x"), ast.Var("n"))))
	}

	results, err := ev.EvaluateAll(ctx, exprs)
	require.NoError(t, err)
	require.Len(t, results, len(exprs))
	for i, res := range results {
		assert.Equal(t, int64(i)*10, res.Value())
		assert.Equal(t, []int64{int64(i) * 10, 10}, res.Stack.Values())
	}
	assert.NotEqual(t, results[0].ID, results[1].ID)

	t.Run("first error wins", func(ctx context.Context, t *testctx.T) {
		_, err := ev.EvaluateAll(ctx, []ast.Expr{ast.Cst(1), ast.Var("missing")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, resolve.ErrUnboundVariable))
		assert.Contains(t, err.Error(), "expression 1")
	})
}

func (PipelineSuite) TestCache(ctx context.Context, t *testctx.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	defer cache.Close()

	ev := &Evaluator{Cache: cache, Bindings: Bindings{{Name: "w", Value: 3}}}
	ex, ok := LookupExample("nested")
	require.True(t, ok)
	expr := ast.Plus(ex.Expr, ast.Var("w"))

	first, err := ev.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.NotNil(t, first.Nameless)

	second, err := ev.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Nil(t, second.Nameless)
	assert.Equal(t, first.Program, second.Program)
	assert.Equal(t, int64(171), second.Value())

	// different binding names compile differently
	other := &Evaluator{Cache: cache, Bindings: Bindings{{Name: "z", Value: 0}, {Name: "w", Value: 3}}}
	third, err := other.Evaluate(ctx, expr)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, int64(171), third.Value())

	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func (PipelineSuite) TestTrace(ctx context.Context, t *testctx.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx = ioctx.LoggerToContext(ctx, logger)

	res, err := (&Evaluator{Trace: true}).Evaluate(ctx, ast.Plus(ast.Cst(1), ast.Cst(2)))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run="+res.ID.String())
	assert.Contains(t, out, "msg=step")
	assert.Contains(t, out, `msg="evaluation completed"`)
	assert.Equal(t, 3, strings.Count(out, "msg=step"))
}

func (PipelineSuite) TestRunFile(ctx context.Context, t *testctx.T) {
	dir := t.TempDir()

	t.Run("evaluates", func(ctx context.Context, t *testctx.T) {
		path := filepath.Join(dir, "nested.yaml")
		require.NoError(t, os.WriteFile(path, []byte(nestedYAML), 0644))

		res, err := (&Evaluator{}).RunFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, int64(168), res.Value())
	})

	t.Run("unbound variable points into the file", func(ctx context.Context, t *testctx.T) {
		path := filepath.Join(dir, "unbound.yaml")
		require.NoError(t, os.WriteFile(path, []byte("add:\n  - 1\n  - oops\n"), 0644))

		_, err := (&Evaluator{}).RunFile(ctx, path)
		var sourceErr *SourceError
		require.ErrorAs(t, err, &sourceErr)
		assert.Equal(t, 3, sourceErr.Location.Line)
		assert.Equal(t, 5, sourceErr.Location.Column)
		assert.True(t, errors.Is(err, resolve.ErrUnboundVariable))
		assert.Contains(t, err.Error(), "  - oops")
		assert.Contains(t, err.Error(), "^^^^")
	})

	t.Run("missing file", func(ctx context.Context, t *testctx.T) {
		_, err := (&Evaluator{}).RunFile(ctx, filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

var names = []string{"a", "b", "c"}

func genArith(r *rand.Rand, depth int) ast.Expr {
	if depth <= 1 || r.IntN(3) == 0 {
		return ast.Cst(r.Int64N(21) - 10)
	}
	if r.IntN(2) == 0 {
		return ast.Plus(genArith(r, depth-1), genArith(r, depth-1))
	}
	return ast.Times(genArith(r, depth-1), genArith(r, depth-1))
}

// genClosed only references names in scope, preferring reuse of names so
// that shadowing is common.
func genClosed(r *rand.Rand, depth int, scope []string) ast.Expr {
	if depth <= 1 || r.IntN(4) == 0 {
		if len(scope) > 0 && r.IntN(2) == 0 {
			return ast.Var(scope[r.IntN(len(scope))])
		}
		return ast.Cst(r.Int64N(21) - 10)
	}
	switch r.IntN(3) {
	case 0:
		return ast.Plus(genClosed(r, depth-1, scope), genClosed(r, depth-1, scope))
	case 1:
		return ast.Times(genClosed(r, depth-1, scope), genClosed(r, depth-1, scope))
	default:
		name := names[r.IntN(len(names))]
		bound := genClosed(r, depth-1, scope)
		inner := append([]string{name}, scope...)
		return ast.LetIn(name, bound, genClosed(r, depth-1, inner))
	}
}

const nestedYAML = `# let x = 11 in let y = x + 45 in y * 3
let: x
be: 11
in:
  let: y
  be: {add: [x, 45]}
  in: {mul: [y, 3]}
`
