package tiny

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vito/tiny/pkg/ast"
	"github.com/vito/tiny/pkg/bytecode"
	"github.com/vito/tiny/pkg/ioctx"
	"github.com/vito/tiny/pkg/nameless"
	"github.com/vito/tiny/pkg/resolve"
	"github.com/vito/tiny/pkg/vm"
	"golang.org/x/sync/errgroup"
)

// Evaluator runs expressions through resolve, compile and the machine.
// Its fields are read-only once evaluation starts, so one Evaluator may
// serve many goroutines; every run gets its own environment and stack.
type Evaluator struct {
	// Bindings are visible to every expression.
	Bindings Bindings

	// Cache, if set, stores compiled programs across runs.
	Cache *Cache

	// Trace logs each machine step.
	Trace bool
}

// Result is the outcome of one evaluation.
type Result struct {
	ID   uuid.UUID
	Expr ast.Expr

	// Nameless is nil when Program came from the cache.
	Nameless nameless.Expr
	Program  bytecode.Program
	Cached   bool

	// Stack is the final operand stack, external bindings included.
	Stack vm.Stack
}

// Value is the result of the expression: the top of the final stack.
func (r *Result) Value() int64 {
	v, _ := r.Stack.Top()
	return v
}

// Evaluate runs expr with no external bindings and returns its value.
func Evaluate(ctx context.Context, expr ast.Expr) (int64, error) {
	res, err := (&Evaluator{}).Evaluate(ctx, expr)
	if err != nil {
		return 0, err
	}
	return res.Value(), nil
}

// Compile resolves and compiles expr against the evaluator's bindings,
// consulting the cache first.
func (ev *Evaluator) Compile(ctx context.Context, expr ast.Expr) (nameless.Expr, bytecode.Program, bool, error) {
	logger := ioctx.LoggerFromContext(ctx)
	env := ev.Bindings.Env()

	var key string
	if ev.Cache != nil {
		key = CacheKey(expr, env)
		prog, found, err := ev.Cache.Get(key)
		if err != nil {
			// a bad entry is recompiled and overwritten
			logger.WarnContext(ctx, "ignoring cached program", "key", key, "error", err)
		} else if found {
			logger.DebugContext(ctx, "using cached program", "key", key)
			return nil, prog, true, nil
		}
	}

	resolved, err := resolve.Resolve(expr, env)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "resolve")
	}
	logger.DebugContext(ctx, "resolution completed", "nameless", resolved.String())

	prog := bytecode.Compile(resolved)
	logger.DebugContext(ctx, "compilation completed", "instructions", len(prog))

	if ev.Cache != nil {
		if err := ev.Cache.Put(key, prog); err != nil {
			return nil, nil, false, errors.Wrap(err, "caching program")
		}
	}

	return resolved, prog, false, nil
}

// Evaluate compiles and runs expr.
func (ev *Evaluator) Evaluate(ctx context.Context, expr ast.Expr) (*Result, error) {
	id := uuid.New()
	logger := ioctx.LoggerFromContext(ctx).With("run", id.String())
	ctx = ioctx.LoggerToContext(ctx, logger)

	resolved, prog, cached, err := ev.Compile(ctx, expr)
	if err != nil {
		return nil, err
	}

	opts := []vm.Option{vm.WithStack(ev.Bindings.Values()...)}
	if ev.Trace {
		opts = append(opts, vm.WithTracer(logger))
	}
	machine := vm.New(opts...)
	if err := machine.Exec(ctx, prog); err != nil {
		return nil, errors.Wrap(err, "run")
	}

	stack := machine.Stack()
	if want := len(ev.Bindings) + 1; stack.Len() != want {
		return nil, errors.Errorf("run: program left %d values on the stack, expected %d", stack.Len(), want)
	}
	logger.DebugContext(ctx, "evaluation completed", "stack", stack.String())

	return &Result{
		ID:       id,
		Expr:     expr,
		Nameless: resolved,
		Program:  prog,
		Cached:   cached,
		Stack:    stack,
	}, nil
}

// EvaluateAll evaluates independent expressions concurrently. Results are
// in the order of exprs; the first error cancels the rest.
func (ev *Evaluator) EvaluateAll(ctx context.Context, exprs []ast.Expr) ([]*Result, error) {
	results := make([]*Result, len(exprs))
	eg, ctx := errgroup.WithContext(ctx)
	for i, expr := range exprs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ev.Evaluate(ctx, expr)
			if err != nil {
				return errors.Wrapf(err, "expression %d", i)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunFile evaluates the tree stored in path. Errors that point into the
// file are rendered with the offending lines.
func (ev *Evaluator) RunFile(ctx context.Context, path string) (*Result, error) {
	expr, source, err := LoadExprFile(path)
	if err != nil {
		return nil, WithSource(err, source)
	}
	res, err := ev.Evaluate(ctx, expr)
	if err != nil {
		return nil, WithSource(err, source)
	}
	return res, nil
}
