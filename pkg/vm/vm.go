// Package vm executes bytecode programs on an explicit operand stack.
package vm

import (
	"context"
	"log/slog"

	"github.com/vito/tiny/pkg/bytecode"
)

// Machine runs programs against its stack. A Machine is not safe for
// concurrent use; give each goroutine its own.
type Machine struct {
	stack  Stack
	tracer *slog.Logger
}

type Option func(*Machine)

// WithStack seeds the stack with values, values[0] on top. This is how
// externally bound variables are supplied.
func WithStack(values ...int64) Option {
	return func(m *Machine) {
		m.stack = NewStack(values...)
	}
}

// WithTracer logs every step at debug level.
func WithTracer(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.tracer = logger
	}
}

func New(opts ...Option) *Machine {
	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes prog on an empty stack and returns the final stack.
func Run(prog bytecode.Program) (Stack, error) {
	m := New()
	if err := m.Exec(context.Background(), prog); err != nil {
		return Stack{}, err
	}
	return m.Stack(), nil
}

// Stack returns a copy of the machine's current stack.
func (m *Machine) Stack() Stack {
	return m.stack.clone()
}

// Exec runs prog from start to end. The first failing instruction aborts
// the run; the stack is left as it was before that instruction.
func (m *Machine) Exec(ctx context.Context, prog bytecode.Program) error {
	for pc, instr := range prog {
		if err := m.step(pc, instr); err != nil {
			return err
		}
		if m.tracer != nil {
			m.tracer.DebugContext(ctx, "step",
				"pc", pc,
				"instr", instr.String(),
				"stack", m.stack.String())
		}
	}
	return nil
}

func (m *Machine) step(pc int, instr bytecode.Instruction) error {
	s := &m.stack
	switch instr.Op {
	case bytecode.OpPushConstant:
		s.push(instr.Operand)

	case bytecode.OpAdd, bytecode.OpMultiply:
		if s.Len() < 2 {
			return &StackUnderflowError{PC: pc, Instr: instr, Need: 2, Depth: s.Len()}
		}
		v2 := s.pop()
		v1 := s.pop()
		if instr.Op == bytecode.OpAdd {
			s.push(v1 + v2)
		} else {
			s.push(v1 * v2)
		}

	case bytecode.OpLoadVar:
		if instr.Operand < 0 || instr.Operand >= int64(s.Len()) {
			return &StackIndexError{PC: pc, Instr: instr, Offset: instr.Operand, Depth: s.Len()}
		}
		v, _ := s.At(int(instr.Operand))
		s.push(v)

	case bytecode.OpPop:
		if s.Len() < 1 {
			return &StackUnderflowError{PC: pc, Instr: instr, Need: 1, Depth: s.Len()}
		}
		s.pop()

	case bytecode.OpSwap:
		if s.Len() < 2 {
			return &StackUnderflowError{PC: pc, Instr: instr, Need: 2, Depth: s.Len()}
		}
		s.swap()

	default:
		return &InvalidInstructionError{PC: pc, Instr: instr}
	}
	return nil
}
