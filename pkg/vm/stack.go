package vm

import (
	"strconv"
	"strings"
)

// Stack is the machine's operand stack. Offsets count down from the top:
// At(0) is the most recently pushed value.
type Stack struct {
	// bottom first, so pushes and pops touch the end of the slice
	vals []int64
}

// NewStack returns a stack holding values, values[0] on top.
func NewStack(values ...int64) Stack {
	vals := make([]int64, len(values))
	for i, v := range values {
		vals[len(values)-1-i] = v
	}
	return Stack{vals: vals}
}

func (s Stack) Len() int {
	return len(s.vals)
}

// At returns the value offset slots below the top.
func (s Stack) At(offset int) (int64, bool) {
	if offset < 0 || offset >= len(s.vals) {
		return 0, false
	}
	return s.vals[len(s.vals)-1-offset], true
}

// Top returns the result of a finished program.
func (s Stack) Top() (int64, bool) {
	return s.At(0)
}

// Values returns a copy of the stack, top first.
func (s Stack) Values() []int64 {
	out := make([]int64, len(s.vals))
	for i, v := range s.vals {
		out[len(s.vals)-1-i] = v
	}
	return out
}

func (s Stack) String() string {
	parts := make([]string, 0, len(s.vals))
	for _, v := range s.Values() {
		parts = append(parts, strconv.FormatInt(v, 10))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s Stack) clone() Stack {
	vals := make([]int64, len(s.vals))
	copy(vals, s.vals)
	return Stack{vals: vals}
}

func (s *Stack) push(v int64) {
	s.vals = append(s.vals, v)
}

// pop assumes the caller checked the depth.
func (s *Stack) pop() int64 {
	v := s.vals[len(s.vals)-1]
	s.vals = s.vals[:len(s.vals)-1]
	return v
}

func (s *Stack) swap() {
	n := len(s.vals)
	s.vals[n-1], s.vals[n-2] = s.vals[n-2], s.vals[n-1]
}
