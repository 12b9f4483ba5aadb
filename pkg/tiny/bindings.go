package tiny

import (
	"sort"

	"github.com/vito/tiny/pkg/resolve"
)

// Binding is an externally supplied variable.
type Binding struct {
	Name  string
	Value int64
}

// Bindings is an ordered list of external variables. Bindings[0] is the
// innermost: it shadows any later entry with the same name and sits on top
// of the operand stack when a program starts.
type Bindings []Binding

// BindingsFromMap orders m by name.
func BindingsFromMap(m map[string]int64) Bindings {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	bindings := make(Bindings, 0, len(names))
	for _, name := range names {
		bindings = append(bindings, Binding{Name: name, Value: m[name]})
	}
	return bindings
}

// Names returns the bound names in stack order.
func (b Bindings) Names() []string {
	names := make([]string, len(b))
	for i, binding := range b {
		names[i] = binding.Name
	}
	return names
}

// Values returns the bound values in stack order.
func (b Bindings) Values() []int64 {
	values := make([]int64, len(b))
	for i, binding := range b {
		values[i] = binding.Value
	}
	return values
}

// Env is the compile-time environment matching Values.
func (b Bindings) Env() *resolve.Env {
	return resolve.NewEnv(b.Names()...)
}

func (b Bindings) Lookup(name string) (int64, bool) {
	for _, binding := range b {
		if binding.Name == name {
			return binding.Value, true
		}
	}
	return 0, false
}

// With returns a copy of b with name bound innermost.
func (b Bindings) With(name string, value int64) Bindings {
	extended := make(Bindings, 0, len(b)+1)
	extended = append(extended, Binding{Name: name, Value: value})
	return append(extended, b...)
}
