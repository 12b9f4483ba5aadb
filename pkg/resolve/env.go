package resolve

import (
	"strings"
)

// Env is the compile-time environment: the names that will occupy the
// operand stack at a program point, most recent binding first. Position i
// in the Env is offset i from the top of the stack at run time.
//
// An Env is persistent. Extend returns a new Env and leaves the receiver
// untouched, so the same Env may be shared freely, including across
// goroutines. The nil *Env is the empty environment.
type Env struct {
	name   string
	parent *Env
	depth  int

	// anonymous slots hold intermediate values and match no name
	anonymous bool
}

// Empty returns the empty environment.
func Empty() *Env {
	return nil
}

// NewEnv returns an environment holding names, names[0] on top.
func NewEnv(names ...string) *Env {
	var env *Env
	for i := len(names) - 1; i >= 0; i-- {
		env = env.Extend(names[i])
	}
	return env
}

// Extend returns env with name bound on top.
func (env *Env) Extend(name string) *Env {
	return &Env{
		name:   name,
		parent: env,
		depth:  env.Len() + 1,
	}
}

// Reserve returns env with an unnamed slot on top, standing for a value
// that is on the stack but not bound to a name, such as the left operand
// of a binary operator while the right one runs.
func (env *Env) Reserve() *Env {
	return &Env{
		parent:    env,
		depth:     env.Len() + 1,
		anonymous: true,
	}
}

// Len is the stack depth this environment describes.
func (env *Env) Len() int {
	if env == nil {
		return 0
	}
	return env.depth
}

// Lookup returns the offset of the closest binding of name.
func (env *Env) Lookup(name string) (int, bool) {
	offset := 0
	for e := env; e != nil; e = e.parent {
		if !e.anonymous && e.name == name {
			return offset, true
		}
		offset++
	}
	return -1, false
}

// Names returns the bound names, top of stack first. Reserved slots are
// listed as "_".
func (env *Env) Names() []string {
	names := make([]string, 0, env.Len())
	for e := env; e != nil; e = e.parent {
		if e.anonymous {
			names = append(names, "_")
			continue
		}
		names = append(names, e.name)
	}
	return names
}

func (env *Env) String() string {
	return "[" + strings.Join(env.Names(), ", ") + "]"
}
