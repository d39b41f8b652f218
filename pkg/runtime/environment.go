package runtime

import (
	"fmt"
	"sort"
)

// Environment is one scope frame in the lexical chain. A frame may carry
// `global`/`nonlocal` tags that redirect writes out of the frame; reads
// always scan innermost-first.
type Environment struct {
	values   map[string]Value
	parent   *Environment
	isModule bool
	globals  map[string]struct{}
	nonlocal map[string]struct{}
}

// NewEnvironment creates a new frame, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// NewModuleEnvironment creates the module-level frame `global` declarations
// resolve to. Its parent is the sandbox frame holding builtins and modules.
func NewModuleEnvironment(parent *Environment) *Environment {
	env := NewEnvironment(parent)
	env.isModule = true
	return env
}

// Parent exposes the lexical parent (nil at the outermost frame).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Snapshot returns a copy of the current frame's bindings.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Keys returns the frame's binding names in sorted order.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DeclareGlobal tags names so writes in this frame land at module level.
func (e *Environment) DeclareGlobal(names []string) {
	if e.globals == nil {
		e.globals = make(map[string]struct{})
	}
	for _, n := range names {
		e.globals[n] = struct{}{}
	}
}

// DeclareNonlocal tags names so writes in this frame land in the nearest
// enclosing function frame that already binds them.
func (e *Environment) DeclareNonlocal(names []string) error {
	for _, n := range names {
		if e.findNonlocalTarget(n) == nil {
			return fmt.Errorf("no binding for nonlocal '%s' found", n)
		}
	}
	if e.nonlocal == nil {
		e.nonlocal = make(map[string]struct{})
	}
	for _, n := range names {
		e.nonlocal[n] = struct{}{}
	}
	return nil
}

func (e *Environment) moduleFrame() *Environment {
	for env := e; env != nil; env = env.parent {
		if env.isModule {
			return env
		}
	}
	return nil
}

func (e *Environment) findNonlocalTarget(name string) *Environment {
	for env := e.parent; env != nil && !env.isModule; env = env.parent {
		if _, ok := env.values[name]; ok {
			return env
		}
	}
	return nil
}

// Define binds a name, honoring the frame's global/nonlocal tags.
func (e *Environment) Define(name string, value Value) error {
	if _, ok := e.globals[name]; ok {
		target := e.moduleFrame()
		if target == nil {
			return fmt.Errorf("no module scope for global '%s'", name)
		}
		target.values[name] = value
		return nil
	}
	if _, ok := e.nonlocal[name]; ok {
		target := e.findNonlocalTarget(name)
		if target == nil {
			return fmt.Errorf("no binding for nonlocal '%s' found", name)
		}
		target.values[name] = value
		return nil
	}
	e.values[name] = value
	return nil
}

// Get retrieves a binding, scanning innermost to outermost.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("name '%s' is not defined", name)
}

// Has reports whether any visible frame binds the name.
func (e *Environment) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// Delete removes a binding from the innermost frame holding it.
func (e *Environment) Delete(name string) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			delete(env.values, name)
			return nil
		}
	}
	return fmt.Errorf("name '%s' is not defined", name)
}

// Extend returns a fresh child frame.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}
