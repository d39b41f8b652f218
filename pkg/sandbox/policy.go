// Package sandbox owns the security boundary of the interpreter: which
// guest modules are importable, and which builtins guest code may touch.
package sandbox

import (
	"fmt"
	"sort"
	"strings"

	"sandpiper/interpreter-go/pkg/runtime"
)

// osModules is the fixed OS-capability denylist. These names are rejected
// before the allowlist is even consulted.
var osModules = map[string]struct{}{
	"os":              {},
	"sys":             {},
	"io":              {},
	"subprocess":      {},
	"socket":          {},
	"shutil":          {},
	"pathlib":         {},
	"tempfile":        {},
	"glob":            {},
	"importlib":       {},
	"builtins":        {},
	"ctypes":          {},
	"signal":          {},
	"threading":       {},
	"multiprocessing": {},
	"inspect":         {},
	"gc":              {},
}

// Policy is the per-run sandbox configuration. It is read-only once built,
// so concurrent driver runs may share one Policy.
type Policy struct {
	// AllowedModules is the caller-supplied import allowlist.
	AllowedModules map[string]struct{}
	// RestrictOS keeps file-opening primitives out of the builtin table.
	// It defaults to true; callers must opt out explicitly.
	RestrictOS bool
}

// NewPolicy builds a policy from an allowlist of module names.
func NewPolicy(allowed []string) *Policy {
	p := &Policy{
		AllowedModules: make(map[string]struct{}, len(allowed)),
		RestrictOS:     true,
	}
	for _, name := range allowed {
		p.AllowedModules[name] = struct{}{}
	}
	return p
}

// IsOSModule reports whether the name is on the fixed denylist.
func IsOSModule(name string) bool {
	_, ok := osModules[name]
	return ok
}

// SafeImport resolves a module name against the policy: the OS denylist is
// checked first regardless of the allowlist, then the allowlist, then the
// registry of preloaded modules.
func (p *Policy) SafeImport(name string) (*runtime.ModuleValue, error) {
	if IsOSModule(name) {
		return nil, fmt.Errorf("Import of OS module '%s' is not allowed in sandbox", name)
	}
	if _, ok := p.AllowedModules[name]; !ok {
		return nil, fmt.Errorf("Import of module '%s' is not allowed. Allowed modules: %s", name, p.allowedList())
	}
	mod, ok := registeredModules[name]
	if !ok {
		return nil, fmt.Errorf("Module '%s' is allowed but not available in sandbox", name)
	}
	return mod(), nil
}

func (p *Policy) allowedList() string {
	if len(p.AllowedModules) == 0 {
		return "none"
	}
	names := make([]string, 0, len(p.AllowedModules))
	for name := range p.AllowedModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
