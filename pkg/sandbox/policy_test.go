package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandpiper/interpreter-go/pkg/runtime"
)

func TestSafeImportAllowed(t *testing.T) {
	policy := NewPolicy([]string{"math"})
	mod, err := policy.SafeImport("math")
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, "math", mod.Name)
	assert.Contains(t, mod.Attributes, "sqrt")
}

func TestSafeImportNotOnAllowlist(t *testing.T) {
	policy := NewPolicy([]string{"math"})
	_, err := policy.SafeImport("json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Import of module 'json' is not allowed")
	assert.Contains(t, err.Error(), "math")
}

func TestSafeImportEmptyAllowlistMessage(t *testing.T) {
	policy := NewPolicy(nil)
	_, err := policy.SafeImport("math")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Allowed modules: none")
}

func TestSafeImportOSModuleDeniedEvenWhenAllowed(t *testing.T) {
	// The denylist wins over the allowlist.
	policy := NewPolicy([]string{"os"})
	_, err := policy.SafeImport("os")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Import of OS module 'os' is not allowed in sandbox")
}

func TestSafeImportAllowedButUnavailable(t *testing.T) {
	policy := NewPolicy([]string{"collections"})
	_, err := policy.SafeImport("collections")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed but not available")
}

func TestSafeImportReturnsFreshModule(t *testing.T) {
	policy := NewPolicy([]string{"math"})
	first, err := policy.SafeImport("math")
	require.NoError(t, err)
	second, err := policy.SafeImport("math")
	require.NoError(t, err)

	first.Attributes["pi"] = runtime.StringValue{Val: "poisoned"}
	assert.IsType(t, runtime.FloatValue{}, second.Attributes["pi"])
}

func TestIsOSModule(t *testing.T) {
	for _, name := range []string{"os", "sys", "subprocess", "socket", "ctypes", "importlib"} {
		assert.True(t, IsOSModule(name), name)
	}
	assert.False(t, IsOSModule("math"))
	assert.False(t, IsOSModule("json"))
}

func TestRegisteredModuleNames(t *testing.T) {
	names := RegisteredModuleNames()
	for _, want := range []string{"math", "json", "random", "re", "datetime", "itertools"} {
		assert.Contains(t, names, want)
	}
	for _, name := range names {
		assert.False(t, IsOSModule(name), "registry must never hold an OS module: %s", name)
	}
}

func TestParsePolicyConfig(t *testing.T) {
	cfg, err := ParsePolicyConfig([]byte(`
allowed_modules:
  - math
  - json
timeout_seconds: 2.5
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"math", "json"}, cfg.AllowedModules)
	assert.Equal(t, 2.5, cfg.TimeoutSeconds)
	assert.Nil(t, cfg.RestrictOS)
}

func TestParsePolicyConfigDefaultsTimeout(t *testing.T) {
	cfg, err := ParsePolicyConfig([]byte("allowed_modules: [math]\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
}

func TestParsePolicyConfigRejectsNegativeTimeout(t *testing.T) {
	_, err := ParsePolicyConfig([]byte("timeout_seconds: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_seconds must be non-negative")
}

func TestParsePolicyConfigRejectsOSModule(t *testing.T) {
	_, err := ParsePolicyConfig([]byte("allowed_modules: [math, subprocess]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subprocess")
}

func TestParsePolicyConfigRejectsMalformedYAML(t *testing.T) {
	_, err := ParsePolicyConfig([]byte("allowed_modules: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing policy file")
}

func TestPolicyConfigToPolicy(t *testing.T) {
	relaxed := false
	cfg := &PolicyConfig{AllowedModules: []string{"math"}, RestrictOS: &relaxed}
	policy := cfg.Policy()
	assert.False(t, policy.RestrictOS)
	_, ok := policy.AllowedModules["math"]
	assert.True(t, ok)

	defaulted := (&PolicyConfig{}).Policy()
	assert.True(t, defaulted.RestrictOS)
}

func TestIsinstanceUserClasses(t *testing.T) {
	base := &runtime.ClassValue{Name: "Base"}
	derived := &runtime.ClassValue{Name: "Derived", Bases: []*runtime.ClassValue{base}}
	inst := &runtime.InstanceValue{Class: derived}

	assert.True(t, Isinstance(inst, derived))
	assert.True(t, Isinstance(inst, base))
	assert.False(t, Isinstance(inst, &runtime.ClassValue{Name: "Other"}))
}

func TestIsinstanceBuiltinTypes(t *testing.T) {
	table := NewBuiltins(NewPolicy(nil))
	assert.True(t, Isinstance(runtime.NewInt(1), table["int"]))
	assert.True(t, Isinstance(runtime.StringValue{Val: "x"}, table["str"]))
	assert.False(t, Isinstance(runtime.StringValue{Val: "x"}, table["int"]))
	assert.True(t, Isinstance(runtime.BoolValue{Val: true}, table["bool"]))
}

func TestBuiltinsTableShape(t *testing.T) {
	table := NewBuiltins(NewPolicy(nil))
	for _, name := range []string{"print", "len", "range", "isinstance", "ValueError", "ExceptionGroup"} {
		assert.Contains(t, table, name)
	}
	assert.NotContains(t, table, "open")
	assert.NotContains(t, table, "eval")
	assert.NotContains(t, table, "exec")
	assert.NotContains(t, table, "__import__")
}
