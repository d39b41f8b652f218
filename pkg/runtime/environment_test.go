package runtime

import (
	"testing"
)

func TestEnvironmentDefineAndGet(t *testing.T) {
	env := NewEnvironment(nil)
	if err := env.Define("x", NewInt(1)); err != nil {
		t.Fatalf("define: %v", err)
	}
	v, err := env.Get("x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if iv := v.(IntValue); iv.Val.Int64() != 1 {
		t.Fatalf("expected 1, got %s", Repr(v))
	}
}

func TestEnvironmentGetScansParents(t *testing.T) {
	parent := NewEnvironment(nil)
	_ = parent.Define("x", NewInt(1))
	child := NewEnvironment(parent)

	v, err := child.Get("x")
	if err != nil {
		t.Fatalf("get through parent: %v", err)
	}
	if v.(IntValue).Val.Int64() != 1 {
		t.Fatalf("expected parent binding, got %s", Repr(v))
	}
}

func TestEnvironmentShadowing(t *testing.T) {
	parent := NewEnvironment(nil)
	_ = parent.Define("x", NewInt(1))
	child := NewEnvironment(parent)
	_ = child.Define("x", NewInt(2))

	v, _ := child.Get("x")
	if v.(IntValue).Val.Int64() != 2 {
		t.Fatalf("expected inner binding to shadow, got %s", Repr(v))
	}
	v, _ = parent.Get("x")
	if v.(IntValue).Val.Int64() != 1 {
		t.Fatalf("parent binding clobbered: %s", Repr(v))
	}
}

func TestEnvironmentGetUnknownName(t *testing.T) {
	env := NewEnvironment(nil)
	if _, err := env.Get("missing"); err == nil {
		t.Fatalf("expected error for undefined name")
	}
}

func TestGlobalDeclarationRedirectsWrites(t *testing.T) {
	builtins := NewEnvironment(nil)
	module := NewModuleEnvironment(builtins)
	_ = module.Define("count", NewInt(0))

	fn := NewEnvironment(module)
	fn.DeclareGlobal([]string{"count"})
	if err := fn.Define("count", NewInt(5)); err != nil {
		t.Fatalf("global write: %v", err)
	}

	if len(fn.Snapshot()) != 0 {
		t.Fatalf("global write landed in the function frame")
	}
	v, _ := module.Get("count")
	if v.(IntValue).Val.Int64() != 5 {
		t.Fatalf("module frame not updated, got %s", Repr(v))
	}
}

func TestNonlocalDeclarationRedirectsWrites(t *testing.T) {
	builtins := NewEnvironment(nil)
	module := NewModuleEnvironment(builtins)
	outer := NewEnvironment(module)
	_ = outer.Define("x", NewInt(1))

	inner := NewEnvironment(outer)
	if err := inner.DeclareNonlocal([]string{"x"}); err != nil {
		t.Fatalf("declare nonlocal: %v", err)
	}
	if err := inner.Define("x", NewInt(9)); err != nil {
		t.Fatalf("nonlocal write: %v", err)
	}

	v, _ := outer.Get("x")
	if v.(IntValue).Val.Int64() != 9 {
		t.Fatalf("enclosing frame not updated, got %s", Repr(v))
	}
}

func TestNonlocalWithoutBindingFails(t *testing.T) {
	builtins := NewEnvironment(nil)
	module := NewModuleEnvironment(builtins)
	inner := NewEnvironment(NewEnvironment(module))
	if err := inner.DeclareNonlocal([]string{"ghost"}); err == nil {
		t.Fatalf("expected nonlocal declaration to fail for unbound name")
	}
}

func TestNonlocalDoesNotReachModuleFrame(t *testing.T) {
	builtins := NewEnvironment(nil)
	module := NewModuleEnvironment(builtins)
	_ = module.Define("x", NewInt(1))

	inner := NewEnvironment(NewEnvironment(module))
	if err := inner.DeclareNonlocal([]string{"x"}); err == nil {
		t.Fatalf("nonlocal must not resolve to the module frame")
	}
}

func TestEnvironmentDelete(t *testing.T) {
	env := NewEnvironment(nil)
	_ = env.Define("x", NewInt(1))
	if err := env.Delete("x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Get("x"); err == nil {
		t.Fatalf("expected deleted name to be gone")
	}
	if err := env.Delete("x"); err == nil {
		t.Fatalf("expected double delete to fail")
	}
}

func TestSnapshotCopiesFrame(t *testing.T) {
	env := NewEnvironment(nil)
	_ = env.Define("a", NewInt(1))
	snap := env.Snapshot()
	snap["a"] = NewInt(99)

	v, _ := env.Get("a")
	if v.(IntValue).Val.Int64() != 1 {
		t.Fatalf("snapshot mutation leaked into the frame")
	}
}

func TestKeysAreSorted(t *testing.T) {
	env := NewEnvironment(nil)
	_ = env.Define("b", NewInt(1))
	_ = env.Define("a", NewInt(2))
	keys := env.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
}
