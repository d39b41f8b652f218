package interpreter

import (
	"context"
	"strings"
	"testing"
	"time"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/runtime"
	"sandpiper/interpreter-go/pkg/sandbox"
)

func newTestInterpreter() *Interpreter {
	return New(context.Background(), sandbox.NewPolicy(nil))
}

func newDeadlineInterpreter(t *testing.T) (*Interpreter, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	return New(ctx, sandbox.NewPolicy(nil)), cancel
}

func evalModule(t *testing.T, mod *ast.Module) (runtime.Value, *Interpreter) {
	t.Helper()
	interp := New(context.Background(), sandbox.NewPolicy([]string{"math", "json"}))
	v, err := interp.EvaluateModule(mod)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	return v, interp
}

func evalFailure(t *testing.T, mod *ast.Module) error {
	t.Helper()
	interp := New(context.Background(), sandbox.NewPolicy(nil))
	if _, err := interp.EvaluateModule(mod); err != nil {
		return err
	}
	t.Fatalf("expected evaluation to fail")
	return nil
}

func wantInt(t *testing.T, v runtime.Value, expected int64) {
	t.Helper()
	iv, ok := v.(runtime.IntValue)
	if !ok {
		t.Fatalf("expected int, got %s (%s)", runtime.Repr(v), v.Kind())
	}
	if !iv.Val.IsInt64() || iv.Val.Int64() != expected {
		t.Fatalf("expected %d, got %s", expected, iv.Val.String())
	}
}

func wantString(t *testing.T, v runtime.Value, expected string) {
	t.Helper()
	sv, ok := v.(runtime.StringValue)
	if !ok {
		t.Fatalf("expected string, got %s", runtime.Repr(v))
	}
	if sv.Val != expected {
		t.Fatalf("expected %q, got %q", expected, sv.Val)
	}
}

func wantBool(t *testing.T, v runtime.Value, expected bool) {
	t.Helper()
	bv, ok := v.(runtime.BoolValue)
	if !ok {
		t.Fatalf("expected bool, got %s", runtime.Repr(v))
	}
	if bv.Val != expected {
		t.Fatalf("expected %v, got %v", expected, bv.Val)
	}
}

func wantIntList(t *testing.T, v runtime.Value, expected ...int64) {
	t.Helper()
	lv, ok := v.(*runtime.ListValue)
	if !ok {
		t.Fatalf("expected list, got %s", runtime.Repr(v))
	}
	if len(lv.Elements) != len(expected) {
		t.Fatalf("expected %d elements, got %s", len(expected), runtime.Repr(v))
	}
	for i, want := range expected {
		wantInt(t, lv.Elements[i], want)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("x"), ast.Bin("+", ast.Int(2), ast.Bin("*", ast.Int(3), ast.Int(4)))),
		ast.ExprS(ast.ID("x")),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 14)
}

func TestFloorDivisionAndModulo(t *testing.T) {
	mod := ast.Mod(
		ast.ExprS(ast.List(
			ast.Bin("//", ast.Int(-7), ast.Int(2)),
			ast.Bin("%", ast.Int(-7), ast.Int(2)),
			ast.Bin("//", ast.Int(7), ast.Int(-2)),
			ast.Bin("%", ast.Int(7), ast.Int(-2)),
		)),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, -4, 1, -4, -1)
}

func TestDivisionByZero(t *testing.T) {
	err := evalFailure(t, ast.Mod(ast.ExprS(ast.Bin("/", ast.Int(1), ast.Int(0)))))
	if !strings.Contains(err.Error(), "ZeroDivisionError") {
		t.Fatalf("expected ZeroDivisionError, got %v", err)
	}
}

func TestDefaultParameter(t *testing.T) {
	mod := ast.Mod(
		ast.Def("add", ast.Params(ast.P("x"), ast.PD("y", ast.Int(1))),
			ast.Ret(ast.Bin("+", ast.ID("x"), ast.ID("y"))),
		),
		ast.ExprS(ast.CallN("add", ast.Int(5))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 6)
}

func TestKeywordArguments(t *testing.T) {
	mod := ast.Mod(
		ast.Def("sub", ast.Params(ast.P("a"), ast.P("b")),
			ast.Ret(ast.Bin("-", ast.ID("a"), ast.ID("b"))),
		),
		ast.ExprS(ast.Call(ast.ID("sub"), ast.Kw("b", ast.Int(3)), ast.Kw("a", ast.Int(10)))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 7)
}

func TestVarArgsAndKwArgs(t *testing.T) {
	params := ast.NewParameterList(
		[]*ast.Parameter{ast.P("a")},
		ast.P("rest"),
		nil,
		ast.P("extra"),
	)
	mod := ast.Mod(
		ast.Def("collect", params,
			ast.Ret(ast.List(
				ast.ID("a"),
				ast.CallN("len", ast.ID("rest")),
				ast.CallN("len", ast.ID("extra")),
			)),
		),
		ast.ExprS(ast.Call(ast.ID("collect"),
			ast.Arg(ast.Int(1)), ast.Arg(ast.Int(2)), ast.Arg(ast.Int(3)),
			ast.Kw("flag", ast.Bool(true)),
		)),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 1, 2, 1)
}

func TestUnexpectedKeywordArgument(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Def("f", ast.Params(ast.P("a")), ast.Ret(ast.ID("a"))),
		ast.ExprS(ast.Call(ast.ID("f"), ast.Kw("b", ast.Int(1)))),
	))
	if !strings.Contains(err.Error(), "unexpected keyword argument") {
		t.Fatalf("expected keyword argument error, got %v", err)
	}
}

func TestMissingArgument(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Def("f", ast.Params(ast.P("a"), ast.P("b")), ast.Ret(ast.ID("a"))),
		ast.ExprS(ast.CallN("f", ast.Int(1))),
	))
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing argument error, got %v", err)
	}
}

func TestMissingArgumentsAllNamed(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Def("f", ast.Params(ast.P("a"), ast.P("b"), ast.P("c")), ast.Ret(ast.ID("a"))),
		ast.ExprS(ast.CallN("f")),
	))
	for _, want := range []string{"3 required", "'a'", "'b'", "'c'"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("binding error must name every unbound parameter, got %v", err)
		}
	}
}

func TestClosureNonlocal(t *testing.T) {
	mod := ast.Mod(
		ast.Def("counter", ast.Params(),
			ast.Assign(ast.ID("n"), ast.Int(0)),
			ast.Def("bump", ast.Params(),
				ast.Nonlocal("n"),
				ast.AugAssign(ast.ID("n"), "+", ast.Int(1)),
				ast.Ret(ast.ID("n")),
			),
			ast.Ret(ast.ID("bump")),
		),
		ast.Assign(ast.ID("bump"), ast.CallN("counter")),
		ast.ExprS(ast.CallN("bump")),
		ast.ExprS(ast.CallN("bump")),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 2)
}

func TestGlobalStatement(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("total"), ast.Int(0)),
		ast.Def("bump", ast.Params(),
			ast.Global("total"),
			ast.AugAssign(ast.ID("total"), "+", ast.Int(5)),
		),
		ast.ExprS(ast.CallN("bump")),
		ast.ExprS(ast.ID("total")),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 5)
}

func TestWhileElseAndBreak(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("hits"), ast.List()),
		ast.Assign(ast.ID("i"), ast.Int(0)),
		&ast.WhileStatement{
			Condition: ast.Cmp(ast.ID("i"), "<", ast.Int(10)),
			Body: []ast.Statement{
				ast.If(ast.Cmp(ast.ID("i"), "==", ast.Int(3)), ast.Brk()),
				ast.ExprS(ast.Call(ast.Attr(ast.ID("hits"), "append"), ast.Arg(ast.ID("i")))),
				ast.AugAssign(ast.ID("i"), "+", ast.Int(1)),
			},
			Else: []ast.Statement{
				ast.ExprS(ast.Call(ast.Attr(ast.ID("hits"), "append"), ast.Arg(ast.Int(99)))),
			},
		},
		ast.ExprS(ast.ID("hits")),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 0, 1, 2)
}

func TestForElseRunsWithoutBreak(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("seen"), ast.Int(0)),
		&ast.ForStatement{
			Target:   ast.ID("x"),
			Iterable: ast.CallN("range", ast.Int(3)),
			Body: []ast.Statement{
				ast.AugAssign(ast.ID("seen"), "+", ast.Int(1)),
			},
			Else: []ast.Statement{
				ast.AugAssign(ast.ID("seen"), "+", ast.Int(100)),
			},
		},
		ast.ExprS(ast.ID("seen")),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 103)
}

func TestChainedComparison(t *testing.T) {
	mod := ast.Mod(ast.ExprS(&ast.CompareExpression{
		Left:        ast.Int(1),
		Operators:   []string{"<", "<"},
		Comparators: []ast.Expression{ast.Int(2), ast.Int(3)},
	}))
	v, _ := evalModule(t, mod)
	wantBool(t, v, true)

	mod = ast.Mod(ast.ExprS(&ast.CompareExpression{
		Left:        ast.Int(1),
		Operators:   []string{"<", ">"},
		Comparators: []ast.Expression{ast.Int(2), ast.Int(5)},
	}))
	v, _ = evalModule(t, mod)
	wantBool(t, v, false)
}

func TestShortCircuitReturnsOperand(t *testing.T) {
	mod := ast.Mod(ast.ExprS(ast.Bin("or", ast.Str(""), ast.Str("fallback"))))
	v, _ := evalModule(t, mod)
	wantString(t, v, "fallback")

	mod = ast.Mod(ast.ExprS(ast.Bin("and", ast.Int(1), ast.Str("kept"))))
	v, _ = evalModule(t, mod)
	wantString(t, v, "kept")
}

func TestConditionalExpression(t *testing.T) {
	mod := ast.Mod(ast.ExprS(ast.Cond(ast.Bool(false), ast.Str("yes"), ast.Str("no"))))
	v, _ := evalModule(t, mod)
	wantString(t, v, "no")
}

func TestWalrusBindsInEnclosingScope(t *testing.T) {
	mod := ast.Mod(
		ast.ExprS(ast.Bin("+", ast.Walrus("n", ast.Int(20)), ast.Int(1))),
		ast.ExprS(ast.ID("n")),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 20)
}

func TestFormattedString(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("name"), ast.Str("world")),
		ast.ExprS(ast.NewFormattedString([]ast.Expression{
			ast.Str("hello "),
			ast.ID("name"),
			ast.Str("!"),
		})),
	)
	v, _ := evalModule(t, mod)
	wantString(t, v, "hello world!")
}

func TestListComprehensionWithCondition(t *testing.T) {
	mod := ast.Mod(ast.ExprS(ast.ListComp(
		ast.Bin("*", ast.ID("x"), ast.ID("x")),
		ast.CompFor(ast.ID("x"), ast.CallN("range", ast.Int(5)),
			ast.Cmp(ast.Bin("%", ast.ID("x"), ast.Int(2)), "==", ast.Int(0))),
	)))
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 0, 4, 16)
}

func TestDictComprehension(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("d"), ast.DictComp(
			ast.ID("x"), ast.Bin("*", ast.ID("x"), ast.Int(10)),
			ast.CompFor(ast.ID("x"), ast.CallN("range", ast.Int(3))),
		)),
		ast.ExprS(ast.Sub(ast.ID("d"), ast.Int(2))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 20)
}

func TestComprehensionScopeDoesNotLeak(t *testing.T) {
	mod := ast.Mod(
		ast.ExprS(ast.ListComp(ast.ID("x"),
			ast.CompFor(ast.ID("x"), ast.CallN("range", ast.Int(3))))),
		ast.ExprS(ast.CallN("len", ast.Str("ok"))),
	)
	_, interp := evalModule(t, mod)
	if interp.Globals().Has("x") {
		t.Fatalf("comprehension variable leaked into module scope")
	}
}

func TestSliceOperations(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("xs"), ast.List(ast.Int(0), ast.Int(1), ast.Int(2), ast.Int(3), ast.Int(4))),
		ast.ExprS(ast.Sub(ast.ID("xs"), ast.NewSliceExpression(ast.Int(1), ast.Int(4), nil))),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 1, 2, 3)

	mod = ast.Mod(
		ast.Assign(ast.ID("xs"), ast.List(ast.Int(0), ast.Int(1), ast.Int(2), ast.Int(3))),
		ast.ExprS(ast.Sub(ast.ID("xs"), ast.NewSliceExpression(nil, nil, ast.Int(-1)))),
	)
	v, _ = evalModule(t, mod)
	wantIntList(t, v, 3, 2, 1, 0)
}

func TestTupleUnpacking(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.Tup(ast.ID("a"), ast.ID("b"), ast.NewStarredExpression(ast.ID("rest"))),
			ast.List(ast.Int(1), ast.Int(2), ast.Int(3), ast.Int(4))),
		ast.ExprS(ast.List(ast.ID("a"), ast.ID("b"), ast.CallN("len", ast.ID("rest")))),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 1, 2, 2)
}

func TestUnpackingMismatch(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Assign(ast.Tup(ast.ID("a"), ast.ID("b")), ast.List(ast.Int(1))),
	))
	if !strings.Contains(err.Error(), "not enough values to unpack") {
		t.Fatalf("expected unpack error, got %v", err)
	}
}

func TestAugmentedAssignMutatesList(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("xs"), ast.List(ast.Int(1))),
		ast.Assign(ast.ID("ys"), ast.ID("xs")),
		ast.AugAssign(ast.ID("xs"), "+", ast.List(ast.Int(2))),
		ast.ExprS(ast.ID("ys")),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 1, 2)
}

func TestClassesAndInheritance(t *testing.T) {
	mod := ast.Mod(
		ast.Class("Animal", nil,
			ast.Def("__init__", ast.Params(ast.P("self"), ast.P("name")),
				ast.Assign(ast.Attr(ast.ID("self"), "name"), ast.ID("name")),
			),
			ast.Def("speak", ast.Params(ast.P("self")),
				ast.Ret(ast.Bin("+", ast.Attr(ast.ID("self"), "name"), ast.Str(" makes a sound"))),
			),
		),
		ast.Class("Dog", []ast.Expression{ast.ID("Animal")},
			ast.Def("speak", ast.Params(ast.P("self")),
				ast.Ret(ast.Bin("+", ast.Attr(ast.ID("self"), "name"), ast.Str(" barks"))),
			),
		),
		ast.Assign(ast.ID("d"), ast.CallN("Dog", ast.Str("Rex"))),
		ast.ExprS(ast.Call(ast.Attr(ast.ID("d"), "speak"))),
	)
	v, _ := evalModule(t, mod)
	wantString(t, v, "Rex barks")
}

func TestZeroArgSuper(t *testing.T) {
	mod := ast.Mod(
		ast.Class("Base", nil,
			ast.Def("describe", ast.Params(ast.P("self")),
				ast.Ret(ast.Str("base")),
			),
		),
		ast.Class("Child", []ast.Expression{ast.ID("Base")},
			ast.Def("describe", ast.Params(ast.P("self")),
				ast.Ret(ast.Bin("+", ast.Call(ast.Attr(ast.CallN("super"), "describe")), ast.Str("+child"))),
			),
		),
		ast.ExprS(ast.Call(ast.Attr(ast.CallN("Child"), "describe"))),
	)
	v, _ := evalModule(t, mod)
	wantString(t, v, "base+child")
}

func TestIsinstanceWithUserClasses(t *testing.T) {
	mod := ast.Mod(
		ast.Class("A", nil, ast.Pass()),
		ast.Class("B", []ast.Expression{ast.ID("A")}, ast.Pass()),
		ast.ExprS(ast.List(
			ast.CallN("isinstance", ast.CallN("B"), ast.ID("A")),
			ast.CallN("isinstance", ast.CallN("A"), ast.ID("B")),
		)),
	)
	v, _ := evalModule(t, mod)
	lv := v.(*runtime.ListValue)
	wantBool(t, lv.Elements[0], true)
	wantBool(t, lv.Elements[1], false)
}

func TestLambdaExpression(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("double"), ast.Lam(ast.Params(ast.P("x")), ast.Bin("*", ast.ID("x"), ast.Int(2)))),
		ast.ExprS(ast.CallN("double", ast.Int(21))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 42)
}

func TestRecursionLimit(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Def("loop", ast.Params(), ast.Ret(ast.CallN("loop"))),
		ast.ExprS(ast.CallN("loop")),
	))
	if !strings.Contains(err.Error(), "maximum recursion depth exceeded") {
		t.Fatalf("expected recursion error, got %v", err)
	}
}

func TestDeadlineStopsWhileLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	interp := New(ctx, sandbox.NewPolicy(nil))
	mod := ast.Mod(ast.While(ast.Bool(true), ast.Pass()))

	start := time.Now()
	_, err := interp.EvaluateModule(mod)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("loop outlived the deadline by too much: %v", elapsed)
	}
}

func TestImportAllowlist(t *testing.T) {
	mod := ast.Mod(
		ast.Import("math"),
		ast.ExprS(ast.Call(ast.Attr(ast.ID("math"), "sqrt"), ast.Arg(ast.Int(16)))),
	)
	v, _ := evalModule(t, mod)
	fv, ok := v.(runtime.FloatValue)
	if !ok || fv.Val != 4.0 {
		t.Fatalf("expected 4.0, got %s", runtime.Repr(v))
	}
}

func TestImportDenied(t *testing.T) {
	err := evalFailure(t, ast.Mod(ast.Import("socket")))
	if !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected denial message, got %v", err)
	}
	if !strings.Contains(err.Error(), "ImportError") {
		t.Fatalf("expected ImportError, got %v", err)
	}
}

func TestFromImport(t *testing.T) {
	mod := ast.Mod(
		ast.FromImport("math", "sqrt"),
		ast.ExprS(ast.CallN("sqrt", ast.Int(25))),
	)
	interp := New(context.Background(), sandbox.NewPolicy([]string{"math"}))
	v, err := interp.EvaluateModule(mod)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if fv, ok := v.(runtime.FloatValue); !ok || fv.Val != 5.0 {
		t.Fatalf("expected 5.0, got %s", runtime.Repr(v))
	}
}

func TestPrintCapturedToStdout(t *testing.T) {
	mod := ast.Mod(
		ast.ExprS(ast.CallN("print", ast.Str("hello"), ast.Int(1))),
		ast.ExprS(ast.Call(ast.ID("print"), ast.Arg(ast.Str("a")), ast.Arg(ast.Str("b")), ast.Kw("sep", ast.Str("-")))),
	)
	_, interp := evalModule(t, mod)
	if got := interp.Stdout(); got != "hello 1\na-b\n" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestAwaitCoroutine(t *testing.T) {
	mod := ast.Mod(
		ast.AsyncDef("answer", ast.Params(), ast.Ret(ast.Int(42))),
		ast.ExprS(ast.Await(ast.CallN("answer"))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 42)
}

func TestDoubleAwaitFails(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.AsyncDef("once", ast.Params(), ast.Ret(ast.Int(1))),
		ast.Assign(ast.ID("c"), ast.CallN("once")),
		ast.ExprS(ast.Await(ast.ID("c"))),
		ast.ExprS(ast.Await(ast.ID("c"))),
	))
	if !strings.Contains(err.Error(), "already awaited") {
		t.Fatalf("expected double-await error, got %v", err)
	}
}

func TestWithStatement(t *testing.T) {
	mod := ast.Mod(
		ast.Class("Tracker", nil,
			ast.Def("__init__", ast.Params(ast.P("self")),
				ast.Assign(ast.Attr(ast.ID("self"), "events"), ast.List()),
			),
			ast.Def("__enter__", ast.Params(ast.P("self")),
				ast.ExprS(ast.Call(ast.Attr(ast.Attr(ast.ID("self"), "events"), "append"), ast.Arg(ast.Str("enter")))),
				ast.Ret(ast.ID("self")),
			),
			ast.Def("__exit__", ast.Params(ast.P("self"), ast.P("et"), ast.P("ev"), ast.P("tb")),
				ast.ExprS(ast.Call(ast.Attr(ast.Attr(ast.ID("self"), "events"), "append"), ast.Arg(ast.Str("exit")))),
				ast.Ret(ast.Bool(false)),
			),
		),
		ast.Assign(ast.ID("tr"), ast.CallN("Tracker")),
		ast.With([]*ast.WithItem{ast.Item(ast.ID("tr"), ast.ID("h"))},
			ast.ExprS(ast.Call(ast.Attr(ast.Attr(ast.ID("h"), "events"), "append"), ast.Arg(ast.Str("body")))),
		),
		ast.ExprS(ast.CallN("len", ast.Attr(ast.ID("tr"), "events"))),
	)
	v, _ := evalModule(t, mod)
	wantInt(t, v, 3)
}

func TestDeleteStatement(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Assign(ast.ID("x"), ast.Int(1)),
		ast.Del(ast.ID("x")),
		ast.ExprS(ast.ID("x")),
	))
	if !strings.Contains(err.Error(), "NameError") {
		t.Fatalf("expected NameError after del, got %v", err)
	}
}

func TestAssertStatement(t *testing.T) {
	err := evalFailure(t, ast.Mod(
		ast.Assert(ast.Cmp(ast.Int(1), "==", ast.Int(2)), ast.Str("math broke")),
	))
	if !strings.Contains(err.Error(), "AssertionError") || !strings.Contains(err.Error(), "math broke") {
		t.Fatalf("expected assertion failure, got %v", err)
	}
}

func TestStringMethods(t *testing.T) {
	mod := ast.Mod(ast.ExprS(ast.List(
		ast.Call(ast.Attr(ast.Str("a,b,c"), "split"), ast.Arg(ast.Str(","))),
		ast.Call(ast.Attr(ast.Str("-"), "join"), ast.Arg(ast.List(ast.Str("x"), ast.Str("y")))),
		ast.Call(ast.Attr(ast.Str("Hello"), "upper")),
	)))
	v, _ := evalModule(t, mod)
	lv := v.(*runtime.ListValue)
	parts := lv.Elements[0].(*runtime.ListValue)
	if len(parts.Elements) != 3 {
		t.Fatalf("split produced %s", runtime.Repr(parts))
	}
	wantString(t, lv.Elements[1], "x-y")
	wantString(t, lv.Elements[2], "HELLO")
}

func TestSortWithKeyAndReverse(t *testing.T) {
	mod := ast.Mod(
		ast.Assign(ast.ID("xs"), ast.List(ast.Int(3), ast.Int(-1), ast.Int(2))),
		ast.ExprS(ast.Call(ast.Attr(ast.ID("xs"), "sort"),
			ast.Kw("key", ast.ID("abs")), ast.Kw("reverse", ast.Bool(true)))),
		ast.ExprS(ast.ID("xs")),
	)
	v, _ := evalModule(t, mod)
	wantIntList(t, v, 3, 2, -1)
}
