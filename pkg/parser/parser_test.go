package parser_test

import (
	"math/big"
	"strings"
	"testing"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/parser"
)

func parseSource(t *testing.T, source string) *ast.Module {
	t.Helper()
	mp, err := parser.NewModuleParser()
	if err != nil {
		t.Fatalf("NewModuleParser: %v", err)
	}
	t.Cleanup(func() { mp.Close() })

	mod, err := mp.ParseModule([]byte(source))
	if err != nil {
		t.Fatalf("ParseModule returned error: %v", err)
	}
	if mod == nil {
		t.Fatalf("ParseModule returned nil module")
	}
	return mod
}

func parseError(t *testing.T, source string) error {
	t.Helper()
	mp, err := parser.NewModuleParser()
	if err != nil {
		t.Fatalf("NewModuleParser: %v", err)
	}
	t.Cleanup(func() { mp.Close() })

	if _, err := mp.ParseModule([]byte(source)); err != nil {
		return err
	}
	t.Fatalf("expected parse of %q to fail", source)
	return nil
}

func onlyStatement(t *testing.T, mod *ast.Module) ast.Statement {
	t.Helper()
	if len(mod.Body) != 1 {
		t.Fatalf("expected single statement, got %d", len(mod.Body))
	}
	return mod.Body[0]
}

func onlyExpression(t *testing.T, mod *ast.Module) ast.Expression {
	t.Helper()
	stmt, ok := onlyStatement(t, mod).(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", mod.Body[0])
	}
	return stmt.Expression
}

func TestParseIgnoresComments(t *testing.T) {
	mod := parseSource(t, `
# leading comment
x = 1  # trailing comment
# another
`)
	assign, ok := onlyStatement(t, mod).(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment, got %T", mod.Body[0])
	}
	if len(assign.Targets) != 1 {
		t.Fatalf("expected one target, got %d", len(assign.Targets))
	}
}

func TestParseChainedAssignmentFlattens(t *testing.T) {
	mod := parseSource(t, "a = b = c = 5\n")
	assign, ok := onlyStatement(t, mod).(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment, got %T", mod.Body[0])
	}
	if len(assign.Targets) != 3 {
		t.Fatalf("expected three targets, got %d", len(assign.Targets))
	}
	for i, want := range []string{"a", "b", "c"} {
		id, ok := assign.Targets[i].(*ast.Identifier)
		if !ok || id.Name != want {
			t.Fatalf("target %d: expected identifier %q, got %#v", i, want, assign.Targets[i])
		}
	}
	lit, ok := assign.Value.(*ast.IntegerLiteral)
	if !ok || lit.Value.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected integer 5 as value, got %#v", assign.Value)
	}
}

func TestParseAnnotationOnlyStatementDropped(t *testing.T) {
	mod := parseSource(t, "x: int\ny = 2\n")
	if len(mod.Body) != 1 {
		t.Fatalf("expected the bare annotation to be dropped, got %d statements", len(mod.Body))
	}
	if _, ok := mod.Body[0].(*ast.Assignment); !ok {
		t.Fatalf("expected assignment, got %T", mod.Body[0])
	}
}

func TestParseAugmentedAssignment(t *testing.T) {
	mod := parseSource(t, "total //= 2\n")
	aug, ok := onlyStatement(t, mod).(*ast.AugmentedAssignment)
	if !ok {
		t.Fatalf("expected augmented assignment, got %T", mod.Body[0])
	}
	if aug.Operator != "//" {
		t.Fatalf("expected operator //, got %q", aug.Operator)
	}
}

func TestParseElifChainNests(t *testing.T) {
	mod := parseSource(t, `
if a:
    x = 1
elif b:
    x = 2
elif c:
    x = 3
else:
    x = 4
`)
	outer, ok := onlyStatement(t, mod).(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if statement, got %T", mod.Body[0])
	}
	second, ok := outer.Else[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected nested if for first elif, got %T", outer.Else[0])
	}
	third, ok := second.Else[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected nested if for second elif, got %T", second.Else[0])
	}
	if len(third.Else) != 1 {
		t.Fatalf("expected final else on innermost if, got %d statements", len(third.Else))
	}
	if _, ok := third.Else[0].(*ast.Assignment); !ok {
		t.Fatalf("expected assignment in final else, got %T", third.Else[0])
	}
}

func TestParseParameterProtocol(t *testing.T) {
	mod := parseSource(t, "def f(a, b=1, /, c, *rest, d, e=2, **extra):\n    pass\n")
	fn, ok := onlyStatement(t, mod).(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("expected function definition, got %T", mod.Body[0])
	}
	params := fn.Params
	if len(params.Positional) != 3 {
		t.Fatalf("expected 3 positional params, got %d", len(params.Positional))
	}
	if params.Positional[1].Name != "b" || params.Positional[1].Default == nil {
		t.Fatalf("expected b with default, got %#v", params.Positional[1])
	}
	if params.VarArg == nil || params.VarArg.Name != "rest" {
		t.Fatalf("expected *rest, got %#v", params.VarArg)
	}
	if len(params.KwOnly) != 2 || params.KwOnly[0].Name != "d" || params.KwOnly[1].Name != "e" {
		t.Fatalf("expected keyword-only d and e, got %#v", params.KwOnly)
	}
	if params.KwOnly[1].Default == nil {
		t.Fatalf("expected default on e")
	}
	if params.KwArg == nil || params.KwArg.Name != "extra" {
		t.Fatalf("expected **extra, got %#v", params.KwArg)
	}
}

func TestParseBareStarSwitchesToKwOnly(t *testing.T) {
	mod := parseSource(t, "def f(a, *, b):\n    pass\n")
	fn := onlyStatement(t, mod).(*ast.FunctionDefinition)
	if fn.Params.VarArg != nil {
		t.Fatalf("bare star must not produce a vararg: %#v", fn.Params.VarArg)
	}
	if len(fn.Params.KwOnly) != 1 || fn.Params.KwOnly[0].Name != "b" {
		t.Fatalf("expected keyword-only b, got %#v", fn.Params.KwOnly)
	}
}

func TestParseGeneratorDetection(t *testing.T) {
	mod := parseSource(t, "def gen():\n    yield 1\n\ndef plain():\n    return 1\n")
	gen := mod.Body[0].(*ast.FunctionDefinition)
	plain := mod.Body[1].(*ast.FunctionDefinition)
	if !gen.IsGenerator {
		t.Fatalf("expected gen to be flagged as generator")
	}
	if plain.IsGenerator {
		t.Fatalf("plain function wrongly flagged as generator")
	}
}

func TestParseAsyncFunction(t *testing.T) {
	mod := parseSource(t, "async def fetch():\n    return 1\n")
	fn := onlyStatement(t, mod).(*ast.FunctionDefinition)
	if !fn.IsAsync {
		t.Fatalf("expected async function definition")
	}
}

func TestParseExceptClauseForms(t *testing.T) {
	mod := parseSource(t, `
try:
    x = 1
except ValueError:
    pass
except (KeyError, IndexError) as exc:
    pass
except:
    pass
`)
	try := onlyStatement(t, mod).(*ast.TryStatement)
	if len(try.Handlers) != 3 {
		t.Fatalf("expected three handlers, got %d", len(try.Handlers))
	}
	if len(try.Handlers[0].Types) != 1 || try.Handlers[0].Name != "" {
		t.Fatalf("handler 0: expected single type without alias, got %#v", try.Handlers[0])
	}
	if len(try.Handlers[1].Types) != 2 || try.Handlers[1].Name != "exc" {
		t.Fatalf("handler 1: expected two types with alias exc, got %#v", try.Handlers[1])
	}
	if len(try.Handlers[2].Types) != 0 {
		t.Fatalf("handler 2: expected bare except, got %#v", try.Handlers[2])
	}
	if try.IsGroup {
		t.Fatalf("plain except must not set the group flag")
	}
}

func TestParseExceptStar(t *testing.T) {
	mod := parseSource(t, `
try:
    x = 1
except* ValueError as errs:
    pass
finally:
    pass
`)
	try := onlyStatement(t, mod).(*ast.TryStatement)
	if !try.IsGroup {
		t.Fatalf("expected except* to set the group flag")
	}
	if try.Handlers[0].Name != "errs" {
		t.Fatalf("expected alias errs, got %q", try.Handlers[0].Name)
	}
	if len(try.Finally) != 1 {
		t.Fatalf("expected finally body, got %d statements", len(try.Finally))
	}
}

func TestParseMixedExceptFormsRejected(t *testing.T) {
	err := parseError(t, `
try:
    x = 1
except ValueError:
    pass
except* KeyError:
    pass
`)
	if !strings.Contains(err.Error(), "except") {
		t.Fatalf("expected mixed handler error, got %v", err)
	}
}

func TestParseMatchStatement(t *testing.T) {
	mod := parseSource(t, `
match point:
    case (0, 0):
        kind = "origin"
    case (x, y) if x == y:
        kind = "diagonal"
    case Point(x=0):
        kind = "on axis"
    case [first, *rest]:
        kind = "list"
    case {"op": name, **args}:
        kind = "mapping"
    case 1 | 2 | 3:
        kind = "small"
    case _:
        kind = "other"
`)
	match := onlyStatement(t, mod).(*ast.MatchStatement)
	if len(match.Cases) != 7 {
		t.Fatalf("expected seven cases, got %d", len(match.Cases))
	}

	seq, ok := match.Cases[0].Pattern.(*ast.SequencePattern)
	if !ok || len(seq.Elements) != 2 {
		t.Fatalf("case 0: expected 2-element sequence pattern, got %#v", match.Cases[0].Pattern)
	}
	if _, ok := seq.Elements[0].(*ast.ValuePattern); !ok {
		t.Fatalf("case 0: expected value pattern element, got %T", seq.Elements[0])
	}

	if match.Cases[1].Guard == nil {
		t.Fatalf("case 1: expected guard expression")
	}

	cls, ok := match.Cases[2].Pattern.(*ast.ClassPattern)
	if !ok || len(cls.Keyword) != 1 || cls.Keyword[0].Name != "x" {
		t.Fatalf("case 2: expected class pattern with keyword x, got %#v", match.Cases[2].Pattern)
	}

	list, ok := match.Cases[3].Pattern.(*ast.SequencePattern)
	if !ok || len(list.Elements) != 2 {
		t.Fatalf("case 3: expected sequence pattern, got %#v", match.Cases[3].Pattern)
	}
	star, ok := list.Elements[1].(*ast.StarPattern)
	if !ok || star.Name != "rest" {
		t.Fatalf("case 3: expected *rest, got %#v", list.Elements[1])
	}

	mapping, ok := match.Cases[4].Pattern.(*ast.MappingPattern)
	if !ok || len(mapping.Entries) != 1 || mapping.Rest != "args" {
		t.Fatalf("case 4: expected mapping pattern with rest args, got %#v", match.Cases[4].Pattern)
	}

	or, ok := match.Cases[5].Pattern.(*ast.OrPattern)
	if !ok || len(or.Alternatives) != 3 {
		t.Fatalf("case 5: expected three or-alternatives, got %#v", match.Cases[5].Pattern)
	}

	if _, ok := match.Cases[6].Pattern.(*ast.WildcardPattern); !ok {
		t.Fatalf("case 6: expected wildcard, got %T", match.Cases[6].Pattern)
	}
}

func TestParseFormattedString(t *testing.T) {
	mod := parseSource(t, "f\"sum is {a + b}!\"\n")
	fs, ok := onlyExpression(t, mod).(*ast.FormattedString)
	if !ok {
		t.Fatalf("expected formatted string, got %T", onlyExpression(t, mod))
	}
	if len(fs.Parts) != 3 {
		t.Fatalf("expected three parts, got %d", len(fs.Parts))
	}
	first, ok := fs.Parts[0].(*ast.StringLiteral)
	if !ok || first.Value != "sum is " {
		t.Fatalf("expected leading literal, got %#v", fs.Parts[0])
	}
	if _, ok := fs.Parts[1].(*ast.BinaryExpression); !ok {
		t.Fatalf("expected interpolated expression, got %T", fs.Parts[1])
	}
	last, ok := fs.Parts[2].(*ast.StringLiteral)
	if !ok || last.Value != "!" {
		t.Fatalf("expected trailing literal, got %#v", fs.Parts[2])
	}
}

func TestParseFormatSpecifierRejected(t *testing.T) {
	err := parseError(t, "f\"{x:>10}\"\n")
	if !strings.Contains(err.Error(), "format specifiers") {
		t.Fatalf("expected format specifier rejection, got %v", err)
	}
}

func TestParseStringEscapes(t *testing.T) {
	mod := parseSource(t, `s = "line\n\ttab \x41 é"`+"\n")
	assign := onlyStatement(t, mod).(*ast.Assignment)
	lit, ok := assign.Value.(*ast.StringLiteral)
	if !ok {
		t.Fatalf("expected string literal, got %T", assign.Value)
	}
	if lit.Value != "line\n\ttab A é" {
		t.Fatalf("unexpected decoded string %q", lit.Value)
	}
}

func TestParseRawString(t *testing.T) {
	mod := parseSource(t, `s = r"a\nb"`+"\n")
	assign := onlyStatement(t, mod).(*ast.Assignment)
	lit := assign.Value.(*ast.StringLiteral)
	if lit.Value != `a\nb` {
		t.Fatalf("raw string decoded escapes: %q", lit.Value)
	}
}

func TestParseConcatenatedStrings(t *testing.T) {
	mod := parseSource(t, `s = "ab" "cd"`+"\n")
	assign := onlyStatement(t, mod).(*ast.Assignment)
	lit, ok := assign.Value.(*ast.StringLiteral)
	if !ok || lit.Value != "abcd" {
		t.Fatalf("expected merged literal abcd, got %#v", assign.Value)
	}
}

func TestParseChainedComparison(t *testing.T) {
	mod := parseSource(t, "1 <= x < 10\n")
	cmp, ok := onlyExpression(t, mod).(*ast.CompareExpression)
	if !ok {
		t.Fatalf("expected compare expression, got %T", onlyExpression(t, mod))
	}
	if len(cmp.Operators) != 2 || cmp.Operators[0] != "<=" || cmp.Operators[1] != "<" {
		t.Fatalf("unexpected operators %v", cmp.Operators)
	}
	if len(cmp.Comparators) != 2 {
		t.Fatalf("expected two comparators, got %d", len(cmp.Comparators))
	}
}

func TestParseNotInAndIsNot(t *testing.T) {
	mod := parseSource(t, "a not in b\nc is not d\n")
	first := mod.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CompareExpression)
	if first.Operators[0] != "not in" {
		t.Fatalf("expected 'not in', got %q", first.Operators[0])
	}
	second := mod.Body[1].(*ast.ExpressionStatement).Expression.(*ast.CompareExpression)
	if second.Operators[0] != "is not" {
		t.Fatalf("expected 'is not', got %q", second.Operators[0])
	}
}

func TestParseSliceForms(t *testing.T) {
	mod := parseSource(t, "xs[1:5:2]\n")
	sub, ok := onlyExpression(t, mod).(*ast.SubscriptExpression)
	if !ok {
		t.Fatalf("expected subscript, got %T", onlyExpression(t, mod))
	}
	slice, ok := sub.Index.(*ast.SliceExpression)
	if !ok {
		t.Fatalf("expected slice index, got %T", sub.Index)
	}
	if slice.Low == nil || slice.High == nil || slice.Step == nil {
		t.Fatalf("expected all three slice bounds, got %#v", slice)
	}
}

func TestParseOpenEndedSlice(t *testing.T) {
	mod := parseSource(t, "xs[::-1]\n")
	sub := onlyExpression(t, mod).(*ast.SubscriptExpression)
	slice := sub.Index.(*ast.SliceExpression)
	if slice.Low != nil || slice.High != nil {
		t.Fatalf("expected open bounds, got %#v", slice)
	}
	if slice.Step == nil {
		t.Fatalf("expected step expression")
	}
}

func TestParseCallArguments(t *testing.T) {
	mod := parseSource(t, "f(1, name='x', *rest, **extra)\n")
	call, ok := onlyExpression(t, mod).(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call, got %T", onlyExpression(t, mod))
	}
	if len(call.Args) != 4 {
		t.Fatalf("expected four arguments, got %d", len(call.Args))
	}
	if call.Args[1].Name != "name" {
		t.Fatalf("expected keyword argument name, got %#v", call.Args[1])
	}
	if !call.Args[2].Star {
		t.Fatalf("expected *rest expansion")
	}
	if !call.Args[3].DoubleStar {
		t.Fatalf("expected **extra expansion")
	}
}

func TestParseBareGeneratorArgument(t *testing.T) {
	mod := parseSource(t, "sum(x * x for x in xs)\n")
	call := onlyExpression(t, mod).(*ast.CallExpression)
	if len(call.Args) != 1 {
		t.Fatalf("expected single argument, got %d", len(call.Args))
	}
	if _, ok := call.Args[0].Value.(*ast.GeneratorExpression); !ok {
		t.Fatalf("expected generator expression argument, got %T", call.Args[0].Value)
	}
}

func TestParseComprehensionClauses(t *testing.T) {
	mod := parseSource(t, "[x + y for x in xs if x for y in ys]\n")
	comp, ok := onlyExpression(t, mod).(*ast.ListComprehension)
	if !ok {
		t.Fatalf("expected list comprehension, got %T", onlyExpression(t, mod))
	}
	if len(comp.Clauses) != 2 {
		t.Fatalf("expected two for clauses, got %d", len(comp.Clauses))
	}
	if len(comp.Clauses[0].Conditions) != 1 {
		t.Fatalf("expected condition folded into first clause, got %#v", comp.Clauses[0])
	}
}

func TestParseImportForms(t *testing.T) {
	mod := parseSource(t, "import math, json as j\nfrom math import sqrt as root, pi\n")
	imp := mod.Body[0].(*ast.ImportStatement)
	if len(imp.Modules) != 2 || imp.Modules[1].As != "j" {
		t.Fatalf("unexpected import aliases %#v", imp.Modules)
	}
	from := mod.Body[1].(*ast.ImportFromStatement)
	if from.Module != "math" || len(from.Names) != 2 || from.Names[0].As != "root" {
		t.Fatalf("unexpected from-import %#v", from)
	}
}

func TestParseWildcardImportRejected(t *testing.T) {
	err := parseError(t, "from math import *\n")
	if !strings.Contains(err.Error(), "wildcard") {
		t.Fatalf("expected wildcard rejection, got %v", err)
	}
}

func TestParseRelativeImportRejected(t *testing.T) {
	err := parseError(t, "from . import thing\n")
	if !strings.Contains(err.Error(), "relative") {
		t.Fatalf("expected relative import rejection, got %v", err)
	}
}

func TestParseDecoratorRejected(t *testing.T) {
	err := parseError(t, "@wrap\ndef f():\n    pass\n")
	if !strings.Contains(err.Error(), "decorator") {
		t.Fatalf("expected decorator rejection, got %v", err)
	}
}

func TestParseSyntaxErrorReportsLocation(t *testing.T) {
	err := parseError(t, "def broken(:\n    pass\n")
	if !strings.Contains(err.Error(), "line") {
		t.Fatalf("expected location in syntax error, got %v", err)
	}
}

func TestParseWithItems(t *testing.T) {
	mod := parseSource(t, "with open() as f, lock:\n    pass\n")
	with := onlyStatement(t, mod).(*ast.WithStatement)
	if len(with.Items) != 2 {
		t.Fatalf("expected two with items, got %d", len(with.Items))
	}
	alias, ok := with.Items[0].Alias.(*ast.Identifier)
	if !ok || alias.Name != "f" {
		t.Fatalf("expected alias f, got %#v", with.Items[0].Alias)
	}
	if with.Items[1].Alias != nil {
		t.Fatalf("second item must have no alias")
	}
}

func TestParseSpansAreOneBased(t *testing.T) {
	mod := parseSource(t, "x = 1\ny = 2\n")
	second, ok := mod.Body[1].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected assignment, got %T", mod.Body[1])
	}
	span := second.NodeSpan()
	if span.Start.Line != 2 || span.Start.Column != 1 {
		t.Fatalf("unexpected span %#v", span)
	}
}
