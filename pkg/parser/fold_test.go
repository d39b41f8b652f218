package parser_test

import (
	"math/big"
	"testing"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/parser"
)

func foldExpr(t *testing.T, expr ast.Expression) ast.Expression {
	t.Helper()
	mod := parser.FoldConstants(ast.Mod(ast.ExprS(expr)))
	return mod.Body[0].(*ast.ExpressionStatement).Expression
}

func wantFoldedInt(t *testing.T, expr ast.Expression, expected int64) {
	t.Helper()
	folded := foldExpr(t, expr)
	lit, ok := folded.(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("expected folded integer, got %T", folded)
	}
	if lit.Value.Cmp(big.NewInt(expected)) != 0 {
		t.Fatalf("expected %d, got %s", expected, lit.Value.String())
	}
}

func wantUnfolded(t *testing.T, expr ast.Expression) {
	t.Helper()
	folded := foldExpr(t, expr)
	if _, ok := folded.(*ast.BinaryExpression); !ok {
		t.Fatalf("expected expression to stay unfolded, got %T", folded)
	}
}

func TestFoldIntegerArithmetic(t *testing.T) {
	wantFoldedInt(t, ast.Bin("+", ast.Int(2), ast.Bin("*", ast.Int(3), ast.Int(4))), 14)
	wantFoldedInt(t, ast.Bin("-", ast.Int(10), ast.Int(3)), 7)
	wantFoldedInt(t, ast.Bin("**", ast.Int(2), ast.Int(10)), 1024)
	wantFoldedInt(t, ast.Bin("<<", ast.Int(1), ast.Int(8)), 256)
	wantFoldedInt(t, ast.Bin("%", ast.Int(10), ast.Int(3)), 1)
}

func TestFoldLeavesTrueDivisionToRuntime(t *testing.T) {
	// Integer "/" yields a float at runtime; folding keeps that path.
	wantUnfolded(t, ast.Bin("/", ast.Int(6), ast.Int(3)))
}

func TestFoldLeavesDivisionByZero(t *testing.T) {
	wantUnfolded(t, ast.Bin("//", ast.Int(1), ast.Int(0)))
	wantUnfolded(t, ast.Bin("%", ast.Int(1), ast.Int(0)))
}

func TestFoldNegativeFloorDivLeftToRuntime(t *testing.T) {
	// Negative operands carry sign semantics the runtime owns.
	wantUnfolded(t, ast.Bin("//", ast.Un("-", ast.Int(7)), ast.Int(2)))
}

func TestFoldHugeResultsLeftAlone(t *testing.T) {
	wantUnfolded(t, ast.Bin("**", ast.Int(2), ast.Int(100000)))
	wantUnfolded(t, ast.Bin("<<", ast.Int(1), ast.Int(100000)))
}

func TestFoldFloatArithmetic(t *testing.T) {
	folded := foldExpr(t, ast.Bin("*", ast.Flt(1.5), ast.Flt(2.0)))
	lit, ok := folded.(*ast.FloatLiteral)
	if !ok {
		t.Fatalf("expected folded float, got %T", folded)
	}
	if lit.Value != 3.0 {
		t.Fatalf("expected 3.0, got %v", lit.Value)
	}
}

func TestFoldStringConcat(t *testing.T) {
	folded := foldExpr(t, ast.Bin("+", ast.Str("ab"), ast.Str("cd")))
	lit, ok := folded.(*ast.StringLiteral)
	if !ok || lit.Value != "abcd" {
		t.Fatalf("expected folded string abcd, got %#v", folded)
	}
}

func TestFoldStringRepeat(t *testing.T) {
	folded := foldExpr(t, ast.Bin("*", ast.Str("ab"), ast.Int(3)))
	lit, ok := folded.(*ast.StringLiteral)
	if !ok || lit.Value != "ababab" {
		t.Fatalf("expected folded repeat, got %#v", folded)
	}
}

func TestFoldUnaryMinus(t *testing.T) {
	folded := foldExpr(t, ast.Un("-", ast.Int(5)))
	lit, ok := folded.(*ast.IntegerLiteral)
	if !ok || lit.Value.Int64() != -5 {
		t.Fatalf("expected -5, got %#v", folded)
	}
}

func TestFoldInsideFunctionBody(t *testing.T) {
	mod := parser.FoldConstants(ast.Mod(
		ast.Def("f", ast.Params(),
			ast.Ret(ast.Bin("+", ast.Int(1), ast.Int(2))),
		),
	))
	fn := mod.Body[0].(*ast.FunctionDefinition)
	ret := fn.Body[0].(*ast.ReturnStatement)
	if _, ok := ret.Value.(*ast.IntegerLiteral); !ok {
		t.Fatalf("expected folded return value, got %T", ret.Value)
	}
}

func TestFoldLeavesNamesAlone(t *testing.T) {
	wantUnfolded(t, ast.Bin("+", ast.ID("x"), ast.Int(1)))
}
