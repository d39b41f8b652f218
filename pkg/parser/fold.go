package parser

import (
	"math/big"
	"strings"

	"sandpiper/interpreter-go/pkg/ast"
)

// Folding limits keep precomputed literals from ballooning the tree.
const (
	foldMaxBits   = 512
	foldMaxRepeat = 4096
)

// FoldConstants precomputes literal-only subexpressions. Anything that
// could change behavior at run time, such as division by zero or huge
// results, stays untouched so it still surfaces as a guest error.
func FoldConstants(mod *ast.Module) *ast.Module {
	if mod == nil {
		return nil
	}
	foldStatements(mod.Body)
	return mod
}

func foldStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		foldStatement(stmt)
	}
}

func foldStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		s.Expression = foldExpression(s.Expression)
	case *ast.Assignment:
		s.Value = foldExpression(s.Value)
	case *ast.AugmentedAssignment:
		s.Value = foldExpression(s.Value)
	case *ast.ReturnStatement:
		s.Value = foldExpression(s.Value)
	case *ast.IfStatement:
		s.Condition = foldExpression(s.Condition)
		foldStatements(s.Body)
		foldStatements(s.Else)
	case *ast.WhileStatement:
		s.Condition = foldExpression(s.Condition)
		foldStatements(s.Body)
		foldStatements(s.Else)
	case *ast.ForStatement:
		s.Iterable = foldExpression(s.Iterable)
		foldStatements(s.Body)
		foldStatements(s.Else)
	case *ast.FunctionDefinition:
		for _, param := range s.Params.Positional {
			param.Default = foldExpression(param.Default)
		}
		for _, param := range s.Params.KwOnly {
			param.Default = foldExpression(param.Default)
		}
		foldStatements(s.Body)
	case *ast.ClassDefinition:
		foldStatements(s.Body)
	case *ast.TryStatement:
		foldStatements(s.Body)
		for _, handler := range s.Handlers {
			foldStatements(handler.Body)
		}
		foldStatements(s.Else)
		foldStatements(s.Finally)
	case *ast.RaiseStatement:
		s.Value = foldExpression(s.Value)
	case *ast.WithStatement:
		for _, item := range s.Items {
			item.Context = foldExpression(item.Context)
		}
		foldStatements(s.Body)
	case *ast.MatchStatement:
		s.Subject = foldExpression(s.Subject)
		for _, c := range s.Cases {
			c.Guard = foldExpression(c.Guard)
			foldStatements(c.Body)
		}
	case *ast.AssertStatement:
		s.Condition = foldExpression(s.Condition)
		s.Message = foldExpression(s.Message)
	}
}

func foldExpression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		e.Left = foldExpression(e.Left)
		e.Right = foldExpression(e.Right)
		if folded := foldBinary(e); folded != nil {
			return folded
		}
	case *ast.UnaryExpression:
		e.Operand = foldExpression(e.Operand)
		if folded := foldUnary(e); folded != nil {
			return folded
		}
	case *ast.CompareExpression:
		e.Left = foldExpression(e.Left)
		for i, cmp := range e.Comparators {
			e.Comparators[i] = foldExpression(cmp)
		}
	case *ast.CallExpression:
		e.Func = foldExpression(e.Func)
		for _, arg := range e.Args {
			arg.Value = foldExpression(arg.Value)
		}
	case *ast.AttributeExpression:
		e.Object = foldExpression(e.Object)
	case *ast.SubscriptExpression:
		e.Object = foldExpression(e.Object)
		e.Index = foldExpression(e.Index)
	case *ast.SliceExpression:
		e.Low = foldExpression(e.Low)
		e.High = foldExpression(e.High)
		e.Step = foldExpression(e.Step)
	case *ast.StarredExpression:
		e.Value = foldExpression(e.Value)
	case *ast.ListLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = foldExpression(el)
		}
	case *ast.TupleLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = foldExpression(el)
		}
	case *ast.SetLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = foldExpression(el)
		}
	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			if entry.Key != nil {
				entry.Key = foldExpression(entry.Key)
			}
			entry.Value = foldExpression(entry.Value)
		}
	case *ast.ConditionalExpression:
		e.Condition = foldExpression(e.Condition)
		e.Then = foldExpression(e.Then)
		e.Else = foldExpression(e.Else)
	case *ast.NamedExpression:
		e.Value = foldExpression(e.Value)
	case *ast.AwaitExpression:
		e.Operand = foldExpression(e.Operand)
	case *ast.YieldExpression:
		e.Value = foldExpression(e.Value)
	case *ast.FormattedString:
		for i, part := range e.Parts {
			e.Parts[i] = foldExpression(part)
		}
	case *ast.LambdaExpression:
		e.Body = foldExpression(e.Body)
	case *ast.ListComprehension:
		e.Element = foldExpression(e.Element)
		foldClauses(e.Clauses)
	case *ast.SetComprehension:
		e.Element = foldExpression(e.Element)
		foldClauses(e.Clauses)
	case *ast.DictComprehension:
		e.Key = foldExpression(e.Key)
		e.Value = foldExpression(e.Value)
		foldClauses(e.Clauses)
	case *ast.GeneratorExpression:
		e.Element = foldExpression(e.Element)
		foldClauses(e.Clauses)
	}
	return expr
}

func foldClauses(clauses []*ast.ComprehensionClause) {
	for _, clause := range clauses {
		clause.Iterable = foldExpression(clause.Iterable)
		for i, cond := range clause.Conditions {
			clause.Conditions[i] = foldExpression(cond)
		}
	}
}

func foldBinary(e *ast.BinaryExpression) ast.Expression {
	if left, ok := e.Left.(*ast.IntegerLiteral); ok {
		if right, ok := e.Right.(*ast.IntegerLiteral); ok {
			return foldIntOp(e.Operator, left.Value, right.Value)
		}
	}
	if left, ok := numericValue(e.Left); ok {
		if right, ok := numericValue(e.Right); ok {
			return foldFloatOp(e.Operator, left, right)
		}
	}
	if left, ok := e.Left.(*ast.StringLiteral); ok {
		if right, ok := e.Right.(*ast.StringLiteral); ok && e.Operator == "+" {
			if len(left.Value)+len(right.Value) <= foldMaxRepeat {
				return ast.NewStringLiteral(left.Value + right.Value)
			}
		}
		if right, ok := e.Right.(*ast.IntegerLiteral); ok && e.Operator == "*" {
			return foldStringRepeat(left.Value, right.Value)
		}
	}
	return nil
}

func foldIntOp(op string, a, b *big.Int) ast.Expression {
	result := new(big.Int)
	switch op {
	case "+":
		result.Add(a, b)
	case "-":
		result.Sub(a, b)
	case "*":
		result.Mul(a, b)
	case "//":
		if b.Sign() <= 0 || a.Sign() < 0 {
			return nil
		}
		result.Div(a, b)
	case "%":
		if b.Sign() <= 0 || a.Sign() < 0 {
			return nil
		}
		result.Mod(a, b)
	case "**":
		if b.Sign() < 0 || !b.IsInt64() || b.Int64() > 64 || a.BitLen() > 32 {
			return nil
		}
		result.Exp(a, b, nil)
	case "<<":
		if b.Sign() < 0 || !b.IsInt64() || b.Int64() > 64 {
			return nil
		}
		result.Lsh(a, uint(b.Int64()))
	case ">>":
		if b.Sign() < 0 || !b.IsInt64() || b.Int64() > 1<<16 {
			return nil
		}
		result.Rsh(a, uint(b.Int64()))
	case "|":
		result.Or(a, b)
	case "&":
		result.And(a, b)
	case "^":
		result.Xor(a, b)
	default:
		return nil
	}
	if result.BitLen() > foldMaxBits {
		return nil
	}
	return ast.NewIntegerLiteral(result)
}

// numericValue reports a literal usable in float arithmetic; pure integer
// pairs never reach here.
func numericValue(expr ast.Expression) (float64, bool) {
	switch lit := expr.(type) {
	case *ast.FloatLiteral:
		return lit.Value, true
	case *ast.IntegerLiteral:
		if lit.Value.IsInt64() {
			return float64(lit.Value.Int64()), true
		}
	}
	return 0, false
}

func foldFloatOp(op string, a, b float64) ast.Expression {
	var result float64
	switch op {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*":
		result = a * b
	case "/":
		if b == 0 {
			return nil
		}
		result = a / b
	default:
		return nil
	}
	return ast.NewFloatLiteral(result)
}

func foldStringRepeat(s string, n *big.Int) ast.Expression {
	if !n.IsInt64() {
		return nil
	}
	count := n.Int64()
	if count < 0 {
		count = 0
	}
	if count*int64(len(s)) > foldMaxRepeat {
		return nil
	}
	return ast.NewStringLiteral(strings.Repeat(s, int(count)))
}

func foldUnary(e *ast.UnaryExpression) ast.Expression {
	switch operand := e.Operand.(type) {
	case *ast.IntegerLiteral:
		result := new(big.Int)
		switch e.Operator {
		case "-":
			result.Neg(operand.Value)
		case "+":
			result.Set(operand.Value)
		case "~":
			result.Not(operand.Value)
		default:
			return nil
		}
		return ast.NewIntegerLiteral(result)
	case *ast.FloatLiteral:
		switch e.Operator {
		case "-":
			return ast.NewFloatLiteral(-operand.Value)
		case "+":
			return ast.NewFloatLiteral(operand.Value)
		}
	case *ast.BooleanLiteral:
		if e.Operator == "not" {
			return ast.NewBooleanLiteral(!operand.Value)
		}
	}
	return nil
}
