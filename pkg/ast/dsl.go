package ast

import "math/big"

// Shorthand builders used throughout the interpreter tests.

func ID(name string) *Identifier { return NewIdentifier(name) }

func Str(value string) *StringLiteral { return NewStringLiteral(value) }

func Int(value int64) *IntegerLiteral { return NewIntegerLiteral(big.NewInt(value)) }

func IntBig(value *big.Int) *IntegerLiteral { return NewIntegerLiteral(value) }

func Flt(value float64) *FloatLiteral { return NewFloatLiteral(value) }

func Bool(value bool) *BooleanLiteral { return NewBooleanLiteral(value) }

func None() *NoneLiteral { return NewNoneLiteral() }

func List(elements ...Expression) *ListLiteral { return NewListLiteral(elements) }

func Tup(elements ...Expression) *TupleLiteral { return NewTupleLiteral(elements) }

func Set(elements ...Expression) *SetLiteral { return NewSetLiteral(elements) }

func Entry(key, value Expression) *DictEntry { return NewDictEntry(key, value) }

func Dict(entries ...*DictEntry) *DictLiteral { return NewDictLiteral(entries) }

func Un(op string, operand Expression) *UnaryExpression { return NewUnaryExpression(op, operand) }

func Bin(op string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(op, left, right)
}

func Cmp(left Expression, op string, right Expression) *CompareExpression {
	return NewCompareExpression(left, []string{op}, []Expression{right})
}

func Arg(value Expression) *Argument { return NewArgument("", value) }

func Kw(name string, value Expression) *Argument { return NewArgument(name, value) }

func Call(fn Expression, args ...*Argument) *CallExpression { return NewCallExpression(fn, args) }

// CallN is Call with plain positional expressions.
func CallN(name string, args ...Expression) *CallExpression {
	wrapped := make([]*Argument, 0, len(args))
	for _, a := range args {
		wrapped = append(wrapped, Arg(a))
	}
	return NewCallExpression(ID(name), wrapped)
}

func Attr(object Expression, name string) *AttributeExpression {
	return NewAttributeExpression(object, name)
}

func Sub(object, index Expression) *SubscriptExpression {
	return NewSubscriptExpression(object, index)
}

func Lam(params *ParameterList, body Expression) *LambdaExpression {
	return NewLambdaExpression(params, body)
}

func Cond(condition, then, els Expression) *ConditionalExpression {
	return NewConditionalExpression(condition, then, els)
}

func Walrus(name string, value Expression) *NamedExpression {
	return NewNamedExpression(ID(name), value)
}

func Await(operand Expression) *AwaitExpression { return NewAwaitExpression(operand) }

func Yield(value Expression) *YieldExpression { return NewYieldExpression(value, false) }

func YieldFrom(value Expression) *YieldExpression { return NewYieldExpression(value, true) }

func CompFor(target, iterable Expression, conditions ...Expression) *ComprehensionClause {
	return NewComprehensionClause(target, iterable, conditions, false)
}

func ListComp(element Expression, clauses ...*ComprehensionClause) *ListComprehension {
	return NewListComprehension(element, clauses)
}

func SetComp(element Expression, clauses ...*ComprehensionClause) *SetComprehension {
	return NewSetComprehension(element, clauses)
}

func DictComp(key, value Expression, clauses ...*ComprehensionClause) *DictComprehension {
	return NewDictComprehension(key, value, clauses)
}

func GenExp(element Expression, clauses ...*ComprehensionClause) *GeneratorExpression {
	return NewGeneratorExpression(element, clauses)
}

func ExprS(expr Expression) *ExpressionStatement { return NewExpressionStatement(expr) }

func Assign(target Expression, value Expression) *Assignment {
	return NewAssignment([]Expression{target}, value)
}

func AugAssign(target Expression, op string, value Expression) *AugmentedAssignment {
	return NewAugmentedAssignment(target, op, value)
}

func P(name string) *Parameter { return NewParameter(name, nil) }

func PD(name string, def Expression) *Parameter { return NewParameter(name, def) }

func Params(positional ...*Parameter) *ParameterList {
	return NewParameterList(positional, nil, nil, nil)
}

func Def(name string, params *ParameterList, body ...Statement) *FunctionDefinition {
	return NewFunctionDefinition(name, params, body, false)
}

func AsyncDef(name string, params *ParameterList, body ...Statement) *FunctionDefinition {
	return NewFunctionDefinition(name, params, body, true)
}

func Class(name string, bases []Expression, body ...Statement) *ClassDefinition {
	return NewClassDefinition(name, bases, body)
}

func Ret(value Expression) *ReturnStatement { return NewReturnStatement(value) }

func Pass() *PassStatement { return NewPassStatement() }

func Brk() *BreakStatement { return NewBreakStatement() }

func Cont() *ContinueStatement { return NewContinueStatement() }

func If(condition Expression, body ...Statement) *IfStatement {
	return NewIfStatement(condition, body, nil)
}

func IfElse(condition Expression, body, els []Statement) *IfStatement {
	return NewIfStatement(condition, body, els)
}

func While(condition Expression, body ...Statement) *WhileStatement {
	return NewWhileStatement(condition, body, nil)
}

func For(target, iterable Expression, body ...Statement) *ForStatement {
	return NewForStatement(target, iterable, body, nil, false)
}

func Except(types []Expression, name string, body ...Statement) *ExceptHandler {
	return NewExceptHandler(types, name, body)
}

func Try(body []Statement, handlers ...*ExceptHandler) *TryStatement {
	return NewTryStatement(body, handlers, false, nil, nil)
}

func TryFinally(body, finally []Statement) *TryStatement {
	return NewTryStatement(body, nil, false, nil, finally)
}

func Raise(value Expression) *RaiseStatement { return NewRaiseStatement(value, nil) }

func Item(context, alias Expression) *WithItem { return NewWithItem(context, alias) }

func With(items []*WithItem, body ...Statement) *WithStatement {
	return NewWithStatement(items, body, false)
}

func Case(pattern Pattern, body ...Statement) *MatchCase {
	return NewMatchCase(pattern, nil, body)
}

func CaseIf(pattern Pattern, guard Expression, body ...Statement) *MatchCase {
	return NewMatchCase(pattern, guard, body)
}

func Match(subject Expression, cases ...*MatchCase) *MatchStatement {
	return NewMatchStatement(subject, cases)
}

func Import(names ...string) *ImportStatement {
	aliases := make([]*ImportAlias, 0, len(names))
	for _, n := range names {
		aliases = append(aliases, NewImportAlias(n, ""))
	}
	return NewImportStatement(aliases)
}

func FromImport(module string, names ...string) *ImportFromStatement {
	aliases := make([]*ImportAlias, 0, len(names))
	for _, n := range names {
		aliases = append(aliases, NewImportAlias(n, ""))
	}
	return NewImportFromStatement(module, aliases)
}

func Global(names ...string) *GlobalStatement { return NewGlobalStatement(names) }

func Nonlocal(names ...string) *NonlocalStatement { return NewNonlocalStatement(names) }

func Assert(condition Expression, message Expression) *AssertStatement {
	return NewAssertStatement(condition, message)
}

func Del(targets ...Expression) *DeleteStatement { return NewDeleteStatement(targets) }

func Mod(body ...Statement) *Module { return NewModule(body) }

// Pattern shorthands.

func ValP(value Expression) *ValuePattern { return NewValuePattern(value) }

func CapP(name string) *CapturePattern { return NewCapturePattern(name) }

func WildP() *WildcardPattern { return NewWildcardPattern() }

func StarP(name string) *StarPattern { return NewStarPattern(name) }

func SeqP(elements ...Pattern) *SequencePattern { return NewSequencePattern(elements) }

func MapEntryP(key Expression, pattern Pattern) *MappingPatternEntry {
	return NewMappingPatternEntry(key, pattern)
}

func MapP(rest string, entries ...*MappingPatternEntry) *MappingPattern {
	return NewMappingPattern(entries, rest)
}

func ClsP(class Expression, positional ...Pattern) *ClassPattern {
	return NewClassPattern(class, positional, nil)
}

func AsP(pattern Pattern, name string) *AsPattern { return NewAsPattern(pattern, name) }

func OrP(alternatives ...Pattern) *OrPattern { return NewOrPattern(alternatives) }
