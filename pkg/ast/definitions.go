package ast

import "math/big"

// Constructors keep node wiring in one place so the parser and the test DSL
// build identical trees.

func NewIdentifier(name string) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name}
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

func NewFormattedString(parts []Expression) *FormattedString {
	return &FormattedString{nodeImpl: newNodeImpl(NodeFormattedString), Parts: parts}
}

func NewIntegerLiteral(value *big.Int) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value}
}

func NewFloatLiteral(value float64) *FloatLiteral {
	return &FloatLiteral{nodeImpl: newNodeImpl(NodeFloatLiteral), Value: value}
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

func NewNoneLiteral() *NoneLiteral {
	return &NoneLiteral{nodeImpl: newNodeImpl(NodeNoneLiteral)}
}

func NewListLiteral(elements []Expression) *ListLiteral {
	return &ListLiteral{nodeImpl: newNodeImpl(NodeListLiteral), Elements: elements}
}

func NewTupleLiteral(elements []Expression) *TupleLiteral {
	return &TupleLiteral{nodeImpl: newNodeImpl(NodeTupleLiteral), Elements: elements}
}

func NewSetLiteral(elements []Expression) *SetLiteral {
	return &SetLiteral{nodeImpl: newNodeImpl(NodeSetLiteral), Elements: elements}
}

func NewDictEntry(key, value Expression) *DictEntry {
	return &DictEntry{nodeImpl: newNodeImpl(NodeDictEntry), Key: key, Value: value}
}

func NewDictLiteral(entries []*DictEntry) *DictLiteral {
	return &DictLiteral{nodeImpl: newNodeImpl(NodeDictLiteral), Entries: entries}
}

func NewUnaryExpression(operator string, operand Expression) *UnaryExpression {
	return &UnaryExpression{nodeImpl: newNodeImpl(NodeUnaryExpression), Operator: operator, Operand: operand}
}

func NewBinaryExpression(operator string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

func NewCompareExpression(left Expression, operators []string, comparators []Expression) *CompareExpression {
	return &CompareExpression{nodeImpl: newNodeImpl(NodeCompareExpression), Left: left, Operators: operators, Comparators: comparators}
}

func NewArgument(name string, value Expression) *Argument {
	return &Argument{nodeImpl: newNodeImpl(NodeArgument), Name: name, Value: value}
}

func NewStarArgument(value Expression) *Argument {
	return &Argument{nodeImpl: newNodeImpl(NodeArgument), Value: value, Star: true}
}

func NewDoubleStarArgument(value Expression) *Argument {
	return &Argument{nodeImpl: newNodeImpl(NodeArgument), Value: value, DoubleStar: true}
}

func NewCallExpression(fn Expression, args []*Argument) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Func: fn, Args: args}
}

func NewAttributeExpression(object Expression, attribute string) *AttributeExpression {
	return &AttributeExpression{nodeImpl: newNodeImpl(NodeAttributeExpression), Object: object, Attribute: attribute}
}

func NewSubscriptExpression(object, index Expression) *SubscriptExpression {
	return &SubscriptExpression{nodeImpl: newNodeImpl(NodeSubscriptExpression), Object: object, Index: index}
}

func NewSliceExpression(low, high, step Expression) *SliceExpression {
	return &SliceExpression{nodeImpl: newNodeImpl(NodeSliceExpression), Low: low, High: high, Step: step}
}

func NewStarredExpression(value Expression) *StarredExpression {
	return &StarredExpression{nodeImpl: newNodeImpl(NodeStarredExpression), Value: value}
}

func NewLambdaExpression(params *ParameterList, body Expression) *LambdaExpression {
	if params == nil {
		params = NewParameterList(nil, nil, nil, nil)
	}
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Params: params, Body: body}
}

func NewConditionalExpression(condition, then, els Expression) *ConditionalExpression {
	return &ConditionalExpression{nodeImpl: newNodeImpl(NodeConditionalExpression), Condition: condition, Then: then, Else: els}
}

func NewNamedExpression(target *Identifier, value Expression) *NamedExpression {
	return &NamedExpression{nodeImpl: newNodeImpl(NodeNamedExpression), Target: target, Value: value}
}

func NewAwaitExpression(operand Expression) *AwaitExpression {
	return &AwaitExpression{nodeImpl: newNodeImpl(NodeAwaitExpression), Operand: operand}
}

func NewYieldExpression(value Expression, isFrom bool) *YieldExpression {
	return &YieldExpression{nodeImpl: newNodeImpl(NodeYieldExpression), Value: value, IsFrom: isFrom}
}

func NewComprehensionClause(target, iterable Expression, conditions []Expression, isAsync bool) *ComprehensionClause {
	return &ComprehensionClause{nodeImpl: newNodeImpl(NodeComprehensionClause), Target: target, Iterable: iterable, Conditions: conditions, IsAsync: isAsync}
}

func NewListComprehension(element Expression, clauses []*ComprehensionClause) *ListComprehension {
	return &ListComprehension{nodeImpl: newNodeImpl(NodeListComprehension), Element: element, Clauses: clauses}
}

func NewSetComprehension(element Expression, clauses []*ComprehensionClause) *SetComprehension {
	return &SetComprehension{nodeImpl: newNodeImpl(NodeSetComprehension), Element: element, Clauses: clauses}
}

func NewDictComprehension(key, value Expression, clauses []*ComprehensionClause) *DictComprehension {
	return &DictComprehension{nodeImpl: newNodeImpl(NodeDictComprehension), Key: key, Value: value, Clauses: clauses}
}

func NewGeneratorExpression(element Expression, clauses []*ComprehensionClause) *GeneratorExpression {
	return &GeneratorExpression{nodeImpl: newNodeImpl(NodeGeneratorExpression), Element: element, Clauses: clauses}
}

func NewExpressionStatement(expr Expression) *ExpressionStatement {
	return &ExpressionStatement{nodeImpl: newNodeImpl(NodeExpressionStatement), Expression: expr}
}

func NewAssignment(targets []Expression, value Expression) *Assignment {
	return &Assignment{nodeImpl: newNodeImpl(NodeAssignment), Targets: targets, Value: value}
}

func NewAugmentedAssignment(target Expression, operator string, value Expression) *AugmentedAssignment {
	return &AugmentedAssignment{nodeImpl: newNodeImpl(NodeAugmentedAssignment), Target: target, Operator: operator, Value: value}
}

func NewParameter(name string, def Expression) *Parameter {
	return &Parameter{nodeImpl: newNodeImpl(NodeParameter), Name: name, Default: def}
}

func NewParameterList(positional []*Parameter, varArg *Parameter, kwOnly []*Parameter, kwArg *Parameter) *ParameterList {
	return &ParameterList{nodeImpl: newNodeImpl(NodeParameterList), Positional: positional, VarArg: varArg, KwOnly: kwOnly, KwArg: kwArg}
}

func NewFunctionDefinition(name string, params *ParameterList, body []Statement, isAsync bool) *FunctionDefinition {
	if params == nil {
		params = NewParameterList(nil, nil, nil, nil)
	}
	def := &FunctionDefinition{nodeImpl: newNodeImpl(NodeFunctionDefinition), Name: name, Params: params, Body: body, IsAsync: isAsync}
	def.IsGenerator = containsYield(body)
	return def
}

func NewClassDefinition(name string, bases []Expression, body []Statement) *ClassDefinition {
	return &ClassDefinition{nodeImpl: newNodeImpl(NodeClassDefinition), Name: name, Bases: bases, Body: body}
}

func NewReturnStatement(value Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Value: value}
}

func NewPassStatement() *PassStatement {
	return &PassStatement{nodeImpl: newNodeImpl(NodePassStatement)}
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

func NewIfStatement(condition Expression, body, els []Statement) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Condition: condition, Body: body, Else: els}
}

func NewWhileStatement(condition Expression, body, els []Statement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: condition, Body: body, Else: els}
}

func NewForStatement(target, iterable Expression, body, els []Statement, isAsync bool) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Target: target, Iterable: iterable, Body: body, Else: els, IsAsync: isAsync}
}

func NewExceptHandler(types []Expression, name string, body []Statement) *ExceptHandler {
	return &ExceptHandler{nodeImpl: newNodeImpl(NodeExceptHandler), Types: types, Name: name, Body: body}
}

func NewTryStatement(body []Statement, handlers []*ExceptHandler, isGroup bool, els, finally []Statement) *TryStatement {
	return &TryStatement{nodeImpl: newNodeImpl(NodeTryStatement), Body: body, Handlers: handlers, IsGroup: isGroup, Else: els, Finally: finally}
}

func NewRaiseStatement(value, cause Expression) *RaiseStatement {
	return &RaiseStatement{nodeImpl: newNodeImpl(NodeRaiseStatement), Value: value, Cause: cause}
}

func NewWithItem(context Expression, alias Expression) *WithItem {
	return &WithItem{nodeImpl: newNodeImpl(NodeWithItem), Context: context, Alias: alias}
}

func NewWithStatement(items []*WithItem, body []Statement, isAsync bool) *WithStatement {
	return &WithStatement{nodeImpl: newNodeImpl(NodeWithStatement), Items: items, Body: body, IsAsync: isAsync}
}

func NewMatchCase(pattern Pattern, guard Expression, body []Statement) *MatchCase {
	return &MatchCase{nodeImpl: newNodeImpl(NodeMatchCase), Pattern: pattern, Guard: guard, Body: body}
}

func NewMatchStatement(subject Expression, cases []*MatchCase) *MatchStatement {
	return &MatchStatement{nodeImpl: newNodeImpl(NodeMatchStatement), Subject: subject, Cases: cases}
}

func NewImportAlias(name, as string) *ImportAlias {
	return &ImportAlias{nodeImpl: newNodeImpl(NodeImportAlias), Name: name, As: as}
}

func NewImportStatement(modules []*ImportAlias) *ImportStatement {
	return &ImportStatement{nodeImpl: newNodeImpl(NodeImportStatement), Modules: modules}
}

func NewImportFromStatement(module string, names []*ImportAlias) *ImportFromStatement {
	return &ImportFromStatement{nodeImpl: newNodeImpl(NodeImportFromStatement), Module: module, Names: names}
}

func NewGlobalStatement(names []string) *GlobalStatement {
	return &GlobalStatement{nodeImpl: newNodeImpl(NodeGlobalStatement), Names: names}
}

func NewNonlocalStatement(names []string) *NonlocalStatement {
	return &NonlocalStatement{nodeImpl: newNodeImpl(NodeNonlocalStatement), Names: names}
}

func NewAssertStatement(condition, message Expression) *AssertStatement {
	return &AssertStatement{nodeImpl: newNodeImpl(NodeAssertStatement), Condition: condition, Message: message}
}

func NewDeleteStatement(targets []Expression) *DeleteStatement {
	return &DeleteStatement{nodeImpl: newNodeImpl(NodeDeleteStatement), Targets: targets}
}

func NewModule(body []Statement) *Module {
	return &Module{nodeImpl: newNodeImpl(NodeModule), Body: body}
}

func NewValuePattern(value Expression) *ValuePattern {
	return &ValuePattern{nodeImpl: newNodeImpl(NodeValuePattern), Value: value}
}

func NewCapturePattern(name string) *CapturePattern {
	return &CapturePattern{nodeImpl: newNodeImpl(NodeCapturePattern), Name: name}
}

func NewWildcardPattern() *WildcardPattern {
	return &WildcardPattern{nodeImpl: newNodeImpl(NodeWildcardPattern)}
}

func NewStarPattern(name string) *StarPattern {
	return &StarPattern{nodeImpl: newNodeImpl(NodeStarPattern), Name: name}
}

func NewSequencePattern(elements []Pattern) *SequencePattern {
	return &SequencePattern{nodeImpl: newNodeImpl(NodeSequencePattern), Elements: elements}
}

func NewMappingPatternEntry(key Expression, pattern Pattern) *MappingPatternEntry {
	return &MappingPatternEntry{nodeImpl: newNodeImpl(NodeMappingPatternEntry), Key: key, Pattern: pattern}
}

func NewMappingPattern(entries []*MappingPatternEntry, rest string) *MappingPattern {
	return &MappingPattern{nodeImpl: newNodeImpl(NodeMappingPattern), Entries: entries, Rest: rest}
}

func NewKeywordPattern(name string, pattern Pattern) *KeywordPattern {
	return &KeywordPattern{nodeImpl: newNodeImpl(NodeKeywordPattern), Name: name, Pattern: pattern}
}

func NewClassPattern(class Expression, positional []Pattern, keyword []*KeywordPattern) *ClassPattern {
	return &ClassPattern{nodeImpl: newNodeImpl(NodeClassPattern), Class: class, Positional: positional, Keyword: keyword}
}

func NewAsPattern(pattern Pattern, name string) *AsPattern {
	return &AsPattern{nodeImpl: newNodeImpl(NodeAsPattern), Pattern: pattern, Name: name}
}

func NewOrPattern(alternatives []Pattern) *OrPattern {
	return &OrPattern{nodeImpl: newNodeImpl(NodeOrPattern), Alternatives: alternatives}
}

// containsYield reports whether a function body yields, without descending
// into nested function or class definitions.
func containsYield(body []Statement) bool {
	for _, stmt := range body {
		if statementYields(stmt) {
			return true
		}
	}
	return false
}

func statementYields(stmt Statement) bool {
	switch s := stmt.(type) {
	case *ExpressionStatement:
		return expressionYields(s.Expression)
	case *Assignment:
		return expressionYields(s.Value)
	case *AugmentedAssignment:
		return expressionYields(s.Value)
	case *ReturnStatement:
		return expressionYields(s.Value)
	case *IfStatement:
		return containsYield(s.Body) || containsYield(s.Else)
	case *WhileStatement:
		return expressionYields(s.Condition) || containsYield(s.Body) || containsYield(s.Else)
	case *ForStatement:
		return expressionYields(s.Iterable) || containsYield(s.Body) || containsYield(s.Else)
	case *TryStatement:
		if containsYield(s.Body) || containsYield(s.Else) || containsYield(s.Finally) {
			return true
		}
		for _, h := range s.Handlers {
			if containsYield(h.Body) {
				return true
			}
		}
		return false
	case *WithStatement:
		return containsYield(s.Body)
	case *MatchStatement:
		for _, c := range s.Cases {
			if containsYield(c.Body) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func expressionYields(expr Expression) bool {
	switch e := expr.(type) {
	case nil:
		return false
	case *YieldExpression:
		return true
	case *UnaryExpression:
		return expressionYields(e.Operand)
	case *BinaryExpression:
		return expressionYields(e.Left) || expressionYields(e.Right)
	case *CompareExpression:
		if expressionYields(e.Left) {
			return true
		}
		for _, c := range e.Comparators {
			if expressionYields(c) {
				return true
			}
		}
		return false
	case *CallExpression:
		if expressionYields(e.Func) {
			return true
		}
		for _, a := range e.Args {
			if expressionYields(a.Value) {
				return true
			}
		}
		return false
	case *ConditionalExpression:
		return expressionYields(e.Condition) || expressionYields(e.Then) || expressionYields(e.Else)
	case *NamedExpression:
		return expressionYields(e.Value)
	case *AwaitExpression:
		return expressionYields(e.Operand)
	case *TupleLiteral:
		for _, el := range e.Elements {
			if expressionYields(el) {
				return true
			}
		}
		return false
	case *ListLiteral:
		for _, el := range e.Elements {
			if expressionYields(el) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
