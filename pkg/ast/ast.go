package ast

import "math/big"

type NodeType string

const (
	NodeIdentifier            NodeType = "Identifier"
	NodeStringLiteral         NodeType = "StringLiteral"
	NodeFormattedString       NodeType = "FormattedString"
	NodeIntegerLiteral        NodeType = "IntegerLiteral"
	NodeFloatLiteral          NodeType = "FloatLiteral"
	NodeBooleanLiteral        NodeType = "BooleanLiteral"
	NodeNoneLiteral           NodeType = "NoneLiteral"
	NodeListLiteral           NodeType = "ListLiteral"
	NodeTupleLiteral          NodeType = "TupleLiteral"
	NodeSetLiteral            NodeType = "SetLiteral"
	NodeDictLiteral           NodeType = "DictLiteral"
	NodeDictEntry             NodeType = "DictEntry"
	NodeUnaryExpression       NodeType = "UnaryExpression"
	NodeBinaryExpression      NodeType = "BinaryExpression"
	NodeCompareExpression     NodeType = "CompareExpression"
	NodeCallExpression        NodeType = "CallExpression"
	NodeArgument              NodeType = "Argument"
	NodeAttributeExpression   NodeType = "AttributeExpression"
	NodeSubscriptExpression   NodeType = "SubscriptExpression"
	NodeSliceExpression       NodeType = "SliceExpression"
	NodeStarredExpression     NodeType = "StarredExpression"
	NodeLambdaExpression      NodeType = "LambdaExpression"
	NodeConditionalExpression NodeType = "ConditionalExpression"
	NodeNamedExpression       NodeType = "NamedExpression"
	NodeAwaitExpression       NodeType = "AwaitExpression"
	NodeYieldExpression       NodeType = "YieldExpression"
	NodeListComprehension     NodeType = "ListComprehension"
	NodeSetComprehension      NodeType = "SetComprehension"
	NodeDictComprehension     NodeType = "DictComprehension"
	NodeGeneratorExpression   NodeType = "GeneratorExpression"
	NodeComprehensionClause   NodeType = "ComprehensionClause"
	NodeAssignment            NodeType = "Assignment"
	NodeAugmentedAssignment   NodeType = "AugmentedAssignment"
	NodeExpressionStatement   NodeType = "ExpressionStatement"
	NodeFunctionDefinition    NodeType = "FunctionDefinition"
	NodeParameter             NodeType = "Parameter"
	NodeParameterList         NodeType = "ParameterList"
	NodeClassDefinition       NodeType = "ClassDefinition"
	NodeReturnStatement       NodeType = "ReturnStatement"
	NodePassStatement         NodeType = "PassStatement"
	NodeBreakStatement        NodeType = "BreakStatement"
	NodeContinueStatement     NodeType = "ContinueStatement"
	NodeIfStatement           NodeType = "IfStatement"
	NodeWhileStatement        NodeType = "WhileStatement"
	NodeForStatement          NodeType = "ForStatement"
	NodeTryStatement          NodeType = "TryStatement"
	NodeExceptHandler         NodeType = "ExceptHandler"
	NodeRaiseStatement        NodeType = "RaiseStatement"
	NodeWithStatement         NodeType = "WithStatement"
	NodeWithItem              NodeType = "WithItem"
	NodeMatchStatement        NodeType = "MatchStatement"
	NodeMatchCase             NodeType = "MatchCase"
	NodeImportStatement       NodeType = "ImportStatement"
	NodeImportFromStatement   NodeType = "ImportFromStatement"
	NodeImportAlias           NodeType = "ImportAlias"
	NodeGlobalStatement       NodeType = "GlobalStatement"
	NodeNonlocalStatement     NodeType = "NonlocalStatement"
	NodeAssertStatement       NodeType = "AssertStatement"
	NodeDeleteStatement       NodeType = "DeleteStatement"
	NodeModule                NodeType = "Module"
	NodeValuePattern          NodeType = "ValuePattern"
	NodeCapturePattern        NodeType = "CapturePattern"
	NodeWildcardPattern       NodeType = "WildcardPattern"
	NodeSequencePattern       NodeType = "SequencePattern"
	NodeStarPattern           NodeType = "StarPattern"
	NodeMappingPattern        NodeType = "MappingPattern"
	NodeMappingPatternEntry   NodeType = "MappingPatternEntry"
	NodeClassPattern          NodeType = "ClassPattern"
	NodeKeywordPattern        NodeType = "KeywordPattern"
	NodeAsPattern             NodeType = "AsPattern"
	NodeOrPattern             NodeType = "OrPattern"
)

// Position is a 1-based source location.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Span covers a node's source extent.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) IsZero() bool {
	return s.Start.Line == 0 && s.End.Line == 0
}

type Node interface {
	NodeType() NodeType
	NodeSpan() Span
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
	Span Span     `json:"span,omitempty"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (n nodeImpl) NodeSpan() Span     { return n.Span }
func (nodeImpl) isNode()              {}

// SetSpan annotates a node with its source extent. Nodes built by the test
// DSL keep a zero span.
func SetSpan(node Node, span Span) {
	type spanSetter interface{ setSpan(Span) }
	if s, ok := node.(spanSetter); ok {
		s.setSpan(span)
	}
}

func (n *nodeImpl) setSpan(span Span) { n.Span = span }

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Pattern is a match-case pattern.
type Pattern interface {
	Node
	patternNode()
}

type patternMarker struct{}

func (patternMarker) patternNode() {}

//-----------------------------------------------------------------------------
// Atoms and literals
//-----------------------------------------------------------------------------

type Identifier struct {
	nodeImpl
	expressionMarker
	Name string `json:"name"`
}

type StringLiteral struct {
	nodeImpl
	expressionMarker
	Value string `json:"value"`
}

// FormattedString is an f-string: a sequence of literal and interpolated parts.
type FormattedString struct {
	nodeImpl
	expressionMarker
	Parts []Expression `json:"parts"`
}

type IntegerLiteral struct {
	nodeImpl
	expressionMarker
	Value *big.Int `json:"value"`
}

type FloatLiteral struct {
	nodeImpl
	expressionMarker
	Value float64 `json:"value"`
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	Value bool `json:"value"`
}

type NoneLiteral struct {
	nodeImpl
	expressionMarker
}

type ListLiteral struct {
	nodeImpl
	expressionMarker
	Elements []Expression `json:"elements"`
}

type TupleLiteral struct {
	nodeImpl
	expressionMarker
	Elements []Expression `json:"elements"`
}

type SetLiteral struct {
	nodeImpl
	expressionMarker
	Elements []Expression `json:"elements"`
}

// DictEntry is one key/value pair; a nil Key marks a **mapping expansion.
type DictEntry struct {
	nodeImpl
	Key   Expression `json:"key"`
	Value Expression `json:"value"`
}

type DictLiteral struct {
	nodeImpl
	expressionMarker
	Entries []*DictEntry `json:"entries"`
}

//-----------------------------------------------------------------------------
// Operator expressions
//-----------------------------------------------------------------------------

type UnaryExpression struct {
	nodeImpl
	expressionMarker
	Operator string     `json:"operator"` // "-", "+", "~", "not"
	Operand  Expression `json:"operand"`
}

// BinaryExpression covers arithmetic, bitwise, and the short-circuit
// operators "and"/"or".
type BinaryExpression struct {
	nodeImpl
	expressionMarker
	Operator string     `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

// CompareExpression models chained comparisons: a < b <= c.
type CompareExpression struct {
	nodeImpl
	expressionMarker
	Left        Expression   `json:"left"`
	Operators   []string     `json:"operators"` // "<", "<=", ">", ">=", "==", "!=", "in", "not in", "is", "is not"
	Comparators []Expression `json:"comparators"`
}

// Argument is a single call argument. Name is set for keyword arguments;
// Star/DoubleStar mark *args / **kwargs expansion.
type Argument struct {
	nodeImpl
	Name       string     `json:"name,omitempty"`
	Value      Expression `json:"value"`
	Star       bool       `json:"star,omitempty"`
	DoubleStar bool       `json:"double_star,omitempty"`
}

type CallExpression struct {
	nodeImpl
	expressionMarker
	Func Expression  `json:"func"`
	Args []*Argument `json:"args"`
}

type AttributeExpression struct {
	nodeImpl
	expressionMarker
	Object    Expression `json:"object"`
	Attribute string     `json:"attribute"`
}

type SubscriptExpression struct {
	nodeImpl
	expressionMarker
	Object Expression `json:"object"`
	Index  Expression `json:"index"`
}

// SliceExpression appears only as a subscript index.
type SliceExpression struct {
	nodeImpl
	expressionMarker
	Low  Expression `json:"low"`
	High Expression `json:"high"`
	Step Expression `json:"step"`
}

type StarredExpression struct {
	nodeImpl
	expressionMarker
	Value Expression `json:"value"`
}

type LambdaExpression struct {
	nodeImpl
	expressionMarker
	Params *ParameterList `json:"params"`
	Body   Expression     `json:"body"`
}

// ConditionalExpression is `a if cond else b`.
type ConditionalExpression struct {
	nodeImpl
	expressionMarker
	Condition Expression `json:"condition"`
	Then      Expression `json:"then"`
	Else      Expression `json:"else"`
}

// NamedExpression is the walrus form `name := value`.
type NamedExpression struct {
	nodeImpl
	expressionMarker
	Target *Identifier `json:"target"`
	Value  Expression  `json:"value"`
}

type AwaitExpression struct {
	nodeImpl
	expressionMarker
	Operand Expression `json:"operand"`
}

// YieldExpression covers `yield`, `yield v`, and `yield from it`.
type YieldExpression struct {
	nodeImpl
	expressionMarker
	Value  Expression `json:"value"`
	IsFrom bool       `json:"is_from,omitempty"`
}

//-----------------------------------------------------------------------------
// Comprehensions
//-----------------------------------------------------------------------------

// ComprehensionClause is one `for target in iter [if cond]*` clause.
type ComprehensionClause struct {
	nodeImpl
	Target     Expression   `json:"target"`
	Iterable   Expression   `json:"iterable"`
	Conditions []Expression `json:"conditions,omitempty"`
	IsAsync    bool         `json:"is_async,omitempty"`
}

type ListComprehension struct {
	nodeImpl
	expressionMarker
	Element Expression             `json:"element"`
	Clauses []*ComprehensionClause `json:"clauses"`
}

type SetComprehension struct {
	nodeImpl
	expressionMarker
	Element Expression             `json:"element"`
	Clauses []*ComprehensionClause `json:"clauses"`
}

type DictComprehension struct {
	nodeImpl
	expressionMarker
	Key     Expression             `json:"key"`
	Value   Expression             `json:"value"`
	Clauses []*ComprehensionClause `json:"clauses"`
}

type GeneratorExpression struct {
	nodeImpl
	expressionMarker
	Element Expression             `json:"element"`
	Clauses []*ComprehensionClause `json:"clauses"`
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type ExpressionStatement struct {
	nodeImpl
	statementMarker
	Expression Expression `json:"expression"`
}

// Assignment covers `a = v` and chained `a = b = v`; targets may be names,
// attributes, subscripts, or (possibly starred/nested) tuple/list targets.
type Assignment struct {
	nodeImpl
	statementMarker
	Targets []Expression `json:"targets"`
	Value   Expression   `json:"value"`
}

type AugmentedAssignment struct {
	nodeImpl
	statementMarker
	Target   Expression `json:"target"`
	Operator string     `json:"operator"` // "+", "-", "*", "/", "//", "%", "**", "|", "&", "^", "<<", ">>"
	Value    Expression `json:"value"`
}

// Parameter is one formal parameter with an optional default.
type Parameter struct {
	nodeImpl
	Name    string     `json:"name"`
	Default Expression `json:"default,omitempty"`
}

// ParameterList is the pre-computed parameter specification of a callable.
type ParameterList struct {
	nodeImpl
	Positional []*Parameter `json:"positional"`
	VarArg     *Parameter   `json:"var_arg,omitempty"`
	KwOnly     []*Parameter `json:"kw_only,omitempty"`
	KwArg      *Parameter   `json:"kw_arg,omitempty"`
}

type FunctionDefinition struct {
	nodeImpl
	statementMarker
	Name        string         `json:"name"`
	Params      *ParameterList `json:"params"`
	Body        []Statement    `json:"body"`
	IsAsync     bool           `json:"is_async,omitempty"`
	IsGenerator bool           `json:"is_generator,omitempty"`
}

type ClassDefinition struct {
	nodeImpl
	statementMarker
	Name  string       `json:"name"`
	Bases []Expression `json:"bases,omitempty"`
	Body  []Statement  `json:"body"`
}

type ReturnStatement struct {
	nodeImpl
	statementMarker
	Value Expression `json:"value,omitempty"`
}

type PassStatement struct {
	nodeImpl
	statementMarker
}

type BreakStatement struct {
	nodeImpl
	statementMarker
}

type ContinueStatement struct {
	nodeImpl
	statementMarker
}

type IfStatement struct {
	nodeImpl
	statementMarker
	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
	Else      []Statement `json:"else,omitempty"`
}

type WhileStatement struct {
	nodeImpl
	statementMarker
	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
	Else      []Statement `json:"else,omitempty"`
}

type ForStatement struct {
	nodeImpl
	statementMarker
	Target   Expression  `json:"target"`
	Iterable Expression  `json:"iterable"`
	Body     []Statement `json:"body"`
	Else     []Statement `json:"else,omitempty"`
	IsAsync  bool        `json:"is_async,omitempty"`
}

// ExceptHandler is one `except`/`except*` clause. Types is empty for a bare
// except; Name binds the caught exception in the handler body.
type ExceptHandler struct {
	nodeImpl
	Types []Expression `json:"types,omitempty"`
	Name  string       `json:"name,omitempty"`
	Body  []Statement  `json:"body"`
}

type TryStatement struct {
	nodeImpl
	statementMarker
	Body     []Statement      `json:"body"`
	Handlers []*ExceptHandler `json:"handlers,omitempty"`
	IsGroup  bool             `json:"is_group,omitempty"` // except* handlers
	Else     []Statement      `json:"else,omitempty"`
	Finally  []Statement      `json:"finally,omitempty"`
}

// RaiseStatement; a nil Value re-raises the in-flight exception.
type RaiseStatement struct {
	nodeImpl
	statementMarker
	Value Expression `json:"value,omitempty"`
	Cause Expression `json:"cause,omitempty"`
}

type WithItem struct {
	nodeImpl
	Context Expression `json:"context"`
	Alias   Expression `json:"alias,omitempty"`
}

type WithStatement struct {
	nodeImpl
	statementMarker
	Items   []*WithItem `json:"items"`
	Body    []Statement `json:"body"`
	IsAsync bool        `json:"is_async,omitempty"`
}

type MatchCase struct {
	nodeImpl
	Pattern Pattern     `json:"pattern"`
	Guard   Expression  `json:"guard,omitempty"`
	Body    []Statement `json:"body"`
}

type MatchStatement struct {
	nodeImpl
	statementMarker
	Subject Expression   `json:"subject"`
	Cases   []*MatchCase `json:"cases"`
}

type ImportAlias struct {
	nodeImpl
	Name string `json:"name"`
	As   string `json:"as,omitempty"`
}

type ImportStatement struct {
	nodeImpl
	statementMarker
	Modules []*ImportAlias `json:"modules"`
}

type ImportFromStatement struct {
	nodeImpl
	statementMarker
	Module string         `json:"module"`
	Names  []*ImportAlias `json:"names"`
}

type GlobalStatement struct {
	nodeImpl
	statementMarker
	Names []string `json:"names"`
}

type NonlocalStatement struct {
	nodeImpl
	statementMarker
	Names []string `json:"names"`
}

type AssertStatement struct {
	nodeImpl
	statementMarker
	Condition Expression `json:"condition"`
	Message   Expression `json:"message,omitempty"`
}

type DeleteStatement struct {
	nodeImpl
	statementMarker
	Targets []Expression `json:"targets"`
}

type Module struct {
	nodeImpl
	Body []Statement `json:"body"`
}

//-----------------------------------------------------------------------------
// Match patterns
//-----------------------------------------------------------------------------

// ValuePattern matches against the value of a literal or dotted name.
type ValuePattern struct {
	nodeImpl
	patternMarker
	Value Expression `json:"value"`
}

type CapturePattern struct {
	nodeImpl
	patternMarker
	Name string `json:"name"`
}

type WildcardPattern struct {
	nodeImpl
	patternMarker
}

type StarPattern struct {
	nodeImpl
	patternMarker
	Name string `json:"name,omitempty"` // empty for *_
}

type SequencePattern struct {
	nodeImpl
	patternMarker
	Elements []Pattern `json:"elements"`
}

type MappingPatternEntry struct {
	nodeImpl
	Key     Expression `json:"key"`
	Pattern Pattern    `json:"pattern"`
}

type MappingPattern struct {
	nodeImpl
	patternMarker
	Entries []*MappingPatternEntry `json:"entries"`
	Rest    string                 `json:"rest,omitempty"`
}

type KeywordPattern struct {
	nodeImpl
	Name    string  `json:"name"`
	Pattern Pattern `json:"pattern"`
}

type ClassPattern struct {
	nodeImpl
	patternMarker
	Class      Expression        `json:"class"`
	Positional []Pattern         `json:"positional,omitempty"`
	Keyword    []*KeywordPattern `json:"keyword,omitempty"`
}

type AsPattern struct {
	nodeImpl
	patternMarker
	Pattern Pattern `json:"pattern"`
	Name    string  `json:"name"`
}

type OrPattern struct {
	nodeImpl
	patternMarker
	Alternatives []Pattern `json:"alternatives"`
}
