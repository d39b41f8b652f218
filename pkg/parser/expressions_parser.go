package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
)

func parseExpression(node *sitter.Node, source []byte) (ast.Expression, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: nil expression node")
	}

	switch node.Kind() {
	case "identifier":
		name, err := identifierName(node, source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewIdentifier(name), node), nil
	case "integer":
		return parseIntegerLiteral(node, source)
	case "float":
		return parseFloatLiteral(node, source)
	case "true":
		return annotateExpression(ast.NewBooleanLiteral(true), node), nil
	case "false":
		return annotateExpression(ast.NewBooleanLiteral(false), node), nil
	case "none":
		return annotateExpression(ast.NewNoneLiteral(), node), nil
	case "string":
		return parseStringNode(node, source)
	case "concatenated_string":
		return parseConcatenatedString(node, source)
	case "list":
		return parseListLiteral(node, source)
	case "set":
		return parseSetLiteral(node, source)
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		return parseTupleLike(node, source)
	case "list_pattern":
		return parseListLiteral(node, source)
	case "dictionary":
		return parseDictLiteral(node, source)
	case "list_splat", "list_splat_pattern":
		value, err := parseExpression(firstNamedChild(node), source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewStarredExpression(value), node), nil
	case "binary_operator":
		return parseBinaryOperator(node, source)
	case "boolean_operator":
		return parseBooleanOperator(node, source)
	case "not_operator":
		operand, err := parseExpression(node.ChildByFieldName("argument"), source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewUnaryExpression("not", operand), node), nil
	case "unary_operator":
		return parseUnaryOperator(node, source)
	case "comparison_operator":
		return parseComparisonOperator(node, source)
	case "lambda":
		return parseLambda(node, source)
	case "conditional_expression":
		return parseConditionalExpression(node, source)
	case "named_expression":
		return parseNamedExpression(node, source)
	case "await":
		operand, err := parseExpression(firstNamedChild(node), source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewAwaitExpression(operand), node), nil
	case "yield":
		return parseYield(node, source)
	case "call":
		return parseCall(node, source)
	case "attribute":
		return parseAttribute(node, source)
	case "subscript":
		return parseSubscript(node, source)
	case "parenthesized_expression":
		inner := firstNamedChild(node)
		if inner == nil {
			return nil, fmt.Errorf("parser: empty parenthesized expression")
		}
		return parseExpression(inner, source)
	case "list_comprehension":
		return parseComprehension(node, source, func(element ast.Expression, clauses []*ast.ComprehensionClause) ast.Expression {
			return ast.NewListComprehension(element, clauses)
		})
	case "set_comprehension":
		return parseComprehension(node, source, func(element ast.Expression, clauses []*ast.ComprehensionClause) ast.Expression {
			return ast.NewSetComprehension(element, clauses)
		})
	case "generator_expression":
		return parseComprehension(node, source, func(element ast.Expression, clauses []*ast.ComprehensionClause) ast.Expression {
			return ast.NewGeneratorExpression(element, clauses)
		})
	case "dictionary_comprehension":
		return parseDictComprehension(node, source)
	case "ellipsis":
		return nil, fmt.Errorf("parser: ellipsis literals are not supported")
	default:
		return nil, fmt.Errorf("parser: unsupported expression kind %q", node.Kind())
	}
}

func parseTupleLike(node *sitter.Node, source []byte) (ast.Expression, error) {
	children := namedChildren(node)
	elements := make([]ast.Expression, 0, len(children))
	for _, child := range children {
		element, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return annotateExpression(ast.NewTupleLiteral(elements), node), nil
}

func parseBinaryOperator(node *sitter.Node, source []byte) (ast.Expression, error) {
	left, err := parseExpression(node.ChildByFieldName("left"), source)
	if err != nil {
		return nil, err
	}
	right, err := parseExpression(node.ChildByFieldName("right"), source)
	if err != nil {
		return nil, err
	}
	opNode := node.ChildByFieldName("operator")
	if opNode == nil {
		return nil, fmt.Errorf("parser: binary expression missing operator")
	}
	operator := opNode.Kind()
	switch operator {
	case "+", "-", "*", "/", "//", "%", "**", "|", "&", "^", "<<", ">>":
	default:
		return nil, fmt.Errorf("parser: unsupported binary operator %q", operator)
	}
	return annotateExpression(ast.NewBinaryExpression(operator, left, right), node), nil
}

func parseBooleanOperator(node *sitter.Node, source []byte) (ast.Expression, error) {
	left, err := parseExpression(node.ChildByFieldName("left"), source)
	if err != nil {
		return nil, err
	}
	right, err := parseExpression(node.ChildByFieldName("right"), source)
	if err != nil {
		return nil, err
	}
	opNode := node.ChildByFieldName("operator")
	if opNode == nil {
		return nil, fmt.Errorf("parser: boolean expression missing operator")
	}
	return annotateExpression(ast.NewBinaryExpression(opNode.Kind(), left, right), node), nil
}

func parseUnaryOperator(node *sitter.Node, source []byte) (ast.Expression, error) {
	operand, err := parseExpression(node.ChildByFieldName("argument"), source)
	if err != nil {
		return nil, err
	}
	opNode := node.ChildByFieldName("operator")
	if opNode == nil {
		return nil, fmt.Errorf("parser: unary expression missing operator")
	}
	operator := opNode.Kind()
	switch operator {
	case "-", "+", "~":
	default:
		return nil, fmt.Errorf("parser: unsupported unary operator %q", operator)
	}
	return annotateExpression(ast.NewUnaryExpression(operator, operand), node), nil
}

// parseComparisonOperator builds the chained form a < b <= c. Operand nodes
// are named children; the operator tokens between them are anonymous.
func parseComparisonOperator(node *sitter.Node, source []byte) (ast.Expression, error) {
	var (
		operands  []ast.Expression
		operators []string
	)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || isIgnorableNode(child) {
			continue
		}
		if child.IsNamed() {
			operand, err := parseExpression(child, source)
			if err != nil {
				return nil, err
			}
			operands = append(operands, operand)
			continue
		}
		token := child.Kind()
		switch token {
		case "not":
			operators = append(operators, "not")
		case "in":
			if n := len(operators); n > 0 && operators[n-1] == "not" && len(operands) == n {
				operators[n-1] = "not in"
			} else {
				operators = append(operators, "in")
			}
		case "is":
			operators = append(operators, "is")
		case "not in", "is not", "<", "<=", ">", ">=", "==", "!=":
			operators = append(operators, token)
		default:
			return nil, fmt.Errorf("parser: unsupported comparison operator %q", token)
		}
	}

	// "is not" arrives as two tokens in some grammar versions.
	merged := operators[:0]
	for _, op := range operators {
		if op == "not" && len(merged) > 0 && merged[len(merged)-1] == "is" {
			merged[len(merged)-1] = "is not"
			continue
		}
		merged = append(merged, op)
	}
	operators = merged

	if len(operands) < 2 || len(operators) != len(operands)-1 {
		return nil, fmt.Errorf("parser: malformed comparison expression")
	}

	return annotateExpression(ast.NewCompareExpression(operands[0], operators, operands[1:]), node), nil
}

func parseLambda(node *sitter.Node, source []byte) (ast.Expression, error) {
	params, err := parseParameterList(node.ChildByFieldName("parameters"), source)
	if err != nil {
		return nil, err
	}
	body, err := parseExpression(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(ast.NewLambdaExpression(params, body), node), nil
}

func parseConditionalExpression(node *sitter.Node, source []byte) (ast.Expression, error) {
	children := namedChildren(node)
	if len(children) != 3 {
		return nil, fmt.Errorf("parser: malformed conditional expression")
	}
	then, err := parseExpression(children[0], source)
	if err != nil {
		return nil, err
	}
	condition, err := parseExpression(children[1], source)
	if err != nil {
		return nil, err
	}
	els, err := parseExpression(children[2], source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(ast.NewConditionalExpression(condition, then, els), node), nil
}

func parseNamedExpression(node *sitter.Node, source []byte) (ast.Expression, error) {
	name, err := identifierName(node.ChildByFieldName("name"), source)
	if err != nil {
		return nil, fmt.Errorf("parser: walrus target must be a name")
	}
	value, err := parseExpression(node.ChildByFieldName("value"), source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(ast.NewNamedExpression(ast.NewIdentifier(name), value), node), nil
}

func parseYield(node *sitter.Node, source []byte) (ast.Expression, error) {
	isFrom := hasAnonymousChild(node, "from")

	var value ast.Expression
	if child := firstNamedChild(node); child != nil {
		expr, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		value = expr
	}
	if isFrom && value == nil {
		return nil, fmt.Errorf("parser: yield from missing iterable")
	}

	return annotateExpression(ast.NewYieldExpression(value, isFrom), node), nil
}

func parseCall(node *sitter.Node, source []byte) (ast.Expression, error) {
	fn, err := parseExpression(node.ChildByFieldName("function"), source)
	if err != nil {
		return nil, err
	}

	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil {
		return annotateExpression(ast.NewCallExpression(fn, nil), node), nil
	}

	// sum(x for x in it) passes a bare generator expression.
	if argsNode.Kind() == "generator_expression" {
		gen, err := parseExpression(argsNode, source)
		if err != nil {
			return nil, err
		}
		return annotateExpression(ast.NewCallExpression(fn, []*ast.Argument{ast.NewArgument("", gen)}), node), nil
	}

	var args []*ast.Argument
	for _, child := range namedChildren(argsNode) {
		switch child.Kind() {
		case "keyword_argument":
			name, err := identifierName(child.ChildByFieldName("name"), source)
			if err != nil {
				return nil, err
			}
			value, err := parseExpression(child.ChildByFieldName("value"), source)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.NewArgument(name, value))
		case "list_splat":
			value, err := parseExpression(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.NewStarArgument(value))
		case "dictionary_splat":
			value, err := parseExpression(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.NewDoubleStarArgument(value))
		default:
			value, err := parseExpression(child, source)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.NewArgument("", value))
		}
	}

	return annotateExpression(ast.NewCallExpression(fn, args), node), nil
}

func parseAttribute(node *sitter.Node, source []byte) (ast.Expression, error) {
	object, err := parseExpression(node.ChildByFieldName("object"), source)
	if err != nil {
		return nil, err
	}
	attribute, err := identifierName(node.ChildByFieldName("attribute"), source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(ast.NewAttributeExpression(object, attribute), node), nil
}

func parseSubscript(node *sitter.Node, source []byte) (ast.Expression, error) {
	object, err := parseExpression(node.ChildByFieldName("value"), source)
	if err != nil {
		return nil, err
	}

	var indexes []ast.Expression
	for _, child := range namedChildren(node) {
		if valueNode := node.ChildByFieldName("value"); valueNode != nil && sameNode(child, valueNode) {
			continue
		}
		var index ast.Expression
		if child.Kind() == "slice" {
			index, err = parseSlice(child, source)
		} else {
			index, err = parseExpression(child, source)
		}
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}

	if len(indexes) == 0 {
		return nil, fmt.Errorf("parser: subscript missing index")
	}

	index := indexes[0]
	if len(indexes) > 1 {
		index = ast.NewTupleLiteral(indexes)
	}
	return annotateExpression(ast.NewSubscriptExpression(object, index), node), nil
}

// parseSlice buckets the optional bound expressions by the colons around
// them; the slice node itself carries no field names.
func parseSlice(node *sitter.Node, source []byte) (ast.Expression, error) {
	var bounds [3]ast.Expression
	colons := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || isIgnorableNode(child) {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == ":" {
				colons++
			}
			continue
		}
		if colons > 2 {
			return nil, fmt.Errorf("parser: malformed slice expression")
		}
		expr, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		bounds[colons] = expr
	}
	return annotateExpression(ast.NewSliceExpression(bounds[0], bounds[1], bounds[2]), node), nil
}

func parseComprehension(node *sitter.Node, source []byte, build func(ast.Expression, []*ast.ComprehensionClause) ast.Expression) (ast.Expression, error) {
	element, err := parseExpression(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}
	clauses, err := parseComprehensionClauses(node, source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(build(element, clauses), node), nil
}

func parseDictComprehension(node *sitter.Node, source []byte) (ast.Expression, error) {
	pair := node.ChildByFieldName("body")
	if pair == nil || pair.Kind() != "pair" {
		return nil, fmt.Errorf("parser: dict comprehension missing key/value pair")
	}
	key, err := parseExpression(pair.ChildByFieldName("key"), source)
	if err != nil {
		return nil, err
	}
	value, err := parseExpression(pair.ChildByFieldName("value"), source)
	if err != nil {
		return nil, err
	}
	clauses, err := parseComprehensionClauses(node, source)
	if err != nil {
		return nil, err
	}
	return annotateExpression(ast.NewDictComprehension(key, value, clauses), node), nil
}

// parseComprehensionClauses folds trailing if clauses into the preceding
// for clause, matching how they guard iteration.
func parseComprehensionClauses(node *sitter.Node, source []byte) ([]*ast.ComprehensionClause, error) {
	var clauses []*ast.ComprehensionClause
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "for_in_clause":
			target, err := parseExpression(child.ChildByFieldName("left"), source)
			if err != nil {
				return nil, err
			}
			iterable, err := parseExpression(child.ChildByFieldName("right"), source)
			if err != nil {
				return nil, err
			}
			isAsync := hasAnonymousChild(child, "async")
			clause := ast.NewComprehensionClause(target, iterable, nil, isAsync)
			annotateSpan(clause, child)
			clauses = append(clauses, clause)
		case "if_clause":
			if len(clauses) == 0 {
				return nil, fmt.Errorf("parser: comprehension condition before any for clause")
			}
			condition, err := parseExpression(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			last := clauses[len(clauses)-1]
			last.Conditions = append(last.Conditions, condition)
		}
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("parser: comprehension without for clause")
	}
	return clauses, nil
}
