package parser

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
)

func parseStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: nil statement node")
	}

	switch node.Kind() {
	case "expression_statement":
		return parseExpressionStatement(node, source)
	case "function_definition":
		return parseFunctionDefinition(node, source)
	case "class_definition":
		return parseClassDefinition(node, source)
	case "decorated_definition":
		return nil, fmt.Errorf("parser: decorators are not supported")
	case "return_statement":
		if value := firstNamedChild(node); value != nil {
			expr, err := parseExpression(value, source)
			if err != nil {
				return nil, err
			}
			return annotateStatement(ast.NewReturnStatement(expr), node), nil
		}
		return annotateStatement(ast.NewReturnStatement(nil), node), nil
	case "pass_statement":
		return annotateStatement(ast.NewPassStatement(), node), nil
	case "break_statement":
		return annotateStatement(ast.NewBreakStatement(), node), nil
	case "continue_statement":
		return annotateStatement(ast.NewContinueStatement(), node), nil
	case "if_statement":
		return parseIfStatement(node, source)
	case "while_statement":
		return parseWhileStatement(node, source)
	case "for_statement":
		return parseForStatement(node, source)
	case "try_statement":
		return parseTryStatement(node, source)
	case "raise_statement":
		return parseRaiseStatement(node, source)
	case "with_statement":
		return parseWithStatement(node, source)
	case "match_statement":
		return parseMatchStatement(node, source)
	case "import_statement":
		return parseImportStatement(node, source)
	case "import_from_statement":
		return parseImportFromStatement(node, source)
	case "future_import_statement":
		return nil, fmt.Errorf("parser: __future__ imports are not supported")
	case "global_statement":
		names, err := parseNameList(node, source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewGlobalStatement(names), node), nil
	case "nonlocal_statement":
		names, err := parseNameList(node, source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewNonlocalStatement(names), node), nil
	case "assert_statement":
		return parseAssertStatement(node, source)
	case "delete_statement":
		return parseDeleteStatement(node, source)
	default:
		return nil, fmt.Errorf("parser: unsupported statement kind %q", node.Kind())
	}
}

// parseSuite converts the body of a compound statement.
func parseSuite(node *sitter.Node, source []byte) ([]ast.Statement, error) {
	if node == nil {
		return nil, nil
	}

	statements := make([]ast.Statement, 0, node.NamedChildCount())
	for _, child := range namedChildren(node) {
		stmt, err := parseStatement(child, source)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}
	return statements, nil
}

func parseExpressionStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	child := firstNamedChild(node)
	if child == nil {
		return nil, fmt.Errorf("parser: empty expression statement")
	}

	switch child.Kind() {
	case "assignment":
		return parseAssignment(child, node, source)
	case "augmented_assignment":
		return parseAugmentedAssignment(child, node, source)
	default:
		expr, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewExpressionStatement(expr), node), nil
	}
}

// parseAssignment flattens chained assignments like a = b = v into a single
// multi-target node. Annotation-only statements bind nothing at run time.
func parseAssignment(node, stmtNode *sitter.Node, source []byte) (ast.Statement, error) {
	var targets []ast.Expression

	current := node
	for {
		left := current.ChildByFieldName("left")
		if left == nil {
			return nil, fmt.Errorf("parser: assignment missing target")
		}
		target, err := parseExpression(left, source)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)

		right := current.ChildByFieldName("right")
		if right == nil {
			// x: int with no value.
			return nil, nil
		}
		if right.Kind() == "assignment" {
			current = right
			continue
		}
		value, err := parseExpression(right, source)
		if err != nil {
			return nil, err
		}
		return annotateStatement(ast.NewAssignment(targets, value), stmtNode), nil
	}
}

func parseAugmentedAssignment(node, stmtNode *sitter.Node, source []byte) (ast.Statement, error) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	opNode := node.ChildByFieldName("operator")
	if left == nil || right == nil || opNode == nil {
		return nil, fmt.Errorf("parser: malformed augmented assignment")
	}

	target, err := parseExpression(left, source)
	if err != nil {
		return nil, err
	}
	value, err := parseExpression(right, source)
	if err != nil {
		return nil, err
	}

	operator := strings.TrimSuffix(opNode.Kind(), "=")
	switch operator {
	case "+", "-", "*", "/", "//", "%", "**", "|", "&", "^", "<<", ">>":
	default:
		return nil, fmt.Errorf("parser: unsupported augmented operator %q", opNode.Kind())
	}

	return annotateStatement(ast.NewAugmentedAssignment(target, operator, value), stmtNode), nil
}

func parseFunctionDefinition(node *sitter.Node, source []byte) (ast.Statement, error) {
	name, err := identifierName(node.ChildByFieldName("name"), source)
	if err != nil {
		return nil, err
	}

	params, err := parseParameterList(node.ChildByFieldName("parameters"), source)
	if err != nil {
		return nil, err
	}

	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}

	isAsync := hasAnonymousChild(node, "async")
	return annotateStatement(ast.NewFunctionDefinition(name, params, body, isAsync), node), nil
}

func parseParameterList(node *sitter.Node, source []byte) (*ast.ParameterList, error) {
	if node == nil {
		return ast.NewParameterList(nil, nil, nil, nil), nil
	}

	var (
		positional []*ast.Parameter
		varArg     *ast.Parameter
		kwOnly     []*ast.Parameter
		kwArg      *ast.Parameter
		afterStar  bool
	)

	appendParam := func(param *ast.Parameter) {
		if afterStar {
			kwOnly = append(kwOnly, param)
		} else {
			positional = append(positional, param)
		}
	}

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "identifier":
			name, err := identifierName(child, source)
			if err != nil {
				return nil, err
			}
			appendParam(ast.NewParameter(name, nil))
		case "default_parameter":
			name, err := identifierName(child.ChildByFieldName("name"), source)
			if err != nil {
				return nil, err
			}
			def, err := parseExpression(child.ChildByFieldName("value"), source)
			if err != nil {
				return nil, err
			}
			appendParam(ast.NewParameter(name, def))
		case "typed_parameter":
			inner := firstNamedChild(child)
			if inner != nil && inner.Kind() == "list_splat_pattern" {
				name, err := identifierName(firstNamedChild(inner), source)
				if err != nil {
					return nil, err
				}
				varArg = ast.NewParameter(name, nil)
				afterStar = true
				continue
			}
			if inner != nil && inner.Kind() == "dictionary_splat_pattern" {
				name, err := identifierName(firstNamedChild(inner), source)
				if err != nil {
					return nil, err
				}
				kwArg = ast.NewParameter(name, nil)
				continue
			}
			name, err := identifierName(inner, source)
			if err != nil {
				return nil, err
			}
			appendParam(ast.NewParameter(name, nil))
		case "typed_default_parameter":
			name, err := identifierName(child.ChildByFieldName("name"), source)
			if err != nil {
				return nil, err
			}
			def, err := parseExpression(child.ChildByFieldName("value"), source)
			if err != nil {
				return nil, err
			}
			appendParam(ast.NewParameter(name, def))
		case "list_splat_pattern":
			name, err := identifierName(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			varArg = ast.NewParameter(name, nil)
			afterStar = true
		case "dictionary_splat_pattern":
			name, err := identifierName(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			kwArg = ast.NewParameter(name, nil)
		case "keyword_separator":
			afterStar = true
		case "positional_separator":
			// / markers carry no binding information here.
		default:
			return nil, fmt.Errorf("parser: unsupported parameter kind %q", child.Kind())
		}
	}

	return ast.NewParameterList(positional, varArg, kwOnly, kwArg), nil
}

func parseClassDefinition(node *sitter.Node, source []byte) (ast.Statement, error) {
	name, err := identifierName(node.ChildByFieldName("name"), source)
	if err != nil {
		return nil, err
	}

	var bases []ast.Expression
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, child := range namedChildren(supers) {
			if child.Kind() == "keyword_argument" {
				return nil, fmt.Errorf("parser: keyword arguments in class bases are not supported")
			}
			base, err := parseExpression(child, source)
			if err != nil {
				return nil, err
			}
			bases = append(bases, base)
		}
	}

	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}

	return annotateStatement(ast.NewClassDefinition(name, bases, body), node), nil
}

func parseIfStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	condition, err := parseExpression(node.ChildByFieldName("condition"), source)
	if err != nil {
		return nil, err
	}
	body, err := parseSuite(node.ChildByFieldName("consequence"), source)
	if err != nil {
		return nil, err
	}

	// elif chains become nested if statements, innermost first.
	var elifs []*sitter.Node
	var elseBody []ast.Statement
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "elif_clause":
			elifs = append(elifs, child)
		case "else_clause":
			elseBody, err = parseSuite(child.ChildByFieldName("body"), source)
			if err != nil {
				return nil, err
			}
		}
	}

	tail := elseBody
	for i := len(elifs) - 1; i >= 0; i-- {
		clause := elifs[i]
		elifCond, err := parseExpression(clause.ChildByFieldName("condition"), source)
		if err != nil {
			return nil, err
		}
		elifBody, err := parseSuite(clause.ChildByFieldName("consequence"), source)
		if err != nil {
			return nil, err
		}
		nested := ast.NewIfStatement(elifCond, elifBody, tail)
		annotateSpan(nested, clause)
		tail = []ast.Statement{nested}
	}

	return annotateStatement(ast.NewIfStatement(condition, body, tail), node), nil
}

func parseWhileStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	condition, err := parseExpression(node.ChildByFieldName("condition"), source)
	if err != nil {
		return nil, err
	}
	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}
	els, err := parseElseClause(node, source)
	if err != nil {
		return nil, err
	}
	return annotateStatement(ast.NewWhileStatement(condition, body, els), node), nil
}

func parseForStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	target, err := parseExpression(node.ChildByFieldName("left"), source)
	if err != nil {
		return nil, err
	}
	iterable, err := parseExpression(node.ChildByFieldName("right"), source)
	if err != nil {
		return nil, err
	}
	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}
	els, err := parseElseClause(node, source)
	if err != nil {
		return nil, err
	}
	isAsync := hasAnonymousChild(node, "async")
	return annotateStatement(ast.NewForStatement(target, iterable, body, els, isAsync), node), nil
}

func parseElseClause(node *sitter.Node, source []byte) ([]ast.Statement, error) {
	for _, child := range namedChildren(node) {
		if child.Kind() == "else_clause" {
			return parseSuite(child.ChildByFieldName("body"), source)
		}
	}
	return nil, nil
}

func parseTryStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}

	var (
		handlers []*ast.ExceptHandler
		isGroup  bool
		els      []ast.Statement
		finally  []ast.Statement
	)

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "except_clause":
			handler, err := parseExceptClause(child, source)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, handler)
		case "except_group_clause":
			handler, err := parseExceptClause(child, source)
			if err != nil {
				return nil, err
			}
			if len(handler.Types) == 0 {
				return nil, fmt.Errorf("parser: except* requires an exception type")
			}
			handlers = append(handlers, handler)
			isGroup = true
		case "else_clause":
			els, err = parseSuite(child.ChildByFieldName("body"), source)
			if err != nil {
				return nil, err
			}
		case "finally_clause":
			finally, err = parseSuite(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
		}
	}

	if isGroup {
		for _, handler := range handlers {
			if len(handler.Types) == 0 {
				return nil, fmt.Errorf("parser: cannot mix except and except* handlers")
			}
		}
	}

	return annotateStatement(ast.NewTryStatement(body, handlers, isGroup, els, finally), node), nil
}

// parseExceptClause handles both except and except* clauses. The named
// children are the optional type expression, the optional alias, and the
// handler body.
func parseExceptClause(node *sitter.Node, source []byte) (*ast.ExceptHandler, error) {
	children := namedChildren(node)
	if len(children) == 0 {
		return nil, fmt.Errorf("parser: empty except clause")
	}

	bodyNode := children[len(children)-1]
	body, err := parseSuite(bodyNode, source)
	if err != nil {
		return nil, err
	}

	var types []ast.Expression
	var name string

	if len(children) >= 2 {
		typeExpr, err := parseExpression(children[0], source)
		if err != nil {
			return nil, err
		}
		// except (A, B) lists alternatives in one tuple.
		if tup, ok := typeExpr.(*ast.TupleLiteral); ok {
			types = tup.Elements
		} else {
			types = []ast.Expression{typeExpr}
		}
	}
	if len(children) >= 3 {
		name, err = identifierName(children[1], source)
		if err != nil {
			return nil, err
		}
	}

	handler := ast.NewExceptHandler(types, name, body)
	annotateSpan(handler, node)
	return handler, nil
}

func parseRaiseStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	var cause ast.Expression
	if causeNode := node.ChildByFieldName("cause"); causeNode != nil {
		expr, err := parseExpression(causeNode, source)
		if err != nil {
			return nil, err
		}
		cause = expr
	}

	var value ast.Expression
	for _, child := range namedChildren(node) {
		if causeNode := node.ChildByFieldName("cause"); causeNode != nil && sameNode(child, causeNode) {
			continue
		}
		expr, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		value = expr
		break
	}

	return annotateStatement(ast.NewRaiseStatement(value, cause), node), nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func parseWithStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	clause := node.ChildByFieldName("clause")
	if clause == nil {
		for _, child := range namedChildren(node) {
			if child.Kind() == "with_clause" {
				clause = child
				break
			}
		}
	}
	if clause == nil {
		return nil, fmt.Errorf("parser: with statement missing clause")
	}

	var items []*ast.WithItem
	for _, child := range namedChildren(clause) {
		if child.Kind() != "with_item" {
			continue
		}
		item, err := parseWithItem(child, source)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("parser: with statement without items")
	}

	body, err := parseSuite(node.ChildByFieldName("body"), source)
	if err != nil {
		return nil, err
	}

	isAsync := hasAnonymousChild(node, "async")
	return annotateStatement(ast.NewWithStatement(items, body, isAsync), node), nil
}

func parseWithItem(node *sitter.Node, source []byte) (*ast.WithItem, error) {
	value := node.ChildByFieldName("value")
	if value == nil {
		value = firstNamedChild(node)
	}
	if value == nil {
		return nil, fmt.Errorf("parser: empty with item")
	}

	// with ctx as name arrives as an as_pattern around the context.
	if value.Kind() == "as_pattern" {
		contextNode := firstNamedChild(value)
		context, err := parseExpression(contextNode, source)
		if err != nil {
			return nil, err
		}
		aliasNode := value.ChildByFieldName("alias")
		if aliasNode == nil {
			return nil, fmt.Errorf("parser: with item alias missing target")
		}
		if inner := firstNamedChild(aliasNode); inner != nil {
			aliasNode = inner
		}
		alias, err := parseExpression(aliasNode, source)
		if err != nil {
			return nil, err
		}
		item := ast.NewWithItem(context, alias)
		annotateSpan(item, node)
		return item, nil
	}

	context, err := parseExpression(value, source)
	if err != nil {
		return nil, err
	}
	item := ast.NewWithItem(context, nil)
	annotateSpan(item, node)
	return item, nil
}

func parseImportStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	var modules []*ast.ImportAlias
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			modules = append(modules, ast.NewImportAlias(sliceContent(child, source), ""))
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			alias, err := identifierName(aliasNode, source)
			if err != nil {
				return nil, err
			}
			modules = append(modules, ast.NewImportAlias(sliceContent(nameNode, source), alias))
		default:
			return nil, fmt.Errorf("parser: unsupported import form %q", child.Kind())
		}
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("parser: empty import statement")
	}
	return annotateStatement(ast.NewImportStatement(modules), node), nil
}

func parseImportFromStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil, fmt.Errorf("parser: from import missing module")
	}
	if moduleNode.Kind() == "relative_import" {
		return nil, fmt.Errorf("parser: relative imports are not supported")
	}
	module := sliceContent(moduleNode, source)

	var names []*ast.ImportAlias
	for _, child := range namedChildren(node) {
		if sameNode(child, moduleNode) {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			names = append(names, ast.NewImportAlias(sliceContent(child, source), ""))
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			alias, err := identifierName(aliasNode, source)
			if err != nil {
				return nil, err
			}
			names = append(names, ast.NewImportAlias(sliceContent(nameNode, source), alias))
		case "wildcard_import":
			return nil, fmt.Errorf("parser: wildcard imports are not supported")
		default:
			return nil, fmt.Errorf("parser: unsupported from import form %q", child.Kind())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("parser: from import without names")
	}
	return annotateStatement(ast.NewImportFromStatement(module, names), node), nil
}

func parseNameList(node *sitter.Node, source []byte) ([]string, error) {
	children := namedChildren(node)
	if len(children) == 0 {
		return nil, fmt.Errorf("parser: %s without names", node.Kind())
	}
	names := make([]string, 0, len(children))
	for _, child := range children {
		name, err := identifierName(child, source)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func parseAssertStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	children := namedChildren(node)
	if len(children) == 0 {
		return nil, fmt.Errorf("parser: empty assert statement")
	}
	condition, err := parseExpression(children[0], source)
	if err != nil {
		return nil, err
	}
	var message ast.Expression
	if len(children) > 1 {
		message, err = parseExpression(children[1], source)
		if err != nil {
			return nil, err
		}
	}
	return annotateStatement(ast.NewAssertStatement(condition, message), node), nil
}

func parseDeleteStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	var targets []ast.Expression
	for _, child := range namedChildren(node) {
		if child.Kind() == "expression_list" {
			for _, el := range namedChildren(child) {
				target, err := parseExpression(el, source)
				if err != nil {
					return nil, err
				}
				targets = append(targets, target)
			}
			continue
		}
		target, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("parser: del without targets")
	}
	return annotateStatement(ast.NewDeleteStatement(targets), node), nil
}
