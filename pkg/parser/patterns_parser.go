package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
)

func parseMatchStatement(node *sitter.Node, source []byte) (ast.Statement, error) {
	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil {
		return nil, fmt.Errorf("parser: match statement missing body")
	}

	var subjects []ast.Expression
	for _, child := range namedChildren(node) {
		if sameNode(child, bodyNode) {
			continue
		}
		subject, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("parser: match statement missing subject")
	}
	subject := subjects[0]
	if len(subjects) > 1 {
		subject = ast.NewTupleLiteral(subjects)
	}

	var cases []*ast.MatchCase
	for _, child := range namedChildren(bodyNode) {
		if child.Kind() != "case_clause" {
			continue
		}
		matchCase, err := parseCaseClause(child, source)
		if err != nil {
			return nil, err
		}
		cases = append(cases, matchCase)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("parser: match statement without cases")
	}

	return annotateStatement(ast.NewMatchStatement(subject, cases), node), nil
}

func parseCaseClause(node *sitter.Node, source []byte) (*ast.MatchCase, error) {
	var (
		patterns []ast.Pattern
		guard    ast.Expression
		body     []ast.Statement
		err      error
	)

	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "case_pattern":
			pattern, perr := parseCasePattern(child, source)
			if perr != nil {
				return nil, perr
			}
			patterns = append(patterns, pattern)
		case "if_clause":
			guard, err = parseExpression(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
		case "block":
			body, err = parseSuite(child, source)
			if err != nil {
				return nil, err
			}
		}
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("parser: case clause without pattern")
	}

	// case a, b: is an open sequence pattern.
	pattern := patterns[0]
	if len(patterns) > 1 {
		pattern = ast.NewSequencePattern(patterns)
	}

	matchCase := ast.NewMatchCase(pattern, guard, body)
	annotateSpan(matchCase, node)
	return matchCase, nil
}

// parseCasePattern unwraps the case_pattern node. A bare underscore has no
// named child; negative number literals carry a leading anonymous minus.
func parseCasePattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: nil pattern node")
	}
	if node.Kind() != "case_pattern" {
		return parsePatternNode(node, source)
	}

	inner := firstNamedChild(node)
	if inner == nil {
		if sliceContent(node, source) == "_" {
			return annotatePattern(ast.NewWildcardPattern(), node), nil
		}
		return nil, fmt.Errorf("parser: empty case pattern")
	}

	if hasAnonymousChild(node, "-") {
		value, err := parseNegativeLiteral(inner, source)
		if err != nil {
			return nil, err
		}
		return annotatePattern(ast.NewValuePattern(value), node), nil
	}

	return parsePatternNode(inner, source)
}

func parsePatternNode(node *sitter.Node, source []byte) (ast.Pattern, error) {
	switch node.Kind() {
	case "case_pattern":
		return parseCasePattern(node, source)
	case "as_pattern":
		return parseAsPattern(node, source)
	case "union_pattern":
		return parseUnionPattern(node, source)
	case "list_pattern", "tuple_pattern":
		return parseSequencePattern(node, source)
	case "splat_pattern":
		return parseSplatPattern(node, source)
	case "dict_pattern":
		return parseDictPattern(node, source)
	case "class_pattern":
		return parseClassPattern(node, source)
	case "dotted_name":
		return parseDottedNamePattern(node, source)
	case "identifier":
		name, err := identifierName(node, source)
		if err != nil {
			return nil, err
		}
		if name == "_" {
			return annotatePattern(ast.NewWildcardPattern(), node), nil
		}
		return annotatePattern(ast.NewCapturePattern(name), node), nil
	case "string", "concatenated_string", "integer", "float", "true", "false", "none":
		value, err := parseExpression(node, source)
		if err != nil {
			return nil, err
		}
		return annotatePattern(ast.NewValuePattern(value), node), nil
	case "keyword_pattern":
		return nil, fmt.Errorf("parser: keyword pattern outside class pattern")
	default:
		return nil, fmt.Errorf("parser: unsupported pattern kind %q", node.Kind())
	}
}

func parseAsPattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	inner, err := parseCasePattern(firstNamedChild(node), source)
	if err != nil {
		return nil, err
	}
	aliasNode := node.ChildByFieldName("alias")
	if aliasNode == nil {
		children := namedChildren(node)
		if len(children) < 2 {
			return nil, fmt.Errorf("parser: as pattern missing name")
		}
		aliasNode = children[len(children)-1]
	}
	if child := firstNamedChild(aliasNode); child != nil && aliasNode.Kind() != "identifier" {
		aliasNode = child
	}
	name, err := identifierName(aliasNode, source)
	if err != nil {
		return nil, err
	}
	return annotatePattern(ast.NewAsPattern(inner, name), node), nil
}

func parseUnionPattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	children := namedChildren(node)
	if len(children) < 2 {
		return nil, fmt.Errorf("parser: union pattern needs alternatives")
	}
	alternatives := make([]ast.Pattern, 0, len(children))
	for _, child := range children {
		alt, err := parseCasePattern(child, source)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, alt)
	}
	return annotatePattern(ast.NewOrPattern(alternatives), node), nil
}

func parseSequencePattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	children := namedChildren(node)
	elements := make([]ast.Pattern, 0, len(children))
	for _, child := range children {
		element, err := parseCasePattern(child, source)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return annotatePattern(ast.NewSequencePattern(elements), node), nil
}

func parseSplatPattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	name := ""
	if child := firstNamedChild(node); child != nil {
		var err error
		name, err = identifierName(child, source)
		if err != nil {
			return nil, err
		}
		if name == "_" {
			name = ""
		}
	}
	return annotatePattern(ast.NewStarPattern(name), node), nil
}

// parseDictPattern walks {key: value, **rest} pairwise: each key pattern is
// followed by its value pattern.
func parseDictPattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	var entries []*ast.MappingPatternEntry
	rest := ""

	var pendingKey ast.Expression
	for _, child := range namedChildren(node) {
		if child.Kind() == "splat_pattern" {
			if inner := firstNamedChild(child); inner != nil {
				name, err := identifierName(inner, source)
				if err != nil {
					return nil, err
				}
				rest = name
			}
			continue
		}
		if pendingKey == nil {
			key, err := parsePatternKey(child, source)
			if err != nil {
				return nil, err
			}
			pendingKey = key
			continue
		}
		value, err := parseCasePattern(child, source)
		if err != nil {
			return nil, err
		}
		entry := ast.NewMappingPatternEntry(pendingKey, value)
		annotateSpan(entry, child)
		entries = append(entries, entry)
		pendingKey = nil
	}
	if pendingKey != nil {
		return nil, fmt.Errorf("parser: mapping pattern key without value")
	}

	return annotatePattern(ast.NewMappingPattern(entries, rest), node), nil
}

func parsePatternKey(node *sitter.Node, source []byte) (ast.Expression, error) {
	switch node.Kind() {
	case "string", "concatenated_string", "integer", "float", "true", "false", "none":
		return parseExpression(node, source)
	case "dotted_name":
		return dottedNameExpression(node, source)
	default:
		return nil, fmt.Errorf("parser: unsupported mapping pattern key %q", node.Kind())
	}
}

func parseClassPattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	children := namedChildren(node)
	if len(children) == 0 {
		return nil, fmt.Errorf("parser: class pattern missing class")
	}

	class, err := dottedNameExpression(children[0], source)
	if err != nil {
		return nil, err
	}

	var positional []ast.Pattern
	var keyword []*ast.KeywordPattern
	for _, child := range children[1:] {
		if child.Kind() == "keyword_pattern" {
			inner := namedChildren(child)
			if len(inner) != 2 {
				return nil, fmt.Errorf("parser: malformed keyword pattern")
			}
			name, err := identifierName(inner[0], source)
			if err != nil {
				return nil, err
			}
			value, err := parseCasePattern(inner[1], source)
			if err != nil {
				return nil, err
			}
			kw := ast.NewKeywordPattern(name, value)
			annotateSpan(kw, child)
			keyword = append(keyword, kw)
			continue
		}
		if len(keyword) > 0 {
			return nil, fmt.Errorf("parser: positional pattern after keyword pattern")
		}
		pattern, err := parseCasePattern(child, source)
		if err != nil {
			return nil, err
		}
		positional = append(positional, pattern)
	}

	return annotatePattern(ast.NewClassPattern(class, positional, keyword), node), nil
}

// dottedNameExpression turns a.b.c into an attribute chain; a bare name
// stays an identifier.
func dottedNameExpression(node *sitter.Node, source []byte) (ast.Expression, error) {
	if node == nil {
		return nil, fmt.Errorf("parser: nil dotted name")
	}
	if node.Kind() == "identifier" {
		name, err := identifierName(node, source)
		if err != nil {
			return nil, err
		}
		return ast.NewIdentifier(name), nil
	}
	if node.Kind() != "dotted_name" {
		return nil, fmt.Errorf("parser: expected dotted name, found %q", node.Kind())
	}

	parts := namedChildren(node)
	if len(parts) == 0 {
		return nil, fmt.Errorf("parser: empty dotted name")
	}
	name, err := identifierName(parts[0], source)
	if err != nil {
		return nil, err
	}
	var expr ast.Expression = ast.NewIdentifier(name)
	for _, part := range parts[1:] {
		attr, err := identifierName(part, source)
		if err != nil {
			return nil, err
		}
		expr = ast.NewAttributeExpression(expr, attr)
	}
	annotateSpan(expr, node)
	return expr, nil
}

// parseDottedNamePattern follows guest semantics: a bare name captures, a
// dotted name compares against the named value.
func parseDottedNamePattern(node *sitter.Node, source []byte) (ast.Pattern, error) {
	parts := namedChildren(node)
	if len(parts) == 1 {
		name, err := identifierName(parts[0], source)
		if err != nil {
			return nil, err
		}
		if name == "_" {
			return annotatePattern(ast.NewWildcardPattern(), node), nil
		}
		return annotatePattern(ast.NewCapturePattern(name), node), nil
	}
	value, err := dottedNameExpression(node, source)
	if err != nil {
		return nil, err
	}
	return annotatePattern(ast.NewValuePattern(value), node), nil
}

func parseNegativeLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	value, err := parseExpression(node, source)
	if err != nil {
		return nil, err
	}
	switch lit := value.(type) {
	case *ast.IntegerLiteral:
		return ast.NewIntegerLiteral(lit.Value.Neg(lit.Value)), nil
	case *ast.FloatLiteral:
		return ast.NewFloatLiteral(-lit.Value), nil
	default:
		return nil, fmt.Errorf("parser: minus sign requires a number pattern")
	}
}
