package parser

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
)

func parseIntegerLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	text := sliceContent(node, source)
	if text == "" {
		return nil, fmt.Errorf("parser: empty integer literal")
	}
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		return nil, fmt.Errorf("parser: complex literals are not supported")
	}
	value := new(big.Int)
	if _, ok := value.SetString(text, 0); !ok {
		return nil, fmt.Errorf("parser: invalid integer literal %q", text)
	}
	return annotateExpression(ast.NewIntegerLiteral(value), node), nil
}

func parseFloatLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	text := sliceContent(node, source)
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		return nil, fmt.Errorf("parser: complex literals are not supported")
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid float literal %q", text)
	}
	return annotateExpression(ast.NewFloatLiteral(value), node), nil
}

// parseStringNode handles plain, raw, and formatted strings. Byte strings
// have no guest representation and are rejected.
func parseStringNode(node *sitter.Node, source []byte) (ast.Expression, error) {
	prefix := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "string_start" {
			prefix = strings.ToLower(strings.TrimRight(sliceContent(child, source), `"'`))
			break
		}
	}
	if strings.Contains(prefix, "b") {
		return nil, fmt.Errorf("parser: bytes literals are not supported")
	}
	isRaw := strings.Contains(prefix, "r")
	isFormatted := strings.Contains(prefix, "f")

	var parts []ast.Expression
	var literal strings.Builder

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string_content":
			literal.WriteString(decodeStringContent(sliceContent(child, source), isRaw, isFormatted))
		case "interpolation":
			if !isFormatted {
				return nil, fmt.Errorf("parser: interpolation outside f-string")
			}
			if child.ChildByFieldName("format_specifier") != nil || child.ChildByFieldName("type_conversion") != nil {
				return nil, fmt.Errorf("parser: f-string format specifiers are not supported")
			}
			expr, err := parseExpression(child.ChildByFieldName("expression"), source)
			if err != nil {
				return nil, err
			}
			if literal.Len() > 0 {
				parts = append(parts, ast.NewStringLiteral(literal.String()))
				literal.Reset()
			}
			parts = append(parts, expr)
		}
	}

	if !isFormatted {
		return annotateExpression(ast.NewStringLiteral(literal.String()), node), nil
	}
	if literal.Len() > 0 {
		parts = append(parts, ast.NewStringLiteral(literal.String()))
	}
	return annotateExpression(ast.NewFormattedString(parts), node), nil
}

func parseConcatenatedString(node *sitter.Node, source []byte) (ast.Expression, error) {
	var literals []string
	var parts []ast.Expression
	formatted := false

	for _, child := range namedChildren(node) {
		expr, err := parseStringNode(child, source)
		if err != nil {
			return nil, err
		}
		switch lit := expr.(type) {
		case *ast.StringLiteral:
			literals = append(literals, lit.Value)
			parts = append(parts, lit)
		case *ast.FormattedString:
			formatted = true
			parts = append(parts, lit.Parts...)
		}
	}

	if !formatted {
		return annotateExpression(ast.NewStringLiteral(strings.Join(literals, "")), node), nil
	}
	return annotateExpression(ast.NewFormattedString(parts), node), nil
}

// decodeStringContent expands escape sequences the way the guest language
// does: unknown escapes keep their backslash, and doubled braces inside
// f-strings collapse to a single brace.
func decodeStringContent(raw string, isRaw, inFString bool) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inFString && (c == '{' || c == '}') && i+1 < len(raw) && raw[i+1] == c {
			b.WriteByte(c)
			i++
			continue
		}
		if c != '\\' || isRaw || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// Line continuation inside a string drops the newline.
		case 'x':
			if i+2 < len(raw) {
				if v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		case 'u':
			if i+4 < len(raw) {
				if v, err := strconv.ParseUint(raw[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		case 'U':
			if i+8 < len(raw) {
				if v, err := strconv.ParseUint(raw[i+1:i+9], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 8
					continue
				}
			}
			b.WriteString(`\U`)
		default:
			b.WriteByte('\\')
			b.WriteByte(raw[i])
		}
	}

	return b.String()
}

func parseListLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	children := namedChildren(node)
	elements := make([]ast.Expression, 0, len(children))
	for _, child := range children {
		element, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return annotateExpression(ast.NewListLiteral(elements), node), nil
}

func parseSetLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	children := namedChildren(node)
	elements := make([]ast.Expression, 0, len(children))
	for _, child := range children {
		element, err := parseExpression(child, source)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return annotateExpression(ast.NewSetLiteral(elements), node), nil
}

func parseDictLiteral(node *sitter.Node, source []byte) (ast.Expression, error) {
	var entries []*ast.DictEntry
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "pair":
			key, err := parseExpression(child.ChildByFieldName("key"), source)
			if err != nil {
				return nil, err
			}
			value, err := parseExpression(child.ChildByFieldName("value"), source)
			if err != nil {
				return nil, err
			}
			entry := ast.NewDictEntry(key, value)
			annotateSpan(entry, child)
			entries = append(entries, entry)
		case "dictionary_splat":
			value, err := parseExpression(firstNamedChild(child), source)
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.NewDictEntry(nil, value))
		default:
			return nil, fmt.Errorf("parser: unsupported dictionary entry %q", child.Kind())
		}
	}
	return annotateExpression(ast.NewDictLiteral(entries), node), nil
}
