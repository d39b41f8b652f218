package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func sliceContent(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if start < 0 || end < start || end > len(source) {
		return ""
	}
	return string(source[start:end])
}

func identifierName(node *sitter.Node, source []byte) (string, error) {
	if node == nil || node.Kind() != "identifier" {
		return "", fmt.Errorf("parser: expected identifier")
	}
	return sliceContent(node, source), nil
}

func firstNamedChild(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && !isIgnorableNode(child) {
			return child
		}
	}
	return nil
}

// namedChildren returns the named children worth converting, with comments
// and line continuations filtered out.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || isIgnorableNode(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func isIgnorableNode(node *sitter.Node) bool {
	if node == nil {
		return true
	}
	switch node.Kind() {
	case "comment", "line_continuation":
		return true
	}
	return false
}

// hasAnonymousChild reports whether the node carries the given keyword
// token, such as "async" on definitions or "from" on yield.
func hasAnonymousChild(node *sitter.Node, kind string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == kind {
			return true
		}
	}
	return false
}
