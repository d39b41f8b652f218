package parser

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
	"sandpiper/interpreter-go/pkg/parser/language"
)

// ModuleParser wraps a tree-sitter parser configured for guest modules.
type ModuleParser struct {
	parser *sitter.Parser
}

// NewModuleParser constructs a parser with the Python grammar loaded.
func NewModuleParser() (*ModuleParser, error) {
	lang := language.Python()
	if lang == nil {
		return nil, fmt.Errorf("parser: python language not available")
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}

	return &ModuleParser{parser: p}, nil
}

// Close releases parser resources.
func (p *ModuleParser) Close() {
	if p == nil || p.parser == nil {
		return
	}
	p.parser.Close()
}

// ParseModule parses guest source into the canonical AST module.
func (p *ModuleParser) ParseModule(source []byte) (*ast.Module, error) {
	if p == nil || p.parser == nil {
		return nil, fmt.Errorf("parser: nil parser")
	}

	tree := p.parser.Parse(source, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.Kind() != "module" {
		return nil, fmt.Errorf("parser: unexpected root node")
	}
	if root.HasError() {
		return nil, collectSyntaxErrors(root, source)
	}

	body := make([]ast.Statement, 0, root.NamedChildCount())
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node == nil || isIgnorableNode(node) {
			continue
		}
		stmt, err := parseStatement(node, source)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			body = append(body, stmt)
		}
	}

	mod := ast.NewModule(body)
	annotateSpan(mod, root)
	return mod, nil
}

// Parse is the one-shot entry point: it builds a parser, converts the
// source, and releases the parser again.
func Parse(source string) (*ast.Module, error) {
	p, err := NewModuleParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.ParseModule([]byte(source))
}

// collectSyntaxErrors walks the tree and reports every error and missing
// node with its source position.
func collectSyntaxErrors(root *sitter.Node, source []byte) error {
	var result *multierror.Error
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.IsError() {
			pos := node.StartPosition()
			excerpt := sliceContent(node, source)
			if len(excerpt) > 20 {
				excerpt = excerpt[:20]
			}
			result = multierror.Append(result, fmt.Errorf(
				"invalid syntax at line %d, column %d near %q",
				pos.Row+1, pos.Column+1, excerpt))
			return
		}
		if node.IsMissing() {
			pos := node.StartPosition()
			result = multierror.Append(result, fmt.Errorf(
				"expected %q at line %d, column %d",
				node.Kind(), pos.Row+1, pos.Column+1))
			return
		}
		if !node.HasError() {
			return
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	if result == nil {
		return fmt.Errorf("invalid syntax")
	}
	return result.ErrorOrNil()
}
