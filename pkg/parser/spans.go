package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"sandpiper/interpreter-go/pkg/ast"
)

func spanFromNode(node *sitter.Node) ast.Span {
	if node == nil {
		return ast.Span{}
	}
	start := node.StartPosition()
	end := node.EndPosition()
	return ast.Span{
		Start: ast.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   ast.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

func annotateSpan(node ast.Node, tsNode *sitter.Node) {
	if node == nil || tsNode == nil {
		return
	}
	ast.SetSpan(node, spanFromNode(tsNode))
}

func annotateStatement(stmt ast.Statement, tsNode *sitter.Node) ast.Statement {
	annotateSpan(stmt, tsNode)
	return stmt
}

func annotateExpression(expr ast.Expression, tsNode *sitter.Node) ast.Expression {
	annotateSpan(expr, tsNode)
	return expr
}

func annotatePattern(pattern ast.Pattern, tsNode *sitter.Node) ast.Pattern {
	annotateSpan(pattern, tsNode)
	return pattern
}
