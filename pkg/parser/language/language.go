package language

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// Python returns the tree-sitter language used for guest source.
func Python() *sitter.Language {
	return sitter.NewLanguage(tspython.Language())
}
