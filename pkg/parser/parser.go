// Package parser implements tq's recursive-descent, precedence-climbing
// parser (spec.md §4.2), turning a token stream from pkg/lexer into an
// ast.Query. The Parser struct shape (lexer + one-token lookahead +
// advance()) follows the teacher's pkg/parser/parser_impl.go (gosonata),
// re-keyed to tq's 13-level grammar table instead of JSONata's
// binding-power map, and to tq's `;`-separated call arguments instead of
// JSONata's `,`.
package parser

import (
	"github.com/sandrolain/tq/pkg/ast"
)

// Parse parses a complete tq expression. A complete parse consumes the
// whole input; trailing tokens are a ParseError (spec.md §4.2).
func Parse(source string) (*ast.Query, error) {
	p := newParser(source)
	root, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return ast.NewQuery(root, source), nil
}
