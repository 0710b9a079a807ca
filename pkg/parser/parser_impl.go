package parser

import (
	"strconv"
	"strings"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/lexer"
	"github.com/sandrolain/tq/pkg/tqerr"
)

// Parser walks a lexer.Lexer one token of lookahead at a time and builds
// an ast.Expr tree, the same shape as the teacher's pkg/parser.Parser
// (lexer + current token + advance), minus the Pratt binding-power table:
// tq's grammar (spec.md §4.2) is a fixed 13-level ladder, so each
// precedence level gets its own parse method instead of a shared
// precedence map.
type Parser struct {
	lex     *lexer.Lexer
	current lexer.Token
	arena   *ast.Arena
	source  string
}

func newParser(source string) *Parser {
	p := &Parser{lex: lexer.New(source), arena: ast.NewArena(), source: source}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.current = p.lex.Next()
}

func (p *Parser) at(tt lexer.TokenType) bool {
	return p.current.Type == tt
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return tqerr.Newf(tqerr.Parse, format, args...).At(p.current.Position)
}

func (p *Parser) expect(tt lexer.TokenType) error {
	if !p.at(tt) {
		return p.errorf("expected %s but found %s", tt, p.current.Type)
	}
	p.advance()
	return nil
}

func (p *Parser) alloc(kind ast.Kind, pos int) *ast.Expr {
	return p.arena.Alloc(kind, pos)
}

// parseProgram is the entry point: a full expression, then Eof.
func (p *Parser) parseProgram() (*ast.Expr, error) {
	if p.at(lexer.TokenError) {
		return nil, p.lex.Err()
	}
	if p.at(lexer.TokenEOF) {
		return nil, p.errorf("empty expression")
	}
	root, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.TokenEOF) {
		return nil, p.errorf("unexpected trailing token %s", p.current.Type)
	}
	return root, nil
}

// Level 1: pipe. `expr '|' expr` (spec.md §4.2 level 1).
func (p *Parser) parsePipe() (*ast.Expr, error) {
	left, err := p.parseComma()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenPipe) {
		pos := p.current.Position
		p.advance()
		right, err := p.parseComma()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindPipe, pos)
		n.L, n.R = left, right
		left = n
	}
	return left, nil
}

// Level 2: comma. `expr ',' expr` (spec.md §4.2 level 2).
func (p *Parser) parseComma() (*ast.Expr, error) {
	left, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenComma) {
		pos := p.current.Position
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindComma, pos)
		n.L, n.R = left, right
		left = n
	}
	return left, nil
}

var assignTokens = map[lexer.TokenType]bool{
	lexer.TokenAssign:      true,
	lexer.TokenPipeAssign:  true,
	lexer.TokenPlusAssign:  true,
	lexer.TokenMinusAssign: true,
	lexer.TokenStarAssign:  true,
	lexer.TokenSlashAssign: true,
	lexer.TokenAltAssign:   true,
}

// Level 3: assignment. Recognized but rejected downstream (spec.md §4.2
// level 3, §9 "Computed object keys and assignment family" — the parser
// accepts the tokens and builds the node; the evaluator is the one that
// rejects it with an unsupported error).
//
// parseAssignment is also the entry point used for array elements, object
// field values and function-call arguments: those positions use ',' or
// ';' as an explicit list separator, so they must not themselves swallow
// a bare comma or pipe the way a standalone expression would. A pipe or
// comma is still reachable there through an explicit `(...)` group, since
// parsePrimary's paren case re-enters parsePipe.
func (p *Parser) parseAssignment() (*ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if assignTokens[p.current.Type] {
		pos := p.current.Position
		p.advance()
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindAssignment, pos)
		n.L, n.R = left, right
		return n, nil
	}
	return left, nil
}

// Level 4: or.
func (p *Parser) parseOr() (*ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenOr) {
		pos := p.current.Position
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = p.binOp(ast.OpOr, left, right, pos)
	}
	return left, nil
}

// Level 5: and.
func (p *Parser) parseAnd() (*ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenAnd) {
		pos := p.current.Position
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = p.binOp(ast.OpAnd, left, right, pos)
	}
	return left, nil
}

// Level 6: equality.
func (p *Parser) parseEquality() (*ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.current.Type {
		case lexer.TokenEq:
			op = ast.OpEq
		case lexer.TokenNe:
			op = ast.OpNe
		default:
			return left, nil
		}
		pos := p.current.Position
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = p.binOp(op, left, right, pos)
	}
}

// Level 7: comparison.
func (p *Parser) parseComparison() (*ast.Expr, error) {
	left, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.current.Type {
		case lexer.TokenLt:
			op = ast.OpLt
		case lexer.TokenLe:
			op = ast.OpLe
		case lexer.TokenGt:
			op = ast.OpGt
		case lexer.TokenGe:
			op = ast.OpGe
		default:
			return left, nil
		}
		pos := p.current.Position
		p.advance()
		right, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		left = p.binOp(op, left, right, pos)
	}
}

// Level 8: alternative `//`.
func (p *Parser) parseAlternative() (*ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenAlt) {
		pos := p.current.Position
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = p.binOp(ast.OpAlt, left, right, pos)
	}
	return left, nil
}

// Level 9: additive.
func (p *Parser) parseAdditive() (*ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.current.Type {
		case lexer.TokenPlus:
			op = ast.OpAdd
		case lexer.TokenMinus:
			op = ast.OpSub
		default:
			return left, nil
		}
		pos := p.current.Position
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = p.binOp(op, left, right, pos)
	}
}

// Level 10: multiplicative.
func (p *Parser) parseMultiplicative() (*ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.current.Type {
		case lexer.TokenStar:
			op = ast.OpMul
		case lexer.TokenSlash:
			op = ast.OpDiv
		case lexer.TokenPercent:
			op = ast.OpMod
		default:
			return left, nil
		}
		pos := p.current.Position
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = p.binOp(op, left, right, pos)
	}
}

func (p *Parser) binOp(op ast.BinOp, left, right *ast.Expr, pos int) *ast.Expr {
	n := p.alloc(ast.KindBinaryOp, pos)
	n.BinOp = op
	n.L, n.R = left, right
	return n
}

// Level 11: unary `not` / `-`.
func (p *Parser) parseUnary() (*ast.Expr, error) {
	switch p.current.Type {
	case lexer.TokenMinus:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindUnaryOp, pos)
		n.UnOp = ast.OpNeg
		n.L = operand
		return n, nil
	case lexer.TokenNot:
		pos := p.current.Position
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindUnaryOp, pos)
		n.UnOp = ast.OpNot
		n.L = operand
		return n, nil
	default:
		return p.parsePostfix()
	}
}

// Level 12: postfix. `primary (index-or-slice | field | '?')*`.
func (p *Parser) parsePostfix() (*ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current.Type {
		case lexer.TokenDot:
			pos := p.current.Position
			p.advance()
			if !p.at(lexer.TokenIdent) {
				return nil, p.errorf("expected field name after '.', found %s", p.current.Type)
			}
			field := p.parseFieldAfterDot(pos)
			expr = p.pipeTo(expr, field)
		case lexer.TokenLBracket:
			pos := p.current.Position
			p.advance()
			node, err := p.parseBracketBody(pos)
			if err != nil {
				return nil, err
			}
			expr = p.pipeTo(expr, node)
		case lexer.TokenQuestion:
			pos := p.current.Position
			p.advance()
			expr = p.wrapOptional(expr, pos)
		default:
			return expr, nil
		}
	}
}

// wrapOptional implements the standalone postfix `?` on an arbitrary
// primary (spec.md §4.2's third postfix alternative): `e?` is sugar for
// `try e`, suppressing any error `e` raises into an empty stream.
func (p *Parser) wrapOptional(expr *ast.Expr, pos int) *ast.Expr {
	n := p.alloc(ast.KindTry, pos)
	n.L = expr
	return n
}

// pipeTo wraps `op` so it runs on the stream produced by `base`: `e.f`
// desugars as `e | .f`, and `e[i]` desugars as `e | .[i]` (spec.md §4.2
// "Postfix disambiguation").
func (p *Parser) pipeTo(base, op *ast.Expr) *ast.Expr {
	n := p.alloc(ast.KindPipe, op.Position)
	n.L, n.R = base, op
	return n
}

// parseFieldAfterDot consumes the identifier (and optional trailing '?')
// following a '.' already advanced past; `pos` is the '.' token's position.
func (p *Parser) parseFieldAfterDot(pos int) *ast.Expr {
	name := p.current.Value
	p.advance()
	optional := p.acceptQuestion()
	n := p.alloc(ast.KindField, pos)
	n.Name = name
	n.Optional = optional
	return n
}

func (p *Parser) acceptQuestion() bool {
	if p.at(lexer.TokenQuestion) {
		p.advance()
		return true
	}
	return false
}

// parseBracketBody parses the contents of a `[...]` immediately after the
// opening bracket has been consumed, producing Iterator, Index or Slice.
func (p *Parser) parseBracketBody(pos int) (*ast.Expr, error) {
	if p.at(lexer.TokenRBracket) {
		p.advance()
		return p.alloc(ast.KindIterator, pos), nil
	}

	start, err := p.parseIntLiteral()
	if err != nil {
		return nil, err
	}

	if p.at(lexer.TokenColon) {
		p.advance()
		var end int
		hasEnd := false
		if !p.at(lexer.TokenRBracket) {
			end, err = p.parseIntLiteral()
			if err != nil {
				return nil, err
			}
			hasEnd = true
		}
		if err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
		n := p.alloc(ast.KindSlice, pos)
		n.SliceStart = start
		n.SliceEnd = end
		n.HasSliceEnd = hasEnd
		return n, nil
	}

	if err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	n := p.alloc(ast.KindIndex, pos)
	n.IndexVal = start
	return n, nil
}

// parseIntLiteral requires the current token to be an integer number
// literal (spec.md §4.2 "Slice bounds must be integer literals").
func (p *Parser) parseIntLiteral() (int, error) {
	if !p.at(lexer.TokenNumber) {
		return 0, p.errorf("expected an integer literal, found %s", p.current.Type)
	}
	text := p.current.Value
	if strings.ContainsAny(text, ".eE") {
		return 0, p.errorf("index/slice bounds must be integer literals, found %q", text)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, p.errorf("malformed integer literal %q", text)
	}
	p.advance()
	return n, nil
}

// Level 13: primary.
func (p *Parser) parsePrimary() (*ast.Expr, error) {
	tok := p.current
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, (&tqerr.Error{Kind: tqerr.Parse, Message: "malformed number literal " + tok.Value, Position: tok.Position}).Wrap(err)
		}
		n := p.alloc(ast.KindLiteralNumber, tok.Position)
		n.NumberVal = v
		return n, nil

	case lexer.TokenString:
		p.advance()
		s, err := unescapeString(tok.Value)
		if err != nil {
			return nil, p.errorAt(tok.Position, "invalid string literal: %v", err)
		}
		n := p.alloc(ast.KindLiteralString, tok.Position)
		n.StringVal = s
		return n, nil

	case lexer.TokenTrue:
		p.advance()
		n := p.alloc(ast.KindLiteralBool, tok.Position)
		n.BoolVal = true
		return n, nil

	case lexer.TokenFalse:
		p.advance()
		return p.alloc(ast.KindLiteralBool, tok.Position), nil

	case lexer.TokenNull:
		p.advance()
		return p.alloc(ast.KindLiteralNull, tok.Position), nil

	case lexer.TokenDot:
		p.advance()
		switch p.current.Type {
		case lexer.TokenIdent:
			return p.parseFieldAfterDot(tok.Position), nil
		case lexer.TokenLBracket:
			pos := p.current.Position
			p.advance()
			return p.parseBracketBody(pos)
		default:
			return p.alloc(ast.KindIdentity, tok.Position), nil
		}

	case lexer.TokenDotDot:
		p.advance()
		return p.alloc(ast.KindRecursiveDescent, tok.Position), nil

	case lexer.TokenIdent:
		return p.parseFunctionCall(tok.Value, tok.Position)

	case lexer.TokenFormat:
		return p.parseFunctionCall("@"+tok.Value, tok.Position)

	case lexer.TokenLParen:
		p.advance()
		inner, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.TokenLBracket:
		return p.parseArrayLiteral()

	case lexer.TokenLBrace:
		return p.parseObjectLiteral()

	case lexer.TokenIf:
		return p.parseIf()

	case lexer.TokenTry:
		return p.parseTry()

	case lexer.TokenError:
		return nil, p.lex.Err()

	default:
		return nil, p.errorf("unexpected token %s", tok.Type)
	}
}

func (p *Parser) errorAt(pos int, format string, args ...interface{}) error {
	return tqerr.Newf(tqerr.Parse, format, args...).At(pos)
}

// parseFunctionCall parses `name(arg1; arg2; …)` or a bare zero-argument
// name (spec.md §4.2 "Function calls").
func (p *Parser) parseFunctionCall(name string, pos int) (*ast.Expr, error) {
	p.advance()
	n := p.alloc(ast.KindFunctionCall, pos)
	n.Name = name
	if !p.at(lexer.TokenLParen) {
		return n, nil
	}
	p.advance()
	if p.at(lexer.TokenRParen) {
		p.advance()
		return n, nil
	}
	for {
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		n.Args = append(n.Args, arg)
		if p.at(lexer.TokenSemicolon) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return n, nil
}

// parseArrayLiteral parses `[e1, e2, …]` (spec.md §3, §4.3.5). Elements
// are parsed one level below comma/pipe so the ',' here is unambiguously
// the element separator, not the Comma operator.
func (p *Parser) parseArrayLiteral() (*ast.Expr, error) {
	pos := p.current.Position
	p.advance()
	n := p.alloc(ast.KindArrayLiteral, pos)
	if p.at(lexer.TokenRBracket) {
		p.advance()
		return n, nil
	}
	for {
		el, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		n.Elements = append(n.Elements, el)
		if p.at(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return n, nil
}

// parseObjectLiteral parses `{k: v, …}` (spec.md §4.2 "Object literals").
func (p *Parser) parseObjectLiteral() (*ast.Expr, error) {
	pos := p.current.Position
	p.advance()
	n := p.alloc(ast.KindObjectLiteral, pos)
	if p.at(lexer.TokenRBrace) {
		p.advance()
		return n, nil
	}
	for {
		field, err := p.parseObjectField()
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, field)
		if p.at(lexer.TokenComma) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseObjectField() (ast.ObjectField, error) {
	switch p.current.Type {
	case lexer.TokenIdent:
		key := p.current.Value
		p.advance()
		if err := p.expect(lexer.TokenColon); err != nil {
			return ast.ObjectField{}, err
		}
		val, err := p.parseAssignment()
		if err != nil {
			return ast.ObjectField{}, err
		}
		return ast.ObjectField{Key: key, Value: val}, nil

	case lexer.TokenString:
		key, err := unescapeString(p.current.Value)
		if err != nil {
			return ast.ObjectField{}, p.errorAt(p.current.Position, "invalid string literal: %v", err)
		}
		p.advance()
		if err := p.expect(lexer.TokenColon); err != nil {
			return ast.ObjectField{}, err
		}
		val, err := p.parseAssignment()
		if err != nil {
			return ast.ObjectField{}, err
		}
		return ast.ObjectField{Key: key, Value: val}, nil

	case lexer.TokenLParen:
		// Computed key: parsed, but frozen as unevaluated (spec.md §4.2,
		// §9 "Computed object keys and assignment family").
		p.advance()
		keyExpr, err := p.parsePipe()
		if err != nil {
			return ast.ObjectField{}, err
		}
		if err := p.expect(lexer.TokenRParen); err != nil {
			return ast.ObjectField{}, err
		}
		if err := p.expect(lexer.TokenColon); err != nil {
			return ast.ObjectField{}, err
		}
		val, err := p.parseAssignment()
		if err != nil {
			return ast.ObjectField{}, err
		}
		return ast.ObjectField{KeyExpr: keyExpr, Value: val}, nil

	default:
		return ast.ObjectField{}, p.errorf("expected object key, found %s", p.current.Type)
	}
}

// parseIf parses `if cond then body (elif cond then body)* (else body)? end`
// (spec.md §4.3.4). The keyword tokens delimit each clause unambiguously,
// so clauses are parsed at full pipe level.
func (p *Parser) parseIf() (*ast.Expr, error) {
	pos := p.current.Position
	p.advance()
	cond, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenThen); err != nil {
		return nil, err
	}
	then, err := p.parsePipe()
	if err != nil {
		return nil, err
	}
	var elifs []ast.ElifBranch
	for p.at(lexer.TokenElif) {
		p.advance()
		c, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.TokenThen); err != nil {
			return nil, err
		}
		b, err := p.parsePipe()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, ast.ElifBranch{Cond: c, Body: b})
	}
	var elseBody *ast.Expr
	if p.at(lexer.TokenElse) {
		p.advance()
		elseBody, err = p.parsePipe()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	n := p.alloc(ast.KindIf, pos)
	n.Cond, n.Then, n.Elifs, n.Else = cond, then, elifs, elseBody
	return n, nil
}

// parseTry parses `try body (catch body)?` (spec.md §4.3.4). Body and
// catch bind at postfix level, matching jq's "try f catch g" precedence:
// neither clause swallows a following pipe stage.
func (p *Parser) parseTry() (*ast.Expr, error) {
	pos := p.current.Position
	p.advance()
	body, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	var catch *ast.Expr
	if p.at(lexer.TokenCatch) {
		p.advance()
		catch, err = p.parsePostfix()
		if err != nil {
			return nil, err
		}
	}
	n := p.alloc(ast.KindTry, pos)
	n.L = body
	n.Catch = catch
	return n, nil
}

// unescapeString decodes the escape set spec.md §4.1 defines for string
// literals: \n \t \r \\ \" \/. The lexer already rejected any other
// escape, so this never needs to report an error in practice; it still
// returns one defensively for escape sequences that slipped through.
func unescapeString(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", strconvErr("unterminated escape sequence")
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '/':
			b.WriteByte('/')
		default:
			return "", strconvErr("invalid escape sequence \\" + string(s[i]))
		}
	}
	return b.String(), nil
}

type strconvErr string

func (e strconvErr) Error() string { return string(e) }
