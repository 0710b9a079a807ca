package lexer

import "testing"

func tokenize(t *testing.T, input string) []Token {
	t.Helper()
	l := New(input)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return toks
}

func TestLexerPunctuation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"identity", ".", []TokenType{TokenDot, TokenEOF}},
		{"recursive descent", "..", []TokenType{TokenDotDot, TokenEOF}},
		{"field", ".foo", []TokenType{TokenDot, TokenIdent, TokenEOF}},
		{"iterator brackets", ".[]", []TokenType{TokenDot, TokenLBracket, TokenRBracket, TokenEOF}},
		{"pipe", ". | .", []TokenType{TokenDot, TokenPipe, TokenDot, TokenEOF}},
		{"two-char ops", "== != <= >= //", []TokenType{TokenEq, TokenNe, TokenLe, TokenGe, TokenAlt, TokenEOF}},
		{"format", "@base64", []TokenType{TokenFormat, TokenEOF}},
		{"object", "{a: 1}", []TokenType{TokenLBrace, TokenIdent, TokenColon, TokenNumber, TokenRBrace, TokenEOF}},
		{"call args", "pow(2; 3)", []TokenType{TokenIdent, TokenLParen, TokenNumber, TokenSemicolon, TokenNumber, TokenRParen, TokenEOF}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks := tokenize(t, tc.input)
			if len(toks) != len(tc.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(toks), len(tc.want), toks)
			}
			for i, tt := range tc.want {
				if toks[i].Type != tt {
					t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
				}
			}
		})
	}
}

func TestLexerNegativeNumberVsMinus(t *testing.T) {
	// Leading `-` before a digit at the start of an expression is a sign.
	toks := tokenize(t, "-1")
	if toks[0].Type != TokenNumber || toks[0].Value != "-1" {
		t.Fatalf("got %+v, want a single number token -1", toks[0])
	}

	// After a value-yielding token, `-` is the binary operator.
	toks = tokenize(t, "1-1")
	want := []TokenType{TokenNumber, TokenMinus, TokenNumber, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %v", toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	toks := tokenize(t, `"a\nb"`)
	if toks[0].Type != TokenString {
		t.Fatalf("got %v", toks[0])
	}
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	l := New(`"abc`)
	tok := l.Next()
	if tok.Type != TokenError {
		t.Fatalf("got %v, want error", tok.Type)
	}
	if l.Err() == nil {
		t.Fatal("expected lexer error to be recorded")
	}
}

func TestLexerKeywords(t *testing.T) {
	toks := tokenize(t, "if true then false else null end")
	want := []TokenType{TokenIf, TokenTrue, TokenThen, TokenFalse, TokenElse, TokenNull, TokenEnd, TokenEOF}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, tt)
		}
	}
}

func TestLexerNumberFormats(t *testing.T) {
	tests := []string{"0", "123", "1.5", "1e10", "1.5e-10", "1E+3"}
	for _, in := range tests {
		toks := tokenize(t, in)
		if toks[0].Type != TokenNumber || toks[0].Value != in {
			t.Errorf("input %q: got %+v", in, toks[0])
		}
	}
}
