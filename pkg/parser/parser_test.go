package parser

import (
	"testing"

	"github.com/sandrolain/tq/pkg/ast"
)

func mustParse(t *testing.T, src string) *ast.Expr {
	t.Helper()
	q, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): unexpected error: %v", src, err)
	}
	return q.Root
}

func TestParseIdentity(t *testing.T) {
	root := mustParse(t, ".")
	if root.Kind != ast.KindIdentity {
		t.Fatalf("got %v, want Identity", root.Kind)
	}
}

func TestParseField(t *testing.T) {
	root := mustParse(t, ".foo")
	if root.Kind != ast.KindField || root.Name != "foo" || root.Optional {
		t.Fatalf("got %+v", root)
	}
}

func TestParseOptionalField(t *testing.T) {
	root := mustParse(t, ".foo?")
	if root.Kind != ast.KindField || !root.Optional {
		t.Fatalf("got %+v", root)
	}
}

func TestParseChainedFieldDesugarsToPipe(t *testing.T) {
	root := mustParse(t, ".foo.bar")
	if root.Kind != ast.KindPipe {
		t.Fatalf("got %v, want Pipe", root.Kind)
	}
	if root.L.Kind != ast.KindField || root.L.Name != "foo" {
		t.Fatalf("left: got %+v", root.L)
	}
	if root.R.Kind != ast.KindField || root.R.Name != "bar" {
		t.Fatalf("right: got %+v", root.R)
	}
}

func TestParseIndexNegative(t *testing.T) {
	root := mustParse(t, ".[-1]")
	if root.Kind != ast.KindIndex || root.IndexVal != -1 {
		t.Fatalf("got %+v", root)
	}
}

func TestParseSliceWithAndWithoutEnd(t *testing.T) {
	root := mustParse(t, ".[1:3]")
	if root.Kind != ast.KindSlice || root.SliceStart != 1 || !root.HasSliceEnd || root.SliceEnd != 3 {
		t.Fatalf("got %+v", root)
	}
	root = mustParse(t, ".[2:]")
	if root.Kind != ast.KindSlice || root.SliceStart != 2 || root.HasSliceEnd {
		t.Fatalf("got %+v", root)
	}
}

func TestParseSliceRejectsFractionalBound(t *testing.T) {
	_, err := Parse(".[1.5:3]")
	if err == nil {
		t.Fatal("expected an error for a fractional slice bound")
	}
}

func TestParseIterator(t *testing.T) {
	root := mustParse(t, ".[]")
	if root.Kind != ast.KindIterator {
		t.Fatalf("got %v", root.Kind)
	}
}

func TestParseRecursiveDescent(t *testing.T) {
	root := mustParse(t, "..")
	if root.Kind != ast.KindRecursiveDescent {
		t.Fatalf("got %v", root.Kind)
	}
}

func TestParsePipeAndCommaPrecedence(t *testing.T) {
	// `,` binds tighter than `|`: `a,b|c` is `(a,b) | c`.
	root := mustParse(t, ".a,.b | .c")
	if root.Kind != ast.KindPipe {
		t.Fatalf("got %v, want Pipe", root.Kind)
	}
	if root.L.Kind != ast.KindComma {
		t.Fatalf("left: got %v, want Comma", root.L.Kind)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	// `*` binds tighter than `+`.
	root := mustParse(t, "1 + 2 * 3")
	if root.Kind != ast.KindBinaryOp || root.BinOp != ast.OpAdd {
		t.Fatalf("got %+v", root)
	}
	if root.R.Kind != ast.KindBinaryOp || root.R.BinOp != ast.OpMul {
		t.Fatalf("right: got %+v", root.R)
	}
}

func TestParseUnaryMinusVsBinary(t *testing.T) {
	root := mustParse(t, "-1")
	if root.Kind != ast.KindLiteralNumber || root.NumberVal != -1 {
		t.Fatalf("got %+v, want a single negative literal (lexer merges sign+digit)", root)
	}
}

func TestParseComparisonAndLogic(t *testing.T) {
	root := mustParse(t, ".a > 1 and .b < 2")
	if root.Kind != ast.KindBinaryOp || root.BinOp != ast.OpAnd {
		t.Fatalf("got %+v", root)
	}
}

func TestParseAlternative(t *testing.T) {
	root := mustParse(t, ".a // .b")
	if root.Kind != ast.KindBinaryOp || root.BinOp != ast.OpAlt {
		t.Fatalf("got %+v", root)
	}
}

func TestParseIfElifElse(t *testing.T) {
	root := mustParse(t, "if .a then 1 elif .b then 2 else 3 end")
	if root.Kind != ast.KindIf {
		t.Fatalf("got %v", root.Kind)
	}
	if len(root.Elifs) != 1 {
		t.Fatalf("got %d elif branches, want 1", len(root.Elifs))
	}
	if root.Else == nil {
		t.Fatal("expected an else branch")
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	root := mustParse(t, "if .a then 1 end")
	if root.Kind != ast.KindIf || root.Else != nil {
		t.Fatalf("got %+v", root)
	}
}

func TestParseTryCatch(t *testing.T) {
	root := mustParse(t, "try .a catch .b")
	if root.Kind != ast.KindTry || root.Catch == nil {
		t.Fatalf("got %+v", root)
	}
}

func TestParseTryWithoutCatch(t *testing.T) {
	root := mustParse(t, "try .a")
	if root.Kind != ast.KindTry || root.Catch != nil {
		t.Fatalf("got %+v", root)
	}
}

func TestParseStandalonePostfixQuestionWrapsInTry(t *testing.T) {
	root := mustParse(t, "(1/0)?")
	if root.Kind != ast.KindTry || root.Catch != nil {
		t.Fatalf("got %+v, want try-without-catch", root)
	}
	if root.L == nil || root.L.Kind != ast.KindBinaryOp {
		t.Fatalf("got L=%+v, want the wrapped division", root.L)
	}
}

func TestParseChainedPostfixQuestionMarks(t *testing.T) {
	root := mustParse(t, "(.a)??")
	if root.Kind != ast.KindTry || root.Catch != nil {
		t.Fatalf("got %+v", root)
	}
	if root.L == nil || root.L.Kind != ast.KindTry {
		t.Fatalf("got L=%+v, want a nested try", root.L)
	}
}

func TestParseArrayLiteral(t *testing.T) {
	root := mustParse(t, "[.a, .b, 1]")
	if root.Kind != ast.KindArrayLiteral || len(root.Elements) != 3 {
		t.Fatalf("got %+v", root)
	}
}

func TestParseEmptyArrayLiteral(t *testing.T) {
	root := mustParse(t, "[]")
	if root.Kind != ast.KindArrayLiteral || len(root.Elements) != 0 {
		t.Fatalf("got %+v", root)
	}
}

func TestParseObjectLiteral(t *testing.T) {
	root := mustParse(t, `{a: 1, "b": .c}`)
	if root.Kind != ast.KindObjectLiteral || len(root.Fields) != 2 {
		t.Fatalf("got %+v", root)
	}
	if root.Fields[0].Key != "a" || root.Fields[1].Key != "b" {
		t.Fatalf("got %+v", root.Fields)
	}
}

func TestParseObjectLiteralComputedKeyIsRecorded(t *testing.T) {
	root := mustParse(t, "{(.k): .v}")
	if root.Kind != ast.KindObjectLiteral || root.Fields[0].KeyExpr == nil {
		t.Fatalf("got %+v", root)
	}
}

func TestParseFunctionCallWithSemicolonArgs(t *testing.T) {
	root := mustParse(t, "pow(2; 3)")
	if root.Kind != ast.KindFunctionCall || root.Name != "pow" || len(root.Args) != 2 {
		t.Fatalf("got %+v", root)
	}
}

func TestParseBareFunctionCallIsZeroArg(t *testing.T) {
	root := mustParse(t, "length")
	if root.Kind != ast.KindFunctionCall || root.Name != "length" || root.Args != nil {
		t.Fatalf("got %+v", root)
	}
}

func TestParseFormatDirective(t *testing.T) {
	root := mustParse(t, "@base64")
	if root.Kind != ast.KindFunctionCall || root.Name != "@base64" {
		t.Fatalf("got %+v", root)
	}
}

func TestParseParenthesesAllowCommaAndPipeInsideArgs(t *testing.T) {
	root := mustParse(t, "map((.a, .b))")
	if root.Kind != ast.KindFunctionCall || len(root.Args) != 1 {
		t.Fatalf("got %+v", root)
	}
	if root.Args[0].Kind != ast.KindComma {
		t.Fatalf("arg: got %v, want Comma", root.Args[0].Kind)
	}
}

func TestParseAssignmentTokenIsAcceptedAndTaggedFrozen(t *testing.T) {
	root := mustParse(t, ".a = 1")
	if root.Kind != ast.KindAssignment {
		t.Fatalf("got %v, want Assignment (frozen: rejected at eval, not parse)", root.Kind)
	}
}

func TestParseEmptyExpressionIsError(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("expected an error for an empty expression")
	}
}

func TestParseTrailingTokensIsError(t *testing.T) {
	if _, err := Parse(".a )"); err == nil {
		t.Fatal("expected an error for trailing tokens after a complete expression")
	}
}

func TestParseUnterminatedStringPropagatesLexerError(t *testing.T) {
	if _, err := Parse(`"abc`); err == nil {
		t.Fatal("expected the lexer's unterminated-string error to propagate")
	}
}
