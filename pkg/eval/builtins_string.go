package eval

import (
	"context"
	"strings"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"split":          biSplit,
		"join":           biJoin,
		"startswith":     biStartsWith,
		"endswith":       biEndsWith,
		"ltrimstr":       biLtrimstr,
		"rtrimstr":       biRtrimstr,
		"ascii_downcase": unaryString("ascii_downcase", asciiDowncase),
		"ascii_upcase":   unaryString("ascii_upcase", asciiUpcase),
		"explode":        biExplode,
		"implode":        biImplode,
		"ascii":          biAscii,
	})
}

func unaryString(name string, fn func(string) string) BuiltinFunc {
	return func(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
		if err := arity(name, args, 0, 0, 0); err != nil {
			return nil, err
		}
		if !input.IsString() {
			return nil, wantType(name, 0, "string", input)
		}
		return []value.Value{value.NewString(fn(input.Str()))}, nil
	}
}

// asciiDowncase/asciiUpcase only fold ASCII letters, matching jq's
// ascii_downcase/ascii_upcase (not a locale-aware Unicode case fold).
func asciiDowncase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func asciiUpcase(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func biSplit(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("split", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("split", 0, "string", input)
	}
	sep, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !sep.IsString() {
		return nil, wantType("split", 0, "a string separator", sep)
	}
	parts := strings.Split(input.Str(), sep.Str())
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.NewString(p)
	}
	return []value.Value{value.NewArray(out)}, nil
}

func biJoin(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("join", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("join", 0, "array", input)
	}
	sep, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !sep.IsString() {
		return nil, wantType("join", 0, "a string separator", sep)
	}
	parts := make([]string, len(input.Elems()))
	for i, el := range input.Elems() {
		switch {
		case el.IsNull():
			parts[i] = ""
		case el.IsString():
			parts[i] = el.Str()
		default:
			parts[i] = value.DebugString(el)
		}
	}
	return []value.Value{value.NewString(strings.Join(parts, sep.Str()))}, nil
}

func biStartsWith(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("startswith", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("startswith", 0, "string", input)
	}
	prefix, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !prefix.IsString() {
		return nil, wantType("startswith", 0, "string", prefix)
	}
	return []value.Value{value.NewBool(strings.HasPrefix(input.Str(), prefix.Str()))}, nil
}

func biEndsWith(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("endswith", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("endswith", 0, "string", input)
	}
	suffix, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !suffix.IsString() {
		return nil, wantType("endswith", 0, "string", suffix)
	}
	return []value.Value{value.NewBool(strings.HasSuffix(input.Str(), suffix.Str()))}, nil
}

func biLtrimstr(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("ltrimstr", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return []value.Value{input}, nil
	}
	prefix, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !prefix.IsString() {
		return []value.Value{input}, nil
	}
	return []value.Value{value.NewString(strings.TrimPrefix(input.Str(), prefix.Str()))}, nil
}

func biRtrimstr(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("rtrimstr", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return []value.Value{input}, nil
	}
	suffix, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !suffix.IsString() {
		return []value.Value{input}, nil
	}
	return []value.Value{value.NewString(strings.TrimSuffix(input.Str(), suffix.Str()))}, nil
}

// biExplode turns a string into an array of Unicode code points (as
// numbers), matching jq's explode/implode pair.
func biExplode(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("explode", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("explode", 0, "string", input)
	}
	runes := []rune(input.Str())
	out := make([]value.Value, len(runes))
	for i, r := range runes {
		out[i] = value.NewNumber(float64(r))
	}
	return []value.Value{value.NewArray(out)}, nil
}

func biImplode(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("implode", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("implode", 0, "array of code points", input)
	}
	runes := make([]rune, len(input.Elems()))
	for i, el := range input.Elems() {
		if !el.IsNumber() {
			return nil, wantType("implode", 0, "array of numbers", el)
		}
		runes[i] = rune(int32(el.Number()))
	}
	return []value.Value{value.NewString(string(runes))}, nil
}

// biAscii converts a single code point number into its one-character
// string (the narrow inverse of indexing into explode's output).
func biAscii(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("ascii", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsNumber() {
		return nil, wantType("ascii", 0, "number", input)
	}
	return []value.Value{value.NewString(string(rune(int32(input.Number()))))}, nil
}
