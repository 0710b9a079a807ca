package eval

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/toon"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"@base64":  biBase64Encode,
		"@base64d": biBase64Decode,
		"@uri":     biURI,
		"@csv":     biCSV,
		"@tsv":     biTSV,
		"@html":    biHTML,
		"@json":    biJSON, // frozen: renders TOON via pkg/toon's writer, not real JSON (spec.md §9)
		"@text":    biToString,
	})
}

func stringify(v value.Value) string {
	if v.IsString() {
		return v.Str()
	}
	return value.DebugString(v)
}

func biJSON(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@json", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewString(toon.Write(input))}, nil
}

func biBase64Encode(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@base64", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewString(base64.StdEncoding.EncodeToString([]byte(stringify(input))))}, nil
}

func biBase64Decode(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@base64d", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("@base64d", 0, "string", input)
	}
	decoded, err := base64.StdEncoding.DecodeString(input.Str())
	if err != nil {
		return nil, tqerr.Newf(tqerr.Eval, "@base64d: %v", err)
	}
	return []value.Value{value.NewString(string(decoded))}, nil
}

// uriUnreserved matches RFC 3986's unreserved character set, the only
// bytes @uri leaves unescaped.
func isURIUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}

func biURI(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@uri", args, 0, 0, 0); err != nil {
		return nil, err
	}
	s := stringify(input)
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		if c < 0x10 {
			sb.WriteByte('0')
		}
		sb.WriteString(strings.ToUpper(strconv.FormatUint(uint64(c), 16)))
	}
	return []value.Value{value.NewString(sb.String())}, nil
}

func biCSV(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@csv", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("@csv", 0, "array", input)
	}
	fields := make([]string, len(input.Elems()))
	for i, el := range input.Elems() {
		switch el.Kind() {
		case value.Null:
			fields[i] = ""
		case value.Bool:
			fields[i] = strconv.FormatBool(el.Bool())
		case value.Number:
			fields[i] = value.FormatNumber(el.Number())
		case value.String:
			fields[i] = `"` + strings.ReplaceAll(el.Str(), `"`, `""`) + `"`
		default:
			return nil, wantType("@csv", i, "a scalar", el)
		}
	}
	return []value.Value{value.NewString(strings.Join(fields, ","))}, nil
}

var tsvEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

func biTSV(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@tsv", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("@tsv", 0, "array", input)
	}
	fields := make([]string, len(input.Elems()))
	for i, el := range input.Elems() {
		switch el.Kind() {
		case value.Null:
			fields[i] = ""
		case value.Bool:
			fields[i] = strconv.FormatBool(el.Bool())
		case value.Number:
			fields[i] = value.FormatNumber(el.Number())
		case value.String:
			fields[i] = tsvEscaper.Replace(el.Str())
		default:
			return nil, wantType("@tsv", i, "a scalar", el)
		}
	}
	return []value.Value{value.NewString(strings.Join(fields, "\t"))}, nil
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`'`, "&#39;",
	`"`, "&quot;",
)

func biHTML(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("@html", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewString(htmlEscaper.Replace(stringify(input)))}, nil
}
