package eval

import (
	"context"
	"strconv"
	"strings"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"type":          biType,
		"length":        biLength,
		"keys":          biKeys,
		"keys_unsorted": biKeys, // the value model always iterates sorted (spec.md §9 "Object iteration order")
		"values":        biValues,
		"has":           biHas,
		"empty":         biEmpty,
		"not":           biNot,
		"error":         biError,
		"debug":         biDebug,

		"tostring":    biToString,
		"tonumber":    biToNumber,
		"to_array":    biToArray,
		"to_object":   biToObject,
		"to_entries":  biToEntries,
		"from_entries": biFromEntries,

		"numbers":   typeFilter(value.Number),
		"strings":   typeFilter(value.String),
		"arrays":    typeFilter(value.Array),
		"objects":   typeFilter(value.Object),
		"nulls":     typeFilter(value.Null),
		"booleans":  typeFilter(value.Bool),
		"scalars":   biScalars,
		"iterables": biIterables,

		"INDEX": biIndex,
		"IN":    biIn,
	})
}

func biType(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("type", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewString(input.Kind().String())}, nil
}

// biLength follows jq's convention: string length is a rune count, array
// and object length are element/field counts, number length is its
// absolute value, and null's length is 0 (spec.md doesn't spell this out
// per-kind beyond "keys on scalars" failing; this mirrors the teacher
// corpus's jq-family precedent for `length`).
func biLength(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("length", args, 0, 0, 0); err != nil {
		return nil, err
	}
	switch input.Kind() {
	case value.Null:
		return []value.Value{value.NewNumber(0)}, nil
	case value.Number:
		n := input.Number()
		if n < 0 {
			n = -n
		}
		return []value.Value{value.NewNumber(n)}, nil
	case value.String:
		return []value.Value{value.NewNumber(float64(len([]rune(input.Str()))))}, nil
	case value.Array, value.Object:
		return []value.Value{value.NewNumber(float64(input.Len()))}, nil
	default:
		return nil, wantType("length", 0, "string, number, array or object", input)
	}
}

func biKeys(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("keys", args, 0, 0, 0); err != nil {
		return nil, err
	}
	switch {
	case input.IsObject():
		keys := input.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i] = value.NewString(k)
		}
		return []value.Value{value.NewArray(out)}, nil
	case input.IsArray():
		out := make([]value.Value, input.Len())
		for i := range out {
			out[i] = value.NewNumber(float64(i))
		}
		return []value.Value{value.NewArray(out)}, nil
	default:
		return nil, wantType("keys", 0, "array or object", input)
	}
}

func biValues(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("values", args, 0, 0, 0); err != nil {
		return nil, err
	}
	switch {
	case input.IsObject():
		keys := input.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			out[i], _ = input.Field(k)
		}
		return []value.Value{value.NewArray(out)}, nil
	case input.IsArray():
		out := make([]value.Value, len(input.Elems()))
		copy(out, input.Elems())
		return []value.Value{value.NewArray(out)}, nil
	default:
		return nil, wantType("values", 0, "array or object", input)
	}
}

// biHas follows the Open Question decision recorded in DESIGN.md: for
// arrays, a negative index wraps before the bounds check (spec.md §9).
func biHas(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("has", args, 0, 1, 1); err != nil {
		return nil, err
	}
	k, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	switch {
	case input.IsObject():
		if !k.IsString() {
			return nil, wantType("has", 0, "a string key for an object", k)
		}
		_, present := input.Field(k.Str())
		return []value.Value{value.NewBool(present)}, nil
	case input.IsArray():
		if !k.IsNumber() {
			return nil, wantType("has", 0, "a numeric index for an array", k)
		}
		idx := wrapIndex(int(k.Number()), input.Len())
		return []value.Value{value.NewBool(idx >= 0 && idx < input.Len())}, nil
	default:
		return nil, wantType("has", 0, "array or object", input)
	}
}

func biEmpty(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return nil, arity("empty", args, 0, 0, 0)
}

func biNot(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("not", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewBool(!input.Truthy())}, nil
}

// biError implements `error` / `error(msg)`: with no argument the input
// itself (stringified) is the message, matching the host's convention
// that `. | error` reports what was being processed.
func biError(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("error", args, 0, 0, 1); err != nil {
		return nil, err
	}
	msgVal := input
	if len(args) == 1 {
		v, ok, err := e.argValue(ctx, args, 0, input, depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		msgVal = v
	}
	msg := msgVal.Str()
	if !msgVal.IsString() {
		msg = value.DebugString(msgVal)
	}
	return nil, tqerr.New(tqerr.Eval, msg)
}

// biDebug logs the current value to the evaluator's diagnostic channel
// and passes it through unchanged (spec.md §5 "debug, which may emit to
// an out-of-band diagnostic channel").
func biDebug(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("debug", args, 0, 0, 0); err != nil {
		return nil, err
	}
	e.logger.Debug("debug", "value", value.DebugString(input))
	return []value.Value{input}, nil
}

// biToString renders non-string values via value.DebugString; pkg/toon's
// writer is the canonical external serialization (used by the CLI and
// library query() API), so tostring's job inside an expression is just
// giving scripts a readable inline form, not matching TOON byte-for-byte.
func biToString(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("tostring", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if input.IsString() {
		return []value.Value{input}, nil
	}
	return []value.Value{value.NewString(value.DebugString(input))}, nil
}

func biToNumber(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("tonumber", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if input.IsNumber() {
		return []value.Value{input}, nil
	}
	if !input.IsString() {
		return nil, wantType("tonumber", 0, "string or number", input)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(input.Str()), 64)
	if err != nil {
		return nil, tqerr.Newf(tqerr.Eval, "tonumber: cannot parse %q as a number", input.Str())
	}
	return []value.Value{value.NewNumber(n)}, nil
}

func biToArray(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("to_array", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if input.IsArray() {
		return []value.Value{input}, nil
	}
	return []value.Value{value.NewArray([]value.Value{input})}, nil
}

func biToObject(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("to_object", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsObject() {
		return nil, wantType("to_object", 0, "object", input)
	}
	return []value.Value{input}, nil
}

// biToEntries converts an object to `[{key, value}, …]` in sorted-key
// order (spec.md §8 invariant 9 pairs this with from_entries as a
// round-trip).
func biToEntries(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("to_entries", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsObject() {
		return nil, wantType("to_entries", 0, "object", input)
	}
	keys := input.Keys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		v, _ := input.Field(k)
		out[i] = value.NewObject(map[string]value.Value{"key": value.NewString(k), "value": v})
	}
	return []value.Value{value.NewArray(out)}, nil
}

// biFromEntries is to_entries's inverse. Entries need a "key" field
// (string or number) and a "value" field; "k"/"name" and "v" are also
// accepted as aliases, matching common jq usage.
func biFromEntries(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("from_entries", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("from_entries", 0, "array", input)
	}
	fields := make(map[string]value.Value, input.Len())
	for _, entry := range input.Elems() {
		if !entry.IsObject() {
			return nil, wantType("from_entries", 0, "an array of objects", entry)
		}
		k, ok := firstField(entry, "key", "k", "name")
		if !ok {
			return nil, tqerr.New(tqerr.Eval, "from_entries: entry has no key field")
		}
		v, ok := firstField(entry, "value", "v")
		if !ok {
			v = value.NullValue
		}
		fields[keyString(k)] = v
	}
	return []value.Value{value.NewObject(fields)}, nil
}

func firstField(obj value.Value, names ...string) (value.Value, bool) {
	for _, n := range names {
		if v, ok := obj.Field(n); ok {
			return v, true
		}
	}
	return value.NullValue, false
}

// keyString renders a value as an object key: strings pass through,
// numbers use tq's canonical number text, anything else falls back to
// its debug form.
func keyString(v value.Value) string {
	switch v.Kind() {
	case value.String:
		return v.Str()
	case value.Number:
		return value.FormatNumber(v.Number())
	default:
		return value.DebugString(v)
	}
}

func typeFilter(k value.Kind) BuiltinFunc {
	return func(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
		if err := arity(k.String(), args, 0, 0, 0); err != nil {
			return nil, err
		}
		if input.Kind() == k {
			return []value.Value{input}, nil
		}
		return nil, nil
	}
}

func biScalars(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("scalars", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if input.IsArray() || input.IsObject() {
		return nil, nil
	}
	return []value.Value{input}, nil
}

func biIterables(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("iterables", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if input.IsArray() || input.IsObject() {
		return []value.Value{input}, nil
	}
	return nil, nil
}

// biIndex implements `INDEX(e)`: builds an object keyed by array element
// position, not by the general jq key-expression form (spec.md §4.3.6
// "frozen: does not honour the general jq key-expression form"). `e` is
// still evaluated per element and supplies the stored value, falling
// back to the element itself when `e`'s stream is empty.
func biIndex(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("INDEX", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("INDEX", 0, "array", input)
	}
	fields := make(map[string]value.Value, input.Len())
	for i, elem := range input.Elems() {
		v, ok, err := e.firstOf(ctx, args[0], elem, depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			v = elem
		}
		fields[strconv.Itoa(i)] = v
	}
	return []value.Value{value.NewObject(fields)}, nil
}

// biIn implements `IN(arr)`: builds a membership lookup object from the
// evaluated array argument, mapping each element's key form to true.
func biIn(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("IN", args, 0, 1, 1); err != nil {
		return nil, err
	}
	v, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []value.Value{value.NewObject(nil)}, nil
	}
	if !v.IsArray() {
		return nil, wantType("IN", 0, "array", v)
	}
	fields := make(map[string]value.Value, v.Len())
	for _, elem := range v.Elems() {
		fields[keyString(elem)] = value.NewBool(true)
	}
	return []value.Value{value.NewObject(fields)}, nil
}
