package eval

import (
	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// evalField implements spec.md §4.3.1 "Field(name)": on object, the value
// at key or null if absent; on null, null; on any other non-object, a
// failure unless the access is optional (`.foo?`), which emits null
// instead.
func (e *Evaluator) evalField(expr *ast.Expr, input value.Value) ([]value.Value, error) {
	switch {
	case input.IsObject():
		if v, ok := input.Field(expr.Name); ok {
			return []value.Value{v}, nil
		}
		return []value.Value{value.NullValue}, nil
	case input.IsNull():
		return []value.Value{value.NullValue}, nil
	case expr.Optional:
		return []value.Value{value.NullValue}, nil
	default:
		return nil, tqerr.Newf(tqerr.Eval, "cannot index %s with field %q", input.Kind(), expr.Name).At(expr.Position)
	}
}

// evalIndex implements spec.md §4.3.1 "Index(i)": on array, negative i
// wraps from the end and out-of-range yields a single null; on non-array,
// emits nothing.
func (e *Evaluator) evalIndex(expr *ast.Expr, input value.Value) ([]value.Value, error) {
	if !input.IsArray() {
		return nil, nil
	}
	arr := input.Elems()
	idx := wrapIndex(expr.IndexVal, len(arr))
	if idx < 0 || idx >= len(arr) {
		return []value.Value{value.NullValue}, nil
	}
	return []value.Value{arr[idx]}, nil
}

func wrapIndex(i, n int) int {
	if i < 0 {
		return i + n
	}
	return i
}

// evalSlice implements spec.md §4.3.1 "Slice(start, end?)": clamps both
// bounds to [0, len] (negatives wrap once); a reversed range produces an
// empty array rather than an error (spec.md §8 boundary cases). Like
// Index, a non-array input emits nothing — the spec is silent on this
// case but Index's analogous rule is the closest-grounded behavior.
func (e *Evaluator) evalSlice(expr *ast.Expr, input value.Value) ([]value.Value, error) {
	if !input.IsArray() {
		return nil, nil
	}
	arr := input.Elems()
	n := len(arr)

	start := clamp(wrapIndex(expr.SliceStart, n), 0, n)
	end := n
	if expr.HasSliceEnd {
		end = clamp(wrapIndex(expr.SliceEnd, n), 0, n)
	}
	if end < start {
		return []value.Value{value.NewArray(nil)}, nil
	}
	out := make([]value.Value, end-start)
	copy(out, arr[start:end])
	return []value.Value{value.NewArray(out)}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// evalIterator implements spec.md §4.3.1 "Iterator": array elements in
// order, object values in key-sorted order, nothing otherwise.
func (e *Evaluator) evalIterator(input value.Value) ([]value.Value, error) {
	switch {
	case input.IsArray():
		out := make([]value.Value, len(input.Elems()))
		copy(out, input.Elems())
		return out, nil
	case input.IsObject():
		keys := input.Keys()
		out := make([]value.Value, len(keys))
		for i, k := range keys {
			v, _ := input.Field(k)
			out[i] = v
		}
		return out, nil
	default:
		return nil, nil
	}
}

// recursiveDescent implements spec.md §4.3.1 "RecursiveDescent": the
// input, then all descendants in pre-order (arrays by index, objects by
// sorted key). A scalar input emits exactly itself (spec.md §8 boundary
// cases).
func recursiveDescent(v value.Value) []value.Value {
	out := []value.Value{v}
	switch {
	case v.IsArray():
		for _, elem := range v.Elems() {
			out = append(out, recursiveDescent(elem)...)
		}
	case v.IsObject():
		for _, k := range v.Keys() {
			child, _ := v.Field(k)
			out = append(out, recursiveDescent(child)...)
		}
	}
	return out
}
