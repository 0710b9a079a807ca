package eval

import (
	"context"
	"sort"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"add":          biAdd,
		"sort":         biSort,
		"reverse":      biReverse,
		"unique":       biUnique,
		"min":          biMin,
		"max":          biMax,
		"first":        biFirst,
		"last":         biLast,
		"nth":          biNth,
		"range":        biRange,
		"flatten":      biFlatten,
		"transpose":    biTranspose,
		"contains":     biContains,
		"inside":       biInside,
		"index":        biFind,
		"rindex":       biRFind,
		"indices":      biIndices,
		"min_by_value": biMinByValue,
		"max_by_value": biMaxByValue,
		"combinations": biCombinations,
	})
}

// biAdd folds an array with `+` (spec.md's Add semantics: number sums,
// string concatenates, array concatenates); an empty array reduces to
// null, matching there being no identity element across all three cases.
func biAdd(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("add", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("add", 0, "array", input)
	}
	elems := input.Elems()
	if len(elems) == 0 {
		return []value.Value{value.NullValue}, nil
	}
	acc := elems[0]
	for _, el := range elems[1:] {
		v, err := applyBinary(ast.OpAdd, acc, el, 0)
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return []value.Value{acc}, nil
}

// biSort implements a stable sort by the total order in spec.md §3
// invariant 3, matching Go's sort.SliceStable for determinism (spec.md
// §4.3.6 "sort/sort_by/unique/unique_by are stable").
func biSort(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("sort", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("sort", 0, "array", input)
	}
	out := append([]value.Value(nil), input.Elems()...)
	sort.SliceStable(out, func(i, j int) bool { return value.Compare(out[i], out[j]) < 0 })
	return []value.Value{value.NewArray(out)}, nil
}

func biReverse(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("reverse", args, 0, 0, 0); err != nil {
		return nil, err
	}
	switch {
	case input.IsArray():
		elems := input.Elems()
		out := make([]value.Value, len(elems))
		for i, v := range elems {
			out[len(elems)-1-i] = v
		}
		return []value.Value{value.NewArray(out)}, nil
	case input.IsString():
		runes := []rune(input.Str())
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return []value.Value{value.NewString(string(runes))}, nil
	default:
		return nil, wantType("reverse", 0, "array or string", input)
	}
}

// biUnique sorts then dedupes by the total order, keeping the first
// element of each equal run (stable).
func biUnique(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("unique", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("unique", 0, "array", input)
	}
	out := append([]value.Value(nil), input.Elems()...)
	sort.SliceStable(out, func(i, j int) bool { return value.Compare(out[i], out[j]) < 0 })
	deduped := out[:0]
	for i, v := range out {
		if i == 0 || value.Compare(v, out[i-1]) != 0 {
			deduped = append(deduped, v)
		}
	}
	return []value.Value{value.NewArray(deduped)}, nil
}

func biMin(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return minMax("min", e, ctx, input, args, depth, -1)
}

func biMax(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return minMax("max", e, ctx, input, args, depth, 1)
}

func minMax(name string, e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int, want int) ([]value.Value, error) {
	if err := arity(name, args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType(name, 0, "array", input)
	}
	elems := input.Elems()
	if len(elems) == 0 {
		return []value.Value{value.NullValue}, nil
	}
	best := elems[0]
	for _, v := range elems[1:] {
		c := value.Compare(v, best)
		if (want < 0 && c < 0) || (want > 0 && c >= 0) {
			best = v
		}
	}
	return []value.Value{best}, nil
}

// biMinByValue and biMaxByValue implement `min_by_value(k)`/`max_by_value(k)`,
// the value-parameterised siblings of min_by(e)/max_by(e). k is evaluated
// once up front on the current input and used as a literal field name or
// array index to project out of every element, rather than being
// re-evaluated per element as min_by/max_by's filter is (mirroring how
// INDEX is a restricted, value-driven counterpart of its expression-driven
// sibling).
func biMinByValue(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return extremeByValue("min_by_value", e, ctx, input, args, depth, -1)
}

func biMaxByValue(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return extremeByValue("max_by_value", e, ctx, input, args, depth, 1)
}

func extremeByValue(name string, e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int, want int) ([]value.Value, error) {
	if err := arity(name, args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType(name, 0, "array", input)
	}
	key, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, wantType(name, 0, "string or number key", value.NullValue)
	}
	elems := input.Elems()
	if len(elems) == 0 {
		return []value.Value{value.NullValue}, nil
	}
	best := elems[0]
	bestKey, err := projectKey(name, elems[0], key)
	if err != nil {
		return nil, err
	}
	for _, el := range elems[1:] {
		k, err := projectKey(name, el, key)
		if err != nil {
			return nil, err
		}
		if c := value.Compare(k, bestKey); (want < 0 && c < 0) || (want > 0 && c >= 0) {
			best, bestKey = el, k
		}
	}
	return []value.Value{best}, nil
}

// projectKey looks a literal key up in an element: a string key indexes an
// object field, a number key indexes an array position (negative indices
// wrap, as in nth). Missing fields and out-of-range indices project to
// null rather than erroring, matching the rest of the builtin table's
// missing-field convention.
func projectKey(name string, elem, key value.Value) (value.Value, error) {
	switch {
	case key.IsString():
		if !elem.IsObject() {
			return value.NullValue, nil
		}
		if v, ok := elem.Field(key.Str()); ok {
			return v, nil
		}
		return value.NullValue, nil
	case key.IsNumber():
		if !elem.IsArray() {
			return value.NullValue, nil
		}
		idx := wrapIndex(int(key.Number()), elem.Len())
		if idx < 0 || idx >= elem.Len() {
			return value.NullValue, nil
		}
		return elem.Elems()[idx], nil
	default:
		return value.Value{}, wantType(name, 0, "string or number key", key)
	}
}

// biCombinations implements `combinations`: input must be an array of
// arrays, and the result is the Cartesian product across those arrays,
// emitted as a stream with one combination array per result (matching
// jq's combinations/0, the closest real-world precedent for this
// zero-arg, value-parameterised operator).
func biCombinations(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("combinations", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("combinations", 0, "array of arrays", input)
	}
	rows := input.Elems()
	pools := make([][]value.Value, len(rows))
	for i, r := range rows {
		if !r.IsArray() {
			return nil, wantType("combinations", 0, "array of arrays", r)
		}
		pools[i] = r.Elems()
	}
	if len(pools) == 0 {
		return []value.Value{value.NewArray(nil)}, nil
	}
	var out []value.Value
	combine(pools, make([]value.Value, 0, len(pools)), &out)
	return out, nil
}

func combine(pools [][]value.Value, chosen []value.Value, out *[]value.Value) {
	if len(chosen) == len(pools) {
		*out = append(*out, value.NewArray(append([]value.Value(nil), chosen...)))
		return
	}
	for _, v := range pools[len(chosen)] {
		combine(pools, append(chosen, v), out)
	}
}

func biFirst(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("first", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("first", 0, "array", input)
	}
	if len(input.Elems()) == 0 {
		return nil, nil
	}
	return []value.Value{input.Elems()[0]}, nil
}

func biLast(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("last", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("last", 0, "array", input)
	}
	elems := input.Elems()
	if len(elems) == 0 {
		return nil, nil
	}
	return []value.Value{elems[len(elems)-1]}, nil
}

// biNth implements `nth(i)`: negative indices wrap, consistent with
// Index/has (spec.md §9 Open Question decision).
func biNth(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("nth", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("nth", 0, "array", input)
	}
	iv, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !iv.IsNumber() {
		return nil, wantType("nth", 0, "number", iv)
	}
	idx := wrapIndex(int(iv.Number()), input.Len())
	if idx < 0 || idx >= input.Len() {
		return nil, nil
	}
	return []value.Value{input.Elems()[idx]}, nil
}

// biRange implements both `range(upper)` (0..upper-1) and
// `range(lower; upper)`, matching jq's half-open interval convention.
func biRange(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("range", args, 0, 1, 2); err != nil {
		return nil, err
	}
	lo := 0.0
	hiIdx := 0
	if len(args) == 2 {
		loV, ok, err := e.argValue(ctx, args, 0, input, depth)
		if err != nil {
			return nil, err
		}
		if !ok || !loV.IsNumber() {
			return nil, wantType("range", 0, "number", loV)
		}
		lo = loV.Number()
		hiIdx = 1
	}
	hiV, ok, err := e.argValue(ctx, args, hiIdx, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !hiV.IsNumber() {
		return nil, wantType("range", hiIdx, "number", hiV)
	}
	hi := hiV.Number()
	var out []value.Value
	for n := lo; n < hi; n++ {
		out = append(out, value.NewNumber(n))
	}
	return []value.Value{value.NewArray(out)}, nil
}

// biFlatten implements `flatten` (full depth) / `flatten(d)` (bounded
// depth); negative depth is an error, matching jq.
func biFlatten(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("flatten", args, 0, 0, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("flatten", 0, "array", input)
	}
	maxDepth := -1
	if len(args) == 1 {
		dv, ok, err := e.argValue(ctx, args, 0, input, depth)
		if err != nil {
			return nil, err
		}
		if !ok || !dv.IsNumber() {
			return nil, wantType("flatten", 0, "number", dv)
		}
		if dv.Number() < 0 {
			return nil, tqerr.New(tqerr.Eval, "flatten depth must not be negative")
		}
		maxDepth = int(dv.Number())
	}
	var out []value.Value
	flattenInto(&out, input.Elems(), maxDepth)
	return []value.Value{value.NewArray(out)}, nil
}

func flattenInto(out *[]value.Value, elems []value.Value, remaining int) {
	for _, v := range elems {
		if v.IsArray() && remaining != 0 {
			next := remaining
			if next > 0 {
				next--
			}
			flattenInto(out, v.Elems(), next)
			continue
		}
		*out = append(*out, v)
	}
}

// biTranspose turns an array of arrays into its transpose, padding short
// rows with null (matching jq's transpose).
func biTranspose(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("transpose", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("transpose", 0, "array of arrays", input)
	}
	rows := input.Elems()
	width := 0
	for _, r := range rows {
		if !r.IsArray() {
			return nil, wantType("transpose", 0, "array of arrays", r)
		}
		if r.Len() > width {
			width = r.Len()
		}
	}
	out := make([]value.Value, width)
	for c := 0; c < width; c++ {
		col := make([]value.Value, len(rows))
		for r, row := range rows {
			if c < row.Len() {
				col[r] = row.Elems()[c]
			} else {
				col[r] = value.NullValue
			}
		}
		out[c] = value.NewArray(col)
	}
	return []value.Value{value.NewArray(out)}, nil
}

func biContains(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("contains", args, 0, 1, 1); err != nil {
		return nil, err
	}
	needle, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	c, err := containsValue(input, needle)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.NewBool(c)}, nil
}

func biInside(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("inside", args, 0, 1, 1); err != nil {
		return nil, err
	}
	haystack, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	c, err := containsValue(haystack, input)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.NewBool(c)}, nil
}

// containsValue implements jq's structural "contains": strings test
// substring, arrays test that every needle element is contained in some
// haystack element, objects test that every needle field is contained in
// the haystack's same-named field, everything else falls back to equality.
func containsValue(haystack, needle value.Value) (bool, error) {
	if haystack.Kind() != needle.Kind() {
		if needle.IsNull() {
			return false, nil
		}
		return false, tqerr.Newf(tqerr.Eval, "cannot check whether %s contains %s", haystack.Kind(), needle.Kind())
	}
	switch haystack.Kind() {
	case value.String:
		return containsSubstring(haystack.Str(), needle.Str()), nil
	case value.Array:
		for _, n := range needle.Elems() {
			found := false
			for _, h := range haystack.Elems() {
				if ok, _ := containsValue(h, n); ok {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	case value.Object:
		for _, k := range needle.Keys() {
			nv, _ := needle.Field(k)
			hv, ok := haystack.Field(k)
			if !ok {
				return false, nil
			}
			if ok2, _ := containsValue(hv, nv); !ok2 {
				return false, nil
			}
		}
		return true, nil
	default:
		return value.Equal(haystack, needle), nil
	}
}

func containsSubstring(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

// biFind implements `index(x)`: for strings, the byte offset of the
// first occurrence of substring x; for arrays, the position of the
// first element equal to x. No match is the empty stream, not null.
func biFind(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return findIndex("index", e, ctx, input, args, depth, false)
}

func biRFind(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return findIndex("rindex", e, ctx, input, args, depth, true)
}

func findIndex(name string, e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int, last bool) ([]value.Value, error) {
	if err := arity(name, args, 0, 1, 1); err != nil {
		return nil, err
	}
	needle, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	switch {
	case input.IsString():
		if !needle.IsString() {
			return nil, wantType(name, 0, "string", needle)
		}
		idx := -1
		if last {
			idx = lastIndexOf(input.Str(), needle.Str())
		} else {
			idx = indexOf(input.Str(), needle.Str())
		}
		if idx < 0 {
			return nil, nil
		}
		return []value.Value{value.NewNumber(float64(idx))}, nil
	case input.IsArray():
		elems := input.Elems()
		found := -1
		if last {
			for i := len(elems) - 1; i >= 0; i-- {
				if value.Equal(elems[i], needle) {
					found = i
					break
				}
			}
		} else {
			for i, v := range elems {
				if value.Equal(v, needle) {
					found = i
					break
				}
			}
		}
		if found < 0 {
			return nil, nil
		}
		return []value.Value{value.NewNumber(float64(found))}, nil
	default:
		return nil, wantType(name, 0, "string or array", input)
	}
}

func lastIndexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := n - m; i >= 0; i-- {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

// biIndices returns every occurrence position instead of only the first.
func biIndices(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("indices", args, 0, 1, 1); err != nil {
		return nil, err
	}
	needle, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []value.Value{value.NewArray(nil)}, nil
	}
	var out []value.Value
	switch {
	case input.IsString():
		if !needle.IsString() || len(needle.Str()) == 0 {
			return []value.Value{value.NewArray(nil)}, nil
		}
		h := input.Str()
		n := needle.Str()
		for i := 0; i+len(n) <= len(h); i++ {
			if h[i:i+len(n)] == n {
				out = append(out, value.NewNumber(float64(i)))
			}
		}
	case input.IsArray():
		for i, v := range input.Elems() {
			if value.Equal(v, needle) {
				out = append(out, value.NewNumber(float64(i)))
			}
		}
	default:
		return nil, wantType("indices", 0, "string or array", input)
	}
	return []value.Value{value.NewArray(out)}, nil
}
