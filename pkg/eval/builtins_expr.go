package eval

import (
	"context"
	"sort"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"map":        biMap,
		"select":     biSelect,
		"sort_by":    biSortBy,
		"unique_by":  biUniqueBy,
		"group_by":   biGroupBy,
		"min_by":     biMinBy,
		"max_by":     biMaxBy,
		"any":        biAny,
		"all":        biAll,
		"walk":       biWalk,
		"paths":      biPaths,
		"leaf_paths": biLeafPaths,
	})
}

// biMap implements `map(e)`: e runs once per array element (expression-
// parameterised, spec.md §4.3.6), and every value of e's stream per
// element is kept, flattened into the result array.
func biMap(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("map", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("map", 0, "array", input)
	}
	var out []value.Value
	for _, el := range input.Elems() {
		vs, err := e.eval(ctx, args[0], el, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return []value.Value{value.NewArray(out)}, nil
}

// biSelect implements `select(e)`: keeps input if e's first value is
// truthy, else emits the empty stream. Used both directly and piped
// after `.[]` to filter a stream element by element.
func biSelect(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("select", args, 0, 1, 1); err != nil {
		return nil, err
	}
	cond, ok, err := e.firstOf(ctx, args[0], input, depth)
	if err != nil {
		return nil, err
	}
	if ok && cond.Truthy() {
		return []value.Value{input}, nil
	}
	return nil, nil
}

// keyedElement pairs an array element with its sort/group key, computed
// once up front so the key expression doesn't re-run during sort/compare.
type keyedElement struct {
	elem value.Value
	key  value.Value
}

func keyBy(e *Evaluator, ctx context.Context, input value.Value, keyExpr *ast.Expr, depth int) ([]keyedElement, error) {
	elems := input.Elems()
	out := make([]keyedElement, len(elems))
	for i, el := range elems {
		k, ok, err := e.firstOf(ctx, keyExpr, el, depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			k = value.NullValue
		}
		out[i] = keyedElement{elem: el, key: k}
	}
	return out, nil
}

func biSortBy(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("sort_by", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("sort_by", 0, "array", input)
	}
	keyed, err := keyBy(e, ctx, input, args[0], depth)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(keyed, func(i, j int) bool { return value.Compare(keyed[i].key, keyed[j].key) < 0 })
	out := make([]value.Value, len(keyed))
	for i, k := range keyed {
		out[i] = k.elem
	}
	return []value.Value{value.NewArray(out)}, nil
}

func biUniqueBy(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("unique_by", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("unique_by", 0, "array", input)
	}
	keyed, err := keyBy(e, ctx, input, args[0], depth)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(keyed, func(i, j int) bool { return value.Compare(keyed[i].key, keyed[j].key) < 0 })
	var out []value.Value
	for i, k := range keyed {
		if i == 0 || value.Compare(k.key, keyed[i-1].key) != 0 {
			out = append(out, k.elem)
		}
	}
	return []value.Value{value.NewArray(out)}, nil
}

// biGroupBy groups elements by key, ordering the output groups by the
// key's canonical debug-string form (frozen: group order follows
// serialized key text, not the total order directly, matching the
// teacher corpus's common "stringify then sort" grouping idiom pending
// pkg/toon's canonical writer).
func biGroupBy(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("group_by", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("group_by", 0, "array", input)
	}
	keyed, err := keyBy(e, ctx, input, args[0], depth)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return value.DebugString(keyed[i].key) < value.DebugString(keyed[j].key)
	})
	var groups []value.Value
	var current []value.Value
	for i, k := range keyed {
		if i > 0 && value.DebugString(k.key) != value.DebugString(keyed[i-1].key) {
			groups = append(groups, value.NewArray(current))
			current = nil
		}
		current = append(current, k.elem)
	}
	if len(keyed) > 0 {
		groups = append(groups, value.NewArray(current))
	}
	return []value.Value{value.NewArray(groups)}, nil
}

func biMinBy(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return extremeBy("min_by", e, ctx, input, args, depth, -1)
}

func biMaxBy(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	return extremeBy("max_by", e, ctx, input, args, depth, 1)
}

func extremeBy(name string, e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int, want int) ([]value.Value, error) {
	if err := arity(name, args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType(name, 0, "array", input)
	}
	keyed, err := keyBy(e, ctx, input, args[0], depth)
	if err != nil {
		return nil, err
	}
	if len(keyed) == 0 {
		return []value.Value{value.NullValue}, nil
	}
	best := keyed[0]
	for _, k := range keyed[1:] {
		c := value.Compare(k.key, best.key)
		if (want < 0 && c < 0) || (want > 0 && c >= 0) {
			best = k
		}
	}
	return []value.Value{best.elem}, nil
}

// biAny/biAll implement jq's `any(e)`/`all(e)` short-circuit over array
// elements; an empty array is vacuously false for any, true for all.
func biAny(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("any", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("any", 0, "array", input)
	}
	for _, el := range input.Elems() {
		v, ok, err := e.firstOf(ctx, args[0], el, depth)
		if err != nil {
			return nil, err
		}
		if ok && v.Truthy() {
			return []value.Value{value.NewBool(true)}, nil
		}
	}
	return []value.Value{value.NewBool(false)}, nil
}

func biAll(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("all", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsArray() {
		return nil, wantType("all", 0, "array", input)
	}
	for _, el := range input.Elems() {
		v, ok, err := e.firstOf(ctx, args[0], el, depth)
		if err != nil {
			return nil, err
		}
		if !ok || !v.Truthy() {
			return []value.Value{value.NewBool(false)}, nil
		}
	}
	return []value.Value{value.NewBool(true)}, nil
}

// biWalk implements post-order recursive transformation: recurse into
// children first, rebuild the container with the transformed children,
// then apply e to the rebuilt value, keeping only its first result
// (spec.md §4.3.6 "walk(e) … post-order").
func biWalk(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("walk", args, 0, 1, 1); err != nil {
		return nil, err
	}
	v, err := walkValue(e, ctx, input, args[0], depth)
	if err != nil {
		return nil, err
	}
	return []value.Value{v}, nil
}

func walkValue(e *Evaluator, ctx context.Context, v value.Value, expr *ast.Expr, depth int) (value.Value, error) {
	var rebuilt value.Value
	switch {
	case v.IsArray():
		elems := v.Elems()
		out := make([]value.Value, len(elems))
		for i, el := range elems {
			child, err := walkValue(e, ctx, el, expr, depth)
			if err != nil {
				return value.NullValue, err
			}
			out[i] = child
		}
		rebuilt = value.NewArray(out)
	case v.IsObject():
		fields := make(map[string]value.Value, v.Len())
		for _, k := range v.Keys() {
			fv, _ := v.Field(k)
			child, err := walkValue(e, ctx, fv, expr, depth)
			if err != nil {
				return value.NullValue, err
			}
			fields[k] = child
		}
		rebuilt = value.NewObject(fields)
	default:
		rebuilt = v
	}
	result, ok, err := e.firstOf(ctx, expr, rebuilt, depth)
	if err != nil {
		return value.NullValue, err
	}
	if !ok {
		return value.NullValue, nil
	}
	return result, nil
}

// biPaths enumerates every path into input, pre-order, objects visited
// in sorted-key order; each path is an array of keys/indices.
func biPaths(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("paths", args, 0, 0, 0); err != nil {
		return nil, err
	}
	var out []value.Value
	collectPaths(input, nil, &out, false)
	return []value.Value{value.NewArray(out)}, nil
}

// biLeafPaths is paths restricted to scalar (or empty-container) targets.
func biLeafPaths(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("leaf_paths", args, 0, 0, 0); err != nil {
		return nil, err
	}
	var out []value.Value
	collectPaths(input, nil, &out, true)
	return []value.Value{value.NewArray(out)}, nil
}

func collectPaths(v value.Value, prefix []value.Value, out *[]value.Value, leavesOnly bool) {
	isLeaf := !v.IsArray() && !v.IsObject() || (v.IsArray() && v.Len() == 0) || (v.IsObject() && v.Len() == 0)
	if len(prefix) > 0 && (!leavesOnly || isLeaf) {
		path := make([]value.Value, len(prefix))
		copy(path, prefix)
		*out = append(*out, value.NewArray(path))
	}
	switch {
	case v.IsArray():
		for i, el := range v.Elems() {
			collectPaths(el, append(prefix, value.NewNumber(float64(i))), out, leavesOnly)
		}
	case v.IsObject():
		for _, k := range v.Keys() {
			fv, _ := v.Field(k)
			collectPaths(fv, append(prefix, value.NewString(k)), out, leavesOnly)
		}
	}
}
