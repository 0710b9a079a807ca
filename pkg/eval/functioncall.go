package eval

import (
	"context"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// BuiltinFunc implements one named operator (spec.md §4.3.6). It
// receives the raw, unevaluated argument expressions rather than
// pre-evaluated values: value-parameterised builtins evaluate each arg
// themselves via argValue (taking the first value of the
// arg's stream, on the current input, same as an array-literal element);
// expression-parameterised builtins instead keep the AST and re-evaluate
// it once per element (e.g. map, select, sort_by). A single function
// type covers both shapes so the dispatch table stays uniform — this is
// the const dispatch map spec.md §9 calls for, keyed by name instead of
// JSONata's mutable function registry (pkg/functions/registry.go in the
// teacher).
type BuiltinFunc func(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error)

// builtinTable is assembled at init time from every builtins_*.go file's
// contribution; it is never mutated afterward (spec.md §9: "fixed at
// startup and never mutated after").
var builtinTable = map[string]BuiltinFunc{}

func register(table map[string]BuiltinFunc) {
	for name, fn := range table {
		builtinTable[name] = fn
	}
}

// evalFunctionCall dispatches a FunctionCall node to its builtin. Any
// name outside the fixed operator set is an EvalError (spec.md §4.3.6
// "Any name not in this list is an unknown-function error.").
func (e *Evaluator) evalFunctionCall(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	fn, ok := builtinTable[expr.Name]
	if !ok {
		return nil, tqerr.Newf(tqerr.Eval, "unknown function: %s", expr.Name).At(expr.Position)
	}
	return fn(e, ctx, input, expr.Args, depth)
}

// arity reports an EvalError unless len(args) is in [min, max]. max < 0
// means unbounded.
func arity(name string, args []*ast.Expr, pos, min, max int) error {
	n := len(args)
	if n < min || (max >= 0 && n > max) {
		return tqerr.Newf(tqerr.Eval, "%s: wrong number of arguments (got %d)", name, n).At(pos)
	}
	return nil
}

// argValue evaluates args[i] on input and returns its stream's first
// value. Used by value-parameterised builtins (spec.md §4.3.6 "argument
// expressions are evaluated first, on the current input").
func (e *Evaluator) argValue(ctx context.Context, args []*ast.Expr, i int, input value.Value, depth int) (value.Value, bool, error) {
	return e.firstOf(ctx, args[i], input, depth)
}

// wantType returns an EvalError naming the operator and the unexpected
// kind, the common shape of a "required X, found Y" builtin failure.
func wantType(name string, pos int, want string, got value.Value) error {
	return tqerr.Newf(tqerr.Eval, "%s: expected %s, found %s", name, want, got.Kind()).At(pos)
}
