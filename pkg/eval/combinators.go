package eval

import (
	"context"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// evalPipe implements spec.md §4.3.2 "Pipe(L, R)": evaluate L on input,
// then R on each value of L's stream, flattening the result.
func (e *Evaluator) evalPipe(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	ls, err := e.eval(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, y := range ls {
		rs, err := e.eval(ctx, expr.R, y, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// evalComma implements spec.md §4.3.2 "Comma(L, R)": concatenate the
// stream of L with the stream of R, both evaluated on the same input.
func (e *Evaluator) evalComma(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	ls, err := e.eval(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	rs, err := e.eval(ctx, expr.R, input, depth)
	if err != nil {
		return nil, err
	}
	return append(ls, rs...), nil
}

// evalIf implements spec.md §4.3.4 "If": evaluate cond, test the first
// element's truthiness; an empty cond stream has no first element and is
// treated as falsy, falling through the elif/else chain like any other
// falsy condition.
func (e *Evaluator) evalIf(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	cond, ok, err := e.firstOf(ctx, expr.Cond, input, depth)
	if err != nil {
		return nil, err
	}
	if ok && cond.Truthy() {
		return e.eval(ctx, expr.Then, input, depth)
	}
	for _, branch := range expr.Elifs {
		cond, ok, err := e.firstOf(ctx, branch.Cond, input, depth)
		if err != nil {
			return nil, err
		}
		if ok && cond.Truthy() {
			return e.eval(ctx, branch.Body, input, depth)
		}
	}
	if expr.Else == nil {
		return nil, nil
	}
	return e.eval(ctx, expr.Else, input, depth)
}

// evalTry implements spec.md §4.3.4 "Try(body, catch?)": run body; any
// EvalError unwinds to catch, evaluated on the original input, or to the
// empty stream when no catch clause is present. LexerError/ParseError
// never reach here (the evaluator only ever sees an already-parsed tree);
// a context cancellation is not an *tqerr.Error and so is not catchable,
// matching spec.md §7's propagation policy.
func (e *Evaluator) evalTry(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	rs, err := e.eval(ctx, expr.L, input, depth)
	if err == nil {
		return rs, nil
	}
	if !tqerr.Catchable(err) {
		return nil, err
	}
	if expr.Catch == nil {
		return nil, nil
	}
	return e.eval(ctx, expr.Catch, input, depth)
}
