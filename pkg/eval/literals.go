package eval

import (
	"context"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// evalArrayLiteral implements spec.md §4.3.5 "Array literal": each
// element expression is evaluated on input and only its first value is
// taken; an element whose stream is empty contributes no slot (frozen
// source behavior — there is no "hole" representation in the value
// model, so an empty element stream is the same as omitting it).
func (e *Evaluator) evalArrayLiteral(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	elems := make([]value.Value, 0, len(expr.Elements))
	for _, el := range expr.Elements {
		v, ok, err := e.firstOf(ctx, el, input, depth)
		if err != nil {
			return nil, err
		}
		if ok {
			elems = append(elems, v)
		}
	}
	return []value.Value{value.NewArray(elems)}, nil
}

// evalObjectLiteral implements spec.md §4.3.5 "Object literal": each
// value expression is evaluated on input and only its first result is
// taken; duplicate keys resolve to the later assignment because fields
// are applied in source order. A computed key (`(expr): v`) is parsed
// but frozen as unevaluated (spec.md §9).
func (e *Evaluator) evalObjectLiteral(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	fields := make(map[string]value.Value, len(expr.Fields))
	for _, f := range expr.Fields {
		if f.KeyExpr != nil {
			return nil, tqerr.New(tqerr.Eval, "computed object keys are not supported").At(expr.Position)
		}
		v, ok, err := e.firstOf(ctx, f.Value, input, depth)
		if err != nil {
			return nil, err
		}
		if ok {
			fields[f.Key] = v
		}
	}
	return []value.Value{value.NewObject(fields)}, nil
}
