package eval

import (
	"context"
	"math"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// evalBinaryOp dispatches the arithmetic/comparison/logical/alternative
// operators (spec.md §4.3.3). and/or/alternative short-circuit on the
// first element of their left operand and never see the general
// empty-propagates-empty rule the other operators use.
func (e *Evaluator) evalBinaryOp(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	switch expr.BinOp {
	case ast.OpAnd:
		return e.evalShortCircuit(ctx, expr, input, depth, false)
	case ast.OpOr:
		return e.evalShortCircuit(ctx, expr, input, depth, true)
	case ast.OpAlt:
		return e.evalAlternative(ctx, expr, input, depth)
	}

	// "If either side is the empty stream, the whole expression is
	// empty" (spec.md §4.3.3).
	lv, ok, err := e.firstOf(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rv, ok, err := e.firstOf(ctx, expr.R, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	result, err := applyBinary(expr.BinOp, lv, rv, expr.Position)
	if err != nil {
		return nil, err
	}
	return []value.Value{result}, nil
}

// evalShortCircuit implements `and`/`or`: short-circuits on the first
// element of L; both operators produce a boolean. wantOr is true for
// `or` (short-circuits to true), false for `and` (short-circuits to
// false).
func (e *Evaluator) evalShortCircuit(ctx context.Context, expr *ast.Expr, input value.Value, depth int, wantOr bool) ([]value.Value, error) {
	lv, ok, err := e.firstOf(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if lv.Truthy() == wantOr {
		return []value.Value{value.NewBool(wantOr)}, nil
	}
	rv, ok, err := e.firstOf(ctx, expr.R, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []value.Value{value.NewBool(rv.Truthy())}, nil
}

// evalAlternative implements `a // b` (spec.md §4.3.3): an empty or
// falsy left operand falls through to the right; otherwise emits the
// left's first value. Unlike the other binary operators, an empty left
// stream does not make the whole expression empty — it behaves exactly
// like a null/false left value (both fall through to b).
func (e *Evaluator) evalAlternative(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	lv, ok, err := e.firstOf(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	if ok && lv.Truthy() {
		return []value.Value{lv}, nil
	}
	rv, ok, err := e.firstOf(ctx, expr.R, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []value.Value{rv}, nil
}

func applyBinary(op ast.BinOp, l, r value.Value, pos int) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		switch {
		case l.IsNumber() && r.IsNumber():
			return value.NewNumber(l.Number() + r.Number()), nil
		case l.IsString() && r.IsString():
			return value.NewString(l.Str() + r.Str()), nil
		case l.IsArray() && r.IsArray():
			out := make([]value.Value, 0, len(l.Elems())+len(r.Elems()))
			out = append(out, l.Elems()...)
			out = append(out, r.Elems()...)
			return value.NewArray(out), nil
		default:
			return value.NullValue, typeErr(pos, "+", l, r)
		}
	case ast.OpSub:
		a, b, err := bothNumbers(op, l, r, pos)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewNumber(a - b), nil
	case ast.OpMul:
		a, b, err := bothNumbers(op, l, r, pos)
		if err != nil {
			return value.NullValue, err
		}
		return value.NewNumber(a * b), nil
	case ast.OpDiv:
		a, b, err := bothNumbers(op, l, r, pos)
		if err != nil {
			return value.NullValue, err
		}
		if b == 0 {
			return value.NullValue, tqerr.New(tqerr.Eval, "division by zero").At(pos)
		}
		return value.NewNumber(a / b), nil
	case ast.OpMod:
		a, b, err := bothNumbers(op, l, r, pos)
		if err != nil {
			return value.NullValue, err
		}
		if b == 0 {
			return value.NullValue, tqerr.New(tqerr.Eval, "modulo by zero").At(pos)
		}
		return value.NewNumber(math.Mod(a, b)), nil
	case ast.OpEq:
		return value.NewBool(value.Equal(l, r)), nil
	case ast.OpNe:
		return value.NewBool(!value.Equal(l, r)), nil
	case ast.OpLt:
		return value.NewBool(value.Compare(l, r) < 0), nil
	case ast.OpLe:
		return value.NewBool(value.Compare(l, r) <= 0), nil
	case ast.OpGt:
		return value.NewBool(value.Compare(l, r) > 0), nil
	case ast.OpGe:
		return value.NewBool(value.Compare(l, r) >= 0), nil
	default:
		return value.NullValue, tqerr.Newf(tqerr.Eval, "unhandled binary operator %d", op).At(pos)
	}
}

func bothNumbers(op ast.BinOp, l, r value.Value, pos int) (float64, float64, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return 0, 0, typeErr(pos, binOpSymbol(op), l, r)
	}
	return l.Number(), r.Number(), nil
}

func binOpSymbol(op ast.BinOp) string {
	switch op {
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	default:
		return "?"
	}
}

func typeErr(pos int, op string, l, r value.Value) error {
	return tqerr.Newf(tqerr.Eval, "%s and %s cannot be used with %q", l.Kind(), r.Kind(), op).At(pos)
}

// evalUnaryOp implements spec.md §4.3.3 "Unary `not`/`-`".
func (e *Evaluator) evalUnaryOp(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	v, ok, err := e.firstOf(ctx, expr.L, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	switch expr.UnOp {
	case ast.OpNeg:
		if !v.IsNumber() {
			return nil, tqerr.Newf(tqerr.Eval, "%s cannot be negated", v.Kind()).At(expr.Position)
		}
		return []value.Value{value.NewNumber(-v.Number())}, nil
	case ast.OpNot:
		return []value.Value{value.NewBool(!v.Truthy())}, nil
	default:
		return nil, tqerr.Newf(tqerr.Eval, "unhandled unary operator %d", expr.UnOp).At(expr.Position)
	}
}
