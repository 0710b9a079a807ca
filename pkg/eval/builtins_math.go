package eval

import (
	"context"
	"math"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"floor": unaryMath("floor", math.Floor),
		"ceil":  unaryMath("ceil", math.Ceil),
		"round": unaryMath("round", math.Round),
		"abs":   unaryMath("abs", math.Abs),
		"sqrt":  checkedMath("sqrt", func(n float64) (float64, bool) { return math.Sqrt(n), n >= 0 }),
		"log":   checkedMath("log", func(n float64) (float64, bool) { return math.Log(n), n > 0 }),
		"log10": checkedMath("log10", func(n float64) (float64, bool) { return math.Log10(n), n > 0 }),
		"log2":  checkedMath("log2", func(n float64) (float64, bool) { return math.Log2(n), n > 0 }),
		"exp":   unaryMath("exp", math.Exp),
		"exp10": unaryMath("exp10", func(n float64) float64 { return math.Pow(10, n) }),
		"exp2":  unaryMath("exp2", math.Exp2),
		"sin":   unaryMath("sin", math.Sin),
		"cos":   unaryMath("cos", math.Cos),
		"tan":   unaryMath("tan", math.Tan),
		"asin":  checkedMath("asin", func(n float64) (float64, bool) { return math.Asin(n), n >= -1 && n <= 1 }),
		"acos":  checkedMath("acos", func(n float64) (float64, bool) { return math.Acos(n), n >= -1 && n <= 1 }),
		"atan":  unaryMath("atan", math.Atan),
		"pow":   biPow,
	})
}

// unaryMath wraps a total math.Func1 (defined for every finite input) as
// a zero-arg builtin operating on the current input number.
func unaryMath(name string, fn func(float64) float64) BuiltinFunc {
	return func(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
		if err := arity(name, args, 0, 0, 0); err != nil {
			return nil, err
		}
		if !input.IsNumber() {
			return nil, wantType(name, 0, "number", input)
		}
		return []value.Value{value.NewNumber(fn(input.Number()))}, nil
	}
}

// checkedMath wraps a math function that is only defined on part of its
// domain (sqrt/log of negatives, asin/acos outside [-1,1]); out-of-domain
// input is an EvalError rather than NaN (spec.md §4.3.8 "operators whose
// underlying math is undefined on part of their domain fail instead of
// producing NaN").
func checkedMath(name string, fn func(float64) (float64, bool)) BuiltinFunc {
	return func(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
		if err := arity(name, args, 0, 0, 0); err != nil {
			return nil, err
		}
		if !input.IsNumber() {
			return nil, wantType(name, 0, "number", input)
		}
		result, ok := fn(input.Number())
		if !ok {
			return nil, tqerr.Newf(tqerr.Eval, "%s: %v is outside the function's domain", name, input.Number())
		}
		return []value.Value{value.NewNumber(result)}, nil
	}
}

func biPow(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("pow", args, 0, 2, 2); err != nil {
		return nil, err
	}
	a, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	b, ok, err := e.argValue(ctx, args, 1, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if !a.IsNumber() || !b.IsNumber() {
		return nil, wantType("pow", 0, "two numbers", a)
	}
	return []value.Value{value.NewNumber(math.Pow(a.Number(), b.Number()))}, nil
}
