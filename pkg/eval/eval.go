// Package eval implements tq's expression evaluator (spec.md §4.3): a
// purely recursive `eval(expr, input) → stream of values` with no
// explicit scheduler, dispatching by ast.Kind. The Evaluator struct shape
// (options, *slog.Logger) follows the teacher's
// pkg/evaluator.Evaluator (gosonata), re-keyed to tq's closed AST and its
// const builtin dispatch map instead of JSONata's user-extensible
// function/lambda/bind machinery (spec.md §9 "Global operator table →
// const dispatch map").
package eval

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// Evaluator evaluates a parsed tq query against a value. It carries no
// per-query mutable state; a single Evaluator is safe to reuse (and to
// share across goroutines) for any number of concurrent Eval calls,
// matching spec.md §5's "two concurrent invocations against disjoint
// inputs produce independent outputs with no shared state".
type Evaluator struct {
	opts   Options
	logger *slog.Logger
}

// Options configures an Evaluator.
type Options struct {
	// Logger receives structured diagnostics (evaluation start/failure,
	// `debug` builtin output). Defaults to slog.Default().
	Logger *slog.Logger
	// MaxDepth bounds recursive-expression nesting depth, guarding
	// against runaway recursion on pathological queries (pipes nested
	// thousands deep). The source has no such guard; this is a systems
	// hardening addition in the teacher's own style (EvalOptions.MaxDepth
	// in gosonata).
	MaxDepth int
	// Now, when set, is used in place of time.Now for the `now` builtin.
	// Exists so tests can pin the clock; production callers leave it nil.
	Now func() time.Time
}

// Option configures an Evaluator via New.
type Option func(*Options)

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }
func WithMaxDepth(d int) Option        { return func(o *Options) { o.MaxDepth = d } }

const defaultMaxDepth = 2000

// New creates an Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	o := Options{MaxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Evaluator{opts: o, logger: o.Logger}
}

// Eval evaluates q's root expression against input and returns the full
// result stream (spec.md §5: "the evaluator materialises full result
// lists at each combinator — this is not a streaming pull interface").
func (e *Evaluator) Eval(ctx context.Context, q *ast.Query, input value.Value) ([]value.Value, error) {
	return e.eval(ctx, q.Root, input, 0)
}

func (e *Evaluator) now() time.Time {
	if e.opts.Now != nil {
		return e.opts.Now()
	}
	return time.Now()
}

// eval is the core recursive dispatch (spec.md §4.3 "Dispatch by
// expression kind. The evaluator is purely recursive; it has no explicit
// scheduler."). depth guards against unbounded recursion; it is not part
// of the spec's observable behavior.
func (e *Evaluator) eval(ctx context.Context, expr *ast.Expr, input value.Value, depth int) ([]value.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if depth > e.opts.MaxDepth {
		return nil, tqerr.New(tqerr.Eval, "maximum evaluation depth exceeded").At(expr.Position)
	}
	depth++

	switch expr.Kind {
	case ast.KindLiteralNull:
		return []value.Value{value.NullValue}, nil
	case ast.KindLiteralBool:
		return []value.Value{value.NewBool(expr.BoolVal)}, nil
	case ast.KindLiteralNumber:
		return []value.Value{value.NewNumber(expr.NumberVal)}, nil
	case ast.KindLiteralString:
		return []value.Value{value.NewString(expr.StringVal)}, nil

	case ast.KindIdentity:
		return []value.Value{input}, nil

	case ast.KindField:
		return e.evalField(expr, input)
	case ast.KindIndex:
		return e.evalIndex(expr, input)
	case ast.KindSlice:
		return e.evalSlice(expr, input)
	case ast.KindIterator:
		return e.evalIterator(input)
	case ast.KindRecursiveDescent:
		return recursiveDescent(input), nil

	case ast.KindPipe:
		return e.evalPipe(ctx, expr, input, depth)
	case ast.KindComma:
		return e.evalComma(ctx, expr, input, depth)

	case ast.KindBinaryOp:
		return e.evalBinaryOp(ctx, expr, input, depth)
	case ast.KindUnaryOp:
		return e.evalUnaryOp(ctx, expr, input, depth)

	case ast.KindIf:
		return e.evalIf(ctx, expr, input, depth)
	case ast.KindTry:
		return e.evalTry(ctx, expr, input, depth)

	case ast.KindArrayLiteral:
		return e.evalArrayLiteral(ctx, expr, input, depth)
	case ast.KindObjectLiteral:
		return e.evalObjectLiteral(ctx, expr, input, depth)

	case ast.KindFunctionCall:
		return e.evalFunctionCall(ctx, expr, input, depth)

	case ast.KindAssignment, ast.KindReduce, ast.KindForeach,
		ast.KindVariable, ast.KindAsPattern, ast.KindFunctionDef:
		return nil, tqerr.Newf(tqerr.Eval, "%s is not supported", expr.Kind).At(expr.Position)

	default:
		return nil, tqerr.Newf(tqerr.Eval, "unhandled expression kind %s", expr.Kind).At(expr.Position)
	}
}

// firstOf evaluates expr and returns its stream's first value, or
// (Null, false, nil) when the stream is empty.
func (e *Evaluator) firstOf(ctx context.Context, expr *ast.Expr, input value.Value, depth int) (value.Value, bool, error) {
	vs, err := e.eval(ctx, expr, input, depth)
	if err != nil {
		return value.NullValue, false, err
	}
	if len(vs) == 0 {
		return value.NullValue, false, nil
	}
	return vs[0], true, nil
}
