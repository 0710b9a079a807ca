// Package tq provides a jq-like query engine over TOON documents.
//
// TOON is a lightweight, whitespace-significant text format (object
// fields as `key: value` lines, array bodies as inline/tabular/list
// forms). tq's query language is a subset of jq: pipelines, path
// navigation, comma concatenation, arithmetic/comparison/logical
// operators, control flow, array/object construction, and a fixed table
// of built-in functions.
//
// # Quick Start
//
//	// Text in, text out: parses doc as TOON, evaluates, writes results as TOON.
//	results, err := tq.Query(ctx, `.items[] | select(.price > 100)`, doc)
//
//	// Compile once, evaluate many times against pre-decoded values.
//	q, err := tq.Compile(`.name`)
//	out1, _ := q.EvalValues(ctx, value1)
//	out2, _ := q.EvalValues(ctx, value2)
//
//	// With an engine configured for caching, logging or a custom clock.
//	e := tq.NewEngine(tq.WithCaching(256), tq.WithConfig(cfg))
//	results, err := e.Query(ctx, expression, doc)
package tq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/cache"
	"github.com/sandrolain/tq/pkg/config"
	"github.com/sandrolain/tq/pkg/eval"
	"github.com/sandrolain/tq/pkg/parser"
	"github.com/sandrolain/tq/pkg/toon"
	"github.com/sandrolain/tq/pkg/value"
)

// Version returns the current version of tq.
func Version() string {
	return "v0.1.0-dev"
}

// CompiledQuery is a compiled expression, ready to evaluate against any
// number of inputs. It is safe for concurrent use.
type CompiledQuery struct {
	ast *ast.Query
	eng *Engine
}

// Compile compiles a tq expression using a default Engine. For repeated
// compilation with shared caching or logging, build an Engine via
// NewEngine and call Engine.Compile instead.
func Compile(expression string) (*CompiledQuery, error) {
	return defaultEngine.Compile(expression)
}

// MustCompile is like Compile but panics if the expression cannot be
// compiled. It simplifies safe initialization of global variables.
func MustCompile(expression string) *CompiledQuery {
	q, err := Compile(expression)
	if err != nil {
		panic(fmt.Sprintf("tq: Compile(%q): %v", expression, err))
	}
	return q
}

// EvalValues evaluates q against a pre-decoded input value, skipping the
// TOON codec (spec.md §6 `query_values`).
func (q *CompiledQuery) EvalValues(ctx context.Context, input value.Value) ([]value.Value, error) {
	return q.eng.evalValues(ctx, q.ast, input)
}

// Eval evaluates q against a TOON document and serialises each result
// back to TOON text (spec.md §6 `query`).
func (q *CompiledQuery) Eval(ctx context.Context, document string) ([]string, error) {
	return q.eng.evalDocument(ctx, q.ast, document)
}

// Engine holds the shared, reusable state behind the package-level
// Query/QueryValues/Compile helpers: an optional compiled-query cache, a
// structured logger, and writer/config defaults. The zero Engine is
// usable; NewEngine applies Options on top of it.
type Engine struct {
	cache    *cache.Cache
	logger   *slog.Logger
	cfg      config.Config
	evalOpts []eval.Option
}

var defaultEngine = NewEngine()

// EngineOption configures an Engine via NewEngine.
type EngineOption func(*Engine)

// WithCaching enables an LRU cache of compiled queries with the given
// capacity (teacher's pkg/cache, adapted to cache *ast.Query instead of
// *types.Expression — spec.md §5 "the parser output is cacheable by
// source string").
func WithCaching(capacity int) EngineOption {
	return func(e *Engine) { e.cache = cache.New(capacity) }
}

// WithLogger sets the structured logger used for query diagnostics.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithConfig applies a decoded config.Config (writer indent/delimiter,
// CLI defaults) to the engine.
func WithConfig(cfg config.Config) EngineOption {
	return func(e *Engine) { e.cfg = cfg }
}

// WithEvalOptions passes through additional pkg/eval.Option values (for
// example eval.WithMaxDepth) to every Evaluator the engine constructs.
func WithEvalOptions(opts ...eval.Option) EngineOption {
	return func(e *Engine) { e.evalOpts = append(e.evalOpts, opts...) }
}

// NewEngine creates an Engine. With no options, queries are not cached
// and diagnostics go to slog.Default().
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Compile parses expression, using the engine's cache if enabled.
func (e *Engine) Compile(expression string) (*CompiledQuery, error) {
	q, err := e.compileAST(expression)
	if err != nil {
		return nil, err
	}
	return &CompiledQuery{ast: q, eng: e}, nil
}

func (e *Engine) compileAST(expression string) (*ast.Query, error) {
	if e.cache != nil {
		return e.cache.GetOrCompile(expression, func() (*ast.Query, error) {
			return parser.Parse(expression)
		})
	}
	return parser.Parse(expression)
}

// QueryValues compiles expression and evaluates it against a pre-decoded
// input value, skipping the TOON codec (spec.md §6 `query_values`).
func (e *Engine) QueryValues(ctx context.Context, expression string, input value.Value) ([]value.Value, error) {
	q, err := e.compileAST(expression)
	if err != nil {
		return nil, err
	}
	return e.evalValues(ctx, q, input)
}

// Query compiles expression, parses document as TOON, evaluates, and
// serialises each result back to TOON text (spec.md §6 `query`).
func (e *Engine) Query(ctx context.Context, expression, document string) ([]string, error) {
	q, err := e.compileAST(expression)
	if err != nil {
		return nil, err
	}
	return e.evalDocument(ctx, q, document)
}

func (e *Engine) evalValues(ctx context.Context, q *ast.Query, input value.Value) ([]value.Value, error) {
	queryID := uuid.New().String()
	base := e.logger
	if base == nil {
		base = slog.Default()
	}
	logger := base.With(slog.String("query_id", queryID), slog.String("query", q.Source))

	ev := eval.New(append([]eval.Option{eval.WithLogger(logger)}, e.evalOpts...)...)
	results, err := ev.Eval(ctx, q, input)
	if err != nil {
		logger.Warn("query failed", slog.String("error", err.Error()))
		return nil, err
	}
	logger.Debug("query evaluated", slog.Int("result_count", len(results)))
	return results, nil
}

func (e *Engine) evalDocument(ctx context.Context, q *ast.Query, document string) ([]string, error) {
	input, err := toon.Parse(document)
	if err != nil {
		return nil, err
	}
	results, err := e.evalValues(ctx, q, input)
	if err != nil {
		return nil, err
	}
	writerOpts := toon.Options{
		IndentWidth: e.cfg.IndentWidth(0),
		Delimiter:   e.cfg.DelimiterByte(0),
	}
	texts := make([]string, len(results))
	for i, v := range results {
		texts[i] = toon.WriteWithOptions(v, writerOpts)
	}
	return texts, nil
}

// Query is a convenience function that compiles and evaluates an
// expression against a TOON document in a single call using the default
// Engine. For repeated evaluations of the same expression, use Compile
// or build an Engine with WithCaching instead.
func Query(ctx context.Context, expression, document string) ([]string, error) {
	return defaultEngine.Query(ctx, expression, document)
}

// QueryValues is Query's value-level counterpart: it skips the TOON
// codec entirely, for host bindings that already have a decoded value.
func QueryValues(ctx context.Context, expression string, input value.Value) ([]value.Value, error) {
	return defaultEngine.QueryValues(ctx, expression, input)
}
