package eval

import (
	"context"
	"time"

	"github.com/sandrolain/tq/pkg/ast"
	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

func init() {
	register(map[string]BuiltinFunc{
		"now":              biNow,
		"gmtime":           biGmtime,
		"mktime":           biMktime,
		"strftime":         biStrftime,
		"strptime":         biStrptime,
		"todate":           biTodate,
		"fromdate":         biFromdate,
		"todateiso8601":    biTodate,
		"fromdateiso8601":  biFromdate,
	})
}

const iso8601 = "2006-01-02T15:04:05Z"

// biNow returns the current time as Unix seconds; the evaluator's
// Options.Now hook lets callers (tests, deterministic pipelines) pin it.
func biNow(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("now", args, 0, 0, 0); err != nil {
		return nil, err
	}
	return []value.Value{value.NewNumber(float64(e.now().Unix()))}, nil
}

// gmtimeArray renders a time.Time as a broken-down time array in the
// order [year, month(0-based), day, hour, min, sec, wday, yday].
func gmtimeArray(t time.Time) value.Value {
	return value.NewArray([]value.Value{
		value.NewNumber(float64(t.Year())),
		value.NewNumber(float64(int(t.Month()) - 1)),
		value.NewNumber(float64(t.Day())),
		value.NewNumber(float64(t.Hour())),
		value.NewNumber(float64(t.Minute())),
		value.NewNumber(float64(t.Second())),
		value.NewNumber(float64(int(t.Weekday()))),
		value.NewNumber(float64(t.YearDay() - 1)),
	})
}

func biGmtime(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("gmtime", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsNumber() {
		return nil, wantType("gmtime", 0, "number", input)
	}
	t := time.Unix(int64(input.Number()), 0).UTC()
	return []value.Value{gmtimeArray(t)}, nil
}

func timeFromArray(v value.Value) (time.Time, error) {
	if !v.IsArray() || v.Len() < 6 {
		return time.Time{}, tqerr.New(tqerr.Eval, "expected a broken-down time array")
	}
	el := v.Elems()
	get := func(i int) int {
		if i >= len(el) || !el[i].IsNumber() {
			return 0
		}
		return int(el[i].Number())
	}
	return time.Date(get(0), time.Month(get(1)+1), get(2), get(3), get(4), get(5), 0, time.UTC), nil
}

func biMktime(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("mktime", args, 0, 0, 0); err != nil {
		return nil, err
	}
	t, err := timeFromArray(input)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.NewNumber(float64(t.Unix()))}, nil
}

func biStrftime(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("strftime", args, 0, 1, 1); err != nil {
		return nil, err
	}
	fv, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !fv.IsString() {
		return nil, wantType("strftime", 0, "string format", fv)
	}
	t, err := timeFromArray(input)
	if err != nil {
		return nil, err
	}
	return []value.Value{value.NewString(t.Format(strftimeToGoLayout(fv.Str())))}, nil
}

func biStrptime(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("strptime", args, 0, 1, 1); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("strptime", 0, "string", input)
	}
	fv, ok, err := e.argValue(ctx, args, 0, input, depth)
	if err != nil {
		return nil, err
	}
	if !ok || !fv.IsString() {
		return nil, wantType("strptime", 0, "string format", fv)
	}
	t, err := time.Parse(strftimeToGoLayout(fv.Str()), input.Str())
	if err != nil {
		return nil, tqerr.Newf(tqerr.Eval, "strptime: %v", err)
	}
	return []value.Value{gmtimeArray(t.UTC())}, nil
}

// strftimeToGoLayout translates the small set of strftime directives tq
// supports into a Go reference-time layout string.
func strftimeToGoLayout(format string) string {
	replacer := map[byte]string{
		'Y': "2006", 'm': "01", 'd': "02",
		'H': "15", 'M': "04", 'S': "05",
		'Z': "Z0700",
	}
	out := make([]byte, 0, len(format)*2)
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			if layout, ok := replacer[format[i+1]]; ok {
				out = append(out, layout...)
				i++
				continue
			}
		}
		out = append(out, format[i])
	}
	return string(out)
}

func biTodate(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("todate", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsNumber() {
		return nil, wantType("todate", 0, "number", input)
	}
	t := time.Unix(int64(input.Number()), 0).UTC()
	return []value.Value{value.NewString(t.Format(iso8601))}, nil
}

func biFromdate(e *Evaluator, ctx context.Context, input value.Value, args []*ast.Expr, depth int) ([]value.Value, error) {
	if err := arity("fromdate", args, 0, 0, 0); err != nil {
		return nil, err
	}
	if !input.IsString() {
		return nil, wantType("fromdate", 0, "string", input)
	}
	t, err := time.Parse(iso8601, input.Str())
	if err != nil {
		return nil, tqerr.Newf(tqerr.Eval, "fromdate: %v", err)
	}
	return []value.Value{value.NewNumber(float64(t.Unix()))}, nil
}
