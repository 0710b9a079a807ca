package eval_test

import (
	"context"
	"testing"

	"github.com/sandrolain/tq/pkg/eval"
	"github.com/sandrolain/tq/pkg/parser"
	"github.com/sandrolain/tq/pkg/toon"
	"github.com/sandrolain/tq/pkg/value"
)

func run(t *testing.T, expr, doc string) []value.Value {
	t.Helper()
	q, err := parser.Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	input, err := toon.Parse(doc)
	if err != nil {
		t.Fatalf("toon.Parse(%q): %v", doc, err)
	}
	got, err := eval.New().Eval(context.Background(), q, input)
	if err != nil {
		t.Fatalf("Eval(%q): %v", expr, err)
	}
	return got
}

func texts(vs []value.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = toon.Write(v)
	}
	return out
}

func wantTexts(t *testing.T, got []value.Value, want ...string) {
	t.Helper()
	g := texts(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Errorf("result[%d] = %s, want %s", i, g[i], want[i])
		}
	}
}

// spec.md §8 seed scenario 1.
func TestSeedNestedFieldProjection(t *testing.T) {
	got := run(t, ".users[].email",
		`users[2]:
  - email: "a@x"
  - email: "b@y"
`)
	wantTexts(t, got, `"a@x"`, `"b@y"`)
}

// spec.md §8 seed scenario 2.
func TestSeedArrayLiteralThenAdd(t *testing.T) {
	got := run(t, "[.a, .b] | add", "a[2]: 1, 2\nb[2]: 3, 4\n")
	wantTexts(t, got, "[4]: 1, 2, 3, 4")
}

// spec.md §8 seed scenario 3.
func TestSeedMapSelectLength(t *testing.T) {
	got := run(t, "map(select(. > 2)) | length", "[5]: 1, 2, 3, 4, 5")
	wantTexts(t, got, "3")
}

// spec.md §8 seed scenario 4.
func TestSeedGroupByThenMapLength(t *testing.T) {
	got := run(t, "group_by(.k) | map(length)",
		`[5]:
  - k: 1
  - k: 2
  - k: 1
  - k: 2
  - k: 1
`)
	wantTexts(t, got, "[2]: 3, 2")
}

// spec.md §8 seed scenario 5.
func TestSeedIfElifElse(t *testing.T) {
	expr := "if . > 10 then \"big\" elif . > 5 then \"med\" else \"small\" end"
	wantTexts(t, run(t, expr, "3"), `"small"`)
	wantTexts(t, run(t, expr, "7"), `"med"`)
	wantTexts(t, run(t, expr, "42"), `"big"`)
}

// spec.md §8 seed scenario 6.
func TestSeedTryCatchDivByZero(t *testing.T) {
	got := run(t, `try (1/0) catch "div"`, "null")
	wantTexts(t, got, `"div"`)
}

// Universal invariant 2.
func TestIdentityYieldsExactlyInput(t *testing.T) {
	got := run(t, ".", `name: "Ann"`)
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	name, ok := got[0].Field("name")
	if !ok || name.Str() != "Ann" {
		t.Errorf("got %+v", got[0])
	}
}

// Universal invariant 3: Pipe(e, f) = concat over y in eval(e, x) of eval(f, y).
func TestPipeConcatenatesPerElement(t *testing.T) {
	got := run(t, ".[] | (., .)", "[2]: 1, 2")
	wantTexts(t, got, "1", "1", "2", "2")
}

// Universal invariant 4: Comma(e, f) = eval(e,x) ++ eval(f,x).
func TestCommaConcatenatesIndependentResults(t *testing.T) {
	got := run(t, ".a, .b", "a: 1\nb: 2\n")
	wantTexts(t, got, "1", "2")
}

// Universal invariant 5.
func TestIteratorYieldsElementsInOrderAndLengthMatches(t *testing.T) {
	got := run(t, ".[]", "[3]: 10, 20, 30")
	wantTexts(t, got, "10", "20", "30")
	wantTexts(t, run(t, "length", "[3]: 10, 20, 30"), "3")
}

// Universal invariant 6.
func TestMissingFieldYieldsNull(t *testing.T) {
	got := run(t, ".missing", `present: 1`)
	wantTexts(t, got, "null")
}

// Universal invariant 7.
func TestSortIsPermutationAndOrdered(t *testing.T) {
	got := run(t, "sort", "[4]: 3, 1, 4, 1")
	wantTexts(t, got, "[4]: 1, 1, 3, 4")
}

// Universal invariant 8.
func TestUniqueIsSortedWithNoAdjacentDuplicates(t *testing.T) {
	got := run(t, "unique", "[4]: 3, 1, 3, 2")
	wantTexts(t, got, "[3]: 1, 2, 3")
}

// Universal invariant 9.
func TestFromEntriesToEntriesRoundTrips(t *testing.T) {
	got := run(t, "to_entries | from_entries", `a: 1
b: 2
`)
	if len(got) != 1 || !got[0].IsObject() {
		t.Fatalf("got %+v", got)
	}
	a, _ := got[0].Field("a")
	b, _ := got[0].Field("b")
	if a.Number() != 1 || b.Number() != 2 {
		t.Errorf("got a=%+v b=%+v", a, b)
	}
}

// Universal invariant 10.
func TestExplodeImplodeRoundTrips(t *testing.T) {
	got := run(t, "explode | implode", `"hello"`)
	wantTexts(t, got, `"hello"`)
}

// Universal invariant 12: idempotence.
func TestSortUniqueFlattenAreIdempotent(t *testing.T) {
	wantTexts(t, run(t, "sort | sort", "[3]: 2, 1, 3"), "[3]: 1, 2, 3")
	wantTexts(t, run(t, "unique | unique", "[3]: 1, 1, 2"), "[2]: 1, 2")
	wantTexts(t, run(t, "flatten(0)", "[2]: 1, 2"), "[2]: 1, 2")
}

// Boundary: negative index and out-of-range.
func TestNegativeAndOutOfRangeIndex(t *testing.T) {
	wantTexts(t, run(t, ".[-1]", "[3]: 1, 2, 3"), "3")
	wantTexts(t, run(t, ".[10]", "[3]: 1, 2, 3"), "null")
}

// Boundary: reversed slice bounds produce an empty array, not an error.
func TestReversedSliceBoundsYieldEmptyArray(t *testing.T) {
	wantTexts(t, run(t, ".[3:1]", "[3]: 1, 2, 3"), "[0]:")
}

// Boundary: empty stream on a binary operand yields an empty result.
func TestEmptyOperandYieldsEmptyResult(t *testing.T) {
	got := run(t, "empty + 1", "null")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", texts(got))
	}
}

// Boundary: alternative `//`.
func TestAlternativeFallsBackOnNullOrFalse(t *testing.T) {
	wantTexts(t, run(t, "null // 1", "null"), "1")
	wantTexts(t, run(t, "false // 1", "null"), "1")
	wantTexts(t, run(t, "2 // 1", "null"), "2")
}

// Boundary: recursive descent on a scalar emits exactly the scalar.
func TestRecursiveDescentOnScalarEmitsScalar(t *testing.T) {
	got := run(t, "..", "42")
	wantTexts(t, got, "42")
}

// Boundary: group_by on an empty array returns [].
func TestGroupByOnEmptyArrayReturnsEmptyArray(t *testing.T) {
	wantTexts(t, run(t, "group_by(.k)", "[0]:"), "[0]:")
}

// spec.md §4.2: a standalone postfix `?` on an arbitrary primary, not
// just after a field, suppresses the primary's error into an empty stream.
func TestStandalonePostfixQuestionSuppressesError(t *testing.T) {
	got := run(t, "(1/0)?", "null")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", texts(got))
	}
}

func TestTryWithoutCatchBecomesEmptyStream(t *testing.T) {
	got := run(t, "try error(\"boom\")", "null")
	if len(got) != 0 {
		t.Errorf("got %v, want empty", texts(got))
	}
}

func TestUnknownFunctionNameIsEvalError(t *testing.T) {
	q, err := parser.Parse("nosuchfunction")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = eval.New().Eval(context.Background(), q, value.NullValue)
	if err == nil {
		t.Fatalf("expected error for unknown function")
	}
}
