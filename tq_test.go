package tq

import (
	"context"
	"testing"
)

func TestQueryRoundTripsThroughTOON(t *testing.T) {
	results, err := Query(context.Background(), ".users[].email",
		"users[2]:\n  - email: \"a@x\"\n  - email: \"b@y\"\n")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []string{`"a@x"`, `"b@y"`}
	if len(results) != len(want) {
		t.Fatalf("got %v, want %v", results, want)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result[%d] = %s, want %s", i, results[i], want[i])
		}
	}
}

func TestQueryPropagatesParseError(t *testing.T) {
	if _, err := Query(context.Background(), "(", "null"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCompileThenEvalReused(t *testing.T) {
	q, err := Compile(".a")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	out1, err := q.Eval(context.Background(), "a: 1\n")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	out2, err := q.Eval(context.Background(), "a: 2\n")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out1[0] != "1" || out2[0] != "2" {
		t.Errorf("got %v, %v", out1, out2)
	}
}

func TestEngineWithCachingReusesCompiledQuery(t *testing.T) {
	e := NewEngine(WithCaching(4))
	if _, err := e.Query(context.Background(), ".a", "a: 1\n"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if _, err := e.Query(context.Background(), ".a", "a: 2\n"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if e.cache.Len() != 1 {
		t.Errorf("cache.Len() = %d, want 1", e.cache.Len())
	}
}

func TestMustCompilePanicsOnInvalidExpression(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustCompile("(")
}
