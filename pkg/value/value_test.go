package value

import "testing"

func TestCompareCrossType(t *testing.T) {
	vals := []Value{
		NullValue,
		NewBool(false),
		NewNumber(0),
		NewString(""),
		NewArray(nil),
		NewObject(nil),
	}
	for i := 0; i < len(vals); i++ {
		for j := i + 1; j < len(vals); j++ {
			if Compare(vals[i], vals[j]) >= 0 {
				t.Errorf("expected vals[%d] < vals[%d] (kind %v < kind %v)", i, j, vals[i].Kind(), vals[j].Kind())
			}
		}
	}
}

func TestCompareReflexive(t *testing.T) {
	tests := []Value{
		NullValue,
		NewBool(true),
		NewNumber(3.5),
		NewString("x"),
		NewArray([]Value{NewNumber(1), NewNumber(2)}),
		NewObject(map[string]Value{"a": NewNumber(1)}),
	}
	for _, v := range tests {
		if Compare(v, v) != 0 {
			t.Errorf("Compare(%v, %v) != 0", v, v)
		}
	}
}

func TestCompareBooleans(t *testing.T) {
	if Compare(NewBool(false), NewBool(true)) >= 0 {
		t.Error("false should compare less than true")
	}
}

func TestObjectIterationSortedByKey(t *testing.T) {
	o := NewObject(map[string]Value{"b": NewNumber(2), "a": NewNumber(1), "c": NewNumber(3)})
	keys := o.Keys()
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NullValue, false},
		{NewBool(false), false},
		{NewBool(true), true},
		{NewNumber(0), true},
		{NewString(""), true},
		{NewArray(nil), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("Truthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestFormatNumberIntegerLikeHasNoFraction(t *testing.T) {
	if got := FormatNumber(3.0); got != "3" {
		t.Errorf("FormatNumber(3.0) = %q, want %q", got, "3")
	}
	if got := FormatNumber(3.5); got != "3.5" {
		t.Errorf("FormatNumber(3.5) = %q, want %q", got, "3.5")
	}
}

func TestEqualAntisymmetricTransitive(t *testing.T) {
	a := NewNumber(1)
	b := NewNumber(1)
	c := NewNumber(1)
	if !Equal(a, b) || !Equal(b, c) || !Equal(a, c) {
		t.Error("equality should be transitive across equal numbers")
	}
	lo, hi := NewNumber(1), NewNumber(2)
	if Compare(lo, hi) != -Compare(hi, lo) {
		t.Error("Compare should be antisymmetric")
	}
}
