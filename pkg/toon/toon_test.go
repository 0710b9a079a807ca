package toon

import (
	"testing"

	"github.com/sandrolain/tq/pkg/value"
)

func TestParseObjectFields(t *testing.T) {
	v, err := Parse("name: \"Ann\"\nage: 30\nactive: true\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.IsObject() {
		t.Fatalf("expected object, got %s", v.Kind())
	}
	name, ok := v.Field("name")
	if !ok || name.Str() != "Ann" {
		t.Errorf("name = %+v", name)
	}
	age, ok := v.Field("age")
	if !ok || age.Number() != 30 {
		t.Errorf("age = %+v", age)
	}
}

func TestParseInlineArray(t *testing.T) {
	v, err := Parse("nums[3]: 1, 2, 3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	nums, ok := v.Field("nums")
	if !ok || !nums.IsArray() || nums.Len() != 3 {
		t.Fatalf("nums = %+v", nums)
	}
}

func TestParseRootArrayInline(t *testing.T) {
	v, err := Parse("[3]: 1, 2, 3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.IsArray() || v.Len() != 3 {
		t.Fatalf("got %+v", v)
	}
}

func TestParseListArray(t *testing.T) {
	v, err := Parse("items[2]:\n  - \"a\"\n  - \"b\"\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	items, ok := v.Field("items")
	if !ok || items.Len() != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items.Elems()[0].Str() != "a" {
		t.Errorf("elem 0 = %+v", items.Elems()[0])
	}
}

func TestParseTabularArray(t *testing.T) {
	v, err := Parse("rows[2]{a,b}:\n  1,2\n  3,4\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rows, ok := v.Field("rows")
	if !ok || rows.Len() != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	a, _ := rows.Elems()[0].Field("a")
	if a.Number() != 1 {
		t.Errorf("rows[0].a = %+v", a)
	}
}

func TestParseNestedObject(t *testing.T) {
	v, err := Parse("outer:\n  inner: 1\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	outer, ok := v.Field("outer")
	if !ok || !outer.IsObject() {
		t.Fatalf("outer = %+v", outer)
	}
	inner, ok := outer.Field("inner")
	if !ok || inner.Number() != 1 {
		t.Errorf("inner = %+v", inner)
	}
}

func TestParseSinglePrimitiveRoot(t *testing.T) {
	v, err := Parse("42\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.IsNumber() || v.Number() != 42 {
		t.Fatalf("got %+v", v)
	}
}

func TestParseEmptyInputIsEmptyObject(t *testing.T) {
	v, err := Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.IsObject() || v.Len() != 0 {
		t.Fatalf("got %+v", v)
	}
}

func TestWriteThenParseRoundTripsObject(t *testing.T) {
	orig := value.NewObject(map[string]value.Value{
		"name":   value.NewString("Ann"),
		"age":    value.NewNumber(30),
		"active": value.NewBool(true),
		"tags":   value.NewArray([]value.Value{value.NewString("a"), value.NewString("b")}),
	})
	text := Write(orig)
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Write(x)): %v\ntext:\n%s", err, text)
	}
	if !value.Equal(orig, got) {
		t.Errorf("round trip mismatch:\nwant %s\ngot  %s\ntext:\n%s", value.DebugString(orig), value.DebugString(got), text)
	}
}

func TestWriteThenParseRoundTripsArrayOfObjects(t *testing.T) {
	orig := value.NewArray([]value.Value{
		value.NewObject(map[string]value.Value{"id": value.NewNumber(1), "name": value.NewString("a")}),
		value.NewObject(map[string]value.Value{"id": value.NewNumber(2), "name": value.NewString("b")}),
	})
	text := Write(orig)
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Write(x)): %v\ntext:\n%s", err, text)
	}
	if !value.Equal(orig, got) {
		t.Errorf("round trip mismatch:\nwant %s\ngot  %s\ntext:\n%s", value.DebugString(orig), value.DebugString(got), text)
	}
}

func TestWriteThenParseRoundTripsNestedArrays(t *testing.T) {
	orig := value.NewArray([]value.Value{
		value.NewArray([]value.Value{value.NewNumber(1), value.NewNumber(2)}),
		value.NewArray([]value.Value{value.NewNumber(3)}),
	})
	text := Write(orig)
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Write(x)): %v\ntext:\n%s", err, text)
	}
	if !value.Equal(orig, got) {
		t.Errorf("round trip mismatch:\nwant %s\ngot  %s", value.DebugString(orig), value.DebugString(got))
	}
}

func TestWriteQuotesStringsAlwaysForSafeRoundTrip(t *testing.T) {
	text := Write(value.NewString("true"))
	if text != `"true"` {
		t.Errorf("got %q", text)
	}
	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !got.IsString() || got.Str() != "true" {
		t.Errorf("round trip of string \"true\" got %+v", got)
	}
}
