package toon

import (
	"fmt"
	"strings"

	"github.com/sandrolain/tq/pkg/value"
)

// Options configures Write's indent width and inline-array delimiter.
// The zero value is the default: 2-space indent, comma delimiter.
type Options struct {
	IndentWidth int  // spaces per nesting level; 0 means 2
	Delimiter   byte // inline array separator; 0 means ','
}

func (o Options) indent() string {
	w := o.IndentWidth
	if w <= 0 {
		w = 2
	}
	return strings.Repeat(" ", w)
}

func (o Options) delimiter() string {
	if o.Delimiter == 0 {
		return ", "
	}
	if o.Delimiter == ',' {
		return ", "
	}
	return string(o.Delimiter)
}

func (o Options) headerDelimiter() string {
	switch o.Delimiter {
	case 0, ',':
		return ""
	default:
		return string(o.Delimiter)
	}
}

// Write serialises v to TOON text (spec.md §6: "an implementation
// should emit whichever form is lossless and shortest; tests only
// require parse(write(x)) = x on admissible values"). Strings are
// always double-quoted so they can never be confused with `true`,
// `false`, `null` or a number on read-back.
func Write(v value.Value) string {
	return WriteWithOptions(v, Options{})
}

// WriteWithOptions is Write with an explicit indent width and inline
// delimiter, wired from the optional config.Config.Writer settings.
func WriteWithOptions(v value.Value, opts Options) string {
	var sb strings.Builder
	switch {
	case v.IsObject():
		writeObjectFields(&sb, v, 0, opts)
	case v.IsArray():
		writeRootArray(&sb, v, opts)
	default:
		return writePrimitiveText(v)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeObjectFields(sb *strings.Builder, obj value.Value, depth int, opts Options) {
	indent := strings.Repeat(opts.indent(), depth)
	for _, k := range obj.Keys() {
		fv, _ := obj.Field(k)
		switch {
		case fv.IsArray():
			writeArrayField(sb, indent, k, fv, depth, opts)
		case fv.IsObject():
			fmt.Fprintf(sb, "%s%s:\n", indent, writeKey(k))
			writeObjectFields(sb, fv, depth+1, opts)
		default:
			fmt.Fprintf(sb, "%s%s: %s\n", indent, writeKey(k), writePrimitiveText(fv))
		}
	}
}

func writeRootArray(sb *strings.Builder, arr value.Value, opts Options) {
	writeArrayBody(sb, "", "", arr, 0, opts)
}

func writeArrayField(sb *strings.Builder, indent, key string, arr value.Value, depth int, opts Options) {
	writeArrayBody(sb, indent, writeKey(key), arr, depth, opts)
}

// writeArrayBody emits the array header (`key[N]:` or `[N]:` at the
// root) followed by inline values, or a `- item` list when any element
// is itself an array or object.
func writeArrayBody(sb *strings.Builder, indent, key string, arr value.Value, depth int, opts Options) {
	elems := arr.Elems()
	allScalar := true
	for _, el := range elems {
		if el.IsArray() || el.IsObject() {
			allScalar = false
			break
		}
	}

	header := fmt.Sprintf("%s%s[%d%s]:", indent, key, len(elems), opts.headerDelimiter())
	if allScalar {
		if len(elems) == 0 {
			fmt.Fprintf(sb, "%s\n", header)
			return
		}
		parts := make([]string, len(elems))
		for i, el := range elems {
			parts[i] = writePrimitiveText(el)
		}
		fmt.Fprintf(sb, "%s %s\n", header, strings.Join(parts, opts.delimiter()))
		return
	}

	fmt.Fprintf(sb, "%s\n", header)
	itemIndent := strings.Repeat(opts.indent(), depth+1)
	for _, el := range elems {
		writeListItem(sb, itemIndent, el, depth+1, opts)
	}
}

// writeListItem emits one `- item` line (and any follow-on lines it
// needs). Nested arrays recurse through the array-header form; nested
// objects use the reference reader's flat "first field inline, rest
// indented" shape, which only round-trips when every field is a scalar
// (see DESIGN.md "TOON reader/writer" — the reference parser has no
// form for a non-scalar field on a list-array object element).
func writeListItem(sb *strings.Builder, indent string, el value.Value, depth int, opts Options) {
	switch {
	case el.IsArray():
		writeArrayBody(sb, indent+"- ", "", el, depth, opts)
	case el.IsObject():
		writeObjectListItem(sb, indent, el, depth, opts)
	default:
		fmt.Fprintf(sb, "%s- %s\n", indent, writePrimitiveText(el))
	}
}

func writeObjectListItem(sb *strings.Builder, indent string, obj value.Value, depth int, opts Options) {
	keys := obj.Keys()
	if len(keys) == 0 {
		fmt.Fprintf(sb, "%s-\n", indent)
		return
	}
	first := keys[0]
	fv, _ := obj.Field(first)
	fmt.Fprintf(sb, "%s- %s: %s\n", indent, writeKey(first), writePrimitiveText(fv))
	fieldIndent := indent + opts.indent()
	for _, k := range keys[1:] {
		v, _ := obj.Field(k)
		fmt.Fprintf(sb, "%s%s: %s\n", fieldIndent, writeKey(k), writePrimitiveText(v))
	}
}

func writePrimitiveText(v value.Value) string {
	switch v.Kind() {
	case value.Null:
		return "null"
	case value.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case value.Number:
		return value.FormatNumber(v.Number())
	case value.String:
		return quoteString(v.Str())
	default:
		return quoteString(value.DebugString(v))
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuoting(k string) bool {
	if k == "" {
		return true
	}
	if strings.TrimSpace(k) != k {
		return true
	}
	return strings.ContainsAny(k, ":[]{}\"")
}

func writeKey(k string) string {
	if needsQuoting(k) {
		return quoteString(k)
	}
	return k
}
