// Package toon implements the TOON text codec tq's library API uses to
// read query documents and serialise results (spec.md §6 "TOON surface").
// The reader is a direct Go port of the reference parser's control flow
// (original_source/tq-core/src/toon_parser.cpp), restated with Go error
// returns instead of C++ exceptions and tq's value.Value instead of a
// bespoke Value class.
package toon

import (
	"strconv"
	"strings"

	"github.com/sandrolain/tq/pkg/tqerr"
	"github.com/sandrolain/tq/pkg/value"
)

// reader holds the line-oriented parsing cursor (tq-core's Context).
type reader struct {
	lines  []string
	pos    int
	indent int
}

// Parse decodes a TOON document into a value.Value. Empty input decodes
// to an empty object, matching the reference parser.
func Parse(content string) (value.Value, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return value.NewObject(nil), nil
	}

	r := &reader{lines: lines, indent: 2}

	first := lineContent(lines[0])
	if isArrayHeader(first) && strings.HasPrefix(first, "[") {
		return r.parseRootArray()
	}

	if len(lines) == 1 {
		c := lineContent(lines[0])
		if !strings.Contains(c, ":") {
			return parsePrimitive(c), nil
		}
	}

	return r.parseObjectFields(0)
}

// parseObjectFields parses `key: value` lines at baseDepth until the
// indentation drops below it or rises above it unexpectedly.
func (r *reader) parseObjectFields(baseDepth int) (value.Value, error) {
	fields := map[string]value.Value{}

	for r.pos < len(r.lines) {
		depth := lineDepth(r.lines[r.pos], r.indent)
		if depth != baseDepth {
			break
		}

		content := lineContent(r.lines[r.pos])
		if content == "" || content[0] == '-' {
			break
		}

		colon := findUnquotedColon(content)
		if colon < 0 {
			break
		}

		keyPart := strings.TrimSpace(content[:colon])
		valuePart := strings.TrimSpace(content[colon+1:])

		if isArrayHeader(content) {
			header, err := parseArrayHeader(content)
			if err != nil {
				return value.NullValue, err
			}
			r.pos++

			var arr value.Value
			switch {
			case valuePart != "":
				arr, err = parseInlineArray(valuePart, header.delimiter)
			case len(header.fields) > 0:
				arr, err = r.parseTabularArray(baseDepth+1, header)
			default:
				arr, err = r.parseListArray(baseDepth+1, header.length)
			}
			if err != nil {
				return value.NullValue, err
			}
			fields[header.key] = arr
			continue
		}

		key := parseKey(keyPart)
		r.pos++
		if valuePart == "" {
			nested, err := r.parseObjectFields(baseDepth + 1)
			if err != nil {
				return value.NullValue, err
			}
			fields[key] = nested
		} else {
			fields[key] = parsePrimitive(valuePart)
		}
	}

	return value.NewObject(fields), nil
}

// parseRootArray handles a document whose first line is itself a keyless
// `[N]` array header. A keyed header on the first line is an ordinary
// object field and goes through parseObjectFields.
func (r *reader) parseRootArray() (value.Value, error) {
	content := lineContent(r.lines[0])
	header, err := parseArrayHeader(content)
	if err != nil {
		return value.NullValue, err
	}
	r.pos = 1

	var arr value.Value
	haveInline := false
	if colon := findUnquotedColon(content); colon >= 0 {
		after := strings.TrimSpace(content[colon+1:])
		if after != "" {
			arr, err = parseInlineArray(after, header.delimiter)
			if err != nil {
				return value.NullValue, err
			}
			haveInline = true
		}
	}
	if !haveInline {
		if len(header.fields) > 0 {
			arr, err = r.parseTabularArray(1, header)
		} else {
			arr, err = r.parseListArray(1, header.length)
		}
		if err != nil {
			return value.NullValue, err
		}
	}

	if header.key != "" {
		return value.NewObject(map[string]value.Value{header.key: arr}), nil
	}
	return arr, nil
}

func parseInlineArray(valuesStr string, delimiter byte) (value.Value, error) {
	parts := splitDelimited(valuesStr, delimiter)
	items := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			items = append(items, parsePrimitive(t))
		}
	}
	return value.NewArray(items), nil
}

// parseTabularArray reads header.length rows of delimiter-separated
// values at itemDepth, zipping each row against header.fields.
func (r *reader) parseTabularArray(itemDepth int, header arrayHeader) (value.Value, error) {
	var items []value.Value
	for r.pos < len(r.lines) && len(items) < header.length {
		depth := lineDepth(r.lines[r.pos], r.indent)
		if depth != itemDepth {
			break
		}
		content := lineContent(r.lines[r.pos])
		values := splitDelimited(content, header.delimiter)

		fields := map[string]value.Value{}
		for i := 0; i < len(header.fields) && i < len(values); i++ {
			fields[header.fields[i]] = parsePrimitive(strings.TrimSpace(values[i]))
		}
		items = append(items, value.NewObject(fields))
		r.pos++
	}
	return value.NewArray(items), nil
}

// parseListArray reads `- item` lines at itemDepth; an item may itself
// be a primitive, an inline object (`- key: value` plus follow-on
// indented fields), or a nested array header.
func (r *reader) parseListArray(itemDepth int, expected int) (value.Value, error) {
	var items []value.Value
	for r.pos < len(r.lines) && len(items) < expected {
		depth := lineDepth(r.lines[r.pos], r.indent)
		if depth != itemDepth {
			break
		}
		content := lineContent(r.lines[r.pos])
		if content == "" || content[0] != '-' {
			break
		}
		r.pos++

		afterDash := strings.TrimSpace(content[1:])
		switch {
		case afterDash == "":
			items = append(items, value.NewObject(nil))
		case isArrayHeader(afterDash):
			header, err := parseArrayHeader(afterDash)
			if err != nil {
				return value.NullValue, err
			}
			var arr value.Value
			haveInline := false
			if colon := findUnquotedColon(afterDash); colon >= 0 {
				after := strings.TrimSpace(afterDash[colon+1:])
				if after != "" {
					arr, err = parseInlineArray(after, header.delimiter)
					if err != nil {
						return value.NullValue, err
					}
					haveInline = true
				}
			}
			if !haveInline {
				if len(header.fields) > 0 {
					arr, err = r.parseTabularArray(itemDepth+1, header)
				} else {
					arr, err = r.parseListArray(itemDepth+1, header.length)
				}
				if err != nil {
					return value.NullValue, err
				}
			}
			items = append(items, arr)
		case strings.Contains(afterDash, ":"):
			colon := findUnquotedColon(afterDash)
			if colon < 0 {
				return value.NullValue, tqerr.New(tqerr.IO, "malformed list item: missing colon")
			}
			fields := map[string]value.Value{}
			fields[parseKey(strings.TrimSpace(afterDash[:colon]))] = parsePrimitive(strings.TrimSpace(afterDash[colon+1:]))

			for r.pos < len(r.lines) {
				fieldDepth := lineDepth(r.lines[r.pos], r.indent)
				if fieldDepth <= itemDepth {
					break
				}
				fieldContent := lineContent(r.lines[r.pos])
				if fieldContent == "" || fieldContent[0] == '-' {
					break
				}
				fc := findUnquotedColon(fieldContent)
				if fc < 0 {
					break
				}
				fields[parseKey(strings.TrimSpace(fieldContent[:fc]))] = parsePrimitive(strings.TrimSpace(fieldContent[fc+1:]))
				r.pos++
			}
			items = append(items, value.NewObject(fields))
		default:
			items = append(items, parsePrimitive(afterDash))
		}
	}
	return value.NewArray(items), nil
}

// parsePrimitive converts a trimmed scalar token to a Value. Unparseable
// or unrecognised tokens fall back to a bare string, matching the
// reference parser's permissive behavior (it never raises on an
// unquoted-string-shaped token).
func parsePrimitive(s string) value.Value {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return value.NewString("")
	case "true":
		return value.NewBool(true)
	case "false":
		return value.NewBool(false)
	case "null":
		return value.NullValue
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return value.NewString(unescapeString(s[1 : len(s)-1]))
	}
	if isNumeric(s) {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			if n == 0 {
				n = 0 // normalize -0
			}
			return value.NewNumber(n)
		}
	}
	return value.NewString(s)
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(content, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineDepth(line string, indent int) int {
	spaces := 0
	for _, c := range line {
		if c != ' ' {
			break
		}
		spaces++
	}
	if indent <= 0 {
		return 0
	}
	return spaces / indent
}

func lineContent(line string) string {
	return strings.TrimLeft(line, " ")
}

type arrayHeader struct {
	key       string
	length    int
	delimiter byte
	fields    []string
}

// isArrayHeader matches `key[N]:` / `[N]:` headers the reader special-
// cases, per spec.md §6.
func isArrayHeader(content string) bool {
	b := strings.IndexByte(content, '[')
	if b < 0 {
		return false
	}
	e := strings.IndexByte(content[b:], ']')
	if e < 0 {
		return false
	}
	closeIdx := b + e
	return strings.IndexByte(content[closeIdx:], ':') >= 0
}

func parseArrayHeader(content string) (arrayHeader, error) {
	var h arrayHeader
	h.delimiter = ','

	bracketStart := strings.IndexByte(content, '[')
	bracketEnd := strings.IndexByte(content[bracketStart:], ']') + bracketStart

	if bracketStart > 0 {
		h.key = parseKey(strings.TrimSpace(content[:bracketStart]))
	}

	bracketContent := content[bracketStart+1 : bracketEnd]
	if bracketContent != "" {
		last := bracketContent[len(bracketContent)-1]
		if last == '\t' || last == '|' {
			h.delimiter = last
			bracketContent = bracketContent[:len(bracketContent)-1]
		}
	}
	bracketContent = strings.TrimSpace(bracketContent)
	n, err := strconv.Atoi(bracketContent)
	if err != nil {
		return h, tqerr.Newf(tqerr.IO, "malformed array header length %q", bracketContent)
	}
	h.length = n

	braceStart := strings.IndexByte(content[bracketEnd:], '{')
	if braceStart >= 0 {
		braceStart += bracketEnd
		braceEnd := strings.IndexByte(content[braceStart:], '}')
		if braceEnd >= 0 {
			braceEnd += braceStart
			fieldsContent := content[braceStart+1 : braceEnd]
			h.fields = splitDelimitedStrings(fieldsContent, h.delimiter)
			for i, f := range h.fields {
				f = strings.TrimSpace(f)
				if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
					f = f[1 : len(f)-1]
				}
				h.fields[i] = f
			}
		}
	}

	return h, nil
}

func splitDelimitedStrings(s string, delim byte) []string {
	return splitDelimited(s, delim)
}

func parseKey(keyStr string) string {
	k := strings.TrimSpace(keyStr)
	if len(k) >= 2 && k[0] == '"' && k[len(k)-1] == '"' {
		return unescapeString(k[1 : len(k)-1])
	}
	return k
}

// findUnquotedColon returns the byte index of the first `:` outside a
// double-quoted run, or -1 if none.
func findUnquotedColon(s string) int {
	inQuotes := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inQuotes {
			escaped = true
			continue
		}
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if c == ':' && !inQuotes {
			return i
		}
	}
	return -1
}

func splitDelimited(s string, delim byte) []string {
	var result []string
	var current strings.Builder
	inQuotes := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			current.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' && inQuotes {
			current.WriteByte(c)
			escaped = true
			continue
		}
		if c == '"' {
			inQuotes = !inQuotes
			current.WriteByte(c)
			continue
		}
		if c == delim && !inQuotes {
			result = append(result, current.String())
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	if current.Len() > 0 || len(result) > 0 {
		result = append(result, current.String())
	}
	return result
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	hasDigit, hasDot, hasE := false, false, false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '.':
			if hasDot || hasE {
				return false
			}
			hasDot = true
		case c == 'e' || c == 'E':
			if hasE || !hasDigit {
				return false
			}
			hasE = true
			hasDigit = false
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return hasDigit
}

// unescapeString decodes the escape set spec.md §6 shares with the
// lexer (\n \t \r \\ \" \/); an unrecognised escape passes through
// literally rather than erroring, matching the reference parser's
// permissive reader.
func unescapeString(s string) string {
	var sb strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			switch c {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '/':
				sb.WriteByte('/')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(c)
			}
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
