package config

import (
	"strings"
	"testing"
)

func TestLoadWithEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want zero value", cfg)
	}
}

func TestParseDecodesWriterAndCLIFields(t *testing.T) {
	yamlText := `
writer:
  indent_width: 4
  delimiter: "|"
cli:
  benchmark: true
`
	cfg, err := Parse(strings.NewReader(yamlText))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Writer.IndentWidth != 4 {
		t.Errorf("IndentWidth = %d, want 4", cfg.Writer.IndentWidth)
	}
	if cfg.Writer.Delimiter != "|" {
		t.Errorf("Delimiter = %q, want |", cfg.Writer.Delimiter)
	}
	if !cfg.CLI.Benchmark {
		t.Errorf("Benchmark = false, want true")
	}
}

func TestParseEmptyDocumentIsZeroValueConfig(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want zero value", cfg)
	}
}

func TestIndentWidthFallsBackToDefaultWhenUnset(t *testing.T) {
	cfg := Default()
	if got := cfg.IndentWidth(2); got != 2 {
		t.Errorf("IndentWidth(2) = %d, want 2", got)
	}
	cfg.Writer.IndentWidth = 4
	if got := cfg.IndentWidth(2); got != 4 {
		t.Errorf("IndentWidth(2) with configured 4 = %d, want 4", got)
	}
}

func TestDelimiterByteFallsBackOnInvalidValue(t *testing.T) {
	cfg := Default()
	if got := cfg.DelimiterByte(','); got != ',' {
		t.Errorf("got %q, want ','", got)
	}
	cfg.Writer.Delimiter = "too-long"
	if got := cfg.DelimiterByte(','); got != ',' {
		t.Errorf("got %q, want fallback ','", got)
	}
	cfg.Writer.Delimiter = "\t"
	if got := cfg.DelimiterByte(','); got != '\t' {
		t.Errorf("got %q, want tab", got)
	}
}
