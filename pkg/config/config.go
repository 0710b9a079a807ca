// Package config decodes tq's optional YAML configuration file (the path
// the CLI's `-c` flag names; no file is read when none is named) into
// writer and CLI defaults. It follows jacoelho-rq's internal/rq/yaml package: a thin
// decode wrapper over github.com/goccy/go-yaml, nothing more.
//
// A missing config file is not an error — every field has a
// zero-value-safe default, and the engine never requires one to run.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// WriterConfig controls pkg/toon's writer output shape.
type WriterConfig struct {
	// IndentWidth is the number of spaces per nesting level. 0 means
	// the writer's built-in default (2).
	IndentWidth int `yaml:"indent_width,omitempty"`
	// Delimiter separates inline array values: "," (default), "\t" or "|".
	Delimiter string `yaml:"delimiter,omitempty"`
	// TabularThreshold is decoded from the file but not read anywhere:
	// the writer always picks the inline or list array form and never
	// emits the tabular form, whatever this is set to.
	TabularThreshold int `yaml:"tabular_threshold,omitempty"`
}

// CLIConfig controls cmd/tq's defaults when the corresponding flag is
// not passed on the command line.
type CLIConfig struct {
	// Benchmark, if true, turns benchmark output on as if -b had been
	// passed; passing -b=false on the command line does not turn it off.
	Benchmark bool `yaml:"benchmark,omitempty"`
}

// Config is the full decoded configuration file.
type Config struct {
	Writer WriterConfig `yaml:"writer,omitempty"`
	CLI    CLIConfig    `yaml:"cli,omitempty"`
}

// Default returns the zero-value configuration, equivalent to what a
// missing or empty config file produces.
func Default() Config {
	return Config{}
}

// Parse decodes a tq config file from r.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load reads and decodes the config file at path. A path of "" returns
// Default() with no I/O.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// IndentWidth returns the writer's configured indent width, falling
// back to def when unset.
func (c Config) IndentWidth(def int) int {
	if c.Writer.IndentWidth <= 0 {
		return def
	}
	return c.Writer.IndentWidth
}

// DelimiterByte returns the configured inline-array delimiter byte,
// falling back to def when unset or invalid (must be exactly one byte).
func (c Config) DelimiterByte(def byte) byte {
	if len(c.Writer.Delimiter) != 1 {
		return def
	}
	return c.Writer.Delimiter[0]
}
