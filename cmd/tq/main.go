// Command tq is a jq-like query tool over TOON documents.
//
// Usage: tq [options] <expression> [file]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sandrolain/tq"
	"github.com/sandrolain/tq/pkg/config"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

var errHelp = errors.New("help requested")

const usage = `tq - a jq-like query tool over TOON documents

Usage: tq [options] <expression> [file]

Options:
  -c, --config FILE   Path to a YAML config file (writer/CLI defaults)
  -b, --benchmark     Print execution time and result count to stderr
  -h, --help          Show this help message

Positional:
  expression          The tq query expression (required)
  file                Input file, or "-"/omitted for standard input
`

type options struct {
	expression string
	file       string
	benchmark  bool
	configPath string
}

func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("tq", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	benchmark := fs.Bool("benchmark", false, "")
	fs.BoolVar(benchmark, "b", false, "")
	configPath := fs.String("config", "", "")
	fs.StringVar(configPath, "c", "", "")
	help := fs.Bool("help", false, "")
	fs.BoolVar(help, "h", false, "")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errHelp
		}
		return nil, err
	}
	if *help {
		return nil, errHelp
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return nil, errors.New("no arguments provided")
	}

	opts := &options{
		expression: rest[0],
		benchmark:  *benchmark,
		configPath: *configPath,
	}
	if len(rest) > 1 {
		opts.file = rest[1]
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, errHelp) {
			fmt.Fprint(stdout, usage)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, usage)
		return 1
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.configPath != "" && cfg.CLI.Benchmark {
		opts.benchmark = true
	}

	document, err := readDocument(opts.file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	engine := tq.NewEngine(tq.WithConfig(cfg), tq.WithCaching(64))

	start := time.Now()
	results, err := engine.Query(context.Background(), opts.expression, document)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	for _, r := range results {
		fmt.Fprintln(stdout, r)
	}

	if opts.benchmark {
		fmt.Fprintf(stderr, "tq: %d result(s) in %s\n", len(results), elapsed)
	}
	return 0
}

func readDocument(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
