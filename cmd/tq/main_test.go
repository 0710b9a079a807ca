package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestRunPrintsResultsForExpressionAndStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq", ".a"}, strings.NewReader("a: 1\n"), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if stdout.String() != "1\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "1\n")
	}
}

func TestRunReadsFromNamedFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/doc.toon"
	if err := os.WriteFile(path, []byte("a: 5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq", ".a", path}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if stdout.String() != "5\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunExitsOneOnParseError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq", "("}, strings.NewReader("null"), &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error:") {
		t.Errorf("stderr = %q, want Error: prefix", stderr.String())
	}
}

func TestRunExitsZeroOnHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq", "-h"}, strings.NewReader(""), &stdout, &stderr)
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Usage: tq") {
		t.Errorf("stdout = %q, want usage text", stdout.String())
	}
}

func TestRunWithNoArgumentsIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq"}, strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunBenchmarkFlagWritesDiagnostics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"tq", "-b", "."}, strings.NewReader("null"), &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "result(s) in") {
		t.Errorf("stderr = %q, want benchmark diagnostics", stderr.String())
	}
}
