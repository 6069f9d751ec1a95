// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"context"
	"os"
	"os/exec"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/logging"
)

func testLogger() *logging.Logger { return logging.New("evaluator-test") }

type mockExec struct {
	executeFunc  func(ctx context.Context, opts CommandOptions, name string, args ...string) error
	lookPathFunc func(string) (string, error)
}

func (m *mockExec) Execute(ctx context.Context, opts CommandOptions, name string, args ...string) error {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, opts, name, args...)
	}
	return nil
}

func (m *mockExec) LookPath(file string) (string, error) {
	if m.lookPathFunc != nil {
		return m.lookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

func TestRun_EvaluatorMissing(t *testing.T) {
	m := &mockExec{lookPathFunc: func(string) (string, error) { return "", exec.ErrNotFound }}
	e := NewWithExecutor(m, testLogger())
	_, err := e.Run(context.Background(), Config{System: "x86_64-linux"}, "/tmp")
	if err == nil {
		t.Fatalf("Run() succeeded, want ErrEvaluatorUnavailable")
	}
}

func TestRunDirect_PartialOutputOnNonzeroExit(t *testing.T) {
	m := &mockExec{executeFunc: func(ctx context.Context, opts CommandOptions, name string, args ...string) error {
		opts.Stdout.Write([]byte(`{"attrPath":["legacyPackages","hello"],"name":"hello-2.12"}` + "\n"))
		return &exec.ExitError{}
	}}
	e := NewWithExecutor(m, testLogger())
	path, err := e.runDirect(context.Background(), Config{System: "x86_64-linux"}.Resolve(), "/tmp")
	if err != nil {
		t.Fatalf("runDirect() failed: %v, want partial output tolerated", err)
	}
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("output file is empty, want partial content")
	}
}

func TestRunDirect_FailsWhenNoOutput(t *testing.T) {
	m := &mockExec{executeFunc: func(ctx context.Context, opts CommandOptions, name string, args ...string) error {
		return &exec.ExitError{}
	}}
	e := NewWithExecutor(m, testLogger())
	_, err := e.runDirect(context.Background(), Config{System: "x86_64-linux"}.Resolve(), "/tmp")
	if err == nil {
		t.Fatalf("runDirect() succeeded, want ErrEvaluationFailed on empty output")
	}
}

func TestOrderByPriority(t *testing.T) {
	shards := []string{"a", "xz", "m", "ab"}
	got := orderByPriority(shards)
	// grouped (multi-letter, not in the problematic set) first, then large
	// (single-letter, not problematic -- none here), then large-problematic
	// (single-letter in the enumerated set: a, m) last.
	want := []string{"xz", "ab", "a", "m"}
	if len(got) != len(want) {
		t.Fatalf("orderByPriority() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("orderByPriority()[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		exitCode int
		stderr   string
		want     FailureClass
	}{
		{"oom exit code", -9, "", FailureOOMKilled},
		{"oom keyword", 1, "process was killed", FailureOOMKilled},
		{"stack overflow", 1, "fatal: stack overflow", FailureMemoryOverflow},
		{"infinite recursion", 1, "infinite recursion encountered", FailureInfiniteRecursion},
		{"assertion", 1, "assertion \"x\" failed", FailureAssertionFailure},
		{"aborted", 1, "evaluation aborted with the following error message", FailureEvalAborted},
		{"generic", 1, "some other error", FailureGeneric},
	}
	for _, c := range cases {
		if got := Classify(c.exitCode, c.stderr); got != c.want {
			t.Errorf("%s: Classify() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestClassifyShard(t *testing.T) {
	if got := ClassifyShard("a"); got != ShardLargeProblematic {
		t.Errorf("ClassifyShard(a) = %v, want ShardLargeProblematic", got)
	}
	if got := ClassifyShard("z"); got != ShardLarge {
		t.Errorf("ClassifyShard(z) = %v, want ShardLarge", got)
	}
	if got := ClassifyShard("python3Packages"); got != ShardGrouped {
		t.Errorf("ClassifyShard(python3Packages) = %v, want ShardGrouped", got)
	}
}
