// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/bufiox"
	"github.com/fdnix/fdnix-catalog/internal/logging"
)

// stderrCaptureSize bounds how much of a subprocess's stderr is retained
// for failure classification. A runaway evaluator can write far more than
// this; LineBuffer evicts the oldest lines first, so Classify always sees
// the most recent (and most diagnostic) output.
const stderrCaptureSize = 64 * 1024

func newStderrCapture() *bufiox.LineBuffer {
	return bufiox.NewLineBuffer(stderrCaptureSize)
}

func drainStderr(lb *bufiox.LineBuffer) string {
	buf := make([]byte, lb.Len())
	n, _ := lb.Read(buf)
	return string(buf[:n])
}

// Evaluator drives the external evaluation tool over a cloned source tree.
type Evaluator struct {
	cmd CommandExecutor
	log *logging.Logger
}

// New returns an Evaluator using the real subprocess executor.
func New(log *logging.Logger) *Evaluator {
	return &Evaluator{cmd: NewRealCommandExecutor(), log: log}
}

// NewWithExecutor returns an Evaluator using a caller-supplied
// CommandExecutor, for tests.
func NewWithExecutor(cmd CommandExecutor, log *logging.Logger) *Evaluator {
	return &Evaluator{cmd: cmd, log: log}
}

// Run executes cfg's evaluation strategy against sourceDir and returns the
// path to a local file containing one JSON object per line.
func (e *Evaluator) Run(ctx context.Context, cfg Config, sourceDir string) (string, error) {
	cfg = cfg.Resolve()
	if _, err := e.cmd.LookPath(cfg.BinaryName); err != nil {
		return "", pkgerrors.Wrap(ErrEvaluatorUnavailable, cfg.BinaryName)
	}
	if cfg.Sharded {
		return e.runSharded(ctx, cfg, sourceDir)
	}
	return e.runDirect(ctx, cfg, sourceDir)
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 0
}

// runDirect implements spec.md §4.1 "Direct mode": a single invocation
// against the top-level release expression, tolerant of partial output on
// a nonzero exit.
func (e *Evaluator) runDirect(ctx context.Context, cfg Config, sourceDir string) (string, error) {
	out, err := os.CreateTemp("", "fdnix-catalog-direct-*.jsonl")
	if err != nil {
		return "", pkgerrors.Wrap(ErrEvaluationFailed, err.Error())
	}
	defer out.Close()

	stderr := newStderrCapture()
	args := []string{
		"--flake", ".#" + cfg.System,
		"--workers", fmt.Sprint(cfg.WorkerCount),
		"--max-memory-size", fmt.Sprint(cfg.MemoryCeilingMB),
		"--meta",
		"--show-input-drvs",
		"--recursive",
	}
	opts := CommandOptions{
		Stdout: out,
		Stderr: stderr,
		Dir:    sourceDir,
		Env:    []string{"NIXPKGS_ALLOW_UNFREE=1", "NIXPKGS_ALLOW_BROKEN=1"},
	}
	runErr := e.cmd.Execute(ctx, opts, cfg.BinaryName, args...)
	if runErr != nil {
		class := Classify(exitCodeOf(runErr), drainStderr(stderr))
		info, statErr := out.Stat()
		if statErr == nil && info.Size() > 0 {
			e.log.Warn("direct evaluation exited nonzero, using partial output", logging.Fields{
				"failure_class": class.String(),
				"error":         runErr.Error(),
			})
			return out.Name(), nil
		}
		e.log.Error("direct evaluation produced no output", runErr, logging.Fields{"failure_class": class.String()})
		return "", pkgerrors.Wrap(ErrEvaluationFailed, runErr.Error())
	}
	return out.Name(), nil
}

// availableShards is the response shape of invoking the sharded expression
// with shard=null (spec.md §4.1 "Sharded mode").
type availableShards struct {
	AvailableShards []string `json:"availableShards"`
}

// runSharded implements spec.md §4.1 "Sharded mode": discover the shard
// list, process by priority class with a fallback ladder, abort if more
// than half the shards fail.
func (e *Evaluator) runSharded(ctx context.Context, cfg Config, sourceDir string) (string, error) {
	shards, err := e.discoverShards(ctx, cfg, sourceDir)
	if err != nil {
		return "", err
	}
	ordered := orderByPriority(shards)

	combined, err := os.CreateTemp("", "fdnix-catalog-sharded-*.jsonl")
	if err != nil {
		return "", pkgerrors.Wrap(ErrEvaluationFailed, err.Error())
	}
	defer combined.Close()

	var failed int
	for _, shard := range ordered {
		if err := e.runShard(ctx, cfg, sourceDir, shard, combined); err != nil {
			failed++
			e.log.Warn("shard failed, skipping", logging.Fields{"shard": shard, "error": err.Error()})
		}
	}
	if len(ordered) > 0 && failed*2 > len(ordered) {
		return "", pkgerrors.Wrapf(ErrEvaluationFailed, "%d/%d shards failed, exceeding 50%% failure ratio", failed, len(ordered))
	}
	if info, statErr := combined.Stat(); statErr != nil || info.Size() == 0 {
		return "", pkgerrors.Wrap(ErrEvaluationFailed, "no shard produced output")
	}
	return combined.Name(), nil
}

func (e *Evaluator) discoverShards(ctx context.Context, cfg Config, sourceDir string) ([]string, error) {
	var stdout bytes.Buffer
	stderr := newStderrCapture()
	opts := CommandOptions{Stdout: &stdout, Stderr: stderr, Dir: sourceDir}
	args := []string{"--flake", ".#" + cfg.System, "--shard", "null", "--list-shards"}
	if err := e.cmd.Execute(ctx, opts, cfg.BinaryName, args...); err != nil {
		return nil, pkgerrors.Wrap(ErrEvaluationFailed, "discovering shards: "+drainStderr(stderr))
	}
	var resp availableShards
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, pkgerrors.Wrap(ErrEvaluationFailed, "parsing shard list: "+err.Error())
	}
	return resp.AvailableShards, nil
}

// orderByPriority sorts shards grouped-first, then large, then
// large-problematic last, matching spec.md §4.1's processing order.
func orderByPriority(shards []string) []string {
	var grouped, large, problematic []string
	for _, s := range shards {
		switch ClassifyShard(s) {
		case ShardGrouped:
			grouped = append(grouped, s)
		case ShardLargeProblematic:
			problematic = append(problematic, s)
		default:
			large = append(large, s)
		}
	}
	out := make([]string, 0, len(shards))
	out = append(out, grouped...)
	out = append(out, large...)
	out = append(out, problematic...)
	return out
}

// runShard evaluates a single shard with its class's timeout/limits and
// the two-rung fallback ladder from spec.md §4.1: (1) normal parameters,
// (2) reduced depth with aliases disabled for large/problematic classes,
// (3) log and skip (the caller does the skipping).
func (e *Evaluator) runShard(ctx context.Context, cfg Config, sourceDir, shard string, dst *os.File) error {
	class := ClassifyShard(shard)
	shardCtx, cancel := context.WithTimeout(ctx, class.timeout())
	defer cancel()

	err := e.invokeShard(shardCtx, cfg, sourceDir, shard, dst, false)
	if err == nil {
		return nil
	}
	if class == ShardGrouped {
		return err
	}
	return e.invokeShard(shardCtx, cfg, sourceDir, shard, dst, true)
}

func (e *Evaluator) invokeShard(ctx context.Context, cfg Config, sourceDir, shard string, dst *os.File, fallback bool) error {
	stderr := newStderrCapture()
	args := []string{"--flake", ".#" + cfg.System, "--shard", shard, "--meta", "--show-input-drvs"}
	if fallback {
		args = append(args, "--eval-max-depth", fmt.Sprint(shardFallbackDepth), "--no-allow-aliases")
	}
	opts := CommandOptions{Stdout: dst, Stderr: stderr, Dir: sourceDir}
	if err := e.cmd.Execute(ctx, opts, cfg.BinaryName, args...); err != nil {
		class := Classify(exitCodeOf(err), drainStderr(stderr))
		e.log.Warn("shard invocation failed", logging.Fields{"shard": shard, "fallback": fallback, "failure_class": class.String()})
		return err
	}
	return nil
}

var maxShardWallClock = 15 * time.Minute // upper bound across all classes, for documentation purposes
