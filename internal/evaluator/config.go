// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import "time"

// Config configures a single evaluation run (spec.md §4.1, §6).
type Config struct {
	// BinaryName is the external evaluator tool's name on PATH.
	BinaryName string
	// RepoURL and Branch locate the source tree to clone.
	RepoURL, Branch string
	// System is the target platform token, e.g. "x86_64-linux".
	System string
	// Sharded selects the sharded evaluation strategy over the direct one.
	Sharded bool

	// WorkerCount is the evaluator's internal worker count (direct mode).
	WorkerCount int
	// MemoryCeilingMB is the per-worker memory ceiling in MB (direct mode).
	MemoryCeilingMB int

	NixpkgsBranch    string
	ExtractorVersion string
}

// Resolve fills in the documented defaults for any zero-valued fields
// (spec.md §4.1 "Direct mode": worker count default 8, memory ceiling
// default 4096 MB).
func (c Config) Resolve() Config {
	if c.BinaryName == "" {
		c.BinaryName = "nix-eval-jobs"
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 8
	}
	if c.MemoryCeilingMB <= 0 {
		c.MemoryCeilingMB = 4096
	}
	if c.ExtractorVersion == "" {
		c.ExtractorVersion = "fdnix-catalog/unknown"
	}
	return c
}

// Shard priority classes and their timeouts/stack limits (spec.md §4.1
// "Sharded mode").
const (
	shardTimeoutGrouped = 3 * time.Minute
	shardTimeoutLarge   = 10 * time.Minute
	shardTimeoutProblem = 15 * time.Minute

	shardStackGrouped = 16 << 20 // 16 MiB
	shardStackLarge   = 32 << 20 // 32 MiB

	shardAddressSpaceLarge = 8 << 30 // 8 GiB

	shardFallbackDepth = 3
)

// ShardClass is a shard's priority bucket.
type ShardClass int

const (
	ShardGrouped ShardClass = iota
	ShardLarge
	ShardLargeProblematic
)

func (c ShardClass) timeout() time.Duration {
	switch c {
	case ShardGrouped:
		return shardTimeoutGrouped
	case ShardLargeProblematic:
		return shardTimeoutProblem
	default:
		return shardTimeoutLarge
	}
}

// largeProblematicShards enumerates the single-letter prefixes known to
// hold >500 packages, the "large-problematic" set spec.md §4.1 calls out
// by example.
var largeProblematicShards = map[string]bool{
	"a": true, "b": true, "c": true, "g": true, "l": true,
	"m": true, "p": true, "r": true, "s": true,
}

// ClassifyShard buckets a shard name into its priority class.
func ClassifyShard(name string) ShardClass {
	if largeProblematicShards[name] {
		return ShardLargeProblematic
	}
	if len(name) <= 1 {
		return ShardLarge
	}
	return ShardGrouped
}
