// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/record"
)

func writeTempJSONL(t *testing.T, lines ...string) string {
	t.Helper()
	f, err := os.CreateTemp("", "combine-src-*.jsonl")
	if err != nil {
		t.Fatalf("CreateTemp() failed: %v", err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatalf("WriteString() failed: %v", err)
		}
	}
	return f.Name()
}

func TestCombine_DedupesFirstOccurrence(t *testing.T) {
	src1 := writeTempJSONL(t,
		`{"attrPath":["legacyPackages","hello"],"name":"hello-2.12","drvPath":"/nix/store/a.drv"}`,
		`{"attrPath":["legacyPackages","world"],"name":"world-1.0","drvPath":"/nix/store/b.drv"}`,
	)
	defer os.Remove(src1)
	src2 := writeTempJSONL(t,
		// Duplicate of hello from src1, but a different drvPath: the first
		// occurrence (src1's) must win.
		`{"attrPath":["legacyPackages","hello"],"name":"hello-2.12","drvPath":"/nix/store/STALE.drv"}`,
		`{"attrPath":["legacyPackages","goodbye"],"name":"goodbye-1.0","drvPath":"/nix/store/c.drv"}`,
	)
	defer os.Remove(src2)

	dst, err := os.CreateTemp("", "combine-dst-*.jsonl")
	if err != nil {
		t.Fatalf("CreateTemp() failed: %v", err)
	}
	dst.Close()
	defer os.Remove(dst.Name())

	total, err := Combine([]string{src1, src2}, dst.Name(), record.Metadata{NixpkgsBranch: "nixos-unstable", ExtractorVersion: "test"})
	if err != nil {
		t.Fatalf("Combine() failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("Combine() total = %d, want 3 (hello deduped)", total)
	}

	f, err := os.Open(dst.Name())
	if err != nil {
		t.Fatalf("opening combined output: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		t.Fatalf("combined output has no lines")
	}
	var metaLine record.MetadataLine
	if err := json.Unmarshal(scanner.Bytes(), &metaLine); err != nil {
		t.Fatalf("parsing metadata line: %v", err)
	}
	if metaLine.Metadata == nil || metaLine.Metadata.TotalPackages != 3 {
		t.Errorf("metadata line = %+v, want TotalPackages=3", metaLine.Metadata)
	}

	var helloDrvPath string
	for scanner.Scan() {
		var r struct {
			Name    string `json:"name"`
			DrvPath string `json:"drvPath"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("parsing record line: %v", err)
		}
		if r.Name == "hello-2.12" {
			helloDrvPath = r.DrvPath
		}
	}
	if helloDrvPath != "/nix/store/a.drv" {
		t.Errorf("hello drvPath = %q, want first occurrence /nix/store/a.drv", helloDrvPath)
	}
}
