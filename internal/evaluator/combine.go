// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/record"
)

// dedupKey is a minimal view of a raw record used solely to compute the
// dedup key; fields absent here are irrelevant to the combination step.
type dedupKey struct {
	AttrPath []string `json:"attrPath"`
	Name     string   `json:"name"`
}

// Combine concatenates the JSONL files in srcs into dst, deduping by
// (attrPath joined, name) and preserving the first occurrence, then
// prepends a synthetic `{_metadata: {...}}` line (spec.md §4.1
// "Combination").
func Combine(srcs []string, dst string, meta record.Metadata) (int, error) {
	out, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "creating combined output")
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	seen := make(map[string]bool)
	total := 0
	for _, src := range srcs {
		n, err := combineOne(src, w, seen)
		if err != nil {
			return 0, errors.Wrapf(err, "combining %q", src)
		}
		total += n
	}
	meta.TotalPackages = total
	line, err := json.Marshal(record.MetadataLine{Metadata: &meta})
	if err != nil {
		return 0, errors.Wrap(err, "marshaling metadata line")
	}
	if err := w.Flush(); err != nil {
		return 0, errors.Wrap(err, "flushing combined output")
	}
	return total, prependLine(dst, line)
}

func combineOne(src string, w *bufio.Writer, seen map[string]bool) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var key dedupKey
		if err := json.Unmarshal(line, &key); err != nil {
			continue // malformed lines are a per-record concern, skipped here
		}
		dk := dedupKeyString(key)
		if seen[dk] {
			continue
		}
		seen[dk] = true
		if _, err := w.Write(line); err != nil {
			return count, err
		}
		if err := w.WriteByte('\n'); err != nil {
			return count, err
		}
		count++
	}
	return count, scanner.Err()
}

func dedupKeyString(k dedupKey) string {
	s := ""
	for _, p := range k.AttrPath {
		s += p + "."
	}
	return s + "\x00" + k.Name
}

// prependLine rewrites path so line appears first, followed by the
// existing contents.
func prependLine(path string, line []byte) error {
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := out.Write(line); err != nil {
		out.Close()
		return err
	}
	if _, err := out.Write([]byte("\n")); err != nil {
		out.Close()
		return err
	}
	in, err := os.Open(path)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		in.Close()
		out.Close()
		return err
	}
	in.Close()
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
