// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	maxFieldLen      = 2000
	maxShortFieldLen = 2000
	maxPlatforms     = 20
	maxMaintainers   = 10
)

// sanitize strips NUL bytes and invalid UTF-8, then truncates to max runes
// worth of bytes (spec.md §4.3: "Strip nulls and non-UTF-8; truncate to 2000
// characters").
func sanitize(s string, max int) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size <= 1 {
			s = s[1:]
			continue
		}
		if r == 0 {
			s = s[size:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	out := b.String()
	if utf8.RuneCountInString(out) <= max {
		return out
	}
	runes := []rune(out)
	return string(runes[:max])
}

// decodeStringList decodes a JSON array of strings, tolerating absent or
// non-array input by returning nil (spec.md §4.3: "Accept only
// list-of-strings").
func decodeStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// truncateStrings truncates a slice to at most n elements.
func truncateStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
