// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package minidb

import "github.com/pkg/errors"

// ErrVerificationFailed is the sentinel for a compression round-trip
// mismatch (spec.md §7 "VerificationFailed"): fatal, aborts the run.
var ErrVerificationFailed = errors.New("minidb: compression round-trip mismatch")
