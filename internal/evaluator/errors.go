// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package evaluator

import "github.com/pkg/errors"

// Sentinel errors for the fatal error kinds C1 surfaces (spec.md §7
// "Error kinds").
var (
	ErrEvaluatorUnavailable = errors.New("evaluator: external tool not found on PATH")
	ErrCloneFailed          = errors.New("evaluator: source acquisition failed")
	ErrEvaluationFailed     = errors.New("evaluator: no usable output was produced")
)
