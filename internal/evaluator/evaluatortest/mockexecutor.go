// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package evaluatortest provides an evaluator.CommandExecutor fake for
// tests, mirroring pkg/build/local's MockCommandExecutor.
package evaluatortest

import (
	"context"
	"slices"
	"sync"

	"github.com/fdnix/fdnix-catalog/internal/evaluator"
)

// MockCommand records a single Execute call for later verification.
type MockCommand struct {
	Name string
	Args []string
	Dir  string
}

// MockExecutor implements evaluator.CommandExecutor for testing.
type MockExecutor struct {
	mu           sync.Mutex
	commands     []MockCommand
	executeFunc  func(ctx context.Context, opts evaluator.CommandOptions, name string, args ...string) error
	lookPathFunc func(file string) (string, error)
}

var _ evaluator.CommandExecutor = (*MockExecutor)(nil)

// New returns a MockExecutor whose LookPath always succeeds and whose
// Execute is a no-op unless SetExecuteFunc is called.
func New() *MockExecutor {
	return &MockExecutor{}
}

// SetExecuteFunc overrides Execute's behavior.
func (m *MockExecutor) SetExecuteFunc(f func(ctx context.Context, opts evaluator.CommandOptions, name string, args ...string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executeFunc = f
}

// SetLookPathFunc overrides LookPath's behavior.
func (m *MockExecutor) SetLookPathFunc(f func(file string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPathFunc = f
}

func (m *MockExecutor) Execute(ctx context.Context, opts evaluator.CommandOptions, name string, args ...string) error {
	m.mu.Lock()
	m.commands = append(m.commands, MockCommand{Name: name, Args: slices.Clone(args), Dir: opts.Dir})
	f := m.executeFunc
	m.mu.Unlock()
	if f != nil {
		return f(ctx, opts, name, args...)
	}
	return nil
}

func (m *MockExecutor) LookPath(file string) (string, error) {
	m.mu.Lock()
	f := m.lookPathFunc
	m.mu.Unlock()
	if f != nil {
		return f(file)
	}
	return "/usr/bin/" + file, nil
}

// Commands returns every recorded Execute call, in order.
func (m *MockExecutor) Commands() []MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.commands)
}
