// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging provides a small structured-logging helper layered over
// the standard library logger. Every line has the shape
// "[LEVEL] component message key=value ...".
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger writes leveled, component-tagged lines to an underlying *log.Logger.
type Logger struct {
	component string
	out       *log.Logger
}

// New returns a Logger for the given component name, writing to stderr.
func New(component string) *Logger {
	return &Logger{
		component: component,
		out:       log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// Fields is a set of key=value pairs appended to a log line. They are
// rendered in map iteration order, so their order on the line is not fixed.
type Fields map[string]any

func (f Fields) render() string {
	if len(f) == 0 {
		return ""
	}
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

func (l *Logger) line(level, msg string, fields Fields) {
	l.out.Printf("[%s] %s %s%s", level, l.component, msg, fields.render())
}

// Info logs an informational message.
func (l *Logger) Info(msg string, fields Fields) { l.line("INFO", msg, fields) }

// Warn logs a warning.
func (l *Logger) Warn(msg string, fields Fields) { l.line("WARN", msg, fields) }

// Error logs an error.
func (l *Logger) Error(msg string, err error, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}
	fields["err"] = err
	l.line("ERROR", msg, fields)
}

// With returns a child logger scoped to a sub-component
// (e.g. "evaluator.shard").
func (l *Logger) With(subcomponent string) *Logger {
	return &Logger{component: l.component + "." + subcomponent, out: l.out}
}
