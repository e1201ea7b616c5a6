// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the immutable compilation request handed to compilers.
//

package equation

// Task is an immutable snapshot of an equation's source and style at the
// moment compilation was requested.
type Task struct {
	source string
	config Config
}

// NewTask snapshots the given source and configuration.
func NewTask(source string, cfg Config) Task {
	return Task{source: source, config: cfg}
}

// Source returns the TeX source to typeset.
func (t Task) Source() string { return t.source }

// Config returns the style snapshot.
func (t Task) Config() Config { return t.config }
