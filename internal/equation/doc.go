// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package equation models a typeset equation placed in a document: its TeX
// source, the style it is typeset with and the last rendered vector image.
//
// An Object is owned by the document store and mutated only on the engine's
// goroutine. A Task is an immutable snapshot of an Object's source and style,
// suitable for handing to a compiler on another goroutine.
package equation
