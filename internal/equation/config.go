// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file models the style an equation is typeset with.
//

package equation

import "fmt"

// BackendKind names a rendering backend variant.
type BackendKind string

const (
	// BackendLatex shells out to an external latex + dvisvgm toolchain.
	BackendLatex BackendKind = "latex"
	// BackendStarTeX typesets in-process with a pure Go TeX engine.
	BackendStarTeX BackendKind = "startex"
)

const (
	// DefaultFontSize is the base font size in points.
	DefaultFontSize uint32 = 12
	// DefaultPageWidth is the typesetting width in millimeters.
	DefaultPageWidth = 64.0
)

// ParseBackendKind validates a backend name.
func ParseBackendKind(s string) (BackendKind, error) {
	switch k := BackendKind(s); k {
	case BackendLatex, BackendStarTeX:
		return k, nil
	}
	return "", fmt.Errorf("unknown equation backend %q", s)
}

// Config is the style an equation is typeset with, including which backend
// renders it. It is a plain value; copying it takes a snapshot.
type Config struct {
	Backend   BackendKind `json:"equation_provider"`
	FontSize  uint32      `json:"font_size"`
	PageWidth float64     `json:"page_width"`
}

// DefaultConfig returns the configuration new equations start with.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendLatex,
		FontSize:  DefaultFontSize,
		PageWidth: DefaultPageWidth,
	}
}
