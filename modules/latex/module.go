// Package latex renders equations with an external TeX toolchain: a latex
// run produces DVI and dvisvgm converts it to SVG.
package latex

import (
	"fmt"

	"github.com/specialistvlad/texpen/internal/backend"
)

// Options configure the toolchain invocation. Commands are shell-style word
// lists; the input file name is appended as the last argument.
type Options struct {
	TypesetCommand string
	ConvertCommand string
	// Preamble is appended after the built-in package list.
	Preamble string
	// TempDir is the parent of per-compilation work directories. Empty means
	// the system default.
	TempDir string
}

// DefaultOptions returns the stock latex + dvisvgm invocation.
func DefaultOptions() Options {
	return Options{
		TypesetCommand: "latex -interaction=nonstopmode -halt-on-error",
		ConvertCommand: "dvisvgm --no-fonts",
	}
}

// Module implements the backend.Module interface for this package.
type Module struct {
	Options Options
}

// Register registers the latex backend.
func (m *Module) Register(r *backend.Registry) {
	g, err := New(m.Options)
	if err != nil {
		panic(fmt.Sprintf("latex backend misconfigured: %v", err))
	}
	r.Register(g)
}
