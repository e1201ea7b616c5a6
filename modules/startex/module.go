// Package startex renders equations in-process with a pure Go TeX engine.
// The engine typesets plain TeX math to DVI, which is then drawn as SVG glyph
// outlines using the Latin Modern fonts.
//
// The engine is expensive to construct, so a Renderer creates it lazily on
// first use and keeps it for the lifetime of the process.
package startex

import "github.com/specialistvlad/texpen/internal/backend"

// Module implements the backend.Module interface for this package.
type Module struct{}

// Register registers the in-process backend.
func (m *Module) Register(r *backend.Registry) {
	r.Register(NewRenderer())
}
