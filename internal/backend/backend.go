package backend

import (
	"context"

	"github.com/specialistvlad/texpen/internal/equation"
)

// Backend renders TeX source to SVG markup.
type Backend interface {
	// Kind names the variant. It matches equation.Config.Backend.
	Kind() equation.BackendKind
	// Generate typesets source with cfg and returns SVG markup. A non-nil
	// error is always an *Error.
	Generate(ctx context.Context, source string, cfg equation.Config) (string, error)
	// Available reports whether the backend can run in this environment.
	Available() bool
}

// Module is implemented by packages that contribute backends.
type Module interface {
	Register(r *Registry)
}
