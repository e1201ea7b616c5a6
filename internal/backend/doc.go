// Package backend defines the contract every equation rendering backend
// fulfils, the closed set of failures a backend may report, and the registry
// that maps a configured backend kind to its implementation.
//
// A backend turns TeX source plus a style configuration into standalone SVG
// markup. Backends may block for a long time (an external toolchain run or a
// full in-process typesetting pass) and are only ever called from the
// compiler's worker goroutine.
package backend
