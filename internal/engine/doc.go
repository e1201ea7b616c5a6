// Package engine is the single-threaded owner of a document.
//
// An Engine holds the document store, the shared equation style, the active
// equation pen and the per-object compilation errors. Everything that touches
// that state runs on the goroutine executing Run: timer ticks, compiler
// results and caller requests all arrive as tasks on one queue. The compiler
// worker runs on its own goroutine and talks to the engine only through that
// queue, so the store is never shared across goroutines.
package engine
