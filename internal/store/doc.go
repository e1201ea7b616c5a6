// Package store defines the document store holding equation objects and
// provides its in-memory implementation with undo history.
//
// Objects returned by Get are live; callers mutate them in place and are
// expected to do so from a single goroutine (the engine's). The store's own
// bookkeeping is safe for concurrent use so that persistence can snapshot it
// from elsewhere.
package store
