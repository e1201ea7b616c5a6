// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App compiles a set of .tex sources into equations of one document. Each
// source becomes an equation placed through the equation pen, compiled in the
// background and, when storage is configured, persisted so the next run can
// reuse the last good render.
package app
