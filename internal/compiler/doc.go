// Package compiler runs equation compilation on a dedicated background
// goroutine so that slow rendering backends never block the caller.
//
// # Architecture
//
// A Supervisor owns the request mailbox of a single Worker. Callers submit
// (object ID, Task) pairs through the Supervisor; sends never block. The
// Worker keeps a pending work table keyed by object ID, so a burst of edits
// to one equation collapses into a single compilation of the newest source.
//
// The Worker alternates between two phases:
//
//   - Perform: take one task from the table, run its backend and report the
//     result through the Sink.
//   - Receive: if the table is empty, block for one request, then drain
//     whatever else is already queued without blocking. If the table is not
//     empty, only drain.
//
// Results are reported as Events: UpdateRenderedContent followed by
// ClearError on success, SetError on failure. Events for one object are
// emitted in the order its compilations finish.
//
// # Shutdown
//
// Shutdown asks the Worker to stop. Work already in the table is finished
// first and later submissions are ignored. Closing the Supervisor without
// Shutdown drops the request mailbox, which ends the Worker as soon as it next
// looks for requests.
package compiler
