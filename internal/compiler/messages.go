package compiler

import (
	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// Request is a message to the Worker.
type Request interface {
	isRequest()
}

// Compile asks for Task to be compiled on behalf of object ID.
type Compile struct {
	ID   objectid.ID
	Task equation.Task
}

// Quit asks the Worker to finish pending work and exit.
type Quit struct{}

func (Compile) isRequest() {}
func (Quit) isRequest()    {}

// Event reports a compilation result for one object.
type Event interface {
	ObjectID() objectid.ID
}

// UpdateRenderedContent carries freshly rendered SVG markup.
type UpdateRenderedContent struct {
	ID     objectid.ID
	Markup string
}

// SetError reports a failed compilation.
type SetError struct {
	ID  objectid.ID
	Err *backend.Error
}

// ClearError withdraws a previously reported error after a success.
type ClearError struct {
	ID objectid.ID
}

func (e UpdateRenderedContent) ObjectID() objectid.ID { return e.ID }
func (e SetError) ObjectID() objectid.ID              { return e.ID }
func (e ClearError) ObjectID() objectid.ID            { return e.ID }

// Sink receives events from the Worker goroutine. Emit must not block for
// long; implementations typically enqueue the event for their own loop.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }
