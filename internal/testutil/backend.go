package testutil

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/equation"
)

// FakeBackend is a scriptable backend that records every source it is asked
// to render. When held, each Generate call blocks until Release is called.
type FakeBackend struct {
	kind      equation.BackendKind
	available bool
	held      bool

	mu     sync.Mutex
	calls  []string
	render func(source string) (string, error)

	gate      chan struct{}
	unhold    chan struct{}
	unholdOne sync.Once

	// Started receives the source of every call as it begins.
	Started chan string
}

// NewFakeBackend returns an available backend of the given kind that renders
// every source to a small valid SVG.
func NewFakeBackend(kind equation.BackendKind) *FakeBackend {
	return &FakeBackend{
		kind:      kind,
		available: true,
		render:    FakeSVG,
		gate:      make(chan struct{}),
		unhold:    make(chan struct{}),
		Started:   make(chan string, 256),
	}
}

// FakeSVG renders source as a one-line SVG whose width grows with its length.
func FakeSVG(source string) (string, error) {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20"><text>%s</text></svg>`,
		10+10*len(source), html.EscapeString(source)), nil
}

// WithRender replaces the render function.
func (f *FakeBackend) WithRender(fn func(source string) (string, error)) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.render = fn
	return f
}

// Unavailable marks the backend as not runnable.
func (f *FakeBackend) Unavailable() *FakeBackend {
	f.available = false
	return f
}

// Held makes every Generate call wait for Release.
func (f *FakeBackend) Held() *FakeBackend {
	f.held = true
	return f
}

// Release lets exactly one waiting Generate call finish.
func (f *FakeBackend) Release() {
	select {
	case f.gate <- struct{}{}:
	case <-f.unhold:
	}
}

// Unhold lets all current and future Generate calls run freely.
func (f *FakeBackend) Unhold() {
	f.unholdOne.Do(func() { close(f.unhold) })
}

// Calls returns the sources rendered so far, in order.
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeBackend) Kind() equation.BackendKind { return f.kind }
func (f *FakeBackend) Available() bool            { return f.available }

// Generate records the call and renders source.
func (f *FakeBackend) Generate(ctx context.Context, source string, _ equation.Config) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, source)
	render := f.render
	f.mu.Unlock()

	select {
	case f.Started <- source:
	default:
	}

	if !f.held {
		return render(source)
	}
	select {
	case <-f.gate:
	case <-f.unhold:
	case <-ctx.Done():
		return "", backend.NewIoFailure("cancelled", ctx.Err())
	}
	return render(source)
}
