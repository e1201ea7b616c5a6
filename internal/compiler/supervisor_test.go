package compiler

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/metrics"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

type recordingSink chan Event

func (s recordingSink) Emit(e Event) { s <- e }

func (s recordingSink) next(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-s:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for compiler event")
		return nil
	}
}

func (s recordingSink) take(t *testing.T, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	for range n {
		events = append(events, s.next(t))
	}
	return events
}

func (s recordingSink) requireQuiet(t *testing.T) {
	t.Helper()
	select {
	case e := <-s:
		t.Fatalf("unexpected event %#v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func task(source string) equation.Task {
	return equation.NewTask(source, equation.DefaultConfig())
}

func requireStarted(t *testing.T, fb *testutil.FakeBackend, source string) {
	t.Helper()
	select {
	case got := <-fb.Started:
		require.Equal(t, source, got)
	case <-time.After(waitTimeout):
		t.Fatalf("backend never started %q", source)
	}
}

func requireDone(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitTimeout):
		t.Fatal("worker did not exit")
	}
}

func spawn(t *testing.T, fb *testutil.FakeBackend, m *metrics.Compiler) (*Supervisor, recordingSink) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	sink := make(recordingSink, 64)
	s := Spawn(ctx, sink, backend.NewRegistry(registerFake{fb}), m)
	t.Cleanup(func() {
		fb.Unhold()
		s.Close()
		<-s.Done()
	})
	return s, sink
}

type registerFake struct{ fb *testutil.FakeBackend }

func (r registerFake) Register(reg *backend.Registry) { reg.Register(r.fb) }

func TestSupervisor_SuccessEmitsUpdateThenClear(t *testing.T) {
	t.Parallel()
	// Arrange
	fb := testutil.NewFakeBackend(equation.BackendLatex)
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)
	id := objectid.New()

	// Act
	s.Submit(ctx, id, task("x^2"))

	// Assert
	events := sink.take(t, 2)
	want, _ := testutil.FakeSVG("x^2")
	assert.Equal(t, UpdateRenderedContent{ID: id, Markup: want}, events[0])
	assert.Equal(t, ClearError{ID: id}, events[1])
}

func TestSupervisor_FailureEmitsSetErrorOnly(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBackend(equation.BackendLatex).WithRender(func(string) (string, error) {
		return "", backend.NewProcessFailed("typeset", []byte("! Missing $ inserted."), nil)
	})
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)
	id := objectid.New()

	s.Submit(ctx, id, task(`\frac{1}{`))

	ev, ok := sink.next(t).(SetError)
	require.True(t, ok)
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, backend.ProcessFailed, ev.Err.Kind)
	assert.Contains(t, ev.Err.Diagnostics, "Missing $ inserted")
	sink.requireQuiet(t)
}

func TestSupervisor_UnknownBackendReportsToolMissing(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBackend(equation.BackendLatex)
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)
	id := objectid.New()
	cfg := equation.DefaultConfig()
	cfg.Backend = equation.BackendStarTeX

	s.Submit(ctx, id, equation.NewTask("x", cfg))

	ev, ok := sink.next(t).(SetError)
	require.True(t, ok)
	assert.Equal(t, backend.ToolMissing, ev.Err.Kind)
	assert.Empty(t, fb.Calls())
}

func TestSupervisor_CoalescesRepeatedSubmissions(t *testing.T) {
	t.Parallel()
	// Arrange
	fb := testutil.NewFakeBackend(equation.BackendLatex).Held()
	reg := prometheus.NewRegistry()
	s, sink := spawn(t, fb, metrics.NewCompiler(reg))
	ctx, _ := testutil.Context(t)
	blocker, id := objectid.New(), objectid.New()

	s.Submit(ctx, blocker, task("blocker"))
	requireStarted(t, fb, "blocker")

	// Act
	s.Submit(ctx, id, task("x^2"))
	s.Submit(ctx, id, task("x^2+1"))
	fb.Unhold()

	// Assert
	events := sink.take(t, 4)
	assert.Equal(t, []string{"blocker", "x^2+1"}, fb.Calls())
	want, _ := testutil.FakeSVG("x^2+1")
	assert.Equal(t, UpdateRenderedContent{ID: id, Markup: want}, events[2])
	assert.Equal(t, ClearError{ID: id}, events[3])
	sink.requireQuiet(t)

	expected := `
# HELP texpen_coalesced_total Requests that replaced a pending task for the same object.
# TYPE texpen_coalesced_total counter
texpen_coalesced_total 1
# HELP texpen_submissions_total Compilation requests received by the worker.
# TYPE texpen_submissions_total counter
texpen_submissions_total 3
`
	require.NoError(t, promtest.GatherAndCompare(reg, strings.NewReader(expected),
		"texpen_coalesced_total", "texpen_submissions_total"))
}

func TestSupervisor_RoutesResultsByObject(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBackend(equation.BackendLatex)
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)
	a, b := objectid.New(), objectid.New()

	s.Submit(ctx, a, task("a"))
	s.Submit(ctx, b, task("bb"))

	markup := make(map[objectid.ID]string)
	for _, e := range sink.take(t, 4) {
		if u, ok := e.(UpdateRenderedContent); ok {
			markup[u.ID] = u.Markup
		}
	}
	wantA, _ := testutil.FakeSVG("a")
	wantB, _ := testutil.FakeSVG("bb")
	assert.Equal(t, map[objectid.ID]string{a: wantA, b: wantB}, markup)
}

func TestSupervisor_ProgressesWithoutFurtherMessagesWhileWorkPending(t *testing.T) {
	t.Parallel()
	// Arrange
	fb := testutil.NewFakeBackend(equation.BackendLatex).Held()
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)

	s.Submit(ctx, objectid.New(), task("first"))
	requireStarted(t, fb, "first")
	s.Submit(ctx, objectid.New(), task("second"))
	s.Submit(ctx, objectid.New(), task("third"))

	// Act: only release the backend; nothing else is sent.
	for range 3 {
		fb.Release()
	}

	// Assert
	sink.take(t, 6)
	assert.Equal(t, []string{"first", "second", "third"}, fb.Calls())
}

func TestSupervisor_ShutdownWithEmptyTableExitsSilently(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBackend(equation.BackendLatex)
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)

	s.Shutdown(ctx)
	s.Shutdown(ctx)

	requireDone(t, s)
	sink.requireQuiet(t)
	assert.Empty(t, fb.Calls())
}

func TestSupervisor_ShutdownFinishesPendingAndIgnoresLaterSubmissions(t *testing.T) {
	t.Parallel()
	// Arrange
	fb := testutil.NewFakeBackend(equation.BackendLatex).Held()
	s, sink := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)

	s.Submit(ctx, objectid.New(), task("running"))
	requireStarted(t, fb, "running")
	s.Submit(ctx, objectid.New(), task("pending-a"))
	s.Submit(ctx, objectid.New(), task("pending-b"))

	// Act
	s.Shutdown(ctx)
	s.Submit(ctx, objectid.New(), task("too-late"))
	fb.Unhold()

	// Assert
	requireDone(t, s)
	assert.Equal(t, []string{"running", "pending-a", "pending-b"}, fb.Calls())
	sink.take(t, 6)
	sink.requireQuiet(t)
}

func TestSupervisor_CloseStopsWorker(t *testing.T) {
	t.Parallel()
	fb := testutil.NewFakeBackend(equation.BackendLatex)
	s, _ := spawn(t, fb, nil)
	ctx, _ := testutil.Context(t)

	s.Close()

	require.NoError(t, s.Wait(ctx))
	s.Submit(ctx, objectid.New(), task("dropped"))
	assert.Empty(t, fb.Calls())
}
