package pen

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/penevent"
	"github.com/specialistvlad/texpen/internal/store"
	"github.com/specialistvlad/texpen/internal/testutil"
	"github.com/specialistvlad/texpen/internal/units"
	"github.com/specialistvlad/texpen/internal/widthpicker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	id     objectid.ID
	source string
	config equation.Config
}

type recordingSubmitter struct {
	mu   sync.Mutex
	subs []submission
}

func (r *recordingSubmitter) Submit(_ context.Context, id objectid.ID, task equation.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, submission{id: id, source: task.Source(), config: task.Config()})
}

func (r *recordingSubmitter) submissions() []submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]submission(nil), r.subs...)
}

type fixture struct {
	pen      *Pen
	view     View
	store    *store.Memory
	config   *equation.Config
	compiler *recordingSubmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := equation.DefaultConfig()
	f := &fixture{
		pen:      New(time.Hour),
		store:    store.NewMemory(),
		config:   &cfg,
		compiler: &recordingSubmitter{},
	}
	f.view = View{Store: f.store, Config: f.config, DPI: units.DefaultDPI, Compiler: f.compiler}
	f.pen.Init(f.view)
	t.Cleanup(func() { f.pen.Deinit() })
	return f
}

func (f *fixture) send(ctx context.Context, k penevent.Kind, x, y float64) {
	f.pen.HandleEvent(ctx, penevent.At(k, x, y), f.view)
}

func TestHandleEvent_NewEquation(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx, _ := testutil.Context(t)
	f := newFixture(t)

	// Act: press on empty space and drag 100px to the right.
	f.send(ctx, penevent.Down, 10, 10)
	require.Equal(t, InitialWidthPick{Anchor: geom.V(10, 10)}, f.pen.State())
	f.send(ctx, penevent.Down, 110, 60)
	f.send(ctx, penevent.Up, 110, 60)

	// Assert
	id, ok := f.pen.Editing()
	require.True(t, ok)
	assert.Equal(t, &AwaitCompilation{ID: id, Policy: Deny}, f.pen.State())

	obj, ok := f.store.Get(id)
	require.True(t, ok)
	assert.Equal(t, equation.PlaceholderMarkup, obj.Image.Markup)
	assert.Equal(t, geom.V(10, 10), obj.Rectangle().UpperLeft())

	want := units.Convert(100, units.Px, units.DefaultDPI, units.Mm, units.DefaultDPI)
	assert.Equal(t, want, f.config.PageWidth)
	assert.Equal(t, want, obj.Config.PageWidth)
	assert.Empty(t, f.compiler.submissions(), "nothing is compiled while the policy denies it")

	assert.True(t, f.store.Undo(), "creation is an undo boundary")
	assert.Empty(t, f.store.IDs())
}

func TestHandleEvent_ExistingEquationWidthIsUnscaled(t *testing.T) {
	t.Parallel()
	// Arrange: an equation scaled by 2 whose style differs from the pen's.
	ctx, _ := testutil.Context(t)
	f := newFixture(t)
	cfg := equation.DefaultConfig()
	cfg.FontSize = 20
	obj := equation.NewObject("a+b", cfg, geom.V(0, 0))
	obj.Image.Rectangle.Transform = geom.Scaling(2, 2)
	id := f.store.Insert(obj)

	// Act: select it, then drag the picker's end handle.
	f.send(ctx, penevent.Down, 10, 10)
	require.Equal(t, &AwaitCompilation{ID: id, Policy: Deny}, f.pen.State())
	assert.Equal(t, cfg, *f.config, "pen style is taken from the selected equation")

	picker := f.pen.Picker()
	require.NotNil(t, picker)
	wantInitial := 2 * units.Convert(cfg.PageWidth, units.Mm, units.DefaultDPI, units.Px, units.DefaultDPI)
	assert.InDelta(t, wantInitial, picker.Length(), 1e-9)

	f.send(ctx, penevent.Down, picker.End.X, picker.End.Y)
	require.Equal(t, widthpicker.Dragging, picker.State())
	f.send(ctx, penevent.Down, 300, 50)
	f.send(ctx, penevent.Up, 300, 50)

	// Assert
	want := units.Convert(300.0/2, units.Px, units.DefaultDPI, units.Mm, units.DefaultDPI)
	assert.InDelta(t, want, obj.Config.PageWidth, 1e-9)
	assert.Equal(t, uint32(20), obj.Config.FontSize)
}

func TestHandleEvent_AwaitCompilationIsKeptUntilDeinit(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	f := newFixture(t)
	f.send(ctx, penevent.Down, 0, 0)
	f.send(ctx, penevent.Up, 0, 0)
	state := f.pen.State()

	f.send(ctx, penevent.Down, 900, 900)
	f.send(ctx, penevent.Up, 900, 900)

	assert.Same(t, state, f.pen.State())
	assert.Len(t, f.store.IDs(), 1)

	f.pen.Deinit()
	assert.Equal(t, Idle{}, f.pen.State())
	assert.Nil(t, f.pen.Picker())
}

func TestCompilationPolicy(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx, _ := testutil.Context(t)
	f := newFixture(t)
	assert.False(t, f.pen.CheckCompilation(ctx, f.store), "idle pen never submits")

	f.send(ctx, penevent.Down, 0, 0)
	f.send(ctx, penevent.Up, 0, 0)
	id, _ := f.pen.Editing()
	f.pen.MarkUpdatedText(f.store, "x^2")

	// Act & Assert: ticks under Deny do nothing.
	for range 3 {
		assert.False(t, f.pen.CheckCompilation(ctx, f.store))
	}
	assert.Empty(t, f.compiler.submissions())

	// Enabling checks immediately.
	policy, ok := f.pen.ToggleCompilation(ctx, f.store)
	require.True(t, ok)
	assert.Equal(t, Allow, policy)
	require.Len(t, f.compiler.submissions(), 1)
	assert.Equal(t, "x^2", f.compiler.submissions()[0].source)
	assert.Equal(t, id, f.compiler.submissions()[0].id)

	// Each tick takes a fresh snapshot.
	f.pen.MarkUpdatedText(f.store, "x^2+1")
	assert.True(t, f.pen.CheckCompilation(ctx, f.store))
	subs := f.compiler.submissions()
	require.Len(t, subs, 2)
	assert.Equal(t, "x^2+1", subs[1].source)

	// Enabling twice does not submit again.
	f.pen.EnableCompilation(ctx, f.store)
	assert.Len(t, f.compiler.submissions(), 2)

	policy, _ = f.pen.ToggleCompilation(ctx, f.store)
	assert.Equal(t, Deny, policy)
	assert.False(t, f.pen.CheckCompilation(ctx, f.store))
	assert.Len(t, f.compiler.submissions(), 2)
}

func TestToggleCompilation_WithoutEquation(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	f := newFixture(t)
	_, ok := f.pen.ToggleCompilation(ctx, f.store)
	assert.False(t, ok)
}

func TestMarkUpdated_WritesThroughRegardlessOfPolicy(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	f := newFixture(t)

	flags := f.pen.MarkUpdatedText(f.store, "ignored")
	assert.False(t, flags.Any())

	f.send(ctx, penevent.Down, 0, 0)
	f.send(ctx, penevent.Up, 0, 0)
	id, _ := f.pen.Editing()

	cfg := equation.DefaultConfig()
	cfg.Backend = equation.BackendStarTeX
	flags = f.pen.MarkUpdatedConfig(f.store, cfg)
	assert.True(t, flags.StoreModified)
	f.pen.MarkUpdatedText(f.store, `\sqrt{2}`)

	obj, _ := f.store.Get(id)
	assert.Equal(t, cfg, obj.Config)
	assert.Equal(t, `\sqrt{2}`, obj.Source)
}

func TestInit_PeriodicTick(t *testing.T) {
	t.Parallel()
	// Arrange
	var ticks atomic.Int32
	p := New(5 * time.Millisecond)
	cfg := equation.DefaultConfig()

	// Act
	p.Init(View{Store: store.NewMemory(), Config: &cfg, Tick: func() { ticks.Add(1) }})

	// Assert
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.Deinit()
	n := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, ticks.Load(), "deinit stops the periodic check")
}

func TestWidthPick_SubmitsWhenAllowed(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	f := newFixture(t)
	f.send(ctx, penevent.Down, 0, 0)
	f.send(ctx, penevent.Up, 0, 0)
	f.pen.EnableCompilation(ctx, f.store)
	require.Len(t, f.compiler.submissions(), 1)

	picker := f.pen.Picker()
	f.send(ctx, penevent.Down, picker.End.X, picker.End.Y)
	f.send(ctx, penevent.Down, 200, 0)
	f.send(ctx, penevent.Up, 200, 0)

	subs := f.compiler.submissions()
	require.Len(t, subs, 2)
	want := units.Convert(200, units.Px, units.DefaultDPI, units.Mm, units.DefaultDPI)
	assert.InDelta(t, want, subs[1].config.PageWidth, 1e-9)
}
