package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/compiler"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/engine"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/mailbox"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/store"
	"github.com/specialistvlad/texpen/internal/store/badgerstore"
	"github.com/specialistvlad/texpen/internal/units"
	"github.com/specialistvlad/texpen/internal/watch"
	"golang.org/x/sync/errgroup"
)

// equationGap is the vertical space between placed equations, in pixels.
const equationGap = 16.0

type outcome int

const (
	outcomeOK outcome = iota
	outcomeCached
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return "ok"
	case outcomeCached:
		return "cached"
	default:
		return "error"
	}
}

// document drives a set of source files through the engine, one equation
// per file, and reports every compilation outcome.
type document struct {
	app     *App
	eng     *engine.Engine
	db      *badgerstore.DB
	results *mailbox.Mailbox[compiler.Event]

	// Both maps are filled before any watcher starts and are read-only after.
	paths map[objectid.ID]string
	ids   map[string]objectid.ID
}

func newDocument(a *App, eng *engine.Engine, db *badgerstore.DB, results *mailbox.Mailbox[compiler.Event]) *document {
	return &document{
		app:     a,
		eng:     eng,
		db:      db,
		results: results,
		paths:   make(map[objectid.ID]string),
		ids:     make(map[string]objectid.ID),
	}
}

// compileAll places or reuses one equation per source, waits until every
// new equation has an outcome and persists the document.
func (d *document) compileAll(ctx context.Context, sources []string) error {
	texts := make(map[string]string, len(sources))
	for _, path := range sources {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read source %s: %w", path, err)
		}
		texts[path] = string(b)
	}

	pending := make(map[objectid.ID]bool)
	var cached []objectid.ID
	var placeErr error
	if err := d.eng.Do(ctx, func(e *engine.Engine) {
		cached, placeErr = d.place(ctx, e, sources, texts, pending)
	}); err != nil {
		return err
	}
	if placeErr != nil {
		return placeErr
	}

	for _, id := range cached {
		d.reportCached(ctx, id)
	}

	failed := 0
	for len(pending) > 0 {
		ev, err := d.results.RecvContext(ctx)
		if err != nil {
			return err
		}
		if !pending[ev.ObjectID()] {
			continue
		}
		o, settled := d.settle(ctx, ev)
		if !settled {
			continue
		}
		delete(pending, ev.ObjectID())
		if o == outcomeFailed {
			failed++
		}
	}

	if err := d.persist(ctx); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d equations failed to compile", failed, len(sources))
	}
	return nil
}

// place runs on the engine goroutine. Sources whose text and style match a
// rendered equation from the loaded document reuse it; equations no source
// refers to are removed; every other source gets a new equation below the
// existing ones with compilation enabled.
func (d *document) place(ctx context.Context, e *engine.Engine, sources []string, texts map[string]string, pending map[objectid.ID]bool) ([]objectid.ID, error) {
	st := e.Store()
	cfg := e.Config()

	used := make(map[objectid.ID]bool)
	var cached []objectid.ID
	var fresh []string
	for _, path := range sources {
		if id, ok := findRendered(st, texts[path], cfg, used); ok {
			used[id] = true
			d.bind(id, path)
			cached = append(cached, id)
			continue
		}
		fresh = append(fresh, path)
	}

	var stale []objectid.ID
	for _, id := range st.IDs() {
		if !used[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		st.Record()
		for _, id := range stale {
			st.Remove(id)
		}
		ctxlog.FromContext(ctx).Debug("Stale equations removed.", "count", len(stale))
	}

	y := bottom(st)
	dpi := d.app.settings.DPI
	widthPx := units.Convert(cfg.PageWidth, units.Mm, dpi, units.Px, dpi)
	for _, path := range fresh {
		id, _, err := e.PlaceEquation(ctx, geom.V(0, y), widthPx)
		if err != nil {
			return nil, fmt.Errorf("failed to place equation for %s: %w", path, err)
		}
		e.SetSource(texts[path])
		e.EnableCompilation(ctx)
		e.DeactivatePen()

		d.bind(id, path)
		pending[id] = true
		if obj, ok := st.Get(id); ok {
			y = obj.Rectangle().Bounds().Max.Y + equationGap
		}
	}
	return cached, nil
}

func (d *document) bind(id objectid.ID, path string) {
	d.paths[id] = path
	if abs, err := filepath.Abs(path); err == nil {
		d.ids[abs] = id
	}
}

// findRendered returns an unused equation with the given source and style
// that already shows compiled output.
func findRendered(st store.Store, source string, cfg equation.Config, used map[objectid.ID]bool) (objectid.ID, bool) {
	for _, id := range st.IDs() {
		if used[id] {
			continue
		}
		obj, ok := st.Get(id)
		if !ok || obj.Image == nil || obj.Image.Markup == equation.PlaceholderMarkup {
			continue
		}
		if obj.Source == source && sameStyle(obj.Config, cfg) {
			return id, true
		}
	}
	return objectid.Nil, false
}

// sameStyle compares styles, allowing for the rounding of a page width that
// went through a pixel conversion.
func sameStyle(a, b equation.Config) bool {
	return a.Backend == b.Backend &&
		a.FontSize == b.FontSize &&
		math.Abs(a.PageWidth-b.PageWidth) < 1e-6
}

// bottom returns the first free y coordinate below every equation.
func bottom(st store.Store) float64 {
	y := 0.0
	for _, id := range st.IDs() {
		if obj, ok := st.Get(id); ok {
			y = max(y, obj.Rectangle().Bounds().Max.Y+equationGap)
		}
	}
	return y
}

// settle reports the outcome an event completes. A success is only final
// once its ClearError has been applied, because the engine may still reject
// the rendered markup.
func (d *document) settle(ctx context.Context, ev compiler.Event) (outcome, bool) {
	id := ev.ObjectID()
	switch ev := ev.(type) {
	case compiler.SetError:
		d.report(ctx, id, outcomeFailed, ev.Err)
		return outcomeFailed, true
	case compiler.ClearError:
		var markup string
		var cerr *backend.Error
		found := false
		if err := d.eng.Do(ctx, func(e *engine.Engine) {
			obj, ok := e.Store().Get(id)
			if !ok {
				return
			}
			found = true
			if err, failed := e.Error(id); failed {
				cerr = err
				return
			}
			markup = obj.Image.Markup
		}); err != nil || !found {
			return outcomeFailed, false
		}
		if cerr != nil {
			d.report(ctx, id, outcomeFailed, cerr)
			return outcomeFailed, true
		}
		if err := d.writeOutput(id, markup); err != nil {
			d.report(ctx, id, outcomeFailed, err)
			return outcomeFailed, true
		}
		d.report(ctx, id, outcomeOK, nil)
		return outcomeOK, true
	}
	return outcomeFailed, false
}

func (d *document) reportCached(ctx context.Context, id objectid.ID) {
	var markup string
	if err := d.eng.Do(ctx, func(e *engine.Engine) {
		if obj, ok := e.Store().Get(id); ok {
			markup = obj.Image.Markup
		}
	}); err != nil {
		return
	}
	if err := d.writeOutput(id, markup); err != nil {
		d.report(ctx, id, outcomeFailed, err)
		return
	}
	d.report(ctx, id, outcomeCached, nil)
}

func (d *document) report(ctx context.Context, id objectid.ID, o outcome, err error) {
	path := d.paths[id]
	logger := ctxlog.FromContext(ctx).With("path", path, "object_id", id)
	if err != nil {
		logger.Debug("Equation outcome.", "outcome", o, "error", err)
		fmt.Fprintf(d.app.outW, "%s: %s: %s\n", path, o, firstLine(err.Error()))
		return
	}
	logger.Debug("Equation outcome.", "outcome", o)
	fmt.Fprintf(d.app.outW, "%s: %s\n", path, o)
}

// outputPath returns where the rendered SVG of a source is written.
func (d *document) outputPath(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".svg"
	if d.app.config.OutDir != "" {
		return filepath.Join(d.app.config.OutDir, name)
	}
	return filepath.Join(filepath.Dir(source), name)
}

func (d *document) writeOutput(id objectid.ID, markup string) error {
	path, ok := d.paths[id]
	if !ok {
		return errors.New("equation has no source")
	}
	out := d.outputPath(path)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func (d *document) persist(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	var saveErr error
	if err := d.eng.Do(ctx, func(e *engine.Engine) {
		saveErr = d.db.SaveDocument(ctx, e.Store())
	}); err != nil {
		return err
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save document: %w", saveErr)
	}
	return nil
}

// watch recompiles sources as they change and reports outcomes until ctx
// is done.
func (d *document) watch(ctx context.Context, g *errgroup.Group, sources []string) error {
	w, err := watch.New(sources, d.sourceChanged, watch.Options{})
	if err != nil {
		return err
	}
	g.Go(func() error { return w.Run(ctx) })
	d.app.logger.Info("👀 Watching sources for changes...", "count", len(sources))

	for {
		ev, err := d.results.RecvContext(ctx)
		if err != nil {
			return err
		}
		if _, ok := d.paths[ev.ObjectID()]; !ok {
			continue
		}
		if _, settled := d.settle(ctx, ev); !settled {
			continue
		}
		if err := d.persist(ctx); err != nil {
			d.app.logger.Warn("Failed to persist document.", "error", err)
		}
	}
}

// sourceChanged runs on the watcher's goroutine. It edits the equation bound
// to path the way a user would: select it, replace its text and compile.
func (d *document) sourceChanged(ctx context.Context, path string) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	id, ok := d.ids[path]
	if !ok {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read changed source.", "error", err)
		return
	}

	var selectErr error
	if err := d.eng.Do(ctx, func(e *engine.Engine) {
		if _, selectErr = e.SelectEquation(ctx, id); selectErr != nil {
			return
		}
		e.SetSource(string(b))
		e.EnableCompilation(ctx)
		e.DeactivatePen()
	}); err != nil {
		logger.Debug("Source change dropped.", "error", err)
		return
	}
	if selectErr != nil {
		logger.Warn("Failed to select equation for changed source.", "error", selectErr)
		return
	}
	logger.Info("Source changed, recompiling.")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
