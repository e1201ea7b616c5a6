package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/specialistvlad/texpen/internal/compiler"
	"github.com/specialistvlad/texpen/internal/engine"
	"github.com/specialistvlad/texpen/internal/fsutil"
	"github.com/specialistvlad/texpen/internal/mailbox"
	"github.com/specialistvlad/texpen/internal/store"
	"github.com/specialistvlad/texpen/internal/store/badgerstore"
	"github.com/specialistvlad/texpen/internal/widgetflags"
	"golang.org/x/sync/errgroup"
)

// closeTimeout bounds how long shutdown waits for in-flight compilations.
const closeTimeout = 5 * time.Second

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.")

	if a.config.Probe {
		return a.probe()
	}

	sources, err := a.resolveSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		a.logger.Warn("No .tex sources found, nothing to compile.")
		return nil
	}
	a.logger.Debug("Sources resolved.", "count", len(sources))

	st := store.NewMemory()
	db, err := a.openDatabase()
	if err != nil {
		return err
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				a.logger.Warn("Failed to close document database.", "error", err)
			}
		}()
		n, err := db.LoadDocument(ctx, st)
		if err != nil {
			return fmt.Errorf("failed to load document: %w", err)
		}
		a.logger.Debug("Document loaded.", "equations", n)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := mailbox.New[compiler.Event]()
	eng := engine.New(runCtx, engine.Options{
		Store:         st,
		Config:        a.settings.EquationConfig(),
		DPI:           a.settings.DPI,
		Backends:      a.backends,
		Metrics:       a.metrics,
		CheckInterval: a.settings.CheckInterval,
		OnEvent: func(ev compiler.Event, _ widgetflags.Flags) {
			_ = results.Send(ev)
		},
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return eng.Run(gctx) })
	if port := a.settings.HealthcheckPort; port > 0 {
		g.Go(func() error { return a.serveHealthcheck(gctx, port) })
	}

	a.logger.Info("🚀 Compiling equations...", "count", len(sources), "backend", a.settings.Equation.Backend)
	doc := newDocument(a, eng, db, results)
	runErr := doc.compileAll(gctx, sources)
	if a.config.Watch && gctx.Err() == nil {
		runErr = doc.watch(gctx, g, sources)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), closeTimeout)
	defer cancelClose()
	if err := eng.Close(closeCtx); err != nil {
		a.logger.Warn("Compiler did not finish before shutdown.", "error", err)
	}
	results.Close()
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		if runErr == nil || errors.Is(runErr, context.Canceled) {
			runErr = err
		}
	}
	if errors.Is(runErr, context.Canceled) && ctx.Err() != nil {
		// Interrupted by the caller; everything finished so far was reported.
		runErr = nil
	}
	a.logger.Debug("App.Run method finished.")
	return runErr
}

// probe prints whether each registered backend can run on this machine.
func (a *App) probe() error {
	availability := a.backends.Probe()
	for _, kind := range a.backends.Kinds() {
		status := "available"
		if !availability[kind] {
			status = "unavailable"
		}
		fmt.Fprintf(a.outW, "%s: %s\n", kind, status)
	}
	return nil
}

func (a *App) resolveSources(ctx context.Context) ([]string, error) {
	var sources []string
	for _, path := range a.config.Sources {
		files, err := fsutil.ResolvePath(ctx, path, ".tex")
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("source path does not exist: %s", path)
			}
			return nil, fmt.Errorf("failed to resolve source path %s: %w", path, err)
		}
		for _, f := range files {
			if !slices.Contains(sources, f) {
				sources = append(sources, f)
			}
		}
	}
	return sources, nil
}

// openDatabase opens the document database, or returns nil when no storage
// is configured.
func (a *App) openDatabase() (*badgerstore.DB, error) {
	s := a.settings.Storage
	if s.Path == "" && !s.InMemory {
		return nil, nil
	}
	db, err := badgerstore.Open(badgerstore.Config{
		Path:       s.Path,
		InMemory:   s.InMemory,
		SyncWrites: s.SyncWrites,
		GCInterval: s.GCInterval,
		Logger:     a.logger.With("component", "badger"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open document database: %w", err)
	}
	return db, nil
}
