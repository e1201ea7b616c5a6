package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/config"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	settings *config.Settings
	backends *backend.Registry
	registry *prometheus.Registry
	metrics  *metrics.Compiler
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and backend
// registry. Configuration errors are fatal and panic.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...backend.Module) *App {
	settings, err := loader.Load(context.Background(), appConfig.ConfigPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	appConfig.Overrides.Apply(settings)
	if err := settings.Validate(); err != nil {
		panic(err)
	}

	logger, err := newLogger(settings.LogLevel, settings.LogFormat, outW)
	if err != nil {
		panic(err)
	}
	logger.Debug("Logger configured successfully.")
	logger.Debug("Configuration loaded.", "backend", settings.Equation.Backend, "check_interval", settings.CheckInterval)

	reg := backend.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules(settings)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All backend modules registered.", "count", len(modules), "kinds", reg.Kinds())

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		settings: settings,
		backends: reg,
		registry: promReg,
		metrics:  metrics.NewCompiler(promReg),
	}
}

// Backends returns the application's backend registry. This is primarily for testing.
func (a *App) Backends() *backend.Registry {
	return a.backends
}

// Settings returns the effective settings.
func (a *App) Settings() *config.Settings {
	return a.settings
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
