package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/texpen/internal/app"
	"github.com/specialistvlad/texpen/internal/config"
	"github.com/specialistvlad/texpen/internal/equation"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// pathList collects a repeatable path flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("texpen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
texpen - Typesets LaTeX equations into SVG through a background compiler.

Usage:
  texpen [options] PATH...
  texpen -probe

Arguments:
  PATH
    Path to a single .tex file or a directory containing .tex files.
    Every file becomes one equation.

Options:
`)
		flagSet.PrintDefaults()
	}

	var configPaths pathList
	flagSet.Var(&configPaths, "config", "Path to an .hcl settings file or directory. May be repeated; later files win.")
	backendFlag := flagSet.String("backend", "", "Rendering backend. Options: 'latex' or 'startex'.")
	fontSizeFlag := flagSet.Uint("font-size", 0, "Font size of new equations in points.")
	pageWidthFlag := flagSet.Float64("page-width", 0, "Typesetting width of new equations in millimeters.")
	dpiFlag := flagSet.Float64("dpi", 0, "Document resolution used to convert widths.")
	dataDirFlag := flagSet.String("data-dir", "", "Directory of the document database. Empty disables persistence.")
	outFlag := flagSet.String("out", "", "Directory for rendered .svg files. Defaults to next to each source.")
	watchFlag := flagSet.Bool("watch", false, "Keep running and recompile sources when they change.")
	probeFlag := flagSet.Bool("probe", false, "Print which backends can run on this machine and exit.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	sources := flagSet.Args()
	if len(sources) == 0 && !*probeFlag {
		slog.Debug("No source path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	// Only flags given on the command line override the settings files.
	var overrides config.Overrides
	var flagErr *ExitError
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-format":
			logFormat := strings.ToLower(*logFormatFlag)
			if logFormat != "text" && logFormat != "json" {
				flagErr = &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
			}
			overrides.LogFormat = &logFormat
		case "log-level":
			logLevel := strings.ToLower(*logLevelFlag)
			switch logLevel {
			case "debug", "info", "warn", "error":
				// valid
			default:
				flagErr = &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
			}
			overrides.LogLevel = &logLevel
		case "backend":
			if _, err := equation.ParseBackendKind(*backendFlag); err != nil {
				flagErr = &ExitError{Code: 2, Message: err.Error()}
			}
			overrides.Backend = backendFlag
		case "font-size":
			overrides.FontSize = fontSizeFlag
		case "page-width":
			overrides.PageWidth = pageWidthFlag
		case "dpi":
			overrides.DPI = dpiFlag
		case "data-dir":
			overrides.DataDir = dataDirFlag
		case "healthcheck-port":
			overrides.HealthcheckPort = healthPortFlag
		}
	})
	if flagErr != nil {
		return nil, false, flagErr
	}
	slog.Debug("CLI parameter validation complete.")

	appConfig, err := app.NewConfig(app.Config{
		ConfigPaths: configPaths,
		Sources:     sources,
		OutDir:      *outFlag,
		Watch:       *watchFlag,
		Probe:       *probeFlag,
		Overrides:   overrides,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", appConfig)
	return appConfig, false, nil
}
