package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/texpen/internal/config"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct {
	// Environ supplies env.* variables. It defaults to os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// fileRoot is every attribute and block a settings file may contain.
type fileRoot struct {
	LogLevel        *string        `hcl:"log_level,optional"`
	LogFormat       *string        `hcl:"log_format,optional"`
	HealthcheckPort *int           `hcl:"healthcheck_port,optional"`
	CheckInterval   *string        `hcl:"check_interval,optional"`
	DPI             *float64       `hcl:"dpi,optional"`
	Equation        *equationBlock `hcl:"equation,block"`
	Latex           *latexBlock    `hcl:"latex,block"`
	Storage         *storageBlock  `hcl:"storage,block"`
}

type equationBlock struct {
	Backend   *string  `hcl:"backend,optional"`
	FontSize  *int     `hcl:"font_size,optional"`
	PageWidth *float64 `hcl:"page_width,optional"`
}

type latexBlock struct {
	TypesetCommand *string `hcl:"typeset_command,optional"`
	ConvertCommand *string `hcl:"convert_command,optional"`
	Preamble       *string `hcl:"preamble,optional"`
	TempDir        *string `hcl:"temp_dir,optional"`
}

type storageBlock struct {
	Path       *string `hcl:"path,optional"`
	InMemory   *bool   `hcl:"in_memory,optional"`
	SyncWrites *bool   `hcl:"sync_writes,optional"`
	GCInterval *string `hcl:"gc_interval,optional"`
}

// Load reads every .hcl file found under paths, in order, on top of the
// default settings. Paths that do not exist are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Settings, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var files []string
	for _, path := range paths {
		found, err := fsutil.ResolvePath(ctx, path, ".hcl")
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		files = append(files, found...)
	}

	settings := config.Default()
	parser := hclparse.NewParser()
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.decode(f.Body, settings); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
		logger.Debug("Settings file applied.", "path", file)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "files", len(files))
	return settings, nil
}

// LoadBytes parses a single settings document held in memory.
func (l *Loader) LoadBytes(src []byte, filename string) (*config.Settings, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	settings := config.Default()
	if err := l.decode(f.Body, settings); err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (l *Loader) decode(body hcl.Body, s *config.Settings) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, l.evalContext(), &root); diags.HasErrors() {
		return diags
	}

	set(&s.LogLevel, root.LogLevel)
	set(&s.LogFormat, root.LogFormat)
	set(&s.HealthcheckPort, root.HealthcheckPort)
	set(&s.DPI, root.DPI)
	if err := setDuration(&s.CheckInterval, root.CheckInterval, "check_interval"); err != nil {
		return err
	}

	if eq := root.Equation; eq != nil {
		set(&s.Equation.Backend, eq.Backend)
		set(&s.Equation.PageWidth, eq.PageWidth)
		if eq.FontSize != nil {
			if *eq.FontSize <= 0 {
				return fmt.Errorf("equation.font_size must be positive, got %d", *eq.FontSize)
			}
			s.Equation.FontSize = uint32(*eq.FontSize)
		}
	}
	if lx := root.Latex; lx != nil {
		set(&s.Latex.TypesetCommand, lx.TypesetCommand)
		set(&s.Latex.ConvertCommand, lx.ConvertCommand)
		set(&s.Latex.Preamble, lx.Preamble)
		set(&s.Latex.TempDir, lx.TempDir)
	}
	if st := root.Storage; st != nil {
		set(&s.Storage.Path, st.Path)
		set(&s.Storage.InMemory, st.InMemory)
		set(&s.Storage.SyncWrites, st.SyncWrites)
		if err := setDuration(&s.Storage.GCInterval, st.GCInterval, "storage.gc_interval"); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := make(map[string]cty.Value)
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && validIdentifier(name) {
			env[name] = cty.StringVal(value)
		}
	}
	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"join":      stdlib.JoinFunc,
			"format":    stdlib.FormatFunc,
			"trimspace": stdlib.TrimSpaceFunc,
		},
	}
}

// validIdentifier reports whether name can be used as env.NAME.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
