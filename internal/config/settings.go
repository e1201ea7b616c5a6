package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/units"
	"github.com/specialistvlad/texpen/modules/latex"
)

// Loader reads settings from one or more files. Values absent from the files
// keep their defaults.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Settings, error)
}

// Settings is the complete application configuration.
type Settings struct {
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=text json"`
	HealthcheckPort int           `validate:"gte=0,lte=65535"`
	CheckInterval   time.Duration `validate:"gt=0"`
	DPI             float64       `validate:"gt=0"`
	Equation        Equation
	Latex           Latex
	Storage         Storage
}

// Equation is the default style of new equations.
type Equation struct {
	Backend   string  `validate:"backend"`
	FontSize  uint32  `validate:"gte=1,lte=1000"`
	PageWidth float64 `validate:"gt=0"`
}

// Latex configures the external toolchain backend.
type Latex struct {
	TypesetCommand string `validate:"required"`
	ConvertCommand string `validate:"required"`
	Preamble       string
	TempDir        string
}

// Storage configures document persistence. An empty Path disables it.
type Storage struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	GCInterval time.Duration `validate:"gte=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("backend", func(fl validator.FieldLevel) bool {
		_, err := equation.ParseBackendKind(fl.Field().String())
		return err == nil
	})
}

// Default returns the built-in settings.
func Default() *Settings {
	eq := equation.DefaultConfig()
	lx := latex.DefaultOptions()
	return &Settings{
		LogLevel:      "info",
		LogFormat:     "text",
		CheckInterval: time.Second,
		DPI:           units.DefaultDPI,
		Equation: Equation{
			Backend:   string(eq.Backend),
			FontSize:  eq.FontSize,
			PageWidth: eq.PageWidth,
		},
		Latex: Latex{
			TypesetCommand: lx.TypesetCommand,
			ConvertCommand: lx.ConvertCommand,
		},
		Storage: Storage{GCInterval: 5 * time.Minute},
	}
}

// Validate checks every field constraint.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// EquationConfig returns the equation style described by the settings. It
// assumes Validate has passed.
func (s *Settings) EquationConfig() equation.Config {
	kind, _ := equation.ParseBackendKind(s.Equation.Backend)
	return equation.Config{
		Backend:   kind,
		FontSize:  s.Equation.FontSize,
		PageWidth: s.Equation.PageWidth,
	}
}

// LatexOptions returns the toolchain options described by the settings.
func (s *Settings) LatexOptions() latex.Options {
	return latex.Options{
		TypesetCommand: s.Latex.TypesetCommand,
		ConvertCommand: s.Latex.ConvertCommand,
		Preamble:       s.Latex.Preamble,
		TempDir:        s.Latex.TempDir,
	}
}

// Overrides holds values set on the command line. Nil fields are left
// untouched by Apply.
type Overrides struct {
	LogLevel        *string
	LogFormat       *string
	HealthcheckPort *int
	Backend         *string
	FontSize        *uint
	PageWidth       *float64
	DPI             *float64
	DataDir         *string
}

// Apply writes every set override into s.
func (o Overrides) Apply(s *Settings) {
	if o.LogLevel != nil {
		s.LogLevel = *o.LogLevel
	}
	if o.LogFormat != nil {
		s.LogFormat = *o.LogFormat
	}
	if o.HealthcheckPort != nil {
		s.HealthcheckPort = *o.HealthcheckPort
	}
	if o.Backend != nil {
		s.Equation.Backend = *o.Backend
	}
	if o.FontSize != nil {
		s.Equation.FontSize = uint32(*o.FontSize)
	}
	if o.PageWidth != nil {
		s.Equation.PageWidth = *o.PageWidth
	}
	if o.DPI != nil {
		s.DPI = *o.DPI
	}
	if o.DataDir != nil {
		s.Storage.Path = *o.DataDir
	}
}
