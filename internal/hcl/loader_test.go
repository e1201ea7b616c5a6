package hcl

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/texpen/internal/config"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader() *Loader {
	return &Loader{Environ: func() []string {
		return []string{"HOME=/home/ada", "TEXPEN_BACKEND=STARTEX", "=ignored", "1BAD=x"}
	}}
}

func TestLoadBytes_FullDocument(t *testing.T) {
	t.Parallel()
	// Arrange
	src := `
log_level      = "debug"
check_interval = "250ms"
dpi            = 72

equation {
  backend    = lower(env.TEXPEN_BACKEND)
  font_size  = 14
  page_width = 80.5
}

latex {
  typeset_command = "pdflatex -interaction=nonstopmode"
  convert_command = "dvisvgm -n"
  preamble        = join("\n", ["\\usepackage{amsmath}", "\\usepackage{amssymb}"])
}

storage {
  path        = "${env.HOME}/.texpen"
  gc_interval = "1m"
}
`
	// Act
	s, err := testLoader().LoadBytes([]byte(src), "settings.hcl")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 250*time.Millisecond, s.CheckInterval)
	assert.Equal(t, 72.0, s.DPI)
	assert.Equal(t, equation.Config{Backend: equation.BackendStarTeX, FontSize: 14, PageWidth: 80.5}, s.EquationConfig())
	assert.Equal(t, "pdflatex -interaction=nonstopmode", s.Latex.TypesetCommand)
	assert.Equal(t, "\\usepackage{amsmath}\n\\usepackage{amssymb}", s.Latex.Preamble)
	assert.Equal(t, "/home/ada/.texpen", s.Storage.Path)
	assert.Equal(t, time.Minute, s.Storage.GCInterval)
}

func TestLoadBytes_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()
	s, err := testLoader().LoadBytes(nil, "empty.hcl")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), s)
}

func TestLoadBytes_Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax", src: `equation {`, want: "failed to parse"},
		{name: "unknown attribute", src: `colour = "red"`, want: "failed to decode"},
		{name: "bad duration", src: `check_interval = "soon"`, want: "check_interval"},
		{name: "invalid backend", src: "equation {\n backend = \"mathjax\"\n}", want: "Backend"},
		{name: "negative font size", src: "equation {\n font_size = -3\n}", want: "font_size"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := testLoader().LoadBytes([]byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_MergesFilesInOrder(t *testing.T) {
	t.Parallel()
	// Arrange
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a.hcl")
	second := filepath.Join(dir, "b.hcl")
	require.NoError(t, os.WriteFile(first, []byte("log_level = \"warn\"\nequation {\n font_size = 20\n}\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("equation {\n font_size = 9\n}\n"), 0o600))

	// Act
	s, err := testLoader().Load(ctx, first, second, filepath.Join(dir, "missing.hcl"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, uint32(9), s.Equation.FontSize)
}
