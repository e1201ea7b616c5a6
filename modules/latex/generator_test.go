package latex

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/svgmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okConvert = `#!/bin/sh
echo "pre-processing DVI file"
printf '%s' '<svg xmlns="http://www.w3.org/2000/svg" width="12pt" height="6pt" viewBox="0 0 12 6"></svg>' > equation.svg
`

const failingConvert = `#!/bin/sh
echo "processing on stdout"
echo "ERROR: font cmr10 not found" >&2
exit 1
`

func fakeTypeset(seenPath string) string {
	return `#!/bin/sh
for last; do :; done
cp "$last" "` + seenPath + `"
echo "This is fakeTeX"
if grep -q '\\fail' "$last"; then
  echo "! Undefined control sequence."
  exit 1
fi
printf 'dvi' > equation.dvi
`
}

type toolchain struct {
	gen     *Generator
	seen    string
	workDir string
}

func newToolchain(t *testing.T, convertScript string) toolchain {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("toolchain stubs are shell scripts")
	}
	binDir := t.TempDir()
	workDir := t.TempDir()
	seen := filepath.Join(t.TempDir(), "seen.tex")

	writeScript(t, binDir, "fake-latex", fakeTypeset(seen))
	writeScript(t, binDir, "fake-dvisvgm", convertScript)

	gen, err := New(Options{
		TypesetCommand: "/bin/sh " + filepath.Join(binDir, "fake-latex") + " -interaction=nonstopmode",
		ConvertCommand: "/bin/sh " + filepath.Join(binDir, "fake-dvisvgm") + " --no-fonts",
		Preamble:       `\usepackage{xcolor}`,
		TempDir:        workDir,
	})
	require.NoError(t, err)
	return toolchain{gen: gen, seen: seen, workDir: workDir}
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func requireWorkDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work directories must be removed")
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()
	// Arrange
	tc := newToolchain(t, okConvert)
	cfg := equation.Config{Backend: equation.BackendLatex, FontSize: 14, PageWidth: 80}

	// Act
	svg, err := tc.gen.Generate(context.Background(), `x^2+1`, cfg)

	// Assert
	require.NoError(t, err)
	info, err := svgmeta.Parse(svg)
	require.NoError(t, err)
	assert.InDelta(t, 16.0, info.Width, 1e-9)

	doc, err := os.ReadFile(tc.seen)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `\documentclass[varwidth=80mm, border=10pt]{standalone}`)
	assert.Contains(t, string(doc), `\usepackage[fontsize=14pt]{fontsize}`)
	assert.Contains(t, string(doc), `\usepackage{xcolor}`)
	assert.Contains(t, string(doc), "\\begin{document}\nx^2+1\n\\end{document}\n")
	requireWorkDirEmpty(t, tc.workDir)
}

func TestGenerate_TypesetFailureReportsStdout(t *testing.T) {
	t.Parallel()
	tc := newToolchain(t, okConvert)

	_, err := tc.gen.Generate(context.Background(), `\fail`, equation.DefaultConfig())

	require.Error(t, err)
	be := backend.AsError(err)
	assert.Equal(t, backend.ProcessFailed, be.Kind)
	assert.Equal(t, "typeset", be.Stage)
	assert.Contains(t, be.Diagnostics, "! Undefined control sequence.")
	requireWorkDirEmpty(t, tc.workDir)
}

func TestGenerate_ConvertFailureReportsItsOwnStderr(t *testing.T) {
	t.Parallel()
	tc := newToolchain(t, failingConvert)

	_, err := tc.gen.Generate(context.Background(), `x`, equation.DefaultConfig())

	require.Error(t, err)
	be := backend.AsError(err)
	assert.Equal(t, backend.ProcessFailed, be.Kind)
	assert.Equal(t, "convert", be.Stage)
	assert.Contains(t, be.Diagnostics, "font cmr10 not found")
	assert.NotContains(t, be.Diagnostics, "fakeTeX", "diagnostics must not come from the typeset stage")
	requireWorkDirEmpty(t, tc.workDir)
}

func TestGenerate_MissingTool(t *testing.T) {
	t.Parallel()
	gen, err := New(Options{
		TypesetCommand: filepath.Join(t.TempDir(), "no-such-latex"),
		ConvertCommand: "dvisvgm",
		TempDir:        t.TempDir(),
	})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "x", equation.DefaultConfig())

	assert.Equal(t, backend.ToolMissing, backend.KindOf(err))
	assert.False(t, gen.Available())
}

func TestNew_RejectsBadCommands(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		opts Options
	}{
		{name: "empty typeset", opts: Options{TypesetCommand: "  ", ConvertCommand: "dvisvgm"}},
		{name: "unterminated quote", opts: Options{TypesetCommand: "latex", ConvertCommand: `dvisvgm "--no-fonts`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.opts)
			assert.Error(t, err)
		})
	}
}

func TestDocument_UsesDefaults(t *testing.T) {
	t.Parallel()
	doc := Document(`\alpha`, equation.DefaultConfig(), "")

	assert.True(t, strings.HasPrefix(doc, `\documentclass[varwidth=64mm, border=10pt]{standalone}`))
	for _, pkg := range []string{"amsmath", "amssymb", "ifxetex", "ifluatex", "fix-cm"} {
		assert.Contains(t, doc, `\usepackage{`+pkg+`}`)
	}
	assert.Contains(t, doc, `\usepackage[fontsize=12pt]{fontsize}`)
}

func TestModule_RegistersLatexBackend(t *testing.T) {
	t.Parallel()
	r := backend.NewRegistry(&Module{Options: DefaultOptions()})

	b, err := r.Resolve(equation.BackendLatex)
	require.NoError(t, err)
	assert.Equal(t, equation.BackendLatex, b.Kind())
}
