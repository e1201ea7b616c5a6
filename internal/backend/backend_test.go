package backend

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"testing"

	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	kind      equation.BackendKind
	available bool
}

func (s stubBackend) Kind() equation.BackendKind { return s.kind }
func (s stubBackend) Available() bool            { return s.available }
func (s stubBackend) Generate(context.Context, string, equation.Config) (string, error) {
	return "<svg/>", nil
}

type stubModule struct{ b Backend }

func (m stubModule) Register(r *Registry) { r.Register(m.b) }

func TestRegistry_ResolveAndProbe(t *testing.T) {
	t.Parallel()
	// Arrange
	r := NewRegistry(
		stubModule{stubBackend{kind: equation.BackendStarTeX, available: true}},
		stubModule{stubBackend{kind: equation.BackendLatex}},
	)

	// Act
	b, err := r.Resolve(equation.BackendStarTeX)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, equation.BackendStarTeX, b.Kind())
	assert.Equal(t, []equation.BackendKind{equation.BackendLatex, equation.BackendStarTeX}, r.Kinds())
	assert.Equal(t, map[equation.BackendKind]bool{
		equation.BackendLatex:   false,
		equation.BackendStarTeX: true,
	}, r.Probe())
}

func TestRegistry_ResolveUnknownIsToolMissing(t *testing.T) {
	t.Parallel()
	_, err := NewRegistry().Resolve("mathjax")

	require.Error(t, err)
	assert.Equal(t, ToolMissing, KindOf(err))
	assert.Contains(t, err.Error(), "mathjax")
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(stubBackend{kind: equation.BackendLatex})

	assert.Panics(t, func() { r.Register(stubBackend{kind: equation.BackendLatex}) })
}

// Not parallel: swaps the process-wide default logger.
func TestRegistry_RegisterLeavesDefaultLoggerAlone(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	// Act
	r := NewRegistry(stubModule{stubBackend{kind: equation.BackendStarTeX, available: true}})

	// Assert
	assert.Equal(t, []equation.BackendKind{equation.BackendStarTeX}, r.Kinds())
	assert.Empty(t, buf.String())
}

func TestError_FormattingAndMatching(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		err      *Error
		contains []string
		kind     Kind
	}{
		{
			name:     "tool missing",
			err:      NewToolMissing("dvisvgm", fs.ErrNotExist),
			contains: []string{"tool missing: dvisvgm"},
			kind:     ToolMissing,
		},
		{
			name:     "process failed keeps diagnostics",
			err:      NewProcessFailed("typeset", []byte("! Undefined control sequence.\n"), errors.New("exit status 1")),
			contains: []string{"typeset stage failed", "! Undefined control sequence."},
			kind:     ProcessFailed,
		},
		{
			name:     "lossy diagnostics",
			err:      NewRendererFailure("bad input", []byte{'o', 'k', 0xff}, nil),
			contains: []string{"renderer failure: bad input", "ok�"},
			kind:     RendererFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for _, want := range tc.contains {
				assert.Contains(t, tc.err.Error(), want)
			}
			assert.True(t, errors.Is(tc.err, &Error{Kind: tc.kind}))
			assert.Equal(t, tc.kind, KindOf(tc.err))
		})
	}
}

func TestAsError_WrapsForeignErrors(t *testing.T) {
	t.Parallel()
	assert.Nil(t, AsError(nil))

	be := AsError(errors.New("boom"))
	assert.Equal(t, RendererFailure, be.Kind)

	orig := NewEncodingFailure("svg")
	assert.Same(t, orig, AsError(orig))
}
