package startex

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/equation"
	"star-tex.org/x/tex"
)

// plainFontSize is the body size plain TeX typesets at.
const plainFontSize = 10.0

// Renderer is the in-process backend. It is safe for concurrent use; calls
// are serialized on the single engine instance.
type Renderer struct {
	once    sync.Once
	initErr error

	mu     sync.Mutex
	engine *tex.Engine
	fonts  *fontSet
}

// NewRenderer returns a renderer whose engine is created on first use.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) init() error {
	r.once.Do(func() {
		fonts, err := loadFonts()
		if err != nil {
			r.initErr = err
			return
		}
		r.fonts = fonts
		r.engine = tex.New()
	})
	return r.initErr
}

// Kind implements backend.Backend.
func (r *Renderer) Kind() equation.BackendKind { return equation.BackendStarTeX }

// Available reports whether the engine and its fonts could be initialized.
func (r *Renderer) Available() bool {
	return r.init() == nil
}

// Generate typesets source as inline math and draws the first page as SVG.
func (r *Renderer) Generate(ctx context.Context, source string, cfg equation.Config) (markup string, err error) {
	if err := r.init(); err != nil {
		return "", backend.NewRendererFailure("initializing engine", nil, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var dvi, log bytes.Buffer
	defer func() {
		if p := recover(); p != nil {
			markup, err = "", backend.NewRendererFailure(fmt.Sprintf("engine panicked: %v", p), log.Bytes(), nil)
		}
	}()

	ctxlog.FromContext(ctx).Debug("Typesetting in-process.", "backend", equation.BackendStarTeX, "bytes", len(source))
	r.engine.Stdout = &log
	if err := r.engine.Process(&dvi, strings.NewReader(Document(source, cfg))); err != nil {
		return "", backend.NewRendererFailure("typesetting failed", log.Bytes(), err)
	}

	svg, err := drawDVI(dvi.Bytes(), r.fonts, magnification(cfg))
	if err != nil {
		return "", backend.NewRendererFailure("drawing output", log.Bytes(), err)
	}
	return svg, nil
}

// magnification scales plain TeX's fixed body size to the configured one.
func magnification(cfg equation.Config) float64 {
	if cfg.FontSize == 0 {
		return 1
	}
	return float64(cfg.FontSize) / plainFontSize
}

// Document returns the plain TeX input for source. The line width is reduced
// by the magnification so the drawn result is PageWidth wide.
func Document(source string, cfg equation.Config) string {
	var b strings.Builder
	b.WriteString("\\nopagenumbers\n")
	b.WriteString("\\parindent=0pt\n")
	fmt.Fprintf(&b, "\\hsize=%smm\n", strconv.FormatFloat(cfg.PageWidth/magnification(cfg), 'f', 3, 64))
	b.WriteString("\\def\\frac#1#2{{{#1}\\over{#2}}}\n")
	fmt.Fprintf(&b, "$%s$\n", source)
	b.WriteString("\\bye\n")
	return b.String()
}
