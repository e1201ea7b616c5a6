package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"unicode/utf8"

	"github.com/mattn/go-shellwords"
	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/equation"
)

const (
	fileStem = "equation"

	stageTypeset = "typeset"
	stageConvert = "convert"
)

// Generator is the latex + dvisvgm backend.
type Generator struct {
	typeset  []string
	convert  []string
	preamble string
	tempDir  string
}

// New parses the configured commands.
func New(opts Options) (*Generator, error) {
	typeset, err := parseCommand("typeset", opts.TypesetCommand)
	if err != nil {
		return nil, err
	}
	convert, err := parseCommand("convert", opts.ConvertCommand)
	if err != nil {
		return nil, err
	}
	return &Generator{
		typeset:  typeset,
		convert:  convert,
		preamble: opts.Preamble,
		tempDir:  opts.TempDir,
	}, nil
}

func parseCommand(name, line string) ([]string, error) {
	words, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parsing %s command %q: %w", name, line, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%s command is empty", name)
	}
	return words, nil
}

// Kind implements backend.Backend.
func (g *Generator) Kind() equation.BackendKind { return equation.BackendLatex }

// Available reports whether both toolchain executables can be found.
func (g *Generator) Available() bool {
	for _, tool := range []string{g.typeset[0], g.convert[0]} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}

// Generate writes the document into a fresh work directory, runs both
// toolchain stages there and returns the produced SVG. The work directory is
// removed afterwards on every path.
func (g *Generator) Generate(ctx context.Context, source string, cfg equation.Config) (string, error) {
	logger := ctxlog.FromContext(ctx).With("backend", equation.BackendLatex)

	dir, err := os.MkdirTemp(g.tempDir, "texpen-*")
	if err != nil {
		return "", backend.NewIoFailure("creating work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove work directory.", "dir", dir, "error", err)
		}
	}()

	texName := fileStem + ".tex"
	if err := os.WriteFile(filepath.Join(dir, texName), []byte(Document(source, cfg, g.preamble)), 0o600); err != nil {
		return "", backend.NewIoFailure("writing document", err)
	}

	logger.Debug("Running typeset stage.", "dir", dir, "command", g.typeset[0])
	if res, err := run(ctx, dir, g.typeset, texName); err != nil {
		return "", stageError(stageTypeset, g.typeset[0], res, err)
	}

	logger.Debug("Running convert stage.", "dir", dir, "command", g.convert[0])
	if res, err := run(ctx, dir, g.convert, fileStem+".dvi"); err != nil {
		return "", stageError(stageConvert, g.convert[0], res, err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, fileStem+".svg"))
	if err != nil {
		return "", backend.NewIoFailure("reading converted image", err)
	}
	if !utf8.Valid(raw) {
		return "", backend.NewEncodingFailure("converted image is not valid UTF-8")
	}
	return string(raw), nil
}

type result struct {
	stdout, stderr []byte
}

func run(ctx context.Context, dir string, command []string, input string) (result, error) {
	args := append(append([]string(nil), command[1:]...), input)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Dir = dir
	hideConsole(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return result{stdout: stdout.Bytes(), stderr: stderr.Bytes()}, err
}

// stageError classifies a failed stage. The typeset stage reports its
// standard output, where TeX writes its diagnostics; the convert stage
// reports its own standard error, falling back to standard output.
func stageError(stage, tool string, res result, err error) *backend.Error {
	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return backend.NewToolMissing(tool, err)
	case errors.As(err, &exitErr):
		diagnostics := res.stdout
		if stage == stageConvert && len(bytes.TrimSpace(res.stderr)) > 0 {
			diagnostics = res.stderr
		}
		return backend.NewProcessFailed(stage, diagnostics, err)
	default:
		return backend.NewIoFailure(fmt.Sprintf("running %s stage", stage), err)
	}
}
