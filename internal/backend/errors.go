package backend

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies a backend failure.
type Kind int

const (
	// ToolMissing means an external executable or backend could not be found.
	ToolMissing Kind = iota + 1
	// ProcessFailed means a toolchain stage ran and exited unsuccessfully.
	ProcessFailed
	// IoFailure covers temporary file and process plumbing problems.
	IoFailure
	// EncodingFailure means produced output was not valid text.
	EncodingFailure
	// RendererFailure means an in-process renderer rejected the input.
	RendererFailure
)

func (k Kind) String() string {
	switch k {
	case ToolMissing:
		return "tool missing"
	case ProcessFailed:
		return "process failed"
	case IoFailure:
		return "io failure"
	case EncodingFailure:
		return "encoding failure"
	case RendererFailure:
		return "renderer failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the failure reported by a backend. Tool is set for ToolMissing and
// Stage for ProcessFailed. Diagnostics carries the toolchain or renderer
// output meant for the user.
type Error struct {
	Kind        Kind
	Tool        string
	Stage       string
	Diagnostics string
	Detail      string
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ToolMissing:
		fmt.Fprintf(&b, "%s: %s", e.Kind, e.Tool)
	case ProcessFailed:
		fmt.Fprintf(&b, "%s stage failed", e.Stage)
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if d := strings.TrimSpace(e.Diagnostics); d != "" {
		b.WriteString("\n")
		b.WriteString(d)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so sentinel-style comparisons
// like errors.Is(err, &Error{Kind: ToolMissing}) work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Tool == "" && t.Stage == ""
}

// NewToolMissing reports an executable or backend that is not available.
func NewToolMissing(tool string, err error) *Error {
	return &Error{Kind: ToolMissing, Tool: tool, Err: err}
}

// NewProcessFailed reports a stage that exited unsuccessfully.
func NewProcessFailed(stage string, diagnostics []byte, err error) *Error {
	return &Error{Kind: ProcessFailed, Stage: stage, Diagnostics: Lossy(diagnostics), Err: err}
}

// NewIoFailure reports a filesystem or process plumbing problem.
func NewIoFailure(detail string, err error) *Error {
	return &Error{Kind: IoFailure, Detail: detail, Err: err}
}

// NewEncodingFailure reports output that is not valid UTF-8.
func NewEncodingFailure(detail string) *Error {
	return &Error{Kind: EncodingFailure, Detail: detail}
}

// NewRendererFailure reports an in-process renderer failure.
func NewRendererFailure(detail string, diagnostics []byte, err error) *Error {
	return &Error{Kind: RendererFailure, Detail: detail, Diagnostics: Lossy(diagnostics), Err: err}
}

// AsError converts any error into an *Error. Foreign errors become
// RendererFailure.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return &Error{Kind: RendererFailure, Err: err}
}

// KindOf returns the Kind of err, or zero when err is not a backend error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

// Lossy decodes b as UTF-8, replacing invalid sequences.
func Lossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
