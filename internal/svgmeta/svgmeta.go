// Package svgmeta extracts the intrinsic size of an SVG document and checks
// that its element structure is balanced.
package svgmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/specialistvlad/texpen/internal/units"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/xml"
)

// ErrNotSVG is returned when the root element is not <svg>.
var ErrNotSVG = errors.New("svgmeta: root element is not svg")

// Info is the size information of an SVG document, in CSS pixels.
type Info struct {
	Width, Height float64
	ViewBox       [4]float64
	HasViewBox    bool
}

// Parse scans markup and returns its intrinsic size. The size comes from the
// width and height attributes of the root element and falls back to the
// viewBox dimensions when those are missing or relative.
func Parse(markup string) (Info, error) {
	l := xml.NewLexer(parse.NewInput(strings.NewReader(markup)))

	var (
		info       Info
		rootSeen   bool
		inRoot     bool
		stack      []string
		rawW, rawH string
	)
	for {
		tt, data := l.Next()
		switch tt {
		case xml.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return Info{}, fmt.Errorf("svgmeta: %w", err)
			}
			if !rootSeen {
				return Info{}, ErrNotSVG
			}
			if len(stack) > 0 {
				return Info{}, fmt.Errorf("svgmeta: unclosed element <%s>", stack[len(stack)-1])
			}
			return finish(info, rawW, rawH)
		case xml.StartTagToken:
			name := tagName(data[1:])
			if !rootSeen {
				if localName(name) != "svg" {
					return Info{}, ErrNotSVG
				}
				rootSeen, inRoot = true, true
			} else if len(stack) == 0 {
				return Info{}, fmt.Errorf("svgmeta: content after root element <%s>", name)
			}
			stack = append(stack, name)
		case xml.AttributeToken:
			if !inRoot {
				continue
			}
			val := unquote(l.AttrVal())
			switch string(l.Text()) {
			case "width":
				rawW = val
			case "height":
				rawH = val
			case "viewBox":
				vb, err := parseViewBox(val)
				if err != nil {
					return Info{}, err
				}
				info.ViewBox, info.HasViewBox = vb, true
			}
		case xml.StartTagCloseToken:
			inRoot = false
		case xml.StartTagCloseVoidToken:
			inRoot = false
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.EndTagToken:
			name := tagName(bytes.TrimPrefix(data, []byte("</")))
			if len(stack) == 0 || stack[len(stack)-1] != name {
				return Info{}, fmt.Errorf("svgmeta: unexpected closing tag </%s>", name)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func finish(info Info, rawW, rawH string) (Info, error) {
	w, wok := parseLength(rawW)
	h, hok := parseLength(rawH)
	if !wok && info.HasViewBox {
		w, wok = info.ViewBox[2], true
	}
	if !hok && info.HasViewBox {
		h, hok = info.ViewBox[3], true
	}
	if !wok || !hok {
		return Info{}, errors.New("svgmeta: document has no usable size")
	}
	info.Width, info.Height = w, h
	return info, nil
}

func tagName(b []byte) string {
	end := bytes.IndexAny(b, " \t\r\n/>")
	if end >= 0 {
		b = b[:end]
	}
	return string(b)
}

func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func unquote(b []byte) string {
	s := string(b)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// parseLength converts an SVG length to pixels. Relative lengths are
// rejected.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] == '%') {
		i--
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || v < 0 {
		return 0, false
	}
	u, ok := units.Parse(s[i:])
	if !ok {
		return 0, false
	}
	return units.Convert(v, u, units.DefaultDPI, units.Px, units.DefaultDPI), true
}

func parseViewBox(s string) ([4]float64, error) {
	var vb [4]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return vb, fmt.Errorf("svgmeta: malformed viewBox %q", s)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return vb, fmt.Errorf("svgmeta: malformed viewBox %q: %w", s, err)
		}
		vb[i] = v
	}
	return vb, nil
}
