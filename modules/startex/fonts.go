package startex

import (
	"bytes"
	"fmt"

	"github.com/go-fonts/latin-modern/lmmath"
	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-text/typesetting/font"
)

// fontSet maps TeX's Computer Modern font names onto Latin Modern faces.
type fontSet struct {
	roman, italic, bold, mono, math *font.Face
}

func loadFonts() (*fontSet, error) {
	var fs fontSet
	for _, f := range []struct {
		dst  **font.Face
		name string
		ttf  []byte
	}{
		{&fs.roman, "lmroman10-regular", lmroman10regular.TTF},
		{&fs.italic, "lmroman10-italic", lmroman10italic.TTF},
		{&fs.bold, "lmroman10-bold", lmroman10bold.TTF},
		{&fs.mono, "lmmono10-regular", lmmono10regular.TTF},
		{&fs.math, "latinmodern-math", lmmath.TTF},
	} {
		faces, err := font.ParseTTC(bytes.NewReader(f.ttf))
		if err != nil {
			return nil, fmt.Errorf("parsing font %s: %w", f.name, err)
		}
		if len(faces) == 0 {
			return nil, fmt.Errorf("parsing font %s: no faces", f.name)
		}
		*f.dst = faces[0]
	}
	return &fs, nil
}

// texFont is a DVI font resolved to a face and an encoding.
type texFont struct {
	face *font.Face
	// fallback is consulted for characters missing from face.
	fallback *font.Face
	cmap     func(code uint32) rune
}

// resolve picks the face and encoding for a DVI font name such as "cmmi10".
func (fs *fontSet) resolve(name string) texFont {
	i := 0
	for i < len(name) && 'a' <= name[i] && name[i] <= 'z' {
		i++
	}
	switch family := name[:i]; family {
	case "cmmi", "cmmib":
		return texFont{face: fs.italic, fallback: fs.math, cmap: cmmi}
	case "cmsy", "cmbsy":
		return texFont{face: fs.math, fallback: fs.roman, cmap: cmsy}
	case "cmex":
		return texFont{face: fs.math, fallback: fs.roman, cmap: cmex}
	case "cmti", "cmsl", "cmu":
		return texFont{face: fs.italic, fallback: fs.math, cmap: cmr}
	case "cmbx", "cmb", "cmbxsl", "cmbxti":
		return texFont{face: fs.bold, fallback: fs.math, cmap: cmr}
	case "cmtt", "cmsltt", "cmitt", "cmtcsc":
		return texFont{face: fs.mono, fallback: fs.math, cmap: cmtt}
	default:
		return texFont{face: fs.roman, fallback: fs.math, cmap: cmr}
	}
}

// glyph returns the outline of r, its advance and the units-per-em of the
// face it was found in. ok is false when no face maps r.
func (f texFont) glyph(r rune) (outline font.GlyphOutline, advance, upem float32, ok bool) {
	for _, face := range []*font.Face{f.face, f.fallback} {
		if face == nil {
			continue
		}
		gid, found := face.Cmap.Lookup(r)
		if !found {
			continue
		}
		outline, _ = face.GlyphData(gid).(font.GlyphOutline)
		return outline, face.HorizontalAdvance(gid), float32(face.Upem()), true
	}
	return font.GlyphOutline{}, 0, 0, false
}
