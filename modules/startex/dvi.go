package startex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/units"
)

// DVI opcodes, see "The DVI file format" in TeX: The Program §583.
const (
	opSet1     = 128
	opSetRule  = 132
	opPut1     = 133
	opPutRule  = 137
	opNop      = 138
	opBOP      = 139
	opEOP      = 140
	opPush     = 141
	opPop      = 142
	opRight1   = 143
	opW0       = 147
	opW1       = 148
	opX0       = 152
	opX1       = 153
	opDown1    = 157
	opY0       = 161
	opY1       = 162
	opZ0       = 166
	opZ1       = 167
	opFntNum0  = 171
	opFnt1     = 235
	opXXX1     = 239
	opFntDef1  = 243
	opPre      = 247
	opPost     = 248
	opPostPost = 249
)

// svgPadding surrounds the drawn content, in pixels.
const svgPadding = 2.0

var errTruncated = errors.New("dvi: truncated input")

type dviReader struct {
	b   []byte
	pos int
	err error
}

func (r *dviReader) u(n int) uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+n > len(r.b) {
		r.err = errTruncated
		r.pos = len(r.b)
		return 0
	}
	var v uint32
	for _, c := range r.b[r.pos : r.pos+n] {
		v = v<<8 | uint32(c)
	}
	r.pos += n
	return v
}

func (r *dviReader) s(n int) int32 {
	shift := 32 - 8*n
	return int32(r.u(n)<<shift) >> shift
}

func (r *dviReader) skip(n int) {
	if r.err == nil && r.pos+n > len(r.b) {
		r.err = errTruncated
	}
	r.pos = min(r.pos+n, len(r.b))
}

type dviFont struct {
	name   string
	sizePx float64
	tex    texFont
}

type registers struct {
	h, v, w, x, y, z float64
}

type dviMachine struct {
	r      dviReader
	fonts  *fontSet
	mag    float64
	conv   float64
	defs   map[uint32]*dviFont
	cur    *dviFont
	regs   registers
	stack  []registers
	canvas canvas
}

// drawDVI interprets the first page of a DVI program and returns it as SVG.
// mag scales the whole drawing.
func drawDVI(b []byte, fonts *fontSet, mag float64) (string, error) {
	m := &dviMachine{
		r:     dviReader{b: b},
		fonts: fonts,
		mag:   mag,
		defs:  make(map[uint32]*dviFont),
	}
	if err := m.run(); err != nil {
		return "", err
	}
	return m.canvas.svg(), nil
}

func (m *dviMachine) run() error {
	r := &m.r
	inPage := false
	for {
		if r.err != nil {
			return r.err
		}
		if r.pos >= len(r.b) {
			return errTruncated
		}
		op := r.u(1)
		switch {
		case op < opSet1:
			m.char(op, true)
		case op < opSetRule:
			m.char(r.u(int(op-opSet1+1)), true)
		case op == opSetRule:
			m.rule(true)
		case op < opPutRule:
			m.char(r.u(int(op-opPut1+1)), false)
		case op == opPutRule:
			m.rule(false)
		case op == opNop:
		case op == opBOP:
			if m.conv == 0 {
				return errors.New("dvi: page before preamble")
			}
			r.skip(44)
			m.regs = registers{}
			m.stack = m.stack[:0]
			inPage = true
		case op == opEOP:
			if !inPage {
				return errors.New("dvi: eop outside of a page")
			}
			return nil
		case op == opPush:
			m.stack = append(m.stack, m.regs)
		case op == opPop:
			if len(m.stack) == 0 {
				return errors.New("dvi: pop on empty stack")
			}
			m.regs = m.stack[len(m.stack)-1]
			m.stack = m.stack[:len(m.stack)-1]
		case op < opW0:
			m.regs.h += m.px(r.s(int(op - opRight1 + 1)))
		case op == opW0:
			m.regs.h += m.regs.w
		case op < opX0:
			m.regs.w = m.px(r.s(int(op - opW1 + 1)))
			m.regs.h += m.regs.w
		case op == opX0:
			m.regs.h += m.regs.x
		case op < opDown1:
			m.regs.x = m.px(r.s(int(op - opX1 + 1)))
			m.regs.h += m.regs.x
		case op < opY0:
			m.regs.v += m.px(r.s(int(op - opDown1 + 1)))
		case op == opY0:
			m.regs.v += m.regs.y
		case op < opZ0:
			m.regs.y = m.px(r.s(int(op - opY1 + 1)))
			m.regs.v += m.regs.y
		case op == opZ0:
			m.regs.v += m.regs.z
		case op < opFntNum0:
			m.regs.z = m.px(r.s(int(op - opZ1 + 1)))
			m.regs.v += m.regs.z
		case op < opFnt1:
			m.selectFont(op - opFntNum0)
		case op < opXXX1:
			m.selectFont(r.u(int(op - opFnt1 + 1)))
		case op < opFntDef1:
			r.skip(int(r.u(int(op - opXXX1 + 1))))
		case op < opPre:
			m.defineFont(r.u(int(op - opFntDef1 + 1)))
		case op == opPre:
			m.preamble()
		case op == opPost, op == opPostPost:
			return errors.New("dvi: no pages")
		default:
			return fmt.Errorf("dvi: undefined opcode %d", op)
		}
	}
}

func (m *dviMachine) px(du int32) float64 {
	return float64(du) * m.conv
}

func (m *dviMachine) preamble() {
	r := &m.r
	r.skip(1) // format id
	num, den, mag := r.u(4), r.u(4), r.u(4)
	r.skip(int(r.u(1)))
	if den == 0 || r.err != nil {
		if r.err == nil {
			r.err = errors.New("dvi: zero denominator")
		}
		return
	}
	// num/den gives units of 1e-7 m per DVI unit.
	mm := float64(num) / float64(den) * float64(mag) / 1000 * 1e-4
	m.conv = units.Convert(mm, units.Mm, units.DefaultDPI, units.Px, units.DefaultDPI) * m.mag
}

func (m *dviMachine) defineFont(k uint32) {
	r := &m.r
	r.skip(4) // checksum
	s := r.s(4)
	r.skip(4) // design size
	a, l := int(r.u(1)), int(r.u(1))
	if r.err != nil || r.pos+a+l > len(r.b) {
		r.err = errTruncated
		return
	}
	name := string(r.b[r.pos+a : r.pos+a+l])
	r.pos += a + l
	if _, ok := m.defs[k]; ok {
		return
	}
	m.defs[k] = &dviFont{name: name, sizePx: m.px(s), tex: m.fonts.resolve(name)}
}

func (m *dviMachine) selectFont(k uint32) {
	f, ok := m.defs[k]
	if !ok {
		m.r.err = fmt.Errorf("dvi: font %d used before definition", k)
		return
	}
	m.cur = f
}

func (m *dviMachine) char(code uint32, advance bool) {
	if m.cur == nil {
		m.r.err = errors.New("dvi: character outside of a font")
		return
	}
	width := m.cur.sizePx / 2
	if outline, adv, upem, ok := m.cur.tex.glyph(m.cur.tex.cmap(code)); ok && upem > 0 {
		sc := m.cur.sizePx / float64(upem)
		m.canvas.glyph(outline, m.regs.h, m.regs.v, sc)
		width = float64(adv) * sc
	}
	if advance {
		m.regs.h += width
	}
}

func (m *dviMachine) rule(advance bool) {
	height, width := m.px(m.r.s(4)), m.px(m.r.s(4))
	if height > 0 && width > 0 {
		m.canvas.rect(m.regs.h, m.regs.v-height, width, height)
	}
	if advance {
		m.regs.h += width
	}
}

// canvas accumulates drawn outlines and rules.
type canvas struct {
	path  strings.Builder
	rects strings.Builder
	box   geom.AABB
	drawn bool
}

func (c *canvas) extend(p geom.Vec2) {
	if !c.drawn {
		c.box, c.drawn = geom.AABB{Min: p, Max: p}, true
		return
	}
	c.box = c.box.Union(geom.AABB{Min: p, Max: p})
}

func (c *canvas) point(cmd byte, pts ...geom.Vec2) {
	c.path.WriteByte(cmd)
	for i, p := range pts {
		if i > 0 {
			c.path.WriteByte(' ')
		}
		c.path.WriteString(num(p.X))
		c.path.WriteByte(' ')
		c.path.WriteString(num(p.Y))
		c.extend(p)
	}
}

func (c *canvas) glyph(outline font.GlyphOutline, x, y, sc float64) {
	at := func(sp opentype.SegmentPoint) geom.Vec2 {
		return geom.V(float64(sp.X)*sc+x, -float64(sp.Y)*sc+y)
	}
	for _, s := range outline.Segments {
		switch s.Op {
		case opentype.SegmentOpMoveTo:
			c.point('M', at(s.Args[0]))
		case opentype.SegmentOpLineTo:
			c.point('L', at(s.Args[0]))
		case opentype.SegmentOpQuadTo:
			c.point('Q', at(s.Args[0]), at(s.Args[1]))
		case opentype.SegmentOpCubeTo:
			c.point('C', at(s.Args[0]), at(s.Args[1]), at(s.Args[2]))
		}
	}
	if len(outline.Segments) > 0 {
		c.path.WriteByte('Z')
	}
}

func (c *canvas) rect(x, y, w, h float64) {
	c.rects.WriteString(`<rect x="` + num(x) + `" y="` + num(y) + `" width="` + num(w) + `" height="` + num(h) + `"/>`)
	c.extend(geom.V(x, y))
	c.extend(geom.V(x+w, y+h))
}

func (c *canvas) svg() string {
	box := geom.AABB{Max: geom.V(1, 1)}
	if c.drawn {
		box = c.box
	}
	box = box.Loosened(svgPadding)
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + num(box.Width()) + `" height="` + num(box.Height()) + `"`)
	b.WriteString(` viewBox="` + num(box.Min.X) + ` ` + num(box.Min.Y) + ` ` + num(box.Width()) + ` ` + num(box.Height()) + `">`)
	b.WriteString(`<g fill="black">`)
	if c.path.Len() > 0 {
		b.WriteString(`<path d="` + c.path.String() + `"/>`)
	}
	b.WriteString(c.rects.String())
	b.WriteString(`</g></svg>`)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
