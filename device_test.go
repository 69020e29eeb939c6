// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF lays out the given object bodies as objects 1..n followed
// by a classic xref table and trailer with /Root 1 0 R. A body
// containing "@STREAM@" is split there: the part before becomes the
// stream dictionary (without /Length, which is filled in), the part
// after the stream data.
func buildPDF(t *testing.T, bodies ...string) []byte {
	t.Helper()
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(bodies)+1)
	for i, body := range bodies {
		offsets[i+1] = b.Len()
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(" 0 obj\n")
		if dictPart, data, ok := strings.Cut(body, "@STREAM@"); ok {
			b.WriteString(strings.TrimSuffix(dictPart, ">>"))
			b.WriteString(" /Length ")
			b.WriteString(strconv.Itoa(len(data)))
			b.WriteString(" >>\nstream\n")
			b.WriteString(data)
			b.WriteString("\nendstream\n")
		} else {
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("endobj\n")
	}
	xrefStart := b.Len()
	b.WriteString("xref\n0 ")
	b.WriteString(strconv.Itoa(len(bodies) + 1))
	b.WriteString("\n")
	b.WriteString(pad10(0) + " 65535 f \n")
	for i := 1; i <= len(bodies); i++ {
		b.WriteString(pad10(offsets[i]) + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Root 1 0 R /Size ")
	b.WriteString(strconv.Itoa(len(bodies) + 1))
	b.WriteString(" >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefStart))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func onePageDoc(t *testing.T, pageExtra, content string, extra ...string) *Reader {
	t.Helper()
	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 400] /Contents 4 0 R " + pageExtra + " >>",
		"<< >>@STREAM@" + content,
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	bodies = append(bodies, extra...)
	return newTestReader(t, buildPDF(t, bodies...))
}

const helvResource = "/Resources << /Font << /F1 5 0 R >> >>"

func TestPageAttributeAccessors(t *testing.T) {
	r := newTestReader(t, buildPDF(t,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 300 400] /CropBox [10 10 290 390] /Rotate 450 >>",
		"<< /Type /Page /Parent 2 0 R /Annots [4 0 R] /B [] >>",
		"<< /Type /Annot /Subtype /Link >>",
	))
	p := r.Page(1)
	require.False(t, p.V.IsNull())

	// MediaBox, CropBox, and Rotate are all inherited from the Pages node.
	mb := p.MediaBox()
	require.Equal(t, 4, mb.Len())
	assert.Equal(t, float64(300), mb.Index(2).Float64())
	cb := p.CropBox()
	require.Equal(t, 4, cb.Len())
	assert.Equal(t, float64(10), cb.Index(0).Float64())
	// 450 normalizes to 90.
	assert.Equal(t, 90, p.Rotate())

	require.Equal(t, 1, p.Annots().Len())
	assert.Equal(t, "Link", p.Annots().Index(0).Key("Subtype").Name())
	assert.Equal(t, Array, p.Beads().Kind())
}

func TestRotateNormalization(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want int
	}{
		{"0", 0}, {"90", 90}, {"180", 180}, {"270", 270},
		{"360", 0}, {"-90", 270}, {"45", 0},
	} {
		p := Page{Value{data: dict{name("Type"): name("Page"), name("Rotate"): mustAtoi(tc.raw)}}}
		assert.Equal(t, tc.want, p.Rotate(), "Rotate %s", tc.raw)
	}
}

func mustAtoi(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return n
}

func TestRotationCTM(t *testing.T) {
	// MediaBox [0 0 300 400]; a glyph positioned at (100, 50).
	content := "BT /F1 12 Tf 1 0 0 1 100 50 Tm (A) Tj ET"

	// Unrotated: identity, coordinates pass through.
	r := onePageDoc(t, helvResource, content)
	c := r.Page(1).Content()
	require.NotEmpty(t, c.Text)
	assert.InDelta(t, 100.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 50.0, c.Text[0].Y, 1e-9)

	// Rotated 90: (x, y) maps to (y - y0, x1 - x).
	r = onePageDoc(t, helvResource+" /Rotate 90", content)
	c = r.Page(1).Content()
	require.NotEmpty(t, c.Text)
	assert.InDelta(t, 50.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 200.0, c.Text[0].Y, 1e-9)

	// Rotated 180: (x, y) maps to (x1 - x, y1 - y).
	r = onePageDoc(t, helvResource+" /Rotate 180", content)
	c = r.Page(1).Content()
	require.NotEmpty(t, c.Text)
	assert.InDelta(t, 200.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 350.0, c.Text[0].Y, 1e-9)

	// Rotated 270: (x, y) maps to (y1 - y, x - x0).
	r = onePageDoc(t, helvResource+" /Rotate 270", content)
	c = r.Page(1).Content()
	require.NotEmpty(t, c.Text)
	assert.InDelta(t, 350.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 100.0, c.Text[0].Y, 1e-9)
}

func TestContentFormXObject(t *testing.T) {
	// The form's own resources carry the font; its Matrix translates
	// by (10, 20), so text placed at the form's origin lands at (10, 20).
	r := onePageDoc(t,
		"/Resources << /XObject << /Fm1 6 0 R >> >>",
		"q /Fm1 Do Q",
		"<< /Type /XObject /Subtype /Form /BBox [0 0 100 100] /Matrix [1 0 0 1 10 20] "+
			"/Resources << /Font << /F1 5 0 R >> >> >>@STREAM@BT /F1 12 Tf (Hi) Tj ET")
	c := r.Page(1).Content()
	require.Len(t, c.Text, 2)
	assert.Equal(t, "H", c.Text[0].S)
	assert.InDelta(t, 10.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 20.0, c.Text[0].Y, 1e-9)
}

func TestContentFormXObjectInheritsPageResources(t *testing.T) {
	// A form without /Resources sees the invoking page's, so /F1
	// resolves even though the form never declared it.
	r := onePageDoc(t,
		"/Resources << /Font << /F1 5 0 R >> /XObject << /Fm1 6 0 R >> >>",
		"/Fm1 Do",
		"<< /Type /XObject /Subtype /Form /BBox [0 0 100 100] >>@STREAM@BT /F1 12 Tf (Z) Tj ET")
	c := r.Page(1).Content()
	require.Len(t, c.Text, 1)
	assert.Equal(t, "Z", c.Text[0].S)
}

func TestContentImageXObject(t *testing.T) {
	r := onePageDoc(t,
		"/Resources << /XObject << /Im1 6 0 R >> >>",
		"q 150 0 0 100 25 50 cm /Im1 Do Q",
		"<< /Type /XObject /Subtype /Image /Width 4 /Height 2 /BitsPerComponent 8 /ColorSpace /DeviceGray >>@STREAM@\x01\x02\x03\x04\x05\x06\x07\x08")
	c := r.Page(1).Content()
	require.Len(t, c.Image, 1)
	img := c.Image[0]
	assert.Equal(t, "Im1", img.Name)
	assert.Equal(t, int64(4), img.Width)
	assert.Equal(t, int64(2), img.Height)
	assert.Equal(t, int64(8), img.BitsPer)
	assert.Equal(t, "DeviceGray", img.ColorSpace)
	// The image covers the unit square under the CTM in force at Do.
	assert.InDelta(t, 25.0, img.Rect.Min.X, 1e-9)
	assert.InDelta(t, 50.0, img.Rect.Min.Y, 1e-9)
	assert.InDelta(t, 175.0, img.Rect.Max.X, 1e-9)
	assert.InDelta(t, 150.0, img.Rect.Max.Y, 1e-9)
	assert.Equal(t, Stream, img.V.Kind())
}

func TestContentInlineImage(t *testing.T) {
	r := onePageDoc(t, helvResource,
		"BI /W 2 /H 2 /BPC 8 /CS /DeviceGray ID abcd EI BT /F1 12 Tf (x) Tj ET")
	c := r.Page(1).Content()
	require.Len(t, c.Image, 1)
	img := c.Image[0]
	assert.Equal(t, "inline", img.Name)
	assert.Equal(t, int64(2), img.Width)
	assert.Equal(t, int64(2), img.Height)
	assert.Equal(t, int64(8), img.BitsPer)
	assert.Equal(t, "DeviceGray", img.ColorSpace)
	assert.Equal(t, []byte("abcd"), img.Data)
	// Text after EI still parses.
	require.Len(t, c.Text, 1)
	assert.Equal(t, "x", c.Text[0].S)
}

func TestWordSpacingAdvancesSpace(t *testing.T) {
	// Helvetica here carries no /Widths, so every glyph advance is 0
	// and the only movement comes from the word spacing applied to the
	// space character.
	r := onePageDoc(t, helvResource, "BT /F1 10 Tf 5 Tw (a b) Tj ET")
	c := r.Page(1).Content()
	require.Len(t, c.Text, 3)
	assert.InDelta(t, 0.0, c.Text[0].X, 1e-9) // a
	assert.InDelta(t, 0.0, c.Text[1].X, 1e-9) // space
	assert.InDelta(t, 5.0, c.Text[2].X, 1e-9) // b, pushed by Tw
}

func TestWalkMarkedContentTags(t *testing.T) {
	r := onePageDoc(t, helvResource,
		"/P BMC EMC /Span << /Lang (en) >> BDC EMC /Note MP")
	var begins, points []string
	var ends int
	d := &tagDevice{onBegin: func(tag string) { begins = append(begins, tag) },
		onEnd: func() { ends++ },
		onDo:  func(tag string) { points = append(points, tag) }}
	r.Page(1).Walk(d)
	assert.Equal(t, []string{"P", "Span"}, begins)
	assert.Equal(t, 2, ends)
	assert.Equal(t, []string{"Note"}, points)
}

type tagDevice struct {
	BaseDevice
	onBegin func(tag string)
	onEnd   func()
	onDo    func(tag string)
}

func (d *tagDevice) BeginTag(tag string, props Value) { d.onBegin(tag) }
func (d *tagDevice) EndTag()                          { d.onEnd() }
func (d *tagDevice) DoTag(tag string, props Value)    { d.onDo(tag) }

func TestWalkPaintPath(t *testing.T) {
	r := onePageDoc(t, helvResource,
		"10 10 m 20 10 l 20 20 l h S 0 0 30 40 re f* 1 1 m 2 2 l")
	var painted []struct {
		stroke, fill, evenOdd bool
		path                  []PathSeg
	}
	d := &pathDevice{on: func(stroke, fill, evenOdd bool, path []PathSeg) {
		painted = append(painted, struct {
			stroke, fill, evenOdd bool
			path                  []PathSeg
		}{stroke, fill, evenOdd, path})
	}}
	r.Page(1).Walk(d)
	require.Len(t, painted, 3)

	// m/l/l/h stroked.
	assert.True(t, painted[0].stroke)
	assert.False(t, painted[0].fill)
	require.Len(t, painted[0].path, 4)
	assert.Equal(t, "m", painted[0].path[0].Op)
	assert.Equal(t, "h", painted[0].path[3].Op)

	// re filled even-odd.
	assert.False(t, painted[1].stroke)
	assert.True(t, painted[1].fill)
	assert.True(t, painted[1].evenOdd)
	require.Len(t, painted[1].path, 1)
	assert.Equal(t, "re", painted[1].path[0].Op)
	assert.Equal(t, Point{30, 40}, painted[1].path[0].Pts[1])

	// Trailing unpainted segments flush with every flag off.
	assert.False(t, painted[2].stroke)
	assert.False(t, painted[2].fill)
	require.Len(t, painted[2].path, 2)
}

type pathDevice struct {
	BaseDevice
	on func(stroke, fill, evenOdd bool, path []PathSeg)
}

func (d *pathDevice) PaintPath(stroke, fill, evenOdd bool, path []PathSeg) {
	d.on(stroke, fill, evenOdd, path)
}

func TestWalkBeginEndPageAndFigure(t *testing.T) {
	r := onePageDoc(t,
		"/Resources << /XObject << /Fm1 6 0 R >> >> /Rotate 90",
		"/Fm1 Do",
		"<< /Type /XObject /Subtype /Form /BBox [0 0 50 60] >>@STREAM@")
	var events []string
	var pageCTM Matrix
	var figBox Rect
	d := &eventDevice{
		onBeginPage: func(ctm Matrix) { events = append(events, "page"); pageCTM = ctm },
		onEndPage:   func() { events = append(events, "/page") },
		onBeginFig:  func(name string, box Rect) { events = append(events, "fig:"+name); figBox = box },
		onEndFig:    func(name string) { events = append(events, "/fig:"+name) },
	}
	r.Page(1).Walk(d)
	assert.Equal(t, []string{"page", "fig:Fm1", "/fig:Fm1", "/page"}, events)
	// BeginPage carries the rotation CTM, not the identity.
	assert.NotEqual(t, ident, pageCTM)
	assert.Equal(t, Rect{Point{0, 0}, Point{50, 60}}, figBox)
}

type eventDevice struct {
	BaseDevice
	onBeginPage func(ctm Matrix)
	onEndPage   func()
	onBeginFig  func(name string, box Rect)
	onEndFig    func(name string)
}

func (d *eventDevice) BeginPage(p Page, ctm Matrix)                { d.onBeginPage(ctm) }
func (d *eventDevice) EndPage(p Page)                              { d.onEndPage() }
func (d *eventDevice) BeginFigure(name string, box Rect, m Matrix) { d.onBeginFig(name, box) }
func (d *eventDevice) EndFigure(name string)                       { d.onEndFig(name) }

func TestContentsArrayShareState(t *testing.T) {
	// Two content streams; the second shows text with the font set by
	// the first, so graphics state must carry across array elements.
	r := newTestReader(t, buildPDF(t,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 400] /Contents [4 0 R 6 0 R] "+helvResource+" >>",
		"<< >>@STREAM@BT /F1 12 Tf 1 0 0 1 30 40 Tm",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< >>@STREAM@(Q) Tj ET",
	))
	c := r.Page(1).Content()
	require.Len(t, c.Text, 1)
	assert.Equal(t, "Q", c.Text[0].S)
	assert.InDelta(t, 30.0, c.Text[0].X, 1e-9)
	assert.InDelta(t, 12.0, c.Text[0].FontSize, 1e-9)
}

func TestReadInlineImageHeaderAndData(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("/W 1 /H 1 /BPC 8 ID \x00\x01\x02 EI rest")), 0)
	b.allowEOF = true
	hdr, data := readInlineImage(b)
	assert.Equal(t, int64(1), Value{data: hdr[name("W")]}.Int64())
	assert.Equal(t, int64(8), Value{data: hdr[name("BPC")]}.Int64())
	assert.Equal(t, []byte("\x00\x01\x02"), data)
	// The buffer resumes after EI.
	assert.Equal(t, keyword("rest"), b.readToken())
}

func TestUnitRect(t *testing.T) {
	// Scale by (2, 3), translate by (10, 20), with a flip on Y.
	m := Matrix{{2, 0, 0}, {0, -3, 0}, {10, 20, 1}}
	r := unitRect(m)
	assert.Equal(t, Rect{Point{10, 17}, Point{12, 20}}, r)
}

func TestToMatrix(t *testing.T) {
	v := Value{data: array{float64(1), float64(0), float64(0), float64(1), int64(7), int64(9)}}
	m := toMatrix(v)
	assert.Equal(t, Matrix{{1, 0, 0}, {0, 1, 0}, {7, 9, 1}}, m)
}

func TestWalkSkipsMalformedOperators(t *testing.T) {
	// A Q with nothing saved, a cm with two operands, and a bare Tj
	// are each logged and skipped; the well-formed text that follows
	// still renders.
	r := onePageDoc(t, helvResource, "Q 1 0 cm Tj BT /F1 12 Tf (ok) Tj ET")
	c := r.Page(1).Content()
	require.Len(t, c.Text, 2)
	assert.Equal(t, "o", c.Text[0].S)
	assert.Equal(t, "k", c.Text[1].S)
}
