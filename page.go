// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coredoc/pdfxtract/logger"
)

// A Page represent a single page in a PDF file.
// The methods interpret a Page dictionary stored in V.
type Page struct {
	V Value
}

// Page returns the page for the given page number.
// Page numbers are indexed starting at 1, not 0.
// If the page is not found, Page returns a Page with p.V.IsNull().
func (r *Reader) Page(num int) Page {
	logger.Debug(fmt.Sprintf("Reading Page %d", num), true)
	num-- // now 0-indexed
	page := r.Trailer().Key("Root").Key("Pages")
Search:
	for page.Key("Type").Name() == "Pages" {
		count := int(page.Key("Count").Int64())
		if count < num {
			return Page{}
		}
		kids := page.Key("Kids")
		logger.Debug(fmt.Sprintf("count of pages: %d, kids: %d", count, kids.Int64()))
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if kid.Key("Type").Name() == "Pages" {
				c := int(kid.Key("Count").Int64())
				if num < c {
					page = kid
					continue Search
				}
				num -= c
				continue
			}
			if kid.Key("Type").Name() == "Page" {
				if num == 0 {
					return Page{kid}
				}
				num--
			}
		}
		break
	}
	return Page{}
}

// NumPage returns the number of pages in the PDF file.
func (r *Reader) NumPage() int {
	return int(r.Trailer().Key("Root").Key("Pages").Key("Count").Int64())
}

// GetPlainText returns all the text in the PDF file
func (r *Reader) GetPlainText() (reader io.Reader, err error) {
	pages := r.NumPage()
	logger.Debug(fmt.Sprintf("total pages = %d", pages), true)
	var buf bytes.Buffer
	fonts := make(map[string]*Font)
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		logger.Debug(fmt.Sprintf("/Page %d %d R", p.V.ptr.id, p.V.ptr.gen), true)
		for _, name := range p.Fonts() { // cache fonts so we don't continually parse charmap
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				logger.Debug(fmt.Sprintf("/Font %d %d R", f.V.ptr.id, f.V.ptr.gen), true)

				fonts[name] = &f
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			return &bytes.Buffer{}, err
		}
		buf.WriteString(text)
	}
	logger.Debug("Successfully completed parsing", true)

	return &buf, nil
}

// GetStyledTexts returns list all sentences in an array, that are included styles
func (r *Reader) GetStyledTexts() (sentences []Text, err error) {
	totalPage := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)

		if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
			continue
		}
		var lastTextStyle Text
		texts := p.Content().Text
		for _, text := range texts {
			if lastTextStyle == (Text{}) {
				lastTextStyle = text
				continue
			}

			if IsSameSentence(lastTextStyle, text) {
				lastTextStyle.S = lastTextStyle.S + text.S
			} else {
				sentences = append(sentences, lastTextStyle)
				lastTextStyle = text
			}
		}
		if len(lastTextStyle.S) > 0 {
			sentences = append(sentences, lastTextStyle)
		}
	}

	return sentences, err
}

func (p Page) findInherited(key string) Value {
	logger.Debug("inside findInherited")
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			logger.Debug(fmt.Sprintf("findInherited: found key %q in object %d %d R", key, v.ptr.id, v.ptr.gen))
			return r
		}
	}
	return Value{}
}

// MediaBox returns the page's media box, inherited from the nearest
// ancestor in the page tree when the page itself has none.
func (p Page) MediaBox() Value {
	return p.findInherited("MediaBox")
}

// CropBox returns the page's crop box, inherited like MediaBox.
func (p Page) CropBox() Value {
	return p.findInherited("CropBox")
}

// Rotate returns the page's display rotation, inherited like MediaBox
// and normalized to one of 0, 90, 180, 270.
func (p Page) Rotate() int {
	r := int(p.findInherited("Rotate").Int64())
	r %= 360
	if r < 0 {
		r += 360
	}
	if r%90 != 0 {
		return 0
	}
	return r
}

// Annots returns the page's annotation array, if any.
func (p Page) Annots() Value {
	return p.V.Key("Annots")
}

// Beads returns the page's article bead array (/B), if any.
func (p Page) Beads() Value {
	return p.V.Key("B")
}

// rotationCTM derives the page-level CTM from Rotate and MediaBox: an
// unrotated page renders through the identity, the three rotations
// map the media box back onto an origin-anchored upright rectangle.
func (p Page) rotationCTM() Matrix {
	mb := p.MediaBox()
	if mb.Len() != 4 {
		return ident
	}
	x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
	x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
	switch p.Rotate() {
	case 90:
		return Matrix{{0, -1, 0}, {1, 0, 0}, {-y0, x1, 1}}
	case 180:
		return Matrix{{-1, 0, 0}, {0, -1, 0}, {x1, y1, 1}}
	case 270:
		return Matrix{{0, 1, 0}, {-1, 0, 0}, {y1, -x0, 1}}
	}
	return ident
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	logger.Debug(fmt.Sprintf("Resources: fetching /Resources for Page %d %d R", p.V.ptr.id, p.V.ptr.gen))
	return p.findInherited("Resources")
}

// Fonts returns a list of the fonts associated with the page.
func (p Page) Fonts() []string {
	logger.Debug(fmt.Sprintf("Fonts: retrieving /Font list for Page %d %d R", p.V.ptr.id, p.V.ptr.gen))
	return p.Resources().Key("Font").Keys()
}

// Font returns the font with the given name associated with the page.
func (p Page) Font(name string) Font {
	return Font{p.Resources().Key("Font").Key(name), nil}
}

// A Font represent a font in a PDF file.
// The methods interpret a Font dictionary stored in V.
type Font struct {
	V   Value
	enc TextEncoding
}

// BaseFont returns the font's name (BaseFont property).
func (f Font) BaseFont() string {
	return f.V.Key("BaseFont").Name()
}

// FirstChar returns the code point of the first character in the font.
func (f Font) FirstChar() int {
	return int(f.V.Key("FirstChar").Int64())
}

// LastChar returns the code point of the last character in the font.
func (f Font) LastChar() int {
	return int(f.V.Key("LastChar").Int64())
}

// Widths returns the widths of the glyphs in the font.
// In a well-formed PDF, len(f.Widths()) == f.LastChar()+1 - f.FirstChar().
func (f Font) Widths() []float64 {
	x := f.V.Key("Widths")
	var out []float64
	for i := 0; i < x.Len(); i++ {
		out = append(out, x.Index(i).Float64())
	}
	logger.Debug(fmt.Sprintf("Widths: extracted %d glyph widths for Font %d %d R", len(out), f.V.ptr.id, f.V.ptr.gen), true)
	return out
}

// Width returns the glyph width (in 1000ths of text space units) for
// the given character code. Simple (Type1/TrueType/Type3) fonts use
// the flat /Widths array; Type0 (CID-keyed) fonts use the descendant
// font's sparse /W array and /DW default width instead, since CID
// codes are sparse and may run well beyond a 256-entry table.
func (f Font) Width(code int) float64 {
	if f.IsCID() {
		return f.cidWidth(code)
	}
	first := f.FirstChar()
	last := f.LastChar()
	if code < first || last < code {
		return 0
	}
	return f.V.Key("Widths").Index(code - first).Float64()
}

// IsCID reports whether the font is a composite (Type0) font backed
// by a CID-keyed descendant font.
func (f Font) IsCID() bool {
	return f.V.Key("Subtype").Name() == "Type0"
}

// descendant returns the font's single CIDFont descendant dictionary.
func (f Font) descendant() Value {
	df := f.V.Key("DescendantFonts")
	if df.Kind() != Array || df.Len() == 0 {
		return Value{}
	}
	return df.Index(0)
}

// cidWidth implements the sparse /W array format of ISO 32000-1
// §9.7.4.3: a run of entries is either "c [w1 w2 ...]" (consecutive
// codes starting at c, one width each) or "cFirst cLast w" (one width
// applied to the whole inclusive range).
func (f Font) cidWidth(code int) float64 {
	d := f.descendant()
	dw := d.Key("DW")
	def := 1000.0
	if dw.Kind() != Null {
		def = dw.Float64()
	}
	w := d.Key("W")
	i := 0
	for i < w.Len() {
		start := int(w.Index(i).Int64())
		i++
		if i >= w.Len() {
			break
		}
		next := w.Index(i)
		if next.Kind() == Array {
			for j := 0; j < next.Len(); j++ {
				if start+j == code {
					return next.Index(j).Float64()
				}
			}
			i++
			continue
		}
		end := int(next.Int64())
		i++
		if i >= w.Len() {
			break
		}
		width := w.Index(i).Float64()
		i++
		if code >= start && code <= end {
			return width
		}
	}
	return def
}

// IsVertical reports whether the font uses vertical writing mode,
// signalled by a predefined *-V CMap name as its encoding.
func (f Font) IsVertical() bool {
	return strings.HasSuffix(f.V.Key("Encoding").Name(), "-V")
}

// charDisp returns the vertical-mode metrics for code from the
// descendant font's /W2 array: the vertical displacement w and the
// position vector (vx, vy). Entries are either "c [w v1x v1y ...]"
// (triples for consecutive codes starting at c) or
// "cFirst cLast w v1x v1y". Codes not covered fall back to /DW2
// (default position-vector y 880, displacement -1000) with the
// position vector centered on the glyph's horizontal width.
func (f Font) charDisp(code int) (w, vx, vy float64) {
	d := f.descendant()
	vyDef, wDef := 880.0, -1000.0
	if dw2 := d.Key("DW2"); dw2.Len() == 2 {
		vyDef = dw2.Index(0).Float64()
		wDef = dw2.Index(1).Float64()
	}
	w2 := d.Key("W2")
	i := 0
	for i < w2.Len() {
		start := int(w2.Index(i).Int64())
		i++
		if i >= w2.Len() {
			break
		}
		next := w2.Index(i)
		if next.Kind() == Array {
			if n := next.Len() / 3; code >= start && code < start+n {
				j := (code - start) * 3
				return next.Index(j).Float64(), next.Index(j + 1).Float64(), next.Index(j + 2).Float64()
			}
			i++
			continue
		}
		end := int(next.Int64())
		i++
		if i+2 >= w2.Len() {
			break
		}
		ww := w2.Index(i).Float64()
		wvx := w2.Index(i + 1).Float64()
		wvy := w2.Index(i + 2).Float64()
		i += 3
		if code >= start && code <= end {
			return ww, wvx, wvy
		}
	}
	return wDef, f.cidWidth(code) / 2, vyDef
}

// Encoder returns the encoding between font code point sequences and UTF-8.
func (f Font) Encoder() TextEncoding {
	logger.Debug("retrieving text encoding")
	if f.enc == nil { // caching the Encoder so we don't have to continually parse charmap
		f.enc = f.getEncoder()
	}
	return f.enc
}

func (f Font) getEncoder() TextEncoding {
	logger.Debug(fmt.Sprintf("getEncoder: determining text encoding for Font %d %d R", f.V.ptr.id, f.V.ptr.gen))
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		logger.Debug(fmt.Sprintf("getEncoder: found named encoding = %q", enc.Name()), true)
		switch enc.Name() {
		case "WinAnsiEncoding":
			return &byteEncoder{&winAnsiEncoding}
		case "MacRomanEncoding":
			return &byteEncoder{&macRomanEncoding}
		default:
			if toUnicode := f.V.Key("ToUnicode"); toUnicode.Kind() == Stream {
				return f.charmapEncoding()
			}
			if enc.Name() == "Identity-H" || enc.Name() == "Identity-V" {
				// No embedded ToUnicode map: fall back the same way a
				// font with no /Encoding does (pdfDocEncoding), rather than
				// assume a 2-byte identity mapping the font's own
				// /Widths or descendant CIDToGIDMap may contradict.
				return f.charmapEncoding()
			}
			if builtin, ok := builtinCMap(enc.Name()); ok {
				return builtin
			}
			logger.Debug("unknown encoding : %d", enc.Name())
			return &nopEncoder{}
		}
	case Dict:
		return &dictEncoder{enc.Key("Differences")}
	case Null:
		return f.charmapEncoding()
	default:
		logger.Debug("unexpected encoding : %d", enc.String())

		return &nopEncoder{}
	}
}

func (f *Font) charmapEncoding() TextEncoding {
	toUnicode := f.V.Key("ToUnicode")
	if toUnicode.Kind() == Stream {
		logger.Debug("charmapEncoding: found ToUnicode stream — attempting to read CMap", true)
		m := readCmap(toUnicode)
		if m == nil {
			return &nopEncoder{}
		}
		return m
	}
	logger.Debug("charmapEncoding: no ToUnicode stream found — using pdfDocEncoding", true)
	return &byteEncoder{&pdfDocEncoding}
}

type dictEncoder struct {
	v Value
}

func (e *dictEncoder) Decode(raw string) (text string) {
	logger.Debug("decoding dictEncoding")
	r := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		ch := rune(raw[i])
		n := -1
		for j := 0; j < e.v.Len(); j++ {
			x := e.v.Index(j)
			if x.Kind() == Integer {
				n = int(x.Int64())
				continue
			}
			if x.Kind() == Name {
				if int(raw[i]) == n {
					r := nameToRune[x.Name()]
					if r != 0 {
						ch = r
						break
					}
				}
				n++
			}
		}
		r = append(r, ch)
	}
	return string(r)
}

// A TextEncoding represents a mapping between
// font code points and UTF-8 text.
type TextEncoding interface {
	// Decode returns the UTF-8 text corresponding to
	// the sequence of code points in raw.
	Decode(raw string) (text string)
}

type nopEncoder struct {
}

func (e *nopEncoder) Decode(raw string) (text string) {
	logger.Debug("decoding nopEncoder")
	return raw
}

type byteEncoder struct {
	table *[256]rune
}

func (e *byteEncoder) Decode(raw string) (text string) {
	logger.Debug("decoding byteEncoder")
	r := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		r = append(r, e.table[raw[i]])
	}
	return string(r)
}

type byteRange struct {
	low  string
	high string
}

type bfchar struct {
	orig string
	repl string
}

type bfrange struct {
	lo  string
	hi  string
	dst Value
}

type cmap struct {
	space   [4][]byteRange // codespace range
	bfrange []bfrange
	bfchar  []bfchar
}

// PDF CMaps define how encoded character codes map to Unicode values.
// There are three main mapping mechanisms:
//   • bfchar   – one-to-one explicit character mappings
//   • bfrange  – range-based mappings, which may map to strings or arrays
//   • fallback – when no mapping is found, the raw bytes may still represent
//                valid characters that should not be dropped
//
// Previous behavior :
//   • When no bfchar or bfrange mapping was found, the code appended a special
//     placeholder rune (noRune). This caused missing or garbled output when
//     encountering unmapped codes, since valid characters were silently replaced.
//
// Current behavior :
// mapped → UTF-16 decode, unmapped → UTF-8 or preserve, ensuring no silent data loss.
//
// Example cases:
//
//   // Explicit bfchar mapping
//   raw = "\x01"    // mapped in bfchar
//   → "A"
//
//   // Range mapping
//   raw = "\x05"    // falls in bfrange [\x05–\x10]
//   → "D"
//
//   // Unmapped but valid byte
//   raw = "\x7E"
//   → "~"   (instead of noRune)
//
//   // Unmapped invalid sequence
//   raw = "\xFF"
//   → decoded as rune 0xFF
//
// Summary of improvements:
// 1) Modularisation of the function
//    - New code factors the logic into small helpers:
//        • findNextCodespace(raw) → (code, width)
//        • resolveCodeMapping(code, width) → ([]rune, ok)
//
// 2) Correct, lossless fallbacks instead of sentinel runes
//    - Old code appended `noRune` whenever a code/range didn’t match or when no
//      codespace was found, effectively losing the original bytes and injecting
//      a placeholder. That corrupts text and makes debugging harder.
//    - New code uses DecodeUTF8OrPreserve(...) to *preserve the raw bytes* as a
//      valid UTF-8 rune when there is no explicit mapping. This keeps output
//      round-trippable and avoids data loss.
//
// 3) Explicit handling of “no codespace” vs “unmapped in codespace”
//    - Old code treated many error paths the same (append `noRune`), so callers
//      could not distinguish “byte not in any codespace” from “valid code but
//      unmapped”. New code:
//        • If no codespace matches: preserve the first byte and continue.
//        • If a codespace matches but no mapping exists: preserve the whole code.
//      This mirrors the PDF spec expectations and simplifies debugging.

// Decode translates raw character codes into Unicode runes using the CMap rules.
func (m *cmap) Decode(raw string) string {
	logger.Debug("decoding cmap")
	var runes []rune

	for len(raw) > 0 {
		//find next valid codespace match
		code, width := m.findNextCodespace(raw)
		if width == 0 {
			// no codespace, preserve first byte and continue
			runes = append(runes, DecodeUTF8OrPreserve(raw[:1])...)
			raw = raw[1:]
			continue
		}

		//Checking to resolve this code into a Unicode rune
		decoded, ok := m.resolveCodeMapping(code, width)
		if ok {
			runes = append(runes, decoded...)
		} else {
			// no explicit mapping then preserve raw bytes safely
			runes = append(runes, DecodeUTF8OrPreserve(code)...)
		}

		raw = raw[width:]
	}

	return string(runes)
}

// findNextCodespace checks raw for a valid codespace sequence of length 1–4.
// Returns the matched bytes and its length, or ("", 0) if no codespace matches.
func (m *cmap) findNextCodespace(raw string) (string, int) {
	for n := 1; n <= 4 && n <= len(raw); n++ {
		for _, space := range m.space[n-1] {
			if space.low <= raw[:n] && raw[:n] <= space.high {
				return raw[:n], n
			}
		}
	}
	return "", 0
}

// resolveCodeMapping tries to map a code using bfchar or bfrange rules.
// Returns decoded runes and true if a mapping was found.
func (m *cmap) resolveCodeMapping(code string, width int) ([]rune, bool) {
	// Exact bfchar match
	for _, bfchar := range m.bfchar {
		if len(bfchar.orig) == width && bfchar.orig == code {
			return []rune(utf16Decode(bfchar.repl)), true
		}
	}
	// bfrange match
	for _, br := range m.bfrange {
		if len(br.lo) == width && br.lo <= code && code <= br.hi {
			switch br.dst.Kind() {
			case String:
				return resolveBfrangeWithString(br, code), true
			case Array:
				return resolveBfrangeWithArray(br, code), true
			}
		}
	}

	return nil, false
}

// resolveBfrangeWithString handles bfrange mappings where dst is a String.
func resolveBfrangeWithString(br bfrange, code string) []rune {
	s := br.dst.RawString()
	if br.lo != code {
		// increment last byte according to offset within range
		b := []byte(s)
		b[len(b)-1] += code[len(code)-1] - br.lo[len(br.lo)-1]
		s = string(b)
	}
	return []rune(utf16Decode(s))
}

// resolveBfrangeWithArray handles bfrange mappings where dst is an Array.
func resolveBfrangeWithArray(br bfrange, code string) []rune {
	idx := code[len(code)-1] - br.lo[len(br.lo)-1]
	v := br.dst.Index(int(idx))
	if v.Kind() == String {
		return []rune(utf16Decode(v.RawString()))
	}
	return nil
}

func readCmap(toUnicode Value) *cmap {
	logger.Debug("reading Cmap")

	n := -1
	var m cmap
	ok := true
	Interpret(toUnicode, func(stk *Stack, op string) {
		if !ok {
			return
		}
		switch op {
		case "findresource":
			stk.Pop() // category
			stk.Pop() // key
			stk.Push(Value{nil, objptr{}, newDict()})
		case "begincmap":
			stk.Push(Value{nil, objptr{}, newDict()})
		case "endcmap":
			stk.Pop()
		case "begincodespacerange":
			n = int(stk.Pop().Int64())
		case "endcodespacerange":
			if n < 0 {
				logger.Debug("missing begincodespacerange")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				hi, lo := stk.Pop().RawString(), stk.Pop().RawString()
				if len(lo) == 0 || len(lo) != len(hi) {
					logger.Debug("bad codespace range")
					ok = false
					return
				}
				m.space[len(lo)-1] = append(m.space[len(lo)-1], byteRange{lo, hi})
			}
			n = -1
		case "beginbfchar":
			n = int(stk.Pop().Int64())
		case "endbfchar":
			if n < 0 {
				logger.Error("missing beginbfchar")
				panic("missing beginbfchar")
			}
			for i := 0; i < n; i++ {
				repl, orig := stk.Pop().RawString(), stk.Pop().RawString()
				m.bfchar = append(m.bfchar, bfchar{orig, repl})
			}
		case "beginbfrange":
			n = int(stk.Pop().Int64())
		case "endbfrange":
			if n < 0 {
				logger.Error("missing beginbfrange")
				panic("missing beginbfrange")
			}
			for i := 0; i < n; i++ {
				dst, srcHi, srcLo := stk.Pop(), stk.Pop().RawString(), stk.Pop().RawString()
				m.bfrange = append(m.bfrange, bfrange{srcLo, srcHi, dst})
			}
		case "defineresource":
			stk.Pop().Name() // category
			value := stk.Pop()
			stk.Pop().Name() // key
			stk.Push(value)
		default:
			if DebugOn {
				println("interp\t", op)
			}
		}
	})
	if !ok {
		return nil
	}
	return &m
}

type Matrix [3][3]float64

var ident = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (x Matrix) mul(y Matrix) Matrix {
	var z Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				z[i][j] += x[i][k] * y[k][j]
			}
		}
	}
	return z
}

// A Text represents a single piece of text drawn on a page.
type Text struct {
	Font     string  // the font used
	FontSize float64 // the font size, in points (1/72 of an inch)
	X        float64 // the X coordinate, in points, increasing left to right
	Y        float64 // the Y coordinate, in points, increasing bottom to top
	W        float64 // the width of the text, in points
	S        string  // the actual UTF-8 text
}

// A Rect represents a rectangle.
type Rect struct {
	Min, Max Point
}

// A Point represents an X, Y pair.
type Point struct {
	X float64
	Y float64
}

// Content describes the basic content on a page: the text, any drawn
// rectangles, and any image placements.
type Content struct {
	Text  []Text
	Rect  []Rect
	Image []Image
}

type gstate struct {
	Tc    float64
	Tw    float64
	Th    float64
	Tl    float64
	Tf    Font
	Tfs   float64
	Tmode int
	Trise float64
	Tm    Matrix
	Tlm   Matrix
	Trm   Matrix
	CTM   Matrix
}

// GetPlainText returns the page's all text, ordered by the layout
// engine's reading order rather than raw content-stream drawing
// order. fonts is accepted for backward compatibility with callers
// that pre-cache font lookups, but Content (which GetPlainText is
// built on) resolves fonts for itself as it walks the content stream.
func (p Page) GetPlainText(fonts map[string]*Font) (result string, err error) {
	return p.GetPlainTextWithLAParams(DefaultLAParams())
}

// GetPlainTextWithLAParams runs the Content() extraction through the
// 4-stage Layout pipeline (line formation, box grouping, paragraph
// splitting, box-to-group clustering) and concatenates the resulting
// TextBoxes, in their final reading order, into one string.
func (p Page) GetPlainTextWithLAParams(params LAParams) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
			logger.Error(fmt.Sprint(r))
			err = errors.New(fmt.Sprint(r))
		}
	}()

	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return "", nil
	}

	logger.Debug(fmt.Sprintf("contents: obj %d %d stream — running layout analysis",
		p.V.Key("Contents").ptr.id, p.V.Key("Contents").ptr.gen), true)

	content := p.Content()
	boxes := Layout(content, params)

	var sb strings.Builder
	for _, tb := range boxes {
		for _, line := range tb.Lines {
			sb.WriteString(line.Text())
		}
	}

	logger.Debug("Completed layout-driven content parsing", true)
	return sb.String(), nil
}

// Column represents the contents of a column
type Column struct {
	Position int64
	Content  TextVertical
}

// Columns is a list of column
type Columns []*Column

// GetTextByColumn returns the page's all text grouped by column
func (p Page) GetTextByColumn() (Columns, error) {
	logger.Debug("retreiving all text grouped by column")

	result := Columns{}
	var err error

	defer func() {
		if r := recover(); r != nil {
			result = Columns{}
			err = errors.New(fmt.Sprint(r))
		}
	}()

	showText := func(enc TextEncoding, currentX, currentY float64, s string) {
		var textBuilder bytes.Buffer

		for _, ch := range enc.Decode(s) {
			_, err := textBuilder.WriteRune(ch)
			if err != nil {
				panic(err)
			}
		}
		text := Text{
			S: textBuilder.String(),
			X: currentX,
			Y: currentY,
		}

		var currentColumn *Column
		columnFound := false
		for _, column := range result {
			if int64(currentX) == column.Position {
				currentColumn = column
				columnFound = true
				break
			}
		}

		if !columnFound {
			currentColumn = &Column{
				Position: int64(currentX),
				Content:  TextVertical{},
			}
			result = append(result, currentColumn)
		}

		currentColumn.Content = append(currentColumn.Content, text)
	}

	p.walkTextBlocks(showText)

	for _, column := range result {
		sort.Sort(column.Content)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, err
}

// Row represents the contents of a row
type Row struct {
	Position int64
	Content  TextHorizontal
}

// Rows is a list of rows
type Rows []*Row

// GetTextByRow returns the page's all text grouped by rows
func (p Page) GetTextByRow() (Rows, error) {
	logger.Debug("retrieving all text grouped by columns")

	result := Rows{}
	var err error

	defer func() {
		if r := recover(); r != nil {
			result = Rows{}
			err = errors.New(fmt.Sprint(r))
		}
	}()

	showText := func(enc TextEncoding, currentX, currentY float64, s string) {
		var textBuilder bytes.Buffer
		for _, ch := range enc.Decode(s) {
			_, err := textBuilder.WriteRune(ch)
			if err != nil {
				panic(err)
			}
		}

		// if DebugOn {
		// 	fmt.Println(textBuilder.String())
		// }

		text := Text{
			S: textBuilder.String(),
			X: currentX,
			Y: currentY,
		}

		var currentRow *Row
		rowFound := false
		for _, row := range result {
			if int64(currentY) == row.Position {
				currentRow = row
				rowFound = true
				break
			}
		}

		if !rowFound {
			currentRow = &Row{
				Position: int64(currentY),
				Content:  TextHorizontal{},
			}
			result = append(result, currentRow)
		}

		currentRow.Content = append(currentRow.Content, text)
	}

	p.walkTextBlocks(showText)

	for _, row := range result {
		sort.Sort(row.Content)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Position > result[j].Position
	})

	return result, err
}

func (p Page) walkTextBlocks(walker func(enc TextEncoding, x, y float64, s string)) {
	logger.Debug(fmt.Sprintf("walkTextBlocks: processing text content for Page %d %d R", p.V.ptr.id, p.V.ptr.gen))

	// Handle in case the content page is empty
	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return
	}

	strm := p.V.Key("Contents")

	fonts := make(map[string]*Font)
	for _, font := range p.Fonts() {
		f := p.Font(font)
		fonts[font] = &f
	}

	var enc TextEncoding = &nopEncoder{}
	var currentX, currentY float64
	Interpret(strm, func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		default:
			return
		case "T*": // move to start of next line
		case "Tf": // set text font and size
			if len(args) != 2 {
				panic("bad TL")
			}

			if font, ok := fonts[args[0].Name()]; ok {
				enc = font.Encoder()
			} else {
				enc = &nopEncoder{}
			}
		case "\"": // set spacing, move to next line, and show text
			if len(args) != 3 {
				panic("bad \" operator")
			}
			fallthrough
		case "'": // move to next line and show text
			if len(args) != 1 {
				panic("bad ' operator")
			}
			fallthrough
		case "Tj": // show text
			if len(args) != 1 {
				panic("bad Tj operator")
			}

			walker(enc, currentX, currentY, args[0].RawString())
		case "TJ": // show text, allowing individual glyph positioning
			v := args[0]
			for i := 0; i < v.Len(); i++ {
				x := v.Index(i)
				if x.Kind() == String {
					walker(enc, currentX, currentY, x.RawString())
				}
			}
		case "Td":
			walker(enc, currentX, currentY, "")
		case "Tm":
			currentX = args[4].Float64()
			currentY = args[5].Float64()
		}
	})
}

// A walker executes content streams against a Device, carrying the
// graphics and text state across q/Q nesting and Form XObject
// recursion.
type walker struct {
	dev    Device
	g      gstate
	gstack []gstate
	enc    TextEncoding
	path   []PathSeg
	depth  int
}

// Form XObjects can invoke each other; a malformed file can make that
// recursion circular, so nesting is cut off rather than followed.
const maxFormDepth = 16

// Walk executes the page's content streams against dev, bracketed by
// BeginPage/EndPage with the rotation-derived CTM. Operators the
// walker does not understand are ignored, and an operator with the
// wrong number of operands is logged and skipped; neither aborts the
// rest of the page.
func (p Page) Walk(dev Device) {
	ctm := p.rotationCTM()
	dev.BeginPage(p, ctm)
	w := &walker{dev: dev, g: gstate{Th: 1, CTM: ctm}, enc: &nopEncoder{}}
	w.run(p.V.Key("Contents"), p.Resources())
	if len(w.path) > 0 {
		// A path constructed but never painted (the file ended, or the
		// author relied on a clip with no paint) still reaches the
		// device, with every paint flag off.
		dev.PaintPath(false, false, false, w.path)
		w.path = nil
	}
	dev.EndPage(p)
}

// run interprets one content stream, or each element of a /Contents
// array in order sharing a single graphics state, against w.dev.
func (w *walker) run(contents Value, res Value) {
	if contents.Kind() == Array {
		for i := 0; i < contents.Len(); i++ {
			w.interpretStream(contents.Index(i), res)
		}
		return
	}
	w.interpretStream(contents, res)
}

func (w *walker) interpretStream(strm Value, res Value) {
	interpret(strm,
		func(stk *Stack, op string) { w.op(stk, op, res) },
		func(hdr dict, data []byte) { w.inlineImage(Value{strm.r, strm.ptr, hdr}, data) })
}

// toMatrix reads a six-element PDF matrix array [a b c d e f].
func toMatrix(v Value) Matrix {
	var m Matrix
	for i := 0; i < 6; i++ {
		m[i/2][i%2] = v.Index(i).Float64()
	}
	m[2][2] = 1
	return m
}

// transformPoint applies m to the user-space point (x, y).
func transformPoint(m Matrix, x, y float64) Point {
	return Point{
		X: m[0][0]*x + m[1][0]*y + m[2][0],
		Y: m[0][1]*x + m[1][1]*y + m[2][1],
	}
}

// unitRect is the device-space bounding box of the unit square under
// m — the placement rectangle of an image, whose sample space is
// always mapped from the unit square by the CTM in force at Do time.
func unitRect(m Matrix) Rect {
	pts := [4]Point{
		transformPoint(m, 0, 0),
		transformPoint(m, 1, 0),
		transformPoint(m, 0, 1),
		transformPoint(m, 1, 1),
	}
	r := Rect{pts[0], pts[0]}
	for _, pt := range pts[1:] {
		if pt.X < r.Min.X {
			r.Min.X = pt.X
		}
		if pt.Y < r.Min.Y {
			r.Min.Y = pt.Y
		}
		if pt.X > r.Max.X {
			r.Max.X = pt.X
		}
		if pt.Y > r.Max.Y {
			r.Max.Y = pt.Y
		}
	}
	return r
}

func (w *walker) showText(s string) {
	g := &w.g
	n := 0
	codeWidth := 1
	if g.Tf.IsCID() {
		codeWidth = 2
	}
	decoded := w.enc.Decode(s)
	for _, ch := range decoded {
		var w0 float64
		code := -1
		if n+codeWidth <= len(s) {
			code = int(s[n])
			if codeWidth == 2 {
				code = code<<8 | int(s[n+1])
			}
			w0 = g.Tf.Width(code)
		}
		n += codeWidth

		f := g.Tf.BaseFont()
		if i := strings.Index(f, "+"); i >= 0 {
			f = f[i+1:]
		}

		Trm := Matrix{{g.Tfs * g.Th, 0, 0}, {0, g.Tfs, 0}, {0, g.Trise, 1}}.mul(g.Tm).mul(g.CTM)
		w.dev.RenderText(Text{f, Trm[0][0], Trm[2][0], Trm[2][1], w0 / 1000 * Trm[0][0], string(ch)})

		if g.Tf.IsVertical() {
			w1, _, _ := g.Tf.charDisp(code)
			ty := w1/1000*g.Tfs + g.Tc
			g.Tm = Matrix{{1, 0, 0}, {0, 1, 0}, {0, ty, 1}}.mul(g.Tm)
			continue
		}
		tx := w0/1000*g.Tfs + g.Tc
		if code == 32 && codeWidth == 1 {
			tx += g.Tw
		}
		tx *= g.Th
		g.Tm = Matrix{{1, 0, 0}, {0, 1, 0}, {tx, 0, 1}}.mul(g.Tm)
	}
}

// doXObject dispatches a Do operator: Form XObjects run as nested
// content streams under the composed matrix, Image XObjects become
// Image records placed at the CTM's unit square.
func (w *walker) doXObject(xname string, xo Value, res Value) {
	switch xo.Key("Subtype").Name() {
	case "Form":
		if w.depth >= maxFormDepth {
			logger.Error("Do: form XObject nesting too deep, skipping " + xname)
			return
		}
		w.depth++
		saved, savedStack, savedEnc, savedPath := w.g, w.gstack, w.enc, w.path
		m := ident
		if mv := xo.Key("Matrix"); mv.Len() == 6 {
			m = toMatrix(mv)
			w.g.CTM = m.mul(w.g.CTM)
		}
		var box Rect
		if bb := xo.Key("BBox"); bb.Len() == 4 {
			box = Rect{
				Point{bb.Index(0).Float64(), bb.Index(1).Float64()},
				Point{bb.Index(2).Float64(), bb.Index(3).Float64()},
			}
		}
		w.dev.BeginFigure(xname, box, m)
		fres := xo.Key("Resources")
		if fres.IsNull() {
			// Forms written before PDF 1.2 may carry no Resources of
			// their own; they see the invoking page's.
			fres = res
		}
		w.run(xo, fres)
		w.dev.EndFigure(xname)
		w.g, w.gstack, w.enc, w.path = saved, savedStack, savedEnc, savedPath
		w.depth--
	case "Image":
		w.dev.RenderImage(Image{
			Name:       xname,
			Width:      xo.Key("Width").Int64(),
			Height:     xo.Key("Height").Int64(),
			BitsPer:    xo.Key("BitsPerComponent").Int64(),
			ColorSpace: xo.Key("ColorSpace").Name(),
			Rect:       unitRect(w.g.CTM),
			V:          xo,
		})
	default:
		logger.Debug(fmt.Sprintf("Do: unsupported XObject subtype %q for %s", xo.Key("Subtype").Name(), xname))
	}
}

// inlineImage turns a BI/ID/EI sequence into an Image record. Inline
// image keys use the abbreviated forms (/W /H /BPC /CS) but writers
// may spell them out; both are accepted.
func (w *walker) inlineImage(hdr Value, data []byte) {
	pick := func(short, long string) Value {
		if v := hdr.Key(short); !v.IsNull() {
			return v
		}
		return hdr.Key(long)
	}
	w.dev.RenderImage(Image{
		Name:       "inline",
		Width:      pick("W", "Width").Int64(),
		Height:     pick("H", "Height").Int64(),
		BitsPer:    pick("BPC", "BitsPerComponent").Int64(),
		ColorSpace: pick("CS", "ColorSpace").Name(),
		Rect:       unitRect(w.g.CTM),
		Data:       data,
	})
}

func (w *walker) op(stk *Stack, op string, res Value) {
	g := &w.g
	n := stk.Len()
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	switch op {
	default:
		logger.Debug(fmt.Sprintf("content: ignoring operator %q", op))
		return

	case "cm": // update g.CTM
		if len(args) != 6 {
			logger.Error("content: bad cm operands, skipping")
			return
		}
		var m Matrix
		for i := 0; i < 6; i++ {
			m[i/2][i%2] = args[i].Float64()
		}
		m[2][2] = 1
		g.CTM = m.mul(g.CTM)
		w.dev.SetCTM(g.CTM)

	case "gs": // set parameters from graphics state resource
	case "g": // setgray
	case "cs": // set colorspace non-stroking
	case "CS": // set colorspace stroking
	case "sc", "scn", "SC", "SCN": // set color
	case "w", "J", "j", "M", "d", "ri", "i": // line/dash/intent/flatness state
	case "W", "W*": // clip path

	case "m", "l": // moveto / lineto
		if len(args) != 2 {
			logger.Error("content: bad " + op + " operands, skipping")
			return
		}
		w.path = append(w.path, PathSeg{op, []Point{{args[0].Float64(), args[1].Float64()}}})

	case "c": // curveto, two control points
		if len(args) != 6 {
			logger.Error("content: bad c operands, skipping")
			return
		}
		w.path = append(w.path, PathSeg{"c", []Point{
			{args[0].Float64(), args[1].Float64()},
			{args[2].Float64(), args[3].Float64()},
			{args[4].Float64(), args[5].Float64()},
		}})

	case "v", "y": // curveto, one control point
		if len(args) != 4 {
			logger.Error("content: bad " + op + " operands, skipping")
			return
		}
		w.path = append(w.path, PathSeg{op, []Point{
			{args[0].Float64(), args[1].Float64()},
			{args[2].Float64(), args[3].Float64()},
		}})

	case "h": // closepath
		w.path = append(w.path, PathSeg{"h", nil})

	case "re": // append rectangle to path
		if len(args) != 4 {
			logger.Error("content: bad re operands, skipping")
			return
		}
		x, y, wd, ht := args[0].Float64(), args[1].Float64(), args[2].Float64(), args[3].Float64()
		w.path = append(w.path, PathSeg{"re", []Point{{x, y}, {x + wd, y + ht}}})

	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n": // paint current path
		stroke := op == "S" || op == "s" || op == "B" || op == "B*" || op == "b" || op == "b*"
		fill := op == "f" || op == "F" || op == "f*" || op == "B" || op == "B*" || op == "b" || op == "b*"
		evenOdd := strings.HasSuffix(op, "*")
		w.dev.PaintPath(stroke, fill, evenOdd, w.path)
		w.path = nil

	case "q": // save graphics state
		w.gstack = append(w.gstack, *g)

	case "Q": // restore graphics state
		if len(w.gstack) == 0 {
			logger.Error("content: Q with empty graphics state stack, skipping")
			return
		}
		n := len(w.gstack) - 1
		w.g = w.gstack[n]
		w.gstack = w.gstack[:n]

	case "Do": // invoke named XObject
		if len(args) != 1 {
			logger.Error("content: bad Do operands, skipping")
			return
		}
		xname := args[0].Name()
		w.doXObject(xname, res.Key("XObject").Key(xname), res)

	case "BMC": // begin marked content
		if len(args) == 1 {
			w.dev.BeginTag(args[0].Name(), Value{})
		}
	case "BDC": // begin marked content with properties
		if len(args) == 2 {
			w.dev.BeginTag(args[0].Name(), args[1])
		}
	case "EMC": // end marked content
		w.dev.EndTag()
	case "MP": // marked content point
		if len(args) == 1 {
			w.dev.DoTag(args[0].Name(), Value{})
		}
	case "DP": // marked content point with properties
		if len(args) == 2 {
			w.dev.DoTag(args[0].Name(), args[1])
		}

	case "BT": // begin text (reset text matrix and line matrix)
		g.Tm = ident
		g.Tlm = g.Tm

	case "ET": // end text

	case "T*": // move to start of next line
		x := Matrix{{1, 0, 0}, {0, 1, 0}, {0, -g.Tl, 1}}
		g.Tlm = x.mul(g.Tlm)
		g.Tm = g.Tlm

	case "Tc": // set character spacing
		if len(args) != 1 {
			logger.Error("content: bad Tc operands, skipping")
			return
		}
		g.Tc = args[0].Float64()

	case "TD": // move text position and set leading
		if len(args) != 2 {
			logger.Error("content: bad TD operands, skipping")
			return
		}
		g.Tl = -args[1].Float64()
		fallthrough
	case "Td": // move text position
		if len(args) != 2 {
			logger.Error("content: bad Td operands, skipping")
			return
		}
		tx := args[0].Float64()
		ty := args[1].Float64()
		x := Matrix{{1, 0, 0}, {0, 1, 0}, {tx, ty, 1}}
		g.Tlm = x.mul(g.Tlm)
		g.Tm = g.Tlm

	case "Tf": // set text font and size
		if len(args) != 2 {
			logger.Error("content: bad Tf operands, skipping")
			return
		}
		f := args[0].Name()
		g.Tf = Font{res.Key("Font").Key(f), nil}
		w.enc = g.Tf.Encoder()
		if w.enc == nil {
			if DebugOn {
				println("no cmap for", f)
			}
			logger.Debug(fmt.Sprintf("no cmap for %s", f))
			w.enc = &nopEncoder{}
		}
		g.Tfs = args[1].Float64()

	case "\"": // set spacing, move to next line, and show text
		if len(args) != 3 {
			logger.Error("content: bad \" operands, skipping")
			return
		}
		g.Tw = args[0].Float64()
		g.Tc = args[1].Float64()
		args = args[2:]
		fallthrough
	case "'": // move to next line and show text
		if len(args) != 1 {
			logger.Error("content: bad ' operands, skipping")
			return
		}
		x := Matrix{{1, 0, 0}, {0, 1, 0}, {0, -g.Tl, 1}}
		g.Tlm = x.mul(g.Tlm)
		g.Tm = g.Tlm
		fallthrough
	case "Tj": // show text
		if len(args) != 1 {
			logger.Error("content: bad Tj operands, skipping")
			return
		}
		w.showText(args[0].RawString())

	case "TJ": // show text, allowing individual glyph positioning
		if len(args) != 1 {
			logger.Error("content: bad TJ operands, skipping")
			return
		}
		v := args[0]
		for i := 0; i < v.Len(); i++ {
			x := v.Index(i)
			if x.Kind() == String {
				w.showText(x.RawString())
			} else {
				tx := -x.Float64() / 1000 * g.Tfs * g.Th
				g.Tm = Matrix{{1, 0, 0}, {0, 1, 0}, {tx, 0, 1}}.mul(g.Tm)
			}
		}
		w.showText("\n")

	case "TL": // set text leading
		if len(args) != 1 {
			logger.Error("content: bad TL operands, skipping")
			return
		}
		g.Tl = args[0].Float64()

	case "Tm": // set text matrix and line matrix
		if len(args) != 6 {
			logger.Error("content: bad Tm operands, skipping")
			return
		}
		var m Matrix
		for i := 0; i < 6; i++ {
			m[i/2][i%2] = args[i].Float64()
		}
		m[2][2] = 1
		g.Tm = m
		g.Tlm = m

	case "Tr": // set text rendering mode
		if len(args) != 1 {
			logger.Error("content: bad Tr operands, skipping")
			return
		}
		g.Tmode = int(args[0].Int64())

	case "Ts": // set text rise
		if len(args) != 1 {
			logger.Error("content: bad Ts operands, skipping")
			return
		}
		g.Trise = args[0].Float64()

	case "Tw": // set word spacing
		if len(args) != 1 {
			logger.Error("content: bad Tw operands, skipping")
			return
		}
		g.Tw = args[0].Float64()

	case "Tz": // set horizontal text scaling
		if len(args) != 1 {
			logger.Error("content: bad Tz operands, skipping")
			return
		}
		g.Th = args[0].Float64() / 100
	}
}

// contentDevice accumulates the Content view of a page: one Text per
// glyph, rectangles from painted (or dangling) re segments, and image
// placements.
type contentDevice struct {
	BaseDevice
	c Content
}

func (d *contentDevice) RenderText(t Text) {
	d.c.Text = append(d.c.Text, t)
}

func (d *contentDevice) RenderImage(img Image) {
	d.c.Image = append(d.c.Image, img)
}

func (d *contentDevice) PaintPath(stroke, fill, evenOdd bool, path []PathSeg) {
	for _, seg := range path {
		if seg.Op == "re" && len(seg.Pts) == 2 {
			d.c.Rect = append(d.c.Rect, Rect{seg.Pts[0], seg.Pts[1]})
		}
	}
}

// Content returns the page's content.
func (p Page) Content() Content {
	logger.Debug(fmt.Sprintf("Content: starting content extraction for Page %d %d R", p.V.ptr.id, p.V.ptr.gen))
	// Handle in case the content page is empty
	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return Content{}
	}
	var d contentDevice
	p.Walk(&d)
	return d.c
}

// TextVertical implements sort.Interface for sorting
// a slice of Text values in vertical order, top to bottom,
// and then left to right within a line.
type TextVertical []Text

func (x TextVertical) Len() int      { return len(x) }
func (x TextVertical) Swap(i, j int) { x[i], x[j] = x[j], x[i] }
func (x TextVertical) Less(i, j int) bool {
	if x[i].Y != x[j].Y {
		return x[i].Y > x[j].Y
	}
	return x[i].X < x[j].X
}

// TextHorizontal implements sort.Interface for sorting
// a slice of Text values in horizontal order, left to right,
// and then top to bottom within a column.
type TextHorizontal []Text

func (x TextHorizontal) Len() int      { return len(x) }
func (x TextHorizontal) Swap(i, j int) { x[i], x[j] = x[j], x[i] }
func (x TextHorizontal) Less(i, j int) bool {
	if x[i].X != x[j].X {
		return x[i].X < x[j].X
	}
	return x[i].Y > x[j].Y
}

// An Outline is a tree describing the outline (also known as the table of contents)
// of a document.
type Outline struct {
	Title        string    // title for this element
	Dest         Value     // explicit destination, if any (/Dest)
	Action       Value     // action dictionary, if any (/A)
	StructElem   Value     // associated structure element, if any (/SE)
	Child        []Outline // child elements
}

// Outline returns the document outline.
// The Outline returned is the root of the outline tree and typically has no Title itself.
// That is, the children of the returned root are the top-level entries in the outline.
func (r *Reader) Outline() Outline {

	return buildOutline(r.Trailer().Key("Root").Key("Outlines"))
}

func buildOutline(entry Value) Outline {
	var x Outline
	x.Title = entry.Key("Title").Text()
	x.Dest = entry.Key("Dest")
	x.Action = entry.Key("A")
	x.StructElem = entry.Key("SE")
	for child := entry.Key("First"); child.Kind() == Dict; child = child.Key("Next") {
		x.Child = append(x.Child, buildOutline(child))
	}
	return x
}
