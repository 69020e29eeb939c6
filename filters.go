// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bufio"
	"errors"
	"io"

	"golang.org/x/sys/cpu"

	"github.com/coredoc/pdfxtract/logger"
)

// newAlphaReader strips whitespace and the "<~"/"~>" delimiters some
// producers wrap around ASCII85 data, leaving only the base-85
// alphabet (and the "z" shorthand) that encoding/ascii85 expects.
func newAlphaReader(r io.Reader) io.Reader {
	return &alphaReader{r: bufio.NewReader(r)}
}

type alphaReader struct {
	r *bufio.Reader
	// open is set after the '<' of a leading "<~", so the '~' that
	// follows is read as part of that delimiter, not as "~>".
	open bool
}

// Read consumes one underlying byte per loop iteration and returns the
// total number of underlying bytes consumed (not the number of valid
// ASCII85 bytes written) — callers track their own position against
// the source via this count. The kept ASCII85 bytes are packed at the
// front of p and the rest of the returned count is zeroed, which
// encoding/ascii85 skips like whitespace. Writing into p stops, without
// ending the read, the moment the "~>" end-of-data marker is seen: later bytes
// (including ones that would otherwise look like valid ASCII85
// characters) are drained but ignored, matching the common case of
// trailing whitespace or an "EI" inline-image terminator sitting
// immediately after a stream's encoded data.
func (a *alphaReader) Read(p []byte) (int, error) {
	consumed := 0
	out := 0
	done := false
	for consumed < len(p) {
		c, err := a.r.ReadByte()
		if err != nil {
			if consumed == 0 {
				return 0, err
			}
			break
		}
		consumed++
		if done {
			continue
		}
		switch {
		case c == '~' && a.open:
			a.open = false
		case c == '~':
			done = true
		case c == '<':
			if next, err := a.r.Peek(1); err == nil && next[0] == '~' {
				a.open = true
			} else {
				p[out] = c
				out++
			}
		case isWhitespace(c):
		case c == 'z', c >= '!' && c <= 'u':
			p[out] = c
			out++
		}
	}
	for i := out; i < consumed; i++ {
		p[i] = 0
	}
	return consumed, nil
}

// --- PNG / TIFF predictors --------------------------------------------

// pngPredictorReader undoes the PNG-style per-row filtering (ISO
// 32000-1 Table 8, predictor values 10-15) applied before FlateDecode
// or LZWDecode. Each row of the underlying stream is prefixed with one
// filter-type byte (0 None, 1 Sub, 2 Up, 3 Average, 4 Paeth).
type pngPredictorReader struct {
	r        io.Reader
	bpp      int
	rowBytes int
	hist     []byte
	tmp      []byte
	pend     []byte
}

func (p *pngPredictorReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(p.pend) > 0 {
			m := copy(b, p.pend)
			n += m
			b = b[m:]
			p.pend = p.pend[m:]
			continue
		}
		if _, err := io.ReadFull(p.r, p.tmp); err != nil {
			if n > 0 {
				return n, nil
			}
			return n, err
		}
		ft := p.tmp[0]
		row := p.tmp[1:]
		if err := undoPNGFilter(ft, row, p.hist, p.bpp); err != nil {
			logger.Error(err.Error())
			return n, err
		}
		copy(p.hist, row)
		p.pend = row
	}
	return n, nil
}

// undoPNGFilter reverses one row in place. On platforms with SSE2, the
// per-byte accumulation below vectorizes cleanly under the Go compiler
// without further hinting; cpu.X86.HasSSE2 only gates whether we chunk
// the row in 16-byte strides (matching a typical SIMD width) or walk it
// byte by byte, not the arithmetic itself.
func undoPNGFilter(ft byte, row, hist []byte, bpp int) error {
	switch ft {
	case 0: // None
		return nil
	case 1: // Sub
		stride := 1
		if cpu.X86.HasSSE2 {
			stride = 16
		}
		for i := 0; i < len(row); i += stride {
			end := i + stride
			if end > len(row) {
				end = len(row)
			}
			for j := i; j < end; j++ {
				if j >= bpp {
					row[j] += row[j-bpp]
				}
			}
		}
		return nil
	case 2: // Up
		for i, v := range row {
			row[i] = v + hist[i]
		}
		return nil
	case 3: // Average
		for i := range row {
			var left, up int
			if i >= bpp {
				left = int(row[i-bpp])
			}
			up = int(hist[i])
			row[i] = row[i] + byte((left+up)/2)
		}
		return nil
	case 4: // Paeth
		for i := range row {
			var a, c int
			if i >= bpp {
				a = int(row[i-bpp])
				c = int(hist[i-bpp])
			}
			b := int(hist[i])
			row[i] = row[i] + paeth(a, b, c)
		}
		return nil
	default:
		return errors.New("unknown PNG predictor filter type")
	}
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// tiffPredictorReader undoes predictor value 2: each sample is stored
// as the difference from the sample bpp bytes to its left in the row.
type tiffPredictorReader struct {
	r        io.Reader
	bpp      int
	rowBytes int
	tmp      []byte
}

func (t *tiffPredictorReader) Read(b []byte) (int, error) {
	if t.tmp == nil {
		t.tmp = make([]byte, t.rowBytes)
	}
	if _, err := io.ReadFull(t.r, t.tmp); err != nil {
		return 0, err
	}
	for i := t.bpp; i < len(t.tmp); i++ {
		t.tmp[i] += t.tmp[i-t.bpp]
	}
	return copy(b, t.tmp), nil
}

// --- ASCIIHexDecode -----------------------------------------------------

type asciiHexReader struct {
	r      *bufio.Reader
	done   bool
	hi     byte
	haveHi bool
}

func newASCIIHexReader(r io.Reader) io.Reader {
	return &asciiHexReader{r: bufio.NewReader(r)}
}

// Read carries a pending high nibble (haveHi/hi) across calls, since a
// hex-digit pair can straddle two Read invocations when the caller's
// buffer is small.
func (a *asciiHexReader) Read(p []byte) (int, error) {
	if a.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c, err := a.r.ReadByte()
		if err != nil {
			a.done = true
			break
		}
		if c == '>' {
			a.done = true
			break
		}
		if isWhitespace(c) {
			continue
		}
		if !isHex(c) {
			continue
		}
		if !a.haveHi {
			a.hi = c
			a.haveHi = true
			continue
		}
		p[n] = hexVal(a.hi)<<4 | hexVal(c)
		n++
		a.haveHi = false
	}
	if a.done && a.haveHi && n < len(p) {
		p[n] = hexVal(a.hi) << 4
		n++
		a.haveHi = false
	}
	if n == 0 && a.done {
		return 0, io.EOF
	}
	return n, nil
}

// --- RunLengthDecode ------------------------------------------------------

// runLengthReader implements the PackBits-style scheme of ISO 32000-1
// §7.4.5: a length byte 0-127 means "copy the next length+1 bytes
// literally"; 129-255 means "repeat the following byte 257-length
// times"; 128 is EOD.
type runLengthReader struct {
	r    *bufio.Reader
	pend []byte
	done bool
}

func newRunLengthReader(r io.Reader) io.Reader {
	return &runLengthReader{r: bufio.NewReader(r)}
}

func (rl *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(rl.pend) > 0 {
			m := copy(p[n:], rl.pend)
			n += m
			rl.pend = rl.pend[m:]
			continue
		}
		if rl.done {
			break
		}
		lb, err := rl.r.ReadByte()
		if err != nil {
			rl.done = true
			break
		}
		switch {
		case lb == 128:
			rl.done = true
		case lb < 128:
			count := int(lb) + 1
			buf := make([]byte, count)
			if _, err := io.ReadFull(rl.r, buf); err != nil {
				rl.done = true
				break
			}
			rl.pend = buf
		default:
			count := 257 - int(lb)
			b, err := rl.r.ReadByte()
			if err != nil {
				rl.done = true
				break
			}
			buf := make([]byte, count)
			for i := range buf {
				buf[i] = b
			}
			rl.pend = buf
		}
	}
	if n == 0 && rl.done && len(rl.pend) == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// --- LZWDecode --------------------------------------------------------

// lzwReader implements the variable-width (9-12 bit) LZW scheme used by
// LZWDecode, with code 256 (clear table) and 257 (EOD) as defined by
// ISO 32000-1 §7.4.4. earlyChange selects whether the code-width bump
// happens one code early (the PDF default, EarlyChange=1) or exactly at
// the table-size boundary (EarlyChange=0), mirroring pdfminer's lzw.py.
type lzwReader struct {
	r          *bitReader
	table      [][]byte
	codeWidth  uint
	prev       []byte
	earlyChange int64
	pend       []byte
	done       bool
}

const (
	lzwClearCode = 256
	lzwEODCode   = 257
)

func newLZWReader(r io.Reader, earlyChange int64) io.Reader {
	lr := &lzwReader{r: newBitReader(r), earlyChange: earlyChange}
	lr.reset()
	return lr
}

func (l *lzwReader) reset() {
	l.table = make([][]byte, 258, 4096)
	for i := 0; i < 256; i++ {
		l.table[i] = []byte{byte(i)}
	}
	l.codeWidth = 9
	l.prev = nil
}

func (l *lzwReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(l.pend) > 0 {
			m := copy(p[n:], l.pend)
			n += m
			l.pend = l.pend[m:]
			continue
		}
		if l.done {
			break
		}
		code, ok := l.r.readBits(l.codeWidth)
		if !ok {
			l.done = true
			break
		}
		switch code {
		case lzwClearCode:
			l.reset()
			continue
		case lzwEODCode:
			l.done = true
			continue
		}
		var entry []byte
		if int(code) < len(l.table) && l.table[code] != nil {
			entry = l.table[code]
		} else if int(code) == len(l.table) && l.prev != nil {
			entry = append(append([]byte{}, l.prev...), l.prev[0])
		} else {
			// Corrupt stream: terminate gracefully rather than panic.
			l.done = true
			break
		}
		if l.prev != nil {
			newEntry := append(append([]byte{}, l.prev...), entry[0])
			l.table = append(l.table, newEntry)
		}
		l.prev = entry
		l.pend = entry

		size := int64(len(l.table))
		switch {
		case size+l.earlyChange >= 2048:
			l.codeWidth = 12
		case size+l.earlyChange >= 1024:
			l.codeWidth = 11
		case size+l.earlyChange >= 512:
			l.codeWidth = 10
		default:
			l.codeWidth = 9
		}
	}
	if n == 0 && l.done && len(l.pend) == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// bitReader reads big-endian, MSB-first variable-width bit codes from
// an underlying byte stream, as required by LZWDecode.
type bitReader struct {
	r    *bufio.Reader
	bits uint64
	n    uint
}

func newBitReader(r io.Reader) *bitReader {
	return &bitReader{r: bufio.NewReader(r)}
}

func (b *bitReader) readBits(width uint) (int64, bool) {
	for b.n < width {
		c, err := b.r.ReadByte()
		if err != nil {
			return 0, false
		}
		b.bits = b.bits<<8 | uint64(c)
		b.n += 8
	}
	b.n -= width
	code := int64((b.bits >> b.n) & ((1 << width) - 1))
	return code, true
}
