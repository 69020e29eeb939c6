// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"fmt"
	"io"
	"strconv"

	"github.com/coredoc/pdfxtract/logger"
)

// buffer is a byte-addressable, restartable lexer over a slice of a PDF
// file. It is deliberately fully buffered: every buffer is built from a
// bounded io.Reader (a *io.SectionReader over the underlying file, or
// the inflated body of an object stream), so reading it into memory
// once is cheap and lets readObject scan ahead for "endstream" without
// needing a seekable source.
type buffer struct {
	data []byte
	offset int
	base int64 // absolute file offset corresponding to data[0]
	pos  int64 // absolute file offset of the next unread byte

	unget    []object
	allowEOF bool

	// key and useAES, when key is non-nil, cause readObject to decrypt
	// string tokens belonging to curPtr with the per-object RC4 key.
	key    []byte
	useAES bool
	curPtr objptr
}

func newBuffer(r io.Reader, offset int64) *buffer {
	data, err := io.ReadAll(r)
	if err != nil {
		logger.Debug(fmt.Sprintf("buffer: short read at offset %d: %v", offset, err), true)
	}
	return &buffer{data: data, base: offset, pos: offset}
}

func (b *buffer) seekForward(off int64) {
	rel := off - b.base
	if rel < 0 {
		rel = 0
	}
	if rel > int64(len(b.data)) {
		rel = int64(len(b.data))
	}
	b.offset = int(rel)
	b.pos = b.base + rel
	b.unget = nil
}

func (b *buffer) unreadToken(tok object) {
	b.unget = append(b.unget, tok)
}

func (b *buffer) errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf("lexer: "+format, args...))
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (b *buffer) peek() (byte, bool) {
	if b.offset >= len(b.data) {
		return 0, false
	}
	return b.data[b.offset], true
}

func (b *buffer) next() (byte, bool) {
	c, ok := b.peek()
	if !ok {
		return 0, false
	}
	b.offset++
	b.pos = b.base + int64(b.offset)
	return c, true
}

func (b *buffer) skipWhite() {
	for {
		c, ok := b.peek()
		if !ok {
			return
		}
		if isWhitespace(c) {
			b.next()
			continue
		}
		if c == '%' {
			for {
				c, ok := b.next()
				if !ok || c == '\n' || c == '\r' {
					break
				}
			}
			continue
		}
		return
	}
}

// readToken returns the next lexical token: nil, bool, int64, float64,
// string, name, or keyword. Compound structure (dicts, arrays, streams,
// indirect references) is assembled on top of this by readObject.
func (b *buffer) readToken() object {
	if n := len(b.unget); n > 0 {
		tok := b.unget[n-1]
		b.unget = b.unget[:n-1]
		return tok
	}

	b.skipWhite()
	c, ok := b.peek()
	if !ok {
		if b.allowEOF {
			return nil
		}
		return keyword("")
	}

	switch {
	case c == '/':
		return b.readName()
	case c == '(':
		return b.readLiteralString()
	case c == '<':
		if b.offset+1 < len(b.data) && b.data[b.offset+1] == '<' {
			b.offset += 2
			b.pos = b.base + int64(b.offset)
			return keyword("<<")
		}
		return b.readHexString()
	case c == '>':
		if b.offset+1 < len(b.data) && b.data[b.offset+1] == '>' {
			b.offset += 2
			b.pos = b.base + int64(b.offset)
			return keyword(">>")
		}
		b.next()
		return keyword(">")
	case c == '[':
		b.next()
		return keyword("[")
	case c == ']':
		b.next()
		return keyword("]")
	case c == '{':
		b.next()
		return keyword("{")
	case c == '}':
		b.next()
		return keyword("}")
	case c == ')':
		b.next()
		return keyword(")")
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return b.readNumber()
	default:
		return b.readKeyword()
	}
}

func (b *buffer) readName() object {
	b.next() // consume '/'
	var out bytes.Buffer
	for {
		c, ok := b.peek()
		if !ok || isWhitespace(c) || isDelim(c) {
			break
		}
		b.next()
		if c == '#' && b.offset+1 < len(b.data) && isHex(b.data[b.offset]) && isHex(b.data[b.offset+1]) {
			h := hexVal(b.data[b.offset])<<4 | hexVal(b.data[b.offset+1])
			b.offset += 2
			b.pos = b.base + int64(b.offset)
			out.WriteByte(h)
			continue
		}
		out.WriteByte(c)
	}
	return name(out.String())
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func (b *buffer) readNumber() object {
	start := b.offset
	if c, ok := b.peek(); ok && (c == '+' || c == '-') {
		b.next()
	}
	isReal := false
	for {
		c, ok := b.peek()
		if !ok {
			break
		}
		if c == '.' {
			isReal = true
			b.next()
			continue
		}
		if c >= '0' && c <= '9' {
			b.next()
			continue
		}
		break
	}
	s := string(b.data[start:b.offset])
	if s == "" || s == "-" || s == "+" {
		return b.readKeyword()
	}
	if isReal {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			b.errorf("malformed real %q", s)
			return float64(0)
		}
		return f
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		b.errorf("malformed integer %q", s)
		return int64(0)
	}
	return i
}

func (b *buffer) readKeyword() object {
	start := b.offset
	for {
		c, ok := b.peek()
		if !ok || isWhitespace(c) || isDelim(c) {
			break
		}
		b.next()
	}
	if b.offset == start {
		// Lone delimiter we don't special-case (e.g. stray '%').
		b.next()
	}
	s := string(b.data[start:b.offset])
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	return keyword(s)
}

func (b *buffer) readLiteralString() object {
	b.next() // consume '('
	depth := 1
	var out bytes.Buffer
	for depth > 0 {
		c, ok := b.next()
		if !ok {
			b.errorf("unterminated literal string")
			break
		}
		switch c {
		case '(':
			depth++
			out.WriteByte(c)
		case ')':
			depth--
			if depth > 0 {
				out.WriteByte(c)
			}
		case '\\':
			e, ok := b.next()
			if !ok {
				break
			}
			switch e {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case 'b':
				out.WriteByte('\b')
			case 'f':
				out.WriteByte('\f')
			case '(', ')', '\\':
				out.WriteByte(e)
			case '\r':
				if c, ok := b.peek(); ok && c == '\n' {
					b.next()
				}
			case '\n':
				// line continuation, emit nothing
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					digits := []byte{e}
					for i := 0; i < 2; i++ {
						d, ok := b.peek()
						if !ok || d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						digits = append(digits, d)
						b.next()
					}
					if v > 0xFF {
						// An octal escape too large for a byte is not an
						// escape at all; keep it as written.
						out.WriteByte('\\')
						out.Write(digits)
					} else {
						out.WriteByte(byte(v))
					}
				} else {
					out.WriteByte(e)
				}
			}
		default:
			out.WriteByte(c)
		}
	}
	return b.maybeDecrypt(out.String())
}

func (b *buffer) readHexString() object {
	b.next() // consume '<'
	var digits []byte
	for {
		c, ok := b.next()
		if !ok || c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return b.maybeDecrypt(string(out))
}

// maybeDecrypt applies the per-object RC4 stream key, when one has been
// installed on the buffer by the Standard Security Handler, to a string
// literal just lexed from an encrypted document.
func (b *buffer) maybeDecrypt(s string) string {
	if b.key == nil || b.useAES {
		return s
	}
	key := objectKey(b.key, b.curPtr)
	c, err := rc4.NewCipher(key)
	if err != nil {
		return s
	}
	out := make([]byte, len(s))
	c.XORKeyStream(out, []byte(s))
	return string(out)
}

// objectKey derives the per-object RC4 key used by the Standard
// Security Handler (ISO 32000-1 §7.6.2, Algorithm 1): the file key is
// extended with the low-order 3 bytes of the object number and 2 bytes
// of the generation number, then MD5-hashed and truncated.
func objectKey(fileKey []byte, ptr objptr) []byte {
	h := md5.New()
	h.Write(fileKey)
	h.Write([]byte{byte(ptr.id), byte(ptr.id >> 8), byte(ptr.id >> 16)})
	h.Write([]byte{byte(ptr.gen), byte(ptr.gen >> 8)})
	sum := h.Sum(nil)
	n := len(fileKey) + 5
	if n > 16 {
		n = 16
	}
	return sum[:n]
}

// readObject reads one fully assembled PDF object: a scalar, a name, an
// array, a dictionary (and its trailing stream body, if any), an
// indirect reference ("id gen R"), or a top-level indirect object
// definition ("id gen obj ... endobj").
func (b *buffer) readObject() object {
	tok := b.readToken()
	switch t := tok.(type) {
	case int64:
		tok2 := b.readToken()
		gen, ok := tok2.(int64)
		if !ok {
			b.unreadToken(tok2)
			return t
		}
		tok3 := b.readToken()
		switch tok3 {
		case keyword("R"):
			return objptr{uint32(t), uint16(gen)}
		case keyword("obj"):
			ptr := objptr{uint32(t), uint16(gen)}
			saved := b.curPtr
			b.curPtr = ptr
			obj := b.readObject()
			b.curPtr = saved
			end := b.readToken()
			if end != keyword("endobj") {
				b.unreadToken(end)
			}
			return objdef{ptr, obj}
		default:
			b.unreadToken(tok3)
			b.unreadToken(tok2)
			return t
		}
	case keyword:
		switch t {
		case "[":
			var arr array
			for {
				tok := b.readToken()
				if tok == keyword("]") {
					break
				}
				b.unreadToken(tok)
				arr = append(arr, b.readObject())
			}
			return arr
		case "<<":
			d := make(dict)
			for {
				tok := b.readToken()
				if tok == keyword(">>") {
					break
				}
				key, ok := tok.(name)
				if !ok {
					b.errorf("unexpected key in dict: %v", tok)
					continue
				}
				d[key] = b.readObject()
			}
			return b.maybeReadStream(d)
		default:
			return t
		}
	default:
		return tok
	}
}

// maybeReadStream checks whether a dictionary just parsed is followed
// by "stream ... endstream" and, if so, returns a stream object whose
// offset points at the first byte of the (still filtered) data.
func (b *buffer) maybeReadStream(hdr dict) object {
	tok := b.readToken()
	if tok != keyword("stream") {
		b.unreadToken(tok)
		return hdr
	}
	// "stream" must be followed by CRLF or LF before the data begins.
	if b.offset < len(b.data) && b.data[b.offset] == '\r' {
		b.offset++
	}
	if b.offset < len(b.data) && b.data[b.offset] == '\n' {
		b.offset++
	}
	b.pos = b.base + int64(b.offset)
	offset := b.pos

	length, _ := hdr["Length"].(int64)
	end := b.offset + int(length)
	if length <= 0 || end > len(b.data) || !bytes.HasPrefix(bytes.TrimLeft(b.data[end:], "\r\n \t"), []byte("endstream")) {
		// Length absent, indirect, or wrong: fall back to scanning for
		// the endstream keyword, as real-world producers often get
		// /Length wrong when generating incrementally.
		if idx := bytes.Index(b.data[b.offset:], []byte("endstream")); idx >= 0 {
			end = b.offset + idx
		} else {
			end = len(b.data)
		}
	}
	streamLen := int64(end - b.offset)
	b.seekForward(offset + streamLen)
	// Skip to and past "endstream".
	if idx := bytes.Index(b.data[b.offset:], []byte("endstream")); idx >= 0 {
		b.offset += idx + len("endstream")
		b.pos = b.base + int64(b.offset)
	}
	hdr["Length"] = streamLen
	return stream{hdr: hdr, offset: offset, ptr: b.curPtr}
}
