// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"io"

	"github.com/coredoc/pdfxtract/logger"
)

// Stack is the operand stack fed to an Interpret callback: content and
// CMap streams are pure postfix notation, operands first, operator
// last, so every handler pops exactly the operands its operator needs.
type Stack struct {
	v []Value
}

// Push adds v to the top of the stack.
func (s *Stack) Push(v Value) {
	s.v = append(s.v, v)
}

// Pop removes and returns the top of the stack, or a null Value if the
// stack is empty — callers do not need to special-case malformed
// streams that under-supply operands.
func (s *Stack) Pop() Value {
	if len(s.v) == 0 {
		return Value{}
	}
	n := len(s.v) - 1
	v := s.v[n]
	s.v = s.v[:n]
	return v
}

// Len reports the number of operands currently on the stack.
func (s *Stack) Len() int {
	return len(s.v)
}

// A PathSeg is one segment of a path under construction: Op is the
// constructing operator ("m", "l", "c", "v", "y", "h", "re") and Pts
// holds its control points in user space.
type PathSeg struct {
	Op  string
	Pts []Point
}

// An Image records one image placement on a page: an external Image
// XObject invoked with Do, or an inline BI/ID/EI image. V is the
// XObject stream for external images and a null Value for inline
// images, whose raw (still filter-encoded) bytes are in Data instead.
type Image struct {
	Name       string
	Width      int64
	Height     int64
	BitsPer    int64
	ColorSpace string
	Rect       Rect
	V          Value
	Data       []byte
}

// A Device receives the positioned primitives produced by walking a
// page's content streams (Page.Walk). Text extraction, layout
// analysis, and external converters are all written as Devices;
// BaseDevice is a no-op implementation to embed so a consumer only
// declares the callbacks it cares about.
type Device interface {
	SetCTM(m Matrix)
	BeginPage(p Page, ctm Matrix)
	EndPage(p Page)
	BeginFigure(name string, bbox Rect, m Matrix)
	EndFigure(name string)
	PaintPath(stroke, fill, evenOdd bool, path []PathSeg)
	RenderImage(img Image)
	RenderText(t Text)
	BeginTag(tag string, props Value)
	EndTag()
	DoTag(tag string, props Value)
}

// BaseDevice implements every Device callback as a no-op.
type BaseDevice struct{}

func (BaseDevice) SetCTM(Matrix)                         {}
func (BaseDevice) BeginPage(Page, Matrix)                {}
func (BaseDevice) EndPage(Page)                          {}
func (BaseDevice) BeginFigure(string, Rect, Matrix)      {}
func (BaseDevice) EndFigure(string)                      {}
func (BaseDevice) PaintPath(bool, bool, bool, []PathSeg) {}
func (BaseDevice) RenderImage(Image)                     {}
func (BaseDevice) RenderText(Text)                       {}
func (BaseDevice) BeginTag(string, Value)                {}
func (BaseDevice) EndTag()                               {}
func (BaseDevice) DoTag(string, Value)                   {}

// Interpret runs a content or CMap stream (strm.Kind() == Stream),
// invoking do once per operator with a Stack holding the operands
// pushed since the previous operator. It is deliberately the single
// postfix-interpreter used for content streams, ToUnicode CMaps, and
// embedded font CMaps alike: all three share the same operand/operator
// grammar (PDF syntax plus bare keyword operators). Inline images are
// consumed and discarded; Page.Walk passes a handler that keeps them.
func Interpret(strm Value, do func(stk *Stack, op string)) {
	interpret(strm, do, nil)
}

func interpret(strm Value, do func(stk *Stack, op string), inline func(hdr dict, data []byte)) {
	if strm.Kind() != Stream {
		return
	}
	rc := strm.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		logger.Error("Interpret: reading stream: " + err.Error())
		return
	}
	b := newBuffer(bytes.NewReader(data), 0)
	b.allowEOF = true

	var stk Stack
	for {
		tok := b.readToken()
		if tok == nil && b.offset >= len(b.data) {
			break
		}
		switch t := tok.(type) {
		case keyword:
			switch t {
			case "":
				return
			case "[", "<<":
				// Composite operands (TJ arrays, BDC property dicts)
				// lex as keywords; reassemble them as objects.
				b.unreadToken(tok)
				stk.Push(Value{strm.r, strm.ptr, b.readObject()})
			case "]", ">>", "{", "}":
				logger.Error("Interpret: unbalanced " + string(t))
			case "BI":
				hdr, img := readInlineImage(b)
				if inline != nil {
					inline(hdr, img)
				}
				continue
			default:
				do(&stk, string(t))
				stk.v = stk.v[:0]
			}
		default:
			b.unreadToken(tok)
			obj := b.readObject()
			stk.Push(Value{strm.r, strm.ptr, obj})
		}
	}
}

// readInlineImage consumes a "BI <dict entries> ID <binary> EI"
// sequence, returning the key/value entries between BI and ID and the
// raw bytes between ID and EI. The terminating EI must be delimited by
// whitespace on both sides so a stray "EI" inside the pixel data does
// not cut the image short.
func readInlineImage(b *buffer) (dict, []byte) {
	hdr := make(dict)
	for {
		tok := b.readToken()
		if tok == nil || tok == keyword("ID") || tok == keyword("") {
			break
		}
		key, ok := tok.(name)
		if !ok {
			continue
		}
		hdr[key] = b.readObject()
	}
	// One whitespace byte separates ID from the raw data.
	if b.offset < len(b.data) && isWhitespace(b.data[b.offset]) {
		b.offset++
	}
	imgStart := b.offset
	start := b.offset
	for {
		idx := bytes.Index(b.data[start:], []byte("EI"))
		if idx < 0 {
			b.offset = len(b.data)
			b.pos = b.base + int64(b.offset)
			return hdr, b.data[imgStart:]
		}
		abs := start + idx
		before := abs == 0 || isWhitespace(b.data[abs-1])
		afterIdx := abs + 2
		after := afterIdx >= len(b.data) || isWhitespace(b.data[afterIdx])
		if before && after {
			b.offset = afterIdx
			b.pos = b.base + int64(b.offset)
			end := abs
			if end > imgStart && isWhitespace(b.data[end-1]) {
				end--
			}
			return hdr, b.data[imgStart:end]
		}
		start = abs + 2
	}
}
