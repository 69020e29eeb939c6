// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTokenPrimitives(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("123 1.5 /Name (hi) <48656c6c6f> true false null")), 0)
	b.allowEOF = true

	tok := b.readToken()
	assert.Equal(t, int64(123), tok)

	tok = b.readToken()
	assert.Equal(t, 1.5, tok)

	tok = b.readToken()
	assert.Equal(t, name("Name"), tok)

	tok = b.readToken()
	assert.Equal(t, "hi", tok)

	tok = b.readToken()
	assert.Equal(t, "Hello", tok)

	tok = b.readToken()
	assert.Equal(t, true, tok)

	tok = b.readToken()
	assert.Equal(t, false, tok)

	tok = b.readToken()
	assert.Nil(t, tok)
}

func TestReadObjectArrayAndDict(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("[1 2 /Foo] << /A 1 /B (x) >>")), 0)

	obj := b.readObject()
	arr, ok := obj.(array)
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Equal(t, int64(1), arr[0])
	assert.Equal(t, int64(2), arr[1])
	assert.Equal(t, name("Foo"), arr[2])

	obj = b.readObject()
	d, ok := obj.(dict)
	require.True(t, ok)
	assert.Equal(t, int64(1), d[name("A")])
	assert.Equal(t, "x", d[name("B")])
}

func TestReadObjectIndirectRef(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("7 0 R")), 0)
	obj := b.readObject()
	ptr, ok := obj.(objptr)
	require.True(t, ok)
	assert.Equal(t, uint32(7), ptr.id)
	assert.Equal(t, uint16(0), ptr.gen)
}

func TestReadObjectDef(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("9 0 obj (payload) endobj")), 0)
	obj := b.readObject()
	def, ok := obj.(objdef)
	require.True(t, ok)
	assert.Equal(t, uint32(9), def.ptr.id)
	assert.Equal(t, "payload", def.obj)
}

func TestUnreadTokenRoundTrip(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("/A /B")), 0)
	first := b.readToken()
	b.unreadToken(first)
	again := b.readToken()
	assert.Equal(t, first, again)
	second := b.readToken()
	assert.Equal(t, name("B"), second)
}

func TestSeekForwardClamps(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("0123456789")), 100)
	b.seekForward(50)
	assert.Equal(t, 0, b.offset)
	b.seekForward(200)
	assert.Equal(t, 10, b.offset)
}

func TestReadHexStringBytes(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("<feff>")), 0)
	tok := b.readToken()
	assert.Equal(t, "\xfe\xff", tok)
}

func TestReadHexStringOddDigits(t *testing.T) {
	// An odd digit count is padded with a trailing zero nibble.
	b := newBuffer(bytes.NewReader([]byte("<48656c6c6f2>")), 0)
	tok := b.readToken()
	assert.Equal(t, "Hello ", tok)
}

func TestReadLiteralStringEscapes(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte(`(str1\(foo)(str2)`)), 0)
	assert.Equal(t, "str1(foo", b.readToken())
	assert.Equal(t, "str2", b.readToken())
}

func TestReadLiteralStringOctal(t *testing.T) {
	// \101 is 'A'; \500 overflows a byte and stays literal.
	b := newBuffer(bytes.NewReader([]byte(`(\101) (\500)`)), 0)
	assert.Equal(t, "A", b.readToken())
	assert.Equal(t, `\500`, b.readToken())
}

func TestReadLiteralStringBalancedParens(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("(a(b)c)")), 0)
	assert.Equal(t, "a(b)c", b.readToken())
}

func TestReadNameHexEscape(t *testing.T) {
	b := newBuffer(bytes.NewReader([]byte("/A#20B")), 0)
	assert.Equal(t, name("A B"), b.readToken())
}

// TestSeekForwardRelex: re-lexing after repositioning yields the same
// token that was produced at that offset the first time through.
func TestSeekForwardRelex(t *testing.T) {
	data := []byte("/First 42 (mid) /Last")
	b := newBuffer(bytes.NewReader(data), 0)
	b.allowEOF = true

	var offsets []int64
	var toks []object
	for {
		b.skipWhite()
		off := b.pos
		tok := b.readToken()
		if tok == nil {
			break
		}
		offsets = append(offsets, off)
		toks = append(toks, tok)
		if len(toks) > 10 {
			break
		}
	}
	require.Len(t, toks, 4)
	for i, off := range offsets {
		b.seekForward(off)
		assert.Equal(t, toks[i], b.readToken(), "token %d at offset %d", i, off)
	}
}
