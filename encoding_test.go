// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinAnsiEncodingASCII(t *testing.T) {
	assert.Equal(t, 'A', winAnsiEncoding['A'])
	assert.Equal(t, ' ', winAnsiEncoding[' '])
	assert.Equal(t, '~', winAnsiEncoding['~'])
}

func TestMacRomanEncodingASCII(t *testing.T) {
	assert.Equal(t, 'A', macRomanEncoding['A'])
	assert.Equal(t, '0', macRomanEncoding['0'])
}

func TestPDFDocEncodingOverridesControlRange(t *testing.T) {
	// 0x93/0x94 are the fi/fl ligatures in PDFDocEncoding, not whatever
	// Windows-1252 assigns there.
	assert.Equal(t, rune(0xFB01), pdfDocEncoding[0x93])
	assert.Equal(t, rune(0xFB02), pdfDocEncoding[0x94])
	assert.Equal(t, rune(0x20AC), pdfDocEncoding[0xA0])
}

func TestPDFDocEncodingAgreesWithWinAnsiForASCII(t *testing.T) {
	for b := byte(0x20); b < 0x7F; b++ {
		assert.Equal(t, winAnsiEncoding[b], pdfDocEncoding[b], "byte %x", b)
	}
}

func TestNameToRuneLetters(t *testing.T) {
	assert.Equal(t, 'A', nameToRune["A"])
	assert.Equal(t, 'z', nameToRune["z"])
	assert.Equal(t, rune('5'), nameToRune["five"])
}

func TestNameToRunePunctuationAndLigatures(t *testing.T) {
	assert.Equal(t, rune(' '), nameToRune["space"])
	assert.Equal(t, rune(0xFB01), nameToRune["fi"])
	assert.Equal(t, rune(0x2014), nameToRune["emdash"])
}

func TestNameToRuneUnknownIsAbsent(t *testing.T) {
	_, ok := nameToRune["this-glyph-name-does-not-exist"]
	assert.False(t, ok)
}
