// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"math"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/coredoc/pdfxtract/logger"
)

// winAnsiEncoding and macRomanEncoding are the two legacy single-byte
// simple-font encodings named directly in a Font's /Encoding entry.
// They are derived from golang.org/x/text/encoding/charmap's
// code-page-1252 and Macintosh tables rather than hand-transcribed,
// so the byte→rune mapping matches the same vetted tables the rest of
// the ecosystem relies on.
var winAnsiEncoding = charmapTable(charmap.Windows1252)
var macRomanEncoding = charmapTable(charmap.Macintosh)

func charmapTable(cm *charmap.Charmap) [256]rune {
	var out [256]rune
	for i := 0; i < 256; i++ {
		r := cm.DecodeByte(byte(i))
		if r == 0 && i != 0 {
			r = unicode.ReplacementChar
		}
		out[i] = r
	}
	return out
}

// pdfDocEncoding is the encoding used for text strings that are not
// UTF-16 (ISO 32000-1 Annex D.3). It agrees with WinAnsiEncoding for
// printable ASCII and diverges only in 0x18-0x1F and 0x80-0xA0, which
// PDFDocEncoding assigns to accents and typographic punctuation.
var pdfDocEncoding = buildPDFDocEncoding()

func buildPDFDocEncoding() [256]rune {
	out := winAnsiEncoding
	overrides := map[byte]rune{
		0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
		0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
		0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
		0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
		0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
		0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
		0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
		0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
		0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
		0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0xA0: 0x20AC,
	}
	for b, r := range overrides {
		out[b] = r
	}
	for b := byte(0x00); b < 0x18; b++ {
		out[b] = rune(b)
	}
	return out
}

// nameToRune maps glyph names used in a font's /Encoding/Differences
// array (and in AGL-style CMap resources) to Unicode code points. This
// covers the common Latin/typographic subset; an unrecognized name
// maps to 0 and is left unresolved by the caller.
var nameToRune = buildNameToRune()

func buildNameToRune() map[string]rune {
	m := map[string]rune{
		"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
		"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
		"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
		"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
		"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
		"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
		"backslash": '\\', "bracketright": ']', "asciicircum": '^',
		"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
		"braceright": '}', "asciitilde": '~', "bullet": 0x2022,
		"quoteleft": 0x2018, "quoteright": 0x2019, "quotedblleft": 0x201C,
		"quotedblright": 0x201D, "endash": 0x2013, "emdash": 0x2014,
		"fi": 0xFB01, "fl": 0xFB02, "dagger": 0x2020, "daggerdbl": 0x2021,
		"ellipsis": 0x2026, "trademark": 0x2122, "Euro": 0x20AC,
	}
	digits := []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	for i, d := range digits {
		m[d] = rune('0' + i)
	}
	for c := 'A'; c <= 'Z'; c++ {
		m[string(c)] = c
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = c
	}
	return m
}

// isUTF16 reports whether s is a PDF text string carrying a UTF-16BE
// byte-order mark (0xFE 0xFF), the convention used for strings outside
// PDFDocEncoding's range (ISO 32000-1 §7.9.2.2).
func isUTF16(s string) bool {
	if len(s) < 2 || s[0] != 0xFE || s[1] != 0xFF {
		return false
	}
	return (len(s)-2)%2 == 0
}

// utf16Decode decodes a big-endian UTF-16 byte string (without its BOM,
// if the caller has already stripped one) to UTF-8. Odd-length input
// loses its trailing byte: every complete leading pair still decodes.
func utf16Decode(s string) string {
	if len(s)%2 != 0 {
		logger.Debug("utf16Decode: odd-length input, dropping trailing byte")
		s = s[:len(s)-1]
	}
	units := make([]uint16, len(s)/2)
	for i := range units {
		units[i] = uint16(s[2*i])<<8 | uint16(s[2*i+1])
	}
	return string(utf16.Decode(units))
}

// isPDFDocEncoded is a heuristic: s is treated as PDFDocEncoded text
// (rather than UTF-16 or raw bytes) when it isn't a UTF-16 string and
// every byte maps to something other than the replacement character.
func isPDFDocEncoded(s string) bool {
	if isUTF16(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if pdfDocEncoding[s[i]] == unicode.ReplacementChar {
			return false
		}
	}
	return true
}

func pdfDocDecode(s string) string {
	r := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		r = append(r, pdfDocEncoding[s[i]])
	}
	return string(r)
}

// DecodeUTF8OrPreserve interprets s as UTF-8 when valid, and otherwise
// preserves each byte as its own rune — used by the CMap decoder so an
// unmapped code never silently disappears from the extracted text.
func DecodeUTF8OrPreserve(s string) []rune {
	if utf8.ValidString(s) {
		return []rune(s)
	}
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, rune(s[i]))
	}
	return out
}

// IsSameSentence reports whether current continues the run of text
// started by last: same font and (within floating-point tolerance)
// font size, and a baseline that hasn't jumped by more than one line.
func IsSameSentence(last, current Text) bool {
	if last.S == "" {
		return false
	}
	if last.Font != current.Font {
		return false
	}
	if math.Abs(last.FontSize-current.FontSize) > 0.5 {
		return false
	}
	maxLineJump := last.FontSize * 1.5
	if maxLineJump <= 0 {
		maxLineJump = 20
	}
	if math.Abs(last.Y-current.Y) > maxLineJump {
		return false
	}
	return true
}
