// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

// This file rounds out the CMap module with the two variants that sit
// alongside the File CMap already implemented as the unexported `cmap`
// type in page.go (readCmap, parsed from an embedded ToUnicode
// stream): Identity, used directly by name, and Builtin, a small
// registry of the predefined non-embedded CMaps a CID font may
// reference instead of shipping its own.

// identityCMap maps every 2-byte code straight to the same value
// interpreted as a UTF-16BE code unit — the behavior of the
// "Identity-H"/"Identity-V" predefined CMaps when used, as they
// usually are for text extraction purposes, as a stand-in ToUnicode
// map on fonts that never embedded one of their own.
type identityCMap struct{}

func (identityCMap) Decode(raw string) string {
	return utf16Decode(raw)
}

// builtinCMaps holds the handful of predefined CMaps commonly found on
// non-embedded CJK CID fonts. Each entry decodes 2-byte codes straight
// through as UTF-16BE, which is sufficient for the identity-style
// encodings; the vertical-writing and non-identity registry CMaps
// (e.g. UniGB-UCS2-H) are out of scope and fall back to the same
// identity behavior, which recovers plain ASCII/Latin runs correctly
// and otherwise preserves the raw code point.
var builtinCMaps = map[string]TextEncoding{
	"Identity-H":    identityCMap{},
	"Identity-V":    identityCMap{},
	"UniGB-UCS2-H":  identityCMap{},
	"UniGB-UCS2-V":  identityCMap{},
	"UniCNS-UCS2-H": identityCMap{},
	"UniJIS-UCS2-H": identityCMap{},
	"UniKS-UCS2-H":  identityCMap{},
}

// builtinCMap looks up a predefined CMap by its PostScript name,
// returning (nil, false) for registry CMaps this package does not
// special-case.
func builtinCMap(psName string) (TextEncoding, bool) {
	enc, ok := builtinCMaps[psName]
	return enc, ok
}
