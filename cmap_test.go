// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityCMapDecode(t *testing.T) {
	var enc TextEncoding = identityCMap{}
	// U+0041 U+0042 as big-endian UTF-16.
	out := enc.Decode(string([]byte{0x00, 0x41, 0x00, 0x42}))
	assert.Equal(t, "AB", out)
}

func TestBuiltinCMapKnownNames(t *testing.T) {
	for _, nm := range []string{"Identity-H", "Identity-V", "UniGB-UCS2-H", "UniJIS-UCS2-H"} {
		enc, ok := builtinCMap(nm)
		assert.True(t, ok, nm)
		assert.NotNil(t, enc)
	}
}

func TestBuiltinCMapUnknownName(t *testing.T) {
	_, ok := builtinCMap("UniGB-UTF16-H")
	assert.False(t, ok)
}

func TestIdentityCMapOddLengthDropsTrailingByte(t *testing.T) {
	// The dangling final byte cannot form a code unit; everything
	// before it still decodes.
	out := identityCMap{}.Decode(string([]byte{0x00, 0x41, 0x00, 0x42, 0x00}))
	assert.Equal(t, "AB", out)
}
