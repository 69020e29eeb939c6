// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphaReader_Read(t *testing.T) {
	// Mixed input:
	//   indices: 0:'!' (valid) 1:'u' (valid) 2:'x' (invalid) 3:'y' (invalid)
	//            4:'z' (zero-group shorthand, valid) 5:'~' (tilde) 6:'>' (terminator) 7:'A' (after terminator)
	src := []byte("!uxyz~>A")
	r := newAlphaReader(bytes.NewReader(src))

	buf := make([]byte, len(src))
	n, err := r.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, len(src), n, "Read should return number of bytes read from underlying reader")

	// Expect valid ASCII85 bytes preserved at same indices
	assert.Equal(t, byte('!'), buf[0], "valid ASCII85 '!' should be preserved")
	assert.Equal(t, byte('u'), buf[1], "valid ASCII85 'u' should be preserved")
	// 'x' and 'y' are dropped, so 'z' is packed in right after them
	assert.Equal(t, byte('z'), buf[2], "the 'z' shorthand should be preserved")

	// The rest of the consumed count should be zeroed (and processing should stop at '~>')
	for i := 3; i < len(src); i++ {
		// positions 3..7 should be zero because 'x','y' were dropped and '~>' ends processing
		assert.Equalf(t, byte(0), buf[i], "expected buf[%d] to be zero (invalid or after terminator)", i)
	}
}

func TestApplyFilterASCII85DecodeManPage(t *testing.T) {
	// The canonical Adobe ASCII85 sample: "Man is distinguished..."
	const encoded = `9jqo^BlbD-BleB1DJ+*+F(f,q/0JhKF<GL>Cj@.4Gp$d7F!,L7@<6@)/0JDEF<G%<+EV:2F!,O<DJ+*.@<*K0@<6L(Df-\0Ec5e;DffZ(EZee.Bl.9pF"AGXBPCsi+DGm>@3BB/F*&OCAfu2/AKYi(DIb:@FD,*)+C]U=@3BN#EcYf8ATD3s@q?d$AftVqCh[NqF<G:8+EV:.+Cf>-FD5W8ARlolDIal(DId<j@<?3r@:F%a+D58'ATD4$Bl@l3De:,-DJs` + "`" + `8ARoFb/0JMK@qB4^F!,R<AKZ&-DfTqBG%G>uD.RTpAKYo'+CT/5+Cei#DII?(E,9)oF*2M7/c~>`
	r := applyFilter(bytes.NewReader([]byte(encoded)), "ASCII85Decode", Value{})
	out, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t,
		"Man is distinguished, not only by his reason, but by this singular passion from other animals, which is a lust of the mind, that by a perseverance of delight in the continued and indefatigable generation of knowledge, exceeds the short vehemence of any carnal pleasure.",
		string(out))
}
