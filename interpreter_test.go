// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackPushPopLen(t *testing.T) {
	var s Stack
	assert.Equal(t, 0, s.Len())
	s.Push(Value{data: int64(1)})
	s.Push(Value{data: int64(2)})
	assert.Equal(t, 2, s.Len())

	top := s.Pop()
	assert.Equal(t, int64(2), top.Int64())
	assert.Equal(t, 1, s.Len())
}

func TestStackPopEmptyReturnsNull(t *testing.T) {
	var s Stack
	v := s.Pop()
	assert.True(t, v.IsNull())
}

func newTestStreamValue(content string) Value {
	f := bytes.NewReader([]byte(content))
	r := &Reader{f: f}
	strm := stream{hdr: dict{name("Length"): int64(len(content))}}
	return Value{r: r, data: strm}
}

func TestInterpretBasicOperators(t *testing.T) {
	strm := newTestStreamValue("1 0 0 1 0 0 cm (Hi) Tj")

	var ops []string
	Interpret(strm, func(stk *Stack, op string) {
		ops = append(ops, op)
		if op == "Tj" {
			require.Equal(t, 1, stk.Len())
			assert.Equal(t, "Hi", stk.Pop().RawString())
		}
		if op == "cm" {
			assert.Equal(t, 6, stk.Len())
		}
	})
	assert.Equal(t, []string{"cm", "Tj"}, ops)
}

func TestInterpretNonStreamIsNoOp(t *testing.T) {
	called := false
	Interpret(Value{data: dict{}}, func(stk *Stack, op string) {
		called = true
	})
	assert.False(t, called)
}

func TestInterpretSkipsInlineImage(t *testing.T) {
	strm := newTestStreamValue("BI /W 1 /H 1 ID \x00 EI (after) Tj")

	var ops []string
	Interpret(strm, func(stk *Stack, op string) {
		ops = append(ops, op)
	})
	assert.Equal(t, []string{"Tj"}, ops)
}
