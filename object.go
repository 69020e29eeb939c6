// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import "fmt"

// object is the untyped representation of a parsed PDF object: one of
// nil, bool, int64, float64, string, name, dict, array, stream, objptr,
// objdef or keyword.
type object interface{}

// name is a PDF name constant, such as /Type, stored without its
// leading slash.
type name string

// keyword is a bare PDF token such as obj, endobj, R, stream or an
// operator in a content or CMap stream (Tj, BT, begincmap, ...).
type keyword string

// dict is a PDF dictionary, <<...>>.
type dict map[name]object

// newDict returns an empty dictionary, used as a placeholder object
// by CMap interpretation hooks that only care about stack shape.
func newDict() dict {
	return make(dict)
}

// array is a PDF array, [...].
type array []object

// objptr is an indirect reference, "id gen R".
type objptr struct {
	id  uint32
	gen uint16
}

func (p objptr) String() string {
	return fmt.Sprintf("%d %d R", p.id, p.gen)
}

// objdef is a fully parsed indirect object, "id gen obj ... endobj".
type objdef struct {
	ptr objptr
	obj object
}

// stream is a PDF stream object: a header dictionary plus the file
// offset of the raw (still filtered) stream bytes.
type stream struct {
	hdr    dict
	ptr    objptr
	offset int64
}
