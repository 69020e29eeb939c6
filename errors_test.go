// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDFErrorError(t *testing.T) {
	e := newPDFError(ErrCodeMalformedPDF, "bad xref")
	assert.Equal(t, "[MALFORMED_PDF] bad xref", e.Error())

	wrapped := wrapPDFError(ErrCodeIOError, "read failed", errors.New("disk full"))
	assert.Equal(t, "[IO_ERROR] read failed: disk full", wrapped.Error())
}

func TestPDFErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	wrapped := wrapPDFError(ErrCodeStreamError, "decode failed", cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestPDFErrorIsMatchesByCode(t *testing.T) {
	a := newPDFError(ErrCodeEncrypted, "locked")
	b := newPDFError(ErrCodeEncrypted, "different message, same code")
	assert.True(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrEncrypted))

	c := newPDFError(ErrCodeUnsupported, "nope")
	assert.False(t, errors.Is(a, c))
}

func TestPDFErrorIsRejectsNonPDFError(t *testing.T) {
	a := newPDFError(ErrCodeMalformedPDF, "bad")
	assert.False(t, a.Is(errors.New("plain error")))
}

func TestPDFErrorWithContext(t *testing.T) {
	e := newPDFError(ErrCodeXRefError, "bad offset")
	e.WithContext("offset", 1234).WithContext("object", 7)
	assert.Equal(t, 1234, e.Context["offset"])
	assert.Equal(t, 7, e.Context["object"])
}
