// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjptrString(t *testing.T) {
	p := objptr{id: 12, gen: 3}
	assert.Equal(t, "12 3 R", p.String())
}

func TestNewDictEmpty(t *testing.T) {
	d := newDict()
	assert.NotNil(t, d)
	assert.Len(t, d, 0)
}
