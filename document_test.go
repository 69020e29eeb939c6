// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrailerTestReader(trailer dict) *Reader {
	return &Reader{trailer: trailer, f: bytes.NewReader(nil)}
}

func TestDestLegacyDestsDict(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{
			name("Dests"): dict{
				name("Chapter1"): array{int64(1), name("Fit")},
			},
		},
	})
	v := r.Dest("Chapter1")
	require.Equal(t, Array, v.Kind())
	assert.Equal(t, int64(1), v.Index(0).Int64())
}

func TestDestNameTreeFallback(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{
			name("Names"): dict{
				name("Dests"): dict{
					name("Names"): array{
						"Intro", array{int64(2), name("Fit")},
						"Summary", array{int64(9), name("Fit")},
					},
				},
			},
		},
	})
	v := r.Dest("Summary")
	require.Equal(t, Array, v.Kind())
	assert.Equal(t, int64(9), v.Index(0).Int64())
}

func TestDestNameTreeWalksKids(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{
			name("Names"): dict{
				name("Dests"): dict{
					name("Kids"): array{
						dict{
							name("Names"): array{
								"Foo", array{int64(3)},
							},
						},
					},
				},
			},
		},
	})
	v := r.Dest("Foo")
	require.Equal(t, Array, v.Kind())
	assert.Equal(t, int64(3), v.Index(0).Int64())
}

func TestDestMissing(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{},
	})
	assert.True(t, r.Dest("nope").IsNull())
}

func TestVersionFallsBackToHeader(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{},
	})
	assert.Equal(t, "", r.Version())
}

func TestVersionPrefersCatalogOverride(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{
			name("Version"): name("1.7"),
		},
	})
	assert.Equal(t, "1.7", r.Version())
}

func TestPageModeDefault(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{},
	})
	assert.Equal(t, "UseNone", r.PageMode())
}

func TestPageModeExplicit(t *testing.T) {
	r := newTrailerTestReader(dict{
		name("Root"): dict{
			name("PageMode"): name("FullScreen"),
		},
	})
	assert.Equal(t, "FullScreen", r.PageMode())
}

func TestUnlockOrLogNoOpWhenNotEncrypted(t *testing.T) {
	r := newTrailerTestReader(dict{})
	// Should not panic even though there is no /Encrypt entry to unlock.
	r.unlockOrLog("password")
	assert.False(t, r.Encrypted())
}
