// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchPreservesOrderAndReportsPerFileErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	paths := []string{"missing-a.pdf", "missing-b.pdf", "missing-c.pdf"}

	results, err := Batch(context.Background(), cfg, paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))
	for i, path := range paths {
		assert.Equal(t, path, results[i].Path)
		assert.Error(t, results[i].Err)
	}
}

func TestBatchMetadataReportsPerFileErrors(t *testing.T) {
	cfg := NewDefaultConfig()
	paths := []string{"missing-a.pdf", "missing-b.pdf"}

	seen := make(map[string]error)
	err := BatchMetadata(context.Background(), cfg, paths, func(path string, ferr error) {
		seen[path] = ferr
	})
	require.NoError(t, err)
	require.Len(t, seen, len(paths))
	for _, path := range paths {
		assert.Error(t, seen[path])
	}
}

func TestDiscardWriterAlwaysSucceeds(t *testing.T) {
	var d discard
	n, err := d.Write([]byte("anything"))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)
}
