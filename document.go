// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import "github.com/coredoc/pdfxtract/logger"

// Dest resolves a named destination, checking the legacy /Root/Dests
// dictionary first and falling back to the /Root/Names/Dests name tree
// (ISO 32000-1 §7.7.4) used by modern producers.
func (r *Reader) Dest(destName string) Value {
	if legacy := r.Trailer().Key("Root").Key("Dests").Key(destName); !legacy.IsNull() {
		return legacy
	}
	tree := r.Trailer().Key("Root").Key("Names").Key("Dests")
	if tree.IsNull() {
		return Value{}
	}
	return lookupNameTree(tree, destName)
}

// lookupNameTree performs a linear walk of a name tree node (ISO
// 32000-1 §7.9.6): a leaf node has a flat /Names array of
// (name, value) pairs; an intermediate node has /Kids pointing at more
// nodes. A linear scan, rather than the binary search the sorted
// /Limits array would allow, keeps this correct even against the
// malformed-but-common case of an unsorted tree.
func lookupNameTree(node Value, key string) Value {
	if names := node.Key("Names"); names.Kind() == Array {
		for i := 0; i+1 < names.Len(); i += 2 {
			if names.Index(i).Text() == key {
				return names.Index(i + 1)
			}
		}
	}
	kids := node.Key("Kids")
	for i := 0; i < kids.Len(); i++ {
		if v := lookupNameTree(kids.Index(i), key); !v.IsNull() {
			return v
		}
	}
	return Value{}
}

// Version reports the /Root catalog's optional /Version override when
// present (a later producer may update the document without rewriting
// the header), falling back to the version in the file header.
func (r *Reader) Version() string {
	if v := r.Trailer().Key("Root").Key("Version").Name(); v != "" {
		return v
	}
	return r.headerVersion()
}

// PageMode reports the /Root catalog's /PageMode, such as
// "UseOutlines" or "FullScreen", defaulting to "UseNone".
func (r *Reader) PageMode() string {
	if m := r.Trailer().Key("Root").Key("PageMode").Name(); m != "" {
		return m
	}
	return "UseNone"
}

// unlockOrLog is a best-effort wrapper used by processor.go: it never
// returns an error, logging and proceeding with the file's existing
// (possibly still-locked) key instead. Strict-mode callers should call
// Unlock directly.
func (r *Reader) unlockOrLog(password string) {
	if !r.Encrypted() {
		return
	}
	if err := r.Unlock(password); err != nil {
		logger.Error("document: unlock failed: " + err.Error())
	}
}
