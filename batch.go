// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"fmt"

	"github.com/coredoc/pdfxtract/logger"
	"golang.org/x/sync/errgroup"
)

// BatchResult carries one document's outcome out of Batch. Err is set
// when that document's extraction failed; the other documents in the
// batch are unaffected (Batch never aborts the group on a single
// failure, regardless of Config.ParsingMode, since that mode already
// governs page-level strictness within one document).
type BatchResult struct {
	Path      string
	Text      string
	Truncated bool
	Err       error
}

// Batch extracts every path concurrently, bounded by
// Config.MaxConcurrentPDFs, and returns one BatchResult per input path
// in the same order they were given. Where Extract fans a single
// document's pages out across a worker pool bounded by
// MaxWorkersPerPDF, Batch is the document-level analog: many files,
// each run through a fresh processor.
func Batch(ctx context.Context, cfg *Config, paths []string) ([]BatchResult, error) {
	p := NewProcessor(cfg)
	results := make([]BatchResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrentPDFs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			text, truncated, err := p.Extract(gctx, path)
			if err != nil {
				logger.Debug(fmt.Sprintf("batch: extraction failed: path=%s err=%v", path, err), true)
			}
			results[i] = BatchResult{Path: path, Text: text, Truncated: truncated, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// BatchMetadata runs Metadata across many documents concurrently,
// discarding the rendered JSON and reporting each document's outcome
// by calling write with its path and error. write may be called from
// several goroutines at once, so it must do its own synchronization.
func BatchMetadata(ctx context.Context, cfg *Config, paths []string, write func(path string, err error)) error {
	p := NewProcessor(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxConcurrentPDFs)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			err := p.Metadata(gctx, path, discard{})
			write(path, err)
			return nil
		})
	}
	return g.Wait()
}

// discard is an io.Writer that ignores all data, used by BatchMetadata
// when the caller only wants the error/side-channel path, not the
// rendered JSON itself.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
