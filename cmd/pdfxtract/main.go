// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Command pdfxtract extracts text and metadata from one or more PDF
// files from the command line through the xtract package's Processor
// and Batch APIs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	xtract "github.com/coredoc/pdfxtract"
	"github.com/coredoc/pdfxtract/tracer"
)

func main() {
	var (
		strict      = flag.Bool("strict", false, "fail a document on the first page error instead of skipping it")
		maxChars    = flag.Int("max-chars", 0, "truncate combined output after this many characters (0 = unlimited)")
		concurrency = flag.Int("concurrency", 5, "maximum number of PDFs to process concurrently")
		workers     = flag.Int("workers", 1, "maximum number of pages to extract concurrently per PDF")
		password    = flag.String("password", "", "password to try if a document's /Encrypt dictionary rejects the empty password")
		timeout     = flag.Duration("timeout", 60*time.Second, "overall deadline for the run")
		metadata    = flag.Bool("metadata", false, "print metadata JSON instead of extracted text")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file.pdf [file2.pdf ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := xtract.NewDefaultConfig()
	cfg.MaxConcurrentPDFs = *concurrency
	cfg.MaxWorkersPerPDF = *workers
	cfg.MaxTotalChars = *maxChars
	cfg.Password = *password
	if *strict {
		cfg.ParsingMode = xtract.Strict
	} else {
		cfg.ParsingMode = xtract.BestEffort
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	defer tracer.Flush()

	if *metadata {
		runMetadata(ctx, cfg, paths)
		return
	}
	runExtract(ctx, cfg, paths)
}

func runExtract(ctx context.Context, cfg *xtract.Config, paths []string) {
	if len(paths) == 1 {
		proc := xtract.NewProcessor(cfg)
		text, truncated, err := proc.Extract(ctx, paths[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", paths[0], err)
			os.Exit(1)
		}
		fmt.Print(text)
		if truncated {
			fmt.Fprintln(os.Stderr, "(output truncated)")
		}
		return
	}

	results, err := xtract.Batch(ctx, cfg, paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}
	exitCode := 0
	for _, r := range results {
		fmt.Println(strings.Repeat("=", 8), r.Path, strings.Repeat("=", 8))
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
			exitCode = 1
			continue
		}
		fmt.Print(r.Text)
		if r.Truncated {
			fmt.Fprintln(os.Stderr, "(output truncated)")
		}
	}
	os.Exit(exitCode)
}

func runMetadata(ctx context.Context, cfg *xtract.Config, paths []string) {
	proc := xtract.NewProcessor(cfg)
	exitCode := 0
	for _, path := range paths {
		if len(paths) > 1 {
			fmt.Println(strings.Repeat("=", 8), path, strings.Repeat("=", 8))
		}
		if err := proc.Metadata(ctx, path, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}
