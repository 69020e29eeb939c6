// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/coredoc/pdfxtract/logger"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

type Config struct {
	MaxConcurrentPDFs int           `validate:"min=1,max=10"`
	MaxWorkersPerPDF  int           `validate:"min=1,max=10"`
	WorkerTimeout     time.Duration `validate:"required"`
	ParsingMode       ParsingMode   `validate:"oneof=strict best-effort"`
	MaxRetries        int           `validate:"min=0,max=3"`
	MaxTotalChars     int           `validate:"min=0"`
	DebugOn           bool
	Logger            logger.LogFunc
	// Password unlocks encrypted documents whose owner/user password is
	// known in advance. NewReader always tries the empty password first;
	// this is only consulted when that attempt fails and a processor
	// needs to retry with a real password.
	Password string
	// LAParams configures the layout engine (Layout/GroupLines/
	// GroupTextBoxes/GroupBoxes) that page text extraction is built on.
	LAParams LAParams
	// AllowTextExtractionOverride lets a caller extract text from a
	// document whose /Encrypt permission bits forbid it (P & 16 == 0).
	// Extract refuses by default and returns ErrTextExtractionNotAllowed;
	// this is the explicit opt-in the caller must set to proceed anyway.
	AllowTextExtractionOverride bool
	// Metrics           MetricsInterface
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		MaxWorkersPerPDF:  1,
		WorkerTimeout:     5 * time.Second,
		ParsingMode:       BestEffort,
		MaxRetries:        3,
		MaxTotalChars:     0,
		DebugOn:           false,
		LAParams:          DefaultLAParams(),
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
