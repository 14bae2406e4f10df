// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/config"
	"github.com/AleutianAI/apiextract/services/extract/shape"
)

// Runner performs extraction runs with one configuration.
//
// Thread Safety:
//
//	Each Run builds its own Program, so a Runner may be used from several
//	goroutines.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil logger uses slog.Default().
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run extracts the Records of every annotated declaration under paths.
//
// Description:
//
//	Directories are expanded to their source files, the files are parsed
//	up front, then every file is scanned and assembled in input order.
//	Imported files are loaded on demand and cached for the run. Files
//	that fail to load are logged and skipped.
//
// Inputs:
//   - ctx: Checked between files.
//   - paths: Files and directories.
//
// Outputs:
//   - []Record: Never nil.
//   - error: Non-nil only for cancellation or an unusable configuration.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "mock.Run")
	defer span.End()
	start := time.Now()

	cfg := r.cfg
	marker := ast.NewMarker(cfg.Marker.Tag, cfg.Marker.Comment)
	prog, err := ast.NewProgram(
		ast.WithParser(ast.NewParser(ast.WithMaxFileSize(cfg.Sources.MaxFileSizeBytes))),
		ast.WithModuleRoots(cfg.Sources.ModuleRoots...),
		ast.WithCacheSize(cfg.Cache.FileCacheSize),
		ast.WithPreloadLimit(cfg.Cache.PreloadWorkers),
		ast.WithLogger(r.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating program: %w", err)
	}
	defer prog.Close()

	extractor := shape.NewExtractor(prog,
		shape.WithMaxDepth(cfg.Extraction.MaxDepth),
		shape.WithBinaryTypes(cfg.Extraction.BinaryTypes...),
		shape.WithMarker(marker),
		shape.WithLogger(r.logger),
	)
	assembler := NewAssembler(
		NewScanner(marker),
		NewBinder(prog, extractor, r.logger),
		extractor,
		ContentTypes{URLEncoded: cfg.ContentTypes.URLEncoded, Form: cfg.ContentTypes.Form},
		r.logger,
	)

	inputs := ast.ExpandInputs(paths, cfg.Sources.Extensions, cfg.Sources.ExcludeDirs)
	files, err := prog.Preload(ctx, inputs)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction canceled: %w", err)
		}
		records = append(records, assembler.AssembleFile(ctx, file)...)
	}

	elapsed := time.Since(start)
	runDuration.Observe(elapsed.Seconds())
	recordsEmittedTotal.Add(float64(len(records)))
	span.SetAttributes(
		attribute.Int("inputs", len(inputs)),
		attribute.Int("files", len(files)),
		attribute.Int("records", len(records)),
	)
	r.logger.Info("extraction finished",
		slog.Int("inputs", len(inputs)),
		slog.Int("files", len(files)),
		slog.Int("records", len(records)),
		slog.Duration("elapsed", elapsed))
	return records, nil
}
