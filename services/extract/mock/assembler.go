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
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/shape"
)

// Assembler turns call sites into Records.
//
// Thread Safety:
//
//	Not safe for concurrent use; it shares the Program of its Binder.
type Assembler struct {
	scanner   *Scanner
	binder    *Binder
	extractor *shape.Extractor
	types     ContentTypes
	logger    *slog.Logger
}

// NewAssembler wires the scanner, binder and extractor of one run.
func NewAssembler(scanner *Scanner, binder *Binder, extractor *shape.Extractor, types ContentTypes, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		scanner:   scanner,
		binder:    binder,
		extractor: extractor,
		types:     types,
		logger:    logger,
	}
}

// AssembleFile returns one Record per annotated declaration of file.
func (a *Assembler) AssembleFile(ctx context.Context, file *ast.SourceFile) []Record {
	sites := a.scanner.Scan(ctx, file)
	records := make([]Record, 0, len(sites))
	for _, site := range sites {
		records = append(records, a.Assemble(ctx, site))
	}
	return records
}

// Assemble builds the Record of one call site.
//
// Description:
//
//	Binds the API object, extracts and flattens the response (first type
//	argument) and request (second type argument) shapes, reads the URL
//	from a string literal first argument and merges headers. A missing
//	part leaves its field empty; a Record is always produced.
//
// Outputs:
//   - Record: Slices and the header map are never nil.
func (a *Assembler) Assemble(ctx context.Context, site CallSite) Record {
	ctx, span := tracer.Start(ctx, "mock.Assemble", trace.WithAttributes(
		attribute.String("name", site.Name),
		attribute.Int("line", site.Line),
	))
	defer span.End()

	def := a.binder.Bind(ctx, site.Access, site.File)

	record := Record{
		URL:      literalURL(site.File, site.Args),
		Name:     site.Name,
		Comment:  site.Comment,
		Method:   def.Method,
		Headers:  MergeHeaders(site.File, site.Args, def, a.types),
		Base:     nonNil(def.Response),
		Response: shape.Flatten(a.extractor.Extract(ctx, site.ResponseType(), site.File)),
		Request:  shape.Flatten(a.extractor.Extract(ctx, site.RequestType(), site.File)),
	}

	if record.URL == "" {
		a.logger.Debug("api declaration has no literal url",
			slog.String("file", site.File.Path),
			slog.String("name", site.Name),
			slog.Int("line", site.Line))
	}
	span.SetAttributes(
		attribute.String("url", record.URL),
		attribute.String("method", record.Method),
	)
	return record
}

// literalURL returns the unquoted first argument when it is a plain string
// or a template string without substitutions.
func literalURL(file *ast.SourceFile, args []*sitter.Node) string {
	if len(args) == 0 {
		return ""
	}
	arg := args[0]
	switch arg.Type() {
	case ast.NodeString:
		return ast.StringContent(file, arg)
	case ast.NodeTemplateString:
		if ast.FirstNamed(arg, ast.NodeTemplateSubstitution) == nil {
			return ast.StringContent(file, arg)
		}
	}
	return ""
}

func nonNil(props []shape.Property) []shape.Property {
	if props == nil {
		return []shape.Property{}
	}
	return props
}
