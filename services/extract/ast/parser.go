// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser turns TypeScript source into a SourceFile.
//
// Description:
//
//	Parser uses tree-sitter to parse TypeScript and TSX source. Each Parse
//	call creates its own tree-sitter parser, so one Parser value may be
//	shared between goroutines.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use.
//
// Example:
//
//	parser := NewParser()
//	file, err := parser.Parse(ctx, []byte("export interface User { id: string }"), "/src/user.ts")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(file.Aliases))
type Parser struct {
	maxFileSize int64
}

// NewParser creates a Parser with default limits and the given options.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses TypeScript source into a SourceFile.
//
// Description:
//
//	Validates size and encoding, parses with the TSX grammar for ".tsx"
//	files and the TypeScript grammar otherwise, then indexes the file's
//	named imports and generic aliases. Syntax errors do not fail the parse;
//	tree-sitter is error tolerant and the partial tree is still usable.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw source bytes. Must be valid UTF-8.
//   - filePath: Path recorded on the SourceFile. Callers pass absolute paths.
//
// Outputs:
//   - *SourceFile: The parsed file. Never nil on success.
//   - error: ErrFileTooLarge, ErrInvalidContent, or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	file := &SourceFile{
		Path:    filePath,
		Content: content,
		Root:    root,
		tree:    tree,
	}
	if root == nil {
		tree.Close()
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter returned nil root node for %s", filePath)
	}

	file.HasErrors = root.HasError()
	if file.HasErrors {
		slog.Debug("source contains syntax errors", slog.String("file", filePath))
	}

	file.Imports = extractImports(file)
	file.Aliases = extractTypeParameterAliases(file)

	setParseSpanResult(span, len(file.Imports), len(file.Aliases), file.HasErrors)
	recordParseMetrics(time.Since(start), true)

	return file, nil
}

// Extensions returns the file extensions this parser handles.
func (p *Parser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}
