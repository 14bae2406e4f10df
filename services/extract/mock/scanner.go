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

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// Scanner finds annotated variable declarations.
//
// Thread Safety:
//
//	Scanner is stateless and safe for concurrent use.
type Scanner struct {
	marker *ast.Marker
}

// NewScanner creates a Scanner recognizing the given marker.
func NewScanner(marker *ast.Marker) *Scanner {
	return &Scanner{marker: marker}
}

// Scan returns the annotated API declarations of file in source order.
//
// Description:
//
//	A `const`, `let` or `var` statement qualifies when its leading doc
//	comment carries the marker tag, or a leading comment has a
//	`[word] text` line. Qualifying statements are not descended into;
//	other statements are, so declarations inside functions are found too.
//
// Inputs:
//   - ctx: Context for tracing.
//   - file: The parsed file. Nil yields nil.
//
// Outputs:
//   - []CallSite: One entry per qualifying declaration.
func (s *Scanner) Scan(ctx context.Context, file *ast.SourceFile) []CallSite {
	if file == nil || file.Root == nil {
		return nil
	}
	_, span := tracer.Start(ctx, "mock.Scan", trace.WithAttributes(
		attribute.String("file", file.Path),
	))
	defer span.End()

	var sites []CallSite
	ast.Walk(file.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case ast.NodeLexicalDeclaration, ast.NodeVariableDeclaration:
		default:
			return true
		}
		comment, ok := s.marker.Comment(file, n)
		if !ok {
			return true
		}
		sites = append(sites, collect(file, n, comment))
		return false
	})

	span.SetAttributes(attribute.Int("call_sites", len(sites)))
	callSitesTotal.Add(float64(len(sites)))
	return sites
}

// collect gathers the call-site parts of one declaration in a single
// depth-first pass.
func collect(file *ast.SourceFile, decl *sitter.Node, comment string) CallSite {
	site := CallSite{
		Comment: comment,
		File:    file,
		Line:    int(decl.StartPoint().Row) + 1,
	}
	var nameSeen, callSeen bool
	ast.Walk(decl, func(n *sitter.Node) bool {
		switch n.Type() {
		case ast.NodeVariableDeclarator:
			if !nameSeen {
				if name := n.ChildByFieldName("name"); name != nil && name.Type() == ast.NodeIdentifier {
					site.Name = file.Text(name)
					nameSeen = true
				}
			}
		case ast.NodeMemberExpression:
			if site.Access == nil {
				site.Access = n
			}
		case ast.NodeCallExpression:
			if !callSeen {
				callSeen = true
				site.TypeArgs = namedChildren(n.ChildByFieldName("type_arguments"))
				site.Args = namedChildren(n.ChildByFieldName("arguments"))
			}
		}
		return true
	})
	return site
}

// namedChildren returns the named, non-comment children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == ast.NodeComment {
			continue
		}
		out = append(out, c)
	}
	return out
}
