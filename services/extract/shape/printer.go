// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package shape

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// Print renders a type node as canonical text.
//
// Description:
//
//	Union members are joined with " | ", tuple elements are written as
//	"[A, B]", string literal types are double quoted, and runs of
//	whitespace inside any other construct collapse to one space. The
//	output is stable across formatting differences in the source, so
//	`'a'|'b'` and `"a" | "b"` print the same.
func Print(file *ast.SourceFile, t *sitter.Node) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	printType(&b, file, t)
	return b.String()
}

func printType(b *strings.Builder, file *ast.SourceFile, t *sitter.Node) {
	switch t.Type() {
	case nodeUnionType:
		first := true
		for _, member := range unionMembers(t) {
			if !first {
				b.WriteString(" | ")
			}
			first = false
			printType(b, file, member)
		}
	case nodeTupleType:
		b.WriteByte('[')
		written := 0
		for i := 0; i < int(t.NamedChildCount()); i++ {
			elem := t.NamedChild(i)
			if elem.Type() == ast.NodeComment {
				continue
			}
			if written > 0 {
				b.WriteString(", ")
			}
			printType(b, file, elem)
			written++
		}
		b.WriteByte(']')
	case nodeParenthesizedType:
		b.WriteByte('(')
		if inner := t.NamedChild(0); inner != nil {
			printType(b, file, inner)
		}
		b.WriteByte(')')
	case nodeArrayType:
		if elem := t.NamedChild(0); elem != nil {
			printType(b, file, elem)
		}
		b.WriteString("[]")
	case nodeGenericType:
		printType(b, file, t.ChildByFieldName("name"))
		args := t.ChildByFieldName("type_arguments")
		b.WriteByte('<')
		for i := 0; args != nil && i < int(args.NamedChildCount()); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			printType(b, file, args.NamedChild(i))
		}
		b.WriteByte('>')
	case nodeLiteralType:
		if lit := t.NamedChild(0); lit != nil && lit.Type() == ast.NodeString {
			b.WriteByte('"')
			b.WriteString(ast.StringContent(file, lit))
			b.WriteByte('"')
			return
		}
		b.WriteString(normalizeSpace(file.Text(t)))
	default:
		b.WriteString(normalizeSpace(file.Text(t)))
	}
}

// unionMembers flattens the left-nested union_type chain into its members.
func unionMembers(t *sitter.Node) []*sitter.Node {
	var members []*sitter.Node
	for i := 0; i < int(t.NamedChildCount()); i++ {
		child := t.NamedChild(i)
		if child.Type() == ast.NodeComment {
			continue
		}
		if child.Type() == nodeUnionType {
			members = append(members, unionMembers(child)...)
			continue
		}
		members = append(members, child)
	}
	return members
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
