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
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk visits root and its named descendants in pre-order. fn reports
// whether the children of the visited node should be visited too.
func Walk(root *sitter.Node, fn func(*sitter.Node) bool) {
	if root == nil || root.IsNull() {
		return
	}
	if !fn(root) {
		return
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		Walk(root.NamedChild(i), fn)
	}
}

// FirstNamed returns the first named child of n whose type is one of types.
func FirstNamed(n *sitter.Node, types ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

// StringContent returns the text of a string literal node without quotes.
func StringContent(file *SourceFile, n *sitter.Node) string {
	return Unquote(file.Text(n))
}

// Unquote strips one pair of matching single, double, or back quotes.
// Escape sequences are left as written.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last {
		return s
	}
	switch first {
	case '"', '\'', '`':
		return s[1 : len(s)-1]
	}
	return s
}
