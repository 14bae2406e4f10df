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
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"
)

// writeSource writes content to dir/name, creating parent directories.
func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// parseSource parses content as a file at path.
func parseSource(t *testing.T, content, path string) *SourceFile {
	t.Helper()
	file, err := NewParser().Parse(context.Background(), []byte(content), path)
	require.NoError(t, err)
	t.Cleanup(file.close)
	return file
}

// findNodes returns every named node of type nodeType in source order.
func findNodes(file *SourceFile, nodeType string) []*sitter.Node {
	var nodes []*sitter.Node
	Walk(file.Root, func(n *sitter.Node) bool {
		if n.Type() == nodeType {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}
