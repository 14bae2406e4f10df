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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/config"
)

// writeTree writes files under a fresh temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// loadFile parses one file through a Program closed with the test.
func loadFile(t *testing.T, path string) *ast.SourceFile {
	t.Helper()
	prog, err := ast.NewProgram()
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	file, err := prog.Load(context.Background(), path)
	require.NoError(t, err)
	return file
}

// parseSource parses src without touching the file system.
func parseSource(t *testing.T, src string) *ast.SourceFile {
	t.Helper()
	file, err := ast.NewParser().Parse(context.Background(), []byte(src), "/src/inline.ts")
	require.NoError(t, err)
	return file
}

// runDir runs a default-configured extraction over dir.
func runDir(t *testing.T, dir string) []Record {
	t.Helper()
	cfg, err := config.Default(context.Background())
	require.NoError(t, err)
	records, err := NewRunner(cfg, nil).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	return records
}

// byName indexes records by declaration name.
func byName(records []Record) map[string]Record {
	out := make(map[string]Record, len(records))
	for _, r := range records {
		out[r.Name] = r
	}
	return out
}

func defaultMarker() *ast.Marker {
	return ast.NewMarker("mock", "mock")
}
