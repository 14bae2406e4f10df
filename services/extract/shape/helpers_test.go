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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// fixture is a temporary source tree loaded through one Program.
type fixture struct {
	dir  string
	prog *ast.Program
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	prog, err := ast.NewProgram()
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return &fixture{dir: dir, prog: prog}
}

// extractTarget extracts the value of `type Target = ...` declared in name.
func (f *fixture) extractTarget(t *testing.T, e *Extractor, name string) []Property {
	t.Helper()
	file, err := f.prog.Load(context.Background(), filepath.Join(f.dir, name))
	require.NoError(t, err)
	decl := file.FindDeclaration("Target")
	require.NotNil(t, decl, "fixture %s must declare Target", name)
	return e.Extract(context.Background(), decl.ChildByFieldName("value"), file)
}

// native builds a keyed, required Native property.
func native(key, value string) Property {
	return Property{Key: key, Type: KindNative, Value: Text(value), Required: true}
}
