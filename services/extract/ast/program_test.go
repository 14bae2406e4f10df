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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgram(t *testing.T, opts ...ProgramOption) *Program {
	t.Helper()
	prog, err := NewProgram(opts...)
	require.NoError(t, err)
	t.Cleanup(prog.Close)
	return prog
}

func TestProgram_Load_Memoizes(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "user.ts", "export interface User { id: string }")
	prog := newTestProgram(t)
	ctx := context.Background()

	first, err := prog.Load(ctx, path)
	require.NoError(t, err)
	second, err := prog.Load(ctx, path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, prog.Len())
	assert.Equal(t, path, first.Path)
}

func TestProgram_Load_MissingFile(t *testing.T) {
	prog := newTestProgram(t)
	missing := filepath.Join(t.TempDir(), "missing.ts")

	_, err := prog.Load(context.Background(), missing)
	require.ErrorIs(t, err, ErrFileNotFound)

	_, err = prog.Load(context.Background(), missing)
	assert.ErrorIs(t, err, ErrFileNotFound, "failures are memoized")
	assert.Equal(t, 0, prog.Len())
}

func TestProgram_Preload(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.ts", "type A = string;")
	b := writeSource(t, dir, "b.ts", "type B = number;")
	c := writeSource(t, dir, "c.ts", "type C = boolean;")
	missing := filepath.Join(dir, "missing.ts")

	prog := newTestProgram(t, WithPreloadLimit(2))
	files, err := prog.Preload(context.Background(), []string{c, missing, a, b})
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, c, files[0].Path)
	assert.Equal(t, a, files[1].Path)
	assert.Equal(t, b, files[2].Path)
	assert.Equal(t, 3, prog.Len())

	cached, err := prog.Load(context.Background(), a)
	require.NoError(t, err)
	assert.Same(t, files[1], cached)
}

func TestProgram_Preload_Canceled(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.ts", "type A = string;")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProgram(t).Preload(ctx, []string{a})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgram_LocateType_FollowsImports(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models/user.ts", "export interface User { id: string }")
	writeSource(t, dir, "models/index.ts", "export * from './user';\nexport { Role as Kind } from './role';")
	writeSource(t, dir, "models/role.ts", "export type Role = 'admin' | 'guest';")
	calls := writeSource(t, dir, "calls.ts", "import { User, Kind } from './models';\nimport { User as Person } from './models/user';")

	prog := newTestProgram(t)
	ctx := context.Background()
	file, err := prog.Load(ctx, calls)
	require.NoError(t, err)

	tests := []struct {
		name     string
		wantFile string
		wantDecl string
	}{
		{"User", "user.ts", "User"},
		{"Person", "user.ts", "User"},
		{"Kind", "role.ts", "Role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, decl, err := prog.LocateType(ctx, file, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFile, filepath.Base(found.Path))
			assert.Equal(t, tt.wantDecl, found.Text(decl.ChildByFieldName("name")))
		})
	}
}

func TestProgram_LocateType_Unresolvable(t *testing.T) {
	dir := t.TempDir()
	calls := writeSource(t, dir, "calls.ts", "import { Gone } from './gone';\ntype Local = string;")
	prog := newTestProgram(t)
	ctx := context.Background()
	file, err := prog.Load(ctx, calls)
	require.NoError(t, err)

	_, _, err = prog.LocateType(ctx, file, "Gone")
	assert.ErrorIs(t, err, ErrModuleNotResolved)

	_, _, err = prog.LocateType(ctx, file, "Nowhere")
	assert.ErrorIs(t, err, ErrDeclarationNotFound)

	_, decl, err := prog.LocateType(ctx, file, "Local")
	require.NoError(t, err)
	assert.Equal(t, NodeTypeAlias, decl.Type())
}

func TestProgram_LocateType_PrefersAliasIndex(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "models.ts", `
export interface Box { plain: string }
export type Box<T> = { value: T };
export interface Page<T> { list: T[] }
`)
	calls := writeSource(t, dir, "calls.ts", "import { Box, Page } from './models';\n")
	prog := newTestProgram(t)
	ctx := context.Background()
	file, err := prog.Load(ctx, calls)
	require.NoError(t, err)

	tests := []struct {
		name     string
		nodeType string
	}{
		{name: "Box", nodeType: NodeTypeAlias},
		{name: "Page", nodeType: NodeInterface},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, decl, err := prog.LocateType(ctx, file, tt.name)
			require.NoError(t, err)
			assert.Equal(t, "models.ts", filepath.Base(owner.Path))

			indexed, ok := owner.Alias(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.nodeType, decl.Type())
			assert.Equal(t, indexed.StartByte(), decl.StartByte())
		})
	}
}

func TestProgram_LocateType_CircularImports(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.ts", "import { X } from './b';\nexport { X };")
	writeSource(t, dir, "b.ts", "import { X } from './a';\nexport { X };")
	prog := newTestProgram(t)
	ctx := context.Background()
	file, err := prog.Load(ctx, a)
	require.NoError(t, err)

	_, _, err = prog.LocateType(ctx, file, "X")
	assert.ErrorIs(t, err, ErrDeclarationNotFound)
}

func TestProgram_LocateVariable(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "api.ts", "export const api = new Api<Base>({ headers: { 'X-A': '1' } });")
	calls := writeSource(t, dir, "calls.ts", "import { api } from './api';\nconst local = 1;")
	prog := newTestProgram(t)
	ctx := context.Background()
	file, err := prog.Load(ctx, calls)
	require.NoError(t, err)

	found, decl, err := prog.LocateVariable(ctx, file, "api")
	require.NoError(t, err)
	assert.Equal(t, "api.ts", filepath.Base(found.Path))
	assert.Equal(t, NodeNewExpression, decl.ChildByFieldName("value").Type())

	_, decl, err = prog.LocateVariable(ctx, file, "local")
	require.NoError(t, err)
	assert.Equal(t, "local", file.Text(decl.ChildByFieldName("name")))
}

func TestProgram_ModuleRoots(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "src/shared/page.ts", "export interface Page { total: number }")
	calls := writeSource(t, dir, "app/calls.ts", "import { Page } from 'shared/page';")
	prog := newTestProgram(t, WithModuleRoots(filepath.Join(dir, "src")))
	ctx := context.Background()
	file, err := prog.Load(ctx, calls)
	require.NoError(t, err)

	found, _, err := prog.LocateType(ctx, file, "Page")
	require.NoError(t, err)
	assert.Equal(t, "page.ts", filepath.Base(found.Path))
}
