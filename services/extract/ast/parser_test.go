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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importsSource = `import { User, Role as R } from './user';
import type { Page } from "../page";
import Default from './default';
import * as ns from './ns';
export { Paged, Item as Entry } from './paged';
export * from './common';
export * as extra from './extra';

type ID = string;
type Box<T> = { value: T };
interface Wrapper<T> { data: T }
interface Plain { a: string }

declare namespace API {
  interface Inner<K> { key: K }
}
`

func TestParser_Parse_IndexesImports(t *testing.T) {
	file := parseSource(t, importsSource, "/src/api.ts")

	assert.Equal(t, Import{Module: "./user", Name: "User"}, file.Imports["User"])
	assert.Equal(t, Import{Module: "./user", Name: "Role"}, file.Imports["R"])
	assert.Equal(t, Import{Module: "../page", Name: "Page"}, file.Imports["Page"])
	assert.Equal(t, Import{Module: "./paged", Name: "Paged"}, file.Imports["Paged"])
	assert.Equal(t, Import{Module: "./paged", Name: "Item"}, file.Imports["Entry"])

	_, hasDefault := file.ImportOf("Default")
	assert.False(t, hasDefault, "default imports are not indexed")
	_, hasNamespace := file.ImportOf("ns")
	assert.False(t, hasNamespace, "namespace imports are not indexed")
	_, hasRole := file.ImportOf("Role")
	assert.False(t, hasRole, "aliased imports are indexed under the alias")

	assert.Equal(t, []string{"./common"}, file.Reexports)
}

func TestParser_Parse_IndexesGenericAliases(t *testing.T) {
	file := parseSource(t, importsSource, "/src/api.ts")

	for _, name := range []string{"ID", "Box", "Wrapper", "Inner"} {
		_, ok := file.Alias(name)
		assert.True(t, ok, "expected alias %s", name)
	}
	_, ok := file.Alias("Plain")
	assert.False(t, ok, "non-generic interfaces are not indexed")

	box, _ := file.Alias("Box")
	assert.Equal(t, []string{"T"}, file.TypeParameterNames(box))
}

func TestParser_Parse_FindDeclaration(t *testing.T) {
	file := parseSource(t, importsSource, "/src/api.ts")

	plain := file.FindDeclaration("Plain")
	require.NotNil(t, plain)
	assert.Equal(t, NodeInterface, plain.Type())

	inner := file.FindDeclaration("Inner")
	require.NotNil(t, inner, "declarations in namespaces are found")

	assert.Nil(t, file.FindDeclaration("Missing"))
	assert.Nil(t, file.FindDeclaration(""))
}

func TestParser_Parse_HeritageNames(t *testing.T) {
	file := parseSource(t, `interface A { a: string }
interface B { b: number }
interface C extends A, B { c: boolean }
`, "/src/h.ts")

	c := file.FindDeclaration("C")
	require.NotNil(t, c)
	parents := file.HeritageNames(c)
	require.Len(t, parents, 2)
	assert.Equal(t, "A", file.Text(parents[0]))
	assert.Equal(t, "B", file.Text(parents[1]))
}

func TestParser_Parse_TSX(t *testing.T) {
	file := parseSource(t, `export interface Props { title: string }
export const View = (p: Props) => <div>{p.title}</div>;
`, "/src/view.tsx")

	assert.False(t, file.HasErrors)
	assert.NotNil(t, file.FindDeclaration("Props"))
}

func TestParser_Parse_SyntaxErrorsTolerated(t *testing.T) {
	file := parseSource(t, "interface Ok { a: string }\nconst = = ;\n", "/src/bad.ts")

	assert.True(t, file.HasErrors)
	assert.NotNil(t, file.FindDeclaration("Ok"))
}

func TestParser_Parse_RejectsOversizedContent(t *testing.T) {
	parser := NewParser(WithMaxFileSize(16))

	_, err := parser.Parse(context.Background(), []byte(strings.Repeat("a", 17)), "/src/big.ts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestParser_Parse_RejectsInvalidUTF8(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), []byte{0xff, 0xfe, 0xfd}, "/src/bin.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestParser_Parse_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().Parse(ctx, []byte("type A = string;"), "/src/a.ts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourceFile_NodeKey(t *testing.T) {
	file := parseSource(t, "type A = string;\ntype B = number;\n", "/src/keys.ts")

	a := file.FindDeclaration("A")
	b := file.FindDeclaration("B")
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.Equal(t, "/src/keys.ts#type_alias_declaration@0", file.NodeKey(a))
	assert.NotEqual(t, file.NodeKey(a), file.NodeKey(b))
	assert.Equal(t, "", file.NodeKey(nil))
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"/user/:id"`, "/user/:id"},
		{`'/user'`, "/user"},
		{"`/tpl`", "/tpl"},
		{`"mismatched'`, `"mismatched'`},
		{`x`, `x`},
		{`""`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Unquote(tt.in), "input %s", tt.in)
	}
}
