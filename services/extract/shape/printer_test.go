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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	f := newFixture(t, map[string]string{"print.ts": `
type A = 'a'|'b';
type B = "a" | "b";
type C = [string,number,   boolean];
type D = Array<string | number>;
type E = (string | null)[];
type F = {   a: string;
  b: number };
type G = 1 | 2;
type H = [];
`})
	file, err := f.prog.Load(context.Background(), filepath.Join(f.dir, "print.ts"))
	require.NoError(t, err)

	tests := []struct {
		alias string
		want  string
	}{
		{"A", `"a" | "b"`},
		{"B", `"a" | "b"`},
		{"C", "[string, number, boolean]"},
		{"D", "Array<string | number>"},
		{"E", "(string | null)[]"},
		{"F", "{ a: string; b: number }"},
		{"G", "1 | 2"},
		{"H", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			decl := file.FindDeclaration(tt.alias)
			require.NotNil(t, decl)
			assert.Equal(t, tt.want, Print(file, decl.ChildByFieldName("value")))
		})
	}
}

func TestPrint_Nil(t *testing.T) {
	assert.Equal(t, "", Print(nil, nil))
}
