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
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleCandidates_Order(t *testing.T) {
	base := filepath.Join("/src", "user")

	assert.Equal(t, []string{
		base,
		base + ".ts",
		base + ".tsx",
		base + ".d.ts",
		base + ".mts",
		base + ".cts",
		filepath.Join(base, "index.ts"),
		filepath.Join(base, "index.tsx"),
	}, ModuleCandidates(base))
}

func TestModuleCandidates_JSExtension(t *testing.T) {
	candidates := ModuleCandidates(filepath.Join("/src", "user.js"))
	assert.Equal(t, filepath.Join("/src", "user.ts"), candidates[len(candidates)-1])
}

func TestResolveModule(t *testing.T) {
	dir := t.TempDir()
	from := writeSource(t, dir, "api/calls.ts", "")
	user := writeSource(t, dir, "api/user.ts", "")
	view := writeSource(t, dir, "api/view.tsx", "")
	decl := writeSource(t, dir, "types/global.d.ts", "")
	index := writeSource(t, dir, "models/index.ts", "")
	pkg := writeSource(t, dir, "lib/shared/page.ts", "")

	roots := []string{filepath.Join(dir, "missing-root"), filepath.Join(dir, "lib")}

	tests := []struct {
		specifier string
		want      string
	}{
		{"./user", user},
		{"./user.ts", user},
		{"./user.js", user},
		{"./view", view},
		{"../types/global", decl},
		{"../models", index},
		{"shared/page", pkg},
	}
	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			got, err := ResolveModule(from, tt.specifier, roots)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveModule_NotResolved(t *testing.T) {
	dir := t.TempDir()
	from := writeSource(t, dir, "calls.ts", "")
	writeSource(t, dir, "models/readme.md", "")

	before := testutil.ToFloat64(moduleResolutionsTotal.WithLabelValues("unresolved"))

	for _, specifier := range []string{"./missing", "./models", "react", ""} {
		_, err := ResolveModule(from, specifier, nil)
		assert.ErrorIs(t, err, ErrModuleNotResolved, "specifier %q", specifier)
	}

	after := testutil.ToFloat64(moduleResolutionsTotal.WithLabelValues("unresolved"))
	assert.Equal(t, float64(4), after-before)
}

func TestIsRelativeSpecifier(t *testing.T) {
	assert.True(t, IsRelativeSpecifier("./a"))
	assert.True(t, IsRelativeSpecifier("../a"))
	assert.True(t, IsRelativeSpecifier("."))
	assert.False(t, IsRelativeSpecifier("react"))
	assert.False(t, IsRelativeSpecifier(".hidden"))
}
