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
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// moduleSuffixes are appended to a specifier base, in order, when
// resolving a module to a file.
var moduleSuffixes = []string{"", ".ts", ".tsx", ".d.ts", ".mts", ".cts"}

// indexFiles are tried inside a directory specifier.
var indexFiles = []string{"index.ts", "index.tsx"}

// jsExtensions are rewritten to their TypeScript counterparts, since ESM
// sources import `./user.js` for a file named user.ts.
var jsExtensions = map[string]string{
	".js":  ".ts",
	".jsx": ".tsx",
	".mjs": ".mts",
	".cjs": ".cts",
}

// IsRelativeSpecifier reports whether a module specifier is file relative.
func IsRelativeSpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// ModuleCandidates lists the file paths tried for a specifier base, in order.
//
// Example:
//
//	ModuleCandidates("/src/user")
//	// /src/user, /src/user.ts, /src/user.tsx, /src/user.d.ts, /src/user.mts,
//	// /src/user.cts, /src/user/index.ts, /src/user/index.tsx
func ModuleCandidates(base string) []string {
	candidates := make([]string, 0, len(moduleSuffixes)+len(indexFiles)+1)
	for _, suffix := range moduleSuffixes {
		candidates = append(candidates, base+suffix)
	}
	for _, index := range indexFiles {
		candidates = append(candidates, filepath.Join(base, index))
	}
	if ts, ok := jsExtensions[filepath.Ext(base)]; ok {
		candidates = append(candidates, strings.TrimSuffix(base, filepath.Ext(base))+ts)
	}
	return candidates
}

// ResolveModule maps a module specifier written in fromPath to a file.
//
// Description:
//
//	Relative specifiers are resolved against the directory of fromPath.
//	Absolute specifiers are used as written. Anything else is a package
//	style specifier and is tried against each module root in order. The
//	first candidate from ModuleCandidates that is a regular file wins.
//
// Inputs:
//   - fromPath: Absolute path of the importing file.
//   - specifier: The module specifier as written in the import.
//   - roots: Absolute directories for non-relative specifiers. May be empty.
//
// Outputs:
//   - string: The cleaned path of the resolved file.
//   - error: ErrModuleNotResolved when no candidate exists.
func ResolveModule(fromPath, specifier string, roots []string) (string, error) {
	var bases []string
	switch {
	case specifier == "":
	case IsRelativeSpecifier(specifier):
		bases = append(bases, filepath.Join(filepath.Dir(fromPath), filepath.FromSlash(specifier)))
	case filepath.IsAbs(specifier):
		bases = append(bases, filepath.Clean(specifier))
	default:
		for _, root := range roots {
			bases = append(bases, filepath.Join(root, filepath.FromSlash(specifier)))
		}
	}

	for _, base := range bases {
		for _, candidate := range ModuleCandidates(base) {
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				moduleResolutionsTotal.WithLabelValues("resolved").Inc()
				return filepath.Clean(candidate), nil
			}
		}
	}

	moduleResolutionsTotal.WithLabelValues("unresolved").Inc()
	return "", fmt.Errorf("%w: %q imported from %s", ErrModuleNotResolved, specifier, fromPath)
}
