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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ExpandInputs turns input paths into the source files they denote.
//
// Description:
//
//	A file is kept when its name ends with one of extensions. A directory
//	is walked recursively; hidden entries and directories named in
//	excludeDirs are skipped. Paths that do not exist are logged and
//	skipped. The result is deduplicated and keeps input order, with
//	directory contents in lexical order.
//
// Inputs:
//   - paths: Files and directories, as given on the command line.
//   - extensions: Recognized suffixes, e.g. ".ts".
//   - excludeDirs: Directory names never entered, e.g. "node_modules".
//
// Outputs:
//   - []string: Absolute paths of the recognized files.
func ExpandInputs(paths, extensions, excludeDirs []string) []string {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, input := range paths {
		info, err := os.Stat(input)
		if err != nil {
			slog.Warn("skipping input", slog.String("path", input), slog.String("error", err.Error()))
			continue
		}
		if !info.IsDir() {
			if HasSourceExtension(input, extensions) {
				add(input)
			}
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("skipping unreadable entry", slog.String("path", path), slog.String("error", err.Error()))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path != input && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != input && slices.Contains(excludeDirs, d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && HasSourceExtension(path, extensions) {
				add(path)
			}
			return nil
		})
		if err != nil {
			slog.Warn("walking input directory failed", slog.String("path", input), slog.String("error", err.Error()))
		}
	}
	return files
}

// HasSourceExtension reports whether path ends with one of extensions.
func HasSourceExtension(path string, extensions []string) bool {
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
