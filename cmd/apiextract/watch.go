// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/config"
)

// watchDebounce coalesces bursts of file events into one run.
const watchDebounce = 200 * time.Millisecond

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-run extraction whenever a source file changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, args)
		},
	}
}

// runWatch extracts once, then again after every burst of changes to a
// source file under paths, until ctx is done.
func runWatch(ctx context.Context, opts *rootOptions, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range watchDirs(paths, opts.cfg, opts.logger) {
		addWatch(watcher, dir, opts.logger)
	}

	extract := func() {
		if err := runExtract(ctx, opts, paths); err != nil && ctx.Err() == nil {
			opts.logger.Error("extraction failed", slog.String("error", err.Error()))
		}
	}
	extract()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(filepath.Base(ev.Name), opts.cfg) {
					addWatch(watcher, ev.Name, opts.logger)
				}
			}
			if !relevant(ev, opts.cfg) {
				continue
			}
			opts.logger.Debug("source changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.logger.Warn("watch error", slog.String("error", err.Error()))
		case <-timer.C:
			extract()
		}
	}
}

// addWatch adds dir to w. A directory that cannot be watched is logged and
// skipped; changes under it will not trigger a run.
func addWatch(w *fsnotify.Watcher, dir string, logger *slog.Logger) {
	if err := w.Add(dir); err != nil {
		logger.Warn("cannot watch directory", slog.String("dir", dir), slog.String("error", err.Error()))
	}
}

// relevant reports whether ev changes a source file.
func relevant(ev fsnotify.Event, cfg *config.Config) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return ast.HasSourceExtension(ev.Name, cfg.Sources.Extensions)
}

// watchDirs returns the directories to watch for paths: every directory
// input with its non-hidden, non-excluded subdirectories, and the parent
// of every file input.
func watchDirs(paths []string, cfg *config.Config, logger *slog.Logger) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, input := range paths {
		info, err := os.Stat(input)
		if err != nil {
			logger.Warn("cannot watch path", slog.String("path", input), slog.String("error", err.Error()))
			continue
		}
		if !info.IsDir() {
			add(filepath.Dir(input))
			continue
		}
		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("cannot walk directory", slog.String("dir", path), slog.String("error", err.Error()))
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != input && skipDir(d.Name(), cfg) {
				return fs.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			logger.Warn("cannot walk directory", slog.String("dir", input), slog.String("error", err.Error()))
		}
	}
	return dirs
}

func skipDir(name string, cfg *config.Config) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(cfg.Sources.ExcludeDirs, name)
}
