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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCacheSize is the number of parsed files a Program keeps.
	DefaultCacheSize = 1024

	// DefaultPreloadLimit bounds the goroutines used by Preload.
	DefaultPreloadLimit = 8
)

// ErrDeclarationNotFound indicates a name has no reachable declaration.
var ErrDeclarationNotFound = errors.New("declaration not found")

// ProgramOption configures a Program.
type ProgramOption func(*Program)

// WithParser sets the parser used to load files.
func WithParser(parser *Parser) ProgramOption {
	return func(p *Program) {
		if parser != nil {
			p.parser = parser
		}
	}
}

// WithModuleRoots sets the directories non-relative specifiers resolve against.
func WithModuleRoots(roots ...string) ProgramOption {
	return func(p *Program) {
		p.roots = append(p.roots[:0], roots...)
	}
}

// WithCacheSize sets how many parsed files stay cached.
func WithCacheSize(size int) ProgramOption {
	return func(p *Program) {
		if size > 0 {
			p.cacheSize = size
		}
	}
}

// WithPreloadLimit sets the parallelism of Preload.
func WithPreloadLimit(limit int) ProgramOption {
	return func(p *Program) {
		if limit > 0 {
			p.preloadLimit = limit
		}
	}
}

// WithLogger sets the logger for load failures.
func WithLogger(logger *slog.Logger) ProgramOption {
	return func(p *Program) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Program is the set of source files loaded during one extraction run.
//
// Description:
//
//	Files are keyed by absolute path, parsed at most once, and memoized in
//	an LRU cache. Cross-file lookups (imports, re-exports) go through the
//	Program so every resolution in a run shares the same parsed trees.
//	Load failures are memoized as well, so a missing import is reported
//	once per run.
//
// Thread Safety:
//
//	A Program is not safe for concurrent use. Preload parallelizes its own
//	reads internally and inserts results from the calling goroutine.
//
// Example:
//
//	prog, err := NewProgram(WithModuleRoots("/repo/src"))
//	if err != nil {
//	    return err
//	}
//	defer prog.Close()
//	file, err := prog.Load(ctx, "/repo/src/api/user.ts")
type Program struct {
	parser       *Parser
	roots        []string
	cacheSize    int
	preloadLimit int
	logger       *slog.Logger

	files   *lru.Cache[string, *SourceFile]
	failed  map[string]error
	closing bool
}

// NewProgram creates an empty Program.
func NewProgram(opts ...ProgramOption) (*Program, error) {
	p := &Program{
		parser:       NewParser(),
		cacheSize:    DefaultCacheSize,
		preloadLimit: DefaultPreloadLimit,
		logger:       slog.Default(),
		failed:       make(map[string]error),
	}
	for _, opt := range opts {
		opt(p)
	}

	files, err := lru.NewWithEvict[string, *SourceFile](p.cacheSize, p.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating file cache: %w", err)
	}
	p.files = files
	return p, nil
}

// onEvict releases trees only when the Program is closing. Files evicted
// during a run may still be referenced by the caller; their trees are
// released by the tree-sitter finalizer.
func (p *Program) onEvict(_ string, file *SourceFile) {
	if p.closing {
		file.close()
	}
}

// Len returns the number of cached files.
func (p *Program) Len() int {
	return p.files.Len()
}

// Load returns the parsed file at path, reading and parsing it on first use.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - path: File path. Relative paths are made absolute.
//
// Outputs:
//   - *SourceFile: The parsed file.
//   - error: ErrFileNotFound, a parse error, or a context error.
func (p *Program) Load(ctx context.Context, path string) (*SourceFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if file, ok := p.files.Get(abs); ok {
		return file, nil
	}
	if err, ok := p.failed[abs]; ok {
		return nil, err
	}

	file, err := p.read(ctx, abs)
	if err != nil {
		if ctx.Err() == nil {
			p.failed[abs] = err
		}
		return nil, err
	}
	p.files.Add(abs, file)
	return file, nil
}

// read loads and parses one file without touching the cache.
func (p *Program) read(ctx context.Context, abs string) (*SourceFile, error) {
	content, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, abs)
		}
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	file, err := p.parser.Parse(ctx, content, abs)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", abs, err)
	}
	return file, nil
}

// Preload reads and parses paths in parallel and caches the results.
//
// Description:
//
//	Files are read and parsed on up to the preload limit goroutines. A
//	failing file is logged and skipped; it does not stop the others.
//	Results are cached from the calling goroutine in input order.
//
// Outputs:
//   - []*SourceFile: The successfully loaded files, in input order.
//   - error: Non-nil only when ctx is canceled.
func (p *Program) Preload(ctx context.Context, paths []string) ([]*SourceFile, error) {
	type result struct {
		file *SourceFile
		err  error
	}

	abs := make([]string, len(paths))
	for i, path := range paths {
		a, err := filepath.Abs(path)
		if err != nil {
			a = filepath.Clean(path)
		}
		abs[i] = a
	}

	results := make([]result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.preloadLimit)
	for i, path := range abs {
		if _, ok := p.files.Peek(path); ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, err := p.read(gctx, path)
			results[i] = result{file: file, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("preloading sources: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("preloading sources: %w", err)
	}

	loaded := make([]*SourceFile, 0, len(abs))
	for i, path := range abs {
		if cached, ok := p.files.Get(path); ok {
			loaded = append(loaded, cached)
			continue
		}
		if err := results[i].err; err != nil {
			p.failed[path] = err
			p.logger.Warn("skipping source file",
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		if results[i].file == nil {
			continue
		}
		p.files.Add(path, results[i].file)
		loaded = append(loaded, results[i].file)
	}
	return loaded, nil
}

// ResolveImport loads the file a named import of from points at.
//
// Outputs:
//   - *SourceFile: The imported file.
//   - string: The exported name to look up in it.
//   - error: ErrModuleNotResolved when name is not a named import or the
//     module cannot be resolved; load errors otherwise.
func (p *Program) ResolveImport(ctx context.Context, from *SourceFile, name string) (*SourceFile, string, error) {
	imp, ok := from.ImportOf(name)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s is not a named import in %s", ErrModuleNotResolved, name, from.Path)
	}
	path, err := ResolveModule(from.Path, imp.Module, p.roots)
	if err != nil {
		return nil, "", err
	}
	file, err := p.Load(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return file, imp.Name, nil
}

// LocateType finds the interface or type alias that name denotes in file.
//
// Description:
//
//	Looks in file itself first, then follows a named import or re-export,
//	then every `export * from` module, recursively. Each (file, name) pair
//	is visited once, so circular imports terminate.
//
// Outputs:
//   - *SourceFile: The file holding the declaration.
//   - *sitter.Node: The interface_declaration or type_alias_declaration.
//   - error: ErrDeclarationNotFound, ErrModuleNotResolved, or a load error.
func (p *Program) LocateType(ctx context.Context, file *SourceFile, name string) (*SourceFile, *sitter.Node, error) {
	return p.locate(ctx, file, name, (*SourceFile).FindType, make(map[string]bool))
}

// LocateVariable finds the variable declarator that name denotes in file,
// following imports the same way as LocateType.
func (p *Program) LocateVariable(ctx context.Context, file *SourceFile, name string) (*SourceFile, *sitter.Node, error) {
	return p.locate(ctx, file, name, (*SourceFile).FindVariable, make(map[string]bool))
}

func (p *Program) locate(
	ctx context.Context,
	file *SourceFile,
	name string,
	find func(*SourceFile, string) *sitter.Node,
	visited map[string]bool,
) (*SourceFile, *sitter.Node, error) {
	if file == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrDeclarationNotFound, name)
	}
	key := file.Path + "#" + name
	if visited[key] {
		return nil, nil, fmt.Errorf("%w: %s (circular import)", ErrDeclarationNotFound, name)
	}
	visited[key] = true

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if decl := find(file, name); decl != nil {
		return file, decl, nil
	}

	if _, ok := file.ImportOf(name); ok {
		target, exported, err := p.ResolveImport(ctx, file, name)
		if err != nil {
			return nil, nil, err
		}
		return p.locate(ctx, target, exported, find, visited)
	}

	for _, module := range file.Reexports {
		path, err := ResolveModule(file.Path, module, p.roots)
		if err != nil {
			continue
		}
		target, err := p.Load(ctx, path)
		if err != nil {
			continue
		}
		if found, decl, err := p.locate(ctx, target, name, find, visited); err == nil {
			return found, decl, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s in %s", ErrDeclarationNotFound, name, file.Path)
}

// Close releases every cached tree. The Program must not be used afterwards.
func (p *Program) Close() {
	p.closing = true
	p.files.Purge()
	p.failed = make(map[string]error)
}
