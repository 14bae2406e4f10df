// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast loads TypeScript source files with tree-sitter and exposes the
// syntactic facts the extractor needs: named imports, generic type aliases,
// declarations by name, and the comments leading a node.
package ast

import (
	"errors"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	// DefaultMaxFileSize is the largest source file the parser accepts (10MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged before parsing.
	WarnFileSize = 1024 * 1024
)

// Tree-sitter node types used across the package.
const (
	NodeProgram              = "program"
	NodeComment              = "comment"
	NodeImportStatement      = "import_statement"
	NodeImportClause         = "import_clause"
	NodeNamedImports         = "named_imports"
	NodeImportSpecifier      = "import_specifier"
	NodeExportStatement      = "export_statement"
	NodeExportClause         = "export_clause"
	NodeExportSpecifier      = "export_specifier"
	NodeLexicalDeclaration   = "lexical_declaration"
	NodeVariableDeclaration  = "variable_declaration"
	NodeVariableDeclarator   = "variable_declarator"
	NodeInterface            = "interface_declaration"
	NodeTypeAlias            = "type_alias_declaration"
	NodeTypeParameters       = "type_parameters"
	NodeTypeParameter        = "type_parameter"
	NodeExtendsTypeClause    = "extends_type_clause"
	NodePropertySignature    = "property_signature"
	NodeTypeAnnotation       = "type_annotation"
	NodeCallExpression       = "call_expression"
	NodeNewExpression        = "new_expression"
	NodeMemberExpression     = "member_expression"
	NodeIdentifier           = "identifier"
	NodeTypeIdentifier       = "type_identifier"
	NodeNestedTypeIdent      = "nested_type_identifier"
	NodeString               = "string"
	NodeStringFragment       = "string_fragment"
	NodeTemplateString       = "template_string"
	NodeTemplateSubstitution = "template_substitution"
	NodeObject               = "object"
	NodePair                 = "pair"
)

// Sentinel errors returned by the parser and the program.
var (
	// ErrFileTooLarge indicates the content exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileNotFound indicates a source file does not exist on disk.
	ErrFileNotFound = errors.New("source file not found")

	// ErrModuleNotResolved indicates a module specifier did not map to a file.
	ErrModuleNotResolved = errors.New("module not resolved")
)

// SourceFile is one parsed TypeScript file plus its lazily derived maps.
//
// Description:
//
//	Created by Parser.Parse. The import and alias maps are computed once,
//	when the file is first loaded by a Program, and never change afterwards.
//
// Thread Safety:
//
//	Read-only after construction. The underlying tree-sitter tree is owned
//	by the Program that loaded the file and is closed with it.
type SourceFile struct {
	// Path is the absolute, cleaned path of the file.
	Path string

	// Content is the raw source.
	Content []byte

	// Root is the program node of the tree.
	Root *sitter.Node

	// Imports maps a locally bound identifier to the module it was imported
	// from. Only named imports are recorded; default and namespace imports
	// are not. Named re-exports (`export { A } from './a'`) are recorded too,
	// so barrel files resolve like the files they forward to.
	Imports map[string]Import

	// Reexports lists the modules of `export * from '...'` statements.
	Reexports []string

	// Aliases maps a declaration name to its node for every type alias and
	// every interface that declares type parameters.
	Aliases map[string]*sitter.Node

	// HasErrors reports whether tree-sitter found syntax errors.
	HasErrors bool

	tree *sitter.Tree
}

// Text returns the source text of a node, or "" for nil.
func (f *SourceFile) Text(n *sitter.Node) string {
	if f == nil || n == nil {
		return ""
	}
	return string(f.Content[n.StartByte():n.EndByte()])
}

// Import is one named import binding.
type Import struct {
	// Module is the module specifier as written, e.g. "./user".
	Module string

	// Name is the exported name in Module. It differs from the local
	// binding for `import { A as B }`.
	Name string
}

// ImportOf returns the import binding for a locally used name.
func (f *SourceFile) ImportOf(name string) (Import, bool) {
	if f == nil || f.Imports == nil {
		return Import{}, false
	}
	imp, ok := f.Imports[name]
	return imp, ok
}

// Alias returns the generic alias or interface declared under name.
func (f *SourceFile) Alias(name string) (*sitter.Node, bool) {
	if f == nil || f.Aliases == nil {
		return nil, false
	}
	n, ok := f.Aliases[name]
	return n, ok
}

// NodeKey identifies a node across files, for visited sets.
func (f *SourceFile) NodeKey(n *sitter.Node) string {
	if f == nil || n == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(f.Path)
	b.WriteByte('#')
	b.WriteString(n.Type())
	b.WriteByte('@')
	b.WriteString(strconv.FormatUint(uint64(n.StartByte()), 10))
	return b.String()
}

// close releases the tree-sitter tree.
func (f *SourceFile) close() {
	if f != nil && f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}
