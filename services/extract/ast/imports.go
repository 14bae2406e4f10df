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
	sitter "github.com/smacker/go-tree-sitter"
)

// extractImports maps every named import binding to its module.
//
// Description:
//
//	Handles `import { A, B as C } from './x'` and `import type { D } from './y'`.
//	The local binding is the key and the exported name is kept on the
//	Import, so `C` resolves to `B` in './x'. Default and namespace imports
//	are skipped: only names that can be looked up as declarations in the
//	target file are followed.
func extractImports(file *SourceFile) map[string]Import {
	imports := make(map[string]Import)
	Walk(file.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case NodeImportStatement:
		case NodeExportStatement:
			if n.ChildByFieldName("source") != nil {
				extractReexport(file, n, imports)
				return false
			}
			return true
		default:
			return true
		}
		source := n.ChildByFieldName("source")
		if source == nil || source.Type() != NodeString {
			return false
		}
		module := StringContent(file, source)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			clause := n.NamedChild(i)
			if clause.Type() != NodeImportClause {
				continue
			}
			for j := 0; j < int(clause.NamedChildCount()); j++ {
				named := clause.NamedChild(j)
				if named.Type() != NodeNamedImports {
					continue
				}
				for k := 0; k < int(named.NamedChildCount()); k++ {
					spec := named.NamedChild(k)
					if spec.Type() != NodeImportSpecifier {
						continue
					}
					name := file.Text(spec.ChildByFieldName("name"))
					local := file.Text(spec.ChildByFieldName("alias"))
					if local == "" {
						local = name
					}
					if local != "" {
						imports[local] = Import{Module: module, Name: name}
					}
				}
			}
		}
		return false
	})
	return imports
}

// extractReexport records `export { A, B as C } from './x'` as imports of
// A and C, and `export * from './x'` as a re-exported module.
func extractReexport(file *SourceFile, n *sitter.Node, imports map[string]Import) {
	module := StringContent(file, n.ChildByFieldName("source"))
	clause := FirstNamed(n, NodeExportClause)
	if clause == nil {
		if FirstNamed(n, "namespace_export") == nil {
			file.Reexports = append(file.Reexports, module)
		}
		return
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		if spec.Type() != NodeExportSpecifier {
			continue
		}
		name := file.Text(spec.ChildByFieldName("name"))
		local := file.Text(spec.ChildByFieldName("alias"))
		if local == "" {
			local = name
		}
		if local != "" {
			imports[local] = Import{Module: module, Name: name}
		}
	}
}

// extractTypeParameterAliases indexes type aliases and generic interfaces.
//
// Description:
//
//	Every type alias is indexed. Interfaces are indexed only when they
//	declare type parameters; plain interfaces are found by FindDeclaration
//	instead. Declarations nested in namespaces are included.
func extractTypeParameterAliases(file *SourceFile) map[string]*sitter.Node {
	aliases := make(map[string]*sitter.Node)
	Walk(file.Root, func(n *sitter.Node) bool {
		switch n.Type() {
		case NodeTypeAlias:
			if name := file.Text(n.ChildByFieldName("name")); name != "" {
				if _, seen := aliases[name]; !seen {
					aliases[name] = n
				}
			}
			return false
		case NodeInterface:
			if n.ChildByFieldName("type_parameters") == nil {
				return false
			}
			if name := file.Text(n.ChildByFieldName("name")); name != "" {
				if _, seen := aliases[name]; !seen {
					aliases[name] = n
				}
			}
			return false
		}
		return true
	})
	return aliases
}

// FindDeclaration returns the first interface or type alias named name.
//
// Description:
//
//	Walks the whole tree in source order, so declarations inside
//	`declare namespace` blocks and export statements are found too.
//
// Outputs:
//   - *sitter.Node: The interface_declaration or type_alias_declaration, or nil.
func (f *SourceFile) FindDeclaration(name string) *sitter.Node {
	if f == nil || name == "" {
		return nil
	}
	var found *sitter.Node
	Walk(f.Root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		switch n.Type() {
		case NodeInterface, NodeTypeAlias:
			if f.Text(n.ChildByFieldName("name")) == name {
				found = n
			}
			return false
		}
		return true
	})
	return found
}

// FindType returns the declaration name denotes in f, consulting the
// alias index before walking the tree.
func (f *SourceFile) FindType(name string) *sitter.Node {
	if n, ok := f.Alias(name); ok {
		return n
	}
	return f.FindDeclaration(name)
}

// FindVariable returns the first variable_declarator named name.
func (f *SourceFile) FindVariable(name string) *sitter.Node {
	if f == nil || name == "" {
		return nil
	}
	var found *sitter.Node
	Walk(f.Root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == NodeVariableDeclarator && f.Text(n.ChildByFieldName("name")) == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// TypeParameterNames returns the declared type parameter names of a
// declaration, in order.
func (f *SourceFile) TypeParameterNames(decl *sitter.Node) []string {
	if decl == nil {
		return nil
	}
	params := decl.ChildByFieldName("type_parameters")
	if params == nil {
		return nil
	}
	names := make([]string, 0, params.NamedChildCount())
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != NodeTypeParameter {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil && p.NamedChildCount() > 0 {
			name = p.NamedChild(0)
		}
		names = append(names, f.Text(name))
	}
	return names
}

// HeritageNames returns the parent type nodes of an interface's extends clause.
func (f *SourceFile) HeritageNames(decl *sitter.Node) []*sitter.Node {
	if decl == nil || decl.Type() != NodeInterface {
		return nil
	}
	var parents []*sitter.Node
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if child.Type() != NodeExtendsTypeClause {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			parents = append(parents, child.NamedChild(j))
		}
	}
	return parents
}
