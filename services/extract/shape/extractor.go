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
	"errors"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// Type node kinds the extractor distinguishes, beyond those in package ast.
const (
	nodePredefinedType    = "predefined_type"
	nodeLiteralType       = "literal_type"
	nodeGenericType       = "generic_type"
	nodeArrayType         = "array_type"
	nodeTupleType         = "tuple_type"
	nodeUnionType         = "union_type"
	nodeObjectType        = "object_type"
	nodeParenthesizedType = "parenthesized_type"
	nodeReadonlyType      = "readonly_type"
)

// DefaultMaxDepth bounds nested declaration expansions per Extract call.
const DefaultMaxDepth = 32

// DefaultBinaryTypes are reference names emitted as scalars, never expanded.
var DefaultBinaryTypes = []string{"Blob", "FormData"}

// scalarNames maps keyword types to the value of their Native node.
// Keywords missing here (void, unknown, never, object, symbol, bigint)
// produce an empty value.
var scalarNames = map[string]string{
	"string":    "string",
	"number":    "number",
	"boolean":   "boolean",
	"undefined": "undefined",
	"null":      "null",
	"any":       "any",
}

// category is the closed set of type node categories.
type category int

const (
	categoryOther category = iota
	categoryKeyword
	categoryLiteral
	categoryReference
	categoryArray
	categoryTuple
	categoryUnion
	categoryObject
)

func classify(t *sitter.Node) category {
	switch t.Type() {
	case nodePredefinedType:
		return categoryKeyword
	case nodeLiteralType:
		return categoryLiteral
	case ast.NodeTypeIdentifier, ast.NodeNestedTypeIdent, nodeGenericType:
		return categoryReference
	case nodeArrayType:
		return categoryArray
	case nodeTupleType:
		return categoryTuple
	case nodeUnionType:
		return categoryUnion
	case nodeObjectType:
		return categoryObject
	default:
		return categoryOther
	}
}

// TypeResolver finds the declaration a type name denotes as seen from file.
// *ast.Program implements it.
type TypeResolver interface {
	LocateType(ctx context.Context, file *ast.SourceFile, name string) (*ast.SourceFile, *sitter.Node, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxDepth sets how deeply declarations may nest in one extraction.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithBinaryTypes replaces the reference names treated as binary payloads.
func WithBinaryTypes(names ...string) Option {
	return func(e *Extractor) {
		e.binary = make(map[string]bool, len(names))
		for _, n := range names {
			e.binary[n] = true
		}
	}
}

// WithMarker sets the marker used to pick member comments.
func WithMarker(m *ast.Marker) Option {
	return func(e *Extractor) {
		if m != nil {
			e.marker = m
		}
	}
}

// WithLogger sets the logger for unresolved references and truncations.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor expands type nodes into Property trees.
//
// Description:
//
//	References are followed through the TypeResolver, across files when
//	the name is imported. Generic declarations bind their type parameters
//	to the shapes of the arguments given at the reference site. Every
//	failure degrades to an empty node; Extract never returns an error.
//
// Thread Safety:
//
//	An Extractor holds no per-call state and is safe for concurrent use
//	when its TypeResolver is. *ast.Program is not, so in practice one
//	goroutine drives extraction.
type Extractor struct {
	resolver TypeResolver
	marker   *ast.Marker
	binary   map[string]bool
	maxDepth int
	logger   *slog.Logger
}

// NewExtractor creates an Extractor that resolves names with resolver.
func NewExtractor(resolver TypeResolver, opts ...Option) *Extractor {
	e := &Extractor{
		resolver: resolver,
		marker:   ast.NewMarker("mock", "mock"),
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	WithBinaryTypes(DefaultBinaryTypes...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// expansion is the state of one Extract call.
type expansion struct {
	ctx context.Context

	// visiting holds the declarations on the current expansion path.
	visiting map[string]bool
	depth    int

	// bindings maps the type parameters of the declaration being expanded
	// to the shapes of their arguments.
	bindings map[string][]Property
}

// Extract expands a type node written in file.
//
// Description:
//
//	Keyword and literal types give one Native node. A reference without
//	type arguments expands in place to the declaration's members; with
//	arguments it gives one keyless TypeReference node wrapping them.
//	Arrays, tuples, unions and object literals give one node each.
//
// Inputs:
//   - ctx: Context for cancellation. A canceled context stops following
//     references.
//   - t: The type node. A type_annotation is accepted and unwrapped.
//   - file: The file t belongs to.
//
// Outputs:
//   - []Property: The extracted nodes. Nil when t is nil or unresolvable.
func (e *Extractor) Extract(ctx context.Context, t *sitter.Node, file *ast.SourceFile) []Property {
	if t == nil || file == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "shape.Extract", trace.WithAttributes(
		attribute.String("file", file.Path),
		attribute.String("node_type", t.Type()),
	))
	defer span.End()

	x := &expansion{ctx: ctx, visiting: make(map[string]bool)}
	props := e.extract(x, file, t, "")
	span.SetAttributes(attribute.Int("properties", len(props)))
	return props
}

// extract dispatches on the category of t. key is the member name when t
// is a member's declared type, "" otherwise.
func (e *Extractor) extract(x *expansion, file *ast.SourceFile, t *sitter.Node, key string) []Property {
	t = unwrap(t)
	if t == nil {
		return nil
	}
	switch classify(t) {
	case categoryKeyword:
		return []Property{node(key, KindNative, Text(scalarNames[file.Text(t)]))}
	case categoryLiteral:
		return []Property{node(key, KindNative, Text(literalText(file, t)))}
	case categoryReference:
		return e.reference(x, file, t, key)
	case categoryArray:
		return []Property{e.array(x, file, firstType(t), key)}
	case categoryTuple:
		return []Property{node(key, KindTuple, Text(Print(file, t)))}
	case categoryUnion:
		return []Property{node(key, KindUnion, Text(Print(file, t)))}
	case categoryObject:
		return []Property{node(key, KindTypeLiteral, Shape(e.members(x, file, t)))}
	default:
		return []Property{node(key, KindNative, Value{})}
	}
}

// node builds a required Property. Only member signatures can be
// optional; member overrides Required for them.
func node(key string, kind Kind, value Value) Property {
	return Property{Key: key, Type: kind, Value: value, Required: true}
}

// array builds the ArrayType node for an element type.
func (e *Extractor) array(x *expansion, file *ast.SourceFile, elem *sitter.Node, key string) Property {
	p := node(key, KindArray, Value{})
	elem = unwrap(elem)
	if elem == nil {
		return p
	}
	if name, ok := e.scalarName(file, elem); ok {
		p.Value = Text(name)
		return p
	}
	p.Value = Shape(e.extract(x, file, elem, ""))
	return p
}

// scalarName returns the value name of keyword, string literal and binary
// types, which arrays embed directly.
func (e *Extractor) scalarName(file *ast.SourceFile, t *sitter.Node) (string, bool) {
	switch t.Type() {
	case nodePredefinedType:
		name := scalarNames[file.Text(t)]
		return name, name != ""
	case nodeLiteralType:
		if lit := firstType(t); lit != nil && lit.Type() == ast.NodeString {
			return ast.StringContent(file, lit), true
		}
	case ast.NodeTypeIdentifier:
		if name := file.Text(t); e.binary[name] {
			return name, true
		}
	}
	return "", false
}

// reference handles a named type, generic or not.
func (e *Extractor) reference(x *expansion, file *ast.SourceFile, t *sitter.Node, key string) []Property {
	name, args := referenceParts(file, t)
	if name == "" {
		return []Property{node(key, KindNative, Value{})}
	}
	if len(args) == 0 {
		if e.binary[name] {
			return []Property{node(key, KindNative, Text(name))}
		}
		if t.Type() == ast.NodeTypeIdentifier {
			if scalar, ok := scalarNames[name]; ok {
				return []Property{node(key, KindNative, Text(scalar))}
			}
			if bound, ok := x.bindings[name]; ok {
				if key == "" {
					return bound
				}
				return []Property{node(key, KindReference, Shape(bound))}
			}
		}
	}
	if (name == "Array" || name == "ReadonlyArray") && len(args) == 1 {
		return []Property{e.array(x, file, args[0], key)}
	}

	body, found := e.expand(x, file, name, args)
	switch {
	case !found && key == "":
		return nil
	case !found:
		return []Property{node(key, KindReference, Shape(nil))}
	case key == "" && len(args) == 0:
		return body
	case key == "":
		return []Property{node("", KindReference, Shape(body))}
	case len(body) == 1 && body[0].Key == "":
		return []Property{node(key, body[0].Type, body[0].Value)}
	default:
		return []Property{node(key, KindReference, Shape(body))}
	}
}

// expand locates the declaration of name and extracts its body with the
// declaration's type parameters bound to args.
//
// Outputs:
//   - []Property: The declaration body. Empty when the expansion was cut
//     by the cycle or depth guard.
//   - bool: False when name has no reachable declaration.
func (e *Extractor) expand(x *expansion, file *ast.SourceFile, name string, args []*sitter.Node) ([]Property, bool) {
	if x.ctx.Err() != nil {
		return nil, false
	}

	// Arguments are written at the reference site and see its bindings.
	argShapes := make([][]Property, len(args))
	for i, arg := range args {
		argShapes[i] = e.extract(x, file, arg, "")
	}

	declFile, decl, err := e.resolver.LocateType(x.ctx, file, name)
	if err != nil {
		reason := "load"
		switch {
		case errors.Is(err, ast.ErrDeclarationNotFound):
			reason = "not_found"
		case errors.Is(err, ast.ErrModuleNotResolved):
			reason = "module"
		}
		unresolvedReferencesTotal.WithLabelValues(reason).Inc()
		e.logger.Debug("unresolved type reference",
			slog.String("name", name),
			slog.String("file", file.Path),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	nodeKey := declFile.NodeKey(decl)
	if x.visiting[nodeKey] || x.depth >= e.maxDepth {
		reason := "cycle"
		if !x.visiting[nodeKey] {
			reason = "depth"
		}
		truncatedExpansionsTotal.WithLabelValues(reason).Inc()
		e.logger.Debug("type expansion truncated",
			slog.String("name", name),
			slog.String("file", declFile.Path),
			slog.String("reason", reason),
			slog.Int("depth", x.depth),
		)
		return nil, true
	}

	params := declFile.TypeParameterNames(decl)
	bindings := make(map[string][]Property, len(params))
	for i, param := range params {
		if i < len(argShapes) {
			bindings[param] = argShapes[i]
		} else {
			bindings[param] = nil
		}
	}

	saved := x.bindings
	x.visiting[nodeKey] = true
	x.depth++
	x.bindings = bindings

	body := e.declaration(x, declFile, decl)

	x.bindings = saved
	x.depth--
	delete(x.visiting, nodeKey)
	return body, true
}

// declaration extracts the body of an interface or type alias.
func (e *Extractor) declaration(x *expansion, file *ast.SourceFile, decl *sitter.Node) []Property {
	switch decl.Type() {
	case ast.NodeInterface:
		var props []Property
		for _, parent := range file.HeritageNames(decl) {
			name, args := referenceParts(file, parent)
			if name == "" {
				continue
			}
			inherited, _ := e.expand(x, file, name, args)
			props = mergeMembers(props, inherited)
		}
		return mergeMembers(props, e.members(x, file, decl.ChildByFieldName("body")))
	case ast.NodeTypeAlias:
		value := unwrap(decl.ChildByFieldName("value"))
		if value != nil && value.Type() == nodeObjectType {
			return e.members(x, file, value)
		}
		return e.extract(x, file, value, "")
	default:
		return nil
	}
}

// members extracts the property signatures of an object type or
// interface body. Methods, index and call signatures are skipped.
func (e *Extractor) members(x *expansion, file *ast.SourceFile, body *sitter.Node) []Property {
	if body == nil {
		return nil
	}
	var props []Property
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != ast.NodePropertySignature {
			continue
		}
		if p, ok := e.member(x, file, child); ok {
			props = append(props, p)
		}
	}
	return props
}

// member extracts one property signature. Members without a type
// annotation are skipped.
func (e *Extractor) member(x *expansion, file *ast.SourceFile, sig *sitter.Node) (Property, bool) {
	nameNode := sig.ChildByFieldName("name")
	typeNode := sig.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return Property{}, false
	}
	key := ast.Unquote(file.Text(nameNode))

	nodes := e.extract(x, file, typeNode, key)
	if len(nodes) == 0 {
		return Property{}, false
	}
	p := nodes[0]
	p.Key = key
	p.Required = !isOptional(sig)

	doc := file.DocOf(sig)
	p.JSDoc = doc.Tags
	if comment, ok := e.marker.Comment(file, sig); ok {
		p.Comment = comment
	} else {
		p.Comment = doc.Description
	}
	return p, true
}

// mergeMembers appends own to inherited, dropping inherited members that
// own redeclares.
func mergeMembers(inherited, own []Property) []Property {
	if len(inherited) == 0 {
		return own
	}
	redeclared := make(map[string]bool, len(own))
	for _, p := range own {
		if p.Key != "" {
			redeclared[p.Key] = true
		}
	}
	merged := make([]Property, 0, len(inherited)+len(own))
	for _, p := range inherited {
		if !redeclared[p.Key] {
			merged = append(merged, p)
		}
	}
	return append(merged, own...)
}

// referenceParts returns the rightmost name of a type reference and its
// type arguments.
func referenceParts(file *ast.SourceFile, t *sitter.Node) (string, []*sitter.Node) {
	if t == nil {
		return "", nil
	}
	switch t.Type() {
	case ast.NodeTypeIdentifier:
		return file.Text(t), nil
	case ast.NodeNestedTypeIdent:
		return file.Text(t.ChildByFieldName("name")), nil
	case nodeGenericType:
		name, _ := referenceParts(file, t.ChildByFieldName("name"))
		var args []*sitter.Node
		if list := t.ChildByFieldName("type_arguments"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				if arg := list.NamedChild(i); arg.Type() != ast.NodeComment {
					args = append(args, arg)
				}
			}
		}
		return name, args
	default:
		return "", nil
	}
}

// unwrap strips type annotations, parentheses and readonly modifiers.
func unwrap(t *sitter.Node) *sitter.Node {
	for t != nil {
		switch t.Type() {
		case ast.NodeTypeAnnotation, nodeParenthesizedType, nodeReadonlyType:
			t = firstType(t)
		default:
			return t
		}
	}
	return nil
}

// firstType returns the first named child that is not a comment.
func firstType(t *sitter.Node) *sitter.Node {
	for i := 0; i < int(t.NamedChildCount()); i++ {
		if child := t.NamedChild(i); child.Type() != ast.NodeComment {
			return child
		}
	}
	return nil
}

// literalText is the value of a literal type: string literals unquoted,
// anything else as written.
func literalText(file *ast.SourceFile, t *sitter.Node) string {
	if lit := firstType(t); lit != nil && lit.Type() == ast.NodeString {
		return ast.StringContent(file, lit)
	}
	return normalizeSpace(file.Text(t))
}

// isOptional reports whether a property signature carries a `?` marker.
func isOptional(sig *sitter.Node) bool {
	for i := 0; i < int(sig.ChildCount()); i++ {
		if c := sig.Child(i); c != nil && c.Type() == "?" {
			return true
		}
	}
	return false
}
