// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mock

import (
	"context"
	"errors"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/shape"
)

// VariableLocator finds the declarator a name denotes, following imports.
//
// Implemented by *ast.Program.
type VariableLocator interface {
	LocateVariable(ctx context.Context, file *ast.SourceFile, name string) (*ast.SourceFile, *sitter.Node, error)
}

// Binder resolves the API object of a call site to its declaration.
type Binder struct {
	locator   VariableLocator
	extractor *shape.Extractor
	logger    *slog.Logger
}

// NewBinder creates a Binder. A nil logger uses slog.Default().
func NewBinder(locator VariableLocator, extractor *shape.Extractor, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{locator: locator, extractor: extractor, logger: logger}
}

// Bind returns the definition of the API object named by access.
//
// Description:
//
//	For `api.GET`, the declarator `api` is looked up in file and then
//	through its imports. When its initializer is a `new` expression, the
//	first object literal argument becomes Config and the first constructor
//	type argument is extracted as Response. Method is the accessed member
//	name as written.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - access: The member_expression of the call site. Nil yields a zero value.
//   - file: The file holding access.
//
// Outputs:
//   - APIDefinition: The zero value when the object cannot be bound.
func (b *Binder) Bind(ctx context.Context, access *sitter.Node, file *ast.SourceFile) APIDefinition {
	if access == nil || file == nil || access.Type() != ast.NodeMemberExpression {
		bindResultsTotal.WithLabelValues("no_access").Inc()
		return APIDefinition{}
	}
	object := access.ChildByFieldName("object")
	verb := file.Text(access.ChildByFieldName("property"))

	ctx, span := tracer.Start(ctx, "mock.Bind", trace.WithAttributes(
		attribute.String("object", file.Text(object)),
		attribute.String("verb", verb),
	))
	defer span.End()

	if object == nil || object.Type() != ast.NodeIdentifier {
		bindResultsTotal.WithLabelValues("no_access").Inc()
		return APIDefinition{}
	}

	declFile, declarator, err := b.locator.LocateVariable(ctx, file, file.Text(object))
	if err != nil {
		b.unresolved(span, file, object, err)
		return APIDefinition{}
	}
	ctor := declarator.ChildByFieldName("value")
	if ctor == nil || ctor.Type() != ast.NodeNewExpression {
		b.unresolved(span, file, object, errors.New("initializer is not a new expression"))
		return APIDefinition{}
	}

	def := APIDefinition{Method: verb, Config: Dictionary{}}
	for _, arg := range namedChildren(ctor.ChildByFieldName("arguments")) {
		if arg.Type() == ast.NodeObject {
			def.Config = dictionaryOf(declFile, arg)
			break
		}
	}
	if typeArgs := namedChildren(ctor.ChildByFieldName("type_arguments")); len(typeArgs) > 0 {
		def.Response = b.extractor.Extract(ctx, typeArgs[0], declFile)
	}

	bindResultsTotal.WithLabelValues("bound").Inc()
	span.SetAttributes(attribute.String("declared_in", declFile.Path))
	return def
}

func (b *Binder) unresolved(span trace.Span, file *ast.SourceFile, object *sitter.Node, err error) {
	bindResultsTotal.WithLabelValues("unresolved").Inc()
	span.RecordError(err)
	b.logger.Debug("api object not bound",
		slog.String("file", file.Path),
		slog.String("object", file.Text(object)),
		slog.String("error", err.Error()))
}

// dictionaryOf reads an object literal into a Dictionary.
//
// Keys are unquoted. Nested object literals recurse; every other value is
// kept as source text. Shorthand properties, spreads and methods are
// skipped.
func dictionaryOf(file *ast.SourceFile, obj *sitter.Node) Dictionary {
	dict := make(Dictionary)
	if obj == nil {
		return dict
	}
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != ast.NodePair {
			continue
		}
		key := ast.Unquote(file.Text(pair.ChildByFieldName("key")))
		value := pair.ChildByFieldName("value")
		if key == "" || value == nil {
			continue
		}
		if value.Type() == ast.NodeObject {
			dict[key] = ConfigValue{Dict: dictionaryOf(file, value)}
			continue
		}
		dict[key] = ConfigValue{Text: file.Text(value)}
	}
	return dict
}

// objectArg returns the Dictionary of args[i] when it is an object literal.
func objectArg(file *ast.SourceFile, args []*sitter.Node, i int) (Dictionary, bool) {
	if i >= len(args) || args[i].Type() != ast.NodeObject {
		return nil, false
	}
	return dictionaryOf(file, args[i]), true
}
