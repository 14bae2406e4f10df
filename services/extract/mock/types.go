// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mock finds annotated API declarations in TypeScript sources and
// assembles one normalized record per declaration: URL, verb, headers and
// the flattened request and response shapes.
package mock

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/apiextract/services/extract/ast"
	"github.com/AleutianAI/apiextract/services/extract/shape"
)

// CallSite is one annotated API call found by the Scanner.
//
// Example source:
//
//	/** @mock get user */
//	export const getUser = api.GET<User, { id: string }>('/user/:id');
type CallSite struct {
	// Name is the first declared variable name, e.g. "getUser".
	Name string

	// Comment is the marker text, e.g. "get user".
	Comment string

	// Access is the first member expression of the declaration, e.g.
	// `api.GET`. Nil when the declaration has none.
	Access *sitter.Node

	// TypeArgs are the type arguments of the first call expression.
	TypeArgs []*sitter.Node

	// Args are the arguments of the first call expression.
	Args []*sitter.Node

	// File is the file the declaration was found in.
	File *ast.SourceFile

	// Line is the 1-based line of the declaration.
	Line int
}

// ResponseType returns the first type argument, or nil.
func (c CallSite) ResponseType() *sitter.Node {
	if len(c.TypeArgs) > 0 {
		return c.TypeArgs[0]
	}
	return nil
}

// RequestType returns the second type argument, or nil.
func (c CallSite) RequestType() *sitter.Node {
	if len(c.TypeArgs) > 1 {
		return c.TypeArgs[1]
	}
	return nil
}

// ConfigValue is a Dictionary entry: source text or a nested Dictionary.
type ConfigValue struct {
	// Text is the value as written, quotes included. Empty for nested objects.
	Text string

	// Dict holds the entries of a nested object literal.
	Dict Dictionary
}

// Dictionary is the static configuration read from an object literal.
// Keys are unquoted; values keep their source text.
type Dictionary map[string]ConfigValue

// Text returns the source text stored under key.
func (d Dictionary) Text(key string) (string, bool) {
	v, ok := d[key]
	if !ok || v.Dict != nil {
		return "", false
	}
	return v.Text, true
}

// Dict returns the nested dictionary stored under key.
func (d Dictionary) Dict(key string) (Dictionary, bool) {
	v, ok := d[key]
	if !ok || v.Dict == nil {
		return nil, false
	}
	return v.Dict, true
}

// APIDefinition is the declaration backing an API object, e.g.
// `const api = new Api<BaseResponse>({ headers: { 'X-App': 'web' } })`.
type APIDefinition struct {
	// Config is the first object literal passed to the constructor.
	Config Dictionary

	// Response is the extracted constructor type argument.
	Response []shape.Property

	// Method is the accessed member name, e.g. "GET" or "POSTR". Empty
	// when the API object could not be bound.
	Method string
}

// Record is the normalized description of one annotated API call.
type Record struct {
	URL      string            `json:"url" yaml:"url"`
	Name     string            `json:"name" yaml:"name"`
	Comment  string            `json:"comment" yaml:"comment"`
	Method   string            `json:"method" yaml:"method"`
	Headers  map[string]string `json:"headers" yaml:"headers"`
	Base     []shape.Property  `json:"base" yaml:"base"`
	Request  []shape.Property  `json:"request" yaml:"request"`
	Response []shape.Property  `json:"response" yaml:"response"`
}

// knownVerbs are the HTTP verbs an API object exposes.
var knownVerbs = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// NormalizeVerb upper-cases a verb accessor and strips the trailing "R"
// of the restful variants.
//
// Example:
//
//	NormalizeVerb("GETR")   // "GET", true
//	NormalizeVerb("post")   // "POST", false
//	NormalizeVerb("HEADER") // "HEADER", false
func NormalizeVerb(verb string) (string, bool) {
	upper := strings.ToUpper(verb)
	if base, ok := strings.CutSuffix(upper, "R"); ok && knownVerbs[base] {
		return base, true
	}
	return upper, false
}
