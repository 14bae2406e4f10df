// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package shape turns TypeScript type nodes into Property trees, the
// language-neutral description of request and response payloads.
package shape

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// Kind tags a Property. The string values are part of the output format.
type Kind string

// Kinds the extractor emits.
const (
	KindNative      Kind = "Native"
	KindTypeLiteral Kind = "TypeLiteral"
	KindArray       Kind = "ArrayType"
	KindTuple       Kind = "TupleType"
	KindUnion       Kind = "UnionType"
	KindReference   Kind = "TypeReference"
)

// Reserved kinds. They are never emitted: binary types and keywords come out
// as KindNative with the type name as value. Record consumers switch on the
// full vocabulary, so the names stay defined and decodable.
const (
	KindBlob        Kind = "Blob"
	KindFormData    Kind = "FormData"
	KindUnknown     Kind = "unknow" // sic, consumers match on this spelling
	KindUndefined   Kind = "undefined"
	KindNull        Kind = "null"
	KindAny         Kind = "any"
)

// Value is either a scalar text or an ordered list of child properties.
// The zero Value is the empty text.
type Value struct {
	text     string
	children []Property
	shape    bool
}

// Text returns a scalar Value.
func Text(s string) Value {
	return Value{text: s}
}

// Shape returns a Value holding children. A nil or empty slice is an
// empty shape, which is distinct from the empty text.
func Shape(children []Property) Value {
	return Value{children: children, shape: true}
}

// IsShape reports whether the value holds child properties.
func (v Value) IsShape() bool {
	return v.shape
}

// Text returns the scalar text, or "" for a shape.
func (v Value) Text() string {
	return v.text
}

// Children returns the child properties, or nil for a scalar.
func (v Value) Children() []Property {
	return v.children
}

// IsEmpty reports whether the value is the empty text or an empty shape.
func (v Value) IsEmpty() bool {
	if v.shape {
		return len(v.children) == 0
	}
	return v.text == ""
}

// MarshalJSON encodes a shape as an array and a scalar as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.shape {
		if v.children == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.children)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a string or an array of properties.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '[':
		var children []Property
		if err := json.Unmarshal(data, &children); err != nil {
			return err
		}
		*v = Shape(children)
		return nil
	}
	return fmt.Errorf("property value must be a string or an array, got %s", data)
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (any, error) {
	if v.shape {
		if v.children == nil {
			return []Property{}, nil
		}
		return v.children, nil
	}
	return v.text, nil
}

// Property is one node of an extracted type tree.
//
// Description:
//
//	Key is empty for root and element nodes. Value holds child properties
//	for object shapes, arrays of shapes and references that expanded to
//	members; otherwise it is a scalar text such as "string" or a printed
//	union type. JSDoc keeps every doc tag of the member verbatim.
type Property struct {
	Key      string    `json:"key" yaml:"key"`
	Type     Kind      `json:"type" yaml:"type"`
	Value    Value     `json:"value" yaml:"value"`
	Comment  string    `json:"comment" yaml:"comment"`
	Required bool      `json:"required" yaml:"required"`
	JSDoc    []ast.Tag `json:"jsDoc" yaml:"jsDoc"`
}

// MarshalJSON writes a nil JSDoc as an empty array.
func (p Property) MarshalJSON() ([]byte, error) {
	type plain Property
	out := plain(p)
	if out.JSDoc == nil {
		out.JSDoc = []ast.Tag{}
	}
	return json.Marshal(out)
}

// Children is shorthand for p.Value.Children().
func (p Property) Children() []Property {
	return p.Value.Children()
}

// Find returns the direct child with the given key.
func (p Property) Find(key string) (Property, bool) {
	return Find(p.Value.Children(), key)
}

// Find returns the property with the given key.
func Find(props []Property, key string) (Property, bool) {
	for _, p := range props {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}
