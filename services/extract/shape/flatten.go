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

// Flatten removes redundant wrapper levels from a request or response shape.
//
// Description:
//
//	Two rules apply. A lone keyless, commentless TypeReference whose value
//	is a non-empty shape is replaced by its children, repeatedly. Then,
//	bottom-up over the whole tree, a node whose value is exactly one
//	keyless Native child adopts that child's kind and value. An ArrayType
//	node adopts only the value.
//
//	Flatten never modifies props; it returns new slices. Applying it twice
//	gives the same result as applying it once. The result is never nil.
//
// Example:
//
//	// [{"" TypeReference [{"id" Native "string"}]}] → [{"id" Native "string"}]
//	flat := Flatten(props)
func Flatten(props []Property) []Property {
	for len(props) == 1 && isWrapper(props[0]) {
		props = props[0].Value.Children()
	}
	out := make([]Property, len(props))
	for i, p := range props {
		out[i] = collapse(p)
	}
	return out
}

// isWrapper reports whether p is a removable reference wrapper.
func isWrapper(p Property) bool {
	return p.Key == "" &&
		p.Comment == "" &&
		p.Type == KindReference &&
		p.Value.IsShape() &&
		len(p.Value.Children()) > 0
}

// collapse applies the single-native-child rule to p and its descendants.
func collapse(p Property) Property {
	src := p.Value.Children()
	if len(src) == 0 {
		return p
	}
	children := make([]Property, len(src))
	for i, c := range src {
		children[i] = collapse(c)
	}
	if len(children) == 1 && children[0].Key == "" && children[0].Type == KindNative {
		// Arrays keep their kind so `ID[]` reads like `string[]`.
		if p.Type != KindArray {
			p.Type = KindNative
		}
		p.Value = children[0].Value
		return p
	}
	p.Value = Shape(children)
	return p
}
