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
	"testing"

	"github.com/stretchr/testify/assert"
)

func flattenSamples() map[string][]Property {
	id := native("id", "string")
	return map[string][]Property{
		"empty": nil,
		"wrapper": {{Type: KindReference, Value: Shape([]Property{id})}},
		"nested wrappers": {{Type: KindReference, Value: Shape([]Property{
			{Type: KindReference, Value: Shape([]Property{id, native("name", "string")})},
		})}},
		"wrapper around native": {{Type: KindReference, Value: Shape([]Property{
			{Type: KindNative, Value: Text("string")},
		})}},
		"commented wrapper": {{Type: KindReference, Comment: "kept", Value: Shape([]Property{id})}},
		"empty wrapper": {{Type: KindReference, Value: Shape(nil)}},
		"deep collapse": {{Key: "outer", Type: KindTypeLiteral, Value: Shape([]Property{
			{Type: KindReference, Value: Shape([]Property{
				{Type: KindNative, Value: Text("number")},
			})},
		})}},
		"array of native": {{Key: "ids", Type: KindArray, Value: Shape([]Property{
			{Type: KindNative, Value: Text("string")},
		})}},
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	for name, props := range flattenSamples() {
		t.Run(name, func(t *testing.T) {
			once := Flatten(props)
			assert.Equal(t, once, Flatten(once))
		})
	}
}

func TestFlatten_UnwrapsReferenceWrappers(t *testing.T) {
	samples := flattenSamples()

	assert.Equal(t, []Property{native("id", "string")}, Flatten(samples["wrapper"]))
	assert.Equal(t, []Property{native("id", "string"), native("name", "string")}, Flatten(samples["nested wrappers"]))
	assert.Equal(t, []Property{{Type: KindNative, Value: Text("string")}}, Flatten(samples["wrapper around native"]))
}

func TestFlatten_KeepsNonRemovableWrappers(t *testing.T) {
	samples := flattenSamples()

	assert.Equal(t, samples["commented wrapper"], Flatten(samples["commented wrapper"]))
	assert.Equal(t, samples["empty wrapper"], Flatten(samples["empty wrapper"]))

	two := []Property{
		{Type: KindReference, Value: Shape([]Property{native("a", "string"), native("b", "string")})},
		native("c", "string"),
	}
	assert.Equal(t, two, Flatten(two), "wrappers are only removed when they are the sole node")
}

func TestFlatten_CollapsesSingleNativeChild(t *testing.T) {
	samples := flattenSamples()

	got := Flatten(samples["deep collapse"])
	assert.Equal(t, []Property{{Key: "outer", Type: KindNative, Value: Text("number")}}, got)
	assert.False(t, got[0].Value.IsShape())

	keyedChild := []Property{{Key: "obj", Type: KindTypeLiteral, Value: Shape([]Property{native("only", "string")})}}
	assert.Equal(t, keyedChild, Flatten(keyedChild), "keyed children never collapse")
}

func TestFlatten_ArrayKeepsKind(t *testing.T) {
	got := Flatten(flattenSamples()["array of native"])

	assert.Equal(t, []Property{{Key: "ids", Type: KindArray, Value: Text("string")}}, got)
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	input := flattenSamples()["deep collapse"]
	before := flattenSamples()["deep collapse"]

	Flatten(input)

	assert.Equal(t, before, input)
}

func TestFlatten_NeverNil(t *testing.T) {
	got := Flatten(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}
