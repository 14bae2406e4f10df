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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

func sampleTree() []Property {
	return []Property{
		{
			Key:      "data",
			Type:     KindReference,
			Required: true,
			Comment:  "payload",
			JSDoc:    []ast.Tag{{Name: "mock", Text: "payload"}},
			Value: Shape([]Property{
				native("id", "string"),
				{Key: "tags", Type: KindArray, Value: Shape(nil)},
			}),
		},
	}
}

func TestProperty_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleTree())
	require.NoError(t, err)

	assert.JSONEq(t, `[{
		"key": "data", "type": "TypeReference", "comment": "payload", "required": true,
		"jsDoc": [{"name": "mock", "text": "payload"}],
		"value": [
			{"key": "id", "type": "Native", "value": "string", "comment": "", "required": true, "jsDoc": []},
			{"key": "tags", "type": "ArrayType", "value": [], "comment": "", "required": false, "jsDoc": []}
		]
	}]`, string(data))
}

func TestValue_UnmarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleTree())
	require.NoError(t, err)

	var decoded []Property
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	assert.True(t, decoded[0].Value.IsShape())
	id, ok := decoded[0].Find("id")
	require.True(t, ok)
	assert.Equal(t, "string", id.Value.Text())

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestKind_ReservedVocabularyDecodes(t *testing.T) {
	data := []byte(`[
		{"key": "file", "type": "Blob", "value": "Blob"},
		{"key": "form", "type": "FormData", "value": "FormData"},
		{"key": "odd", "type": "unknow", "value": ""},
		{"key": "u", "type": "undefined", "value": ""},
		{"key": "n", "type": "null", "value": ""},
		{"key": "a", "type": "any", "value": ""}
	]`)

	var decoded []Property
	require.NoError(t, json.Unmarshal(data, &decoded))

	kinds := make([]Kind, len(decoded))
	for i, p := range decoded {
		kinds[i] = p.Type
	}
	assert.Equal(t, []Kind{KindBlob, KindFormData, KindUnknown, KindUndefined, KindNull, KindAny}, kinds)
}

func TestProperty_MarshalYAML(t *testing.T) {
	data, err := yaml.Marshal(sampleTree())
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, yaml.Unmarshal(data, &generic))
	require.Len(t, generic, 1)

	children, ok := generic[0]["value"].([]any)
	require.True(t, ok, "shape values encode as sequences")
	require.Len(t, children, 2)
	first := children[0].(map[string]any)
	assert.Equal(t, "string", first["value"])
	second := children[1].(map[string]any)
	assert.Equal(t, []any{}, second["value"])
}

func TestValue_IsEmpty(t *testing.T) {
	assert.True(t, Text("").IsEmpty())
	assert.True(t, Shape(nil).IsEmpty())
	assert.False(t, Text("x").IsEmpty())
	assert.False(t, Shape([]Property{native("a", "b")}).IsEmpty())
}
