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
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/apiextract/services/extract/ast"
)

// HeaderContentType is the header set by the urlencoded and form flags.
const HeaderContentType = "Content-Type"

// ContentTypes holds the Content-Type values implied by call flags.
type ContentTypes struct {
	URLEncoded string
	Form       string
}

// DefaultContentTypes are the standard values for the call flags.
var DefaultContentTypes = ContentTypes{
	URLEncoded: "application/x-www-form-urlencoded",
	Form:       "multipart/form-data",
}

// MergeHeaders builds the header map of one call.
//
// Description:
//
//	Sources are applied in order, later ones overwriting earlier keys:
//	  1. `{ urlencoded: true }` or `{ form: true }` in args[1] set
//	     Content-Type. form is applied after urlencoded.
//	  2. The `headers` object of args[2].
//	  3. The `headers` object of the definition config.
//	Keys and string values are unquoted. Nested objects are skipped.
//
// Outputs:
//   - map[string]string: Never nil.
func MergeHeaders(file *ast.SourceFile, args []*sitter.Node, def APIDefinition, types ContentTypes) map[string]string {
	headers := make(map[string]string)

	if flags, ok := objectArg(file, args, 1); ok {
		if text, _ := flags.Text("urlencoded"); text == "true" {
			headers[HeaderContentType] = types.URLEncoded
		}
		if text, _ := flags.Text("form"); text == "true" {
			headers[HeaderContentType] = types.Form
		}
	}
	if opts, ok := objectArg(file, args, 2); ok {
		copyHeaders(headers, opts)
	}
	copyHeaders(headers, def.Config)
	return headers
}

// copyHeaders copies the string entries of cfg["headers"] into dst.
func copyHeaders(dst map[string]string, cfg Dictionary) {
	src, ok := cfg.Dict("headers")
	if !ok {
		return
	}
	for k, v := range src {
		if v.Dict != nil {
			continue
		}
		dst[k] = ast.Unquote(v.Text)
	}
}
