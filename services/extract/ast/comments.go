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
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tag is one JSDoc block tag, e.g. `@mock user name` → {mock, "user name"}.
type Tag struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text" yaml:"text"`
}

// JSDoc is the parsed content of the JSDoc comments leading a node.
type JSDoc struct {
	// Description is the free text before the first tag.
	Description string

	// Tags lists the block tags in source order.
	Tags []Tag
}

// TagText returns the text of the first tag called name that has text.
func (d JSDoc) TagText(name string) (string, bool) {
	for _, t := range d.Tags {
		if t.Name == name && t.Text != "" {
			return t.Text, true
		}
	}
	return "", false
}

// ParseJSDoc parses a `/** ... */` comment.
//
// Description:
//
//	Leading `*` decorations are removed from every line. Lines before the
//	first `@tag` form the description; each tag owns the text up to the
//	next tag, continuation lines included.
//
// Outputs:
//   - JSDoc: The parsed comment.
//   - bool: False when text is not a JSDoc comment.
func ParseJSDoc(text string) (JSDoc, bool) {
	if len(text) < 5 || !strings.HasPrefix(text, "/**") || !strings.HasSuffix(text, "*/") {
		return JSDoc{}, false
	}
	body := text[3 : len(text)-2]

	var doc JSDoc
	var desc []string
	current := -1
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "@") {
			name, rest := line[1:], ""
			if i := strings.IndexAny(name, " \t"); i >= 0 {
				name, rest = name[:i], name[i+1:]
			}
			doc.Tags = append(doc.Tags, Tag{Name: name, Text: strings.TrimSpace(rest)})
			current = len(doc.Tags) - 1
			continue
		}
		if current >= 0 {
			if line != "" {
				doc.Tags[current].Text = strings.TrimSpace(doc.Tags[current].Text + "\n" + line)
			}
			continue
		}
		desc = append(desc, line)
	}
	doc.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return doc, true
}

// LeadingComments returns the comment nodes directly preceding n, in
// source order.
//
// Description:
//
//	When n is wrapped by an export statement, the comments before the
//	export statement are returned. A comment that starts on the row where
//	the previous sibling ends is a trailing comment of that sibling and is
//	not included.
func (f *SourceFile) LeadingComments(n *sitter.Node) []*sitter.Node {
	if f == nil || n == nil {
		return nil
	}
	target := n
	for p := target.Parent(); p != nil && p.Type() == NodeExportStatement; p = p.Parent() {
		target = p
	}

	var reversed []*sitter.Node
	prev := target.PrevSibling()
	for prev != nil && prev.Type() == NodeComment {
		reversed = append(reversed, prev)
		prev = prev.PrevSibling()
	}
	if prev != nil && len(reversed) > 0 {
		last := reversed[len(reversed)-1]
		if last.StartPoint().Row == prev.EndPoint().Row {
			reversed = reversed[:len(reversed)-1]
		}
	}

	comments := make([]*sitter.Node, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		comments = append(comments, reversed[i])
	}
	return comments
}

// DocOf merges every JSDoc comment leading n.
//
// Descriptions are joined with newlines and tags are concatenated in
// source order.
func (f *SourceFile) DocOf(n *sitter.Node) JSDoc {
	var doc JSDoc
	var desc []string
	for _, c := range f.LeadingComments(n) {
		parsed, ok := ParseJSDoc(f.Text(c))
		if !ok {
			continue
		}
		if parsed.Description != "" {
			desc = append(desc, parsed.Description)
		}
		doc.Tags = append(doc.Tags, parsed.Tags...)
	}
	doc.Description = strings.Join(desc, "\n")
	return doc
}

// Marker recognizes the comments that flag a declaration for extraction.
//
// Description:
//
//	A declaration is marked either by a JSDoc tag (`@mock text`) or by a
//	line of the form `[mock] text` in its first leading comment. The tag
//	name and the bracketed word are configurable.
//
// Thread Safety:
//
//	Marker is immutable and safe for concurrent use.
type Marker struct {
	tag  string
	line *regexp.Regexp
}

// NewMarker creates a Marker for the given tag name and line marker word.
//
// Example:
//
//	m := NewMarker("mock", "mock") // matches `@mock x` and `[mock] x`
func NewMarker(tag, word string) *Marker {
	return &Marker{
		tag:  tag,
		line: regexp.MustCompile(`(?i)\[` + regexp.QuoteMeta(word) + `\](.+)`),
	}
}

// TagName returns the JSDoc tag the marker looks for.
func (m *Marker) TagName() string {
	return m.tag
}

// PickLine returns the text following the first `[word]` line in comment.
func (m *Marker) PickLine(comment string) string {
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, "*/")
		match := m.line.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if text := strings.TrimSpace(match[1]); text != "" {
			return text
		}
	}
	return ""
}

// Comment returns the marker text attached to n.
//
// Outputs:
//   - string: The tag text, else the `[word]` line text of the first
//     leading comment.
//   - bool: False when n is not marked.
func (m *Marker) Comment(file *SourceFile, n *sitter.Node) (string, bool) {
	if text, ok := file.DocOf(n).TagText(m.tag); ok {
		return text, true
	}
	comments := file.LeadingComments(n)
	if len(comments) == 0 {
		return "", false
	}
	text := m.PickLine(file.Text(comments[0]))
	return text, text != ""
}
