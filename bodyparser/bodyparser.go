// Copyright 2025 The Rock Request Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bodyparser turns raw request bodies into parameter maps.
//
// A [Registry] maps content types to parsers. The embedding application
// configures it once at setup time; request handling only reads it. Lookup
// is by exact content type first, then the [Wildcard] entry.
//
// Parsers for JSON, XML, URL-encoded forms, YAML, TOML, MessagePack and
// Protocol Buffers ship with the package; anything implementing [Parser]
// can be registered alongside them.
//
// Example:
//
//	reg := bodyparser.NewRegistry()
//	reg.Register("application/json", &bodyparser.JSONParser{})
//	reg.Register("application/yaml", &bodyparser.YAMLParser{})
//	reg.Register(bodyparser.Wildcard, &bodyparser.FormParser{})
package bodyparser

// Wildcard is the registry key matched when no exact content-type entry
// exists.
const Wildcard = "*"

// Parser is the capability a registered entry must satisfy.
//
// Parse receives the raw body and the content type (already truncated at the
// first ";") and returns the decoded parameters. Implementations that
// support a non-throwing mode return an empty map instead of a [ParseError].
type Parser interface {
	Parse(body []byte, contentType string) (map[string]any, error)
}

// Registry maps content types to parsers.
//
// Entries are registered as any value; the capability check happens at
// resolution time so that a misconfigured entry surfaces as
// [InvalidParserError] on first use rather than silently matching nothing.
//
// Registry is not safe for concurrent mutation; configure it before serving
// and treat it as read-only afterwards.
type Registry struct {
	parsers map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]any)}
}

// Register maps a content type (or [Wildcard]) to a parser, replacing any
// previous entry. It returns the registry for chaining.
func (r *Registry) Register(contentType string, parser any) *Registry {
	r.parsers[contentType] = parser

	return r
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.parsers)
}

// Resolve looks up a parser for the content type: exact match first, then
// the [Wildcard] entry. The boolean reports whether any entry matched; a
// matched entry that does not implement [Parser] yields an
// [InvalidParserError].
func (r *Registry) Resolve(contentType string) (Parser, bool, error) {
	entry, ok := r.parsers[contentType]
	if !ok {
		entry, ok = r.parsers[Wildcard]
	}
	if !ok {
		return nil, false, nil
	}

	parser, ok := entry.(Parser)
	if !ok {
		return nil, true, &InvalidParserError{ContentType: contentType, Entry: entry}
	}

	return parser, true, nil
}
