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

// Package negotiate implements HTTP content negotiation: parsing of
// Accept-style headers into a deterministically ordered preference list and
// language-preference matching against an application-supplied supported set.
package negotiate

import (
	"sort"
	"strconv"
	"strings"
)

// Param is a single media-type parameter from an Accept header segment.
// Bare flags (tokens without "=") have an empty Key.
type Param struct {
	Key   string
	Value string
}

// Entry is one parsed, comma-separated segment of an Accept-style header.
type Entry struct {
	// Name is the entry value, e.g. "application/json" or "en-US".
	Name string

	// Quality is the q parameter in [0,1]; 1.0 when absent.
	Quality float64

	// Params holds non-q parameters and bare flags in header order.
	Params []Param

	// Index is the 0-based position of the segment in the header.
	Index int
}

// Param returns the value of the named parameter.
func (e Entry) Param(key string) (string, bool) {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Flags returns the bare (valueless) parameters in header order.
func (e Entry) Flags() []string {
	var flags []string
	for _, p := range e.Params {
		if p.Key == "" {
			flags = append(flags, p.Value)
		}
	}

	return flags
}

// Entries is an ordered preference list, most preferred first.
type Entries []Entry

// Names returns the entry names in preference order.
func (es Entries) Names() []string {
	names := make([]string, len(es))
	for i, e := range es {
		names[i] = e.Name
	}

	return names
}

// Get returns the first entry with the given name.
func (es Entries) Get(name string) (Entry, bool) {
	for _, e := range es {
		if e.Name == name {
			return e, true
		}
	}

	return Entry{}, false
}

// Preferred returns the first offer acceptable to the client, walking the
// negotiated preference order. Wildcard entries ("*/*", "type/*") match
// accordingly. With no entries the first offer wins; with no acceptable
// offer the result is empty.
//
// Example:
//
//	// Accept: text/html, application/json;q=0.8
//	es.Preferred("application/json", "text/html") // "text/html"
func (es Entries) Preferred(offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	if len(es) == 0 {
		return offers[0]
	}

	for _, e := range es {
		if e.Quality <= 0 {
			continue
		}
		for _, offer := range offers {
			if mediaTypeMatches(e.Name, offer) {
				return offer
			}
		}
	}

	return ""
}

// mediaTypeMatches reports whether an Accept entry name covers an offer.
func mediaTypeMatches(name, offer string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	offer = strings.ToLower(strings.TrimSpace(offer))

	if name == offer || name == "*/*" || name == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(name, "/*"); ok {
		return strings.HasPrefix(offer, prefix+"/")
	}

	return false
}

// ParseAcceptHeader parses an Accept-style header into an ordered preference
// list.
//
// Each comma-separated segment yields one entry: the first semicolon token is
// the name, "q=..." sets the quality (default 1.0), other "key=value" tokens
// are kept as parameters, and bare tokens are kept as positional flags.
//
// Entries are ordered by a strict total order: higher quality first; equal
// names by header position; the bare "*/*" wildcard after anything else;
// subtype wildcards ("type/*") after concrete types; remaining ties by
// header position.
//
// An empty or whitespace-only header yields an empty result, not an error.
//
// Example:
//
//	entries := negotiate.ParseAcceptHeader("audio/*; q=0.2, audio/basic")
//	entries.Names() // ["audio/basic", "audio/*"]
func ParseAcceptHeader(header string) Entries {
	var entries Entries

	// Manual scanning, one comma-separated segment at a time.
	index := 0
	start := 0
	for i := 0; i <= len(header); i++ {
		if i == len(header) || header[i] == ',' {
			segment := header[start:i]
			if e, ok := parseSegment(segment, index); ok {
				entries = append(entries, e)
			}
			index++
			start = i + 1
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return compareEntries(entries[i], entries[j]) < 0
	})

	return entries
}

// parseSegment parses one comma-separated segment. Segments that are empty
// after trimming are skipped.
func parseSegment(segment string, index int) (Entry, bool) {
	tokens := splitTrimmed(segment, ';')
	if len(tokens) == 0 || tokens[0] == "" {
		return Entry{}, false
	}

	e := Entry{
		Name:    tokens[0],
		Quality: 1.0,
		Index:   index,
	}

	for _, token := range tokens[1:] {
		equals := strings.IndexByte(token, '=')
		if equals < 0 {
			// Bare flag, kept positionally.
			e.Params = append(e.Params, Param{Value: token})
			continue
		}

		key := strings.TrimSpace(token[:equals])
		value := strings.TrimSpace(token[equals+1:])
		if key == "q" {
			e.Quality = parseQuality(value)
			continue
		}
		e.Params = append(e.Params, Param{Key: key, Value: value})
	}

	return e, true
}

// parseQuality parses a q value. Values that do not parse degrade to 0
// rather than failing the whole header; values outside [0,1] are clamped.
func parseQuality(s string) float64 {
	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}

	return q
}

// compareEntries implements the entry ordering. The rules are applied in
// this exact sequence until one decides the pair:
//
//  1. higher quality sorts first
//  2. identical names: lower header position first
//  3. the bare "*/*" wildcard sorts after the other entry
//  4. a "type/*" suffix wildcard sorts after a concrete type; otherwise
//     lower header position first
func compareEntries(a, b Entry) int {
	if a.Quality != b.Quality {
		if a.Quality > b.Quality {
			return -1
		}

		return 1
	}

	if a.Name == b.Name {
		return a.Index - b.Index
	}

	if a.Name == "*/*" {
		return 1
	}
	if b.Name == "*/*" {
		return -1
	}

	aWild := strings.HasSuffix(a.Name, "/*")
	bWild := strings.HasSuffix(b.Name, "/*")
	if aWild && !bWild {
		return 1
	}
	if bWild && !aWild {
		return -1
	}

	return a.Index - b.Index
}

// splitTrimmed splits on a separator byte and trims each element. Elements
// that are empty after trimming are dropped, except the first, which callers
// use to detect nameless segments.
func splitTrimmed(s string, sep byte) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, string(sep))
	result := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && i > 0 {
			continue
		}
		result = append(result, p)
	}

	return result
}
