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

package bodyparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// XMLParser decodes XML bodies into a parameter map.
//
// The children of the document element become the top-level parameters.
// Leaf elements map to their trimmed character data, nested elements to
// maps, and repeated sibling names to a []any. Attributes are ignored.
type XMLParser struct {
	// Silent swallows decode failures.
	Silent bool
}

// Parse decodes body as an XML document.
func (p *XMLParser) Parse(body []byte, contentType string) (map[string]any, error) {
	params := make(map[string]any)
	if len(bytes.TrimSpace(body)) == 0 {
		return params, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	if err := skipToStart(dec); err != nil {
		if errors.Is(err, io.EOF) {
			return params, nil
		}

		return p.fail(contentType, err)
	}

	root, err := decodeElement(dec)
	if err != nil {
		return p.fail(contentType, err)
	}

	if m, ok := root.(map[string]any); ok {
		return m, nil
	}

	// Scalar-only document element carries no named parameters.
	return params, nil
}

func (p *XMLParser) fail(contentType string, err error) (map[string]any, error) {
	if p.Silent {
		return map[string]any{}, nil
	}

	return nil, &ParseError{ContentType: contentType, Err: err}
}

// skipToStart advances the decoder to the document element.
func skipToStart(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			return nil
		}
	}
}

// decodeElement consumes tokens up to the matching end element and returns
// either a map of child elements or the trimmed character data.
func decodeElement(dec *xml.Decoder) (any, error) {
	children := make(map[string]any)
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}
			addChild(children, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) > 0 {
				return children, nil
			}

			return strings.TrimSpace(text.String()), nil
		}
	}
}

// addChild inserts a child value, promoting repeated names to a slice.
func addChild(children map[string]any, name string, value any) {
	existing, ok := children[name]
	if !ok {
		children[name] = value
		return
	}

	if slice, ok := existing.([]any); ok {
		children[name] = append(slice, value)
		return
	}
	children[name] = []any{existing, value}
}
