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
	"encoding/json"
)

// JSONParser decodes JSON object bodies into a parameter map.
//
// Example:
//
//	reg.Register("application/json", &bodyparser.JSONParser{})
type JSONParser struct {
	// Silent swallows decode failures: Parse returns an empty map instead
	// of a ParseError.
	Silent bool

	// UseNumber preserves numbers as json.Number instead of float64.
	UseNumber bool
}

// Parse decodes body as a JSON object.
func (p *JSONParser) Parse(body []byte, contentType string) (map[string]any, error) {
	params := make(map[string]any)
	if len(body) == 0 {
		return params, nil
	}

	var err error
	if p.UseNumber {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		err = dec.Decode(&params)
	} else {
		err = json.Unmarshal(body, &params)
	}
	if err != nil {
		if p.Silent {
			return map[string]any{}, nil
		}

		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	return params, nil
}
