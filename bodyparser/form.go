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

import "net/url"

// FormParser decodes application/x-www-form-urlencoded bodies.
//
// Malformed escape sequences do not fail the whole body: the pairs that did
// decode are kept, matching the forgiving semantics of classic form parsing.
type FormParser struct{}

// Parse decodes body as a URL-encoded form. Fields with a single value map
// to a string, repeated fields to a []string.
func (p *FormParser) Parse(body []byte, contentType string) (map[string]any, error) {
	values, _ := url.ParseQuery(string(body))

	return ValuesToMap(values), nil
}

// ValuesToMap flattens url.Values into a parameter map: one value becomes a
// string, repeated values stay a []string.
func ValuesToMap(values url.Values) map[string]any {
	params := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			params[key] = vals[0]
		default:
			params[key] = vals
		}
	}

	return params
}
