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

import "github.com/BurntSushi/toml"

// TOMLParser decodes TOML bodies into a parameter map.
type TOMLParser struct {
	// Silent swallows decode failures.
	Silent bool
}

// Parse decodes body as a TOML document.
func (p *TOMLParser) Parse(body []byte, contentType string) (map[string]any, error) {
	params := make(map[string]any)
	if len(body) == 0 {
		return params, nil
	}

	if err := toml.Unmarshal(body, &params); err != nil {
		if p.Silent {
			return map[string]any{}, nil
		}

		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	return params, nil
}
