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

package negotiate

import "strings"

// DefaultLanguage is returned by [PreferredLanguage] when the application
// supports no languages at all.
const DefaultLanguage = "en-US"

// PreferredLanguage matches an Accept-Language header against the languages
// the application supports and returns the best choice.
//
// Acceptable languages are walked in negotiated preference order; for each,
// supported languages are walked in caller-given order. Tags are compared
// case-insensitively with underscores treated as hyphens, and a tag matches
// when it is equal to, a hyphen-prefix of, or hyphen-prefixed by the other
// (so "en" accepts "en-US" and "en-us" accepts "en").
//
// When nothing matches, the first supported language is returned verbatim:
// the application's preference wins over the client's. When supported is
// empty, [DefaultLanguage] is returned without consulting the header.
//
// Example:
//
//	// Accept-Language: en-us,de;q=0.8
//	negotiate.PreferredLanguage(header, []string{"ru", "de"}) // "de"
func PreferredLanguage(header string, supported []string) string {
	if len(supported) == 0 {
		return DefaultLanguage
	}

	for _, acceptable := range ParseAcceptHeader(header) {
		a := normalizeLanguage(acceptable.Name)
		for _, candidate := range supported {
			s := normalizeLanguage(candidate)
			if languageMatches(a, s) {
				return candidate
			}
		}
	}

	return supported[0]
}

// languageMatches reports whether a normalized acceptable tag selects a
// normalized supported tag.
func languageMatches(acceptable, supported string) bool {
	return acceptable == supported ||
		strings.HasPrefix(supported, acceptable+"-") ||
		strings.HasPrefix(acceptable, supported+"-")
}

// normalizeLanguage lower-cases a language tag and canonicalizes underscores
// to hyphens.
func normalizeLanguage(tag string) string {
	return strings.ReplaceAll(strings.ToLower(tag), "_", "-")
}
