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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferredLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		header    string
		supported []string
		want      string
	}{
		{
			name:      "empty supported returns default",
			header:    "en-us,de;q=0.8",
			supported: nil,
			want:      DefaultLanguage,
		},
		{
			name:      "second acceptable matches exactly",
			header:    "en-us,de;q=0.8,ru-ru;q=0.5",
			supported: []string{"ru", "de"},
			want:      "de",
		},
		{
			name:      "no match falls back to first supported verbatim",
			header:    "en-us,de;q=0.8",
			supported: []string{"ru-ru", "pl"},
			want:      "ru-ru",
		},
		{
			name:      "acceptable prefix accepts regional supported",
			header:    "en",
			supported: []string{"en-US"},
			want:      "en-US",
		},
		{
			name:      "regional acceptable accepts bare supported",
			header:    "en-us",
			supported: []string{"en"},
			want:      "en",
		},
		{
			name:      "underscores canonicalized before matching",
			header:    "en_US",
			supported: []string{"en-us"},
			want:      "en-us",
		},
		{
			name:      "empty header falls back to first supported",
			header:    "",
			supported: []string{"de", "en"},
			want:      "de",
		},
		{
			name:      "supported order decides within one acceptable",
			header:    "en",
			supported: []string{"en-GB", "en-US"},
			want:      "en-GB",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, PreferredLanguage(tt.header, tt.supported))
		})
	}
}
