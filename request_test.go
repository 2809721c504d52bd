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

package request

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil environment", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil)
		assert.ErrorIs(t, err, ErrNilEnvironment)
	})

	t.Run("invalid trusted proxy cidr", func(t *testing.T) {
		t.Parallel()

		_, err := New(NewEnvironment(EnvironmentConfig{}), WithTrustedProxies("not-a-cidr"))
		assert.Error(t, err)
	})

	t.Run("must new panics on error", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			MustNew(nil)
		})
	})
}

func TestMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EnvironmentConfig
		opts []Option
		want string
	}{
		{
			name: "transport method upper-cased",
			cfg:  EnvironmentConfig{Method: "post"},
			want: "POST",
		},
		{
			name: "default is get",
			cfg:  EnvironmentConfig{},
			want: "GET",
		},
		{
			name: "header override wins over transport",
			cfg: EnvironmentConfig{
				Method: "POST",
				Header: http.Header{"X-Http-Method-Override": {"delete"}},
			},
			want: "DELETE",
		},
		{
			name: "form override wins over header",
			cfg: EnvironmentConfig{
				Method: "POST",
				Header: http.Header{"X-Http-Method-Override": {"DELETE"}},
				Form:   url.Values{"_method": {"put"}},
			},
			want: "PUT",
		},
		{
			name: "renamed override field",
			cfg: EnvironmentConfig{
				Method: "POST",
				Form:   url.Values{"_verb": {"patch"}},
			},
			opts: []Option{WithMethodParam("_verb")},
			want: "PATCH",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg), tt.opts...)
			assert.Equal(t, tt.want, r.Method())
		})
	}
}

func TestMethodPredicates(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{Method: "POST"}))
	assert.True(t, r.IsPost())
	assert.False(t, r.IsGet())

	r = MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"X-Requested-With": {"XMLHttpRequest"}},
	}))
	assert.True(t, r.IsAjax())
	assert.True(t, r.IsGet())
}

func TestHeaderAccessors(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{
			"Content-Type": {"application/json; charset=UTF-8"},
			"Referer":      {"https://example.com/prev"},
			"User-Agent":   {"test-agent/1.0"},
			"Origin":       {"https://example.com"},
		},
	}))

	assert.Equal(t, "application/json; charset=UTF-8", r.ContentType())
	assert.Equal(t, "https://example.com/prev", r.Referrer())
	assert.Equal(t, "test-agent/1.0", r.UserAgent())
	assert.Equal(t, "https://example.com", r.Origin())
}

func TestETags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{
			name:   "absent header",
			header: "",
			want:   nil,
		},
		{
			name:   "single tag",
			header: `"abc"`,
			want:   []string{`"abc"`},
		},
		{
			name:   "gzip suffix stripped",
			header: `W/"abc-gzip", "def"`,
			want:   []string{`W/"abc"`, `"def"`},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := EnvironmentConfig{}
			if tt.header != "" {
				cfg.Header = http.Header{"If-None-Match": {tt.header}}
			}
			r := MustNew(NewEnvironment(cfg))
			assert.Equal(t, tt.want, r.ETags())
		})
	}
}

func TestAcceptableContentTypesMemoized(t *testing.T) {
	t.Parallel()

	reads := map[string]int{}
	env := NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Accept": {"audio/*; q=0.2, audio/basic"}},
	}, WithReadProbe(func(field string) {
		reads[field]++
	}))
	r := MustNew(env)

	first := r.AcceptableContentTypes()
	second := r.AcceptableContentTypes()

	assert.Equal(t, []string{"audio/basic", "audio/*"}, first.Names())
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reads["header:Accept"])
}

func TestAcceptableLanguages(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Accept-Language": {"en-us,de;q=0.8"}},
	}))

	assert.Equal(t, []string{"en-us", "de"}, r.AcceptableLanguages().Names())
}

func TestPreferredLanguage(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Accept-Language": {"en-us,de;q=0.8,ru-ru;q=0.5"}},
	}))

	assert.Equal(t, "de", r.PreferredLanguage([]string{"ru", "de"}))
	assert.Equal(t, "en-US", r.PreferredLanguage(nil))
}

func TestPreferredContentType(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Accept": {"text/html, application/json;q=0.8"}},
	}))

	assert.Equal(t, "text/html", r.PreferredContentType("application/json", "text/html"))

	r = MustNew(NewEnvironment(EnvironmentConfig{}))
	assert.Equal(t, "application/json", r.PreferredContentType("application/json", "text/html"))
}

func TestQueryString(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{QueryString: "page=1&tag=a"}))
	assert.Equal(t, "page=1&tag=a", r.QueryString())
}

func TestIsSecureConnection(t *testing.T) {
	t.Parallel()

	assert.False(t, MustNew(NewEnvironment(EnvironmentConfig{})).IsSecureConnection())
	assert.True(t, MustNew(NewEnvironment(EnvironmentConfig{TLS: true})).IsSecureConnection())
}
