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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EnvironmentConfig
		opts []Option
		want string
	}{
		{
			name: "plain connection",
			cfg:  EnvironmentConfig{},
			want: "http",
		},
		{
			name: "tls connection",
			cfg:  EnvironmentConfig{TLS: true},
			want: "https",
		},
		{
			name: "forwarded proto trusted without proxy config",
			cfg: EnvironmentConfig{
				Header: http.Header{"X-Forwarded-Proto": {"https"}},
			},
			want: "https",
		},
		{
			name: "forwarded proto first value wins",
			cfg: EnvironmentConfig{
				Header: http.Header{"X-Forwarded-Proto": {"https, http"}},
			},
			want: "https",
		},
		{
			name: "forwarded ssl flag",
			cfg: EnvironmentConfig{
				Header: http.Header{"X-Forwarded-Ssl": {"on"}},
			},
			want: "https",
		},
		{
			name: "forwarded proto ignored from untrusted peer",
			cfg: EnvironmentConfig{
				RemoteAddr: "203.0.113.7:1234",
				Header:     http.Header{"X-Forwarded-Proto": {"https"}},
			},
			opts: []Option{WithTrustedProxies("10.0.0.0/8")},
			want: "http",
		},
		{
			name: "forwarded proto honored from trusted peer",
			cfg: EnvironmentConfig{
				RemoteAddr: "10.0.0.2:1234",
				Header:     http.Header{"X-Forwarded-Proto": {"https"}},
			},
			opts: []Option{WithTrustedProxies("10.0.0.0/8")},
			want: "https",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg), tt.opts...)
			assert.Equal(t, tt.want, r.Scheme())
		})
	}
}

func TestHostInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EnvironmentConfig
		want string
	}{
		{
			name: "host header default port omitted",
			cfg: EnvironmentConfig{
				Header:     http.Header{"Host": {"example.com"}},
				ServerPort: 80,
			},
			want: "http://example.com",
		},
		{
			name: "server name fallback",
			cfg:  EnvironmentConfig{ServerName: "fallback.example.com"},
			want: "http://fallback.example.com",
		},
		{
			name: "non-default port appended",
			cfg: EnvironmentConfig{
				Header:     http.Header{"Host": {"example.com"}},
				ServerPort: 8080,
			},
			want: "http://example.com:8080",
		},
		{
			name: "host header port kept verbatim",
			cfg: EnvironmentConfig{
				Header:     http.Header{"Host": {"example.com:9000"}},
				ServerPort: 8080,
			},
			want: "http://example.com:9000",
		},
		{
			name: "https default port omitted",
			cfg: EnvironmentConfig{
				Header:     http.Header{"Host": {"example.com"}},
				TLS:        true,
				ServerPort: 443,
			},
			want: "https://example.com",
		},
		{
			name: "https non-default port appended",
			cfg: EnvironmentConfig{
				Header:     http.Header{"Host": {"example.com"}},
				TLS:        true,
				ServerPort: 8443,
			},
			want: "https://example.com:8443",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg))
			info, err := r.HostInfo()
			require.NoError(t, err)
			assert.Equal(t, tt.want, info)
		})
	}
}

func TestHostInfoNoHost(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{}))

	_, err := r.HostInfo()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrURLResolution)

	var resErr *URLResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "hostInfo", resErr.Attr)
}

func TestSetPortInvalidatesHostInfo(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Host": {"example.com"}},
	}))

	info, err := r.HostInfo()
	require.NoError(t, err)
	require.Equal(t, "http://example.com", info)

	r.SetPort(8080)

	info, err = r.HostInfo()
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:8080", info)
}

func TestSetSchemeInvalidatesDerivedPorts(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header:     http.Header{"Host": {"example.com"}},
		ServerPort: 8443,
	}))

	require.Equal(t, 8443, r.Port())

	r.SetScheme("https")

	assert.Equal(t, 80, r.Port())
	assert.Equal(t, 8443, r.SecurePort())
	info, err := r.HostInfo()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com:8443", info)
}

func TestOverrideSurvivesInvalidation(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header: http.Header{"Host": {"example.com"}},
	}))

	r.SetPort(9000)
	// Scheme invalidation reaches port, but an override is not computed
	// from the scheme and must survive.
	r.SetScheme("http")

	assert.Equal(t, 9000, r.Port())
}

func TestURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     EnvironmentConfig
		want    string
		wantErr bool
	}{
		{
			name: "rewrite header wins",
			cfg: EnvironmentConfig{
				Header:     http.Header{"X-Rewrite-Url": {"/rewritten?x=1"}},
				RequestURI: "/original",
			},
			want: "/rewritten?x=1",
		},
		{
			name: "request uri",
			cfg:  EnvironmentConfig{RequestURI: "/foo/?page=1"},
			want: "/foo/?page=1",
		},
		{
			name: "absolute request uri reduced to path",
			cfg:  EnvironmentConfig{RequestURI: "http://example.com/foo?page=1"},
			want: "/foo?page=1",
		},
		{
			name: "cgi path info with query string",
			cfg: EnvironmentConfig{
				OrigPathInfo: "/legacy",
				QueryString:  "page=1",
			},
			want: "/legacy?page=1",
		},
		{
			name:    "nothing available",
			cfg:     EnvironmentConfig{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg))
			u, err := r.URL()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrURLResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestScriptURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     EnvironmentConfig
		want    string
		wantErr bool
	}{
		{
			name: "script name matches entry script",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/app/index.php",
				ScriptName: "/app/index.php",
			},
			want: "/app/index.php",
		},
		{
			name: "self path fallback",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/other.php",
				SelfPath:   "/index.php",
			},
			want: "/index.php",
		},
		{
			name: "historical override fallback",
			cfg: EnvironmentConfig{
				ScriptFile:     "/var/www/index.php",
				OrigScriptName: "/index.php",
			},
			want: "/index.php",
		},
		{
			name: "base filename located inside self path",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/app",
				SelfPath:   "/app/index.php/extra",
			},
			want: "/app/index.php",
		},
		{
			name: "document root prefix stripped",
			cfg: EnvironmentConfig{
				ScriptFile:   "/var/www/html/index.php",
				DocumentRoot: "/var/www/html",
			},
			want: "/index.php",
		},
		{
			name: "windows separators normalized",
			cfg: EnvironmentConfig{
				ScriptFile:   `C:\www\html\index.php`,
				DocumentRoot: `C:\www\html`,
			},
			want: "/index.php",
		},
		{
			name:    "nothing agrees",
			cfg:     EnvironmentConfig{ScriptFile: "/var/www/index.php"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg))
			u, err := r.ScriptURL()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrURLResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		ScriptFile: "/var/www/app/index.php",
		ScriptName: "/app/index.php",
	}))

	base, err := r.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "/app", base)
}

func TestPathInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EnvironmentConfig
		want string
	}{
		{
			name: "entry script at web root",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/index.php",
				RequestURI: "/foo/?page=1",
			},
			want: "foo/",
		},
		{
			name: "script url prefix stripped",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/index.php",
				RequestURI: "/index.php/post/12",
			},
			want: "post/12",
		},
		{
			name: "base url prefix stripped",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/app/index.php",
				ScriptName: "/app/index.php",
				RequestURI: "/app/post/12",
			},
			want: "post/12",
		},
		{
			name: "percent escapes decoded",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/index.php",
				RequestURI: "/caf%C3%A9",
			},
			want: "café",
		},
		{
			name: "undecodable escape kept raw",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/index.php",
				RequestURI: "/a%zz",
			},
			want: "a%zz",
		},
		{
			name: "latin1 bytes re-encoded",
			cfg: EnvironmentConfig{
				ScriptFile: "/var/www/index.php",
				ScriptName: "/index.php",
				RequestURI: "/caf%E9",
			},
			want: "caf\u00e9",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := MustNew(NewEnvironment(tt.cfg))
			info, err := r.PathInfo()
			require.NoError(t, err)
			assert.Equal(t, tt.want, info)
		})
	}
}

func TestPathInfoOutsideBase(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		ScriptFile: "/var/www/app/index.php",
		ScriptName: "/app/index.php",
		RequestURI: "/elsewhere/post/12",
	}))

	_, err := r.PathInfo()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrURLResolution)
}

func TestAttributeResolvedOnce(t *testing.T) {
	t.Parallel()

	reads := map[string]int{}
	env := NewEnvironment(EnvironmentConfig{
		ScriptFile: "/var/www/index.php",
		ScriptName: "/index.php",
		RequestURI: "/foo/?page=1",
	}, WithReadProbe(func(field string) {
		reads[field]++
	}))
	r := MustNew(env)

	first, err := r.PathInfo()
	require.NoError(t, err)
	second, err := r.PathInfo()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reads["requestURI"])
	assert.Equal(t, 1, reads["scriptName"])
}

func TestSetURLInvalidatesPathInfo(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		ScriptFile: "/var/www/index.php",
		ScriptName: "/index.php",
		RequestURI: "/foo/?page=1",
	}))

	info, err := r.PathInfo()
	require.NoError(t, err)
	require.Equal(t, "foo/", info)

	r.SetURL("/bar/baz?x=1")

	info, err = r.PathInfo()
	require.NoError(t, err)
	assert.Equal(t, "bar/baz", info)
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header:     http.Header{"Host": {"example.com"}},
		RequestURI: "/foo?page=1",
	}))

	abs, err := r.AbsoluteURL(false)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/foo?page=1", abs)
}

func TestAbsoluteURLStripsMarkup(t *testing.T) {
	t.Parallel()

	r := MustNew(NewEnvironment(EnvironmentConfig{
		Header:     http.Header{"Host": {"example.com"}},
		RequestURI: "/foo?q=<script>alert(1)</script>",
	}))

	abs, err := r.AbsoluteURL(true)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/foo?q=alert(1)", abs)
}

func TestHomeURL(t *testing.T) {
	t.Parallel()

	cfg := EnvironmentConfig{
		ScriptFile: "/var/www/app/index.php",
		ScriptName: "/app/index.php",
	}

	t.Run("base url with trailing slash", func(t *testing.T) {
		t.Parallel()

		r := MustNew(NewEnvironment(cfg))
		home, err := r.HomeURL()
		require.NoError(t, err)
		assert.Equal(t, "/app/", home)
	})

	t.Run("script url when shown", func(t *testing.T) {
		t.Parallel()

		r := MustNew(NewEnvironment(cfg), WithShowScriptName())
		home, err := r.HomeURL()
		require.NoError(t, err)
		assert.Equal(t, "/app/index.php", home)
	})

	t.Run("explicit override", func(t *testing.T) {
		t.Parallel()

		r := MustNew(NewEnvironment(cfg))
		r.SetHomeURL("/custom")
		home, err := r.HomeURL()
		require.NoError(t, err)
		assert.Equal(t, "/custom", home)
	})
}
