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
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/romeOz/rock-request/bodyparser"
	"github.com/romeOz/rock-request/negotiate"
	"github.com/romeOz/rock-request/sanitize"
)

// DefaultMethodParam is the form field consulted for method overrides when
// [WithMethodParam] is not used.
const DefaultMethodParam = "_method"

// Option configures a [Request].
type Option func(*Request)

// WithParsers installs the body parser registry consulted by
// [Request.BodyParams].
//
// Example:
//
//	reg := bodyparser.NewRegistry()
//	reg.Register("application/json", &bodyparser.JSONParser{})
//	req := request.MustNew(env, request.WithParsers(reg))
func WithParsers(reg *bodyparser.Registry) Option {
	return func(r *Request) {
		r.parsers = reg
	}
}

// WithTrustedProxies sets the CIDR ranges whose forwarded headers
// (X-Forwarded-Proto, X-Forwarded-For, X-Real-IP) are trusted. Without this
// option forwarded-proto is trusted unconditionally and X-Forwarded-For is
// never consulted.
//
// Example:
//
//	request.WithTrustedProxies("10.0.0.0/8", "127.0.0.1/32")
func WithTrustedProxies(cidrs ...string) Option {
	return func(r *Request) {
		r.trustedCIDRs = append(r.trustedCIDRs, cidrs...)
	}
}

// WithAllowedHosts sets host patterns the resolved host must match.
// Patterns are exact names or "*." prefixed wildcards ("*.example.com").
func WithAllowedHosts(patterns ...string) Option {
	return func(r *Request) {
		r.allowedHosts = append(r.allowedHosts, patterns...)
	}
}

// WithMismatchLogger switches the allow-list check from erroring to
// logging: a rejected host is reported to the logger and the request
// continues, flagged via [Request.HostMismatched].
func WithMismatchLogger(logger *slog.Logger) Option {
	return func(r *Request) {
		r.mismatchLog = logger
	}
}

// WithMethodParam renames the method-override form field.
func WithMethodParam(name string) Option {
	return func(r *Request) {
		r.methodParam = name
	}
}

// WithShowScriptName makes [Request.HomeURL] resolve to the script URL
// instead of the base URL.
func WithShowScriptName() Option {
	return func(r *Request) {
		r.showScriptName = true
	}
}

// WithSanitizer installs the external sanitization engine used by the
// Clean* accessors. Without it they pass values through unchanged.
func WithSanitizer(engine sanitize.Engine) Option {
	return func(r *Request) {
		r.sanitizer = engine
	}
}

// Request models exactly one in-flight HTTP request.
//
// It derives canonical attributes from an immutable [Environment] snapshot,
// memoizing each derivation per instance. A Request must not be shared
// across concurrently handled requests; beyond that, no locking discipline
// is required.
type Request struct {
	env *Environment

	parsers      *bodyparser.Registry
	trustedCIDRs []string
	realip       *realIPConfig
	allowedHosts []string
	mismatchLog  *slog.Logger
	methodParam  string
	sanitizer    sanitize.Engine

	showScriptName bool
	hostMismatch   bool

	attrs attributes

	rawBody     []byte
	rawBodyErr  error
	rawBodyRead bool

	bodyParams   map[string]any
	bodyErr      error
	bodyResolved bool

	queryParams   url.Values
	queryResolved bool

	acceptTypes    negotiate.Entries
	acceptTypesSet bool
	acceptLangs    negotiate.Entries
	acceptLangsSet bool
}

// New creates a Request over the given environment snapshot.
// It fails when the snapshot is nil or a trusted proxy CIDR does not parse.
func New(env *Environment, opts ...Option) (*Request, error) {
	if env == nil {
		return nil, ErrNilEnvironment
	}

	r := &Request{
		env:         env,
		methodParam: DefaultMethodParam,
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(r.trustedCIDRs) > 0 {
		cfg, err := compileTrustedProxies(r.trustedCIDRs)
		if err != nil {
			return nil, err
		}
		r.realip = cfg
	}

	return r, nil
}

// MustNew is [New] panicking on error. Use where request construction
// happens under already-validated configuration.
func MustNew(env *Environment, opts ...Option) *Request {
	r, err := New(env, opts...)
	if err != nil {
		panic(fmt.Sprintf("request.MustNew: %v", err))
	}

	return r
}

// Environment returns the underlying snapshot.
func (r *Request) Environment() *Environment {
	return r.env
}

// Method returns the effective HTTP method, upper-cased. A method-override
// form field (see [WithMethodParam]) wins over the X-Http-Method-Override
// header, which wins over the transport method. Defaults to GET.
func (r *Request) Method() string {
	if ov := r.env.FormValue(r.methodParam); ov != "" {
		return strings.ToUpper(ov)
	}
	if ov := r.env.Header("X-Http-Method-Override"); ov != "" {
		return strings.ToUpper(ov)
	}
	if m := r.env.Method(); m != "" {
		return strings.ToUpper(m)
	}

	return http.MethodGet
}

// IsGet reports whether the effective method is GET.
func (r *Request) IsGet() bool {
	return r.Method() == http.MethodGet
}

// IsPost reports whether the effective method is POST.
func (r *Request) IsPost() bool {
	return r.Method() == http.MethodPost
}

// IsAjax reports whether the request was made via XMLHttpRequest.
func (r *Request) IsAjax() bool {
	return r.env.Header("X-Requested-With") == "XMLHttpRequest"
}

// IsSecureConnection reports whether the request is judged to be HTTPS.
func (r *Request) IsSecureConnection() bool {
	return r.Scheme() == "https"
}

// QueryString returns the raw query string from the snapshot.
func (r *Request) QueryString() string {
	return r.env.QueryString()
}

// ContentType returns the Content-Type header verbatim, parameters
// included.
func (r *Request) ContentType() string {
	return r.env.Header("Content-Type")
}

// Referrer returns the Referer header.
func (r *Request) Referrer() string {
	return r.env.Header("Referer")
}

// UserAgent returns the User-Agent header.
func (r *Request) UserAgent() string {
	return r.env.Header("User-Agent")
}

// Origin returns the Origin header.
func (r *Request) Origin() string {
	return r.env.Header("Origin")
}

// ETags returns the entity tags of the If-None-Match header.
func (r *Request) ETags() []string {
	header := r.env.Header("If-None-Match")
	if header == "" {
		return nil
	}

	parts := strings.Split(strings.ReplaceAll(header, "-gzip", ""), ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// AcceptableContentTypes returns the negotiated preference order of the
// Accept header. Parsed once per instance.
func (r *Request) AcceptableContentTypes() negotiate.Entries {
	if !r.acceptTypesSet {
		r.acceptTypes = negotiate.ParseAcceptHeader(r.env.Header("Accept"))
		r.acceptTypesSet = true
	}

	return r.acceptTypes
}

// AcceptableLanguages returns the negotiated preference order of the
// Accept-Language header. Parsed once per instance.
func (r *Request) AcceptableLanguages() negotiate.Entries {
	if !r.acceptLangsSet {
		r.acceptLangs = negotiate.ParseAcceptHeader(r.env.Header("Accept-Language"))
		r.acceptLangsSet = true
	}

	return r.acceptLangs
}

// PreferredLanguage matches the Accept-Language header against the
// languages the application supports. See [negotiate.PreferredLanguage]
// for the matching rules.
func (r *Request) PreferredLanguage(supported []string) string {
	return negotiate.PreferredLanguage(r.env.Header("Accept-Language"), supported)
}

// PreferredContentType returns the first offer acceptable per the Accept
// header, or the first offer when the header is absent.
func (r *Request) PreferredContentType(offers ...string) string {
	return r.AcceptableContentTypes().Preferred(offers...)
}
