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
	"io"
	"net/http"
	"net/url"
)

// EnvironmentConfig carries the raw, server-supplied fields of one request.
// It is consumed by [NewEnvironment]; the snapshot copies what it needs, so
// later mutation of the config or its maps does not leak into the request.
type EnvironmentConfig struct {
	// Method is the HTTP method as received from the transport.
	Method string

	// RequestURI is the raw request target (path plus query).
	RequestURI string

	// QueryString is the raw query string, without the leading "?".
	QueryString string

	// Header holds the request headers. Lookup is case-insensitive.
	Header http.Header

	// Form holds the framework-decoded form fields, when the transport
	// already parsed them.
	Form url.Values

	// Body is the raw request body. It is read at most once, lazily.
	Body io.Reader

	// RemoteAddr is the peer address, "ip:port" or bare IP.
	RemoteAddr string

	// TLS reports whether the connection itself is encrypted.
	TLS bool

	// ServerName is the server-declared host name.
	ServerName string

	// ServerPort is the server-declared listening port; 0 when unknown.
	ServerPort int

	// ScriptFile is the absolute filesystem path of the entry script.
	ScriptFile string

	// ScriptName is the server-declared URL path of the entry script.
	ScriptName string

	// SelfPath is the legacy self-referencing script path some servers
	// supply alongside ScriptName.
	SelfPath string

	// OrigScriptName is the historical override of ScriptName.
	OrigScriptName string

	// OrigPathInfo is the CGI path-info field older IIS versions supply in
	// place of a request URI.
	OrigPathInfo string

	// DocumentRoot is the server's document root directory.
	DocumentRoot string
}

// EnvironmentOption configures an [Environment].
type EnvironmentOption func(*Environment)

// WithReadProbe installs a probe invoked with a field name on every
// snapshot read. Intended for tests asserting that derivations touch the
// underlying fields a bounded number of times.
func WithReadProbe(probe func(field string)) EnvironmentOption {
	return func(e *Environment) {
		e.probe = probe
	}
}

// Environment is an immutable snapshot of the server-supplied fields of one
// request. It is created once per request, read-only thereafter, and owned
// by exactly one [Request].
type Environment struct {
	cfg    EnvironmentConfig
	header http.Header
	form   url.Values
	probe  func(field string)
}

// NewEnvironment captures a snapshot of the given fields. Header and form
// maps are deep-copied.
func NewEnvironment(cfg EnvironmentConfig, opts ...EnvironmentOption) *Environment {
	e := &Environment{
		cfg:    cfg,
		header: cloneHeader(cfg.Header),
		form:   cloneValues(cfg.Form),
	}
	e.cfg.Header = nil
	e.cfg.Form = nil

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Environment) read(field string) {
	if e.probe != nil {
		e.probe(field)
	}
}

// Method returns the transport-level HTTP method.
func (e *Environment) Method() string {
	e.read("method")
	return e.cfg.Method
}

// RequestURI returns the raw request target.
func (e *Environment) RequestURI() string {
	e.read("requestURI")
	return e.cfg.RequestURI
}

// QueryString returns the raw query string.
func (e *Environment) QueryString() string {
	e.read("queryString")
	return e.cfg.QueryString
}

// Header returns the first value of the named header, case-insensitively.
func (e *Environment) Header(name string) string {
	e.read("header:" + name)
	return e.header.Get(name)
}

// Form returns a copy of the framework-decoded form fields.
func (e *Environment) Form() url.Values {
	e.read("form")
	return cloneValues(e.form)
}

// FormValue returns the first framework-decoded form value for name.
func (e *Environment) FormValue(name string) string {
	e.read("form:" + name)
	return e.form.Get(name)
}

// Body returns the raw body reader. Callers must read it at most once.
func (e *Environment) Body() io.Reader {
	e.read("body")
	return e.cfg.Body
}

// RemoteAddr returns the peer address.
func (e *Environment) RemoteAddr() string {
	e.read("remoteAddr")
	return e.cfg.RemoteAddr
}

// TLS reports whether the connection is encrypted.
func (e *Environment) TLS() bool {
	e.read("tls")
	return e.cfg.TLS
}

// ServerName returns the server-declared host name.
func (e *Environment) ServerName() string {
	e.read("serverName")
	return e.cfg.ServerName
}

// ServerPort returns the server-declared port, 0 when unknown.
func (e *Environment) ServerPort() int {
	e.read("serverPort")
	return e.cfg.ServerPort
}

// ScriptFile returns the absolute path of the entry script.
func (e *Environment) ScriptFile() string {
	e.read("scriptFile")
	return e.cfg.ScriptFile
}

// ScriptName returns the server-declared script URL path.
func (e *Environment) ScriptName() string {
	e.read("scriptName")
	return e.cfg.ScriptName
}

// SelfPath returns the legacy self-referencing script path.
func (e *Environment) SelfPath() string {
	e.read("selfPath")
	return e.cfg.SelfPath
}

// OrigScriptName returns the historical script-name override.
func (e *Environment) OrigScriptName() string {
	e.read("origScriptName")
	return e.cfg.OrigScriptName
}

// OrigPathInfo returns the IIS 5 CGI path-info field.
func (e *Environment) OrigPathInfo() string {
	e.read("origPathInfo")
	return e.cfg.OrigPathInfo
}

// DocumentRoot returns the server's document root.
func (e *Environment) DocumentRoot() string {
	e.read("documentRoot")
	return e.cfg.DocumentRoot
}

func cloneHeader(h http.Header) http.Header {
	cp := make(http.Header, len(h))
	for key, vals := range h {
		cp[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}

	return cp
}

func cloneValues(v url.Values) url.Values {
	cp := make(url.Values, len(v))
	for key, vals := range v {
		cp[key] = append([]string(nil), vals...)
	}

	return cp
}
