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

// This file derives the canonical request attributes (scheme, host, host
// info, URL, script URL, base URL, path info) from the environment snapshot.
// Each attribute is computed lazily at most once; setters override a value
// and invalidate everything computed from it.

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

// attrState tracks the lifecycle of one derived attribute.
type attrState uint8

const (
	attrUnset attrState = iota
	attrCached
	attrOverridden
)

// attr is one memoized attribute slot. Failures memoize like successes.
type attr[T any] struct {
	value T
	err   error
	state attrState
}

func (a *attr[T]) memoize(resolve func() (T, error)) (T, error) {
	if a.state == attrUnset {
		a.value, a.err = resolve()
		a.state = attrCached
	}

	return a.value, a.err
}

func (a *attr[T]) override(v T) {
	a.value = v
	a.err = nil
	a.state = attrOverridden
}

// drop resets a cached slot. Overridden slots survive: an override was not
// computed from anything, so no invalidation can reach it.
func (a *attr[T]) drop() {
	if a.state != attrCached {
		return
	}
	var zero T
	a.value = zero
	a.err = nil
	a.state = attrUnset
}

type dropper interface {
	drop()
}

// attributes is the per-request cache of derived values.
type attributes struct {
	scheme     attr[string]
	host       attr[string]
	hostInfo   attr[string]
	port       attr[int]
	securePort attr[int]
	url        attr[string]
	scriptURL  attr[string]
	baseURL    attr[string]
	pathInfo   attr[string]
	homeURL    attr[string]
}

// attrDependents lists, per attribute, the attributes directly computed
// from it. Invalidation walks this table transitively.
var attrDependents = map[string][]string{
	"scheme":     {"port", "securePort", "hostInfo"},
	"host":       {"hostInfo"},
	"port":       {"hostInfo"},
	"securePort": {"hostInfo"},
	"url":        {"pathInfo"},
	"scriptUrl":  {"baseUrl", "homeUrl"},
	"baseUrl":    {"pathInfo", "homeUrl"},
}

func (r *Request) attrSlot(name string) dropper {
	switch name {
	case "scheme":
		return &r.attrs.scheme
	case "host":
		return &r.attrs.host
	case "hostInfo":
		return &r.attrs.hostInfo
	case "port":
		return &r.attrs.port
	case "securePort":
		return &r.attrs.securePort
	case "url":
		return &r.attrs.url
	case "scriptUrl":
		return &r.attrs.scriptURL
	case "baseUrl":
		return &r.attrs.baseURL
	case "pathInfo":
		return &r.attrs.pathInfo
	case "homeUrl":
		return &r.attrs.homeURL
	default:
		return nil
	}
}

// invalidateDependents drops every attribute transitively computed from the
// named one.
func (r *Request) invalidateDependents(name string) {
	for _, dep := range attrDependents[name] {
		if slot := r.attrSlot(dep); slot != nil {
			slot.drop()
		}
		r.invalidateDependents(dep)
	}
}

// Scheme returns "https" when the connection is judged secure (the TLS
// flag is set, or a trusted forwarded-proto header says so), else "http".
func (r *Request) Scheme() string {
	s, _ := r.attrs.scheme.memoize(func() (string, error) {
		return r.resolveScheme(), nil
	})

	return s
}

// SetScheme overrides the scheme and invalidates everything computed from
// it. Intended for tests and reverse-proxy correction.
func (r *Request) SetScheme(scheme string) {
	r.attrs.scheme.override(scheme)
	r.invalidateDependents("scheme")
}

func (r *Request) resolveScheme() string {
	if r.env.TLS() {
		return "https"
	}
	if r.forwardedSecure() {
		return "https"
	}

	return "http"
}

// Host returns the header-supplied host (which may carry a port), falling
// back to the server-declared name. Empty when neither is available.
func (r *Request) Host() string {
	h, _ := r.attrs.host.memoize(func() (string, error) {
		if host := r.env.Header("Host"); host != "" {
			return host, nil
		}

		return r.env.ServerName(), nil
	})

	return h
}

// SetHost overrides the host and invalidates everything computed from it.
func (r *Request) SetHost(host string) {
	r.attrs.host.override(host)
	r.invalidateDependents("host")
}

// Port returns the port for plain-HTTP requests: the server-declared port
// when the connection is not secure, else 80.
func (r *Request) Port() int {
	p, _ := r.attrs.port.memoize(func() (int, error) {
		if r.Scheme() != "https" {
			if port := r.env.ServerPort(); port > 0 {
				return port, nil
			}
		}

		return 80, nil
	})

	return p
}

// SetPort overrides the port and invalidates the host info computed from
// it.
func (r *Request) SetPort(port int) {
	r.attrs.port.override(port)
	r.invalidateDependents("port")
}

// SecurePort returns the port for HTTPS requests: the server-declared port
// when the connection is secure, else 443.
func (r *Request) SecurePort() int {
	p, _ := r.attrs.securePort.memoize(func() (int, error) {
		if r.Scheme() == "https" {
			if port := r.env.ServerPort(); port > 0 {
				return port, nil
			}
		}

		return 443, nil
	})

	return p
}

// SetSecurePort overrides the secure port and invalidates the host info
// computed from it.
func (r *Request) SetSecurePort(port int) {
	r.attrs.securePort.override(port)
	r.invalidateDependents("securePort")
}

// HostInfo returns "scheme://host[:port]", omitting the port when it is the
// scheme's default. It fails with [URLResolutionError] when neither a Host
// header nor a server name is available, and enforces the host allow-list
// when one is configured.
func (r *Request) HostInfo() (string, error) {
	return r.attrs.hostInfo.memoize(r.resolveHostInfo)
}

func (r *Request) resolveHostInfo() (string, error) {
	host := r.Host()
	if host == "" {
		return "", &URLResolutionError{
			Attr:   "hostInfo",
			Reason: "neither a Host header nor a server name is available",
		}
	}

	if err := r.checkHost(host); err != nil {
		return "", err
	}

	scheme := r.Scheme()
	info := scheme + "://" + host

	if !hostHasPort(host) {
		port, def := r.Port(), 80
		if scheme == "https" {
			port, def = r.SecurePort(), 443
		}
		if port != def {
			info += ":" + strconv.Itoa(port)
		}
	}

	return info, nil
}

// URL returns the raw request target: path plus query string.
//
// Resolution order: an IIS rewrite header; the standard request-URI field
// (with any absolute scheme://host prefix stripped); the IIS 5 CGI
// path-info field combined with the query string.
func (r *Request) URL() (string, error) {
	return r.attrs.url.memoize(r.resolveURL)
}

// SetURL overrides the request target and invalidates the path info
// computed from it.
func (r *Request) SetURL(u string) {
	r.attrs.url.override(u)
	r.invalidateDependents("url")
}

func (r *Request) resolveURL() (string, error) {
	if rewrite := r.env.Header("X-Rewrite-Url"); rewrite != "" {
		return rewrite, nil
	}

	if uri := r.env.RequestURI(); uri != "" {
		return stripAbsolutePrefix(uri), nil
	}

	if info := r.env.OrigPathInfo(); info != "" {
		if qs := r.env.QueryString(); qs != "" {
			info += "?" + qs
		}

		return info, nil
	}

	return "", &URLResolutionError{
		Attr:   "url",
		Reason: "no rewrite header, request URI, or CGI path info is available",
	}
}

// stripAbsolutePrefix reduces an unexpectedly absolute request target
// ("scheme://host/path") to its path-and-query form.
func stripAbsolutePrefix(uri string) string {
	if !strings.HasPrefix(uri, "http") {
		return uri
	}
	idx := strings.Index(uri, "://")
	if idx < 0 {
		return uri
	}

	rest := uri[idx+3:]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		return rest[slash:]
	}

	return "/"
}

// ScriptURL returns the URL path of the entry script.
//
// Resolution tries, in order: the server-declared script name when its base
// filename matches the entry script's; the legacy self path under the same
// condition; the historical override field under the same condition; the
// script-name prefix up to and including the base filename located inside
// the legacy self path; the script file path with the document root prefix
// stripped.
func (r *Request) ScriptURL() (string, error) {
	return r.attrs.scriptURL.memoize(r.resolveScriptURL)
}

// SetScriptURL overrides the script URL and invalidates the base URL, home
// URL and path info computed from it.
func (r *Request) SetScriptURL(u string) {
	r.attrs.scriptURL.override(u)
	r.invalidateDependents("scriptUrl")
}

func (r *Request) resolveScriptURL() (string, error) {
	scriptBase := baseName(r.env.ScriptFile())

	if name := r.env.ScriptName(); name != "" && baseName(name) == scriptBase {
		return name, nil
	}
	if self := r.env.SelfPath(); self != "" && baseName(self) == scriptBase {
		return self, nil
	}
	if orig := r.env.OrigScriptName(); orig != "" && baseName(orig) == scriptBase {
		return orig, nil
	}

	if self := r.env.SelfPath(); self != "" && scriptBase != "" {
		if pos := strings.Index(self, "/"+scriptBase); pos >= 0 {
			if name := r.env.ScriptName(); pos <= len(name) {
				return name[:pos] + "/" + scriptBase, nil
			}
		}
	}

	if root := normalizeSlashes(r.env.DocumentRoot()); root != "" {
		file := normalizeSlashes(r.env.ScriptFile())
		if strings.HasPrefix(file, root) {
			return file[len(root):], nil
		}
	}

	return "", &URLResolutionError{
		Attr:   "scriptUrl",
		Reason: "no server field agrees with the entry script path",
	}
}

// BaseURL returns the directory portion of the script URL with trailing
// slashes removed.
func (r *Request) BaseURL() (string, error) {
	return r.attrs.baseURL.memoize(func() (string, error) {
		scriptURL, err := r.ScriptURL()
		if err != nil {
			return "", err
		}

		return strings.TrimRight(path.Dir(scriptURL), "\\/"), nil
	})
}

// SetBaseURL overrides the base URL and invalidates the path info and home
// URL computed from it.
func (r *Request) SetBaseURL(u string) {
	r.attrs.baseURL.override(u)
	r.invalidateDependents("baseUrl")
}

// PathInfo returns the part of the request path that follows the entry
// script, percent-decoded, without a leading slash and without the query
// string.
func (r *Request) PathInfo() (string, error) {
	return r.attrs.pathInfo.memoize(r.resolvePathInfo)
}

// SetPathInfo overrides the path info.
func (r *Request) SetPathInfo(p string) {
	r.attrs.pathInfo.override(p)
	r.invalidateDependents("pathInfo")
}

func (r *Request) resolvePathInfo() (string, error) {
	u, err := r.URL()
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}

	decoded, derr := url.QueryUnescape(u)
	if derr != nil {
		decoded = u
	}
	if !utf8.ValidString(decoded) {
		decoded = latin1ToUTF8(decoded)
	}

	scriptURL, err := r.ScriptURL()
	if err != nil {
		return "", err
	}
	baseURL, err := r.BaseURL()
	if err != nil {
		return "", err
	}

	switch {
	case scriptURL != "" && strings.HasPrefix(decoded, scriptURL):
		decoded = decoded[len(scriptURL):]
	case strings.HasPrefix(decoded, baseURL):
		decoded = decoded[len(baseURL):]
	case strings.HasPrefix(r.env.SelfPath(), scriptURL):
		decoded = r.env.SelfPath()[len(scriptURL):]
	default:
		return "", &URLResolutionError{
			Attr:   "pathInfo",
			Reason: "request path does not begin with the script URL or base URL",
		}
	}

	decoded, _ = strings.CutPrefix(decoded, "/")

	return decoded, nil
}

// AbsoluteURL returns hostInfo plus the request target. With stripMarkup
// set, any <tag>-style markup is removed: the value may echo into HTML.
func (r *Request) AbsoluteURL(stripMarkup bool) (string, error) {
	info, err := r.HostInfo()
	if err != nil {
		return "", err
	}
	u, err := r.URL()
	if err != nil {
		return "", err
	}

	abs := info + u
	if stripMarkup {
		abs = stripTags(abs)
	}

	return abs, nil
}

// HomeURL returns the application's home URL: the script URL when
// [WithShowScriptName] is configured, else the base URL with a trailing
// slash. [Request.SetHomeURL] overrides both.
func (r *Request) HomeURL() (string, error) {
	return r.attrs.homeURL.memoize(func() (string, error) {
		if r.showScriptName {
			return r.ScriptURL()
		}

		baseURL, err := r.BaseURL()
		if err != nil {
			return "", err
		}

		return baseURL + "/", nil
	})
}

// SetHomeURL overrides the home URL.
func (r *Request) SetHomeURL(u string) {
	r.attrs.homeURL.override(u)
}

// baseName returns the final path element, treating both slash kinds as
// separators.
func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}

	return p
}

func normalizeSlashes(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// latin1ToUTF8 re-encodes a byte string as UTF-8, mapping each byte to the
// identically numbered code point.
func latin1ToUTF8(s string) string {
	runes := make([]rune, 0, len(s))
	for _, b := range []byte(s) {
		runes = append(runes, rune(b))
	}

	return string(runes)
}

// stripTags removes <...> spans. An unterminated tag swallows the rest of
// the string.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	for i := 0; i < len(s); i++ {
		switch {
		case inTag:
			if s[i] == '>' {
				inTag = false
			}
		case s[i] == '<':
			inTag = true
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}

// hostHasPort reports whether a host string already carries a port,
// distinguishing IPv6 literals from port separators.
func hostHasPort(host string) bool {
	colon := strings.LastIndexByte(host, ':')
	if colon < 0 {
		return false
	}
	bracket := strings.LastIndexByte(host, ']')

	return colon > bracket
}
