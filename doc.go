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

// Package request models a single in-flight HTTP request.
//
// An immutable [Environment] snapshot captures the fields a server supplies
// (method, request URI, headers, TLS flag, script paths). A [Request] wraps
// one snapshot and derives a canonical, internally consistent set of request
// attributes from it (scheme, host, host info, URL, script URL, base URL,
// path info) using documented fallback chains. Derived attributes are
// memoized per instance; explicit setters override a value and invalidate
// everything computed from it.
//
// Content negotiation lives in the negotiate subpackage, body decoding in
// bodyparser. Body parameters are resolved lazily on first request, using
// the content type from the snapshot to pick a registered parser.
//
// A Request models exactly one request and is not safe for concurrent use;
// concurrent handlers each own a distinct instance.
//
// Example:
//
//	env := request.NewEnvironment(request.EnvironmentConfig{
//	    Method:     "POST",
//	    RequestURI: "/users?page=2",
//	    Header:     header,
//	    Body:       r.Body,
//	    ScriptFile: "/var/www/index.php",
//	    ScriptName: "/index.php",
//	})
//	req := request.MustNew(env, request.WithParsers(registry))
//
//	info, err := req.HostInfo()
//	params, err := req.BodyParams()
package request
