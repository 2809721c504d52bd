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
	"log/slog"
	"slices"
	"strings"
)

// HostMismatched reports whether the resolved host was rejected by the
// allow-list while a mismatch logger kept the request alive.
func (r *Request) HostMismatched() bool {
	return r.hostMismatch
}

// checkHost enforces the configured host allow-list. With a mismatch
// logger installed a rejection is logged and the request continues;
// without one it is a DomainMismatchError.
func (r *Request) checkHost(host string) error {
	if len(r.allowedHosts) == 0 {
		return nil
	}

	name := stripHostPort(host)
	for _, pattern := range r.allowedHosts {
		if matchHostPattern(pattern, name) {
			return nil
		}
	}

	r.hostMismatch = true
	if r.mismatchLog != nil {
		r.mismatchLog.Warn("request host rejected by allow-list",
			slog.String("host", name),
			slog.Any("allowed", r.allowedHosts),
		)

		return nil
	}

	return &DomainMismatchError{Host: name, Allowed: slices.Clone(r.allowedHosts)}
}

// matchHostPattern matches a host name against an allow-list pattern,
// case-insensitively. "*." patterns match the bare domain and any
// subdomain of it.
func matchHostPattern(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	host = strings.ToLower(host)

	if sub, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == sub || strings.HasSuffix(host, "."+sub)
	}

	return host == pattern
}

// stripHostPort removes a trailing port, leaving IPv6 literals intact.
func stripHostPort(host string) string {
	if !hostHasPort(host) {
		return host
	}

	return host[:strings.LastIndexByte(host, ':')]
}
