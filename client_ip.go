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
	"net"
	"strings"
)

// realIPConfig holds the compiled trusted-proxy configuration.
type realIPConfig struct {
	cidrs []*net.IPNet
}

// compileTrustedProxies parses the CIDR list once at construction.
func compileTrustedProxies(cidrs []string) (*realIPConfig, error) {
	cfg := &realIPConfig{cidrs: make([]*net.IPNet, 0, len(cidrs))}
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %q: %w", cidr, err)
		}
		cfg.cidrs = append(cfg.cidrs, ipnet)
	}

	return cfg, nil
}

// isTrusted checks whether an IP is inside a trusted CIDR range.
func (cfg *realIPConfig) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, ipnet := range cfg.cidrs {
		if ipnet.Contains(parsed) {
			return true
		}
	}

	return false
}

// RemoteIP returns the immediate peer address with any port removed.
func (r *Request) RemoteIP() string {
	remote := r.env.RemoteAddr()
	if remote == "" {
		return ""
	}

	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		// No port, use as-is.
		return remote
	}

	return host
}

// ClientIP returns the real client address.
//
// Forwarding headers are only consulted when trusted proxies are configured
// and the immediate peer is inside a trusted range; anything else returns
// the peer address, so clients cannot spoof their IP by sending forged
// headers. X-Forwarded-For is walked for the leftmost untrusted hop, then
// X-Real-IP is used verbatim.
func (r *Request) ClientIP() string {
	remote := r.RemoteIP()
	if r.realip == nil || !r.realip.isTrusted(remote) {
		return remote
	}

	if ip := forwardedClientIP(r.env.Header("X-Forwarded-For"), r.realip); ip != "" {
		return ip
	}
	if ip := parseOneIP(r.env.Header("X-Real-Ip")); ip != "" {
		return ip
	}

	return remote
}

// forwardedClientIP picks the client address out of an X-Forwarded-For
// chain: the leftmost IP outside the trusted ranges, or the leftmost IP
// when every hop is trusted.
func forwardedClientIP(xff string, cfg *realIPConfig) string {
	if xff == "" {
		return ""
	}

	var leftmost string
	for _, part := range strings.Split(xff, ",") {
		ip := parseOneIP(part)
		if ip == "" {
			continue
		}
		if leftmost == "" {
			leftmost = ip
		}
		if !cfg.isTrusted(ip) {
			return ip
		}
	}

	return leftmost
}

// parseOneIP parses a single IP address, trimming whitespace.
func parseOneIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}

	return ip.String()
}

// forwardedSecure reports whether a forwarded-proto header claims HTTPS.
// With trusted proxies configured, the claim only counts when the peer is
// trusted; without them it is taken at face value.
func (r *Request) forwardedSecure() bool {
	if r.realip != nil && !r.realip.isTrusted(r.RemoteIP()) {
		return false
	}

	proto := r.env.Header("X-Forwarded-Proto")
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	if strings.EqualFold(strings.TrimSpace(proto), "https") {
		return true
	}

	return strings.EqualFold(r.env.Header("X-Forwarded-Ssl"), "on")
}
