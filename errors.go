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
	"errors"
	"fmt"
	"strings"
)

// Static errors for request construction and attribute resolution.
var (
	// ErrNilEnvironment is returned by [New] when no snapshot is supplied.
	ErrNilEnvironment = errors.New("request environment is nil")

	// ErrURLResolution is the sentinel wrapped by every
	// [URLResolutionError].
	ErrURLResolution = errors.New("cannot resolve request attribute")

	// ErrDomainMismatch is the sentinel wrapped by every
	// [DomainMismatchError].
	ErrDomainMismatch = errors.New("host not in allow-list")
)

// URLResolutionError reports that an attribute could not be derived from the
// fields available in the environment snapshot.
//
// Use [errors.As] to recover it, or [errors.Is] with [ErrURLResolution]:
//
//	var resErr *request.URLResolutionError
//	if errors.As(err, &resErr) {
//	    log.Printf("cannot determine %s", resErr.Attr)
//	}
type URLResolutionError struct {
	Attr   string // Attribute that failed to resolve, e.g. "hostInfo"
	Reason string // Which fields were missing or unusable
}

// Error returns a formatted error message.
func (e *URLResolutionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot resolve %q from the request environment", e.Attr)
	}

	return fmt.Sprintf("cannot resolve %q: %s", e.Attr, e.Reason)
}

// Is reports sentinel identity with [ErrURLResolution].
func (e *URLResolutionError) Is(target error) bool {
	return target == ErrURLResolution
}

// DomainMismatchError reports a resolved host that failed the configured
// allow-list check.
type DomainMismatchError struct {
	Host    string   // The rejected host
	Allowed []string // The configured allow-list patterns
}

// Error returns a formatted error message.
func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("host %q does not match allowed patterns [%s]",
		e.Host, strings.Join(e.Allowed, ", "))
}

// Is reports sentinel identity with [ErrDomainMismatch].
func (e *DomainMismatchError) Is(target error) bool {
	return target == ErrDomainMismatch
}
