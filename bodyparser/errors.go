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

package bodyparser

import (
	"errors"
	"fmt"
)

// Static errors for parser dispatch.
var (
	// ErrParse is the sentinel wrapped by every [ParseError].
	ErrParse = errors.New("cannot parse request body")

	// ErrInvalidParser is the sentinel wrapped by every [InvalidParserError].
	ErrInvalidParser = errors.New("registered entry is not a parser")

	// ErrNoMessageFactory is returned by [ProtoParser] when no message
	// factory was configured.
	ErrNoMessageFactory = errors.New("proto parser requires a message factory")
)

// ParseError reports that a parser could not decode the raw body for its
// content type.
//
// Use [errors.As] to recover it, or [errors.Is] with [ErrParse]:
//
//	var parseErr *bodyparser.ParseError
//	if errors.As(err, &parseErr) {
//	    log.Printf("bad %s body: %v", parseErr.ContentType, parseErr.Err)
//	}
type ParseError struct {
	ContentType string // Content type the parser was resolved for
	Err         error  // Underlying decode error
}

// Error returns a formatted error message.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s body: %v", e.ContentType, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports sentinel identity with [ErrParse].
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// InvalidParserError reports a registry entry that does not implement
// [Parser]. This is a configuration error and is never recoverable at
// request time.
type InvalidParserError struct {
	ContentType string // Content type the entry was resolved for
	Entry       any    // The offending registry entry
}

// Error returns a formatted error message.
func (e *InvalidParserError) Error() string {
	return fmt.Sprintf("entry registered for %q is %T, which does not implement bodyparser.Parser",
		e.ContentType, e.Entry)
}

// Is reports sentinel identity with [ErrInvalidParser].
func (e *InvalidParserError) Is(target error) bool {
	return target == ErrInvalidParser
}
