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
	"strings"

	"github.com/romeOz/rock-request/bodyparser"
)

// RawBody returns the request body bytes. The underlying reader is
// consumed at most once; the captured bytes (or the read error) are cached
// for the lifetime of the request.
func (r *Request) RawBody() ([]byte, error) {
	if !r.rawBodyRead {
		r.rawBodyRead = true
		if body := r.env.Body(); body != nil {
			r.rawBody, r.rawBodyErr = io.ReadAll(body)
		}
	}

	return r.rawBody, r.rawBodyErr
}

// BodyParams returns the decoded request body parameters.
//
// Resolution, memoized including failures (the body is never re-read and a
// failed parse is not retried):
//
//  1. A method-override form field short-circuits dispatch: the remaining
//     framework-decoded form fields are the body parameters.
//  2. The content type is truncated at the first ";" and looked up in the
//     parser registry, exact match first, then the wildcard entry. A
//     matched entry that is not a [bodyparser.Parser] is an
//     [bodyparser.InvalidParserError].
//  3. With no registered parser, a POST request uses the framework-decoded
//     form fields as-is.
//  4. Anything else decodes the raw body as a URL-encoded form string.
func (r *Request) BodyParams() (map[string]any, error) {
	if !r.bodyResolved {
		r.bodyParams, r.bodyErr = r.resolveBodyParams()
		r.bodyResolved = true
	}

	return r.bodyParams, r.bodyErr
}

func (r *Request) resolveBodyParams() (map[string]any, error) {
	form := r.env.Form()
	if override := form.Get(r.methodParam); override != "" {
		form.Del(r.methodParam)

		return bodyparser.ValuesToMap(form), nil
	}

	contentType := r.ContentType()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)

	if r.parsers != nil {
		parser, found, err := r.parsers.Resolve(contentType)
		if err != nil {
			return nil, err
		}
		if found {
			raw, err := r.RawBody()
			if err != nil {
				return nil, err
			}

			return parser.Parse(raw, contentType)
		}
	}

	if r.Method() == http.MethodPost {
		return bodyparser.ValuesToMap(form), nil
	}

	raw, err := r.RawBody()
	if err != nil {
		return nil, err
	}
	values, _ := url.ParseQuery(strings.TrimSpace(string(raw)))

	return bodyparser.ValuesToMap(values), nil
}
