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

// This file is the accessor layer: named parameter accessors that share one
// sanitize-application helper, typed coercion on top of them, and struct
// decoding of body parameters.

import (
	"net/url"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/romeOz/rock-request/sanitize"
)

// QueryParams returns the parameters parsed from the query string. Parsed
// once per instance; pairs with malformed escapes are dropped, the rest
// kept.
func (r *Request) QueryParams() url.Values {
	if !r.queryResolved {
		r.queryParams, _ = url.ParseQuery(r.env.QueryString())
		r.queryResolved = true
	}

	return r.queryParams
}

// QueryParam returns the first raw query value for name.
func (r *Request) QueryParam(name string) string {
	return r.QueryParams().Get(name)
}

// FormValue returns the first framework-decoded form value for name.
func (r *Request) FormValue(name string) string {
	return r.env.FormValue(name)
}

// BodyParam returns one decoded body parameter. The error is the memoized
// body resolution error, if any.
func (r *Request) BodyParam(name string) (any, error) {
	params, err := r.BodyParams()
	if err != nil {
		return nil, err
	}

	return params[name], nil
}

// CleanQueryParam returns a query value passed through the sanitization
// engine with the given rule.
func (r *Request) CleanQueryParam(name, rule string) (string, error) {
	return r.cleanScalar(r.QueryParam(name), rule)
}

// CleanFormValue returns a form value passed through the sanitization
// engine with the given rule.
func (r *Request) CleanFormValue(name, rule string) (string, error) {
	return r.cleanScalar(r.FormValue(name), rule)
}

// CleanBodyParam returns a body parameter, coerced to a string and passed
// through the sanitization engine with the given rule.
func (r *Request) CleanBodyParam(name, rule string) (string, error) {
	raw, err := r.BodyParam(name)
	if err != nil {
		return "", err
	}

	return r.cleanScalar(cast.ToString(raw), rule)
}

// CleanQueryParams returns the whole query mapping passed through the
// sanitization engine with the given rule.
func (r *Request) CleanQueryParams(rule string) (map[string]string, error) {
	flat := make(map[string]string)
	for name := range r.QueryParams() {
		flat[name] = r.QueryParam(name)
	}

	cleaned, err := r.applyRule(sanitize.Mapping(flat), rule)
	if err != nil {
		return nil, err
	}
	if m, ok := cleaned.Mapping(); ok {
		return m, nil
	}

	return flat, nil
}

// cleanScalar routes one scalar through the shared sanitize helper.
func (r *Request) cleanScalar(value, rule string) (string, error) {
	cleaned, err := r.applyRule(sanitize.Scalar(value), rule)
	if err != nil {
		return "", err
	}
	if s, ok := cleaned.Scalar(); ok {
		return s, nil
	}

	return value, nil
}

// applyRule is the single point where the external sanitization engine is
// invoked. Without an engine, values pass through unchanged.
func (r *Request) applyRule(v sanitize.Value, rule string) (sanitize.Value, error) {
	if r.sanitizer == nil {
		return v, nil
	}

	return r.sanitizer.Clean(v, rule)
}

// QueryInt returns a query value coerced to int, or def when the value is
// absent or not coercible.
func (r *Request) QueryInt(name string, def int) int {
	raw := r.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}

	return v
}

// QueryBool returns a query value coerced to bool, or def.
func (r *Request) QueryBool(name string, def bool) bool {
	raw := r.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return def
	}

	return v
}

// QueryFloat returns a query value coerced to float64, or def.
func (r *Request) QueryFloat(name string, def float64) float64 {
	raw := r.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return def
	}

	return v
}

// BodyInt returns a body parameter coerced to int, or def.
func (r *Request) BodyInt(name string, def int) int {
	raw, err := r.BodyParam(name)
	if err != nil || raw == nil {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}

	return v
}

// BodyString returns a body parameter coerced to string, or def when
// absent.
func (r *Request) BodyString(name, def string) string {
	raw, err := r.BodyParam(name)
	if err != nil || raw == nil {
		return def
	}

	return cast.ToString(raw)
}

// DecodeBodyInto decodes the body parameters into a caller struct.
// Fields are matched by "json" tag, weakly typed, so a JSON body and a
// form body decode into the same struct.
//
// Example:
//
//	var in CreateUserInput
//	if err := req.DecodeBodyInto(&in); err != nil { ... }
func (r *Request) DecodeBodyInto(out any) error {
	params, err := r.BodyParams()
	if err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return dec.Decode(params)
}

// CombinedParams merges the body parameters over the query parameters into
// one map; body values win on conflicts.
func (r *Request) CombinedParams() (map[string]any, error) {
	body, err := r.BodyParams()
	if err != nil {
		return nil, err
	}

	combined := make(map[string]any, len(body))
	for name := range r.QueryParams() {
		combined[name] = r.QueryParam(name)
	}
	if err := mergo.Merge(&combined, body, mergo.WithOverride); err != nil {
		return nil, err
	}

	return combined, nil
}
