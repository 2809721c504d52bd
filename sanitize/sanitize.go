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

// Package sanitize defines the boundary contract between the request core and
// an external value-sanitization engine.
//
// The request accessor layer hands values to the engine as a tagged union
// ([Value]) that is either a scalar or a flat string mapping. The union is
// chosen once at the call site; the engine never has to probe the dynamic
// shape of what it received.
//
// The rule language itself is owned by the engine and is opaque to this
// package.
package sanitize

import "maps"

// Kind identifies which arm of the [Value] union is populated.
type Kind int

const (
	// KindUnset is the zero Value.
	KindUnset Kind = iota

	// KindScalar is a single string value.
	KindScalar

	// KindMapping is a flat string-to-string mapping.
	KindMapping
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	default:
		return "unset"
	}
}

// Value is a tagged union of a scalar string or a string mapping.
//
// Construct values with [Scalar] or [Mapping]; the zero Value has
// [KindUnset] and carries nothing.
type Value struct {
	kind    Kind
	scalar  string
	mapping map[string]string
}

// Scalar wraps a single string value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Mapping wraps a flat string mapping. The map is copied so later mutation
// by the caller cannot leak into the engine.
func Mapping(m map[string]string) Value {
	cp := make(map[string]string, len(m))
	maps.Copy(cp, m)

	return Value{kind: KindMapping, mapping: cp}
}

// Kind reports which arm of the union is populated.
func (v Value) Kind() Kind {
	return v.kind
}

// Scalar returns the scalar arm. The second return is false when the value
// is not a scalar.
func (v Value) Scalar() (string, bool) {
	return v.scalar, v.kind == KindScalar
}

// Mapping returns a copy of the mapping arm. The second return is false when
// the value is not a mapping.
func (v Value) Mapping() (map[string]string, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	cp := make(map[string]string, len(v.mapping))
	maps.Copy(cp, v.mapping)

	return cp, true
}

// Engine cleans a value according to a rule specification.
//
// Implementations are supplied by the embedding application; the request
// core only calls Clean and propagates its result.
type Engine interface {
	Clean(v Value, rule string) (Value, error)
}
