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
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ProtoParser decodes Protocol Buffers bodies into a parameter map.
//
// Binary protobuf carries no field names, so the parser needs a schema: the
// caller supplies a factory producing fresh messages of the expected type.
// The decoded message is projected to a map through its canonical JSON form.
//
// Example:
//
//	reg.Register("application/x-protobuf", &bodyparser.ProtoParser{
//	    NewMessage: func() proto.Message { return &pb.CreateUserRequest{} },
//	})
type ProtoParser struct {
	// NewMessage produces a fresh message of the expected type.
	NewMessage func() proto.Message

	// Silent swallows decode failures. A missing NewMessage is a
	// configuration error and is never swallowed.
	Silent bool
}

// Parse decodes body as a binary protobuf message.
func (p *ProtoParser) Parse(body []byte, contentType string) (map[string]any, error) {
	if p.NewMessage == nil {
		return nil, ErrNoMessageFactory
	}

	msg := p.NewMessage()
	if err := proto.Unmarshal(body, msg); err != nil {
		if p.Silent {
			return map[string]any{}, nil
		}

		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	projected, err := protojson.Marshal(msg)
	if err != nil {
		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	params := make(map[string]any)
	if err := json.Unmarshal(projected, &params); err != nil {
		return nil, &ParseError{ContentType: contentType, Err: err}
	}

	return params, nil
}
