// Copyright 2024 The Memo Authors
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

// Package keyutil provides a content-addressed memo.Key for inputs that
// don't already have a natural Hash/Equal pair: any gob-encodable value can
// be turned into a Key by hashing its encoded bytes.
package keyutil

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"

	digest "github.com/opencontainers/go-digest"

	"github.com/recoules/dune/memo"
)

// Key is a memo.Key computed from the content-addressed digest of a gob
// encoding of the wrapped value. Two Digest calls on gob-equal values
// always produce an equal Key, regardless of pointer identity.
type Key struct {
	dig digest.Digest
}

// Digest gob-encodes v and returns the resulting Key. It returns an error
// if v (or something it contains) is not gob-encodable.
func Digest(v any) (Key, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return Key{}, err
	}
	return Key{dig: digest.FromBytes(buf.Bytes())}, nil
}

// Hash implements memo.Key.
func (k Key) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.dig.String()))
	return h.Sum64()
}

// Equal implements memo.Key.
func (k Key) Equal(other memo.Key) bool {
	o, ok := other.(Key)
	return ok && o.dig == k.dig
}

// String returns the underlying digest's string form (algorithm:hex),
// useful for logging and test fixtures.
func (k Key) String() string { return k.dig.String() }
