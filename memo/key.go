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

// Package memo implements an incremental memoization engine: named
// functions are registered once, executed on demand, and re-executed on
// later runs only when their transitively recorded dependencies actually
// changed. It is the engine underlying a build system's rule evaluation;
// rule definition, on-disk artifacts, a CLI and an RPC transport are all
// external collaborators and out of scope here.
package memo

import "hash/fnv"

// Key is the equality/hash capability §3 requires of every function's
// input type: name+input identify a call, so the cell store needs both a
// cheap bucketing hash and an authoritative equality check.
type Key interface {
	Hash() uint64
	Equal(other Key) bool
}

// StringKey and IntKey are Key implementations for inputs that are already
// naturally comparable, covering the common case without requiring every
// caller to hand-write Hash/Equal.
type StringKey string

func (s StringKey) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func (s StringKey) Equal(other Key) bool {
	o, ok := other.(StringKey)
	return ok && o == s
}

type IntKey int64

func (i IntKey) Hash() uint64 { return uint64(i) }

func (i IntKey) Equal(other Key) bool {
	o, ok := other.(IntKey)
	return ok && o == i
}

// PolyKey lets a function whose input is a tagged union over several
// underlying types key its cells on (type-id, payload) rather than payload
// alone, so that distinct variants never collide under one key space
// (spec §4.6).
type PolyKey struct {
	TypeID  string
	Payload Key
}

func (p PolyKey) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.TypeID))
	var buf [8]byte
	payloadHash := p.Payload.Hash()
	for i := range buf {
		buf[i] = byte(payloadHash >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

func (p PolyKey) Equal(other Key) bool {
	o, ok := other.(PolyKey)
	return ok && o.TypeID == p.TypeID && p.Payload.Equal(o.Payload)
}
